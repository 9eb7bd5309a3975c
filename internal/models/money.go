package models

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrCurrencyMismatch is returned when arithmetic is attempted between two
// Money values of different currencies.
var ErrCurrencyMismatch = errors.New("currency mismatch")

// DefaultCurrency is used when a caller constructs a price without naming
// a currency explicitly.
const DefaultCurrency = "USD"

// Money is an immutable fixed-point monetary value. The amount is always
// rounded to 2 decimal places at construction and after every operation,
// so chained computations are deterministic regardless of evaluation order.
type Money struct {
	amount   decimal.Decimal
	currency string
}

// NewMoney creates a Money from a float amount, rounding to cents.
func NewMoney(amount float64, currency string) Money {
	if currency == "" {
		currency = DefaultCurrency
	}
	return Money{
		amount:   decimal.NewFromFloat(amount).Round(2),
		currency: currency,
	}
}

// NewMoneyFromDecimal creates a Money from a decimal amount, rounding to cents.
func NewMoneyFromDecimal(amount decimal.Decimal, currency string) Money {
	if currency == "" {
		currency = DefaultCurrency
	}
	return Money{amount: amount.Round(2), currency: currency}
}

// Amount returns the rounded decimal amount.
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

// Currency returns the currency code.
func (m Money) Currency() string {
	if m.currency == "" {
		return DefaultCurrency
	}
	return m.currency
}

// Cents returns the amount in minor units, e.g. 1234 for "12.34".
func (m Money) Cents() int64 {
	return m.amount.Mul(decimal.NewFromInt(100)).IntPart()
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

func (m Money) checkCurrency(other Money) error {
	if m.Currency() != other.Currency() {
		return fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.Currency(), other.Currency())
	}
	return nil
}

// Add returns m + other. Fails if the currencies differ.
func (m Money) Add(other Money) (Money, error) {
	if err := m.checkCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{amount: m.amount.Add(other.amount).Round(2), currency: m.Currency()}, nil
}

// Subtract returns m - other. Fails if the currencies differ.
func (m Money) Subtract(other Money) (Money, error) {
	if err := m.checkCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{amount: m.amount.Sub(other.amount).Round(2), currency: m.Currency()}, nil
}

// Multiply returns m * factor, rounded to cents immediately so that no raw
// float precision leaks into subsequent stages.
func (m Money) Multiply(factor float64) Money {
	return Money{
		amount:   m.amount.Mul(decimal.NewFromFloat(factor)).Round(2),
		currency: m.Currency(),
	}
}

// Percentage returns pct percent of m, rounded to cents. pct is expressed
// 0-100.
func (m Money) Percentage(pct float64) Money {
	return Money{
		amount:   m.amount.Mul(decimal.NewFromFloat(pct)).Div(decimal.NewFromInt(100)).Round(2),
		currency: m.Currency(),
	}
}

// Equals reports whether two Money values have the same currency and amount.
func (m Money) Equals(other Money) bool {
	return m.Currency() == other.Currency() && m.amount.Equal(other.amount)
}

// IsNegative reports whether the amount is below zero.
func (m Money) IsNegative() bool {
	return m.amount.IsNegative()
}

// Format renders the value as "123.45 USD".
func (m Money) Format() string {
	return fmt.Sprintf("%s %s", m.amount.StringFixed(2), m.Currency())
}

// String implements fmt.Stringer.
func (m Money) String() string {
	return m.Format()
}

type moneyJSON struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// MarshalJSON serializes the value as {"amount":"123.45","currency":"USD"}.
// Order line items are snapshotted into a JSON column, so Money must round-trip.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(moneyJSON{Amount: m.amount, Currency: m.Currency()})
}

// UnmarshalJSON restores a Money from its JSON form, re-applying the
// 2-decimal rounding invariant.
func (m *Money) UnmarshalJSON(data []byte) error {
	var raw moneyJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m.amount = raw.Amount.Round(2)
	m.currency = raw.Currency
	return nil
}
