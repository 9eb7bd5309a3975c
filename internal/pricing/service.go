// Package pricing computes authoritative prices. Client-submitted prices
// and totals are advisory only; every order line is re-priced here from the
// current catalog snapshot before an order is persisted.
package pricing

import (
	"errors"
	"fmt"

	"storefront/internal/models"
)

var (
	// ErrUnknownOption is returned when a requested option value id does
	// not belong to the product. Pricing a modifier the catalog does not
	// define would be a data-integrity error, so it is rejected rather
	// than passed through.
	ErrUnknownOption = errors.New("unknown product option value")

	// ErrInvalidQuantity is returned for non-positive quantities.
	ErrInvalidQuantity = errors.New("quantity must be positive")
)

// Service composes the pricing strategies into line and order totals.
type Service struct {
	transferDiscountPercent float64
	shippingCost            models.Money
}

// NewService creates a pricing service. transferDiscountPercent is the
// payment-method incentive for bank transfers, expressed 0-100.
func NewService(transferDiscountPercent float64, shippingCost models.Money) *Service {
	return &Service{
		transferDiscountPercent: transferDiscountPercent,
		shippingCost:            shippingCost,
	}
}

// TransferDiscountPercent returns the configured transfer incentive.
func (s *Service) TransferDiscountPercent() float64 {
	return s.transferDiscountPercent
}

// ShippingCost returns the flat shipping cost added to every order total.
func (s *Service) ShippingCost() models.Money {
	return s.shippingCost
}

// UnitPrice computes the authoritative per-unit price for a product, the
// selected option value ids, and a payment method:
//
//  1. base price from the regular or promotional strategy
//  2. plus the sum of resolved option price modifiers
//  3. reduced by the transfer incentive when the method qualifies
//
// Rounding happens at the Money boundary after every stage.
func (s *Service) UnitPrice(ctx Context, selectedOptions []string) (models.Money, error) {
	unit := baseUnitPrice(ctx)

	for _, valueID := range selectedOptions {
		value, ok := ctx.Product.FindOptionValue(valueID)
		if !ok {
			return models.Money{}, fmt.Errorf("%w: %q on product %s", ErrUnknownOption, valueID, ctx.Product.ID)
		}
		var err error
		unit, err = unit.Add(models.NewMoney(value.PriceModifier, unit.Currency()))
		if err != nil {
			return models.Money{}, err
		}
	}

	if SelectStrategy(ctx) == StrategyTransfer && s.transferDiscountPercent > 0 {
		unit = unit.Multiply(1 - s.transferDiscountPercent/100)
	}
	return unit, nil
}

// LineTotal computes the total for one order line: unit price times
// quantity.
func (s *Service) LineTotal(ctx Context, selectedOptions []string) (models.Money, error) {
	if ctx.Quantity <= 0 {
		return models.Money{}, fmt.Errorf("%w: %d", ErrInvalidQuantity, ctx.Quantity)
	}
	unit, err := s.UnitPrice(ctx, selectedOptions)
	if err != nil {
		return models.Money{}, err
	}
	return unit.Multiply(float64(ctx.Quantity)), nil
}

// OrderTotal sums line totals, subtracts the order-level discount-code
// savings, and adds the shipping cost. A nil discount means no code was
// applied.
func (s *Service) OrderTotal(lineTotals []models.Money, discount *models.DiscountCode) (models.Money, error) {
	if len(lineTotals) == 0 {
		return models.Money{}, errors.New("cannot total an empty order")
	}

	total := lineTotals[0]
	var err error
	for _, lt := range lineTotals[1:] {
		total, err = total.Add(lt)
		if err != nil {
			return models.Money{}, err
		}
	}

	if discount != nil && discount.Percentage > 0 {
		total, err = total.Subtract(total.Percentage(discount.Percentage))
		if err != nil {
			return models.Money{}, err
		}
	}

	if !s.shippingCost.IsZero() {
		shipping := models.NewMoneyFromDecimal(s.shippingCost.Amount(), total.Currency())
		total, err = total.Add(shipping)
		if err != nil {
			return models.Money{}, err
		}
	}
	return total, nil
}
