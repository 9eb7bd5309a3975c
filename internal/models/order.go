package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Payment methods accepted at checkout.
const (
	PaymentMethodTransfer = "transfer" // manual bank transfer, verified by an operator
	PaymentMethodCard     = "card"     // gateway-backed card payment
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"    // awaiting payment confirmation (e.g. bank transfer)
	OrderStatusProcessing OrderStatus = "processing" // created, gateway payment not yet confirmed
	OrderStatusPaid       OrderStatus = "paid"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCanceled   OrderStatus = "canceled"
)

// IsTerminal reports whether no further transition is allowed from s.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCanceled
}

// allowedTransitions encodes the order state machine:
// Pending -> Processing -> Paid -> Shipped -> Completed, with Canceled
// reachable from any non-terminal state. The machine is monotonic: once
// Paid, an order never moves back to Pending or Processing.
var allowedTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusPaid, OrderStatusCanceled},
	OrderStatusProcessing: {OrderStatusPending, OrderStatusPaid, OrderStatusCanceled},
	OrderStatusPaid:       {OrderStatusShipped, OrderStatusCompleted, OrderStatusCanceled},
	OrderStatusShipped:    {OrderStatusCompleted, OrderStatusCanceled},
}

// CanTransitionTo reports whether moving from s to target is a legal state
// machine step. Staying in place is not a transition.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	for _, t := range allowedTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// Valid reports whether s is one of the known statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusPaid,
		OrderStatusShipped, OrderStatusCompleted, OrderStatusCanceled:
		return true
	}
	return false
}

// OrderLineItem is a snapshot of a purchased product at order-creation
// time. It deliberately carries no live product reference so later catalog
// price changes never retroactively alter historical orders.
type OrderLineItem struct {
	ProductID       string   `json:"product_id"`
	Name            string   `json:"name"`
	UnitPrice       Money    `json:"unit_price"`
	Quantity        int      `json:"quantity"`
	SelectedOptions []string `json:"selected_options,omitempty"` // resolved option value ids
}

// PaymentDetails carries the payment attempt metadata attached to an order.
type PaymentDetails struct {
	PaymentID      string   `json:"payment_id,omitempty"`
	ReservationIDs []string `json:"reservation_ids,omitempty"`
}

// Order is the aggregate root for a customer purchase. Orders are created
// by the order service and mutated only by the payment reconciler (or an
// administrative override); cancellation is a terminal status, never a
// deletion.
type Order struct {
	ID                    string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CustomerName          string          `json:"customer_name"`
	CustomerEmail         string          `json:"customer_email"`
	CustomerAddress       string          `json:"customer_address"`
	CustomerCity          string          `json:"customer_city"`
	Items                 []OrderLineItem `json:"items" gorm:"serializer:json"`
	TotalAmount           decimal.Decimal `json:"total_amount" gorm:"type:decimal(12,2)"`
	TotalCurrency         string          `json:"total_currency" gorm:"type:varchar(3)"`
	Status                OrderStatus     `json:"status" gorm:"type:varchar(16);index"`
	PaymentMethod         string          `json:"payment_method"`
	PaymentDetails        PaymentDetails  `json:"payment_details" gorm:"serializer:json"`
	ExternalPaymentID     string          `json:"external_payment_id,omitempty" gorm:"index"`
	ExternalPaymentStatus string          `json:"external_payment_status,omitempty"`
	DiscountCode          string          `json:"discount_code,omitempty"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
	DeletedAt             gorm.DeletedAt  `json:"-" gorm:"index"`
}

// Total returns the order total as a Money value.
func (o *Order) Total() Money {
	return NewMoneyFromDecimal(o.TotalAmount, o.TotalCurrency)
}

// SetTotal stores a Money total on the aggregate.
func (o *Order) SetTotal(total Money) {
	o.TotalAmount = total.Amount()
	o.TotalCurrency = total.Currency()
}
