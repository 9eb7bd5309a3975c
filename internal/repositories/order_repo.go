package repositories

import (
	"storefront/internal/models"
)

// OrderRepository defines order persistence. Orders are never deleted;
// cancellation is a status.
type OrderRepository interface {
	GetAll() ([]models.Order, error)
	GetByID(id string) (*models.Order, error)
	Create(order *models.Order) error

	// FindByExternalPaymentID locates an order by the gateway payment id
	// stored from an earlier notification.
	FindByExternalPaymentID(paymentID string) (*models.Order, error)

	// FindByPaymentDetailsID locates an order whose payment details carry
	// the given payment id (set at checkout time).
	FindByPaymentDetailsID(paymentID string) (*models.Order, error)

	// UpdateStatusIf performs a compare-and-swap: the order moves from
	// `from` to `to` (also storing the external payment id and status)
	// only if its stored status still equals `from`. It returns false when
	// the precondition failed, which callers treat as a lost race rather
	// than an error.
	UpdateStatusIf(id string, from, to models.OrderStatus, extPaymentID, extStatus string) (bool, error)
}
