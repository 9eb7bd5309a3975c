package models

import (
	"time"

	"gorm.io/gorm"
)

// ReservationStatus tracks the lifecycle of a stock reservation.
type ReservationStatus string

const (
	ReservationStatusReserved  ReservationStatus = "reserved"
	ReservationStatusCommitted ReservationStatus = "committed" // stock decremented, hold released
	ReservationStatusReleased  ReservationStatus = "released"  // hold undone without a sale
)

// StockReservation is a soft hold on inventory for one line item of an
// order awaiting payment confirmation. The reservation ids are surfaced to
// the order via paymentDetails.reservationIds so the reconciler can commit
// exactly the quantities that were held.
type StockReservation struct {
	ID        string            `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID   string            `json:"order_id" gorm:"index"`
	ProductID string            `json:"product_id" gorm:"index"`
	Quantity  int               `json:"quantity"`
	Status    ReservationStatus `json:"status" gorm:"type:varchar(16)"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	DeletedAt gorm.DeletedAt    `json:"-" gorm:"index"`
}
