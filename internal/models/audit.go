package models

import "time"

// AuditEntry records one lifecycle event on an order: creation, a payment
// status transition, a post-paid cancellation. Entries are written
// best-effort; losing one never fails the operation it describes.
type AuditEntry struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID   string    `json:"order_id" gorm:"index"`
	Event     string    `json:"event"`
	Detail    string    `json:"detail"`
	CreatedAt time.Time `json:"created_at"`
}
