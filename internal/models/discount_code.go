package models

import (
	"time"

	"gorm.io/gorm"
)

// DiscountCode is an order-level percentage discount with a redemption
// budget. usedCount <= usageLimit must hold after every redemption; the
// repository enforces it with a conditional increment so concurrent
// checkouts cannot oversubscribe a code.
type DiscountCode struct {
	ID         string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Code       string     `json:"code" gorm:"uniqueIndex;type:varchar(64)" validate:"required"`
	Percentage float64    `json:"percentage" validate:"gt=0,lte=100"`
	UsageLimit int        `json:"usage_limit" validate:"gte=0"`
	UsedCount  int        `json:"used_count" validate:"gte=0"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	gorm.Model `json:"-"`
}

// Expired reports whether the code's expiry has passed. Codes without an
// expiry never expire.
func (d *DiscountCode) Expired(now time.Time) bool {
	return d.ExpiresAt != nil && now.After(*d.ExpiresAt)
}

// Exhausted reports whether the redemption budget is used up.
func (d *DiscountCode) Exhausted() bool {
	return d.UsedCount >= d.UsageLimit
}

// Redeemable reports whether the code can still be applied to a new order.
// Expired or exhausted codes are inert even if referenced by an in-flight
// order.
func (d *DiscountCode) Redeemable(now time.Time) bool {
	return !d.Expired(now) && !d.Exhausted()
}
