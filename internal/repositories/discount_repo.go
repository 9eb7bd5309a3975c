package repositories

import (
	"time"

	"storefront/internal/models"
)

// DiscountRepository defines discount-code access. Redeem is the only way
// usedCount moves forward, and it is a conditional increment so two
// concurrent checkouts can never oversubscribe a code.
type DiscountRepository interface {
	GetByCode(code string) (*models.DiscountCode, error)
	Create(code *models.DiscountCode) error

	// Redeem atomically increments usedCount subject to
	// usedCount < usageLimit and the code not being expired at `now`.
	// Returns ErrNotFound for unknown codes and ErrCodeNotRedeemable when
	// the precondition fails.
	Redeem(code string, now time.Time) error

	// Release undoes one redemption. Used as a compensating action when
	// order creation aborts after the code was already consumed.
	Release(code string) error
}
