package repositories

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"storefront/internal/models"
)

// GORMDiscountRepository is a GORM implementation of DiscountRepository.
type GORMDiscountRepository struct {
	db *gorm.DB
}

// NewGORMDiscountRepository creates a new instance of GORMDiscountRepository.
func NewGORMDiscountRepository(db *gorm.DB) *GORMDiscountRepository {
	return &GORMDiscountRepository{db: db}
}

// GetByCode retrieves a discount code by its code string.
func (r *GORMDiscountRepository) GetByCode(code string) (*models.DiscountCode, error) {
	var discount models.DiscountCode
	if err := r.db.First(&discount, "code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("discount code %s: %w", code, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get discount code %s: %w", code, err)
	}
	return &discount, nil
}

// Create persists a new discount code.
func (r *GORMDiscountRepository) Create(code *models.DiscountCode) error {
	if code.ID == "" {
		code.ID = uuid.New().String()
	}
	if err := r.db.Create(code).Error; err != nil {
		return fmt.Errorf("failed to create discount code: %w", err)
	}
	return nil
}

// Redeem increments usedCount with the redeemability preconditions in the
// WHERE clause. The database serializes concurrent redemptions on the row,
// so exactly one of two racing checkouts wins the last use of a code.
func (r *GORMDiscountRepository) Redeem(code string, now time.Time) error {
	res := r.db.Model(&models.DiscountCode{}).
		Where("code = ? AND used_count < usage_limit AND (expires_at IS NULL OR expires_at > ?)", code, now).
		UpdateColumn("used_count", gorm.Expr("used_count + 1"))
	if res.Error != nil {
		return fmt.Errorf("failed to redeem discount code %s: %w", code, res.Error)
	}
	if res.RowsAffected == 1 {
		return nil
	}

	// Distinguish unknown codes from expired/exhausted ones.
	if _, err := r.GetByCode(code); err != nil {
		return err
	}
	return fmt.Errorf("discount code %s: %w", code, ErrCodeNotRedeemable)
}

// Release undoes one redemption, guarded so usedCount never goes negative.
func (r *GORMDiscountRepository) Release(code string) error {
	res := r.db.Model(&models.DiscountCode{}).
		Where("code = ? AND used_count > 0", code).
		UpdateColumn("used_count", gorm.Expr("used_count - 1"))
	if res.Error != nil {
		return fmt.Errorf("failed to release discount code %s: %w", code, res.Error)
	}
	return nil
}
