package repositories

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"storefront/internal/models"
)

// MockDiscountRepository is an in-memory implementation of
// DiscountRepository. Redeem holds the lock across check and increment,
// matching the conditional UPDATE of the SQL implementation.
type MockDiscountRepository struct {
	codes map[string]models.DiscountCode
	mu    sync.Mutex
}

// NewMockDiscountRepository creates a new instance of MockDiscountRepository.
func NewMockDiscountRepository() *MockDiscountRepository {
	return &MockDiscountRepository{
		codes: make(map[string]models.DiscountCode),
	}
}

// GetByCode returns a discount code.
func (r *MockDiscountRepository) GetByCode(code string) (*models.DiscountCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	discount, ok := r.codes[code]
	if !ok {
		return nil, fmt.Errorf("discount code %s: %w", code, ErrNotFound)
	}
	return &discount, nil
}

// Create adds a discount code.
func (r *MockDiscountRepository) Create(code *models.DiscountCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if code.ID == "" {
		code.ID = uuid.New().String()
	}
	r.codes[code.Code] = *code
	return nil
}

// Redeem conditionally increments usedCount.
func (r *MockDiscountRepository) Redeem(code string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	discount, ok := r.codes[code]
	if !ok {
		return fmt.Errorf("discount code %s: %w", code, ErrNotFound)
	}
	if !discount.Redeemable(now) {
		return fmt.Errorf("discount code %s: %w", code, ErrCodeNotRedeemable)
	}
	discount.UsedCount++
	r.codes[code] = discount
	return nil
}

// Release undoes one redemption.
func (r *MockDiscountRepository) Release(code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	discount, ok := r.codes[code]
	if !ok {
		return fmt.Errorf("discount code %s: %w", code, ErrNotFound)
	}
	if discount.UsedCount > 0 {
		discount.UsedCount--
		r.codes[code] = discount
	}
	return nil
}
