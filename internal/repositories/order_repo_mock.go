package repositories

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"storefront/internal/models"
)

// MockOrderRepository is an in-memory implementation of OrderRepository.
// UpdateStatusIf is a real compare-and-swap under the repository lock, so
// reconciler race tests exercise the same semantics as the SQL conditional
// UPDATE.
type MockOrderRepository struct {
	orders map[string]models.Order
	mu     sync.RWMutex
}

// NewMockOrderRepository creates a new instance of MockOrderRepository.
func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{
		orders: make(map[string]models.Order),
	}
}

// GetAll returns all orders.
func (r *MockOrderRepository) GetAll() ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	orderList := make([]models.Order, 0, len(r.orders))
	for _, order := range r.orders {
		orderList = append(orderList, order)
	}
	return orderList, nil
}

// GetByID returns an order by its ID.
func (r *MockOrderRepository) GetByID(id string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	return &order, nil
}

// Create adds a new order.
func (r *MockOrderRepository) Create(order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	order.CreatedAt = time.Now()
	order.UpdatedAt = time.Now()
	r.orders[order.ID] = *order
	return nil
}

// FindByExternalPaymentID returns the order carrying the given stored
// gateway payment id.
func (r *MockOrderRepository) FindByExternalPaymentID(paymentID string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, order := range r.orders {
		if order.ExternalPaymentID == paymentID && paymentID != "" {
			o := order
			return &o, nil
		}
	}
	return nil, fmt.Errorf("order for payment %s: %w", paymentID, ErrNotFound)
}

// FindByPaymentDetailsID returns the order whose payment details carry the
// given payment id.
func (r *MockOrderRepository) FindByPaymentDetailsID(paymentID string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, order := range r.orders {
		if order.PaymentDetails.PaymentID == paymentID && paymentID != "" {
			o := order
			return &o, nil
		}
	}
	return nil, fmt.Errorf("order for payment details %s: %w", paymentID, ErrNotFound)
}

// UpdateStatusIf swaps the status only when the stored status still equals
// `from`.
func (r *MockOrderRepository) UpdateStatusIf(id string, from, to models.OrderStatus, extPaymentID, extStatus string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return false, fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	if order.Status != from {
		return false, nil
	}
	order.Status = to
	order.ExternalPaymentID = extPaymentID
	order.ExternalPaymentStatus = extStatus
	order.UpdatedAt = time.Now()
	r.orders[id] = order
	return true, nil
}
