package repositories

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"storefront/internal/models"
)

// MockStockRepository is an in-memory implementation of StockRepository
// backed by a MockProductRepository, so stock mutations are visible through
// the product view just like the shared SQL rows in production.
type MockStockRepository struct {
	products     *MockProductRepository
	reservations map[string]models.StockReservation
	mu           sync.Mutex
}

// NewMockStockRepository creates a stock repository over the given product
// repository.
func NewMockStockRepository(products *MockProductRepository) *MockStockRepository {
	return &MockStockRepository{
		products:     products,
		reservations: make(map[string]models.StockReservation),
	}
}

// Reserve places soft holds for all items or none of them.
func (r *MockStockRepository) Reserve(orderID string, items []models.OrderLineItem) ([]models.StockReservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	created := make([]models.StockReservation, 0, len(items))
	for i, item := range items {
		qty := item.Quantity
		err := r.products.adjust(item.ProductID, 0, qty, func(p models.Product) bool {
			return p.Stock-p.ReservedStock >= qty
		})
		if err != nil {
			// Roll back the holds already taken for this order.
			for _, done := range items[:i] {
				_ = r.products.adjust(done.ProductID, 0, -done.Quantity, nil)
			}
			return nil, err
		}

		reservation := models.StockReservation{
			ID:        uuid.New().String(),
			OrderID:   orderID,
			ProductID: item.ProductID,
			Quantity:  qty,
			Status:    models.ReservationStatusReserved,
		}
		r.reservations[reservation.ID] = reservation
		created = append(created, reservation)
	}
	return created, nil
}

// Decrement hard-commits stock for all items or none of them.
func (r *MockStockRepository) Decrement(orderID string, items []models.OrderLineItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, item := range items {
		qty := item.Quantity
		err := r.products.adjust(item.ProductID, -qty, 0, func(p models.Product) bool {
			return p.Stock >= qty
		})
		if err != nil {
			for _, done := range items[:i] {
				_ = r.products.adjust(done.ProductID, done.Quantity, 0, nil)
			}
			return err
		}
	}
	return nil
}

// CommitReservations flips reserved holds to committed, decrementing stock
// and releasing the matching reserved quantity. Already-committed
// reservations are skipped so replays are idempotent.
func (r *MockStockRepository) CommitReservations(ids []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range ids {
		reservation, ok := r.reservations[id]
		if !ok {
			return fmt.Errorf("reservation %s: %w", id, ErrNotFound)
		}
		if reservation.Status != models.ReservationStatusReserved {
			continue
		}
		qty := reservation.Quantity
		err := r.products.adjust(reservation.ProductID, -qty, -qty, func(p models.Product) bool {
			return p.Stock >= qty
		})
		if err != nil {
			return err
		}
		reservation.Status = models.ReservationStatusCommitted
		r.reservations[id] = reservation
	}
	return nil
}

// ReleaseReservations undoes reserved holds.
func (r *MockStockRepository) ReleaseReservations(ids []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range ids {
		reservation, ok := r.reservations[id]
		if !ok {
			return fmt.Errorf("reservation %s: %w", id, ErrNotFound)
		}
		if reservation.Status != models.ReservationStatusReserved {
			continue
		}
		if err := r.products.adjust(reservation.ProductID, 0, -reservation.Quantity, nil); err != nil {
			return err
		}
		reservation.Status = models.ReservationStatusReleased
		r.reservations[id] = reservation
	}
	return nil
}

// Restock returns sold quantities to stock.
func (r *MockStockRepository) Restock(orderID string, items []models.OrderLineItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, item := range items {
		if err := r.products.adjust(item.ProductID, item.Quantity, 0, nil); err != nil {
			return err
		}
	}
	return nil
}

// ReservationByID exposes a reservation for assertions in tests.
func (r *MockStockRepository) ReservationByID(id string) (models.StockReservation, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	reservation, ok := r.reservations[id]
	return reservation, ok
}
