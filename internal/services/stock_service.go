package services

import (
	"fmt"

	"storefront/internal/models"
	"storefront/internal/repositories"
)

// StockService is the stock ledger: soft holds (reserve) for orders
// awaiting payment and hard commitments (decrement) once payment is
// confirmed. All multi-item operations are atomic per order: the
// repository rolls back every mutation when any single item fails.
type StockService struct {
	stockRepo repositories.StockRepository
}

// NewStockService creates a new StockService.
func NewStockService(stockRepo repositories.StockRepository) *StockService {
	return &StockService{stockRepo: stockRepo}
}

// Reserve places a soft hold for every line item and returns the
// reservation ids to attach to the order's payment details.
func (s *StockService) Reserve(orderID string, items []models.OrderLineItem) ([]string, error) {
	reservations, err := s.stockRepo.Reserve(orderID, items)
	if err != nil {
		return nil, fmt.Errorf("failed to reserve stock for order %s: %w", orderID, err)
	}
	ids := make([]string, len(reservations))
	for i, r := range reservations {
		ids[i] = r.ID
	}
	return ids, nil
}

// Decrement hard-commits stock for an order confirmed paid at creation.
func (s *StockService) Decrement(orderID string, items []models.OrderLineItem) error {
	if err := s.stockRepo.Decrement(orderID, items); err != nil {
		return fmt.Errorf("failed to decrement stock for order %s: %w", orderID, err)
	}
	return nil
}

// CommitReservations converts an order's soft holds into a sale. Committing
// releases the matching reserved quantity along with the stock decrement,
// so stock - reservedStock keeps representing true availability.
func (s *StockService) CommitReservations(ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := s.stockRepo.CommitReservations(ids); err != nil {
		return fmt.Errorf("failed to commit reservations: %w", err)
	}
	return nil
}

// ReleaseReservations undoes an order's soft holds without a sale.
func (s *StockService) ReleaseReservations(ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := s.stockRepo.ReleaseReservations(ids); err != nil {
		return fmt.Errorf("failed to release reservations: %w", err)
	}
	return nil
}

// Restock returns sold quantities to stock after a post-paid cancellation.
func (s *StockService) Restock(orderID string, items []models.OrderLineItem) error {
	if err := s.stockRepo.Restock(orderID, items); err != nil {
		return fmt.Errorf("failed to restock order %s: %w", orderID, err)
	}
	return nil
}
