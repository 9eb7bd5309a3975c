package repositories

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"storefront/internal/models"
)

// GORMStockRepository is a GORM implementation of StockRepository. Every
// multi-item operation runs inside one transaction; a failing item rolls
// back the adjustments already made for the order.
type GORMStockRepository struct {
	db *gorm.DB
}

// NewGORMStockRepository creates a new instance of GORMStockRepository.
func NewGORMStockRepository(db *gorm.DB) *GORMStockRepository {
	return &GORMStockRepository{db: db}
}

// Reserve places a soft hold per item. The availability guard lives in the
// WHERE clause, so concurrent checkouts for the same product serialize on
// the row and can never overdraw it.
func (r *GORMStockRepository) Reserve(orderID string, items []models.OrderLineItem) ([]models.StockReservation, error) {
	reservations := make([]models.StockReservation, 0, len(items))

	err := r.db.Transaction(func(tx *gorm.DB) error {
		for _, item := range items {
			res := tx.Model(&models.Product{}).
				Where("id = ? AND stock - reserved_stock >= ?", item.ProductID, item.Quantity).
				UpdateColumn("reserved_stock", gorm.Expr("reserved_stock + ?", item.Quantity))
			if res.Error != nil {
				return fmt.Errorf("failed to reserve stock for product %s: %w", item.ProductID, res.Error)
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("product %s (requested %d): %w", item.ProductID, item.Quantity, ErrInsufficientStock)
			}

			reservation := models.StockReservation{
				ID:        uuid.New().String(),
				OrderID:   orderID,
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				Status:    models.ReservationStatusReserved,
			}
			if err := tx.Create(&reservation).Error; err != nil {
				return fmt.Errorf("failed to record reservation for product %s: %w", item.ProductID, err)
			}
			reservations = append(reservations, reservation)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reservations, nil
}

// Decrement hard-commits stock for an order that is already paid at
// creation, without passing through a reservation.
func (r *GORMStockRepository) Decrement(orderID string, items []models.OrderLineItem) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		for _, item := range items {
			res := tx.Model(&models.Product{}).
				Where("id = ? AND stock >= ?", item.ProductID, item.Quantity).
				UpdateColumn("stock", gorm.Expr("stock - ?", item.Quantity))
			if res.Error != nil {
				return fmt.Errorf("failed to decrement stock for product %s: %w", item.ProductID, res.Error)
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("product %s (requested %d): %w", item.ProductID, item.Quantity, ErrInsufficientStock)
			}
		}
		return nil
	})
}

// CommitReservations converts soft holds into sales. Each reservation is
// flipped reserved -> committed with a conditional update first; a
// reservation someone else already committed is skipped, so replaying a
// commit never decrements twice.
func (r *GORMStockRepository) CommitReservations(ids []string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		for _, id := range ids {
			var reservation models.StockReservation
			if err := tx.First(&reservation, "id = ?", id).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("reservation %s: %w", id, ErrNotFound)
				}
				return fmt.Errorf("failed to load reservation %s: %w", id, err)
			}

			flip := tx.Model(&models.StockReservation{}).
				Where("id = ? AND status = ?", id, models.ReservationStatusReserved).
				UpdateColumn("status", models.ReservationStatusCommitted)
			if flip.Error != nil {
				return fmt.Errorf("failed to commit reservation %s: %w", id, flip.Error)
			}
			if flip.RowsAffected == 0 {
				// Already committed or released by another worker.
				continue
			}

			res := tx.Model(&models.Product{}).
				Where("id = ? AND stock >= ?", reservation.ProductID, reservation.Quantity).
				UpdateColumns(map[string]interface{}{
					"stock":          gorm.Expr("stock - ?", reservation.Quantity),
					"reserved_stock": gorm.Expr("reserved_stock - ?", reservation.Quantity),
				})
			if res.Error != nil {
				return fmt.Errorf("failed to commit stock for product %s: %w", reservation.ProductID, res.Error)
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("product %s (committing %d): %w", reservation.ProductID, reservation.Quantity, ErrInsufficientStock)
			}
		}
		return nil
	})
}

// ReleaseReservations undoes soft holds that never became sales.
func (r *GORMStockRepository) ReleaseReservations(ids []string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		for _, id := range ids {
			var reservation models.StockReservation
			if err := tx.First(&reservation, "id = ?", id).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("reservation %s: %w", id, ErrNotFound)
				}
				return fmt.Errorf("failed to load reservation %s: %w", id, err)
			}

			flip := tx.Model(&models.StockReservation{}).
				Where("id = ? AND status = ?", id, models.ReservationStatusReserved).
				UpdateColumn("status", models.ReservationStatusReleased)
			if flip.Error != nil {
				return fmt.Errorf("failed to release reservation %s: %w", id, flip.Error)
			}
			if flip.RowsAffected == 0 {
				continue
			}

			if err := tx.Model(&models.Product{}).
				Where("id = ?", reservation.ProductID).
				UpdateColumn("reserved_stock", gorm.Expr("reserved_stock - ?", reservation.Quantity)).Error; err != nil {
				return fmt.Errorf("failed to release stock for product %s: %w", reservation.ProductID, err)
			}
		}
		return nil
	})
}

// Restock returns sold quantities to stock after a post-paid cancellation.
func (r *GORMStockRepository) Restock(orderID string, items []models.OrderLineItem) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		for _, item := range items {
			if err := tx.Model(&models.Product{}).
				Where("id = ?", item.ProductID).
				UpdateColumn("stock", gorm.Expr("stock + ?", item.Quantity)).Error; err != nil {
				return fmt.Errorf("failed to restock product %s: %w", item.ProductID, err)
			}
		}
		return nil
	})
}
