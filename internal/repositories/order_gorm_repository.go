package repositories

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"storefront/internal/models"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{db: db}
}

// GetAll retrieves all orders, newest first.
func (r *GORMOrderRepository) GetAll() ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to get all orders: %w", err)
	}
	return orders, nil
}

// GetByID retrieves a single order by its ID.
func (r *GORMOrderRepository) GetByID(id string) (*models.Order, error) {
	var order models.Order
	if err := r.db.First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get order by ID %s: %w", id, err)
	}
	return &order, nil
}

// Create persists a new order.
func (r *GORMOrderRepository) Create(order *models.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	if err := r.db.Create(order).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// FindByExternalPaymentID locates an order by a previously stored gateway
// payment id.
func (r *GORMOrderRepository) FindByExternalPaymentID(paymentID string) (*models.Order, error) {
	var order models.Order
	if err := r.db.First(&order, "external_payment_id = ?", paymentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order for payment %s: %w", paymentID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find order by external payment ID %s: %w", paymentID, err)
	}
	return &order, nil
}

// FindByPaymentDetailsID locates an order whose serialized payment details
// carry the given payment id. The payment_details column is JSON text, so
// the lookup matches the serialized key/value pair.
func (r *GORMOrderRepository) FindByPaymentDetailsID(paymentID string) (*models.Order, error) {
	pattern := fmt.Sprintf(`%%"payment_id":%q%%`, paymentID)
	var order models.Order
	if err := r.db.First(&order, "payment_details LIKE ?", pattern).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order for payment details %s: %w", paymentID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find order by payment details %s: %w", paymentID, err)
	}
	return &order, nil
}

// UpdateStatusIf performs the reconciler's compare-and-swap: a single
// conditional UPDATE keyed on the previous status, so two concurrent
// notifications for the same order can never both win.
func (r *GORMOrderRepository) UpdateStatusIf(id string, from, to models.OrderStatus, extPaymentID, extStatus string) (bool, error) {
	res := r.db.Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":                  to,
			"external_payment_id":     extPaymentID,
			"external_payment_status": extStatus,
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to update status of order %s: %w", id, res.Error)
	}
	return res.RowsAffected == 1, nil
}
