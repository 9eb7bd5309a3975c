package repositories

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"storefront/internal/models"
)

// GORMAuditRepository is a GORM implementation of AuditRepository.
type GORMAuditRepository struct {
	db *gorm.DB
}

// NewGORMAuditRepository creates a new instance of GORMAuditRepository.
func NewGORMAuditRepository(db *gorm.DB) *GORMAuditRepository {
	return &GORMAuditRepository{db: db}
}

// Create persists an audit entry.
func (r *GORMAuditRepository) Create(entry *models.AuditEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if err := r.db.Create(entry).Error; err != nil {
		return fmt.Errorf("failed to create audit entry: %w", err)
	}
	return nil
}

// ListByOrder returns the audit trail of one order, oldest first.
func (r *GORMAuditRepository) ListByOrder(orderID string) ([]models.AuditEntry, error) {
	var entries []models.AuditEntry
	if err := r.db.Order("created_at ASC").Find(&entries, "order_id = ?", orderID).Error; err != nil {
		return nil, fmt.Errorf("failed to list audit entries for order %s: %w", orderID, err)
	}
	return entries, nil
}
