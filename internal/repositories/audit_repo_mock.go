package repositories

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"storefront/internal/models"
)

// MockAuditRepository is an in-memory implementation of AuditRepository.
type MockAuditRepository struct {
	entries []models.AuditEntry
	mu      sync.Mutex
}

// NewMockAuditRepository creates a new instance of MockAuditRepository.
func NewMockAuditRepository() *MockAuditRepository {
	return &MockAuditRepository{}
}

// Create appends an audit entry.
func (r *MockAuditRepository) Create(entry *models.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	r.entries = append(r.entries, *entry)
	return nil
}

// ListByOrder returns the entries recorded for one order, oldest first.
func (r *MockAuditRepository) ListByOrder(orderID string) ([]models.AuditEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.AuditEntry
	for _, e := range r.entries {
		if e.OrderID == orderID {
			out = append(out, e)
		}
	}
	return out, nil
}
