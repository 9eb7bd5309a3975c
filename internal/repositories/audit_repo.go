package repositories

import (
	"storefront/internal/models"
)

// AuditRepository stores order lifecycle audit entries. Writes are
// best-effort at the call sites; implementations just persist.
type AuditRepository interface {
	Create(entry *models.AuditEntry) error
	ListByOrder(orderID string) ([]models.AuditEntry, error)
}
