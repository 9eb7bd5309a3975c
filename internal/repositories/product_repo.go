package repositories

import (
	"storefront/internal/models"
)

// ProductRepository defines read access to the catalog. Stock mutations
// live on StockRepository so they are always expressed as atomic,
// conditional updates rather than read-modify-write cycles.
type ProductRepository interface {
	GetAll() ([]models.Product, error)
	GetByID(id string) (*models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
}
