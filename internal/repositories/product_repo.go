package repositories

import (
	"agromarket/internal/models"
)

// ProductRepository defines the interface for catalog data access.
// GetAll returns products in a stable order so rankings stay reproducible.
type ProductRepository interface {
	GetAll() ([]models.Product, error)
	GetByID(id string) (*models.Product, error)
	GetByProvider(providerID int, sellerType string) ([]models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	Delete(id string) error
}
