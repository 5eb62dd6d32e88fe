package repositories

import (
	"agromarket/internal/models"
)

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	GetAll() ([]models.Order, error)
	GetByID(id string) (*models.Order, error)
	GetByBuyer(buyerID string) ([]models.Order, error)
	GetBySeller(sellerID int, sellerType string) ([]models.Order, error)
	Create(order *models.Order) error
	UpdateStatus(id string, status string) error
}
