package repositories

import "agromarket/internal/models"

// UserRepository defines the interface for account data access.
type UserRepository interface {
	Create(user *models.User) error
	GetByUsername(username string) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByProviderID(providerID int) (*models.User, error)
	GetByID(id string) (*models.User, error)
}
