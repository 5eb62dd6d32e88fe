package models

import (
	"time"

	"gorm.io/gorm"
)

// Actor roles of the marketplace.
const (
	RoleConsumer    = "consumer"
	RoleFarmer      = "farmer"
	RoleSupermarket = "supermarket"
)

// User represents a marketplace account. Farmers and supermarkets sell; every role can buy.
type User struct {
	ID       string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Username string `json:"username" gorm:"uniqueIndex;type:varchar(100)"`
	Email    string `json:"email" gorm:"uniqueIndex;type:varchar(255)"`
	Password string `json:"-" gorm:"type:varchar(255)"`
	Role     string `json:"role" gorm:"type:varchar(20)"`
	// ProviderID links a seller account to the provider id carried by its products.
	ProviderID *int           `json:"provider_id,omitempty" gorm:"uniqueIndex"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`
}
