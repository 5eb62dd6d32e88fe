package models

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Seller types a product can be offered by.
const (
	SellerFarmer      = "farmer"
	SellerSupermarket = "supermarket"
)

// Product represents a catalog item offered by a farmer or a supermarket.
// Optional attributes are pointers; a nil pointer means the catalog did not supply the value.
type Product struct {
	ID                  string          `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty"`
	Name                string          `json:"name" validate:"required,min=2,max=100"`
	Description         string          `json:"description" validate:"omitempty,max=500"`
	Price               decimal.Decimal `json:"price" gorm:"type:numeric(12,2)"`
	Stock               float64         `json:"stock" validate:"gte=0"`
	StockAvailable      *float64        `json:"stock_available,omitempty" validate:"omitempty,gte=0"`
	Category            string          `json:"category" gorm:"index" validate:"omitempty,max=100"`
	SellerType          string          `json:"seller_type" gorm:"index;type:varchar(20)" validate:"required,oneof=farmer supermarket"`
	ProviderID          *int            `json:"provider_id,omitempty" gorm:"index"`
	ProviderName        string          `json:"provider_name,omitempty"`
	ProviderLat         *float64        `json:"provider_lat,omitempty" validate:"omitempty,latitude"`
	ProviderLon         *float64        `json:"provider_lon,omitempty" validate:"omitempty,longitude"`
	IsEco               *bool           `json:"is_eco,omitempty"`
	SustainabilityScore *float64        `json:"sustainability_score,omitempty" validate:"omitempty,gte=0,lte=100"`
	ImageURL            string          `json:"image_url,omitempty" validate:"omitempty,url"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
	DeletedAt           gorm.DeletedAt  `json:"-" gorm:"index"`
}

// EffectiveStock returns StockAvailable when present and finite, otherwise Stock.
func (p Product) EffectiveStock() float64 {
	if v, ok := Finite(p.StockAvailable); ok {
		return v
	}
	return p.Stock
}

// Eco reports whether the product is flagged as ecological.
func (p Product) Eco() bool {
	return p.IsEco != nil && *p.IsEco
}

// Coordinates returns the provider location when both coordinates are present and finite.
func (p Product) Coordinates() (Location, bool) {
	lat, okLat := Finite(p.ProviderLat)
	lon, okLon := Finite(p.ProviderLon)
	if !okLat || !okLon {
		return Location{}, false
	}
	return Location{Latitude: lat, Longitude: lon}, true
}

// Finite dereferences an optional number, treating nil, NaN and ±Inf as absent.
func Finite(v *float64) (float64, bool) {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return 0, false
	}
	return *v, true
}

// Location is a point in decimal degrees.
type Location struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}
