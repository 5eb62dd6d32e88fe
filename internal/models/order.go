package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order statuses.
const (
	OrderPending   = "pending"
	OrderConfirmed = "confirmed"
	OrderShipped   = "shipped"
	OrderDelivered = "delivered"
	OrderCancelled = "cancelled"
)

// OrderItem represents a single item within an order.
type OrderItem struct {
	ID          uint            `json:"-" gorm:"primaryKey"`
	OrderID     string          `json:"-" gorm:"index;type:varchar(36)"`
	ProductID   string          `json:"product_id" validate:"required"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity" validate:"gte=1"`
	UnitPrice   decimal.Decimal `json:"unit_price" gorm:"type:numeric(12,2)"` // Price at the time of order
	TotalPrice  decimal.Decimal `json:"total_price" gorm:"type:numeric(12,2)"`
}

// Order is a purchase placed by one buyer with exactly one seller.
type Order struct {
	ID         string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	BuyerID    string          `json:"buyer_id" gorm:"index;type:varchar(36)"`
	BuyerType  string          `json:"buyer_type" gorm:"type:varchar(20)"`
	SellerID   int             `json:"seller_id" gorm:"index"`
	SellerType string          `json:"seller_type" gorm:"type:varchar(20)"`
	Items      []OrderItem     `json:"order_details" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	TotalPrice decimal.Decimal `json:"total_price" gorm:"type:numeric(12,2)"`
	Currency   string          `json:"currency" gorm:"type:varchar(3)"`
	Status     string          `json:"status" gorm:"type:varchar(20)"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// OrderRequest is the body sent for one seller when a cart is checked out.
type OrderRequest struct {
	SellerID     int             `json:"seller_id" validate:"required,gt=0"`
	SellerType   string          `json:"seller_type" validate:"required,oneof=farmer supermarket"`
	OrderDetails []OrderItem     `json:"order_details" validate:"required,min=1,dive"`
	TotalPrice   decimal.Decimal `json:"total_price"`
	Currency     string          `json:"currency" validate:"omitempty,len=3"`
}

// NewOrderRequest builds the order request for a batch.
func NewOrderRequest(batch OrderBatch, currency string) OrderRequest {
	details := make([]OrderItem, 0, len(batch.Lines))
	for _, line := range batch.Lines {
		details = append(details, OrderItem{
			ProductID:   line.Product.ID,
			ProductName: line.Product.Name,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice(),
			TotalPrice:  line.TotalPrice(),
		})
	}
	return OrderRequest{
		SellerID:     batch.SellerID,
		SellerType:   batch.SellerType,
		OrderDetails: details,
		TotalPrice:   batch.Total,
		Currency:     currency,
	}
}

// OrderEvent is published on the message bus when an order is accepted.
type OrderEvent struct {
	OrderID    string          `json:"order_id"`
	BuyerID    string          `json:"buyer_id"`
	SellerID   int             `json:"seller_id"`
	SellerType string          `json:"seller_type"`
	Status     string          `json:"status"`
	Total      decimal.Decimal `json:"total"`
	Currency   string          `json:"currency"`
}
