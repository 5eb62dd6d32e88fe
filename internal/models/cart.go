package models

import "github.com/shopspring/decimal"

// CartLine is one distinct product in a cart together with the wanted quantity.
type CartLine struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// UnitPrice is the product price at the time the line was built.
func (l CartLine) UnitPrice() decimal.Decimal {
	return l.Product.Price
}

// TotalPrice is UnitPrice multiplied by Quantity.
func (l CartLine) TotalPrice() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// OrderBatch groups the cart lines sold by a single seller.
type OrderBatch struct {
	SellerID   int             `json:"seller_id"`
	SellerType string          `json:"seller_type"`
	Lines      []CartLine      `json:"lines"`
	Total      decimal.Decimal `json:"total"`
}

// Outcome statuses of a submitted batch.
const (
	OutcomeSubmitted = "submitted"
	OutcomeFailed    = "failed"
)

// OrderOutcome records what happened to one batch during checkout.
type OrderOutcome struct {
	Batch   OrderBatch `json:"batch"`
	Status  string     `json:"status"`
	OrderID string     `json:"order_id,omitempty"`
	Reason  string     `json:"reason,omitempty"`
}

// Submitted reports whether the batch was accepted by the order transport.
func (o OrderOutcome) Submitted() bool {
	return o.Status == OutcomeSubmitted
}
