package services

import (
	"context"

	"agromarket/internal/cart"
	"agromarket/internal/checkout"
	"agromarket/internal/models"
)

// SubmitterFactory returns the order submitter acting on behalf of a buyer.
type SubmitterFactory interface {
	ForBuyer(buyerID, buyerType string) checkout.Submitter
}

// CheckoutResult reports every per-seller order attempted by a checkout.
type CheckoutResult struct {
	Outcomes  []models.OrderOutcome `json:"outcomes"`
	Submitted int                   `json:"submitted"`
	Failed    int                   `json:"failed"`
}

// AllSubmitted reports whether every seller accepted its order.
func (r *CheckoutResult) AllSubmitted() bool {
	return r.Failed == 0
}

// CheckoutService checks out the carts held by a CartService.
type CheckoutService struct {
	carts         *CartService
	submitters    SubmitterFactory
	maxConcurrent int
}

// NewCheckoutService creates a new CheckoutService. maxConcurrent bounds parallel order submissions.
func NewCheckoutService(carts *CartService, submitters SubmitterFactory, maxConcurrent int) *CheckoutService {
	return &CheckoutService{
		carts:         carts,
		submitters:    submitters,
		maxConcurrent: maxConcurrent,
	}
}

// Checkout submits one order per seller found in the user's cart. The cart stays locked until every
// submission has finished. checkout.ErrEmptyCart and *checkout.InvalidLineError leave the cart unchanged.
func (s *CheckoutService) Checkout(ctx context.Context, buyerID, buyerType string) (*CheckoutResult, error) {
	coordinator := checkout.NewCoordinator(s.submitters.ForBuyer(buyerID, buyerType), s.maxConcurrent)

	var (
		outcomes []models.OrderOutcome
		err      error
	)
	s.carts.withCart(buyerID, false, func(c *cart.Cart) {
		outcomes, err = coordinator.Checkout(ctx, c)
	})
	if err != nil {
		return nil, err
	}

	result := &CheckoutResult{Outcomes: outcomes}
	for _, o := range outcomes {
		if o.Submitted() {
			result.Submitted++
		} else {
			result.Failed++
		}
	}
	return result, nil
}
