package services

import (
	"fmt"
	"sync"

	"agromarket/internal/cart"
	"agromarket/internal/models"
	"agromarket/internal/repositories"

	"github.com/shopspring/decimal"
)

// CartSummary is the read model of a user's cart.
type CartSummary struct {
	Lines      []models.CartLine `json:"lines"`
	ItemCount  int               `json:"item_count"`
	TotalPrice decimal.Decimal   `json:"total_price"`
}

type userCart struct {
	mu   sync.Mutex
	cart *cart.Cart
}

// CartService keeps one in-memory cart per user. Operations on the same cart are serialized.
type CartService struct {
	productRepo repositories.ProductRepository

	mu    sync.Mutex
	carts map[string]*userCart
}

// NewCartService creates a new CartService.
func NewCartService(productRepo repositories.ProductRepository) *CartService {
	return &CartService{
		productRepo: productRepo,
		carts:       make(map[string]*userCart),
	}
}

// AddItem adds quantity units of a catalog product to the user's cart.
func (s *CartService) AddItem(userID, productID string, quantity int) (*CartSummary, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return nil, fmt.Errorf("failed to add product %s to cart: %w", productID, err)
	}

	var summary *CartSummary
	s.withCart(userID, true, func(c *cart.Cart) {
		c.AddOrIncrement(*product, quantity)
		summary = summarize(c)
	})
	return summary, nil
}

// SetQuantity replaces the quantity of a line. Zero or less removes the line; products not in the cart are ignored.
func (s *CartService) SetQuantity(userID, productID string, quantity int) *CartSummary {
	var summary *CartSummary
	s.withCart(userID, false, func(c *cart.Cart) {
		c.SetQuantity(productID, quantity)
		summary = summarize(c)
	})
	return summary
}

// RemoveItem drops a product from the user's cart.
func (s *CartService) RemoveItem(userID, productID string) *CartSummary {
	var summary *CartSummary
	s.withCart(userID, false, func(c *cart.Cart) {
		c.Remove(productID)
		summary = summarize(c)
	})
	return summary
}

// GetCart returns the current state of the user's cart.
func (s *CartService) GetCart(userID string) *CartSummary {
	var summary *CartSummary
	s.withCart(userID, false, func(c *cart.Cart) {
		summary = summarize(c)
	})
	return summary
}

// ClearCart empties the user's cart.
func (s *CartService) ClearCart(userID string) {
	s.withCart(userID, false, func(c *cart.Cart) {
		c.Clear()
	})
}

// Len returns how many users hold a cart.
func (s *CartService) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.carts)
}

// withCart runs fn while holding the lock of userID's cart. Only create adds a cart for a new user;
// otherwise an unknown user gets a throwaway empty cart, which is what every read or removal would see.
func (s *CartService) withCart(userID string, create bool, fn func(c *cart.Cart)) {
	s.mu.Lock()
	uc, ok := s.carts[userID]
	if !ok && create {
		uc = &userCart{cart: cart.New()}
		s.carts[userID] = uc
		ok = true
	}
	s.mu.Unlock()

	if !ok {
		fn(cart.New())
		return
	}
	uc.mu.Lock()
	defer uc.mu.Unlock()
	fn(uc.cart)
}

func summarize(c *cart.Cart) *CartSummary {
	return &CartSummary{
		Lines:      c.Lines(),
		ItemCount:  c.TotalItemCount(),
		TotalPrice: c.TotalPrice(),
	}
}
