package repositories

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"agromarket/internal/models"

	"github.com/google/uuid"
)

// MemoryOrderRepository is an in-memory implementation of OrderRepository.
type MemoryOrderRepository struct {
	orders map[string]models.Order
	mu     sync.RWMutex
}

// NewMemoryOrderRepository creates a new instance of MemoryOrderRepository.
func NewMemoryOrderRepository() *MemoryOrderRepository {
	return &MemoryOrderRepository{
		orders: make(map[string]models.Order),
	}
}

// GetAll returns all orders, newest first.
func (r *MemoryOrderRepository) GetAll() ([]models.Order, error) {
	return r.filter(func(models.Order) bool { return true }), nil
}

// GetByID returns an order by its ID.
func (r *MemoryOrderRepository) GetByID(id string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("order with ID %s: %w", id, ErrNotFound)
	}
	return &order, nil
}

// GetByBuyer returns the orders placed by one user.
func (r *MemoryOrderRepository) GetByBuyer(buyerID string) ([]models.Order, error) {
	return r.filter(func(o models.Order) bool { return o.BuyerID == buyerID }), nil
}

// GetBySeller returns the orders received by one seller.
func (r *MemoryOrderRepository) GetBySeller(sellerID int, sellerType string) ([]models.Order, error) {
	return r.filter(func(o models.Order) bool {
		return o.SellerID == sellerID && o.SellerType == sellerType
	}), nil
}

// Create adds a new order.
func (r *MemoryOrderRepository) Create(order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	r.orders[order.ID] = *order
	return nil
}

// UpdateStatus updates the status of an order.
func (r *MemoryOrderRepository) UpdateStatus(id string, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return fmt.Errorf("order with ID %s for status update: %w", id, ErrNotFound)
	}
	order.Status = status
	order.UpdatedAt = time.Now()
	r.orders[id] = order
	return nil
}

func (r *MemoryOrderRepository) filter(keep func(models.Order) bool) []models.Order {
	r.mu.RLock()
	defer r.mu.RUnlock()

	orderList := make([]models.Order, 0, len(r.orders))
	for _, order := range r.orders {
		if keep(order) {
			orderList = append(orderList, order)
		}
	}
	sort.Slice(orderList, func(i, j int) bool {
		if orderList[i].CreatedAt.Equal(orderList[j].CreatedAt) {
			return orderList[i].ID < orderList[j].ID
		}
		return orderList[i].CreatedAt.After(orderList[j].CreatedAt)
	})
	return orderList
}
