package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"agromarket/internal/checkout"
	"agromarket/internal/models"
	"agromarket/internal/repositories"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventPublisher delivers order events to the message bus.
type EventPublisher interface {
	PublishOrderEvent(event models.OrderEvent) error
}

var validStatuses = map[string]bool{
	models.OrderPending:   true,
	models.OrderConfirmed: true,
	models.OrderShipped:   true,
	models.OrderDelivered: true,
	models.OrderCancelled: true,
}

// OrderService handles business logic related to orders.
type OrderService struct {
	orderRepo   repositories.OrderRepository
	productRepo repositories.ProductRepository
	publisher   EventPublisher
	currency    string
	validate    *validator.Validate
}

// NewOrderService creates a new OrderService. publisher may be nil, in which case no events are sent.
func NewOrderService(orderRepo repositories.OrderRepository, productRepo repositories.ProductRepository, publisher EventPublisher, currency string) *OrderService {
	if currency == "" {
		currency = "EUR"
	}
	return &OrderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		publisher:   publisher,
		currency:    currency,
		validate:    validator.New(),
	}
}

// GetOrderByID retrieves a single order by its ID.
func (s *OrderService) GetOrderByID(id string) (*models.Order, error) {
	return s.orderRepo.GetByID(id)
}

// GetOrdersByBuyer retrieves the orders a user placed.
func (s *OrderService) GetOrdersByBuyer(buyerID string) ([]models.Order, error) {
	return s.orderRepo.GetByBuyer(buyerID)
}

// GetOrdersBySeller retrieves the orders a seller received.
func (s *OrderService) GetOrdersBySeller(sellerID int, sellerType string) ([]models.Order, error) {
	return s.orderRepo.GetBySeller(sellerID, sellerType)
}

// CreateOrder places one order with a single seller. Every item must exist in the catalog,
// be sold by that seller and have enough stock. Prices are taken from the catalog, not the request.
func (s *OrderService) CreateOrder(buyerID, buyerType string, req models.OrderRequest) (*models.Order, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOrder, err)
	}

	totalPrice := decimal.Zero
	items := make([]models.OrderItem, 0, len(req.OrderDetails))
	for _, item := range req.OrderDetails {
		product, err := s.productRepo.GetByID(item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("product %s: %w", item.ProductID, err)
		}
		if product.ProviderID == nil || *product.ProviderID != req.SellerID || product.SellerType != req.SellerType {
			return nil, fmt.Errorf("%w: %s is not offered by %s %d", ErrSellerMismatch, product.Name, req.SellerType, req.SellerID)
		}
		if available := product.EffectiveStock(); available < float64(item.Quantity) {
			return nil, fmt.Errorf("%w for product %s (requested: %d, available: %g)", ErrInsufficientStock, product.Name, item.Quantity, available)
		}

		lineTotal := product.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		items = append(items, models.OrderItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    item.Quantity,
			UnitPrice:   product.Price,
			TotalPrice:  lineTotal,
		})
		totalPrice = totalPrice.Add(lineTotal)
	}

	currency := req.Currency
	if currency == "" {
		currency = s.currency
	}

	newOrder := &models.Order{
		ID:         uuid.New().String(),
		BuyerID:    buyerID,
		BuyerType:  buyerType,
		SellerID:   req.SellerID,
		SellerType: req.SellerType,
		Items:      items,
		TotalPrice: totalPrice,
		Currency:   currency,
		Status:     models.OrderPending,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}

	if err := s.orderRepo.Create(newOrder); err != nil {
		return nil, fmt.Errorf("failed to create order in repository: %w", err)
	}

	s.publish(newOrder)
	return newOrder, nil
}

// UpdateOrderStatus updates the status of an existing order.
func (s *OrderService) UpdateOrderStatus(id string, status string) error {
	if !validStatuses[status] {
		return fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}

	if err := s.orderRepo.UpdateStatus(id, status); err != nil {
		return fmt.Errorf("failed to update order status for order %s: %w", id, err)
	}

	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		log.Printf("Warning: order %s updated but could not be reloaded: %v", id, err)
		return nil
	}
	s.publish(order)
	return nil
}

// ForBuyer returns a Submitter that places each checkout batch as a local order for the buyer.
func (s *OrderService) ForBuyer(buyerID, buyerType string) checkout.Submitter {
	return checkout.SubmitFunc(func(ctx context.Context, batch models.OrderBatch) (string, error) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		order, err := s.CreateOrder(buyerID, buyerType, models.NewOrderRequest(batch, s.currency))
		if err != nil {
			return "", err
		}
		return order.ID, nil
	})
}

func (s *OrderService) publish(order *models.Order) {
	if s.publisher == nil {
		return
	}
	event := models.OrderEvent{
		OrderID:    order.ID,
		BuyerID:    order.BuyerID,
		SellerID:   order.SellerID,
		SellerType: order.SellerType,
		Status:     order.Status,
		Total:      order.TotalPrice,
		Currency:   order.Currency,
	}
	if err := s.publisher.PublishOrderEvent(event); err != nil {
		log.Printf("Warning: Failed to publish %s event for order %s: %v", order.Status, order.ID, err)
	}
}

// IsClientError reports whether err comes from a bad request rather than a server fault.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidOrder) ||
		errors.Is(err, ErrSellerMismatch) ||
		errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrInvalidStatus) ||
		errors.Is(err, ErrInvalidProduct) ||
		errors.Is(err, ErrInvalidQuantity)
}
