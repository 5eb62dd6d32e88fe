package services_test

import (
	"context"
	"fmt"
	"testing"

	"agromarket/internal/models"
	"agromarket/internal/repositories"
	"agromarket/internal/services"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func orderRequest(sellerID int, items ...models.OrderItem) models.OrderRequest {
	return models.OrderRequest{
		SellerID:     sellerID,
		SellerType:   models.SellerFarmer,
		OrderDetails: items,
	}
}

func TestOrderService_CreateOrder(t *testing.T) {
	orderRepo := new(MockOrderRepository)
	productRepo := new(MockProductRepository)
	publisher := new(MockPublisher)
	service := services.NewOrderService(orderRepo, productRepo, publisher, "EUR")

	tomatoes := farmProduct("p1", "Tomatoes", 2.5, 7)
	onions := farmProduct("p2", "Onions", 0.8, 7)
	productRepo.On("GetByID", "p1").Return(&tomatoes, nil)
	productRepo.On("GetByID", "p2").Return(&onions, nil)
	orderRepo.On("Create", mock.AnythingOfType("*models.Order")).Return(nil).Once()
	publisher.On("PublishOrderEvent", mock.MatchedBy(func(e models.OrderEvent) bool {
		return e.Status == models.OrderPending && e.SellerID == 7 && e.BuyerID == "buyer-1"
	})).Return(nil).Once()

	// Client-sent prices are ignored in favour of the catalog.
	req := orderRequest(7,
		models.OrderItem{ProductID: "p1", Quantity: 2, UnitPrice: decimal.NewFromInt(100)},
		models.OrderItem{ProductID: "p2", Quantity: 5},
	)
	order, err := service.CreateOrder("buyer-1", models.RoleConsumer, req)
	require.NoError(t, err)

	assert.NotEmpty(t, order.ID)
	assert.Equal(t, models.OrderPending, order.Status)
	assert.Equal(t, "EUR", order.Currency)
	assert.Equal(t, 7, order.SellerID)
	require.Len(t, order.Items, 2)
	assert.True(t, order.Items[0].UnitPrice.Equal(decimal.RequireFromString("2.5")))
	assert.True(t, order.Items[0].TotalPrice.Equal(decimal.NewFromInt(5)))
	assert.True(t, order.TotalPrice.Equal(decimal.NewFromInt(9)), order.TotalPrice.String())
	orderRepo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestOrderService_CreateOrder_Rejections(t *testing.T) {
	orderRepo := new(MockOrderRepository)
	productRepo := new(MockProductRepository)
	service := services.NewOrderService(orderRepo, productRepo, nil, "EUR")

	tomatoes := farmProduct("p1", "Tomatoes", 2.5, 7)
	tomatoes.StockAvailable = ptr(3.0)
	productRepo.On("GetByID", "p1").Return(&tomatoes, nil)
	productRepo.On("GetByID", "missing").Return(nil, fmt.Errorf("product with ID missing: %w", repositories.ErrNotFound))

	_, err := service.CreateOrder("b", models.RoleConsumer, orderRequest(7))
	assert.ErrorIs(t, err, services.ErrInvalidOrder)

	_, err = service.CreateOrder("b", models.RoleConsumer, orderRequest(7, models.OrderItem{ProductID: "p1", Quantity: 0}))
	assert.ErrorIs(t, err, services.ErrInvalidOrder)

	_, err = service.CreateOrder("b", models.RoleConsumer, orderRequest(8, models.OrderItem{ProductID: "p1", Quantity: 1}))
	assert.ErrorIs(t, err, services.ErrSellerMismatch)

	_, err = service.CreateOrder("b", models.RoleConsumer, orderRequest(7, models.OrderItem{ProductID: "p1", Quantity: 4}))
	assert.ErrorIs(t, err, services.ErrInsufficientStock)

	_, err = service.CreateOrder("b", models.RoleConsumer, orderRequest(7, models.OrderItem{ProductID: "missing", Quantity: 1}))
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	orderRepo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestOrderService_CreateOrder_PublishFailureIsNotFatal(t *testing.T) {
	orderRepo := new(MockOrderRepository)
	productRepo := new(MockProductRepository)
	publisher := new(MockPublisher)
	service := services.NewOrderService(orderRepo, productRepo, publisher, "EUR")

	tomatoes := farmProduct("p1", "Tomatoes", 2.5, 7)
	productRepo.On("GetByID", "p1").Return(&tomatoes, nil)
	orderRepo.On("Create", mock.AnythingOfType("*models.Order")).Return(nil)
	publisher.On("PublishOrderEvent", mock.Anything).Return(fmt.Errorf("broker down"))

	order, err := service.CreateOrder("b", models.RoleConsumer, orderRequest(7, models.OrderItem{ProductID: "p1", Quantity: 1}))
	assert.NoError(t, err)
	assert.NotNil(t, order)
}

func TestOrderService_UpdateOrderStatus(t *testing.T) {
	orderRepo := new(MockOrderRepository)
	publisher := new(MockPublisher)
	service := services.NewOrderService(orderRepo, new(MockProductRepository), publisher, "EUR")

	stored := &models.Order{ID: "o1", SellerID: 7, Status: models.OrderShipped}
	orderRepo.On("UpdateStatus", "o1", models.OrderShipped).Return(nil).Once()
	orderRepo.On("GetByID", "o1").Return(stored, nil).Once()
	publisher.On("PublishOrderEvent", mock.MatchedBy(func(e models.OrderEvent) bool {
		return e.OrderID == "o1" && e.Status == models.OrderShipped
	})).Return(nil).Once()

	assert.NoError(t, service.UpdateOrderStatus("o1", models.OrderShipped))

	err := service.UpdateOrderStatus("o1", "teleported")
	assert.ErrorIs(t, err, services.ErrInvalidStatus)

	orderRepo.On("UpdateStatus", "nope", models.OrderCancelled).Return(fmt.Errorf("order with ID nope: %w", repositories.ErrNotFound)).Once()
	err = service.UpdateOrderStatus("nope", models.OrderCancelled)
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	orderRepo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestOrderService_ForBuyer(t *testing.T) {
	orderRepo := repositories.NewMemoryOrderRepository()
	productRepo := new(MockProductRepository)
	service := services.NewOrderService(orderRepo, productRepo, nil, "EUR")

	tomatoes := farmProduct("p1", "Tomatoes", 2.5, 7)
	productRepo.On("GetByID", "p1").Return(&tomatoes, nil)

	batch := models.OrderBatch{
		SellerID:   7,
		SellerType: models.SellerFarmer,
		Lines:      []models.CartLine{{Product: tomatoes, Quantity: 2}},
		Total:      decimal.NewFromInt(5),
	}
	orderID, err := service.ForBuyer("buyer-1", models.RoleConsumer).SubmitOrder(context.Background(), batch)
	require.NoError(t, err)

	stored, err := orderRepo.GetByID(orderID)
	require.NoError(t, err)
	assert.Equal(t, "buyer-1", stored.BuyerID)
	assert.Equal(t, models.RoleConsumer, stored.BuyerType)
	assert.True(t, stored.TotalPrice.Equal(decimal.NewFromInt(5)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = service.ForBuyer("buyer-1", models.RoleConsumer).SubmitOrder(ctx, batch)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsClientError(t *testing.T) {
	assert.True(t, services.IsClientError(fmt.Errorf("wrapped: %w", services.ErrInsufficientStock)))
	assert.True(t, services.IsClientError(services.ErrInvalidStatus))
	assert.False(t, services.IsClientError(fmt.Errorf("database error")))
}
