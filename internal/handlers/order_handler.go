package handlers

import (
	"fmt"

	"agromarket/internal/middleware"
	"agromarket/internal/models"
	"agromarket/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service  *services.OrderService
	validate *validator.Validate
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the order routes with the Fiber app. Every route needs an
// authenticated caller, including the transactions intake remote checkouts post to.
func (h *OrderHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	orderRoutes := router.Group("/orders", auth)
	orderRoutes.Get("/", h.HandleGetOrders)
	orderRoutes.Get("/received", middleware.RequireRole(models.RoleFarmer, models.RoleSupermarket), h.HandleGetReceivedOrders)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
	orderRoutes.Patch("/:id/status", h.HandleUpdateOrderStatus)

	router.Post("/transactions/create-order", auth, h.HandleCreateOrder)
}

// UpdateStatusRequest is the body of PATCH /orders/:id/status.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending confirmed shipped delivered cancelled"`
}

// HandleGetOrders lists the orders the caller placed.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	orders, err := h.service.GetOrdersByBuyer(middleware.Caller(c).UserID)
	if err != nil {
		return serviceError(c, "Could not retrieve orders", err)
	}
	return c.JSON(orders)
}

// HandleGetReceivedOrders lists the orders placed with the calling seller.
func (h *OrderHandler) HandleGetReceivedOrders(c *fiber.Ctx) error {
	caller := middleware.Caller(c)
	if caller.ProviderID == nil {
		return forbidden(c, "Seller account has no provider id")
	}
	orders, err := h.service.GetOrdersBySeller(*caller.ProviderID, caller.Role)
	if err != nil {
		return serviceError(c, "Could not retrieve orders", err)
	}
	return c.JSON(orders)
}

// HandleGetOrderByID retrieves a single order the caller bought or sold.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	order, err := h.service.GetOrderByID(c.Params("id"))
	if err != nil {
		return serviceError(c, "Could not retrieve order", err)
	}
	caller := middleware.Caller(c)
	if !isBuyer(caller, order) && !isSeller(caller, order) {
		return forbidden(c, "Order belongs to another account")
	}
	return c.JSON(order)
}

// HandleCreateOrder accepts one order for one seller. The caller is the buyer.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	var req models.OrderRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	caller := middleware.Caller(c)
	createdOrder, err := h.service.CreateOrder(caller.UserID, caller.Role, req)
	if err != nil {
		return serviceError(c, "Could not create order", err)
	}
	return c.Status(fiber.StatusCreated).JSON(createdOrder)
}

// HandleUpdateOrderStatus moves an order through its lifecycle. Sellers may set any status;
// buyers may only cancel.
func (h *OrderHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	orderID := c.Params("id")
	var req UpdateStatusRequest
	if ok, err := parseAndValidate(c, h.validate, &req); !ok {
		return err
	}

	order, err := h.service.GetOrderByID(orderID)
	if err != nil {
		return serviceError(c, "Could not update order status", err)
	}
	caller := middleware.Caller(c)
	switch {
	case isSeller(caller, order):
	case isBuyer(caller, order) && req.Status == models.OrderCancelled:
	default:
		return forbidden(c, "Not allowed to change the status of this order")
	}

	if err := h.service.UpdateOrderStatus(orderID, req.Status); err != nil {
		return serviceError(c, "Could not update order status", err)
	}
	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Order %s status updated successfully to %s", orderID, req.Status),
	})
}

func isBuyer(caller services.Identity, order *models.Order) bool {
	return caller.UserID != "" && caller.UserID == order.BuyerID
}

func isSeller(caller services.Identity, order *models.Order) bool {
	return caller.ProviderID != nil && *caller.ProviderID == order.SellerID && caller.Role == order.SellerType
}
