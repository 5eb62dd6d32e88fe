package handlers

import (
	"errors"
	"log"

	"agromarket/internal/checkout"
	"agromarket/internal/middleware"
	"agromarket/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// CartHandler handles HTTP requests for the caller's cart and its checkout.
type CartHandler struct {
	carts     *services.CartService
	checkouts *services.CheckoutService
	validate  *validator.Validate
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(carts *services.CartService, checkouts *services.CheckoutService) *CartHandler {
	return &CartHandler{
		carts:     carts,
		checkouts: checkouts,
		validate:  validator.New(),
	}
}

// RegisterRoutes registers the cart routes. Every route needs an authenticated caller.
func (h *CartHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	cartRoutes := router.Group("/cart", auth)
	cartRoutes.Get("/", h.HandleGetCart)
	cartRoutes.Delete("/", h.HandleClearCart)
	cartRoutes.Post("/items", h.HandleAddItem)
	cartRoutes.Put("/items/:product_id", h.HandleSetQuantity)
	cartRoutes.Delete("/items/:product_id", h.HandleRemoveItem)
	cartRoutes.Post("/checkout", h.HandleCheckout)
}

// AddToCartRequest is the body of POST /cart/items.
type AddToCartRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gte=1"`
}

// UpdateQuantityRequest is the body of PUT /cart/items/:product_id. Zero removes the line.
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity" validate:"gte=0"`
}

// HandleGetCart returns the caller's cart.
func (h *CartHandler) HandleGetCart(c *fiber.Ctx) error {
	return c.JSON(h.carts.GetCart(middleware.Caller(c).UserID))
}

// HandleClearCart empties the caller's cart.
func (h *CartHandler) HandleClearCart(c *fiber.Ctx) error {
	h.carts.ClearCart(middleware.Caller(c).UserID)
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleAddItem adds units of a product to the caller's cart.
func (h *CartHandler) HandleAddItem(c *fiber.Ctx) error {
	var req AddToCartRequest
	if ok, err := parseAndValidate(c, h.validate, &req); !ok {
		return err
	}

	summary, err := h.carts.AddItem(middleware.Caller(c).UserID, req.ProductID, req.Quantity)
	if err != nil {
		return serviceError(c, "Could not add product to cart", err)
	}
	return c.JSON(summary)
}

// HandleSetQuantity replaces the quantity of one line.
func (h *CartHandler) HandleSetQuantity(c *fiber.Ctx) error {
	var req UpdateQuantityRequest
	if ok, err := parseAndValidate(c, h.validate, &req); !ok {
		return err
	}
	return c.JSON(h.carts.SetQuantity(middleware.Caller(c).UserID, c.Params("product_id"), req.Quantity))
}

// HandleRemoveItem drops one line from the caller's cart.
func (h *CartHandler) HandleRemoveItem(c *fiber.Ctx) error {
	return c.JSON(h.carts.RemoveItem(middleware.Caller(c).UserID, c.Params("product_id")))
}

// HandleCheckout places one order per seller in the caller's cart.
// 200 means every order went through, 207 that some sellers rejected theirs.
func (h *CartHandler) HandleCheckout(c *fiber.Ctx) error {
	caller := middleware.Caller(c)
	result, err := h.checkouts.Checkout(c.UserContext(), caller.UserID, caller.Role)
	if err != nil {
		var invalid *checkout.InvalidLineError
		switch {
		case errors.Is(err, checkout.ErrEmptyCart):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Cart is empty",
				"error":   err.Error(),
			})
		case errors.As(err, &invalid):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"message":    "Cart contains a product without a seller",
				"error":      err.Error(),
				"product_id": invalid.ProductID,
			})
		}
		log.Printf("Checkout failed for user %s: %v", caller.UserID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not check out",
			"error":   err.Error(),
		})
	}

	status := fiber.StatusOK
	if !result.AllSubmitted() {
		status = fiber.StatusMultiStatus
	}
	return c.Status(status).JSON(result)
}
