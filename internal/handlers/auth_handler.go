package handlers

import (
	"agromarket/internal/middleware"
	"agromarket/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	authService *services.AuthService
	validate    *validator.Validate
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validate:    validator.New(),
	}
}

// RegisterRoutes registers the authentication routes. /auth/me needs a token.
func (h *AuthHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	authRoutes := router.Group("/auth")
	authRoutes.Post("/register", h.HandleRegister)
	authRoutes.Post("/login", h.HandleLogin)
	authRoutes.Get("/me", auth, h.HandleMe)
}

// HandleRegister handles new account registration.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var req services.RegisterRequest
	if ok, err := parseAndValidate(c, h.validate, &req); !ok {
		return err
	}

	user, err := h.authService.RegisterUser(req)
	if err != nil {
		return serviceError(c, "Registration failed", err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User registered successfully",
		"user":    user,
	})
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// HandleLogin handles user login and issues a JWT token.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if ok, err := parseAndValidate(c, h.validate, &req); !ok {
		return err
	}

	token, err := h.authService.LoginUser(req.Username, req.Password)
	if err != nil {
		return serviceError(c, "Authentication failed", err)
	}

	return c.JSON(fiber.Map{
		"message": "Login successful",
		"token":   token,
	})
}

// HandleMe returns the identity carried by the caller's token.
func (h *AuthHandler) HandleMe(c *fiber.Ctx) error {
	caller := middleware.Caller(c)
	return c.JSON(fiber.Map{
		"user":      caller,
		"is_seller": caller.IsSeller(),
	})
}
