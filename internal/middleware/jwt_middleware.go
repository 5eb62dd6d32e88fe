package middleware

import (
	"context"
	"log"
	"strings"

	"agromarket/internal/services"

	"github.com/gofiber/fiber/v2"
)

// Keys under which AuthRequired stores the caller in the Fiber context.
const (
	LocalUserID     = "user_id"
	LocalUsername   = "username"
	LocalRole       = "role"
	LocalProviderID = "provider_id"
)

// AuthRequired is a Fiber middleware to check for a valid JWT token.
func AuthRequired(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header is required",
			})
		}

		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header format must be 'Bearer <token>'",
			})
		}

		identity, err := authService.ValidateToken(parts[1])
		if err != nil {
			log.Printf("JWT validation failed: %v", err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid or expired token",
				"error":   err.Error(),
			})
		}

		c.SetUserContext(ContextWithToken(c.UserContext(), parts[1]))
		c.Locals(LocalUserID, identity.UserID)
		c.Locals(LocalUsername, identity.Username)
		c.Locals(LocalRole, identity.Role)
		if identity.ProviderID != nil {
			c.Locals(LocalProviderID, *identity.ProviderID)
		}
		return c.Next()
	}
}

// RequireRole lets the request through only when the authenticated role is one of roles.
// It must run after AuthRequired.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, _ := c.Locals(LocalRole).(string)
		for _, allowed := range roles {
			if role == allowed {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "This action is not allowed for your account",
			"role":    role,
		})
	}
}

// Caller returns the identity AuthRequired stored in the context.
func Caller(c *fiber.Ctx) services.Identity {
	id := services.Identity{}
	id.UserID, _ = c.Locals(LocalUserID).(string)
	id.Username, _ = c.Locals(LocalUsername).(string)
	id.Role, _ = c.Locals(LocalRole).(string)
	if providerID, ok := c.Locals(LocalProviderID).(int); ok {
		id.ProviderID = &providerID
	}
	return id
}

type tokenKey struct{}

// ContextWithToken returns a copy of ctx carrying the caller's bearer token.
// AuthRequired stores it in the user context so outgoing calls can act as the same caller.
func ContextWithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFromContext returns the bearer token stored by ContextWithToken.
func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenKey{}).(string)
	return token, ok && token != ""
}
