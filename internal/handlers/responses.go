package handlers

import (
	"errors"
	"fmt"
	"log"

	"agromarket/internal/repositories"
	"agromarket/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// parseAndValidate binds the request body into req and runs its validate tags.
// On failure it has already written the 400 response and returns false.
func parseAndValidate(c *fiber.Ctx, validate *validator.Validate, req interface{}) (bool, error) {
	if err := c.BodyParser(req); err != nil {
		log.Printf("Error parsing request body: %v", err)
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := validate.Struct(req); err != nil {
		return false, validationFailed(c, err)
	}
	return true, nil
}

func validationFailed(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"error":   err.Error(),
		})
	}
	errorMessages := make(map[string]string)
	for _, e := range validationErrors {
		errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Validation failed",
		"errors":  errorMessages,
	})
}

// serviceError maps an error returned by a service to a JSON response.
func serviceError(c *fiber.Ctx, message string, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, services.ErrInsufficientStock), errors.Is(err, services.ErrAccountConflict):
		status = fiber.StatusConflict
	case errors.Is(err, services.ErrInvalidCredentials):
		status = fiber.StatusUnauthorized
	case services.IsClientError(err), errors.Is(err, services.ErrInvalidRegistration):
		status = fiber.StatusBadRequest
	}
	if status == fiber.StatusInternalServerError {
		log.Printf("%s: %v", message, err)
	}
	return c.Status(status).JSON(fiber.Map{
		"message": message,
		"error":   err.Error(),
	})
}

func forbidden(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
		"message": message,
	})
}
