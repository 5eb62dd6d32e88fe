package services

import "errors"

// Business rule violations reported by the services. Handlers map them to client errors.
var (
	ErrInvalidProduct    = errors.New("invalid product")
	ErrInvalidQuantity   = errors.New("quantity must be at least 1")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrSellerMismatch    = errors.New("product is not sold by this seller")
	ErrInvalidStatus     = errors.New("invalid order status")
	ErrInvalidOrder      = errors.New("invalid order request")

	ErrInvalidRegistration = errors.New("invalid registration")
	ErrAccountConflict     = errors.New("account already exists")
	ErrInvalidCredentials  = errors.New("invalid credentials")
)
