package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"agromarket/internal/models"
	"agromarket/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
)

// Identity is what a validated token says about its bearer.
type Identity struct {
	UserID     string `json:"user_id"`
	Username   string `json:"username"`
	Role       string `json:"role"`
	ProviderID *int   `json:"provider_id,omitempty"`
}

// IsSeller reports whether the bearer may manage catalog products.
func (i Identity) IsSeller() bool {
	return i.Role == models.RoleFarmer || i.Role == models.RoleSupermarket
}

// RegisterRequest is the payload accepted when creating an account.
type RegisterRequest struct {
	Username   string `json:"username" validate:"required,min=3,max=100"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=6"`
	Role       string `json:"role" validate:"required,oneof=consumer farmer supermarket"`
	ProviderID *int   `json:"provider_id" validate:"omitempty,gt=0"`
}

// AuthService handles business logic for authentication and authorization.
type AuthService struct {
	userRepo   repositories.UserRepository
	jwtSecret  []byte
	tokenDurat time.Duration // Duration for which JWT is valid
	validate   *validator.Validate
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, jwtSecret string) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		jwtSecret:  []byte(jwtSecret),
		tokenDurat: 24 * time.Hour,
		validate:   validator.New(),
	}
}

// RegisterUser validates the request, hashes the password and saves the account.
// Sellers must bring a provider id that no other account owns.
func (s *AuthService) RegisterUser(req RegisterRequest) (*models.User, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRegistration, err)
	}
	if req.Role == models.RoleConsumer {
		req.ProviderID = nil
	} else if req.ProviderID == nil {
		return nil, fmt.Errorf("%w: %s accounts need a provider_id", ErrInvalidRegistration, req.Role)
	}

	if existing, err := s.userRepo.GetByUsername(req.Username); err == nil && existing != nil {
		return nil, fmt.Errorf("%w: username '%s' already taken", ErrAccountConflict, req.Username)
	}
	if existing, err := s.userRepo.GetByEmail(req.Email); err == nil && existing != nil {
		return nil, fmt.Errorf("%w: email '%s' already registered", ErrAccountConflict, req.Email)
	}
	if req.ProviderID != nil {
		if existing, err := s.userRepo.GetByProviderID(*req.ProviderID); err == nil && existing != nil {
			return nil, fmt.Errorf("%w: provider %d already has an account", ErrAccountConflict, *req.ProviderID)
		}
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:   req.Username,
		Email:      req.Email,
		Password:   string(hashedPassword),
		Role:       req.Role,
		ProviderID: req.ProviderID,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}
	return user, nil
}

// LoginUser authenticates a user and returns a signed token.
func (s *AuthService) LoginUser(username, password string) (string, error) {
	user, err := s.userRepo.GetByUsername(username)
	if err != nil {
		return "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	claims := jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"role":     user.Role,
		"exp":      time.Now().Add(s.tokenDurat).Unix(),
		"iat":      time.Now().Unix(),
	}
	if user.ProviderID != nil {
		claims["provider_id"] = *user.ProviderID
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken parses and validates a token, returning who it was issued to.
func (s *AuthService) ValidateToken(tokenString string) (*Identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		log.Printf("Token validation error: %v", err)
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	id := &Identity{}
	id.UserID, _ = claims["user_id"].(string)
	id.Username, _ = claims["username"].(string)
	id.Role, _ = claims["role"].(string)
	if id.UserID == "" {
		return nil, errors.New("invalid token: missing user_id")
	}
	// Numeric claims decode as float64.
	if raw, ok := claims["provider_id"].(float64); ok {
		providerID := int(raw)
		id.ProviderID = &providerID
	}
	return id, nil
}
