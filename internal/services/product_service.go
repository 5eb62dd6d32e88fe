package services

import (
	"fmt"

	"agromarket/internal/models"
	"agromarket/internal/ranking"
	"agromarket/internal/repositories"

	"github.com/go-playground/validator/v10"
)

// ProductQuery describes a ranked catalog listing.
type ProductQuery struct {
	Criterion string
	Location  *models.Location
	Filter    ranking.Filter
}

// ProductService handles business logic related to the catalog.
type ProductService struct {
	repo     repositories.ProductRepository
	engine   *ranking.Engine
	validate *validator.Validate
}

// NewProductService creates a new ProductService ranking with engine.
func NewProductService(repo repositories.ProductRepository, engine *ranking.Engine) *ProductService {
	if engine == nil {
		engine = ranking.NewEngine(ranking.DefaultWeights())
	}
	return &ProductService{
		repo:     repo,
		engine:   engine,
		validate: validator.New(),
	}
}

// GetAllProducts retrieves the whole catalog in storage order.
func (s *ProductService) GetAllProducts() ([]models.Product, error) {
	return s.repo.GetAll()
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(id string) (*models.Product, error) {
	return s.repo.GetByID(id)
}

// GetSellerProducts retrieves the products offered by one seller.
func (s *ProductService) GetSellerProducts(providerID int, sellerType string) ([]models.Product, error) {
	return s.repo.GetByProvider(providerID, sellerType)
}

// RankProducts filters the catalog and orders it best first.
func (s *ProductService) RankProducts(q ProductQuery) ([]ranking.RankedProduct, error) {
	products, err := s.repo.GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	candidates := q.Filter.Apply(products, q.Location)
	return s.engine.RankScored(candidates, q.Criterion, q.Location), nil
}

// CreateProduct validates and stores a new product.
func (s *ProductService) CreateProduct(product *models.Product) error {
	if err := s.check(product); err != nil {
		return err
	}
	return s.repo.Create(product)
}

// UpdateProduct validates and replaces an existing product.
func (s *ProductService) UpdateProduct(product *models.Product) error {
	if err := s.check(product); err != nil {
		return err
	}
	return s.repo.Update(product)
}

// DeleteProduct deletes a product by its ID.
func (s *ProductService) DeleteProduct(id string) error {
	return s.repo.Delete(id)
}

func (s *ProductService) check(product *models.Product) error {
	if err := s.validate.Struct(product); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProduct, err)
	}
	if product.Price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidProduct)
	}
	return nil
}
