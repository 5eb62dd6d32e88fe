package services_test

import (
	"fmt"
	"testing"

	"agromarket/internal/models"
	"agromarket/internal/ranking"
	"agromarket/internal/repositories"
	"agromarket/internal/services"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func farmProduct(id, name string, price float64, providerID int) models.Product {
	return models.Product{
		ID:         id,
		Name:       name,
		Price:      decimal.NewFromFloat(price),
		Stock:      20,
		Category:   "vegetables",
		SellerType: models.SellerFarmer,
		ProviderID: ptr(providerID),
	}
}

func TestProductService_GetAllProducts(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil)

	expectedProducts := []models.Product{
		farmProduct("1", "Tomatoes", 2.5, 1),
		farmProduct("2", "Potatoes", 1.2, 2),
	}

	mockRepo.On("GetAll").Return(expectedProducts, nil).Once()

	products, err := service.GetAllProducts()

	assert.NoError(t, err)
	assert.Len(t, products, 2)
	assert.Equal(t, expectedProducts, products)
	mockRepo.AssertExpectations(t)
}

func TestProductService_GetProductByID(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil)

	expectedProduct := farmProduct("1", "Tomatoes", 2.5, 1)

	mockRepo.On("GetByID", "1").Return(&expectedProduct, nil).Once()
	product, err := service.GetProductByID("1")
	assert.NoError(t, err)
	assert.Equal(t, &expectedProduct, product)

	mockRepo.On("GetByID", "99").Return(nil, fmt.Errorf("product with ID 99: %w", repositories.ErrNotFound)).Once()
	product, err = service.GetProductByID("99")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	assert.Nil(t, product)
	mockRepo.AssertExpectations(t)
}

func TestProductService_RankProducts(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil)

	cheap := farmProduct("cheap", "Cabbage", 1, 1)
	pricey := farmProduct("pricey", "Truffle", 8, 2)
	eco := farmProduct("eco", "Organic kale", 3, 3)
	eco.IsEco = ptr(true)
	mockRepo.On("GetAll").Return([]models.Product{pricey, eco, cheap}, nil)

	ranked, err := service.RankProducts(services.ProductQuery{Criterion: "price"})
	require.NoError(t, err)
	require.Len(t, ranked, 3)
	assert.Equal(t, []string{"cheap", "eco", "pricey"}, []string{ranked[0].ID, ranked[1].ID, ranked[2].ID})
	assert.Equal(t, 90.0, ranked[0].Score)

	ranked, err = service.RankProducts(services.ProductQuery{
		Criterion: "price",
		Filter:    ranking.Filter{EcoOnly: true},
	})
	require.NoError(t, err)
	require.Len(t, ranked, 1)
	assert.Equal(t, "eco", ranked[0].ID)
}

func TestProductService_RankProducts_RepositoryError(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil)

	mockRepo.On("GetAll").Return(nil, fmt.Errorf("database error")).Once()
	_, err := service.RankProducts(services.ProductQuery{})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "database error")
}

func TestProductService_CreateProduct(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil)

	newProduct := farmProduct("", "Carrots", 1.8, 4)

	mockRepo.On("Create", &newProduct).Return(nil).Once()
	err := service.CreateProduct(&newProduct)
	assert.NoError(t, err)

	mockRepo.On("Create", &newProduct).Return(fmt.Errorf("database error")).Once()
	err = service.CreateProduct(&newProduct)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "database error")
	mockRepo.AssertExpectations(t)
}

func TestProductService_CreateProduct_Invalid(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil)

	noName := farmProduct("", "", 1, 1)
	badSeller := farmProduct("", "Milk", 1, 1)
	badSeller.SellerType = "wholesaler"
	negative := farmProduct("", "Eggs", -1, 1)

	for _, p := range []models.Product{noName, badSeller, negative} {
		err := service.CreateProduct(&p)
		assert.ErrorIs(t, err, services.ErrInvalidProduct)
	}
	mockRepo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestProductService_UpdateProduct(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil)

	updated := farmProduct("1", "Tomatoes", 2.9, 1)

	mockRepo.On("Update", &updated).Return(nil).Once()
	err := service.UpdateProduct(&updated)
	assert.NoError(t, err)

	missing := farmProduct("99", "Ghost pepper", 1, 1)
	mockRepo.On("Update", &missing).Return(fmt.Errorf("product with ID 99: %w", repositories.ErrNotFound)).Once()
	err = service.UpdateProduct(&missing)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	mockRepo.AssertExpectations(t)
}

func TestProductService_DeleteProduct(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil)

	mockRepo.On("Delete", "1").Return(nil).Once()
	err := service.DeleteProduct("1")
	assert.NoError(t, err)

	mockRepo.On("Delete", "99").Return(fmt.Errorf("product with ID 99: %w", repositories.ErrNotFound)).Once()
	err = service.DeleteProduct("99")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	mockRepo.AssertExpectations(t)
}

func TestProductService_GetSellerProducts(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil)

	own := []models.Product{farmProduct("1", "Tomatoes", 2.5, 4)}
	mockRepo.On("GetByProvider", 4, models.SellerFarmer).Return(own, nil).Once()

	products, err := service.GetSellerProducts(4, models.SellerFarmer)
	assert.NoError(t, err)
	assert.Equal(t, own, products)
	mockRepo.AssertExpectations(t)
}
