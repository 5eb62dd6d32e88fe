package handlers

import (
	"log"
	"strconv"

	"agromarket/internal/middleware"
	"agromarket/internal/models"
	"agromarket/internal/ranking"
	"agromarket/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ProductHandler handles HTTP requests for the catalog.
type ProductHandler struct {
	service  *services.ProductService
	validate *validator.Validate
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService) *ProductHandler {
	return &ProductHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the product routes. auth guards every catalog mutation.
func (h *ProductHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	sellerOnly := middleware.RequireRole(models.RoleFarmer, models.RoleSupermarket)

	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleListProducts)
	productRoutes.Get("/:id", h.HandleGetProductByID)
	productRoutes.Post("/", auth, sellerOnly, h.HandleCreateProduct)
	productRoutes.Put("/:id", auth, sellerOnly, h.HandleUpdateProduct)
	productRoutes.Delete("/:id", auth, sellerOnly, h.HandleDeleteProduct)

	router.Get("/sellers/:seller_type/:provider_id/products", h.HandleGetSellerProducts)
}

// ListProductsQuery holds the query parameters of the ranked listing.
// Sort wins over the by_* toggles when both are given.
type ListProductsQuery struct {
	Sort          string   `query:"sort"`
	ByPrice       bool     `query:"by_price"`
	ByDistance    bool     `query:"by_distance"`
	ByEco         bool     `query:"by_eco"`
	Lat           *float64 `query:"lat" validate:"omitempty,latitude"`
	Lon           *float64 `query:"lon" validate:"omitempty,longitude"`
	EcoOnly       bool     `query:"eco"`
	Category      string   `query:"category"`
	SellerType    string   `query:"seller_type" validate:"omitempty,oneof=farmer supermarket"`
	MaxDistanceKm float64  `query:"max_distance_km" validate:"gte=0"`
}

func (q ListProductsQuery) toProductQuery() services.ProductQuery {
	criterion := q.Sort
	if criterion == "" {
		criterion = string(ranking.CriterionFromToggles(q.ByPrice, q.ByDistance, q.ByEco))
	}
	var loc *models.Location
	if q.Lat != nil && q.Lon != nil {
		loc = &models.Location{Latitude: *q.Lat, Longitude: *q.Lon}
	}
	return services.ProductQuery{
		Criterion: criterion,
		Location:  loc,
		Filter: ranking.Filter{
			EcoOnly:       q.EcoOnly,
			Category:      q.Category,
			SellerType:    q.SellerType,
			MaxDistanceKm: q.MaxDistanceKm,
		},
	}
}

// HandleListProducts returns the catalog ranked by the requested criterion.
func (h *ProductHandler) HandleListProducts(c *fiber.Ctx) error {
	var q ListProductsQuery
	if err := c.QueryParser(&q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid query parameters",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(q); err != nil {
		return validationFailed(c, err)
	}

	products, err := h.service.RankProducts(q.toProductQuery())
	if err != nil {
		return serviceError(c, "Could not retrieve products", err)
	}
	return c.JSON(products)
}

// HandleGetProductByID retrieves a single product by its ID.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	product, err := h.service.GetProductByID(c.Params("id"))
	if err != nil {
		return serviceError(c, "Could not retrieve product", err)
	}
	return c.JSON(product)
}

// HandleGetSellerProducts lists what one seller offers.
func (h *ProductHandler) HandleGetSellerProducts(c *fiber.Ctx) error {
	sellerType := c.Params("seller_type")
	if sellerType != models.SellerFarmer && sellerType != models.SellerSupermarket {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "seller_type must be farmer or supermarket",
		})
	}
	providerID, err := strconv.Atoi(c.Params("provider_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "provider_id must be a number",
			"error":   err.Error(),
		})
	}

	products, err := h.service.GetSellerProducts(providerID, sellerType)
	if err != nil {
		return serviceError(c, "Could not retrieve seller products", err)
	}
	return c.JSON(products)
}

// HandleCreateProduct adds a product offered by the authenticated seller.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var product models.Product
	if err := c.BodyParser(&product); err != nil {
		log.Printf("Error parsing product body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	caller := middleware.Caller(c)
	if caller.ProviderID == nil {
		return forbidden(c, "Seller account has no provider id")
	}
	product.ID = ""
	product.SellerType = caller.Role
	product.ProviderID = caller.ProviderID

	if err := h.service.CreateProduct(&product); err != nil {
		return serviceError(c, "Could not create product", err)
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleUpdateProduct replaces a product owned by the authenticated seller.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	existing, ok, err := h.ownedProduct(c)
	if !ok {
		return err
	}

	var product models.Product
	if err := c.BodyParser(&product); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	product.ID = existing.ID
	product.SellerType = existing.SellerType
	product.ProviderID = existing.ProviderID

	if err := h.service.UpdateProduct(&product); err != nil {
		return serviceError(c, "Could not update product", err)
	}
	return c.JSON(product)
}

// HandleDeleteProduct removes a product owned by the authenticated seller.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	existing, ok, err := h.ownedProduct(c)
	if !ok {
		return err
	}
	if err := h.service.DeleteProduct(existing.ID); err != nil {
		return serviceError(c, "Could not delete product", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ownedProduct loads the product named in the path and checks the caller sells it.
func (h *ProductHandler) ownedProduct(c *fiber.Ctx) (*models.Product, bool, error) {
	product, err := h.service.GetProductByID(c.Params("id"))
	if err != nil {
		return nil, false, serviceError(c, "Could not retrieve product", err)
	}
	caller := middleware.Caller(c)
	if caller.ProviderID == nil || product.ProviderID == nil ||
		*caller.ProviderID != *product.ProviderID || caller.Role != product.SellerType {
		return nil, false, forbidden(c, "Product belongs to another seller")
	}
	return product, true, nil
}
