package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"agromarket/internal/config"
	"agromarket/internal/database"
	"agromarket/internal/handlers"
	"agromarket/internal/middleware"
	"agromarket/internal/models"
	"agromarket/internal/ranking"
	"agromarket/internal/repositories"
	"agromarket/internal/services"
	"agromarket/internal/transport"
	"agromarket/pkg/rabbitmq"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"gorm.io/gorm"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// --- Database ---
	db, err := database.Open(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// --- RabbitMQ ---
	// Order events are best effort: the marketplace keeps working without a broker.
	var publisher services.EventPublisher
	if cfg.RabbitMQEnabled {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			log.Printf("RabbitMQ unavailable, order events will not be published: %v", err)
		} else {
			defer mqClient.Close()
			publisher = mqClient
			if err := mqClient.ConsumeOrderEvents(logOrderEvent); err != nil {
				log.Printf("Failed to start RabbitMQ consumer: %v", err)
			}
		}
	}

	app := newApp(cfg, db, publisher)

	// --- Start HTTP Server ---
	log.Printf("Starting server on port %s", cfg.AppPort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(cfg.AppPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}
	log.Println("Server gracefully stopped")
}

// newApp wires repositories, services and handlers into a Fiber app. publisher may be nil.
func newApp(cfg *config.Config, db *gorm.DB, publisher services.EventPublisher) *fiber.App {
	// --- Repositories ---
	productRepo := repositories.NewGORMProductRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)
	userRepo := repositories.NewGORMUserRepository(db)

	// --- Services ---
	productService := services.NewProductService(productRepo, ranking.NewEngine(cfg.RankingWeights))
	orderService := services.NewOrderService(orderRepo, productRepo, publisher, cfg.Currency)
	authService := services.NewAuthService(userRepo, cfg.JWTSecret)
	cartService := services.NewCartService(productRepo)
	checkoutService := services.NewCheckoutService(cartService, submitterFor(cfg, orderService), cfg.CheckoutConcurrency)

	// --- Handlers ---
	auth := middleware.AuthRequired(authService)
	app := fiber.New()
	app.Use(logger.New())

	apiV1 := app.Group("/api/v1")
	handlers.NewAuthHandler(authService).RegisterRoutes(apiV1, auth)
	handlers.NewProductHandler(productService).RegisterRoutes(apiV1, auth)
	handlers.NewCartHandler(cartService, checkoutService).RegisterRoutes(apiV1, auth)
	handlers.NewOrderHandler(orderService).RegisterRoutes(apiV1, auth)

	app.Get("/health", func(c *fiber.Ctx) error {
		dbStatus := "connected"
		if sqlDB, err := db.DB(); err != nil || sqlDB.Ping() != nil {
			dbStatus = "unreachable"
		}
		mqStatus := "disabled"
		if publisher != nil {
			mqStatus = "connected"
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":          "healthy",
			"time":            time.Now().Format(time.RFC3339),
			"database":        dbStatus,
			"rabbitmq":        mqStatus,
			"order_submitter": cfg.OrderSubmitter,
		})
	})

	return app
}

// submitterFor picks where checkout orders go: straight into the local order service,
// or over HTTP to a remote order backend.
func submitterFor(cfg *config.Config, local *services.OrderService) services.SubmitterFactory {
	if cfg.OrderSubmitter == config.SubmitterRemote {
		log.Printf("Checkout orders are sent to %s", cfg.OrderAPIURL)
		return transport.NewOrderClient(cfg.OrderAPIURL, cfg.OrderAPITimeout, cfg.Currency)
	}
	return local
}

func logOrderEvent(event models.OrderEvent) error {
	log.Printf("Order event: order %s for %s %d is %s (total %s %s)",
		event.OrderID, event.SellerType, event.SellerID, event.Status, event.Total.StringFixed(2), event.Currency)
	return nil
}
