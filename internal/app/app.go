// Package app wires repositories, services and handlers into a Fiber application.
package app

import (
	"os"
	"time"

	"storefront/internal/auditlog"
	"storefront/internal/cart"
	"storefront/internal/config"
	"storefront/internal/credentials"
	"storefront/internal/handlers"
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App is the assembled storefront.
type App struct {
	Fiber    *fiber.App
	Auth     *services.AuthService
	Products *services.ProductService
	Orders   *services.OrderService
	Sessions *cart.Sessions
	OrderLog *auditlog.OrderLog
}

// New builds the application on db. publisher may be nil to disable order events.
func New(cfg *config.Config, db *gorm.DB, log *zap.Logger, publisher services.EventPublisher) *App {
	// --- Repositories ---
	userRepo := repositories.NewGORMUserRepository(db)
	productRepo := repositories.NewGORMProductRepository(db)
	categoryRepo := repositories.NewGORMCategoryRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)

	// --- Services ---
	orderLog := auditlog.New(cfg.OrderLogPath)
	authService := services.NewAuthService(userRepo, credentials.NewMigrating(cfg.BcryptCost), cfg.JWTSecret, cfg.JWTTTL, log)
	productService := services.NewProductService(productRepo)
	categoryService := services.NewCategoryService(categoryRepo)
	orderService := services.NewOrderService(orderRepo, productRepo, userRepo, orderLog, publisher, log)
	sessions := cart.NewSessions()

	// --- Handlers ---
	authHandler := handlers.NewAuthHandler(authService, log)
	productHandler := handlers.NewProductHandler(productService, categoryService, log)
	catalogAdminHandler := handlers.NewCatalogAdminHandler(productService, log)
	orderHandler := handlers.NewOrderHandler(orderService, log)
	cartHandler := handlers.NewCartHandler(sessions, productService, orderService, log)

	// --- Fiber ---
	app := fiber.New(fiber.Config{
		AppName:               "storefront",
		DisableStartupMessage: true,
		BodyLimit:             8 * 1024 * 1024,
	})
	app.Use(recover.New())
	if cfg.AccessLog {
		app.Use(logger.New(logger.Config{Output: os.Stdout}))
	}

	authRequired := middleware.AuthRequired(authService, log)
	optionalAuth := middleware.OptionalAuth(authService, log)
	staffOnly := middleware.StaffRequired()

	health := func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
			"events": publisher != nil,
		})
	}
	app.Get("/health", health)

	apiV1 := app.Group("/api/v1")
	apiV1.Get("/health", health)

	admin := apiV1.Group("/admin", authRequired, staffOnly)

	authHandler.RegisterRoutes(apiV1, authRequired)
	productHandler.RegisterRoutes(apiV1, authRequired, staffOnly)
	catalogAdminHandler.RegisterRoutes(admin)
	orderHandler.RegisterRoutes(apiV1, authRequired, admin)
	cartHandler.RegisterRoutes(apiV1, optionalAuth)

	return &App{
		Fiber:    app,
		Auth:     authService,
		Products: productService,
		Orders:   orderService,
		Sessions: sessions,
		OrderLog: orderLog,
	}
}

// DemoProducts is the catalog loaded by SeedProducts.
func DemoProducts() []models.Product {
	return []models.Product{
		{Name: "Laptop", Description: "High performance laptop", Price: decimal.NewFromInt(1200), StockQuantity: 10, IsActive: true},
		{Name: "Keyboard", Description: "Mechanical keyboard", Price: decimal.NewFromInt(75), StockQuantity: 25, IsActive: true},
		{Name: "Mouse", Description: "Ergonomic wireless mouse", Price: decimal.NewFromInt(25), StockQuantity: 50, IsActive: true},
	}
}

// SeedProducts loads DemoProducts into an empty catalog. It returns how many
// products were added.
func (a *App) SeedProducts() (int, error) {
	existing, err := a.Products.GetAllProducts()
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}
	return a.Products.ImportProducts(DemoProducts())
}
