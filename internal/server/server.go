// Package server assembles the HTTP application.
package server

import (
	"time"

	"edhaus/internal/handlers"
	"edhaus/internal/metrics"
	"edhaus/internal/middleware"
	"edhaus/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps is everything the HTTP layer needs.
type Deps struct {
	DB         *gorm.DB
	Auth       *services.AuthService
	Products   *services.ProductService
	Categories *services.CategoryService
	Carts      *services.CartService
	Checkout   *services.CheckoutService
	Orders     *services.OrderService
	Metrics    *metrics.Metrics
	Logger     *zap.Logger
	// RateLimitMax is the number of requests per client per minute; 0 disables the limiter.
	RateLimitMax int
	// AccessLog enables the request logger middleware.
	AccessLog bool
}

// New builds the fiber app with all routes under /api/v1.
func New(d Deps) *fiber.App {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	app := fiber.New(fiber.Config{
		AppName:      "edhaus",
		Immutable:    true,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		ErrorHandler: errorHandler(d.Logger),
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(helmet.New())
	if d.AccessLog {
		app.Use(logger.New(logger.Config{
			Format: "${time} ${locals:requestid} ${status} - ${method} ${path} ${latency}\n",
		}))
	}
	app.Use(middleware.Tracing())
	app.Use(middleware.Metrics(d.Metrics))

	app.Get("/health", health(d.DB))
	if d.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(d.Metrics.Handler()))
	}

	apiV1 := app.Group("/api/v1")
	if d.RateLimitMax > 0 {
		apiV1.Use(limiter.New(limiter.Config{
			Max:        d.RateLimitMax,
			Expiration: time.Minute,
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
					"message": "Too many requests",
					"error":   "RateLimited",
				})
			},
		}))
	}

	authRequired := middleware.AuthRequired(d.Auth)

	// Public routes
	handlers.NewAuthHandler(d.Auth, d.Logger).RegisterRoutes(apiV1)
	catalog := handlers.NewCatalogHandler(d.Products, d.Categories, d.Logger)
	catalog.RegisterRoutes(apiV1)

	// Protected routes (require JWT authentication)
	protected := apiV1.Group("", authRequired)
	handlers.NewCartHandler(d.Carts, d.Logger).RegisterRoutes(protected)
	orders := handlers.NewOrderHandler(d.Checkout, d.Orders, d.Logger)
	orders.RegisterRoutes(protected)

	admin := apiV1.Group("/admin", authRequired, middleware.AdminRequired())
	catalog.RegisterAdminRoutes(admin)
	orders.RegisterAdminRoutes(admin)

	return app
}

func health(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		status, code := "healthy", fiber.StatusOK
		database := "connected"
		if db != nil {
			sqlDB, err := db.DB()
			if err == nil {
				err = sqlDB.PingContext(c.UserContext())
			}
			if err != nil {
				status, code, database = "unhealthy", fiber.StatusServiceUnavailable, "unreachable"
			}
		}
		return c.Status(code).JSON(fiber.Map{
			"status":   status,
			"time":     time.Now().Format(time.RFC3339),
			"database": database,
		})
	}
}

// errorHandler answers errors that escape the handlers, such as unknown routes.
func errorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "internal error"
		if fe, ok := err.(*fiber.Error); ok {
			code, message = fe.Code, fe.Message
		}
		if code >= fiber.StatusInternalServerError {
			log.Error("unhandled error", zap.String("path", c.Path()), zap.Error(err))
		}
		return c.Status(code).JSON(fiber.Map{
			"message": message,
			"error":   utils.StatusMessage(code),
		})
	}
}
