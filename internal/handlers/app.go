package handlers

import (
	"log/slog"
	"time"

	"feira/internal/backend"
	"feira/internal/middleware"
	"feira/internal/telemetry"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
)

// Services groups what the HTTP layer needs.
type Services struct {
	Auth          *backend.AuthService
	Orders        *backend.OrderService
	Reviews       *backend.ReviewService
	Notifications *backend.NotificationService
}

// AppOptions tunes NewApp. Zero values are usable.
type AppOptions struct {
	Logger        *slog.Logger
	Registry      *prometheus.Registry
	ServiceName   string
	RequestLogger bool
	Health        func() fiber.Map
}

// NewApp builds the Fiber app serving the marketplace REST contract.
func NewApp(svc Services, opts AppOptions) *fiber.App {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}
	if opts.ServiceName == "" {
		opts.ServiceName = "feira-backend"
	}

	app := fiber.New(fiber.Config{AppName: opts.ServiceName, DisableStartupMessage: true})
	app.Use(recover.New())
	if opts.RequestLogger {
		app.Use(logger.New())
	}
	app.Use(middleware.Tracing(opts.ServiceName))
	app.Use(middleware.Metrics(opts.Registry))

	app.Get("/health", func(c *fiber.Ctx) error {
		body := fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		}
		if opts.Health != nil {
			for k, v := range opts.Health() {
				body[k] = v
			}
		}
		return c.Status(fiber.StatusOK).JSON(body)
	})
	app.Get("/metrics", adaptor.HTTPHandler(telemetry.Handler(opts.Registry)))

	v := validator.New()
	auth := middleware.AuthRequired(svc.Auth, opts.Logger)

	NewAuthHandler(svc.Auth, v, opts.Logger).RegisterRoutes(app)
	NewOrderHandler(svc.Orders, opts.Logger).RegisterRoutes(app, auth)
	NewDeliveryHandler(svc.Orders, opts.Logger).RegisterRoutes(app, auth)
	NewReviewHandler(svc.Reviews, v, opts.Logger).RegisterRoutes(app, auth)
	NewNotificationHandler(svc.Notifications, v, opts.Logger).RegisterRoutes(app, auth)

	return app
}
