package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/rental-portal/internal/observability"
)

// AppConfig holds what the portal's fiber app is assembled from.
type AppConfig struct {
	Name           string
	Logger         *zap.Logger
	Metrics        *observability.Metrics
	RequestTimeout time.Duration
	Routes         RouteConfig
}

// NewApp builds the fiber app with middlewares and routes registered.
func NewApp(cfg AppConfig) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               cfg.Name,
		DisableStartupMessage: true,
	})
	RegisterMiddlewares(app, cfg.Logger, cfg.Metrics, cfg.RequestTimeout, cfg.Routes.Sessions.CookieName())
	RegisterRoutes(app, cfg.Routes)
	return app
}
