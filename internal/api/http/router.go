package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/rental-portal/internal/api/http/handlers"
	"github.com/spec-kit/rental-portal/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health    *handlers.HealthHandler
	Auth      *handlers.AuthHandler
	Tickets   *handlers.TicketsHandler
	Contracts *handlers.ContractsHandler
	Reports   *handlers.ReportsHandler
	Sessions  *auth.SessionMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	authGroup := app.Group("/auth")
	authGroup.Post("/sign-in", cfg.Auth.SignIn)
	authGroup.Post("/sign-up", cfg.Auth.SignUp)
	authGroup.Post("/sign-out", cfg.Auth.SignOut)

	requireSession := cfg.Sessions.Handle
	app.Get("/me", requireSession, cfg.Auth.Me)

	properties := app.Group("/properties/:propertyId/tickets", requireSession)
	properties.Get("/", auth.RequireLandlord(), cfg.Tickets.ListTickets)
	properties.Post("/", auth.RequireTenant(), cfg.Tickets.CreateTicket)
	properties.Post("/:ticketId/advance", auth.RequireLandlord(), cfg.Tickets.AdvanceTicket)

	contracts := app.Group("/contracts", requireSession)
	contracts.Get("/", cfg.Contracts.ListContracts)
	contracts.Post("/", auth.RequireLandlord(), cfg.Contracts.CreateContract)
	contracts.Delete("/:id", auth.RequireLandlord(), cfg.Contracts.DeactivateContract)
	contracts.Post("/:id/payments", auth.RequireLandlord(), cfg.Contracts.RegisterPayment)

	reportsGroup := app.Group("/reports", requireSession)
	reportsGroup.Get("/tenant", auth.RequireTenant(), cfg.Reports.TenantReport)
	reportsGroup.Get("/landlord", auth.RequireLandlord(), cfg.Reports.LandlordReport)
}
