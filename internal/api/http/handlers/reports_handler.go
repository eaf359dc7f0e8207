package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/rental-portal/internal/auth"
	"github.com/spec-kit/rental-portal/internal/backend"
	"github.com/spec-kit/rental-portal/internal/reports"
)

// ReportsHandler serves the tenant and landlord report pages.
type ReportsHandler struct {
	client *backend.Client
	logger *zap.Logger
	now    func() time.Time
}

// NewReportsHandler constructs handler. now may be nil.
func NewReportsHandler(client *backend.Client, logger *zap.Logger, now func() time.Time) *ReportsHandler {
	if now == nil {
		now = time.Now
	}
	return &ReportsHandler{client: client, logger: logger, now: now}
}

// TenantReport GET /reports/tenant.
func (h *ReportsHandler) TenantReport(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	svc := reports.NewService(h.client.WithSession(principal.Session), h.logger)
	report, err := svc.TenantReport(c.UserContext(), principal.User.ID, h.now())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": report})
}

// LandlordReport GET /reports/landlord.
func (h *ReportsHandler) LandlordReport(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	svc := reports.NewService(h.client.WithSession(principal.Session), h.logger)
	report, err := svc.LandlordReport(c.UserContext(), principal.User.ID, h.now())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": report})
}
