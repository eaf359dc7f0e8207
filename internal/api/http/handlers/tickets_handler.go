package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/rental-portal/internal/api/dto"
	"github.com/spec-kit/rental-portal/internal/auth"
	"github.com/spec-kit/rental-portal/internal/domain"
	"github.com/spec-kit/rental-portal/internal/tickets"
	apperrors "github.com/spec-kit/rental-portal/pkg/util/errorutil"
)

// TicketsHandler exposes the ticket lifecycle of a property.
type TicketsHandler struct {
	controllers *tickets.Registry
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(controllers *tickets.Registry) *TicketsHandler {
	return &TicketsHandler{controllers: controllers}
}

// ListTickets GET /properties/:propertyId/tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	propertyID, err := paramID(c, "propertyId")
	if err != nil {
		return err
	}

	ctrl := h.controllers.For(principal.SessionID)
	list, err := ctrl.ListTickets(c.UserContext(), propertyID, principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponses(ctrl, list)})
}

// CreateTicket POST /properties/:propertyId/tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	propertyID, err := paramID(c, "propertyId")
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ctrl := h.controllers.For(principal.SessionID)
	if err := ctrl.CreateTicket(c.UserContext(), propertyID, req.Description, req.Urgent); err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": fiber.Map{"created": true}})
}

// AdvanceTicket POST /properties/:propertyId/tickets/:ticketId/advance.
// Finishing without total_value answers 422 with reason COST_REQUIRED so the
// client can ask for the cost and resubmit.
func (h *TicketsHandler) AdvanceTicket(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	propertyID, err := paramID(c, "propertyId")
	if err != nil {
		return err
	}
	ticketID, err := paramID(c, "ticketId")
	if err != nil {
		return err
	}
	var req dto.AdvanceTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	target, err := domain.ParseTicketStatus(req.Status)
	if err != nil {
		return apperrors.NewFieldError("status", err.Error())
	}
	cost := domain.UnsetCost()
	if req.TotalValue.Present {
		cost, err = tickets.ParseCost(req.TotalValue.Raw)
		if err != nil {
			return err
		}
	}

	ctrl := h.controllers.For(principal.SessionID)
	ticket, err := ctrl.Lookup(c.UserContext(), propertyID, principal.User.ID, ticketID)
	if err != nil {
		return err
	}
	if err := ctrl.AdvanceStatus(c.UserContext(), ticket, target, cost); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponses(ctrl, ctrl.Tickets())})
}

func ticketResponses(ctrl *tickets.Controller, list []domain.Ticket) []dto.TicketResponse {
	items := make([]dto.TicketResponse, 0, len(list))
	for _, t := range list {
		items = append(items, dto.NewTicketResponse(t, ctrl.InFlight(t.ID)))
	}
	return items
}

func paramID(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewFieldError(name, name+" must be a positive integer")
	}
	return id, nil
}
