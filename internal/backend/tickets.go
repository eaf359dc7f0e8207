package backend

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/spec-kit/rental-portal/internal/domain"
	apperrors "github.com/spec-kit/rental-portal/pkg/util/errorutil"
)

// NewTicket is the ticket form a tenant submits.
type NewTicket struct {
	PropertyID  int64  `json:"property_id"`
	Description string `json:"description"`
	Urgent      bool   `json:"urgent"`
	TenantEmail string `json:"tenantEmail"`
}

// Validate checks the form before it is sent.
func (t NewTicket) Validate() error {
	if t.PropertyID <= 0 {
		return apperrors.NewFieldError("property_id", "a property is required")
	}
	if strings.TrimSpace(t.Description) == "" {
		return apperrors.NewFieldError("description", "a description is required")
	}
	if strings.TrimSpace(t.TenantEmail) == "" {
		return apperrors.NewFieldError("tenantEmail", "tenant email is required")
	}
	return nil
}

// StatusUpdate is the body of a ticket status change.
type StatusUpdate struct {
	Status     domain.TicketStatus
	TotalValue *float64
	Email      string
}

type statusUpdateBody struct {
	Status     string   `json:"status"`
	TotalValue *float64 `json:"total_value,omitempty"`
	Email      string   `json:"email"`
}

// ListTickets returns the tickets of a property managed by landlordID.
func (c *Client) ListTickets(ctx context.Context, propertyID, landlordID int64) ([]domain.Ticket, error) {
	var tickets []domain.Ticket
	err := c.do(ctx, call{
		operation: "list_tickets",
		method:    http.MethodGet,
		path:      fmt.Sprintf("/api/tickets/property/%d/%d", propertyID, landlordID),
		out:       &tickets,
	})
	if err != nil {
		return nil, err
	}
	if tickets == nil {
		tickets = []domain.Ticket{}
	}
	return tickets, nil
}

// CreateTicket opens a ticket for a property.
func (c *Client) CreateTicket(ctx context.Context, ticket NewTicket) error {
	ticket.Description = strings.TrimSpace(ticket.Description)
	if err := ticket.Validate(); err != nil {
		return err
	}
	return c.do(ctx, call{
		operation: "create_ticket",
		method:    http.MethodPost,
		path:      "/api/tickets/",
		body:      ticket,
	})
}

// UpdateTicketStatus asks the backend to move a ticket to a new status.
func (c *Client) UpdateTicketStatus(ctx context.Context, ticketID int64, update StatusUpdate) error {
	wire, err := update.Status.WireName()
	if err != nil {
		return apperrors.NewFieldError("status", err.Error())
	}
	return c.do(ctx, call{
		operation: "update_ticket_status",
		method:    http.MethodPut,
		path:      fmt.Sprintf("/api/tickets/%d/status", ticketID),
		body:      statusUpdateBody{Status: wire, TotalValue: update.TotalValue, Email: update.Email},
	})
}
