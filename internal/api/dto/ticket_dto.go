package dto

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"

	"github.com/spec-kit/rental-portal/internal/domain"
)

// TicketResponse is a ticket as shown to the portal, with its in-flight flag.
type TicketResponse struct {
	ID          int64      `json:"id"`
	PropertyID  int64      `json:"property_id,omitempty"`
	Description string     `json:"description"`
	Urgent      bool       `json:"urgent"`
	Status      string     `json:"status"`
	NextStatus  string     `json:"next_status,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	TotalValue  *float64   `json:"total_value,omitempty"`
	Updating    bool       `json:"updating"`
}

// NewTicketResponse maps a domain ticket.
func NewTicketResponse(t domain.Ticket, updating bool) TicketResponse {
	resp := TicketResponse{
		ID:          t.ID,
		PropertyID:  t.PropertyID,
		Description: t.Description,
		Urgent:      t.Urgent,
		Status:      t.Status.String(),
		Updating:    updating,
	}
	if next, ok := t.Status.Next(); ok {
		resp.NextStatus = next.String()
	}
	if !t.CreatedAt.IsZero() {
		created := t.CreatedAt
		resp.CreatedAt = &created
	}
	if amount, ok := t.TotalCost.Amount(); ok {
		resp.TotalValue = &amount
	}
	return resp
}

// CreateTicketRequest payload for a tenant's new ticket.
type CreateTicketRequest struct {
	Description string `json:"description"`
	Urgent      bool   `json:"urgent"`
}

// AdvanceTicketRequest payload for a status change.
type AdvanceTicketRequest struct {
	Status     string    `json:"status"`
	TotalValue CostInput `json:"total_value"`
}

// CostInput accepts a cost sent either as a JSON number or as the raw text
// typed by the user.
type CostInput struct {
	Raw     string
	Present bool
}

func (c *CostInput) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*c = CostInput{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = CostInput{Raw: s, Present: true}
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return errors.New("total_value must be a number or a string")
	}
	*c = CostInput{Raw: n.String(), Present: true}
	return nil
}
