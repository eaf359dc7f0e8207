package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// TicketStatus enumerates lifecycle states for maintenance tickets.
// The zero value is not a valid status.
type TicketStatus int

const (
	TicketStatusPending TicketStatus = iota + 1
	TicketStatusInProgress
	TicketStatusFinished
)

// ErrUnknownTicketStatus is returned when a status outside the lifecycle is seen.
var ErrUnknownTicketStatus = errors.New("unknown ticket status")

// String returns the canonical status name.
func (s TicketStatus) String() string {
	switch s {
	case TicketStatusPending:
		return "PENDING"
	case TicketStatusInProgress:
		return "IN_PROGRESS"
	case TicketStatusFinished:
		return "FINISHED"
	default:
		return fmt.Sprintf("TicketStatus(%d)", int(s))
	}
}

// WireName returns the name the backend uses for the status.
func (s TicketStatus) WireName() (string, error) {
	switch s {
	case TicketStatusPending:
		return "PENDENT", nil
	case TicketStatusInProgress:
		return "PROGRESS", nil
	case TicketStatusFinished:
		return "FINISHED", nil
	default:
		return "", fmt.Errorf("%w: %d", ErrUnknownTicketStatus, int(s))
	}
}

// ParseTicketStatus accepts both the canonical and the backend names.
func ParseTicketStatus(raw string) (TicketStatus, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "PENDING", "PENDENT":
		return TicketStatusPending, nil
	case "IN_PROGRESS", "PROGRESS":
		return TicketStatusInProgress, nil
	case "FINISHED":
		return TicketStatusFinished, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownTicketStatus, raw)
	}
}

// Next returns the only status a ticket may move to. Finished has none.
func (s TicketStatus) Next() (TicketStatus, bool) {
	switch s {
	case TicketStatusPending:
		return TicketStatusInProgress, true
	case TicketStatusInProgress:
		return TicketStatusFinished, true
	case TicketStatusFinished:
		return 0, false
	default:
		return 0, false
	}
}

// CanAdvanceTo reports whether target is the immediate successor of s.
func (s TicketStatus) CanAdvanceTo(target TicketStatus) bool {
	next, ok := s.Next()
	return ok && next == target
}

// IsTerminal reports whether no further transitions exist.
func (s TicketStatus) IsTerminal() bool {
	return s == TicketStatusFinished
}

func (s TicketStatus) MarshalJSON() ([]byte, error) {
	name, err := s.WireName()
	if err != nil {
		return nil, err
	}
	return json.Marshal(name)
}

func (s *TicketStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseTicketStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Cost is the total maintenance cost of a ticket: either unset or a set amount.
type Cost struct {
	amount float64
	set    bool
}

// UnsetCost returns a cost with no amount.
func UnsetCost() Cost { return Cost{} }

// SetCost returns a cost holding amount.
func SetCost(amount float64) Cost { return Cost{amount: amount, set: true} }

// Amount returns the amount and whether it is set.
func (c Cost) Amount() (float64, bool) { return c.amount, c.set }

// IsSet reports whether an amount is present.
func (c Cost) IsSet() bool { return c.set }

func (c Cost) String() string {
	if !c.set {
		return "unset"
	}
	return fmt.Sprintf("%.2f", c.amount)
}

// Ticket is a maintenance request opened by a tenant against a property.
type Ticket struct {
	ID          int64
	PropertyID  int64
	Description string
	Urgent      bool
	Status      TicketStatus
	CreatedAt   time.Time
	TotalCost   Cost
}

// Validate checks the cost/status invariant.
func (t Ticket) Validate() error {
	switch t.Status {
	case TicketStatusPending, TicketStatusInProgress:
		if t.TotalCost.IsSet() {
			return fmt.Errorf("ticket %d: total cost present before finish", t.ID)
		}
	case TicketStatusFinished:
	default:
		return fmt.Errorf("ticket %d: %w", t.ID, ErrUnknownTicketStatus)
	}
	return nil
}

type ticketJSON struct {
	ID          int64        `json:"id"`
	PropertyID  int64        `json:"property_id,omitempty"`
	Description string       `json:"description"`
	Urgent      bool         `json:"urgent"`
	Status      TicketStatus `json:"status"`
	CreatedAt   *Timestamp   `json:"createdAt,omitempty"`
	CreatedAtV2 *Timestamp   `json:"created_at,omitempty"`
	TotalValue  *float64     `json:"total_value,omitempty"`
}

func (t Ticket) MarshalJSON() ([]byte, error) {
	out := ticketJSON{
		ID:          t.ID,
		PropertyID:  t.PropertyID,
		Description: t.Description,
		Urgent:      t.Urgent,
		Status:      t.Status,
	}
	if !t.CreatedAt.IsZero() {
		out.CreatedAt = &Timestamp{Time: t.CreatedAt}
	}
	if amount, ok := t.TotalCost.Amount(); ok {
		out.TotalValue = &amount
	}
	return json.Marshal(out)
}

// UnmarshalJSON tolerates both createdAt and created_at keys.
func (t *Ticket) UnmarshalJSON(data []byte) error {
	var in ticketJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*t = Ticket{
		ID:          in.ID,
		PropertyID:  in.PropertyID,
		Description: in.Description,
		Urgent:      in.Urgent,
		Status:      in.Status,
	}
	switch {
	case in.CreatedAt != nil && !in.CreatedAt.IsZero():
		t.CreatedAt = in.CreatedAt.Time
	case in.CreatedAtV2 != nil:
		t.CreatedAt = in.CreatedAtV2.Time
	}
	if in.TotalValue != nil {
		t.TotalCost = SetCost(*in.TotalValue)
	}
	return nil
}
