package events

import (
	"time"

	"github.com/spec-kit/rental-portal/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventSessionSignedIn     EventType = "session_signed_in"
	EventSessionSignedOut    EventType = "session_signed_out"
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventPaymentRegistered   EventType = "payment_registered"
	EventContractCreated     EventType = "contract_created"
	EventContractDeactivated EventType = "contract_deactivated"
)

// AllEventTypes lists every event the portal emits.
var AllEventTypes = []EventType{
	EventSessionSignedIn,
	EventSessionSignedOut,
	EventTicketCreated,
	EventTicketStatusChanged,
	EventPaymentRegistered,
	EventContractCreated,
	EventContractDeactivated,
}

// Actor identifies who triggered an event.
type Actor struct {
	UserID int64           `json:"user_id,omitempty"`
	Email  string          `json:"email,omitempty"`
	Type   domain.UserType `json:"type,omitempty"`
}

// Event represents something that happened in the portal.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	SessionID string      `json:"session_id,omitempty"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// SignedOutReason tells readers why a session ended.
type SignedOutReason string

const (
	ReasonLogout       SignedOutReason = "logout"
	ReasonAuthRejected SignedOutReason = "auth_rejected"
	ReasonExpired      SignedOutReason = "expired"
)

// SessionSignedOutPayload payload.
type SessionSignedOutPayload struct {
	Reason SignedOutReason `json:"reason"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	TicketID  int64               `json:"ticket_id"`
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
	TotalCost *float64            `json:"total_value,omitempty"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	PropertyID int64 `json:"property_id"`
	Urgent     bool  `json:"urgent"`
}

// PaymentRegisteredPayload payload.
type PaymentRegisteredPayload struct {
	ContractID int64   `json:"contract_id"`
	Value      float64 `json:"value"`
	Tax        float64 `json:"tax"`
}

// ContractPayload payload for contract lifecycle events.
type ContractPayload struct {
	ContractID int64 `json:"contract_id,omitempty"`
	PropertyID int64 `json:"property_id,omitempty"`
}
