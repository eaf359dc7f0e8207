package dto

import (
	"time"

	"github.com/spec-kit/rental-portal/internal/billing"
	"github.com/spec-kit/rental-portal/internal/domain"
)

// CreateContractRequest payload for a landlord's new contract.
type CreateContractRequest struct {
	PropertyID   int64   `json:"property_id"`
	TenantEmail  string  `json:"tenant_email"`
	MonthlyValue float64 `json:"monthly_value"`
	Deposit      float64 `json:"deposit"`
	Duration     int     `json:"duration"`
	PaymentDay   int     `json:"payment_day"`
}

// RegisterPaymentRequest payload for a rent payment.
type RegisterPaymentRequest struct {
	Value float64 `json:"value"`
	Tax   float64 `json:"tax"`
}

// PaymentResponse is one payment on a contract.
type PaymentResponse struct {
	ID        int64     `json:"id"`
	Value     float64   `json:"value"`
	Tax       float64   `json:"tax"`
	CreatedAt time.Time `json:"created_at"`
}

// ContractResponse is a contract together with its due-date classification.
type ContractResponse struct {
	ID             int64             `json:"id"`
	PropertyID     int64             `json:"property_id,omitempty"`
	PropertyName   string            `json:"property_name,omitempty"`
	MonthlyValue   float64           `json:"monthly_value"`
	Deposit        float64           `json:"deposit"`
	Duration       int               `json:"duration"`
	PaymentDay     int               `json:"payment_day"`
	Active         bool              `json:"active"`
	PaymentStatus  string            `json:"payment_status"`
	DaysRemaining  int               `json:"days_remaining"`
	StatusMessage  string            `json:"status_message"`
	RecentPayments []PaymentResponse `json:"recent_payments"`
}

// NewContractResponse maps a classified contract and its latest payments.
func NewContractResponse(c billing.Classified, recent []domain.Payment) ContractResponse {
	resp := ContractResponse{
		ID:             c.Contract.ID,
		MonthlyValue:   c.Contract.MonthlyValue,
		Deposit:        c.Contract.Deposit,
		Duration:       c.Contract.Duration,
		PaymentDay:     c.Contract.PaymentDay,
		Active:         c.Contract.Active,
		PaymentStatus:  c.Classification.Status.String(),
		DaysRemaining:  c.Classification.DaysRemaining,
		StatusMessage:  c.Classification.Message,
		RecentPayments: make([]PaymentResponse, 0, len(recent)),
	}
	if c.Contract.Property != nil {
		resp.PropertyID = c.Contract.Property.ID
		resp.PropertyName = c.Contract.Property.Name
	}
	for _, p := range recent {
		resp.RecentPayments = append(resp.RecentPayments, PaymentResponse{ID: p.ID, Value: p.Value, Tax: p.Tax, CreatedAt: p.CreatedAt})
	}
	return resp
}
