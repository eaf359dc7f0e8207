package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Payment day bounds. Days 29-31 are excluded so every month has the day.
const (
	MinPaymentDay = 1
	MaxPaymentDay = 28
)

// ErrPaymentDayOutOfRange is returned for a payment day outside 1..28.
var ErrPaymentDayOutOfRange = errors.New("payment day must be between 1 and 28")

// Payment is one rent payment registered against a contract.
type Payment struct {
	ID        int64     `json:"id"`
	Value     float64   `json:"value"`
	Tax       float64   `json:"tax"`
	CreatedAt time.Time `json:"-"`
}

// Total returns value plus tax.
func (p Payment) Total() float64 {
	return p.Value + p.Tax
}

// Validate enforces value > 0 and tax >= 0.
func (p Payment) Validate() error {
	if p.Value <= 0 {
		return errors.New("payment value must be greater than zero")
	}
	if p.Tax < 0 {
		return errors.New("payment tax cannot be negative")
	}
	return nil
}

type paymentJSON struct {
	ID        int64     `json:"id"`
	Value     float64   `json:"value"`
	Tax       float64   `json:"tax"`
	CreatedAt Timestamp `json:"createdAt"`
}

func (p Payment) MarshalJSON() ([]byte, error) {
	return json.Marshal(paymentJSON{ID: p.ID, Value: p.Value, Tax: p.Tax, CreatedAt: Timestamp{Time: p.CreatedAt}})
}

func (p *Payment) UnmarshalJSON(data []byte) error {
	var in paymentJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*p = Payment{ID: in.ID, Value: in.Value, Tax: in.Tax, CreatedAt: in.CreatedAt.Time}
	return nil
}

// Contract is a rental agreement between a landlord and a tenant for one property.
type Contract struct {
	ID           int64
	MonthlyValue float64
	Deposit      float64
	Duration     int
	PaymentDay   int
	Active       bool
	TenantID     int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Property     *Property
	Payments     []Payment
}

// ValidatePaymentDay enforces the 1..28 range.
func ValidatePaymentDay(day int) error {
	if day < MinPaymentDay || day > MaxPaymentDay {
		return fmt.Errorf("%w: got %d", ErrPaymentDayOutOfRange, day)
	}
	return nil
}

// TotalPaid sums the base value of every payment.
func (c Contract) TotalPaid() float64 {
	var total float64
	for _, p := range c.Payments {
		total += p.Value
	}
	return total
}

type contractJSON struct {
	ID           int64     `json:"id"`
	MonthlyValue float64   `json:"monthly_value"`
	Deposit      float64   `json:"deposit"`
	Duration     int       `json:"duration"`
	PaymentDay   int       `json:"payment_day"`
	Active       bool      `json:"active"`
	TenantID     int64     `json:"tenant_id"`
	CreatedAt    Timestamp `json:"created_at"`
	UpdatedAt    Timestamp `json:"updated_at"`
	Property     *Property `json:"propertyEntity,omitempty"`
	Payments     []Payment `json:"payments"`
}

func (c Contract) MarshalJSON() ([]byte, error) {
	payments := c.Payments
	if payments == nil {
		payments = []Payment{}
	}
	return json.Marshal(contractJSON{
		ID:           c.ID,
		MonthlyValue: c.MonthlyValue,
		Deposit:      c.Deposit,
		Duration:     c.Duration,
		PaymentDay:   c.PaymentDay,
		Active:       c.Active,
		TenantID:     c.TenantID,
		CreatedAt:    Timestamp{Time: c.CreatedAt},
		UpdatedAt:    Timestamp{Time: c.UpdatedAt},
		Property:     c.Property,
		Payments:     payments,
	})
}

func (c *Contract) UnmarshalJSON(data []byte) error {
	var in contractJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*c = Contract{
		ID:           in.ID,
		MonthlyValue: in.MonthlyValue,
		Deposit:      in.Deposit,
		Duration:     in.Duration,
		PaymentDay:   in.PaymentDay,
		Active:       in.Active,
		TenantID:     in.TenantID,
		CreatedAt:    in.CreatedAt.Time,
		UpdatedAt:    in.UpdatedAt.Time,
		Property:     in.Property,
		Payments:     in.Payments,
	}
	return nil
}
