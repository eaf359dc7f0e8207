package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/spec-kit/rental-portal/internal/domain"
	apperrors "github.com/spec-kit/rental-portal/pkg/util/errorutil"
)

// NewContract is the contract form a landlord submits.
type NewContract struct {
	PropertyID   int64   `json:"property_id"`
	TenantEmail  string  `json:"tenantEmail"`
	MonthlyValue float64 `json:"monthly_value"`
	Deposit      float64 `json:"deposit"`
	Duration     int     `json:"duration"`
	PaymentDay   int     `json:"payment_day"`
}

// Validate checks the form before it is sent.
func (c NewContract) Validate() error {
	switch {
	case c.PropertyID <= 0:
		return apperrors.NewFieldError("property_id", "a property is required")
	case strings.TrimSpace(c.TenantEmail) == "":
		return apperrors.NewFieldError("tenantEmail", "tenant email is required")
	case c.MonthlyValue <= 0:
		return apperrors.NewFieldError("monthly_value", "monthly value must be greater than zero")
	case c.Deposit < 0:
		return apperrors.NewFieldError("deposit", "deposit cannot be negative")
	case c.Duration <= 0:
		return apperrors.NewFieldError("duration", "duration must be at least one month")
	}
	if err := domain.ValidatePaymentDay(c.PaymentDay); err != nil {
		return apperrors.NewFieldError("payment_day", err.Error())
	}
	return nil
}

// NewPayment registers one rent payment against a contract.
type NewPayment struct {
	ContractID int64   `json:"contractId"`
	Value      float64 `json:"value"`
	Tax        float64 `json:"tax"`
}

// Validate checks the form before it is sent.
func (p NewPayment) Validate() error {
	if p.ContractID <= 0 {
		return apperrors.NewFieldError("contractId", "a contract is required")
	}
	if err := (domain.Payment{Value: p.Value, Tax: p.Tax}).Validate(); err != nil {
		field := "value"
		if p.Value > 0 {
			field = "tax"
		}
		return apperrors.NewFieldError(field, err.Error())
	}
	return nil
}

// ListLandlordContracts returns every contract a landlord issued.
func (c *Client) ListLandlordContracts(ctx context.Context, landlordID int64) ([]domain.Contract, error) {
	return c.listContracts(ctx, "list_landlord_contracts", fmt.Sprintf("/api/landlords/%d/contracts", landlordID))
}

// ListTenantContracts returns every contract a tenant holds.
func (c *Client) ListTenantContracts(ctx context.Context, tenantID int64) ([]domain.Contract, error) {
	return c.listContracts(ctx, "list_tenant_contracts", fmt.Sprintf("/api/tenant/%d/contracts", tenantID))
}

func (c *Client) listContracts(ctx context.Context, operation, path string) ([]domain.Contract, error) {
	var contracts []domain.Contract
	if err := c.do(ctx, call{operation: operation, method: http.MethodGet, path: path, out: &contracts}); err != nil {
		return nil, err
	}
	if contracts == nil {
		contracts = []domain.Contract{}
	}
	return contracts, nil
}

// CreateContract issues a contract for a tenant.
func (c *Client) CreateContract(ctx context.Context, contract NewContract) error {
	contract.TenantEmail = strings.TrimSpace(contract.TenantEmail)
	if err := contract.Validate(); err != nil {
		return err
	}
	return c.do(ctx, call{
		operation: "create_contract",
		method:    http.MethodPost,
		path:      "/api/contract/",
		body:      contract,
	})
}

// DeactivateContract soft-deletes a contract.
func (c *Client) DeactivateContract(ctx context.Context, contractID int64) error {
	if contractID <= 0 {
		return apperrors.NewFieldError("id", "a contract is required")
	}
	return c.do(ctx, call{
		operation: "deactivate_contract",
		method:    http.MethodDelete,
		path:      fmt.Sprintf("/api/contract/%d", contractID),
	})
}

// RegisterPayment records a payment.
func (c *Client) RegisterPayment(ctx context.Context, payment NewPayment) error {
	if err := payment.Validate(); err != nil {
		return err
	}
	return c.do(ctx, call{
		operation: "register_payment",
		method:    http.MethodPost,
		path:      "/api/payment",
		body:      payment,
	})
}

// ListLandlordProperties returns the properties a landlord owns.
func (c *Client) ListLandlordProperties(ctx context.Context, landlordID int64) ([]domain.Property, error) {
	var properties []domain.Property
	err := c.do(ctx, call{
		operation: "list_landlord_properties",
		method:    http.MethodGet,
		path:      fmt.Sprintf("/api/landlords/%d/properties", landlordID),
		out:       &properties,
	})
	if err != nil {
		return nil, err
	}
	if properties == nil {
		properties = []domain.Property{}
	}
	return properties, nil
}

// ErrMaintenancesUnavailable marks a deployment without the maintenances endpoint.
var ErrMaintenancesUnavailable = errors.New("maintenances endpoint unavailable")

// ListLandlordMaintenances returns a landlord's maintenance expenses. Not every
// backend exposes the endpoint; a 404 is reported as ErrMaintenancesUnavailable.
func (c *Client) ListLandlordMaintenances(ctx context.Context, landlordID int64) ([]domain.Maintenance, error) {
	var maintenances []domain.Maintenance
	err := c.do(ctx, call{
		operation: "list_landlord_maintenances",
		method:    http.MethodGet,
		path:      fmt.Sprintf("/api/landlords/%d/maintenances", landlordID),
		out:       &maintenances,
	})
	if err != nil {
		var de *apperrors.DomainError
		if errors.As(err, &de) && de.Code == apperrors.CodeBackendRejected && de.Details["backend_status"] == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %v", ErrMaintenancesUnavailable, err)
		}
		return nil, err
	}
	if maintenances == nil {
		maintenances = []domain.Maintenance{}
	}
	return maintenances, nil
}
