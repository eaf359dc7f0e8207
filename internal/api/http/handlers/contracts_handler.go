package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/rental-portal/internal/api/dto"
	"github.com/spec-kit/rental-portal/internal/auth"
	"github.com/spec-kit/rental-portal/internal/backend"
	"github.com/spec-kit/rental-portal/internal/domain"
	"github.com/spec-kit/rental-portal/internal/events"
	"github.com/spec-kit/rental-portal/internal/reports"
	apperrors "github.com/spec-kit/rental-portal/pkg/util/errorutil"
)

// ContractsHandler lists contracts with their due-date status and manages
// contracts and payments for landlords.
type ContractsHandler struct {
	client     *backend.Client
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// NewContractsHandler constructs handler. now may be nil.
func NewContractsHandler(client *backend.Client, dispatcher events.Dispatcher, logger *zap.Logger, now func() time.Time) *ContractsHandler {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContractsHandler{client: client, dispatcher: dispatcher, logger: logger, now: now}
}

// ListContracts GET /contracts. Landlords see the contracts they issued,
// tenants the ones they hold; most urgent first.
func (h *ContractsHandler) ListContracts(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	client := h.client.WithSession(principal.Session)

	var contracts []domain.Contract
	if principal.User.IsLandlord() {
		contracts, err = client.ListLandlordContracts(c.UserContext(), principal.User.ID)
	} else {
		contracts, err = client.ListTenantContracts(c.UserContext(), principal.User.ID)
	}
	if err != nil {
		return apperrors.NewFetchError("contracts", err)
	}

	rows := reports.BuildRows(contracts, h.now(), h.logger)
	items := make([]dto.ContractResponse, 0, len(rows))
	for _, row := range rows {
		items = append(items, dto.NewContractResponse(row.Classified, row.RecentPayments))
	}
	return c.JSON(fiber.Map{"data": items})
}

// CreateContract POST /contracts.
func (h *ContractsHandler) CreateContract(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CreateContractRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	err = h.client.WithSession(principal.Session).CreateContract(c.UserContext(), backend.NewContract{
		PropertyID:   req.PropertyID,
		TenantEmail:  req.TenantEmail,
		MonthlyValue: req.MonthlyValue,
		Deposit:      req.Deposit,
		Duration:     req.Duration,
		PaymentDay:   req.PaymentDay,
	})
	if err != nil {
		return err
	}
	h.publish(c.UserContext(), principal, events.EventContractCreated, events.ContractPayload{PropertyID: req.PropertyID})
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": fiber.Map{"created": true}})
}

// DeactivateContract DELETE /contracts/:id.
func (h *ContractsHandler) DeactivateContract(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	contractID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.client.WithSession(principal.Session).DeactivateContract(c.UserContext(), contractID); err != nil {
		return err
	}
	h.publish(c.UserContext(), principal, events.EventContractDeactivated, events.ContractPayload{ContractID: contractID})
	return c.SendStatus(http.StatusNoContent)
}

// RegisterPayment POST /contracts/:id/payments.
func (h *ContractsHandler) RegisterPayment(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	contractID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req dto.RegisterPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	payment := backend.NewPayment{ContractID: contractID, Value: req.Value, Tax: req.Tax}
	if err := h.client.WithSession(principal.Session).RegisterPayment(c.UserContext(), payment); err != nil {
		return err
	}
	h.publish(c.UserContext(), principal, events.EventPaymentRegistered, events.PaymentRegisteredPayload{
		ContractID: contractID,
		Value:      req.Value,
		Tax:        req.Tax,
	})
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": fiber.Map{"created": true}})
}

func (h *ContractsHandler) publish(ctx context.Context, p *auth.Principal, eventType events.EventType, payload any) {
	events.Publish(ctx, h.dispatcher, events.Event{
		Type:      eventType,
		SessionID: p.SessionID,
		Actor:     events.Actor{UserID: p.User.ID, Email: p.User.Email, Type: p.User.Type.Normalize()},
		Payload:   payload,
	})
}
