package tickets

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/spec-kit/rental-portal/internal/domain"
	apperrors "github.com/spec-kit/rental-portal/pkg/util/errorutil"
)

// CostField is the form field that carries the finishing cost.
const CostField = "total_value"

// ReasonCostRequired marks a finish attempt that still needs a cost.
const ReasonCostRequired = "COST_REQUIRED"

// ErrPromptCancelled is returned by a CostPrompt when the user backs out.
var ErrPromptCancelled = errors.New("cost entry cancelled")

// CostPrompt asks the acting landlord for the total cost of a ticket being
// finished. It blocks until the user answers or cancels.
type CostPrompt interface {
	RequestCost(ctx context.Context, ticket domain.Ticket) (string, error)
}

// CostPromptFunc adapts a function to CostPrompt.
type CostPromptFunc func(ctx context.Context, ticket domain.Ticket) (string, error)

func (f CostPromptFunc) RequestCost(ctx context.Context, ticket domain.Ticket) (string, error) {
	return f(ctx, ticket)
}

// ParseCost reads a user-entered amount. A comma is accepted as the decimal
// separator. The amount must be a finite number greater than zero.
func ParseCost(raw string) (domain.Cost, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return domain.UnsetCost(), costRequired()
	}
	amount, err := strconv.ParseFloat(strings.Replace(value, ",", ".", 1), 64)
	if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return domain.UnsetCost(), apperrors.NewFieldError(CostField, "total cost must be a number")
	}
	return checkCost(domain.SetCost(amount))
}

func checkCost(cost domain.Cost) (domain.Cost, error) {
	amount, ok := cost.Amount()
	if !ok {
		return cost, costRequired()
	}
	if amount <= 0 {
		return domain.UnsetCost(), apperrors.NewFieldError(CostField, "total cost must be greater than zero")
	}
	return cost, nil
}

func costRequired() error {
	return apperrors.NewValidationError("total cost is required to finish a ticket", map[string]any{
		"field":  CostField,
		"reason": ReasonCostRequired,
	})
}

// IsCostRequired reports whether err asks for a cost before finishing.
func IsCostRequired(err error) bool {
	de := apperrors.ToDomainError(err)
	return de != nil && de.Code == apperrors.CodeValidation && de.Details["reason"] == ReasonCostRequired
}
