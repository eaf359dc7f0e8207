// Package tickets drives maintenance tickets through their forward-only
// lifecycle. The local ticket list is never patched: after every accepted
// transition it is reloaded from the backend.
package tickets

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/rental-portal/internal/backend"
	"github.com/spec-kit/rental-portal/internal/domain"
	"github.com/spec-kit/rental-portal/internal/events"
	apperrors "github.com/spec-kit/rental-portal/pkg/util/errorutil"
)

// Backend is the slice of the REST client the controller calls.
type Backend interface {
	ListTickets(ctx context.Context, propertyID, landlordID int64) ([]domain.Ticket, error)
	UpdateTicketStatus(ctx context.Context, ticketID int64, update backend.StatusUpdate) error
	CreateTicket(ctx context.Context, ticket backend.NewTicket) error
}

// IdentityProvider resolves the signed-in user acting on tickets.
type IdentityProvider interface {
	CurrentUser(ctx context.Context) (*domain.User, error)
}

// Dependencies groups what a Controller needs. Prompt and Dispatcher are optional.
type Dependencies struct {
	Backend    Backend
	Identity   IdentityProvider
	Prompt     CostPrompt
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

type scope struct {
	propertyID int64
	landlordID int64
}

// Controller holds the ticket list of one property/landlord scope and the
// per-ticket in-flight markers. It is safe for concurrent use.
type Controller struct {
	backend    Backend
	identity   IdentityProvider
	prompt     CostPrompt
	dispatcher events.Dispatcher
	logger     *zap.Logger

	mu       sync.Mutex
	inFlight map[int64]struct{}
	snapshot []domain.Ticket
	scope    *scope
	loads    uint64
	applied  uint64
	closed   bool
}

// NewController builds a controller from its dependencies.
func NewController(deps Dependencies) *Controller {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		backend:    deps.Backend,
		identity:   deps.Identity,
		prompt:     deps.Prompt,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		inFlight:   make(map[int64]struct{}),
	}
}

// ListTickets fetches the tickets of a property, sorted by id, and makes
// them the current snapshot.
func (c *Controller) ListTickets(ctx context.Context, propertyID, landlordID int64) ([]domain.Ticket, error) {
	c.mu.Lock()
	c.loads++
	seq := c.loads
	c.mu.Unlock()

	tickets, err := c.backend.ListTickets(ctx, propertyID, landlordID)
	if err != nil {
		return nil, apperrors.NewFetchError("tickets", err)
	}
	sorted := make([]domain.Ticket, len(tickets))
	copy(sorted, tickets)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	for _, t := range sorted {
		if err := t.Validate(); err != nil {
			c.logger.Warn("backend returned inconsistent ticket", zap.Int64("ticket_id", t.ID), zap.Error(err))
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return sorted, nil
	}
	// an older fetch finishing late must not overwrite a newer one
	if seq > c.applied {
		c.applied = seq
		c.snapshot = sorted
		c.scope = &scope{propertyID: propertyID, landlordID: landlordID}
	}
	return cloneTickets(sorted), nil
}

// AdvanceStatus moves ticket to target, which must be its immediate successor.
// Finishing requires a cost: when cost is unset the CostPrompt is asked for one.
// On success the loaded scope is reloaded from the backend. When only the
// reload fails, the change is applied to the current list and nil is returned.
func (c *Controller) AdvanceStatus(ctx context.Context, ticket domain.Ticket, target domain.TicketStatus, cost domain.Cost) error {
	if !ticket.Status.CanAdvanceTo(target) {
		return apperrors.NewTransitionError(transitionRefusal(ticket, target), nil)
	}
	if !c.acquire(ticket.ID) {
		return apperrors.NewInFlight(fmt.Sprintf("ticket %d", ticket.ID))
	}
	defer c.release(ticket.ID)

	var totalValue *float64
	switch target {
	case domain.TicketStatusFinished:
		resolved, err := c.resolveCost(ctx, ticket, cost)
		if err != nil {
			return err
		}
		amount, _ := resolved.Amount()
		totalValue = &amount
	case domain.TicketStatusInProgress:
		if cost.IsSet() {
			return apperrors.NewFieldError(CostField, "a cost is only accepted when finishing a ticket")
		}
	case domain.TicketStatusPending:
		return apperrors.NewTransitionError(transitionRefusal(ticket, target), nil)
	default:
		return apperrors.NewTransitionError(transitionRefusal(ticket, target), domain.ErrUnknownTicketStatus)
	}

	actor, err := c.actingUser(ctx)
	if err != nil {
		return err
	}

	err = c.backend.UpdateTicketStatus(ctx, ticket.ID, backend.StatusUpdate{
		Status:     target,
		TotalValue: totalValue,
		Email:      actor.Email,
	})
	if err != nil {
		c.logger.Info("ticket transition rejected",
			zap.Int64("ticket_id", ticket.ID),
			zap.Stringer("target", target),
			zap.Error(err),
		)
		return apperrors.NewTransitionError(apperrors.UserMessage(err, "could not update the ticket status"), err)
	}

	events.Publish(ctx, c.dispatcher, events.Event{
		Type:  events.EventTicketStatusChanged,
		Actor: events.Actor{UserID: actor.ID, Email: actor.Email, Type: actor.Type.Normalize()},
		Payload: events.TicketStatusChangedPayload{
			TicketID:  ticket.ID,
			OldStatus: ticket.Status,
			NewStatus: target,
			TotalCost: totalValue,
		},
	})

	if err := c.reload(ctx); err != nil {
		if apperrors.IsAuth(err) {
			return err
		}
		// the backend took the change; keep the list consistent with it
		c.logger.Warn("ticket updated but the list could not be reloaded",
			zap.Int64("ticket_id", ticket.ID),
			zap.Stringer("status", target),
			zap.Error(err),
		)
		c.applyLocally(ticket.ID, target, totalValue)
	}
	return nil
}

func (c *Controller) applyLocally(ticketID int64, status domain.TicketStatus, totalValue *float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	for i := range c.snapshot {
		if c.snapshot[i].ID != ticketID {
			continue
		}
		c.snapshot[i].Status = status
		if totalValue != nil {
			c.snapshot[i].TotalCost = domain.SetCost(*totalValue)
		}
	}
}

func (c *Controller) resolveCost(ctx context.Context, ticket domain.Ticket, cost domain.Cost) (domain.Cost, error) {
	if cost.IsSet() {
		return checkCost(cost)
	}
	if c.prompt == nil {
		return cost, costRequired()
	}
	raw, err := c.prompt.RequestCost(ctx, ticket)
	if err != nil {
		if errors.Is(err, ErrPromptCancelled) || errors.Is(err, context.Canceled) {
			return cost, ErrPromptCancelled
		}
		return cost, fmt.Errorf("request cost: %w", err)
	}
	return ParseCost(raw)
}

func (c *Controller) actingUser(ctx context.Context) (*domain.User, error) {
	if c.identity == nil {
		return nil, apperrors.NewUnauthorized("no signed-in user to act on the ticket")
	}
	user, err := c.identity.CurrentUser(ctx)
	if err != nil {
		if apperrors.IsAuth(err) {
			return nil, err
		}
		return nil, apperrors.NewUnauthorized("no signed-in user to act on the ticket")
	}
	if user == nil || strings.TrimSpace(user.Email) == "" {
		return nil, apperrors.NewUnauthorized("no signed-in user to act on the ticket")
	}
	return user, nil
}

func (c *Controller) reload(ctx context.Context) error {
	c.mu.Lock()
	current := c.scope
	c.mu.Unlock()
	if current == nil {
		return nil
	}
	_, err := c.ListTickets(ctx, current.propertyID, current.landlordID)
	return err
}

// CreateTicket opens a ticket on behalf of the signed-in tenant.
func (c *Controller) CreateTicket(ctx context.Context, propertyID int64, description string, urgent bool) error {
	actor, err := c.actingUser(ctx)
	if err != nil {
		return err
	}
	err = c.backend.CreateTicket(ctx, backend.NewTicket{
		PropertyID:  propertyID,
		Description: description,
		Urgent:      urgent,
		TenantEmail: actor.Email,
	})
	if err != nil {
		return err
	}
	events.Publish(ctx, c.dispatcher, events.Event{
		Type:    events.EventTicketCreated,
		Actor:   events.Actor{UserID: actor.ID, Email: actor.Email, Type: actor.Type.Normalize()},
		Payload: events.TicketCreatedPayload{PropertyID: propertyID, Urgent: urgent},
	})
	return nil
}

// Lookup returns a ticket of the given scope, loading the scope when the
// snapshot belongs to another one.
func (c *Controller) Lookup(ctx context.Context, propertyID, landlordID, ticketID int64) (domain.Ticket, error) {
	c.mu.Lock()
	loaded := c.scope != nil && c.scope.propertyID == propertyID && c.scope.landlordID == landlordID
	tickets := c.snapshot
	c.mu.Unlock()

	if !loaded {
		fresh, err := c.ListTickets(ctx, propertyID, landlordID)
		if err != nil {
			return domain.Ticket{}, err
		}
		tickets = fresh
	}
	for _, t := range tickets {
		if t.ID == ticketID {
			return t, nil
		}
	}
	return domain.Ticket{}, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
}

// InFlight reports whether a transition for ticketID is pending.
func (c *Controller) InFlight(ticketID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.inFlight[ticketID]
	return ok
}

// Tickets returns a copy of the current snapshot.
func (c *Controller) Tickets() []domain.Ticket {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneTickets(c.snapshot)
}

// Close detaches the controller from its view. Results of calls still in
// flight are dropped instead of being applied.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.scope = nil
	c.snapshot = nil
}

func (c *Controller) acquire(ticketID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, busy := c.inFlight[ticketID]; busy {
		return false
	}
	c.inFlight[ticketID] = struct{}{}
	return true
}

func (c *Controller) release(ticketID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inFlight, ticketID)
}

func transitionRefusal(ticket domain.Ticket, target domain.TicketStatus) string {
	if ticket.Status.IsTerminal() {
		return fmt.Sprintf("ticket %d is already finished", ticket.ID)
	}
	return fmt.Sprintf("ticket %d cannot move from %s to %s", ticket.ID, ticket.Status, target)
}

func cloneTickets(in []domain.Ticket) []domain.Ticket {
	if in == nil {
		return []domain.Ticket{}
	}
	out := make([]domain.Ticket, len(in))
	copy(out, in)
	return out
}
