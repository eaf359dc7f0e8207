package cli

import (
	"bufio"
	"context"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/rental-portal/internal/backend"
	"github.com/spec-kit/rental-portal/internal/config"
	"github.com/spec-kit/rental-portal/internal/domain"
	"github.com/spec-kit/rental-portal/internal/events"
	"github.com/spec-kit/rental-portal/internal/observability"
	"github.com/spec-kit/rental-portal/internal/persistence"
	"github.com/spec-kit/rental-portal/internal/session"
	"github.com/spec-kit/rental-portal/internal/tickets"
	apperrors "github.com/spec-kit/rental-portal/pkg/util/errorutil"
)

// SessionID is the fixed id the command line signs in under.
const SessionID = "cli"

// Env is everything a command needs. One Env serves one process.
type Env struct {
	Logger     *zap.Logger
	Sessions   *session.Manager
	Handle     *session.Handle
	Client     *backend.Client
	Dispatcher events.Dispatcher
	In         io.Reader
	Out        io.Writer
	Now        func() time.Time

	lines *bufio.Reader
	close func()
}

// NewEnv opens the session store and binds a backend client to the CLI session.
// Sessions always live in the session file so they survive between runs.
func NewEnv(cfg *config.Config, logger *zap.Logger, in io.Reader, out io.Writer) (*Env, error) {
	storeCfg := *cfg
	storeCfg.Session.Store = config.StoreFile
	sessionBackend, err := persistence.NewSessionBackend(&storeCfg, logger)
	if err != nil {
		return nil, err
	}

	dispatcher := events.NewInMemoryDispatcher(func(e events.Event, err error) {
		logger.Warn("event handler failed", zap.String("event", string(e.Type)), zap.Error(err))
	})
	sessions := session.NewManager(sessionBackend.Store, dispatcher, cfg.Session.TokenTTL, logger)
	handle := sessions.Handle(SessionID)
	client := backend.New(cfg.Backend.BaseURL, cfg.Backend.Timeout(), observability.NewMetrics(), logger).WithSession(handle)

	return &Env{
		Logger:     logger,
		Sessions:   sessions,
		Handle:     handle,
		Client:     client,
		Dispatcher: dispatcher,
		In:         in,
		Out:        out,
		Now:        time.Now,
		close:      sessionBackend.Close,
	}, nil
}

// Close releases the session store.
func (e *Env) Close() {
	if e.close != nil {
		e.close()
	}
}

// CurrentUser returns the signed-in user, restricted to allowed types when any are given.
func (e *Env) CurrentUser(ctx context.Context, allowed ...domain.UserType) (*domain.User, error) {
	user, err := e.Handle.CurrentUser(ctx)
	if err != nil {
		if apperrors.IsAuth(err) {
			return nil, apperrors.NewUnauthorized("not signed in, run portalctl login")
		}
		return nil, err
	}
	if len(allowed) == 0 {
		return user, nil
	}
	for _, t := range allowed {
		if user.Type.Normalize() == t {
			return user, nil
		}
	}
	return nil, apperrors.NewForbidden("this command is only available to " + string(allowed[0]) + " accounts")
}

// Lines returns the shared line reader over In.
func (e *Env) Lines() *bufio.Reader {
	if e.lines == nil {
		e.lines = bufio.NewReader(e.In)
	}
	return e.lines
}

// TicketController builds a controller for this invocation. prompt may be nil.
func (e *Env) TicketController(prompt tickets.CostPrompt) *tickets.Controller {
	return tickets.NewController(tickets.Dependencies{
		Backend:    e.Client,
		Identity:   e.Handle,
		Prompt:     prompt,
		Dispatcher: e.Dispatcher,
		Logger:     e.Logger.Named("tickets"),
	})
}
