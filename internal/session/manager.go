package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/rental-portal/internal/domain"
	"github.com/spec-kit/rental-portal/internal/events"
	apperrors "github.com/spec-kit/rental-portal/pkg/util/errorutil"
)

// Manager is the only writer of sessions. Readers either call Get or
// subscribe to the session events it publishes.
type Manager struct {
	store      Store
	dispatcher events.Dispatcher
	ttl        time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

// NewManager wires a manager. ttl caps how long a token is kept, whatever its own exp says.
func NewManager(store Store, dispatcher events.Dispatcher, ttl time.Duration, logger *zap.Logger) *Manager {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{store: store, dispatcher: dispatcher, ttl: ttl, logger: logger, now: time.Now}
}

// SignIn stores token and profile together. An empty id gets a fresh one.
func (m *Manager) SignIn(ctx context.Context, id string, user domain.User, token string) (*Session, error) {
	if strings.TrimSpace(token) == "" {
		return nil, apperrors.NewUnauthorized("sign in returned no access token")
	}
	if id == "" {
		id = uuid.NewString()
	}
	now := m.now()
	sess := Session{
		ID:        id,
		Token:     token,
		User:      user,
		ExpiresAt: expiryFor(token, now, m.ttl),
	}
	if sess.Expired(now) {
		return nil, apperrors.NewUnauthorized("access token already expired")
	}
	if err := m.store.Save(ctx, sess); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	events.Publish(ctx, m.dispatcher, events.Event{
		Type:      events.EventSessionSignedIn,
		SessionID: id,
		Actor:     actorOf(user),
	})
	return &sess, nil
}

// SignOut clears token and profile together and tells subscribers why.
func (m *Manager) SignOut(ctx context.Context, id string, reason events.SignedOutReason) error {
	if id == "" {
		return nil
	}
	var actor events.Actor
	if sess, err := m.store.Load(ctx, id); err == nil {
		actor = actorOf(sess.User)
	}
	if err := m.store.Clear(ctx, id); err != nil {
		return apperrors.NewInternalError(err)
	}
	events.Publish(ctx, m.dispatcher, events.Event{
		Type:      events.EventSessionSignedOut,
		SessionID: id,
		Actor:     actor,
		Payload:   events.SessionSignedOutPayload{Reason: reason},
	})
	return nil
}

// Get loads a live session. ErrNoSession means signed out or expired.
// Finding an expired session signs it out, so subscribers see it end.
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, ErrNoSession
	}
	sess, err := m.store.Load(ctx, id)
	if errors.Is(err, ErrSessionExpired) {
		return nil, m.expire(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	if sess.Expired(m.now()) {
		return nil, m.expire(ctx, id)
	}
	return sess, nil
}

func (m *Manager) expire(ctx context.Context, id string) error {
	if err := m.SignOut(ctx, id, events.ReasonExpired); err != nil {
		return err
	}
	return ErrNoSession
}

// OnChange subscribes handler to sign-in and sign-out events.
func (m *Manager) OnChange(handler events.EventHandler) {
	if m.dispatcher == nil {
		return
	}
	m.dispatcher.Subscribe(events.EventSessionSignedIn, handler)
	m.dispatcher.Subscribe(events.EventSessionSignedOut, handler)
}

// Handle binds the manager to one session id.
func (m *Manager) Handle(id string) *Handle {
	return &Handle{manager: m, id: id}
}

func actorOf(user domain.User) events.Actor {
	return events.Actor{UserID: user.ID, Email: user.Email, Type: user.Type.Normalize()}
}

// Handle is one caller's view of its session. It supplies the bearer token to
// the backend client, the acting identity to controllers, and tears the
// session down when the backend rejects the token.
type Handle struct {
	manager *Manager
	id      string
}

// ID returns the bound session id.
func (h *Handle) ID() string { return h.id }

// Session loads the bound session, mapping absence to an auth error.
func (h *Handle) Session(ctx context.Context) (*Session, error) {
	sess, err := h.manager.Get(ctx, h.id)
	if errors.Is(err, ErrNoSession) {
		return nil, apperrors.NewUnauthorized("not signed in")
	}
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return sess, nil
}

// Token returns the bearer token for backend calls.
func (h *Handle) Token(ctx context.Context) (string, error) {
	sess, err := h.Session(ctx)
	if err != nil {
		return "", err
	}
	return sess.Token, nil
}

// CurrentUser returns the signed-in profile.
func (h *Handle) CurrentUser(ctx context.Context) (*domain.User, error) {
	sess, err := h.Session(ctx)
	if err != nil {
		return nil, err
	}
	user := sess.User
	return &user, nil
}

// Terminate ends the session after the backend rejected its token.
func (h *Handle) Terminate(ctx context.Context) {
	if err := h.manager.SignOut(ctx, h.id, events.ReasonAuthRejected); err != nil {
		h.manager.logger.Error("session teardown failed", zap.String("session_id", h.id), zap.Error(err))
	}
}
