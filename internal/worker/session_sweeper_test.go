package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/rental-portal/internal/domain"
	"github.com/spec-kit/rental-portal/internal/events"
	"github.com/spec-kit/rental-portal/internal/session"
	"github.com/spec-kit/rental-portal/internal/tickets"
)

func expiringPortal(t *testing.T, ttl time.Duration) (*session.Manager, *tickets.Registry) {
	t.Helper()
	dispatcher := events.NewInMemoryDispatcher(nil)
	manager := session.NewManager(session.NewMemoryStore(), dispatcher, ttl, zap.NewNop())
	registry := tickets.NewRegistry(func(id string) *tickets.Controller {
		h := manager.Handle(id)
		return tickets.NewController(tickets.Dependencies{Identity: h, Dispatcher: dispatcher})
	})
	StartSessionCleanup(dispatcher, registry.ReleaseOnSignOut)
	return manager, registry
}

func TestExpiredSessionReleasesControllerOnNextLookup(t *testing.T) {
	manager, registry := expiringPortal(t, 50*time.Millisecond)
	ctx := context.Background()

	sess, err := manager.SignIn(ctx, "", domain.User{ID: 9, Email: "ana@example.com", Type: domain.UserTypeLandlord}, "opaque")
	require.NoError(t, err)
	registry.For(sess.ID)
	require.Equal(t, 1, registry.Len())

	time.Sleep(100 * time.Millisecond)

	_, err = manager.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, session.ErrNoSession)
	assert.Zero(t, registry.Len())
}

func TestSweeperReleasesSessionsNobodyAsksFor(t *testing.T) {
	manager, registry := expiringPortal(t, 50*time.Millisecond)
	ctx := context.Background()

	short, err := manager.SignIn(ctx, "short", domain.User{ID: 1, Email: "a@example.com"}, "opaque")
	require.NoError(t, err)
	registry.For(short.ID)
	registry.For("vanished")

	sweeper := SessionSweeper{
		Sessions: registry.Sessions,
		Lookup: func(ctx context.Context, id string) error {
			_, err := manager.Get(ctx, id)
			return err
		},
		Release: registry.Release,
	}
	assert.Equal(t, 1, sweeper.Sweep(ctx), "only the unknown session is gone so far")
	assert.Equal(t, []string{"short"}, registry.Sessions())

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, sweeper.Sweep(ctx))
	assert.Zero(t, registry.Len())
}

func TestSweeperKeepsSessionsOnLookupFailure(t *testing.T) {
	var released []string
	sweeper := SessionSweeper{
		Sessions: func() []string { return []string{"s1"} },
		Lookup:   func(context.Context, string) error { return errors.New("redis down") },
		Release:  func(id string) { released = append(released, id) },
	}
	assert.Zero(t, sweeper.Sweep(context.Background()))
	assert.Empty(t, released)
}

func TestSweeperRunStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		SessionSweeper{
			Sessions: func() []string { return nil },
			Interval: time.Millisecond,
		}.Run(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
