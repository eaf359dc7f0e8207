package worker

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/rental-portal/internal/session"
)

// SessionSweeper drops per-session state of sessions that ended without
// anyone asking for them again, such as a token that ran out overnight.
// Sessions lists the ids holding state; Lookup returns session.ErrNoSession
// once a session is gone.
type SessionSweeper struct {
	Sessions func() []string
	Lookup   func(ctx context.Context, id string) error
	Release  func(id string)
	Interval time.Duration
	Logger   *zap.Logger
}

// Sweep checks every tracked session once and returns how many were released.
func (s SessionSweeper) Sweep(ctx context.Context) int {
	released := 0
	for _, id := range s.Sessions() {
		err := s.Lookup(ctx, id)
		switch {
		case err == nil:
		case errors.Is(err, session.ErrNoSession):
			s.Release(id)
			released++
		default:
			s.logger().Warn("session sweep lookup failed", zap.String("session_id", id), zap.Error(err))
		}
	}
	return released
}

// Run sweeps every Interval until ctx is done.
func (s SessionSweeper) Run(ctx context.Context) {
	interval := s.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(ctx); n > 0 {
				s.logger().Debug("released ended sessions", zap.Int("count", n))
			}
		}
	}
}

func (s SessionSweeper) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}
