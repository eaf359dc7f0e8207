package persistence

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/rental-portal/internal/config"
	"github.com/spec-kit/rental-portal/internal/session"
)

// SessionBackend is the session store selected by configuration together
// with its health check and release hook.
type SessionBackend struct {
	Store session.Store
	Kind  string
	redis *Redis
}

// NewSessionBackend builds the store named by cfg.Session.Store.
func NewSessionBackend(cfg *config.Config, logger *zap.Logger) (*SessionBackend, error) {
	switch cfg.Session.Store {
	case config.StoreRedis:
		r := NewRedis(cfg.Redis, logger)
		return &SessionBackend{
			Store: r.Sessions(),
			Kind:  config.StoreRedis,
			redis: r,
		}, nil
	case config.StoreFile:
		return &SessionBackend{Store: session.NewFileStore(cfg.Session.FilePath), Kind: config.StoreFile}, nil
	case config.StoreMemory:
		return &SessionBackend{Store: session.NewMemoryStore(), Kind: config.StoreMemory}, nil
	default:
		return nil, fmt.Errorf("unsupported session store %q", cfg.Session.Store)
	}
}

// Ping reports whether the store's dependency is reachable. Local stores always are.
func (b *SessionBackend) Ping(ctx context.Context) error {
	if b.redis == nil {
		return nil
	}
	return b.redis.Ping(ctx)
}

// Close releases the underlying connection, if any.
func (b *SessionBackend) Close() {
	b.redis.Close()
}
