package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/rental-portal/internal/config"
	"github.com/spec-kit/rental-portal/internal/session"
)

const (
	defaultKeyPrefix = "portal"
	connectTimeout   = 3 * time.Second
)

// Redis is the shared session database: one logical DB and one key
// namespace per portal deployment.
type Redis struct {
	client *redis.Client
	addr   string
	db     int
	prefix string
}

// NewRedis opens a client on cfg.DB. An unreachable server is logged and
// left to fail per request.
func NewRedis(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	r := &Redis{
		client: redis.NewClient(&redis.Options{
			Addr:        cfg.Addr,
			Password:    cfg.Password,
			DB:          cfg.DB,
			DialTimeout: connectTimeout,
		}),
		addr:   cfg.Addr,
		db:     cfg.DB,
		prefix: prefix,
	}

	fields := []zap.Field{zap.String("addr", r.addr), zap.Int("db", r.db), zap.String("prefix", r.prefix)}
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := r.Ping(ctx); err != nil {
		logger.Warn("unable to reach session redis", append(fields, zap.Error(err))...)
	} else {
		logger.Info("session redis ready", fields...)
	}
	return r
}

// Prefix is the namespace every session key lives under.
func (r *Redis) Prefix() string {
	return r.prefix
}

// Sessions returns a session store scoped to this database and prefix.
func (r *Redis) Sessions() *session.RedisStore {
	return session.NewRedisStore(r.client, r.prefix)
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.client != nil {
		_ = r.client.Close()
	}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.client == nil {
		return errors.New("redis client not configured")
	}
	return r.client.Ping(ctx).Err()
}
