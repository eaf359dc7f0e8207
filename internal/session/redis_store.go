package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/rental-portal/internal/domain"
)

// RedisStore mirrors the browser layout: a short-lived token key and a
// durable profile key. Both are written and deleted in one MULTI/EXEC.
type RedisStore struct {
	client redis.Cmdable
	prefix string
	now    func() time.Time
}

type profileRecord struct {
	User      domain.User `json:"user"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// NewRedisStore builds a store using keys under prefix.
func NewRedisStore(client redis.Cmdable, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "portal"
	}
	return &RedisStore{client: client, prefix: prefix, now: time.Now}
}

func (s *RedisStore) tokenKey(id string) string {
	return fmt.Sprintf("%s:session:%s:token", s.prefix, id)
}

func (s *RedisStore) profileKey(id string) string {
	return fmt.Sprintf("%s:session:%s:profile", s.prefix, id)
}

func (s *RedisStore) Load(ctx context.Context, id string) (*Session, error) {
	values, err := s.client.MGet(ctx, s.tokenKey(id), s.profileKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	token, hasToken := values[0].(string)
	profileRaw, hasProfile := values[1].(string)

	switch {
	case !hasToken && !hasProfile:
		return nil, ErrNoSession
	case !hasToken || !hasProfile:
		// token expired while the profile lingered, or a torn write: tear both down
		if err := s.Clear(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrSessionExpired
	}

	var record profileRecord
	if err := json.Unmarshal([]byte(profileRaw), &record); err != nil {
		return nil, fmt.Errorf("decode session profile: %w", err)
	}
	return &Session{ID: id, Token: token, User: record.User, ExpiresAt: record.ExpiresAt}, nil
}

func (s *RedisStore) Save(ctx context.Context, sess Session) error {
	if err := sess.validate(); err != nil {
		return err
	}
	ttl := sess.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return errors.New("session already expired")
	}
	profile, err := json.Marshal(profileRecord{User: sess.User, ExpiresAt: sess.ExpiresAt})
	if err != nil {
		return fmt.Errorf("encode session profile: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.tokenKey(sess.ID), sess.Token, ttl)
		pipe.Set(ctx, s.profileKey(sess.ID), profile, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, id string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.tokenKey(id), s.profileKey(id))
		return nil
	})
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
