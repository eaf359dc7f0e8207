// Package session owns the signed-in state: the backend access token and the
// user profile that goes with it. Both are written and cleared together.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spec-kit/rental-portal/internal/domain"
)

// ErrNoSession is returned when a session is absent or its token has expired.
var ErrNoSession = errors.New("no active session")

// ErrSessionExpired is returned by a store that dropped a session because its
// token ran out. It matches ErrNoSession.
var ErrSessionExpired = fmt.Errorf("%w: token expired", ErrNoSession)

// Session pairs a backend access token with the profile it was issued for.
type Session struct {
	ID        string      `json:"id"`
	Token     string      `json:"token"`
	User      domain.User `json:"user"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// Expired reports whether the token is past its expiry at now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

func (s Session) validate() error {
	switch {
	case s.ID == "":
		return errors.New("session id required")
	case s.Token == "":
		return errors.New("session token required")
	case s.ExpiresAt.IsZero():
		return errors.New("session expiry required")
	}
	return nil
}

// Store persists sessions. Save and Clear must apply token and profile atomically.
type Store interface {
	Load(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s Session) error
	Clear(ctx context.Context, id string) error
}
