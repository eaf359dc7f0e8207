package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/rental-portal/internal/domain"
	"github.com/spec-kit/rental-portal/internal/session"
	apperrors "github.com/spec-kit/rental-portal/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// Principal represents the signed-in caller of a portal request.
type Principal struct {
	SessionID string
	User      domain.User
	Session   *session.Handle
}

// SessionMiddleware resolves the session cookie into a Principal.
type SessionMiddleware struct {
	sessions   *session.Manager
	cookieName string
}

// NewSessionMiddleware constructs middleware.
func NewSessionMiddleware(sessions *session.Manager, cookieName string) *SessionMiddleware {
	return &SessionMiddleware{sessions: sessions, cookieName: cookieName}
}

// CookieName returns the name of the session cookie.
func (m *SessionMiddleware) CookieName() string {
	return m.cookieName
}

// Handle enforces a live session for protected routes.
func (m *SessionMiddleware) Handle(c *fiber.Ctx) error {
	// fiber reuses the cookie buffer after the handler returns
	id := strings.Clone(c.Cookies(m.cookieName))
	if id == "" {
		return apperrors.NewUnauthorized("not signed in")
	}

	sess, err := m.sessions.Get(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, session.ErrNoSession) {
			return apperrors.NewUnauthorized("your session has ended, please sign in again")
		}
		return apperrors.NewInternalError(err)
	}

	c.Locals(principalKey, &Principal{
		SessionID: sess.ID,
		User:      sess.User,
		Session:   m.sessions.Handle(sess.ID),
	})
	return c.Next()
}

// PrincipalFromContext retrieves the signed-in caller.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}

// MustPrincipal returns the caller or an auth error for handlers behind Handle.
func MustPrincipal(c *fiber.Ctx) (*Principal, error) {
	principal, ok := PrincipalFromContext(c)
	if !ok || principal == nil {
		return nil, apperrors.NewUnauthorized("not signed in")
	}
	return principal, nil
}
