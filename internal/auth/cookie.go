package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// SetSessionCookie hands the client the opaque session id. The backend token stays server side.
func SetSessionCookie(c *fiber.Ctx, name, sessionID string, expires time.Time, secure bool) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    sessionID,
		Path:     "/",
		Expires:  expires,
		HTTPOnly: true,
		Secure:   secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session cookie on the client.
func ClearSessionCookie(c *fiber.Ctx, name string) {
	if name == "" {
		return
	}
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
