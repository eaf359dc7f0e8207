package session

import (
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// TokenExpiry reads the exp claim of a backend access token without verifying
// its signature; the backend stays the only party that validates tokens.
func TokenExpiry(token string) (time.Time, bool) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// expiryFor bounds the session by both the configured ttl and the token's own exp.
func expiryFor(token string, now time.Time, ttl time.Duration) time.Time {
	expires := now.Add(ttl)
	if exp, ok := TokenExpiry(token); ok && exp.Before(expires) {
		return exp
	}
	return expires
}
