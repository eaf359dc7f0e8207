package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/rental-portal/internal/domain"
	apperrors "github.com/spec-kit/rental-portal/pkg/util/errorutil"
)

// RequireRole ensures the signed-in user has one of the allowed account types.
func RequireRole(allowed ...domain.UserType) fiber.Handler {
	allowedSet := make(map[domain.UserType]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role.Normalize()] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("not signed in")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[principal.User.Type.Normalize()]; !exists {
			return apperrors.NewForbidden("this action is not available for your account type")
		}
		return c.Next()
	}
}

// RequireLandlord is RequireRole(domain.UserTypeLandlord).
func RequireLandlord() fiber.Handler { return RequireRole(domain.UserTypeLandlord) }

// RequireTenant is RequireRole(domain.UserTypeTenant).
func RequireTenant() fiber.Handler { return RequireRole(domain.UserTypeTenant) }
