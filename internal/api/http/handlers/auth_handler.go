package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/rental-portal/internal/api/dto"
	"github.com/spec-kit/rental-portal/internal/auth"
	"github.com/spec-kit/rental-portal/internal/backend"
	"github.com/spec-kit/rental-portal/internal/domain"
	"github.com/spec-kit/rental-portal/internal/events"
	"github.com/spec-kit/rental-portal/internal/session"
	apperrors "github.com/spec-kit/rental-portal/pkg/util/errorutil"
)

// AuthHandler signs users in and out of the portal.
type AuthHandler struct {
	client       *backend.Client
	sessions     *session.Manager
	cookieName   string
	cookieSecure bool
	logger       *zap.Logger
}

// NewAuthHandler constructs handler.
func NewAuthHandler(client *backend.Client, sessions *session.Manager, cookieName string, cookieSecure bool, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{client: client, sessions: sessions, cookieName: cookieName, cookieSecure: cookieSecure, logger: logger}
}

// SignIn handles POST /auth/sign-in.
func (h *AuthHandler) SignIn(c *fiber.Ctx) error {
	var req dto.SignInRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	result, err := h.client.SignIn(c.UserContext(), backend.Credentials{Email: req.Email, Password: req.Password})
	if err != nil {
		return err
	}

	// a previous session on this browser is replaced, not reused
	if old := strings.Clone(c.Cookies(h.cookieName)); old != "" {
		if err := h.sessions.SignOut(c.UserContext(), old, events.ReasonLogout); err != nil {
			h.logger.Warn("could not end previous session", zap.Error(err))
		}
	}

	sess, err := h.sessions.SignIn(c.UserContext(), "", result.User, result.AccessToken)
	if err != nil {
		return err
	}
	auth.SetSessionCookie(c, h.cookieName, sess.ID, sess.ExpiresAt, h.cookieSecure)

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"data": dto.SessionResponse{User: dto.NewUserResponse(sess.User), ExpiresAt: sess.ExpiresAt},
	})
}

// SignUp handles POST /auth/sign-up. The new account still has to sign in.
func (h *AuthHandler) SignUp(c *fiber.Ctx) error {
	var req dto.SignUpRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	user, err := h.client.SignUp(c.UserContext(), backend.SignUpForm{
		FullName: req.FullName,
		CPF:      req.CPF,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
		Type:     domain.UserType(req.Type),
	})
	if err != nil {
		return err
	}
	h.logger.Info("account created", zap.Int64("user_id", user.ID), zap.String("type", string(user.Type)))

	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewUserResponse(*user)})
}

// SignOut handles POST /auth/sign-out. It succeeds without a session too.
func (h *AuthHandler) SignOut(c *fiber.Ctx) error {
	if id := strings.Clone(c.Cookies(h.cookieName)); id != "" {
		if err := h.sessions.SignOut(c.UserContext(), id, events.ReasonLogout); err != nil {
			return err
		}
	}
	auth.ClearSessionCookie(c, h.cookieName)
	return c.SendStatus(http.StatusNoContent)
}

// Me handles GET /me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(principal.User)})
}
