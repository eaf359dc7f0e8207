package backend

import (
	"context"
	"net/http"
	"net/mail"
	"regexp"
	"strings"

	"github.com/spec-kit/rental-portal/internal/domain"
	apperrors "github.com/spec-kit/rental-portal/pkg/util/errorutil"
)

// MinPasswordLength mirrors the sign-in form rule.
const MinPasswordLength = 6

const maxPasswordLength = 50

var (
	cpfPattern   = regexp.MustCompile(`^\d{3}\.\d{3}\.\d{3}-\d{2}$|^\d{11}$`)
	phonePattern = regexp.MustCompile(`^\(\d{2}\)\s\d{4,5}-\d{4}$|^\d{10,11}$`)
	nonDigits    = regexp.MustCompile(`\D`)
)

// Credentials are forwarded as-is to the backend sign-in.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks the form before it is sent.
func (c Credentials) Validate() error {
	if strings.TrimSpace(c.Email) == "" {
		return apperrors.NewFieldError("email", "email is required")
	}
	if len(c.Password) < MinPasswordLength {
		return apperrors.NewFieldError("password", "password must have at least 6 characters")
	}
	return nil
}

// SignInResult is the backend answer to a successful sign-in.
type SignInResult struct {
	AccessToken string      `json:"accessToken"`
	User        domain.User `json:"user"`
}

// SignIn exchanges credentials for an access token. It needs no session.
func (c *Client) SignIn(ctx context.Context, creds Credentials) (*SignInResult, error) {
	creds.Email = strings.TrimSpace(creds.Email)
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	var result SignInResult
	err := c.do(ctx, call{
		operation: "sign_in",
		method:    http.MethodPost,
		path:      "/auth/signIn",
		body:      creds,
		out:       &result,
		anonymous: true,
	})
	if err != nil {
		return nil, err
	}
	if result.AccessToken == "" {
		return nil, apperrors.NewUnauthorized("sign in returned no access token")
	}
	result.User.Type = result.User.Type.Normalize()
	return &result, nil
}

// SignUpForm is the account creation form. CPF and phone accept either the
// masked or the digits-only spelling.
type SignUpForm struct {
	FullName string          `json:"full_name"`
	CPF      string          `json:"cpf"`
	Email    string          `json:"email"`
	Password string          `json:"password"`
	Phone    string          `json:"phone"`
	Type     domain.UserType `json:"type"`
}

// Validate checks the form field by field, in form order.
func (f SignUpForm) Validate() error {
	name := strings.TrimSpace(f.FullName)
	switch {
	case len(name) < 2:
		return apperrors.NewFieldError("full_name", "name must have at least 2 characters")
	case len(name) > 100:
		return apperrors.NewFieldError("full_name", "name cannot exceed 100 characters")
	case !cpfPattern.MatchString(strings.TrimSpace(f.CPF)):
		return apperrors.NewFieldError("cpf", "cpf must be XXX.XXX.XXX-XX or 11 digits")
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(f.Email)); err != nil {
		return apperrors.NewFieldError("email", "invalid email")
	}
	switch {
	case len(f.Password) < MinPasswordLength:
		return apperrors.NewFieldError("password", "password must have at least 6 characters")
	case len(f.Password) > maxPasswordLength:
		return apperrors.NewFieldError("password", "password cannot exceed 50 characters")
	case !phonePattern.MatchString(strings.TrimSpace(f.Phone)):
		return apperrors.NewFieldError("phone", "phone must be (XX) XXXXX-XXXX or 10 to 11 digits")
	}
	if t := f.Type.Normalize(); t != domain.UserTypeLandlord && t != domain.UserTypeTenant {
		return apperrors.NewFieldError("type", "select LANDLORD or TENANT")
	}
	return nil
}

type signUpPayload struct {
	Name     string          `json:"name"`
	LastName string          `json:"lastName"`
	CPF      string          `json:"cpf"`
	Phone    string          `json:"phone"`
	Type     domain.UserType `json:"type"`
	Email    string          `json:"email"`
	Password string          `json:"password"`
}

// payload splits the full name on the first word and strips the masks.
func (f SignUpForm) payload() signUpPayload {
	parts := strings.Fields(f.FullName)
	return signUpPayload{
		Name:     parts[0],
		LastName: strings.Join(parts[1:], " "),
		CPF:      nonDigits.ReplaceAllString(f.CPF, ""),
		Phone:    nonDigits.ReplaceAllString(f.Phone, ""),
		Type:     f.Type.Normalize(),
		Email:    strings.TrimSpace(f.Email),
		Password: f.Password,
	}
}

// SignUp creates an account and returns its profile. It needs no session and
// does not sign the new user in.
func (c *Client) SignUp(ctx context.Context, form SignUpForm) (*domain.User, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}
	var user domain.User
	err := c.do(ctx, call{
		operation: "sign_up",
		method:    http.MethodPost,
		path:      "/auth/signup",
		body:      form.payload(),
		out:       &user,
		anonymous: true,
	})
	if err != nil {
		return nil, err
	}
	user.Type = user.Type.Normalize()
	return &user, nil
}
