package dto

import (
	"time"

	"github.com/spec-kit/rental-portal/internal/domain"
)

// SignInRequest payload for sign-in.
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUpRequest payload for account creation.
type SignUpRequest struct {
	FullName string `json:"full_name"`
	CPF      string `json:"cpf"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	Type     string `json:"type"`
}

// UserResponse is the signed-in profile.
type UserResponse struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	LastName string `json:"last_name"`
	Email    string `json:"email"`
	Type     string `json:"type"`
}

// NewUserResponse maps a domain user.
func NewUserResponse(u domain.User) UserResponse {
	return UserResponse{
		ID:       u.ID,
		Name:     u.Name,
		LastName: u.LastName,
		Email:    u.Email,
		Type:     string(u.Type.Normalize()),
	}
}

// SessionResponse standard response for sign-in.
type SessionResponse struct {
	User      UserResponse `json:"user"`
	ExpiresAt time.Time    `json:"expires_at"`
}
