package domain

import "strings"

// UserType distinguishes the two sides of the marketplace.
type UserType string

const (
	UserTypeLandlord UserType = "LANDLORD"
	UserTypeTenant   UserType = "TENANT"
)

// Normalize maps the lower-case spelling some endpoints return onto the canonical one.
func (t UserType) Normalize() UserType {
	return UserType(strings.ToUpper(string(t)))
}

// User is the authenticated profile returned by sign-in.
type User struct {
	ID       int64    `json:"id"`
	Name     string   `json:"name"`
	LastName string   `json:"lastName"`
	Email    string   `json:"email"`
	Phone    string   `json:"phone,omitempty"`
	CPF      string   `json:"cpf,omitempty"`
	Active   bool     `json:"active"`
	Type     UserType `json:"type"`
}

// IsLandlord reports whether the user manages properties.
func (u User) IsLandlord() bool {
	return u.Type.Normalize() == UserTypeLandlord
}

// IsTenant reports whether the user rents properties.
func (u User) IsTenant() bool {
	return u.Type.Normalize() == UserTypeTenant
}

// FullName joins first and last name.
func (u User) FullName() string {
	return strings.TrimSpace(u.Name + " " + u.LastName)
}
