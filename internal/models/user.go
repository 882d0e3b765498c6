package models

import "time"

// RoleUser is assigned to every account at signup; RoleAdmin gates
// watchlist mutation and the suggestion review workflow.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a row in the PostgreSQL users table.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Password  string    `json:"-"` // never serialize
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"created_at"`
}

// IsAdmin reports whether the user's role set contains the admin tag.
// A nil or empty role set is simply not admin.
func (u *User) IsAdmin() bool {
	for _, r := range u.Roles {
		if r == RoleAdmin {
			return true
		}
	}
	return false
}

// SignupRequest is the JSON body for POST /auth/signup.
type SignupRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginRequest is the JSON body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// PasswordRequest is the JSON body for PUT /auth/password.
type PasswordRequest struct {
	Password string `json:"password" validate:"required"`
}

// TokenResponse is the JSON body returned by a successful login.
type TokenResponse struct {
	Token string `json:"token"`
}
