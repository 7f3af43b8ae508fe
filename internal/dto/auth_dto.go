package dto

import "github.com/noah-isme/courseforge-portal/internal/models"

// LoginRequest carries the user credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is returned by both login and register.
type LoginResponse struct {
	Token     string      `json:"token"`
	User      models.User `json:"user"`
	ExpiresAt int64       `json:"expires_at"`
}

// RegisterRequest describes a self-registration.
type RegisterRequest struct {
	Email     string          `json:"email" validate:"required,email"`
	Password  string          `json:"password" validate:"required,min=6"`
	FirstName string          `json:"first_name" validate:"required"`
	LastName  string          `json:"last_name" validate:"required"`
	Role      models.UserRole `json:"role" validate:"required,oneof=admin teacher student"`
}

// RefreshTokenRequest exchanges a token for a fresh one.
type RefreshTokenRequest struct {
	Token string `json:"token"`
}

// RefreshTokenResponse carries the refreshed token.
type RefreshTokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}

// ChangePasswordRequest updates the password of the current user.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6,nefield=OldPassword"`
}

// ResetPasswordRequest asks the backend to start a password reset.
type ResetPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ErrorResponse is the error body emitted by the backend.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
