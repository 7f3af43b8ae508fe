package api

import (
	"context"

	"github.com/noah-isme/courseforge-portal/internal/apperr"
	"github.com/noah-isme/courseforge-portal/internal/dto"
	"github.com/noah-isme/courseforge-portal/internal/models"
)

// Auth wraps the authentication and profile endpoints.
type Auth struct {
	transport Transport
}

// NewAuth constructs the auth module.
func NewAuth(transport Transport) *Auth {
	return &Auth{transport: transport}
}

// Login exchanges credentials for a token.
func (a *Auth) Login(ctx context.Context, req dto.LoginRequest) (dto.LoginResponse, error) {
	var resp dto.LoginResponse
	if err := a.transport.Post(ctx, "/auth/login", req, &resp); err != nil {
		return dto.LoginResponse{}, apperr.Refine(err,
			apperr.Rule{From: []apperr.Kind{apperr.KindUnauthorized, apperr.KindBadRequest}, Fragment: "invalid credentials", To: apperr.KindInvalidCredentials},
			apperr.Rule{From: []apperr.Kind{apperr.KindUnauthorized}, To: apperr.KindInvalidCredentials},
		)
	}
	return resp, nil
}

// Register creates an account and signs it in.
func (a *Auth) Register(ctx context.Context, req dto.RegisterRequest) (dto.LoginResponse, error) {
	var resp dto.LoginResponse
	if err := a.transport.Post(ctx, "/auth/register", req, &resp); err != nil {
		return dto.LoginResponse{}, apperr.Refine(err,
			apperr.Rule{From: []apperr.Kind{apperr.KindConflict}, To: apperr.KindDuplicateEmail},
			apperr.Rule{From: []apperr.Kind{apperr.KindBadRequest}, Fragment: "already exists", To: apperr.KindDuplicateEmail},
			apperr.Rule{From: []apperr.Kind{apperr.KindBadRequest}, To: apperr.KindValidation},
		)
	}
	return resp, nil
}

// Logout invalidates the current token on the backend.
func (a *Auth) Logout(ctx context.Context) error {
	return a.transport.Post(ctx, "/profile/logout", nil, nil)
}

// Refresh exchanges the current token for a new one.
func (a *Auth) Refresh(ctx context.Context, token string) (dto.RefreshTokenResponse, error) {
	var resp dto.RefreshTokenResponse
	if err := a.transport.Post(ctx, "/auth/refresh", dto.RefreshTokenRequest{Token: token}, &resp); err != nil {
		return dto.RefreshTokenResponse{}, err
	}
	return resp, nil
}

// Profile returns the authenticated user.
func (a *Auth) Profile(ctx context.Context) (models.User, error) {
	var user models.User
	if err := a.transport.Get(ctx, "/profile", nil, &user); err != nil {
		return models.User{}, err
	}
	return user, nil
}

// ChangePassword updates the password of the current user.
func (a *Auth) ChangePassword(ctx context.Context, req dto.ChangePasswordRequest) error {
	err := a.transport.Post(ctx, "/profile/change-password", req, nil)
	return apperr.Refine(err,
		apperr.Rule{From: []apperr.Kind{apperr.KindBadRequest, apperr.KindUnauthorized}, Fragment: "wrong password", To: apperr.KindInvalidCredentials},
	)
}

// ResetPassword starts a password reset for email.
func (a *Auth) ResetPassword(ctx context.Context, email string) error {
	return a.transport.Post(ctx, "/auth/reset-password", dto.ResetPasswordRequest{Email: email}, nil)
}
