package api

import (
	"context"
	"net/url"

	"github.com/noah-isme/courseforge-portal/internal/dto"
	"github.com/noah-isme/courseforge-portal/internal/models"
)

// Users wraps the admin user management endpoints.
type Users struct {
	transport Transport
}

// NewUsers constructs the users module.
func NewUsers(transport Transport) *Users {
	return &Users{transport: transport}
}

// List returns users matching the filter.
func (u *Users) List(ctx context.Context, req dto.ListUsersRequest) (dto.UserListResponse, error) {
	query := url.Values{}
	if req.Role != "" {
		query.Set("role", string(req.Role))
	}
	setBool(query, "active", req.Active)
	setPositive(query, "limit", req.Limit)
	setPositive(query, "offset", req.Offset)

	var resp dto.UserListResponse
	if err := u.transport.Get(ctx, "/users", query, &resp); err != nil {
		return dto.UserListResponse{}, err
	}
	if resp.Users == nil {
		resp.Users = []models.User{}
	}
	return resp, nil
}

// Get returns one user.
func (u *Users) Get(ctx context.Context, id uint) (models.User, error) {
	var user models.User
	if err := u.transport.Get(ctx, idPath("/users", id), nil, &user); err != nil {
		return models.User{}, err
	}
	return user, nil
}

// Create adds a user account.
func (u *Users) Create(ctx context.Context, req dto.CreateUserRequest) (models.User, error) {
	var user models.User
	if err := u.transport.Post(ctx, "/users", req, &user); err != nil {
		return models.User{}, err
	}
	return user, nil
}

// Update changes a user account.
func (u *Users) Update(ctx context.Context, id uint, req dto.UpdateUserRequest) (models.User, error) {
	var user models.User
	if err := u.transport.Put(ctx, idPath("/users", id), req, &user); err != nil {
		return models.User{}, err
	}
	return user, nil
}

// Delete removes a user account.
func (u *Users) Delete(ctx context.Context, id uint) error {
	return u.transport.Delete(ctx, idPath("/users", id))
}
