package dto

import "github.com/noah-isme/courseforge-portal/internal/models"

// ListUsersRequest filters the user list.
type ListUsersRequest struct {
	Role   models.UserRole
	Active *bool
	Limit  int
	Offset int
}

// UserListResponse is the paginated user list.
type UserListResponse struct {
	Users []models.User `json:"users"`
	Total int64         `json:"total"`
}

// CreateUserRequest is used by admins to create accounts.
type CreateUserRequest struct {
	Email     string          `json:"email" validate:"required,email"`
	Password  string          `json:"password" validate:"required,min=6"`
	FirstName string          `json:"first_name" validate:"required"`
	LastName  string          `json:"last_name" validate:"required"`
	Role      models.UserRole `json:"role" validate:"required,oneof=admin teacher student"`
}

// UpdateUserRequest carries a partial user update.
type UpdateUserRequest struct {
	Email     *string          `json:"email,omitempty" validate:"omitempty,email"`
	FirstName *string          `json:"first_name,omitempty"`
	LastName  *string          `json:"last_name,omitempty"`
	Role      *models.UserRole `json:"role,omitempty" validate:"omitempty,oneof=admin teacher student"`
	IsActive  *bool            `json:"is_active,omitempty"`
}
