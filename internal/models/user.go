package models

import (
	"encoding/json"
	"strings"
)

// UserRole represents the roles known to the CourseForge backend.
type UserRole string

const (
	RoleAdmin   UserRole = "admin"
	RoleTeacher UserRole = "teacher"
	RoleStudent UserRole = "student"
)

// Valid reports whether the role is one of the recognised values.
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleStudent:
		return true
	default:
		return false
	}
}

// ParseRole lower-cases and trims a role as sent by the backend.
func ParseRole(value string) UserRole {
	return UserRole(strings.ToLower(strings.TrimSpace(value)))
}

// UnmarshalJSON normalises the role on decode so "Teacher" and "teacher" are
// the same role everywhere in the portal.
func (r *UserRole) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = ParseRole(raw)
	return nil
}

// CanManageCourseworks is true for roles allowed to create, edit and delete courseworks.
func (r UserRole) CanManageCourseworks() bool {
	return r == RoleTeacher || r == RoleAdmin
}

// CanClaimCourseworks is true only for students.
func (r UserRole) CanClaimCourseworks() bool {
	return r == RoleStudent
}

// CanManageSubjects is true only for admins.
func (r UserRole) CanManageSubjects() bool {
	return r == RoleAdmin
}

// User mirrors the backend UserResponse.
type User struct {
	ID        uint     `json:"id"`
	Email     string   `json:"email"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Role      UserRole `json:"role"`
	IsActive  bool     `json:"is_active"`
	CreatedAt string   `json:"created_at"`
}

// FullName joins first and last name.
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
