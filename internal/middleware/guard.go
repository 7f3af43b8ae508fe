package middleware

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/courseforge-portal/internal/models"
	"github.com/noah-isme/courseforge-portal/internal/utils"
	"github.com/noah-isme/courseforge-portal/internal/view"
)

// RoleCheck decides whether a role may use a route.
type RoleCheck func(models.UserRole) bool

// Checks shared by the coursework and subject routes.
var (
	ManagesCourseworks RoleCheck = models.UserRole.CanManageCourseworks
	ClaimsCourseworks  RoleCheck = models.UserRole.CanClaimCourseworks
	ManagesSubjects    RoleCheck = models.UserRole.CanManageSubjects
)

// Allow runs handler only for a session user whose role passes check.
// It must be mounted behind SessionRequired.
func Allow(check RoleCheck, handler fiber.Handler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if ok, err := authorize(c, check); !ok {
			return err
		}
		return handler(c)
	}
}

// Permit is the group form of Allow.
func Permit(check RoleCheck) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if ok, err := authorize(c, check); !ok {
			return err
		}
		return c.Next()
	}
}

// OneOf builds a check that passes for any of the listed roles.
func OneOf(roles ...models.UserRole) RoleCheck {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, role := range roles {
		allowed[models.ParseRole(string(role))] = struct{}{}
	}
	return func(role models.UserRole) bool {
		_, ok := allowed[role]
		return ok
	}
}

// authorize reports whether the request may continue, writing the rejection
// envelope when it may not.
func authorize(c *fiber.Ctx, check RoleCheck) (bool, error) {
	user, ok := SessionUser(c)
	if !ok || user.ID == 0 {
		return false, utils.Fail(c, fiber.StatusUnauthorized, CatalogFrom(c).Text(view.MsgSessionRequired), nil)
	}

	role := models.ParseRole(string(user.Role))
	if !check(role) {
		return false, utils.Fail(c, fiber.StatusForbidden, fmt.Sprintf("role %q cannot perform this action", role), nil)
	}
	return true, nil
}
