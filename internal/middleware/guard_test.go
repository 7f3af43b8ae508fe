package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/courseforge-portal/internal/middleware"
	"github.com/noah-isme/courseforge-portal/internal/models"
)

func asUser(user *models.User) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if user != nil {
			c.Locals("session_user", *user)
		}
		return c.Next()
	}
}

func perform(t *testing.T, app *fiber.App) (*http.Response, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var body map[string]interface{}
	if resp.StatusCode != fiber.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	}
	return resp, body
}

func TestAllowByRole(t *testing.T) {
	cases := []struct {
		name   string
		check  middleware.RoleCheck
		role   models.UserRole
		status int
	}{
		{"student claims", middleware.ClaimsCourseworks, models.RoleStudent, fiber.StatusNoContent},
		{"teacher cannot claim", middleware.ClaimsCourseworks, models.RoleTeacher, fiber.StatusForbidden},
		{"teacher manages", middleware.ManagesCourseworks, models.RoleTeacher, fiber.StatusNoContent},
		{"admin manages", middleware.ManagesCourseworks, models.RoleAdmin, fiber.StatusNoContent},
		{"student cannot manage", middleware.ManagesCourseworks, models.RoleStudent, fiber.StatusForbidden},
		{"teacher cannot manage subjects", middleware.ManagesSubjects, models.RoleTeacher, fiber.StatusForbidden},
		{"mixed case role", middleware.ManagesSubjects, models.UserRole(" Admin "), fiber.StatusNoContent},
		{"unknown role", middleware.ManagesCourseworks, models.UserRole("guest"), fiber.StatusForbidden},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			app.Use(asUser(&models.User{ID: 7, Role: tc.role}))
			app.Get("/", middleware.Allow(tc.check, func(c *fiber.Ctx) error {
				return c.SendStatus(fiber.StatusNoContent)
			}))

			resp, _ := perform(t, app)
			require.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestAllowWithoutSessionUser(t *testing.T) {
	app := fiber.New()
	app.Use(asUser(nil))
	app.Get("/", middleware.Allow(middleware.ManagesCourseworks, func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	}))

	resp, body := perform(t, app)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, false, body["success"])
	require.Equal(t, "sign in to continue", body["message"])
}

func TestPermitGuardsGroup(t *testing.T) {
	app := fiber.New()
	app.Use(asUser(&models.User{ID: 3, Role: models.RoleStudent}))
	group := app.Group("/", middleware.Permit(middleware.ManagesSubjects))
	group.Get("/", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	resp, body := perform(t, app)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	require.Equal(t, `role "student" cannot perform this action`, body["message"])
}

func TestPermitOneOfListedRoles(t *testing.T) {
	app := fiber.New()
	app.Use(asUser(&models.User{ID: 1, Role: models.RoleTeacher}))
	app.Use(middleware.Permit(middleware.OneOf(models.RoleAdmin, models.RoleTeacher)))
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	resp, _ := perform(t, app)
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}
