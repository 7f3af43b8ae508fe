package middleware_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/courseforge-portal/internal/middleware"
	"github.com/noah-isme/courseforge-portal/internal/models"
)

type fakeSession struct {
	session *models.Session
	expired int
}

func (f *fakeSession) Current() (models.Session, bool) {
	if f.session == nil {
		return models.Session{}, false
	}
	return *f.session, true
}

func (f *fakeSession) Expire(context.Context) {
	f.expired++
	f.session = nil
}

func newSessionApp(source middleware.SessionSource, now time.Time) *fiber.App {
	app := fiber.New()
	guard := middleware.SessionRequired(source, middleware.SessionOptions{Now: func() time.Time { return now }})
	handler := func(c *fiber.Ctx) error {
		user, ok := middleware.SessionUser(c)
		if !ok {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.JSON(fiber.Map{"id": c.Locals("user_id"), "role": c.Locals("user_role"), "email": user.Email})
	}
	app.Get("/dashboard", guard, handler)
	app.Get("/api/dashboard", guard, handler)
	return app
}

func TestSessionRequiredRedirectsPagesWithoutSession(t *testing.T) {
	app := newSessionApp(&fakeSession{}, time.Now())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/dashboard", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	require.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestSessionRequiredRejectsAPIWithoutSession(t *testing.T) {
	app := newSessionApp(&fakeSession{}, time.Now())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/dashboard", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, false, body["success"])
	require.Equal(t, "authentication required", body["message"])
}

func TestSessionRequiredBindsUser(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	source := &fakeSession{session: &models.Session{
		User:      models.User{ID: 4, Email: "anna@example.com", Role: models.RoleStudent},
		Token:     "tok",
		ExpiresAt: now.Add(time.Hour),
	}}
	app := newSessionApp(source, now)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/dashboard", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, float64(4), body["id"])
	require.Equal(t, "student", body["role"])
	require.Equal(t, "anna@example.com", body["email"])
}

func TestSessionRequiredExpiresStaleSession(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	source := &fakeSession{session: &models.Session{
		User:      models.User{ID: 4, Role: models.RoleStudent},
		Token:     "tok",
		ExpiresAt: now.Add(-time.Minute),
	}}
	app := newSessionApp(source, now)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/dashboard", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	require.Equal(t, 1, source.expired)
}

func TestLocalePrefersQueryThenHeader(t *testing.T) {
	app := fiber.New()
	app.Use(middleware.Locale("en"))
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(string(middleware.CatalogFrom(c).Locale()))
	})

	read := func(req *http.Request) string {
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		buf := make([]byte, 8)
		n, _ := resp.Body.Read(buf)
		return string(buf[:n])
	}

	require.Equal(t, "en", read(httptest.NewRequest(http.MethodGet, "/", nil)))
	require.Equal(t, "ru", read(httptest.NewRequest(http.MethodGet, "/?lang=ru", nil)))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "ru-RU,ru;q=0.9")
	require.Equal(t, "ru", read(req))
}
