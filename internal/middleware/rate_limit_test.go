package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/courseforge-portal/internal/middleware"
)

func TestAuthRateLimitCountsPerRoute(t *testing.T) {
	app := fiber.New()
	limit := middleware.AuthRateLimit(2, time.Minute)
	ok := func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) }
	app.Post("/auth/login", limit, ok)
	app.Post("/auth/register", limit, ok)

	post := func(path string) *http.Response {
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, path, nil), -1)
		require.NoError(t, err)
		return resp
	}

	require.Equal(t, fiber.StatusNoContent, post("/auth/login").StatusCode)
	require.Equal(t, fiber.StatusNoContent, post("/auth/login").StatusCode)

	resp := post("/auth/login")
	require.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	require.Equal(t, "60", resp.Header.Get(fiber.HeaderRetryAfter))

	require.Equal(t, fiber.StatusNoContent, post("/auth/register").StatusCode)
}
