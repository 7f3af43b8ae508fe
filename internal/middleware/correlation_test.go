package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/courseforge-portal/internal/middleware"
)

func TestCorrelationIDReusesOrMints(t *testing.T) {
	app := fiber.New()
	app.Use(middleware.CorrelationID())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(middleware.GetCorrelationID(c))
	})

	cases := []struct {
		name     string
		incoming string
		reused   bool
	}{
		{"caller id", "portal-test-1", true},
		{"missing", "", false},
		{"oversized", strings.Repeat("x", 65), false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.incoming != "" {
				req.Header.Set("X-Correlation-ID", tc.incoming)
			}
			resp, err := app.Test(req, -1)
			require.NoError(t, err)

			id := resp.Header.Get("X-Correlation-ID")
			require.NotEmpty(t, id)
			if tc.reused {
				require.Equal(t, tc.incoming, id)
			} else {
				require.NotEqual(t, tc.incoming, id)
				require.Len(t, id, 36)
			}
		})
	}
}
