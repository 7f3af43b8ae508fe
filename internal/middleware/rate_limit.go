package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/noah-isme/courseforge-portal/internal/utils"
	"github.com/noah-isme/courseforge-portal/internal/view"
)

// AuthRateLimit throttles credential submissions. Attempts are counted per
// client address and route, so a burst of logins does not lock out registration.
func AuthRateLimit(max int, window time.Duration) fiber.Handler {
	if max <= 0 {
		max = 10
	}
	if window <= 0 {
		window = time.Minute
	}

	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return "auth:" + c.Path() + ":" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(window.Seconds())))
			return utils.Fail(c, fiber.StatusTooManyRequests, CatalogFrom(c).Text(view.MsgTooManyAttempts), nil)
		},
	})
}
