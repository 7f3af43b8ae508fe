package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/courseforge-portal/internal/models"
	"github.com/noah-isme/courseforge-portal/internal/utils"
)

// SessionSource exposes the portal's active session.
type SessionSource interface {
	Current() (models.Session, bool)
	Expire(ctx context.Context)
}

// SessionOptions configures SessionRequired.
type SessionOptions struct {
	// LoginPath receives page requests that arrive without a session.
	LoginPath string
	Now       func() time.Time
}

// SessionRequired rejects requests without a live session. Page routes are
// redirected to the login page; /api routes receive a 401 envelope.
func SessionRequired(source SessionSource, opts SessionOptions) fiber.Handler {
	loginPath := opts.LoginPath
	if loginPath == "" {
		loginPath = "/login"
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return func(c *fiber.Ctx) error {
		current, ok := source.Current()
		if ok && current.Expired(now()) {
			source.Expire(c.UserContext())
			ok = false
		}

		if !ok {
			if strings.HasPrefix(c.Path(), "/api/") {
				return utils.Fail(c, fiber.StatusUnauthorized, "authentication required", nil)
			}
			return c.Redirect(loginPath, fiber.StatusFound)
		}

		c.Locals("user_id", current.User.ID)
		c.Locals("user_role", string(current.User.Role))
		c.Locals("session_user", current.User)
		return c.Next()
	}
}

// SessionUser returns the user bound by SessionRequired.
func SessionUser(c *fiber.Ctx) (models.User, bool) {
	user, ok := c.Locals("session_user").(models.User)
	return user, ok
}
