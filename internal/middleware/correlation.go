package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/noah-isme/courseforge-portal/internal/observability"
)

const (
	headerCorrelationID = "X-Correlation-ID"
	maxCorrelationID    = 64
)

// CorrelationID binds a correlation id to the request's user context, which is
// the context every backend call for the request is made with. Callers may
// supply their own id; oversized or blank ids are replaced.
func CorrelationID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := strings.TrimSpace(c.Get(headerCorrelationID))
		if id == "" || len(id) > maxCorrelationID {
			id = uuid.NewString()
		}

		c.Set(headerCorrelationID, id)
		c.SetUserContext(observability.ContextWithCorrelation(c.UserContext(), id))
		return c.Next()
	}
}

// GetCorrelationID returns the id bound by CorrelationID.
func GetCorrelationID(c *fiber.Ctx) string {
	return observability.CorrelationIDFromContext(c.UserContext())
}
