package middleware

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/courseforge-portal/internal/observability"
)

// Observability counts and times every portal request and writes one log line
// per request. Scrape and health probes are not recorded.
func Observability(logger zerolog.Logger) fiber.Handler {
	observability.RegisterMetrics()

	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		elapsed := time.Since(start)

		switch c.Path() {
		case "/metrics", "/healthz":
			return err
		}

		route := routeTemplate(c)
		status := responseStatus(c, err)
		observability.PortalRequests().WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		observability.PortalLatency().WithLabelValues(c.Method(), route).Observe(elapsed.Seconds())

		event := logger.Debug()
		switch {
		case status >= fiber.StatusInternalServerError:
			event = logger.Error().Err(err)
		case status >= fiber.StatusBadRequest:
			event = logger.Warn()
		}

		event = event.
			Str("correlation_id", GetCorrelationID(c)).
			Str("method", c.Method()).
			Str("route", route).
			Int("status", status).
			Dur("elapsed", elapsed)
		if user, ok := SessionUser(c); ok {
			event = event.Uint("user_id", user.ID).Str("role", string(user.Role))
		}
		event.Msg("portal request")

		return err
	}
}

func responseStatus(c *fiber.Ctx, err error) int {
	if err == nil {
		return c.Response().StatusCode()
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code
	}
	return fiber.StatusInternalServerError
}

func routeTemplate(c *fiber.Ctx) string {
	if route := c.Route(); route != nil && route.Path != "" && route.Path != "/" {
		return route.Path
	}
	return observability.RouteLabel(c.Path())
}
