package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/courseforge-portal/internal/apperr"
	"github.com/noah-isme/courseforge-portal/internal/middleware"
	"github.com/noah-isme/courseforge-portal/internal/utils"
	"github.com/noah-isme/courseforge-portal/internal/view"
)

func parseUintParam(c *fiber.Ctx, name string) (uint, error) {
	value := c.Params(name)
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil || parsed == 0 {
		return 0, errors.New("invalid identifier")
	}
	return uint(parsed), nil
}

func userIDFromContext(c *fiber.Ctx) uint {
	if v := c.Locals("user_id"); v != nil {
		if id, ok := v.(uint); ok {
			return id
		}
	}
	return 0
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

func statusForKind(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation, apperr.KindBadRequest:
		return fiber.StatusBadRequest
	case apperr.KindUnauthorized, apperr.KindNoSession, apperr.KindInvalidCredentials:
		return fiber.StatusUnauthorized
	case apperr.KindForbidden:
		return fiber.StatusForbidden
	case apperr.KindNotFound:
		return fiber.StatusNotFound
	case apperr.KindConflict, apperr.KindDuplicateEmail, apperr.KindAlreadyAssigned,
		apperr.KindNotAvailable, apperr.KindInFlight:
		return fiber.StatusConflict
	case apperr.KindNetwork:
		return fiber.StatusBadGateway
	case apperr.KindCanceled:
		return fiber.StatusRequestTimeout
	default:
		return fiber.StatusBadGateway
	}
}

// respondError renders err in the response envelope with the status its kind maps to.
// Field validation failures are returned as details.
func respondError(c *fiber.Ctx, logger zerolog.Logger, err error, action string) error {
	catalog := catalogOf(c)
	kind := apperr.KindOf(err)
	status := statusForKind(kind)

	var details interface{}
	var appErr *apperr.Error
	if errors.As(err, &appErr) && len(appErr.Fields) > 0 {
		details = appErr.Fields
	}

	entry := requestLogger(logger, c).Warn()
	if status >= fiber.StatusInternalServerError {
		entry = requestLogger(logger, c).Error()
	}
	entry.Err(err).Str("kind", string(kind)).Msg(action + " failed")

	return utils.Fail(c, status, view.ErrorMessage(err, catalog), details)
}

var errNoSession = apperr.New(apperr.KindNoSession, "")

func catalogOf(c *fiber.Ctx) view.Catalog {
	return middleware.CatalogFrom(c)
}

func bodyError(c *fiber.Ctx) error {
	return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
}
