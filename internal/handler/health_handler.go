package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/courseforge-portal/internal/config"
	"github.com/noah-isme/courseforge-portal/internal/utils"
)

// HealthResponse is the /healthz payload. It never includes user details.
type HealthResponse struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Service     string    `json:"service"`
	Environment string    `json:"environment"`
	Backend     string    `json:"backend"`
	Storage     string    `json:"storage"`
	Locale      string    `json:"locale"`
	Session     bool      `json:"session"`
}

// SessionPresence reports whether a bearer token is held.
type SessionPresence interface {
	Token() string
}

// HealthCheck reports portal configuration and whether a session is held.
// It does not call the backend.
func HealthCheck(cfg config.Config, session SessionPresence) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return utils.SendSuccess(c, "portal healthy", HealthResponse{
			Status:      "ok",
			Timestamp:   time.Now().UTC(),
			Service:     cfg.AppName,
			Environment: cfg.AppEnv,
			Backend:     cfg.APIBaseURL,
			Storage:     cfg.StorageDriver,
			Locale:      cfg.Locale,
			Session:     session != nil && session.Token() != "",
		})
	}
}
