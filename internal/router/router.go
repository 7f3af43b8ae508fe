package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/courseforge-portal/internal/config"
	"github.com/noah-isme/courseforge-portal/internal/handler"
	"github.com/noah-isme/courseforge-portal/internal/middleware"
	"github.com/noah-isme/courseforge-portal/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	Session           handler.SessionManager
	AuthHandler       *handler.AuthHandler
	DashboardHandler  *handler.DashboardHandler
	CourseworkHandler *handler.CourseworkHandler
	SubjectHandler    *handler.SubjectAdminHandler
	DepartmentHandler *handler.DepartmentHandler
	// AuthLimiter throttles credential endpoints; nil disables throttling.
	AuthLimiter fiber.Handler
}

// Register wires the portal routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/healthz", handler.HealthCheck(cfg, deps.Session))
	app.Get("/metrics", observability.MetricsHandler())

	app.Get("/", func(c *fiber.Ctx) error {
		if _, ok := deps.Session.Current(); ok {
			return c.Redirect("/dashboard", fiber.StatusFound)
		}
		return c.Redirect("/login", fiber.StatusFound)
	})

	if deps.AuthHandler != nil {
		deps.AuthHandler.Register(app, deps.AuthLimiter)
	}

	guard := middleware.SessionRequired(deps.Session, middleware.SessionOptions{})

	if deps.AuthHandler != nil {
		deps.AuthHandler.RegisterProfile(app.Group("/profile", guard))
	}

	if deps.DashboardHandler != nil {
		deps.DashboardHandler.Register(app.Group("/dashboard", guard))
	}

	if deps.CourseworkHandler != nil {
		deps.CourseworkHandler.Register(app.Group("/courseworks", guard))
	}

	if deps.SubjectHandler != nil {
		admin := app.Group("/admin/subjects", guard, middleware.Permit(middleware.ManagesSubjects))
		deps.SubjectHandler.Register(admin)
	}

	if deps.DepartmentHandler != nil {
		deps.DepartmentHandler.Register(app.Group("/departments", guard))
	}
}
