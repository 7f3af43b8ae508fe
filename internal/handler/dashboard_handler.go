package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/courseforge-portal/internal/apperr"
	"github.com/noah-isme/courseforge-portal/internal/middleware"
	"github.com/noah-isme/courseforge-portal/internal/models"
	"github.com/noah-isme/courseforge-portal/internal/service"
	"github.com/noah-isme/courseforge-portal/internal/utils"
	"github.com/noah-isme/courseforge-portal/internal/view"
)

// SessionExpirer drops the active session.
type SessionExpirer interface {
	Expire(ctx context.Context)
}

// DashboardHandler renders exactly one role dashboard for the session user.
type DashboardHandler struct {
	session     SessionExpirer
	courseworks service.CourseworkState
	admin       service.AdminStats
	logger      zerolog.Logger
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(session SessionExpirer, courseworks service.CourseworkState, admin service.AdminStats, logger zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{
		session:     session,
		courseworks: courseworks,
		admin:       admin,
		logger:      logger.With().Str("component", "dashboard_handler").Logger(),
	}
}

// Register attaches the dashboard endpoint to a /dashboard group guarded by SessionRequired.
func (h *DashboardHandler) Register(router fiber.Router) {
	router.Get("", h.dashboard)
}

func (h *DashboardHandler) dashboard(c *fiber.Ctx) error {
	user, ok := middleware.SessionUser(c)
	if !ok {
		return c.Redirect("/login", fiber.StatusFound)
	}

	switch user.Role {
	case models.RoleStudent:
		return h.student(c)
	case models.RoleTeacher:
		return h.manager(c, user.Role)
	case models.RoleAdmin:
		if c.Query("view") == "courseworks" {
			return h.manager(c, user.Role)
		}
		return h.administrator(c)
	default:
		// No view exists for this role; the session is dropped so /login renders.
		requestLogger(h.logger, c).Warn().Uint("user_id", user.ID).Str("role", string(user.Role)).Msg("unknown role, ending session")
		if h.session != nil {
			h.session.Expire(c.UserContext())
		}
		return c.Redirect("/login", fiber.StatusFound)
	}
}

func (h *DashboardHandler) student(c *fiber.Ctx) error {
	snapshot, err := h.courseworks.Load(c.UserContext())
	if handled, respErr := h.interrupted(c, err); handled {
		return respErr
	}
	dashboard := view.BuildStudentDashboard(snapshot, catalogOf(c), "")
	return utils.SendSuccess(c, "dashboard retrieved", dashboard)
}

func (h *DashboardHandler) manager(c *fiber.Ctx, role models.UserRole) error {
	snapshot, err := h.courseworks.Load(c.UserContext())
	if handled, respErr := h.interrupted(c, err); handled {
		return respErr
	}
	dashboard := view.BuildTeacherDashboard(snapshot, role, catalogOf(c))
	return utils.SendSuccess(c, "dashboard retrieved", dashboard)
}

func (h *DashboardHandler) administrator(c *fiber.Ctx) error {
	overview, err := h.admin.Load(c.UserContext())
	if handled, respErr := h.interrupted(c, err); handled {
		return respErr
	}
	errMessage := ""
	if err != nil {
		errMessage = view.ErrorMessage(err, catalogOf(c))
	}
	dashboard := view.BuildAdminDashboard(overview, errMessage, catalogOf(c))
	return utils.SendSuccess(c, "dashboard retrieved", dashboard)
}

// interrupted reports whether err means no dashboard can be shown at all, in
// which case the response has already been written. Other load errors are
// rendered inside the dashboard's error state.
func (h *DashboardHandler) interrupted(c *fiber.Ctx, err error) (bool, error) {
	if err == nil {
		return false, nil
	}
	switch apperr.KindOf(err) {
	case apperr.KindNoSession, apperr.KindUnauthorized:
		return true, c.Redirect("/login", fiber.StatusFound)
	case apperr.KindCanceled, apperr.KindForbidden:
		return true, respondError(c, h.logger, err, "dashboard load")
	}
	requestLogger(h.logger, c).Warn().Err(err).Msg("dashboard loaded with errors")
	return false, nil
}
