package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/courseforge-portal/internal/dto"
	"github.com/noah-isme/courseforge-portal/internal/middleware"
	"github.com/noah-isme/courseforge-portal/internal/models"
	"github.com/noah-isme/courseforge-portal/internal/service"
	"github.com/noah-isme/courseforge-portal/internal/utils"
	"github.com/noah-isme/courseforge-portal/internal/view"
)

// ClaimResponse is returned after a successful claim.
type ClaimResponse struct {
	Assignment models.StudentCoursework `json:"assignment"`
	Dashboard  view.StudentDashboard    `json:"dashboard"`
}

// CourseworkReader fetches a single coursework.
type CourseworkReader interface {
	Get(ctx context.Context, id uint) (models.Coursework, error)
}

// CourseworkHandler exposes coursework details, mutations and the create form.
type CourseworkHandler struct {
	reader   CourseworkReader
	state    service.CourseworkState
	subjects service.SubjectsState
	logger   zerolog.Logger
}

// NewCourseworkHandler constructs the handler.
func NewCourseworkHandler(reader CourseworkReader, state service.CourseworkState, subjects service.SubjectsState, logger zerolog.Logger) *CourseworkHandler {
	return &CourseworkHandler{
		reader:   reader,
		state:    state,
		subjects: subjects,
		logger:   logger.With().Str("component", "coursework_handler").Logger(),
	}
}

// Register attaches routes under /courseworks. The router must run SessionRequired first.
func (h *CourseworkHandler) Register(router fiber.Router) {
	manage := middleware.ManagesCourseworks

	router.Get("/form", middleware.Allow(manage, h.form))
	router.Get("/:id", h.details)
	router.Post("", middleware.Allow(manage, h.create))
	router.Put("/:id", middleware.Allow(manage, h.update))
	router.Delete("/:id", middleware.Allow(manage, h.delete))
	router.Put("/:id/availability", middleware.Allow(manage, h.availability))
	router.Post("/:id/claim", middleware.Allow(middleware.ClaimsCourseworks, h.claim))
}

func (h *CourseworkHandler) form(c *fiber.Ctx) error {
	snapshot, err := h.subjects.Load(c.UserContext())
	if err != nil {
		requestLogger(h.logger, c).Warn().Err(err).Msg("failed to load subjects for form")
	}

	user, _ := middleware.SessionUser(c)
	teachable := snapshot.Subjects
	if user.Role == models.RoleTeacher {
		teachable = h.subjects.TeachableBy(user.ID)
	}

	form := view.BuildCreateCourseworkForm(snapshot, teachable, user.ID, catalogOf(c))
	return utils.SendSuccess(c, "coursework form", form)
}

func (h *CourseworkHandler) details(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	coursework, err := h.reader.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, err, "load coursework")
	}

	user, _ := middleware.SessionUser(c)
	snapshot := h.state.Snapshot()
	card := view.BuildCard(coursework, view.CardContext{
		Role:          user.Role,
		HasAssignment: snapshot.HasAssignment,
		AssignedID:    snapshot.AssignedID,
		Claiming:      snapshot.Claiming,
	}, catalogOf(c))
	return utils.SendSuccess(c, "coursework retrieved", card)
}

func (h *CourseworkHandler) create(c *fiber.Ctx) error {
	var req dto.CreateCourseworkRequest
	if err := c.BodyParser(&req); err != nil {
		return bodyError(c)
	}

	coursework, err := h.state.Create(c.UserContext(), req)
	if err != nil {
		return respondError(c, h.logger, err, "create coursework")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "coursework created", coursework)
}

func (h *CourseworkHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var req dto.UpdateCourseworkRequest
	if err := c.BodyParser(&req); err != nil {
		return bodyError(c)
	}

	coursework, err := h.state.Update(c.UserContext(), id, req)
	if err != nil {
		return respondError(c, h.logger, err, "update coursework")
	}

	return utils.SendSuccess(c, "coursework updated", coursework)
}

func (h *CourseworkHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.state.Delete(c.UserContext(), id); err != nil {
		return respondError(c, h.logger, err, "delete coursework")
	}

	return utils.SendSuccess(c, "coursework deleted", nil)
}

func (h *CourseworkHandler) availability(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var req dto.AvailabilityRequest
	if err := c.BodyParser(&req); err != nil {
		return bodyError(c)
	}

	if err := h.state.SetAvailability(c.UserContext(), id, req.IsAvailable); err != nil {
		return respondError(c, h.logger, err, "change availability")
	}

	return utils.SendSuccess(c, "availability updated", fiber.Map{"id": id, "is_available": req.IsAvailable})
}

func (h *CourseworkHandler) claim(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	assignment, err := h.state.Assign(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, err, "claim coursework")
	}

	catalog := catalogOf(c)
	return utils.SendSuccess(c, catalog.Text(view.MsgClaimSuccess), ClaimResponse{
		Assignment: assignment,
		Dashboard:  view.BuildStudentDashboard(h.state.Snapshot(), catalog, catalog.Text(view.MsgClaimSuccess)),
	})
}
