package handler

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/courseforge-portal/internal/dto"
	"github.com/noah-isme/courseforge-portal/internal/models"
	"github.com/noah-isme/courseforge-portal/internal/service"
	"github.com/noah-isme/courseforge-portal/internal/utils"
	"github.com/noah-isme/courseforge-portal/internal/view"
)

// SubjectsAdminAPI is the backend surface behind subject management.
type SubjectsAdminAPI interface {
	Create(ctx context.Context, req dto.CreateSubjectRequest) (models.Subject, error)
	Update(ctx context.Context, id uint, req dto.UpdateSubjectRequest) (models.Subject, error)
	Delete(ctx context.Context, id uint) error
	AssignTeacher(ctx context.Context, id uint, req dto.AssignTeacherRequest) error
	RemoveTeacher(ctx context.Context, id, teacherID uint) error
	SetLeadTeacher(ctx context.Context, id, teacherID uint) error
}

// SubjectAdminHandler exposes subject management for administrators.
type SubjectAdminHandler struct {
	api       SubjectsAdminAPI
	state     service.SubjectsState
	admin     service.AdminStats
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewSubjectAdminHandler constructs the handler.
func NewSubjectAdminHandler(api SubjectsAdminAPI, state service.SubjectsState, admin service.AdminStats, validate *validator.Validate, logger zerolog.Logger) *SubjectAdminHandler {
	return &SubjectAdminHandler{
		api:       api,
		state:     state,
		admin:     admin,
		validator: validate,
		logger:    logger.With().Str("component", "subject_admin_handler").Logger(),
	}
}

// Register attaches routes under /admin/subjects. The router must enforce the admin role.
func (h *SubjectAdminHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Put("/:id", h.update)
	router.Delete("/:id", h.delete)
	router.Post("/:id/teachers", h.assignTeacher)
	router.Delete("/:id/teachers/:teacherId", h.removeTeacher)
	router.Put("/:id/lead-teacher", h.leadTeacher)
}

func (h *SubjectAdminHandler) list(c *fiber.Ctx) error {
	data, err := h.admin.SubjectsWithTeachers(c.UserContext())
	errMessage := ""
	if err != nil {
		requestLogger(h.logger, c).Warn().Err(err).Msg("failed to load subject management data")
		errMessage = view.ErrorMessage(err, catalogOf(c))
	}
	return utils.SendSuccess(c, "subjects retrieved", view.BuildSubjectsAdminView(data, errMessage))
}

func (h *SubjectAdminHandler) create(c *fiber.Ctx) error {
	var req dto.CreateSubjectRequest
	if err := c.BodyParser(&req); err != nil {
		return bodyError(c)
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Code = strings.TrimSpace(req.Code)
	if err := dto.Validate(h.validator, req); err != nil {
		return respondError(c, h.logger, err, "create subject")
	}

	subject, err := h.api.Create(c.UserContext(), req)
	if err != nil {
		return respondError(c, h.logger, err, "create subject")
	}
	h.reload(c)

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "subject created", subject)
}

func (h *SubjectAdminHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var req dto.UpdateSubjectRequest
	if err := c.BodyParser(&req); err != nil {
		return bodyError(c)
	}
	if err := dto.Validate(h.validator, req); err != nil {
		return respondError(c, h.logger, err, "update subject")
	}

	subject, err := h.api.Update(c.UserContext(), id, req)
	if err != nil {
		return respondError(c, h.logger, err, "update subject")
	}
	h.reload(c)

	return utils.SendSuccess(c, "subject updated", subject)
}

func (h *SubjectAdminHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.api.Delete(c.UserContext(), id); err != nil {
		return respondError(c, h.logger, err, "delete subject")
	}
	h.reload(c)

	return utils.SendSuccess(c, "subject deleted", nil)
}

func (h *SubjectAdminHandler) assignTeacher(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var req dto.AssignTeacherRequest
	if err := c.BodyParser(&req); err != nil {
		return bodyError(c)
	}
	if err := dto.Validate(h.validator, req); err != nil {
		return respondError(c, h.logger, err, "assign teacher")
	}

	if err := h.api.AssignTeacher(c.UserContext(), id, req); err != nil {
		return respondError(c, h.logger, err, "assign teacher")
	}
	h.reload(c)

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "teacher assigned", nil)
}

func (h *SubjectAdminHandler) removeTeacher(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	teacherID, err := parseUintParam(c, "teacherId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.api.RemoveTeacher(c.UserContext(), id, teacherID); err != nil {
		return respondError(c, h.logger, err, "remove teacher")
	}
	h.reload(c)

	return utils.SendSuccess(c, "teacher removed", nil)
}

func (h *SubjectAdminHandler) leadTeacher(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var req dto.LeadTeacherRequest
	if err := c.BodyParser(&req); err != nil {
		return bodyError(c)
	}
	if err := dto.Validate(h.validator, req); err != nil {
		return respondError(c, h.logger, err, "set lead teacher")
	}

	if err := h.api.SetLeadTeacher(c.UserContext(), id, req.TeacherID); err != nil {
		return respondError(c, h.logger, err, "set lead teacher")
	}
	h.reload(c)

	return utils.SendSuccess(c, "lead teacher updated", nil)
}

// reload refreshes the cached catalog after a write; failures stay in the cache's error state.
func (h *SubjectAdminHandler) reload(c *fiber.Ctx) {
	if _, err := h.state.Reload(c.UserContext()); err != nil {
		requestLogger(h.logger, c).Warn().Err(err).Msg("subject catalog reload failed")
	}
}
