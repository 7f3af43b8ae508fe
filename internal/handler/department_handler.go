package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/courseforge-portal/internal/models"
	"github.com/noah-isme/courseforge-portal/internal/utils"
)

// DepartmentsAPI reads departments and their study groups.
type DepartmentsAPI interface {
	List(ctx context.Context) ([]models.Department, error)
	Groups(ctx context.Context, departmentID uint) ([]models.StudentGroup, error)
}

// DepartmentHandler exposes department lookups.
type DepartmentHandler struct {
	api    DepartmentsAPI
	logger zerolog.Logger
}

// NewDepartmentHandler constructs the handler.
func NewDepartmentHandler(api DepartmentsAPI, logger zerolog.Logger) *DepartmentHandler {
	return &DepartmentHandler{
		api:    api,
		logger: logger.With().Str("component", "department_handler").Logger(),
	}
}

// Register attaches routes under /departments.
func (h *DepartmentHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Get("/:id/groups", h.groups)
}

func (h *DepartmentHandler) list(c *fiber.Ctx) error {
	departments, err := h.api.List(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, err, "list departments")
	}
	return utils.OK(c, departments, "departments retrieved", fiber.Map{"total": len(departments)})
}

func (h *DepartmentHandler) groups(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	groups, err := h.api.Groups(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, err, "list groups")
	}
	return utils.OK(c, groups, "groups retrieved", fiber.Map{"department_id": id, "total": len(groups)})
}
