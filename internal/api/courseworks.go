package api

import (
	"context"
	"net/url"

	"github.com/noah-isme/courseforge-portal/internal/apperr"
	"github.com/noah-isme/courseforge-portal/internal/dto"
	"github.com/noah-isme/courseforge-portal/internal/models"
)

var assignRules = []apperr.Rule{
	{From: []apperr.Kind{apperr.KindBadRequest, apperr.KindConflict}, Fragment: "already", To: apperr.KindAlreadyAssigned},
	{From: []apperr.Kind{apperr.KindBadRequest, apperr.KindConflict}, Fragment: "no slots", To: apperr.KindNotAvailable},
	{From: []apperr.Kind{apperr.KindBadRequest, apperr.KindConflict}, Fragment: "no available slots", To: apperr.KindNotAvailable},
	{From: []apperr.Kind{apperr.KindBadRequest, apperr.KindConflict}, Fragment: "not available", To: apperr.KindNotAvailable},
	{From: []apperr.Kind{apperr.KindConflict}, To: apperr.KindAlreadyAssigned},
}

// Courseworks wraps the coursework and assignment endpoints.
type Courseworks struct {
	transport Transport
}

// NewCourseworks constructs the coursework module.
func NewCourseworks(transport Transport) *Courseworks {
	return &Courseworks{transport: transport}
}

// List returns the courseworks visible to the caller's role together with the total count.
func (c *Courseworks) List(ctx context.Context, req dto.ListCourseworksRequest) (dto.CourseworkListResponse, error) {
	query := url.Values{}
	setUint(query, "subject_id", req.SubjectID)
	setUint(query, "teacher_id", req.TeacherID)
	setBool(query, "available", req.Available)
	if req.Difficulty != "" {
		query.Set("difficulty_level", string(req.Difficulty))
	}
	setPositive(query, "limit", req.Limit)
	setPositive(query, "offset", req.Offset)

	var resp dto.CourseworkListResponse
	if err := c.transport.Get(ctx, "/courseworks", query, &resp); err != nil {
		return dto.CourseworkListResponse{}, err
	}
	if resp.Courseworks == nil {
		resp.Courseworks = []models.Coursework{}
	}
	return resp, nil
}

// Available returns the courseworks a student may claim.
func (c *Courseworks) Available(ctx context.Context) ([]models.Coursework, error) {
	courseworks := []models.Coursework{}
	if err := c.transport.Get(ctx, "/courseworks/available", nil, &courseworks); err != nil {
		return nil, err
	}
	if courseworks == nil {
		courseworks = []models.Coursework{}
	}
	return courseworks, nil
}

// Get returns a single coursework.
func (c *Courseworks) Get(ctx context.Context, id uint) (models.Coursework, error) {
	var coursework models.Coursework
	if err := c.transport.Get(ctx, idPath("/courseworks", id), nil, &coursework); err != nil {
		return models.Coursework{}, err
	}
	return coursework, nil
}

// Create publishes a new coursework.
func (c *Courseworks) Create(ctx context.Context, req dto.CreateCourseworkRequest) (models.Coursework, error) {
	var coursework models.Coursework
	if err := c.transport.Post(ctx, "/courseworks", req, &coursework); err != nil {
		return models.Coursework{}, apperr.Refine(err, apperr.Rule{From: []apperr.Kind{apperr.KindBadRequest}, To: apperr.KindValidation})
	}
	return coursework, nil
}

// Update changes an existing coursework.
func (c *Courseworks) Update(ctx context.Context, id uint, req dto.UpdateCourseworkRequest) (models.Coursework, error) {
	var coursework models.Coursework
	if err := c.transport.Put(ctx, idPath("/courseworks", id), req, &coursework); err != nil {
		return models.Coursework{}, apperr.Refine(err, apperr.Rule{From: []apperr.Kind{apperr.KindBadRequest}, To: apperr.KindValidation})
	}
	return coursework, nil
}

// Delete removes a coursework.
func (c *Courseworks) Delete(ctx context.Context, id uint) error {
	return c.transport.Delete(ctx, idPath("/courseworks", id))
}

// Assign claims a coursework for a student.
func (c *Courseworks) Assign(ctx context.Context, courseworkID, studentID uint) (models.StudentCoursework, error) {
	var assignment models.StudentCoursework
	body := dto.AssignStudentRequest{StudentID: studentID, CourseworkID: courseworkID}
	if err := c.transport.Post(ctx, idPath("/courseworks", courseworkID, "assign"), body, &assignment); err != nil {
		return models.StudentCoursework{}, apperr.Refine(err, assignRules...)
	}
	return assignment, nil
}

// CurrentAssignment returns the caller's assignment. A 404 is the normal
// "nothing claimed yet" state and yields (nil, nil).
func (c *Courseworks) CurrentAssignment(ctx context.Context) (*models.StudentCoursework, error) {
	var assignment models.StudentCoursework
	if err := c.transport.Get(ctx, "/student-courseworks", nil, &assignment); err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &assignment, nil
}

// SetAvailability toggles whether a coursework can be claimed.
func (c *Courseworks) SetAvailability(ctx context.Context, id uint, available bool) error {
	return c.transport.Put(ctx, idPath("/courseworks", id, "availability"), dto.AvailabilityRequest{IsAvailable: available}, nil)
}
