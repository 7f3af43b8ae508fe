package api

import (
	"context"
	"strconv"

	"github.com/noah-isme/courseforge-portal/internal/dto"
	"github.com/noah-isme/courseforge-portal/internal/models"
)

// Subjects wraps the subject catalog endpoints.
type Subjects struct {
	transport Transport
}

// NewSubjects constructs the subjects module.
func NewSubjects(transport Transport) *Subjects {
	return &Subjects{transport: transport}
}

// List returns the subject catalog.
func (s *Subjects) List(ctx context.Context) ([]models.Subject, error) {
	subjects := []models.Subject{}
	if err := s.transport.Get(ctx, "/subjects", nil, &subjects); err != nil {
		return nil, err
	}
	if subjects == nil {
		subjects = []models.Subject{}
	}
	return subjects, nil
}

// Get returns one subject.
func (s *Subjects) Get(ctx context.Context, id uint) (models.Subject, error) {
	var subject models.Subject
	if err := s.transport.Get(ctx, idPath("/subjects", id), nil, &subject); err != nil {
		return models.Subject{}, err
	}
	return subject, nil
}

// Create adds a subject.
func (s *Subjects) Create(ctx context.Context, req dto.CreateSubjectRequest) (models.Subject, error) {
	var subject models.Subject
	if err := s.transport.Post(ctx, "/subjects", req, &subject); err != nil {
		return models.Subject{}, err
	}
	return subject, nil
}

// Update changes a subject.
func (s *Subjects) Update(ctx context.Context, id uint, req dto.UpdateSubjectRequest) (models.Subject, error) {
	var subject models.Subject
	if err := s.transport.Put(ctx, idPath("/subjects", id), req, &subject); err != nil {
		return models.Subject{}, err
	}
	return subject, nil
}

// Delete removes a subject.
func (s *Subjects) Delete(ctx context.Context, id uint) error {
	return s.transport.Delete(ctx, idPath("/subjects", id))
}

// AssignTeacher attaches a teacher to a subject.
func (s *Subjects) AssignTeacher(ctx context.Context, id uint, req dto.AssignTeacherRequest) error {
	return s.transport.Post(ctx, idPath("/subjects", id, "teachers"), req, nil)
}

// RemoveTeacher detaches a teacher from a subject.
func (s *Subjects) RemoveTeacher(ctx context.Context, id, teacherID uint) error {
	return s.transport.Delete(ctx, idPath("/subjects", id, "teachers", strconv.FormatUint(uint64(teacherID), 10)))
}

// SetLeadTeacher marks a teacher as the subject lead.
func (s *Subjects) SetLeadTeacher(ctx context.Context, id, teacherID uint) error {
	return s.transport.Put(ctx, idPath("/subjects", id, "lead-teacher"), dto.LeadTeacherRequest{TeacherID: teacherID}, nil)
}
