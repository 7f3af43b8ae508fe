package service

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/courseforge-portal/internal/apperr"
	"github.com/noah-isme/courseforge-portal/internal/models"
)

// SubjectsAPI lists the subject catalog.
type SubjectsAPI interface {
	List(ctx context.Context) ([]models.Subject, error)
}

// SubjectsSnapshot is a copy of the cached subject list.
type SubjectsSnapshot struct {
	Subjects []models.Subject
	Loaded   bool
	Loading  bool
	Error    string
}

// SubjectsState caches the subject catalog between explicit reloads.
type SubjectsState interface {
	Load(ctx context.Context) (SubjectsSnapshot, error)
	Reload(ctx context.Context) (SubjectsSnapshot, error)
	Snapshot() SubjectsSnapshot
	TeachableBy(teacherID uint) []models.Subject
}

type subjectsState struct {
	api    SubjectsAPI
	logger zerolog.Logger
	tracer trace.Tracer

	mu         sync.Mutex
	state      SubjectsSnapshot
	generation uint64
}

// NewSubjectsState constructs the subjects cache.
func NewSubjectsState(api SubjectsAPI, logger zerolog.Logger) SubjectsState {
	return &subjectsState{
		api:    api,
		logger: logger.With().Str("component", "subjects_state").Logger(),
		tracer: otel.Tracer("github.com/noah-isme/courseforge-portal/internal/service/subjects"),
	}
}

// Load fetches the catalog once; later calls return the cached copy.
func (s *subjectsState) Load(ctx context.Context) (SubjectsSnapshot, error) {
	s.mu.Lock()
	if s.state.Loaded {
		snapshot := s.copyLocked()
		s.mu.Unlock()
		return snapshot, nil
	}
	s.mu.Unlock()
	return s.Reload(ctx)
}

func (s *subjectsState) Reload(ctx context.Context) (SubjectsSnapshot, error) {
	ctx, span := s.tracer.Start(ctx, "subjects.reload")
	defer span.End()

	s.mu.Lock()
	s.generation++
	generation := s.generation
	s.state.Loading = true
	s.mu.Unlock()

	subjects, err := s.api.List(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if generation != s.generation {
		return s.copyLocked(), apperr.New(apperr.KindCanceled, "superseded by a newer load")
	}
	s.state.Loading = false
	if ctxErr := ctx.Err(); ctxErr != nil {
		return s.copyLocked(), apperr.Wrap(apperr.KindCanceled, "", ctxErr)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list_subjects_failed")
		s.state.Error = apperr.MessageOf(err, "failed to load subjects")
		s.logger.Warn().Err(err).Msg("failed to load subjects")
		return s.copyLocked(), err
	}

	span.SetAttributes(attribute.Int("subjects.count", len(subjects)))
	s.state.Subjects = subjects
	s.state.Loaded = true
	s.state.Error = ""
	return s.copyLocked(), nil
}

func (s *subjectsState) Snapshot() SubjectsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyLocked()
}

// TeachableBy returns the cached subjects the teacher is assigned to.
func (s *subjectsState) TeachableBy(teacherID uint) []models.Subject {
	s.mu.Lock()
	defer s.mu.Unlock()

	subjects := make([]models.Subject, 0, len(s.state.Subjects))
	for _, subject := range s.state.Subjects {
		if subject.HasTeacher(teacherID) {
			subjects = append(subjects, subject)
		}
	}
	return subjects
}

func (s *subjectsState) copyLocked() SubjectsSnapshot {
	snapshot := s.state
	snapshot.Subjects = append([]models.Subject{}, s.state.Subjects...)
	return snapshot
}
