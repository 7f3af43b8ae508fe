package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/courseforge-portal/internal/apperr"
	"github.com/noah-isme/courseforge-portal/internal/dto"
	"github.com/noah-isme/courseforge-portal/internal/models"
	"github.com/noah-isme/courseforge-portal/internal/observability"
)

// CourseworkAPI is the backend surface used by the coursework state.
type CourseworkAPI interface {
	List(ctx context.Context, req dto.ListCourseworksRequest) (dto.CourseworkListResponse, error)
	Available(ctx context.Context) ([]models.Coursework, error)
	Create(ctx context.Context, req dto.CreateCourseworkRequest) (models.Coursework, error)
	Update(ctx context.Context, id uint, req dto.UpdateCourseworkRequest) (models.Coursework, error)
	Delete(ctx context.Context, id uint) error
	Assign(ctx context.Context, courseworkID, studentID uint) (models.StudentCoursework, error)
	CurrentAssignment(ctx context.Context) (*models.StudentCoursework, error)
	SetAvailability(ctx context.Context, id uint, available bool) error
}

// SessionReader exposes the active session.
type SessionReader interface {
	Current() (models.Session, bool)
}

// CourseworkSnapshot is a consistent copy of the coursework state.
type CourseworkSnapshot struct {
	UserID      uint
	Role        models.UserRole
	Courseworks []models.Coursework
	Total       int64
	Loaded      bool
	Loading     bool
	Error       string
	// HasAssignment is derived on every student load. When AssignmentTrusted is
	// false the last probe failed and the flag is the previous known value.
	HasAssignment     bool
	AssignedID        uint
	Assignment        *models.StudentCoursework
	AssignmentTrusted bool
	Claiming          uint
	Mutating          bool
	LoadedAt          time.Time
}

// CourseworkState loads courseworks for the session user and performs mutations,
// re-reading the list from the backend after each write.
type CourseworkState interface {
	Load(ctx context.Context) (CourseworkSnapshot, error)
	Snapshot() CourseworkSnapshot
	Assign(ctx context.Context, courseworkID uint) (models.StudentCoursework, error)
	Create(ctx context.Context, req dto.CreateCourseworkRequest) (models.Coursework, error)
	Update(ctx context.Context, id uint, req dto.UpdateCourseworkRequest) (models.Coursework, error)
	Delete(ctx context.Context, id uint) error
	SetAvailability(ctx context.Context, id uint, available bool) error
}

type courseworkState struct {
	api       CourseworkAPI
	session   SessionReader
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time

	mu         sync.Mutex
	state      CourseworkSnapshot
	generation uint64
}

// NewCourseworkState binds the coursework state to a session.
func NewCourseworkState(api CourseworkAPI, session SessionReader, validate *validator.Validate, logger zerolog.Logger) CourseworkState {
	return &courseworkState{
		api:       api,
		session:   session,
		validator: validate,
		logger:    logger.With().Str("component", "coursework_state").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/courseforge-portal/internal/service/coursework"),
		now:       time.Now,
	}
}

func (s *courseworkState) Snapshot() CourseworkSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyLocked()
}

func (s *courseworkState) copyLocked() CourseworkSnapshot {
	snapshot := s.state
	snapshot.Courseworks = append([]models.Coursework(nil), s.state.Courseworks...)
	if snapshot.Courseworks == nil {
		snapshot.Courseworks = []models.Coursework{}
	}
	if s.state.Assignment != nil {
		assignment := *s.state.Assignment
		snapshot.Assignment = &assignment
	}
	return snapshot
}

// bindLocked resets the state when the session user changed since the last call.
func (s *courseworkState) bindLocked(user models.User) {
	if s.state.UserID == user.ID && s.state.Role == user.Role {
		return
	}
	s.generation++
	s.state = CourseworkSnapshot{UserID: user.ID, Role: user.Role}
}

func (s *courseworkState) currentUser() (models.User, error) {
	current, ok := s.session.Current()
	if !ok {
		s.mu.Lock()
		s.generation++
		s.state = CourseworkSnapshot{}
		s.mu.Unlock()
		return models.User{}, apperr.New(apperr.KindNoSession, "")
	}
	return current.User, nil
}

type loadResult struct {
	courseworks []models.Coursework
	total       int64
	listErr     error
	probed      bool
	assignment  *models.StudentCoursework
	probeErr    error
}

func (s *courseworkState) Load(ctx context.Context) (CourseworkSnapshot, error) {
	ctx, span := s.tracer.Start(ctx, "coursework.load")
	defer span.End()

	user, err := s.currentUser()
	if err != nil {
		return CourseworkSnapshot{}, err
	}
	span.SetAttributes(attribute.String("session.role", string(user.Role)), attribute.Int64("session.user_id", int64(user.ID)))

	if user.Role != models.RoleStudent && !user.Role.CanManageCourseworks() {
		err := apperr.New(apperr.KindForbidden, "unsupported role")
		span.SetStatus(codes.Error, "unsupported_role")
		return s.Snapshot(), err
	}

	s.mu.Lock()
	s.bindLocked(user)
	s.generation++
	generation := s.generation
	s.state.Loading = true
	s.mu.Unlock()

	var result loadResult
	if user.Role == models.RoleStudent {
		result = s.fetchStudent(ctx)
	} else {
		result = s.fetchManaged(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if generation != s.generation {
		span.SetAttributes(attribute.Bool("coursework.superseded", true))
		return s.copyLocked(), apperr.New(apperr.KindCanceled, "superseded by a newer load")
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		s.state.Loading = false
		return s.copyLocked(), apperr.Wrap(apperr.KindCanceled, "", ctxErr)
	}

	s.state.Loading = false
	s.state.Error = ""

	if result.listErr != nil {
		span.RecordError(result.listErr)
		span.SetStatus(codes.Error, "list_courseworks_failed")
		s.state.Error = apperr.MessageOf(result.listErr, "failed to load courseworks")
		s.logger.Warn().Err(result.listErr).Uint("user_id", user.ID).Msg("failed to load courseworks")
	} else {
		s.state.Courseworks = result.courseworks
		s.state.Total = result.total
		s.state.Loaded = true
		s.state.LoadedAt = s.now()
	}

	if result.probed {
		if result.probeErr != nil {
			span.RecordError(result.probeErr)
			s.state.AssignmentTrusted = false
			if s.state.Error == "" {
				s.state.Error = apperr.MessageOf(result.probeErr, "failed to load your assignment")
			}
			s.logger.Warn().Err(result.probeErr).Uint("user_id", user.ID).Msg("assignment probe failed")
		} else {
			s.applyAssignmentLocked(result.assignment)
		}
	}

	snapshot := s.copyLocked()
	if result.listErr != nil {
		return snapshot, result.listErr
	}
	return snapshot, result.probeErr
}

func (s *courseworkState) applyAssignmentLocked(assignment *models.StudentCoursework) {
	s.state.AssignmentTrusted = true
	s.state.Assignment = assignment
	if assignment == nil {
		s.state.HasAssignment = false
		s.state.AssignedID = 0
		return
	}
	s.state.HasAssignment = true
	s.state.AssignedID = assignment.Coursework.ID
}

// fetchStudent issues the available list and the assignment probe concurrently.
// A probe failure does not cancel the list request.
func (s *courseworkState) fetchStudent(ctx context.Context) loadResult {
	var (
		result loadResult
		group  errgroup.Group
	)
	result.probed = true

	group.Go(func() error {
		courseworks, err := s.api.Available(ctx)
		if err != nil {
			result.listErr = err
			return err
		}
		result.courseworks = courseworks
		result.total = int64(len(courseworks))
		return nil
	})
	group.Go(func() error {
		assignment, err := s.api.CurrentAssignment(ctx)
		result.assignment = assignment
		result.probeErr = err
		return nil
	})
	_ = group.Wait()

	return result
}

func (s *courseworkState) fetchManaged(ctx context.Context) loadResult {
	resp, err := s.api.List(ctx, dto.ListCourseworksRequest{})
	if err != nil {
		return loadResult{listErr: err}
	}
	return loadResult{courseworks: resp.Courseworks, total: resp.Total}
}

func (s *courseworkState) Assign(ctx context.Context, courseworkID uint) (models.StudentCoursework, error) {
	ctx, span := s.tracer.Start(ctx, "coursework.assign")
	span.SetAttributes(attribute.Int64("coursework.id", int64(courseworkID)))
	defer span.End()

	user, err := s.currentUser()
	if err != nil {
		return models.StudentCoursework{}, err
	}
	if user.Role != models.RoleStudent {
		return models.StudentCoursework{}, apperr.New(apperr.KindForbidden, "only students can claim courseworks")
	}

	s.mu.Lock()
	s.bindLocked(user)
	if rejection := s.rejectClaimLocked(courseworkID); rejection != nil {
		s.mu.Unlock()
		observability.CourseworkMutations().WithLabelValues("assign", string(rejection.Kind)).Inc()
		span.SetStatus(codes.Error, string(rejection.Kind))
		return models.StudentCoursework{}, rejection
	}
	s.state.Claiming = courseworkID
	s.state.Mutating = true
	s.mu.Unlock()

	assignment, err := s.api.Assign(ctx, courseworkID, user.ID)

	s.mu.Lock()
	s.state.Claiming = 0
	s.state.Mutating = false
	if err != nil {
		s.state.Error = apperr.MessageOf(err, "failed to claim coursework")
		s.mu.Unlock()
		observability.CourseworkMutations().WithLabelValues("assign", string(apperr.KindOf(err))).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "assign_failed")
		s.logger.Warn().Err(err).Uint("coursework_id", courseworkID).Uint("student_id", user.ID).Msg("claim rejected")
		return models.StudentCoursework{}, err
	}
	s.state.Error = ""
	s.state.HasAssignment = true
	s.state.AssignedID = courseworkID
	s.state.AssignmentTrusted = true
	if assignment.Coursework.ID == 0 {
		assignment.Coursework.ID = courseworkID
	}
	s.state.Assignment = &assignment
	s.mu.Unlock()

	observability.CourseworkMutations().WithLabelValues("assign", "ok").Inc()
	s.logger.Info().Uint("coursework_id", courseworkID).Uint("student_id", user.ID).Msg("coursework claimed")

	s.reload(ctx)
	return assignment, nil
}

func (s *courseworkState) rejectClaimLocked(courseworkID uint) *apperr.Error {
	if s.state.Claiming != 0 {
		return apperr.New(apperr.KindAlreadyAssigned, "a claim is already in progress")
	}
	if s.state.Mutating {
		return apperr.New(apperr.KindInFlight, "another change is in progress")
	}
	if s.state.HasAssignment && s.state.AssignmentTrusted {
		return apperr.New(apperr.KindAlreadyAssigned, "student already has an assigned coursework")
	}
	for _, coursework := range s.state.Courseworks {
		if coursework.ID == courseworkID && !coursework.IsAvailable {
			return apperr.New(apperr.KindNotAvailable, "coursework is not available")
		}
	}
	return nil
}

func (s *courseworkState) Create(ctx context.Context, req dto.CreateCourseworkRequest) (models.Coursework, error) {
	ctx, span := s.tracer.Start(ctx, "coursework.create")
	defer span.End()

	user, err := s.manager()
	if err != nil {
		return models.Coursework{}, err
	}

	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	if req.TeacherID == 0 {
		req.TeacherID = user.ID
	}
	if req.Difficulty == "" {
		req.Difficulty = models.DifficultyMedium
	}
	if req.MaxStudents == 0 {
		req.MaxStudents = 1
	}
	if err := dto.Validate(s.validator, req); err != nil {
		s.storeError(err, "")
		observability.CourseworkMutations().WithLabelValues("create", string(apperr.KindValidation)).Inc()
		return models.Coursework{}, err
	}

	var created models.Coursework
	err = s.mutate(ctx, span, "create", func(ctx context.Context) error {
		var callErr error
		created, callErr = s.api.Create(ctx, req)
		return callErr
	})
	return created, err
}

// trimmed copies value without surrounding whitespace; length rules apply to
// the trimmed text.
func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	text := strings.TrimSpace(*value)
	return &text
}

func (s *courseworkState) Update(ctx context.Context, id uint, req dto.UpdateCourseworkRequest) (models.Coursework, error) {
	ctx, span := s.tracer.Start(ctx, "coursework.update")
	span.SetAttributes(attribute.Int64("coursework.id", int64(id)))
	defer span.End()

	if _, err := s.manager(); err != nil {
		return models.Coursework{}, err
	}
	req.Title = trimmed(req.Title)
	req.Description = trimmed(req.Description)
	if err := dto.Validate(s.validator, req); err != nil {
		s.storeError(err, "")
		observability.CourseworkMutations().WithLabelValues("update", string(apperr.KindValidation)).Inc()
		return models.Coursework{}, err
	}

	var updated models.Coursework
	err := s.mutate(ctx, span, "update", func(ctx context.Context) error {
		var callErr error
		updated, callErr = s.api.Update(ctx, id, req)
		return callErr
	})
	return updated, err
}

func (s *courseworkState) Delete(ctx context.Context, id uint) error {
	ctx, span := s.tracer.Start(ctx, "coursework.delete")
	span.SetAttributes(attribute.Int64("coursework.id", int64(id)))
	defer span.End()

	if _, err := s.manager(); err != nil {
		return err
	}
	return s.mutate(ctx, span, "delete", func(ctx context.Context) error {
		return s.api.Delete(ctx, id)
	})
}

func (s *courseworkState) SetAvailability(ctx context.Context, id uint, available bool) error {
	ctx, span := s.tracer.Start(ctx, "coursework.availability")
	span.SetAttributes(attribute.Int64("coursework.id", int64(id)), attribute.Bool("coursework.available", available))
	defer span.End()

	if _, err := s.manager(); err != nil {
		return err
	}
	return s.mutate(ctx, span, "availability", func(ctx context.Context) error {
		return s.api.SetAvailability(ctx, id, available)
	})
}

func (s *courseworkState) manager() (models.User, error) {
	user, err := s.currentUser()
	if err != nil {
		return models.User{}, err
	}
	if !user.Role.CanManageCourseworks() {
		return models.User{}, apperr.New(apperr.KindForbidden, "only teachers and admins can manage courseworks")
	}
	s.mu.Lock()
	s.bindLocked(user)
	s.mu.Unlock()
	return user, nil
}

// mutate runs call with the double-submit guard held and reloads afterwards,
// whether or not the call succeeded.
func (s *courseworkState) mutate(ctx context.Context, span trace.Span, operation string, call func(ctx context.Context) error) error {
	s.mu.Lock()
	if s.state.Mutating {
		s.mu.Unlock()
		observability.CourseworkMutations().WithLabelValues(operation, string(apperr.KindInFlight)).Inc()
		return apperr.New(apperr.KindInFlight, "another change is in progress")
	}
	s.state.Mutating = true
	s.mu.Unlock()

	err := call(ctx)

	s.mu.Lock()
	s.state.Mutating = false
	s.mu.Unlock()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, operation+"_failed")
		s.storeError(err, "failed to save coursework")
		observability.CourseworkMutations().WithLabelValues(operation, string(apperr.KindOf(err))).Inc()
		s.logger.Warn().Err(err).Str("operation", operation).Msg("coursework mutation failed")
	} else {
		observability.CourseworkMutations().WithLabelValues(operation, "ok").Inc()
		s.logger.Info().Str("operation", operation).Msg("coursework mutation applied")
	}

	s.reload(ctx)

	if err != nil {
		s.storeError(err, "failed to save coursework")
	}
	return err
}

func (s *courseworkState) reload(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := s.Load(ctx); err != nil && !apperr.Is(err, apperr.KindCanceled) {
		s.logger.Debug().Err(err).Msg("reload after mutation failed")
	}
}

func (s *courseworkState) storeError(err error, fallback string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Error = apperr.MessageOf(err, fallback)
}
