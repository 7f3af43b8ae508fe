package service

import (
	"context"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/courseforge-portal/internal/dto"
	"github.com/noah-isme/courseforge-portal/internal/models"
)

const (
	statsUserLimit    = 1000
	teacherPickerSize = 100
)

// UsersAPI lists user accounts.
type UsersAPI interface {
	List(ctx context.Context, req dto.ListUsersRequest) (dto.UserListResponse, error)
}

// AdminTotals summarises the platform for the admin dashboard.
type AdminTotals struct {
	Users    int `json:"users"`
	Teachers int `json:"teachers"`
	Students int `json:"students"`
	Subjects int `json:"subjects"`
}

// SubjectStat is one row of the admin subject table.
type SubjectStat struct {
	SubjectID     uint   `json:"subject_id"`
	Subject       string `json:"subject"`
	Code          string `json:"code"`
	Semester      int    `json:"semester"`
	TeachersCount int    `json:"teachers_count"`
}

// AdminOverview is the joined result of the admin statistics fetch.
type AdminOverview struct {
	Totals   AdminTotals
	Subjects []SubjectStat
}

// SubjectsWithTeachers backs the subject management view.
type SubjectsWithTeachers struct {
	Subjects []models.Subject
	Teachers []models.User
}

// AdminStats aggregates users and subjects for administrators.
type AdminStats interface {
	Load(ctx context.Context) (AdminOverview, error)
	SubjectsWithTeachers(ctx context.Context) (SubjectsWithTeachers, error)
}

type adminStats struct {
	users    UsersAPI
	subjects SubjectsAPI
	logger   zerolog.Logger
	tracer   trace.Tracer
}

// NewAdminStats constructs the admin aggregator.
func NewAdminStats(users UsersAPI, subjects SubjectsAPI, logger zerolog.Logger) AdminStats {
	return &adminStats{
		users:    users,
		subjects: subjects,
		logger:   logger.With().Str("component", "admin_stats").Logger(),
		tracer:   otel.Tracer("github.com/noah-isme/courseforge-portal/internal/service/admin"),
	}
}

// Load fetches users and subjects in parallel and joins them before aggregating.
func (s *adminStats) Load(ctx context.Context) (AdminOverview, error) {
	ctx, span := s.tracer.Start(ctx, "admin.stats")
	defer span.End()

	var (
		users    dto.UserListResponse
		subjects []models.Subject
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		users, err = s.users.List(groupCtx, dto.ListUsersRequest{Limit: statsUserLimit})
		return err
	})
	group.Go(func() error {
		var err error
		subjects, err = s.subjects.List(groupCtx)
		return err
	})
	if err := group.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "admin_stats_failed")
		s.logger.Warn().Err(err).Msg("failed to load admin statistics")
		return AdminOverview{}, err
	}

	overview := AdminOverview{Subjects: make([]SubjectStat, 0, len(subjects))}
	overview.Totals.Users = len(users.Users)
	if users.Total > int64(overview.Totals.Users) {
		overview.Totals.Users = int(users.Total)
	}
	for _, user := range users.Users {
		switch user.Role {
		case models.RoleTeacher:
			overview.Totals.Teachers++
		case models.RoleStudent:
			overview.Totals.Students++
		}
	}
	overview.Totals.Subjects = len(subjects)
	for _, subject := range subjects {
		overview.Subjects = append(overview.Subjects, SubjectStat{
			SubjectID:     subject.ID,
			Subject:       subject.Name,
			Code:          subject.Code,
			Semester:      subject.Semester,
			TeachersCount: len(subject.Teachers),
		})
	}

	span.SetAttributes(
		attribute.Int("admin.users", overview.Totals.Users),
		attribute.Int("admin.subjects", overview.Totals.Subjects),
	)
	return overview, nil
}

// SubjectsWithTeachers loads the subject catalog and the teacher picker together.
func (s *adminStats) SubjectsWithTeachers(ctx context.Context) (SubjectsWithTeachers, error) {
	ctx, span := s.tracer.Start(ctx, "admin.subjects_with_teachers")
	defer span.End()

	var result SubjectsWithTeachers
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		subjects, err := s.subjects.List(groupCtx)
		result.Subjects = subjects
		return err
	})
	group.Go(func() error {
		resp, err := s.users.List(groupCtx, dto.ListUsersRequest{Role: models.RoleTeacher, Limit: teacherPickerSize})
		result.Teachers = resp.Users
		return err
	})
	if err := group.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "subjects_with_teachers_failed")
		return SubjectsWithTeachers{}, err
	}
	if result.Subjects == nil {
		result.Subjects = []models.Subject{}
	}
	if result.Teachers == nil {
		result.Teachers = []models.User{}
	}
	return result, nil
}
