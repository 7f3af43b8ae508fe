package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/courseforge-portal/internal/apperr"
	"github.com/noah-isme/courseforge-portal/internal/dto"
	"github.com/noah-isme/courseforge-portal/internal/handler"
	"github.com/noah-isme/courseforge-portal/internal/middleware"
	"github.com/noah-isme/courseforge-portal/internal/models"
	"github.com/noah-isme/courseforge-portal/internal/service"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Details json.RawMessage `json:"details"`
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}) (*http.Response, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var payload envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &payload))
	}
	return resp, payload
}

type stubSession struct {
	session    *models.Session
	loginErr   error
	loginCalls int
	logouts    int
}

func (s *stubSession) Login(_ context.Context, req dto.LoginRequest) (models.Session, error) {
	s.loginCalls++
	if s.loginErr != nil {
		return models.Session{}, s.loginErr
	}
	session := models.Session{User: models.User{ID: 5, Email: req.Email, Role: models.RoleStudent}, Token: "tok"}
	s.session = &session
	return session, nil
}

func (s *stubSession) Register(_ context.Context, req dto.RegisterRequest) (models.Session, error) {
	return models.Session{}, apperr.New(apperr.KindDuplicateEmail, "")
}

func (s *stubSession) Logout(context.Context) {
	s.logouts++
	s.session = nil
}

func (s *stubSession) RefreshProfile(context.Context) (models.User, error) {
	return models.User{}, apperr.New(apperr.KindNoSession, "")
}

func (s *stubSession) RefreshToken(context.Context) (models.Session, error) {
	return models.Session{}, apperr.New(apperr.KindNoSession, "")
}

func (s *stubSession) ChangePassword(context.Context, dto.ChangePasswordRequest) error { return nil }

func (s *stubSession) ResetPassword(context.Context, string) error { return nil }

func (s *stubSession) Current() (models.Session, bool) {
	if s.session == nil {
		return models.Session{}, false
	}
	return *s.session, true
}

func (s *stubSession) Expire(context.Context) { s.session = nil }

func (s *stubSession) Token() string {
	if s.session == nil {
		return ""
	}
	return s.session.Token
}

var _ handler.SessionManager = (*stubSession)(nil)

func newAuthApp(session *stubSession) *fiber.App {
	app := fiber.New()
	app.Use(middleware.Locale("en"))
	handler.NewAuthHandler(session, zerolog.Nop()).Register(app, nil)
	return app
}

func TestAuthHandlerLoginSuccess(t *testing.T) {
	session := &stubSession{}
	app := newAuthApp(session)

	resp, payload := doJSON(t, app, http.MethodPost, "/login", map[string]string{"email": " anna@example.com ", "password": "secret"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.True(t, payload.Success)

	var data handler.SessionView
	require.NoError(t, json.Unmarshal(payload.Data, &data))
	require.Equal(t, "anna@example.com", data.User.Email)
	require.Equal(t, 1, session.loginCalls)
}

func TestAuthHandlerLoginInvalidCredentials(t *testing.T) {
	session := &stubSession{loginErr: apperr.New(apperr.KindInvalidCredentials, "invalid credentials")}
	app := newAuthApp(session)

	resp, payload := doJSON(t, app, http.MethodPost, "/login", map[string]string{"email": "anna@example.com", "password": "wrong"})
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	require.False(t, payload.Success)
	require.Equal(t, "invalid credentials", payload.Message)
}

func TestAuthHandlerLoginValidationDetails(t *testing.T) {
	session := &stubSession{loginErr: apperr.Validation(apperr.FieldError{Field: "email", Message: "email is required"})}
	app := newAuthApp(session)

	resp, payload := doJSON(t, app, http.MethodPost, "/login", map[string]string{})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var fields []apperr.FieldError
	require.NoError(t, json.Unmarshal(payload.Details, &fields))
	require.Equal(t, "email", fields[0].Field)
}

func TestAuthHandlerRegisterDuplicateEmailUsesCatalog(t *testing.T) {
	app := newAuthApp(&stubSession{})

	resp, payload := doJSON(t, app, http.MethodPost, "/register?lang=en", map[string]string{"email": "anna@example.com"})
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
	require.NotEmpty(t, payload.Message)
}

func TestAuthHandlerLoginFormRendersForUnknownRole(t *testing.T) {
	session := &stubSession{session: &models.Session{User: models.User{ID: 1, Role: "guest"}, Token: "tok"}}
	app := newAuthApp(session)

	for _, path := range []string{"/login", "/register"} {
		resp, payload := doJSON(t, app, http.MethodGet, path, nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode, path)
		require.True(t, payload.Success)
	}
}

func TestAuthHandlerLoginFormRedirectsWithSession(t *testing.T) {
	session := &stubSession{session: &models.Session{User: models.User{ID: 1, Role: models.RoleTeacher}, Token: "tok"}}
	app := newAuthApp(session)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/login", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	require.Equal(t, "/dashboard", resp.Header.Get("Location"))

	session.session = nil
	resp, payload := doJSON(t, app, http.MethodGet, "/register", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var form handler.FormDescriptor
	require.NoError(t, json.Unmarshal(payload.Data, &form))
	require.Equal(t, "/register", form.Action)
	require.Len(t, form.Fields, 5)
}

func TestAuthHandlerLogoutAndSession(t *testing.T) {
	session := &stubSession{session: &models.Session{User: models.User{ID: 1, Role: models.RoleStudent}, Token: "tok"}}
	app := newAuthApp(session)

	resp, _ := doJSON(t, app, http.MethodGet, "/session", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPost, "/logout", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, 1, session.logouts)

	resp, payload := doJSON(t, app, http.MethodGet, "/session", nil)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	require.False(t, payload.Success)
}

type stubCourseworkState struct {
	snapshot  service.CourseworkSnapshot
	loadErr   error
	assignErr error
	createErr error
	loads     int
	assigned  []uint
	created   []dto.CreateCourseworkRequest
	deleted   []uint
	toggled   map[uint]bool
}

func (s *stubCourseworkState) Load(context.Context) (service.CourseworkSnapshot, error) {
	s.loads++
	return s.snapshot, s.loadErr
}

func (s *stubCourseworkState) Snapshot() service.CourseworkSnapshot { return s.snapshot }

func (s *stubCourseworkState) Assign(_ context.Context, id uint) (models.StudentCoursework, error) {
	if s.assignErr != nil {
		return models.StudentCoursework{}, s.assignErr
	}
	s.assigned = append(s.assigned, id)
	s.snapshot.HasAssignment = true
	s.snapshot.AssignedID = id
	return models.StudentCoursework{ID: 1, Coursework: models.Coursework{ID: id}, Status: models.CourseworkStatusAssigned}, nil
}

func (s *stubCourseworkState) Create(_ context.Context, req dto.CreateCourseworkRequest) (models.Coursework, error) {
	if s.createErr != nil {
		return models.Coursework{}, s.createErr
	}
	s.created = append(s.created, req)
	return models.Coursework{ID: 77, Title: req.Title}, nil
}

func (s *stubCourseworkState) Update(_ context.Context, id uint, req dto.UpdateCourseworkRequest) (models.Coursework, error) {
	return models.Coursework{ID: id}, nil
}

func (s *stubCourseworkState) Delete(_ context.Context, id uint) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *stubCourseworkState) SetAvailability(_ context.Context, id uint, available bool) error {
	if s.toggled == nil {
		s.toggled = map[uint]bool{}
	}
	s.toggled[id] = available
	return nil
}

var _ service.CourseworkState = (*stubCourseworkState)(nil)

type stubAdminStats struct {
	overview service.AdminOverview
	data     service.SubjectsWithTeachers
	err      error
}

func (s *stubAdminStats) Load(context.Context) (service.AdminOverview, error) {
	return s.overview, s.err
}

func (s *stubAdminStats) SubjectsWithTeachers(context.Context) (service.SubjectsWithTeachers, error) {
	return s.data, s.err
}

func withUser(user models.User) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("user_id", user.ID)
		c.Locals("user_role", string(user.Role))
		c.Locals("session_user", user)
		return c.Next()
	}
}

type countingExpirer struct {
	expired int
}

func (e *countingExpirer) Expire(context.Context) { e.expired++ }

func newDashboardApp(user models.User, state *stubCourseworkState, admin *stubAdminStats) *fiber.App {
	return newDashboardAppWith(user, state, admin, &countingExpirer{})
}

func newDashboardAppWith(user models.User, state *stubCourseworkState, admin *stubAdminStats, expirer *countingExpirer) *fiber.App {
	app := fiber.New()
	app.Use(middleware.Locale("en"))
	handler.NewDashboardHandler(expirer, state, admin, zerolog.Nop()).Register(app.Group("/dashboard", withUser(user)))
	return app
}

func TestDashboardHandlerStudentView(t *testing.T) {
	state := &stubCourseworkState{snapshot: service.CourseworkSnapshot{
		Role:   models.RoleStudent,
		Loaded: true,
		Courseworks: []models.Coursework{
			{ID: 3, Title: "Library database", IsAvailable: true, Difficulty: models.DifficultyEasy},
		},
	}}
	app := newDashboardApp(models.User{ID: 9, Role: models.RoleStudent}, state, &stubAdminStats{})

	resp, payload := doJSON(t, app, http.MethodGet, "/dashboard", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var dashboard struct {
		Role  string `json:"role"`
		State string `json:"state"`
		Cards []struct {
			ID      uint `json:"id"`
			Actions []struct {
				Name    string `json:"name"`
				Enabled bool   `json:"enabled"`
			} `json:"actions"`
		} `json:"cards"`
	}
	require.NoError(t, json.Unmarshal(payload.Data, &dashboard))
	require.Equal(t, "student", dashboard.Role)
	require.Equal(t, "populated", dashboard.State)
	require.Len(t, dashboard.Cards, 1)
	require.Equal(t, "claim", dashboard.Cards[0].Actions[0].Name)
	require.True(t, dashboard.Cards[0].Actions[0].Enabled)
	require.Equal(t, 1, state.loads)
}

func TestDashboardHandlerRendersLoadErrorState(t *testing.T) {
	state := &stubCourseworkState{
		snapshot: service.CourseworkSnapshot{Role: models.RoleTeacher, Error: "backend unavailable"},
		loadErr:  apperr.New(apperr.KindRequestFailure, "backend unavailable"),
	}
	app := newDashboardApp(models.User{ID: 2, Role: models.RoleTeacher}, state, &stubAdminStats{})

	resp, payload := doJSON(t, app, http.MethodGet, "/dashboard", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var dashboard struct {
		State   string `json:"state"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(payload.Data, &dashboard))
	require.Equal(t, "error", dashboard.State)
	require.Equal(t, "backend unavailable", dashboard.Message)
}

func TestDashboardHandlerAdminOverview(t *testing.T) {
	admin := &stubAdminStats{overview: service.AdminOverview{
		Totals:   service.AdminTotals{Users: 3, Teachers: 1, Students: 1, Subjects: 1},
		Subjects: []service.SubjectStat{{SubjectID: 1, Subject: "Databases", Code: "DB", TeachersCount: 1}},
	}}
	state := &stubCourseworkState{}
	app := newDashboardApp(models.User{ID: 1, Role: models.RoleAdmin}, state, admin)

	resp, payload := doJSON(t, app, http.MethodGet, "/dashboard", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var dashboard struct {
		Role   string              `json:"role"`
		Totals service.AdminTotals `json:"totals"`
	}
	require.NoError(t, json.Unmarshal(payload.Data, &dashboard))
	require.Equal(t, "admin", dashboard.Role)
	require.Equal(t, 3, dashboard.Totals.Users)
	require.Equal(t, 0, state.loads)

	resp, payload = doJSON(t, app, http.MethodGet, "/dashboard?view=courseworks", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(payload.Data, &dashboard))
	require.Equal(t, "admin", dashboard.Role)
	require.Equal(t, 1, state.loads)
}

func TestDashboardHandlerUnknownRoleRedirects(t *testing.T) {
	expirer := &countingExpirer{}
	state := &stubCourseworkState{}
	app := newDashboardAppWith(models.User{ID: 4, Role: "guest"}, state, &stubAdminStats{}, expirer)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/dashboard", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	require.Equal(t, "/login", resp.Header.Get("Location"))
	require.Equal(t, 1, expirer.expired)
	require.Zero(t, state.loads)
}

func TestDashboardHandlerStopsOnSessionAndAccessErrors(t *testing.T) {
	cases := []struct {
		name   string
		role   models.UserRole
		kind   apperr.Kind
		status int
	}{
		{"student unauthorized", models.RoleStudent, apperr.KindUnauthorized, fiber.StatusFound},
		{"teacher without session", models.RoleTeacher, apperr.KindNoSession, fiber.StatusFound},
		{"admin unauthorized", models.RoleAdmin, apperr.KindUnauthorized, fiber.StatusFound},
		{"student forbidden", models.RoleStudent, apperr.KindForbidden, fiber.StatusForbidden},
		{"teacher canceled", models.RoleTeacher, apperr.KindCanceled, fiber.StatusRequestTimeout},
		{"admin forbidden", models.RoleAdmin, apperr.KindForbidden, fiber.StatusForbidden},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			loadErr := apperr.New(tc.kind, "load stopped")
			state := &stubCourseworkState{
				snapshot: service.CourseworkSnapshot{Role: tc.role, Error: "load stopped"},
				loadErr:  loadErr,
			}
			admin := &stubAdminStats{err: loadErr}
			app := newDashboardApp(models.User{ID: 8, Role: tc.role}, state, admin)

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/dashboard", nil), -1)
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)

			if tc.status == fiber.StatusFound {
				require.Equal(t, "/login", resp.Header.Get("Location"))
				return
			}
			var payload envelope
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
			require.False(t, payload.Success)
			require.Empty(t, payload.Data)
		})
	}
}

type stubCourseworkReader struct{}

func (stubCourseworkReader) Get(_ context.Context, id uint) (models.Coursework, error) {
	if id == 404 {
		return models.Coursework{}, apperr.New(apperr.KindNotFound, "project not found")
	}
	return models.Coursework{ID: id, Title: "Library database", IsAvailable: true}, nil
}

type stubSubjectsState struct {
	snapshot service.SubjectsSnapshot
}

func (s *stubSubjectsState) Load(context.Context) (service.SubjectsSnapshot, error) {
	return s.snapshot, nil
}

func (s *stubSubjectsState) Reload(context.Context) (service.SubjectsSnapshot, error) {
	return s.snapshot, nil
}

func (s *stubSubjectsState) Snapshot() service.SubjectsSnapshot { return s.snapshot }

func (s *stubSubjectsState) TeachableBy(teacherID uint) []models.Subject {
	var result []models.Subject
	for _, subject := range s.snapshot.Subjects {
		if subject.HasTeacher(teacherID) {
			result = append(result, subject)
		}
	}
	return result
}

func newCourseworkApp(user models.User, state *stubCourseworkState, subjects *stubSubjectsState) *fiber.App {
	app := fiber.New()
	app.Use(middleware.Locale("en"))
	group := app.Group("/courseworks", withUser(user))
	handler.NewCourseworkHandler(stubCourseworkReader{}, state, subjects, zerolog.Nop()).Register(group)
	return app
}

func TestCourseworkHandlerCreate(t *testing.T) {
	state := &stubCourseworkState{}
	app := newCourseworkApp(models.User{ID: 2, Role: models.RoleTeacher}, state, &stubSubjectsState{})

	resp, payload := doJSON(t, app, http.MethodPost, "/courseworks", dto.CreateCourseworkRequest{
		Title:       "Library database",
		Description: "Design a normalized schema for a library",
		SubjectID:   1,
		MaxStudents: 2,
		Difficulty:  models.DifficultyHard,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.True(t, payload.Success)
	require.Len(t, state.created, 1)
	require.Equal(t, uint(1), state.created[0].SubjectID)
}

func TestCourseworkHandlerCreateValidationFailure(t *testing.T) {
	state := &stubCourseworkState{createErr: apperr.Validation(
		apperr.FieldError{Field: "title", Message: "title must be at least 5 characters"},
	)}
	app := newCourseworkApp(models.User{ID: 2, Role: models.RoleTeacher}, state, &stubSubjectsState{})

	resp, payload := doJSON(t, app, http.MethodPost, "/courseworks", map[string]interface{}{"title": "DB"})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.False(t, payload.Success)

	var fields []apperr.FieldError
	require.NoError(t, json.Unmarshal(payload.Details, &fields))
	require.Equal(t, "title", fields[0].Field)
}

func TestCourseworkHandlerStudentCannotManage(t *testing.T) {
	state := &stubCourseworkState{}
	app := newCourseworkApp(models.User{ID: 9, Role: models.RoleStudent}, state, &stubSubjectsState{})

	resp, _ := doJSON(t, app, http.MethodDelete, "/courseworks/3", nil)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	require.Empty(t, state.deleted)
}

func TestCourseworkHandlerTeacherCannotClaim(t *testing.T) {
	state := &stubCourseworkState{}
	app := newCourseworkApp(models.User{ID: 2, Role: models.RoleTeacher}, state, &stubSubjectsState{})

	resp, _ := doJSON(t, app, http.MethodPost, "/courseworks/3/claim", nil)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	require.Empty(t, state.assigned)
}

func TestCourseworkHandlerClaim(t *testing.T) {
	state := &stubCourseworkState{snapshot: service.CourseworkSnapshot{Role: models.RoleStudent, Loaded: true}}
	app := newCourseworkApp(models.User{ID: 9, Role: models.RoleStudent}, state, &stubSubjectsState{})

	resp, payload := doJSON(t, app, http.MethodPost, "/courseworks/3/claim", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, []uint{3}, state.assigned)

	var data handler.ClaimResponse
	require.NoError(t, json.Unmarshal(payload.Data, &data))
	require.Equal(t, uint(3), data.Assignment.Coursework.ID)
	require.NotEmpty(t, data.Dashboard.Notice)
}

func TestCourseworkHandlerClaimRejected(t *testing.T) {
	state := &stubCourseworkState{assignErr: apperr.New(apperr.KindAlreadyAssigned, "student already has an assigned coursework")}
	app := newCourseworkApp(models.User{ID: 9, Role: models.RoleStudent}, state, &stubSubjectsState{})

	resp, payload := doJSON(t, app, http.MethodPost, "/courseworks/3/claim", nil)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
	require.Equal(t, "student already has an assigned coursework", payload.Message)
}

func TestCourseworkHandlerAvailabilityAndDetails(t *testing.T) {
	state := &stubCourseworkState{}
	app := newCourseworkApp(models.User{ID: 2, Role: models.RoleTeacher}, state, &stubSubjectsState{})

	resp, _ := doJSON(t, app, http.MethodPut, "/courseworks/5/availability", map[string]bool{"is_available": false})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, map[uint]bool{5: false}, state.toggled)

	resp, payload := doJSON(t, app, http.MethodGet, "/courseworks/5", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var card struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.Unmarshal(payload.Data, &card))
	require.Equal(t, uint(5), card.ID)

	resp, _ = doJSON(t, app, http.MethodGet, "/courseworks/404", nil)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodGet, "/courseworks/abc", nil)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestCourseworkHandlerFormListsTeachableSubjects(t *testing.T) {
	subjects := &stubSubjectsState{snapshot: service.SubjectsSnapshot{
		Loaded: true,
		Subjects: []models.Subject{
			{ID: 1, Name: "Databases", Code: "DB", Teachers: []models.User{{ID: 2}}},
			{ID: 2, Name: "Networks", Code: "NET"},
		},
	}}
	app := newCourseworkApp(models.User{ID: 2, Role: models.RoleTeacher}, &stubCourseworkState{}, subjects)

	resp, payload := doJSON(t, app, http.MethodGet, "/courseworks/form", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var form struct {
		State    string `json:"state"`
		Subjects []struct {
			ID    uint   `json:"id"`
			Label string `json:"label"`
		} `json:"subjects"`
	}
	require.NoError(t, json.Unmarshal(payload.Data, &form))
	require.Equal(t, "populated", form.State)
	require.Len(t, form.Subjects, 1)
	require.Equal(t, "Databases (DB)", form.Subjects[0].Label)
}
