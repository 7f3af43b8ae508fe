package api_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/courseforge-portal/internal/api"
	"github.com/noah-isme/courseforge-portal/internal/apperr"
	"github.com/noah-isme/courseforge-portal/internal/dto"
	"github.com/noah-isme/courseforge-portal/internal/httpclient"
	"github.com/noah-isme/courseforge-portal/internal/models"
)

type recorded struct {
	method string
	path   string
	query  string
	body   map[string]interface{}
}

func newBackend(t *testing.T, handler func(w http.ResponseWriter, r recorded)) (*httpclient.Client, *[]recorded) {
	t.Helper()
	calls := &[]recorded{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorded{method: r.Method, path: r.URL.Path, query: r.URL.RawQuery}
		raw, _ := io.ReadAll(r.Body)
		if len(raw) > 0 {
			_ = json.Unmarshal(raw, &rec.body)
		}
		*calls = append(*calls, rec)
		w.Header().Set("Content-Type", "application/json")
		handler(w, rec)
	}))
	t.Cleanup(server.Close)

	client, err := httpclient.New(httpclient.Config{BaseURL: server.URL + "/api/v1", Timeout: 2 * time.Second}, zerolog.Nop())
	require.NoError(t, err)
	return client, calls
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func TestAuthLoginMapsInvalidCredentials(t *testing.T) {
	client, _ := newBackend(t, func(w http.ResponseWriter, r recorded) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
	})

	_, err := api.NewAuth(client).Login(context.Background(), dto.LoginRequest{Email: "a@b.c", Password: "nope"})
	require.True(t, apperr.Is(err, apperr.KindInvalidCredentials))
	require.Equal(t, "invalid credentials", apperr.MessageOf(err, ""))
}

func TestAuthLoginReturnsTokenAndUser(t *testing.T) {
	client, calls := newBackend(t, func(w http.ResponseWriter, r recorded) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"token":      "jwt",
			"expires_at": 1700000000,
			"user":       map[string]interface{}{"id": 7, "email": "s@example.com", "role": "student"},
		})
	})

	resp, err := api.NewAuth(client).Login(context.Background(), dto.LoginRequest{Email: "s@example.com", Password: "secret"})
	require.NoError(t, err)
	require.Equal(t, "jwt", resp.Token)
	require.Equal(t, uint(7), resp.User.ID)
	require.Equal(t, models.RoleStudent, resp.User.Role)
	require.Equal(t, "/api/v1/auth/login", (*calls)[0].path)
	require.Equal(t, "s@example.com", (*calls)[0].body["email"])
}

func TestAuthRegisterMapsDuplicateEmail(t *testing.T) {
	client, _ := newBackend(t, func(w http.ResponseWriter, r recorded) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "user already exists"})
	})

	_, err := api.NewAuth(client).Register(context.Background(), dto.RegisterRequest{Email: "dup@example.com"})
	require.True(t, apperr.Is(err, apperr.KindDuplicateEmail))
}

func TestAuthRefreshSendsToken(t *testing.T) {
	client, calls := newBackend(t, func(w http.ResponseWriter, r recorded) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"token": "fresh", "expires_at": 1800000000})
	})

	resp, err := api.NewAuth(client).Refresh(context.Background(), "stale")
	require.NoError(t, err)
	require.Equal(t, "fresh", resp.Token)
	require.Equal(t, "stale", (*calls)[0].body["token"])
}

func TestCourseworksListEncodesFilters(t *testing.T) {
	client, calls := newBackend(t, func(w http.ResponseWriter, r recorded) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"courseworks": []interface{}{map[string]interface{}{"id": 1, "title": "Compiler"}}, "total": 1})
	})

	subject := uint(4)
	available := true
	resp, err := api.NewCourseworks(client).List(context.Background(), dto.ListCourseworksRequest{SubjectID: &subject, Available: &available, Limit: 10})
	require.NoError(t, err)
	require.Len(t, resp.Courseworks, 1)
	require.Equal(t, int64(1), resp.Total)
	require.Equal(t, "available=true&limit=10&subject_id=4", (*calls)[0].query)
}

func TestCourseworksAvailableNeverNil(t *testing.T) {
	client, _ := newBackend(t, func(w http.ResponseWriter, r recorded) {
		_, _ = w.Write([]byte(`null`))
	})

	courseworks, err := api.NewCourseworks(client).Available(context.Background())
	require.NoError(t, err)
	require.NotNil(t, courseworks)
	require.Empty(t, courseworks)
}

func TestCourseworksAssignRefinesBackendRejections(t *testing.T) {
	cases := []struct {
		message string
		want    apperr.Kind
	}{
		{message: "student already has an assigned coursework", want: apperr.KindAlreadyAssigned},
		{message: "no slots available for this coursework", want: apperr.KindNotAvailable},
		{message: "something else", want: apperr.KindBadRequest},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(string(tc.want), func(t *testing.T) {
			client, calls := newBackend(t, func(w http.ResponseWriter, r recorded) {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": tc.message})
			})

			_, err := api.NewCourseworks(client).Assign(context.Background(), 5, 9)
			require.True(t, apperr.Is(err, tc.want))
			require.Equal(t, "/api/v1/courseworks/5/assign", (*calls)[0].path)
			require.EqualValues(t, 9, (*calls)[0].body["student_id"])
			require.EqualValues(t, 5, (*calls)[0].body["coursework_id"])
		})
	}
}

func TestCurrentAssignmentTreatsNotFoundAsNone(t *testing.T) {
	client, _ := newBackend(t, func(w http.ResponseWriter, r recorded) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no coursework assigned"})
	})

	assignment, err := api.NewCourseworks(client).CurrentAssignment(context.Background())
	require.NoError(t, err)
	require.Nil(t, assignment)
}

func TestCurrentAssignmentSurfacesOtherFailures(t *testing.T) {
	client, _ := newBackend(t, func(w http.ResponseWriter, r recorded) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "database down"})
	})

	assignment, err := api.NewCourseworks(client).CurrentAssignment(context.Background())
	require.Nil(t, assignment)
	require.True(t, apperr.Is(err, apperr.KindRequestFailure))
}

func TestCourseworksSetAvailabilityBody(t *testing.T) {
	client, calls := newBackend(t, func(w http.ResponseWriter, r recorded) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
	})

	require.NoError(t, api.NewCourseworks(client).SetAvailability(context.Background(), 3, false))
	require.Equal(t, http.MethodPut, (*calls)[0].method)
	require.Equal(t, "/api/v1/courseworks/3/availability", (*calls)[0].path)
	require.Equal(t, false, (*calls)[0].body["is_available"])
}

func TestSubjectsTeacherRoutes(t *testing.T) {
	client, calls := newBackend(t, func(w http.ResponseWriter, r recorded) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
	})

	subjects := api.NewSubjects(client)
	require.NoError(t, subjects.AssignTeacher(context.Background(), 2, dto.AssignTeacherRequest{TeacherID: 8, AcademicYear: "2024-2025"}))
	require.NoError(t, subjects.RemoveTeacher(context.Background(), 2, 8))
	require.NoError(t, subjects.SetLeadTeacher(context.Background(), 2, 8))

	require.Equal(t, "/api/v1/subjects/2/teachers", (*calls)[0].path)
	require.Equal(t, "2024-2025", (*calls)[0].body["academic_year"])
	require.Equal(t, http.MethodDelete, (*calls)[1].method)
	require.Equal(t, "/api/v1/subjects/2/teachers/8", (*calls)[1].path)
	require.Equal(t, "/api/v1/subjects/2/lead-teacher", (*calls)[2].path)
}

func TestUsersListEncodesRole(t *testing.T) {
	client, calls := newBackend(t, func(w http.ResponseWriter, r recorded) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"users": []interface{}{}, "total": 42})
	})

	resp, err := api.NewUsers(client).List(context.Background(), dto.ListUsersRequest{Role: models.RoleTeacher, Limit: 1000})
	require.NoError(t, err)
	require.Equal(t, int64(42), resp.Total)
	require.Equal(t, "limit=1000&role=teacher", (*calls)[0].query)
}

func TestDepartmentsGroups(t *testing.T) {
	client, calls := newBackend(t, func(w http.ResponseWriter, r recorded) {
		writeJSON(w, http.StatusOK, []map[string]interface{}{{"id": 1, "group_code": "CS-21", "course_year": 3}})
	})

	groups, err := api.NewDepartments(client).Groups(context.Background(), 6)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	require.Equal(t, "CS-21", groups[0].Code)
	require.Equal(t, "/api/v1/departments/6/groups", (*calls)[0].path)
}
