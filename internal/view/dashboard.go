package view

import (
	"github.com/noah-isme/courseforge-portal/internal/models"
	"github.com/noah-isme/courseforge-portal/internal/service"
)

// ListState is the render state of a list view. It is never blank.
type ListState string

const (
	StateLoading   ListState = "loading"
	StateError     ListState = "error"
	StateEmpty     ListState = "empty"
	StatePopulated ListState = "populated"
)

func listState(loading, loaded bool, errMessage string, count int) ListState {
	switch {
	case errMessage != "":
		return StateError
	case loading || !loaded:
		return StateLoading
	case count == 0:
		return StateEmpty
	default:
		return StatePopulated
	}
}

// StudentDashboard lists the courseworks a student can claim.
type StudentDashboard struct {
	Role    models.UserRole  `json:"role"`
	Title   string           `json:"title"`
	State   ListState        `json:"state"`
	Message string           `json:"message,omitempty"`
	Hint    string           `json:"hint"`
	Notice  string           `json:"notice,omitempty"`
	Retry   *Action          `json:"retry,omitempty"`
	Cards   []CourseworkCard `json:"cards"`
}

// TeacherStats summarises a teacher's courseworks.
type TeacherStats struct {
	Total       int `json:"total"`
	Available   int `json:"available"`
	Unavailable int `json:"unavailable"`
	Seats       int `json:"seats"`
}

// TeacherDashboard lists courseworks a teacher or admin manages.
type TeacherDashboard struct {
	Role      models.UserRole  `json:"role"`
	Title     string           `json:"title"`
	State     ListState        `json:"state"`
	Message   string           `json:"message,omitempty"`
	Stats     TeacherStats     `json:"stats"`
	Total     int64            `json:"total"`
	CanCreate bool             `json:"can_create"`
	Actions   []Action         `json:"actions"`
	Retry     *Action          `json:"retry,omitempty"`
	Cards     []CourseworkCard `json:"cards"`
}

// AdminDashboard shows platform totals and the subject table.
type AdminDashboard struct {
	Role     models.UserRole       `json:"role"`
	Title    string                `json:"title"`
	State    ListState             `json:"state"`
	Message  string                `json:"message,omitempty"`
	Totals   service.AdminTotals   `json:"totals"`
	Subjects []service.SubjectStat `json:"subjects"`
	Actions  []Action              `json:"actions"`
	Retry    *Action               `json:"retry,omitempty"`
}

func retryAction(catalog Catalog) *Action {
	return &Action{Name: "retry", Label: catalog.Text(MsgActionRetry), Enabled: true, Method: "GET", Href: "/dashboard"}
}

func cardContext(snapshot service.CourseworkSnapshot, role models.UserRole) CardContext {
	return CardContext{
		Role:          role,
		HasAssignment: snapshot.HasAssignment,
		AssignedID:    snapshot.AssignedID,
		Claiming:      snapshot.Claiming,
	}
}

// BuildStudentDashboard renders the student view. notice overrides the
// assignment notice, e.g. after a successful claim.
func BuildStudentDashboard(snapshot service.CourseworkSnapshot, catalog Catalog, notice string) StudentDashboard {
	dashboard := StudentDashboard{
		Role:  models.RoleStudent,
		Title: catalog.Text(MsgStudentTitle),
		Hint:  catalog.Text(MsgStudentHint),
		State: listState(snapshot.Loading, snapshot.Loaded, snapshot.Error, len(snapshot.Courseworks)),
		Cards: make([]CourseworkCard, 0, len(snapshot.Courseworks)),
	}

	ctx := cardContext(snapshot, models.RoleStudent)
	for _, coursework := range snapshot.Courseworks {
		dashboard.Cards = append(dashboard.Cards, BuildCard(coursework, ctx, catalog))
	}

	switch dashboard.State {
	case StateError:
		dashboard.Message = snapshot.Error
		dashboard.Retry = retryAction(catalog)
	case StateEmpty:
		dashboard.Message = catalog.Text(MsgStudentEmpty)
		dashboard.Hint = catalog.Text(MsgStudentEmptyHint)
	case StateLoading:
		dashboard.Message = catalog.Text(MsgLoading)
	}

	if notice != "" {
		dashboard.Notice = notice
	} else if snapshot.HasAssignment {
		dashboard.Notice = catalog.Text(MsgStudentAssigned)
	}
	return dashboard
}

// BuildTeacherDashboard renders the management view for teachers and admins.
func BuildTeacherDashboard(snapshot service.CourseworkSnapshot, role models.UserRole, catalog Catalog) TeacherDashboard {
	dashboard := TeacherDashboard{
		Role:      role,
		Title:     catalog.Text(MsgTeacherTitle),
		State:     listState(snapshot.Loading, snapshot.Loaded, snapshot.Error, len(snapshot.Courseworks)),
		Total:     snapshot.Total,
		CanCreate: role.CanManageCourseworks(),
		Actions:   []Action{},
		Cards:     make([]CourseworkCard, 0, len(snapshot.Courseworks)),
	}
	if dashboard.CanCreate {
		dashboard.Actions = append(dashboard.Actions,
			Action{Name: ActionCreate, Label: catalog.Text(MsgActionCreate), Enabled: !snapshot.Mutating, Method: "POST", Href: "/courseworks"},
		)
	}

	ctx := cardContext(snapshot, role)
	for _, coursework := range snapshot.Courseworks {
		dashboard.Stats.Total++
		if coursework.IsAvailable {
			dashboard.Stats.Available++
		} else {
			dashboard.Stats.Unavailable++
		}
		dashboard.Stats.Seats += coursework.MaxStudents
		dashboard.Cards = append(dashboard.Cards, BuildCard(coursework, ctx, catalog))
	}

	switch dashboard.State {
	case StateError:
		dashboard.Message = snapshot.Error
		dashboard.Retry = retryAction(catalog)
	case StateEmpty:
		dashboard.Message = catalog.Text(MsgTeacherEmpty)
	case StateLoading:
		dashboard.Message = catalog.Text(MsgLoading)
	}
	return dashboard
}

// BuildAdminDashboard renders the admin overview. errMessage is the load failure, if any.
func BuildAdminDashboard(overview service.AdminOverview, errMessage string, catalog Catalog) AdminDashboard {
	dashboard := AdminDashboard{
		Role:     models.RoleAdmin,
		Title:    catalog.Text(MsgAdminTitle),
		Totals:   overview.Totals,
		Subjects: overview.Subjects,
		Actions: []Action{
			{Name: "manage_subjects", Label: catalog.Text(MsgActionSubjects), Enabled: true, Method: "GET", Href: "/admin/subjects"},
			{Name: "courseworks", Label: catalog.Text(MsgTeacherTitle), Enabled: true, Method: "GET", Href: "/dashboard?view=courseworks"},
		},
	}
	if dashboard.Subjects == nil {
		dashboard.Subjects = []service.SubjectStat{}
	}
	dashboard.State = listState(false, true, errMessage, len(dashboard.Subjects))
	if errMessage != "" {
		dashboard.Message = errMessage
		dashboard.Retry = retryAction(catalog)
	}
	return dashboard
}
