package view

import (
	"fmt"

	"github.com/noah-isme/courseforge-portal/internal/models"
	"github.com/noah-isme/courseforge-portal/internal/service"
)

// Option is a selectable value in a form.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// SubjectOption is a subject the viewer may attach a coursework to.
type SubjectOption struct {
	ID       uint   `json:"id"`
	Label    string `json:"label"`
	Semester int    `json:"semester"`
}

// FieldRule documents a client-side check applied before submission.
type FieldRule struct {
	Field     string `json:"field"`
	Required  bool   `json:"required"`
	MinLength int    `json:"min_length,omitempty"`
	Min       int    `json:"min,omitempty"`
}

// CreateCourseworkForm describes the coursework creation form.
type CreateCourseworkForm struct {
	State        ListState              `json:"state"`
	Message      string                 `json:"message,omitempty"`
	TeacherID    uint                   `json:"teacher_id"`
	Subjects     []SubjectOption        `json:"subjects"`
	Difficulties []Option               `json:"difficulties"`
	Defaults     map[string]interface{} `json:"defaults"`
	Rules        []FieldRule            `json:"rules"`
}

// BuildCreateCourseworkForm lists only subjects the teacher is assigned to.
func BuildCreateCourseworkForm(subjects service.SubjectsSnapshot, teachable []models.Subject, teacherID uint, catalog Catalog) CreateCourseworkForm {
	form := CreateCourseworkForm{
		TeacherID: teacherID,
		Subjects:  make([]SubjectOption, 0, len(teachable)),
		Difficulties: []Option{
			{Value: string(models.DifficultyEasy), Label: catalog.Text(MsgDifficultyEasy)},
			{Value: string(models.DifficultyMedium), Label: catalog.Text(MsgDifficultyMedium)},
			{Value: string(models.DifficultyHard), Label: catalog.Text(MsgDifficultyHard)},
		},
		Defaults: map[string]interface{}{
			"max_students":     1,
			"difficulty_level": string(models.DifficultyMedium),
		},
		Rules: []FieldRule{
			{Field: "subject_id", Required: true},
			{Field: "title", Required: true, MinLength: 5},
			{Field: "description", Required: true, MinLength: 20},
			{Field: "max_students", Required: true, Min: 1},
		},
	}

	for _, subject := range teachable {
		form.Subjects = append(form.Subjects, SubjectOption{
			ID:       subject.ID,
			Label:    fmt.Sprintf("%s (%s)", sanitize(subject.Name), sanitize(subject.Code)),
			Semester: subject.Semester,
		})
	}

	form.State = listState(subjects.Loading, subjects.Loaded, subjects.Error, len(form.Subjects))
	switch form.State {
	case StateError:
		form.Message = subjects.Error
	case StateEmpty:
		form.Message = catalog.Text(MsgFormNoSubjects)
	case StateLoading:
		form.Message = catalog.Text(MsgLoading)
	}
	return form
}

// SubjectsAdminView backs the admin subject management screen.
type SubjectsAdminView struct {
	State    ListState        `json:"state"`
	Message  string           `json:"message,omitempty"`
	Subjects []models.Subject `json:"subjects"`
	Teachers []TeacherOption  `json:"teachers"`
}

// TeacherOption is an entry of the teacher picker.
type TeacherOption struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// BuildSubjectsAdminView renders the subject catalog with the teacher picker.
func BuildSubjectsAdminView(data service.SubjectsWithTeachers, errMessage string) SubjectsAdminView {
	result := SubjectsAdminView{
		Subjects: data.Subjects,
		Teachers: make([]TeacherOption, 0, len(data.Teachers)),
	}
	if result.Subjects == nil {
		result.Subjects = []models.Subject{}
	}
	for _, teacher := range data.Teachers {
		result.Teachers = append(result.Teachers, TeacherOption{ID: teacher.ID, Name: sanitize(teacher.FullName()), Email: teacher.Email})
	}
	result.State = listState(false, true, errMessage, len(result.Subjects))
	result.Message = errMessage
	return result
}
