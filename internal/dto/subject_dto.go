package dto

// CreateSubjectRequest describes a new subject.
type CreateSubjectRequest struct {
	Name        string `json:"name" validate:"required"`
	Code        string `json:"code" validate:"required"`
	Description string `json:"description,omitempty"`
	Semester    int    `json:"semester" validate:"min=1,max=8"`
}

// UpdateSubjectRequest carries a partial subject update.
type UpdateSubjectRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1"`
	Description *string `json:"description,omitempty"`
	Semester    *int    `json:"semester,omitempty" validate:"omitempty,min=1,max=8"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

// AssignTeacherRequest attaches a teacher to a subject.
type AssignTeacherRequest struct {
	TeacherID    uint   `json:"teacher_id" validate:"required"`
	AcademicYear string `json:"academic_year" validate:"required"`
	IsLead       bool   `json:"is_lead"`
}

// LeadTeacherRequest selects the lead teacher of a subject.
type LeadTeacherRequest struct {
	TeacherID uint `json:"teacher_id" validate:"required"`
}
