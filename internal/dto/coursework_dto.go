package dto

import "github.com/noah-isme/courseforge-portal/internal/models"

// CreateCourseworkRequest describes a new coursework.
type CreateCourseworkRequest struct {
	Title        string                 `json:"title" validate:"required,min=5"`
	Description  string                 `json:"description" validate:"required,min=20"`
	Requirements string                 `json:"requirements,omitempty"`
	SubjectID    uint                   `json:"subject_id" validate:"required"`
	TeacherID    uint                   `json:"teacher_id" validate:"required"`
	MaxStudents  int                    `json:"max_students" validate:"min=1"`
	Difficulty   models.DifficultyLevel `json:"difficulty_level" validate:"required,oneof=easy medium hard"`
}

// UpdateCourseworkRequest carries a partial coursework update.
type UpdateCourseworkRequest struct {
	Title        *string                 `json:"title,omitempty" validate:"omitempty,min=5"`
	Description  *string                 `json:"description,omitempty" validate:"omitempty,min=20"`
	Requirements *string                 `json:"requirements,omitempty"`
	SubjectID    *uint                   `json:"subject_id,omitempty" validate:"omitempty,min=1"`
	TeacherID    *uint                   `json:"teacher_id,omitempty" validate:"omitempty,min=1"`
	MaxStudents  *int                    `json:"max_students,omitempty" validate:"omitempty,min=1"`
	Difficulty   *models.DifficultyLevel `json:"difficulty_level,omitempty" validate:"omitempty,oneof=easy medium hard"`
	IsAvailable  *bool                   `json:"is_available,omitempty"`
}

// ListCourseworksRequest filters the coursework list.
type ListCourseworksRequest struct {
	SubjectID  *uint
	TeacherID  *uint
	Available  *bool
	Difficulty models.DifficultyLevel
	Limit      int
	Offset     int
}

// CourseworkListResponse is the paginated coursework list.
type CourseworkListResponse struct {
	Courseworks []models.Coursework `json:"courseworks"`
	Total       int64               `json:"total"`
}

// AssignStudentRequest claims a coursework for a student.
type AssignStudentRequest struct {
	StudentID    uint `json:"student_id"`
	CourseworkID uint `json:"coursework_id"`
}

// AvailabilityRequest toggles whether a coursework can be claimed.
type AvailabilityRequest struct {
	IsAvailable bool `json:"is_available"`
}
