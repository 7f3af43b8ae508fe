package models

// CourseworkStatus tracks the progress of a student's assignment.
type CourseworkStatus string

const (
	CourseworkStatusAssigned   CourseworkStatus = "assigned"
	CourseworkStatusInProgress CourseworkStatus = "in_progress"
	CourseworkStatusSubmitted  CourseworkStatus = "submitted"
	CourseworkStatusReviewed   CourseworkStatus = "reviewed"
	CourseworkStatusCompleted  CourseworkStatus = "completed"
	CourseworkStatusFailed     CourseworkStatus = "failed"
)

// StudentCoursework links one student to one coursework.
type StudentCoursework struct {
	ID          uint             `json:"id"`
	Student     User             `json:"student"`
	Coursework  Coursework       `json:"coursework"`
	Status      CourseworkStatus `json:"status"`
	Grade       *float64         `json:"grade,omitempty"`
	Feedback    *string          `json:"feedback,omitempty"`
	AssignedAt  string           `json:"assigned_at"`
	SubmittedAt *string          `json:"submitted_at,omitempty"`
	CompletedAt *string          `json:"completed_at,omitempty"`
	UpdatedAt   string           `json:"updated_at"`
}
