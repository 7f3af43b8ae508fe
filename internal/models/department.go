package models

// Department is an academic department.
type Department struct {
	ID          uint   `json:"id"`
	Code        string `json:"department_code"`
	Name        string `json:"department_name"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
}

// StudentGroup is a study group inside a department.
type StudentGroup struct {
	ID         uint       `json:"id"`
	Code       string     `json:"group_code"`
	CourseYear int        `json:"course_year"`
	Specialty  string     `json:"specialty"`
	Department Department `json:"department"`
	CreatedAt  string     `json:"created_at"`
}
