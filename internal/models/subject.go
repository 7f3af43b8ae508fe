package models

// Subject is a course discipline that courseworks are attached to.
type Subject struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Code        string `json:"code"`
	Description string `json:"description"`
	Semester    int    `json:"semester"`
	IsActive    bool   `json:"is_active"`
	Teachers    []User `json:"teachers,omitempty"`
	CreatedAt   string `json:"created_at"`
}

// HasTeacher reports whether the given teacher is assigned to the subject.
func (s Subject) HasTeacher(teacherID uint) bool {
	for _, teacher := range s.Teachers {
		if teacher.ID == teacherID {
			return true
		}
	}
	return false
}
