package models

// DifficultyLevel grades how demanding a coursework is.
type DifficultyLevel string

const (
	DifficultyEasy   DifficultyLevel = "easy"
	DifficultyMedium DifficultyLevel = "medium"
	DifficultyHard   DifficultyLevel = "hard"
)

// Valid reports whether the level is recognised.
func (d DifficultyLevel) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	default:
		return false
	}
}

// Coursework is a teacher-authored project definition students can claim.
type Coursework struct {
	ID           uint            `json:"id"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Requirements string          `json:"requirements"`
	MaxStudents  int             `json:"max_students"`
	Difficulty   DifficultyLevel `json:"difficulty_level"`
	IsAvailable  bool            `json:"is_available"`
	Subject      Subject         `json:"subject"`
	Teacher      User            `json:"teacher"`
	CreatedAt    string          `json:"created_at"`
	UpdatedAt    string          `json:"updated_at"`
}
