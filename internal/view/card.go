package view

import (
	"strconv"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/noah-isme/courseforge-portal/internal/models"
)

// Action names exposed on coursework cards.
const (
	ActionClaim        = "claim"
	ActionEdit         = "edit"
	ActionDelete       = "delete"
	ActionAvailability = "toggle_availability"
	ActionDetails      = "details"
	ActionCreate       = "create"
)

// Card badges.
const (
	BadgeSelected = "selected"
	BadgeTaken    = "taken"
)

var strictPolicy = bluemonday.StrictPolicy()

// Action is an affordance the viewer may trigger.
type Action struct {
	Name    string `json:"name"`
	Label   string `json:"label"`
	Enabled bool   `json:"enabled"`
	Method  string `json:"method,omitempty"`
	Href    string `json:"href,omitempty"`
}

// CourseworkCard is the rendered form of one coursework.
type CourseworkCard struct {
	ID              uint     `json:"id"`
	Title           string   `json:"title"`
	Difficulty      string   `json:"difficulty"`
	DifficultyLabel string   `json:"difficulty_label"`
	Teacher         string   `json:"teacher"`
	Subject         string   `json:"subject"`
	SubjectCode     string   `json:"subject_code"`
	Semester        int      `json:"semester"`
	Available       bool     `json:"available"`
	MaxStudents     int      `json:"max_students"`
	CreatedAt       string   `json:"created_at"`
	Description     string   `json:"description"`
	Requirements    string   `json:"requirements,omitempty"`
	Badge           string   `json:"badge,omitempty"`
	Actions         []Action `json:"actions"`
}

// CardContext carries the viewer facts a card depends on.
type CardContext struct {
	Role          models.UserRole
	HasAssignment bool
	AssignedID    uint
	Claiming      uint
}

// BuildCard renders coursework for the viewer described by ctx.
func BuildCard(coursework models.Coursework, ctx CardContext, catalog Catalog) CourseworkCard {
	card := CourseworkCard{
		ID:              coursework.ID,
		Title:           sanitize(coursework.Title),
		Difficulty:      string(coursework.Difficulty),
		DifficultyLabel: difficultyLabel(coursework.Difficulty, catalog),
		Teacher:         sanitize(coursework.Teacher.FullName()),
		Subject:         sanitize(coursework.Subject.Name),
		SubjectCode:     sanitize(coursework.Subject.Code),
		Semester:        coursework.Subject.Semester,
		Available:       coursework.IsAvailable,
		MaxStudents:     coursework.MaxStudents,
		CreatedAt:       formatDate(coursework.CreatedAt),
		Description:     sanitize(coursework.Description),
		Requirements:    sanitize(coursework.Requirements),
		Actions:         []Action{},
	}

	path := "/courseworks/" + strconv.FormatUint(uint64(coursework.ID), 10)

	switch {
	case ctx.Role == models.RoleStudent:
		card.Badge, card.Actions = studentAffordances(coursework, ctx, path, catalog)
	case ctx.Role.CanManageCourseworks():
		toggle := MsgActionDisable
		if !coursework.IsAvailable {
			toggle = MsgActionEnable
		}
		card.Actions = append(card.Actions,
			Action{Name: ActionEdit, Label: catalog.Text(MsgActionEdit), Enabled: true, Method: "PUT", Href: path},
			Action{Name: ActionDelete, Label: catalog.Text(MsgActionDelete), Enabled: true, Method: "DELETE", Href: path},
			Action{Name: ActionAvailability, Label: catalog.Text(toggle), Enabled: true, Method: "PUT", Href: path + "/availability"},
		)
	}

	card.Actions = append(card.Actions, Action{Name: ActionDetails, Label: catalog.Text(MsgActionDetails), Enabled: true, Method: "GET", Href: path})
	return card
}

func studentAffordances(coursework models.Coursework, ctx CardContext, path string, catalog Catalog) (string, []Action) {
	switch {
	case ctx.HasAssignment && ctx.AssignedID == coursework.ID:
		return BadgeSelected, []Action{}
	case isFullyAssigned(coursework):
		return BadgeTaken, []Action{}
	case ctx.HasAssignment:
		return "", []Action{{Name: ActionClaim, Label: catalog.Text(MsgActionUnavailable), Enabled: false}}
	}

	claiming := ctx.Claiming == coursework.ID
	label := catalog.Text(MsgActionClaim)
	if claiming {
		label = catalog.Text(MsgActionClaiming)
	}
	return "", []Action{{
		Name:    ActionClaim,
		Label:   label,
		Enabled: coursework.IsAvailable && ctx.Claiming == 0,
		Method:  "POST",
		Href:    path + "/claim",
	}}
}

// isFullyAssigned is always false: the list payload carries no seat usage, and
// the available endpoint already omits courseworks without free slots.
func isFullyAssigned(models.Coursework) bool {
	return false
}

func difficultyLabel(level models.DifficultyLevel, catalog Catalog) string {
	switch level {
	case models.DifficultyEasy:
		return catalog.Text(MsgDifficultyEasy)
	case models.DifficultyMedium:
		return catalog.Text(MsgDifficultyMedium)
	case models.DifficultyHard:
		return catalog.Text(MsgDifficultyHard)
	default:
		return catalog.Text(MsgDifficultyUnknown)
	}
}

func sanitize(value string) string {
	return strings.TrimSpace(strictPolicy.Sanitize(value))
}

func formatDate(value string) string {
	if value == "" {
		return ""
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed.Format("2006-01-02")
	}
	return value
}
