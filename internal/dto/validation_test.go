package dto_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/courseforge-portal/internal/apperr"
	"github.com/noah-isme/courseforge-portal/internal/dto"
	"github.com/noah-isme/courseforge-portal/internal/models"
)

func TestValidateCourseworkLengthRules(t *testing.T) {
	validate := dto.NewValidator()

	payload := dto.CreateCourseworkRequest{
		Title:       "DB",
		Description: "too short",
		SubjectID:   1,
		TeacherID:   2,
		MaxStudents: 1,
		Difficulty:  models.DifficultyMedium,
	}

	err := dto.Validate(validate, payload)
	require.Error(t, err)
	require.True(t, apperr.Is(err, apperr.KindValidation))

	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	fields := map[string]string{}
	for _, field := range appErr.Fields {
		fields[field.Field] = field.Message
	}
	require.Equal(t, "title must be at least 5 characters", fields["title"])
	require.Equal(t, "description must be at least 20 characters", fields["description"])
}

func TestValidateAcceptsBoundaryLengths(t *testing.T) {
	validate := dto.NewValidator()

	payload := dto.CreateCourseworkRequest{
		Title:       "DB Pr",
		Description: "12345678901234567890",
		SubjectID:   1,
		TeacherID:   2,
		MaxStudents: 1,
		Difficulty:  models.DifficultyEasy,
	}

	require.NoError(t, dto.Validate(validate, payload))
}

func TestValidateMissingSubjectAndDifficulty(t *testing.T) {
	validate := dto.NewValidator()

	err := dto.Validate(validate, dto.CreateCourseworkRequest{
		Title:       "Database design",
		Description: "Design a normalized schema for a library",
		TeacherID:   2,
		MaxStudents: 1,
	})

	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	require.Len(t, appErr.Fields, 2)
	require.Equal(t, "subject_id", appErr.Fields[0].Field)
	require.Equal(t, "difficulty_level", appErr.Fields[1].Field)
}

func TestValidateRegisterRole(t *testing.T) {
	validate := dto.NewValidator()

	err := dto.Validate(validate, dto.RegisterRequest{
		Email:     "anna@example.com",
		Password:  "secret1",
		FirstName: "Anna",
		LastName:  "Ivanova",
		Role:      "guest",
	})

	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "role must be one of: admin, teacher, student", appErr.Fields[0].Message)
}
