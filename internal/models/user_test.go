package models_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/courseforge-portal/internal/models"
)

func TestUserRoleDecodesNormalised(t *testing.T) {
	var user models.User
	require.NoError(t, json.Unmarshal([]byte(`{"id":4,"email":"t@example.com","role":" Teacher "}`), &user))

	require.Equal(t, models.RoleTeacher, user.Role)
	require.True(t, user.Role.Valid())
	require.True(t, user.Role.CanManageCourseworks())
	require.False(t, user.Role.CanClaimCourseworks())

	raw, err := json.Marshal(user)
	require.NoError(t, err)
	require.Contains(t, string(raw), `"role":"teacher"`)
}

func TestUserRoleRejectsNonString(t *testing.T) {
	var user models.User
	require.Error(t, json.Unmarshal([]byte(`{"id":4,"role":7}`), &user))
}

func TestUnknownRoleHasNoCapabilities(t *testing.T) {
	role := models.ParseRole("Guest")
	require.Equal(t, models.UserRole("guest"), role)
	require.False(t, role.Valid())
	require.False(t, role.CanManageCourseworks())
	require.False(t, role.CanClaimCourseworks())
	require.False(t, role.CanManageSubjects())
}
