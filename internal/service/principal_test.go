package service

import (
	"testing"

	"backend/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestCanMutate(t *testing.T) {
	owner := uuid.New()
	stranger := uuid.New()

	tests := []struct {
		name        string
		principalID uuid.UUID
		permissions []string
		want        bool
	}{
		{"owner without override", owner, nil, true},
		{"stranger without override", stranger, nil, false},
		{"stranger with override", stranger, []string{"mission:edit_any"}, true},
		{"stranger with unrelated permission", stranger, []string{"mission:read"}, false},
		{"owner with override", owner, []string{"mission:edit_any"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPrincipal(tt.principalID, "someone", tt.permissions)
			require.Equal(t, tt.want, CanMutate(p, owner, "mission:edit_any"))
		})
	}
}

func TestPrincipalFromCadetUnionsRolesAndPermissions(t *testing.T) {
	cadet := &model.Cadet{
		ID:       uuid.New(),
		Username: "nova",
		Roles: []model.Role{
			{
				Name: model.RoleAdmin,
				Permissions: []model.Permission{
					{Name: "mission:edit_any"},
					{Name: "audit:read"},
				},
			},
			{
				Name:        model.RoleCadet,
				Permissions: []model.Permission{{Name: "mission:read"}},
			},
		},
	}

	p := PrincipalFromCadet(cadet)

	require.Equal(t, cadet.ID, p.ID)
	require.Equal(t, "nova", p.Username)
	for _, name := range []string{model.RoleAdmin, model.RoleCadet, "mission:edit_any", "audit:read", "mission:read"} {
		require.True(t, p.HasPermission(name), name)
	}
	require.False(t, p.HasPermission("mission:delete_any"))
}

func TestZeroPrincipalHasNoPermissions(t *testing.T) {
	var p Principal
	require.False(t, p.HasPermission("mission:read"))
	require.False(t, CanMutate(p, uuid.New(), "mission:edit_any"))
}
