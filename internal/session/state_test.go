package session

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/bookadmin/internal/models"
)

func TestSnapshot_Predicates(t *testing.T) {
	tests := []struct {
		name    string
		profile *models.Profile
		admin   bool
		manager bool
		staff   bool
		perm    bool // has "view_book"
	}{
		{
			name: "no profile",
		},
		{
			name:    "superuser",
			profile: &models.Profile{Role: models.RoleStaff, IsSuperuser: true},
			admin:   true,
			manager: true,
			perm:    true,
		},
		{
			name:    "admin role",
			profile: &models.Profile{Role: models.RoleAdmin},
			admin:   true,
			manager: true,
			perm:    true,
		},
		{
			name:    "is_staff is not admin",
			profile: &models.Profile{Role: models.RoleStaff, IsStaff: true},
			staff:   true,
		},
		{
			name:    "manager with listed permission",
			profile: &models.Profile{Role: models.RoleManager, Permissions: []string{"view_book"}},
			manager: true,
			perm:    true,
		},
		{
			name:    "staff without permission",
			profile: &models.Profile{Role: models.RoleStaff, Permissions: []string{"add_sale"}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := Snapshot{State: StateAnonymous}
			if tc.profile != nil {
				s = Snapshot{State: StateAuthenticated, Profile: tc.profile}
			}

			require.Equal(t, tc.admin, s.IsAdmin())
			require.Equal(t, tc.manager, s.IsManager())
			require.Equal(t, tc.staff, s.IsStaff())
			require.Equal(t, tc.perm, s.HasPermission("view_book"))
		})
	}
}

func TestSnapshot_SuperuserHasEveryPermission(t *testing.T) {
	s := Snapshot{State: StateAuthenticated, Profile: &models.Profile{IsSuperuser: true}}

	for _, p := range []string{"view_book", "delete_user", "anything", ""} {
		require.True(t, s.HasPermission(p), p)
	}
}

func TestState_String(t *testing.T) {
	require.Equal(t, "unknown", StateUnknown.String())
	require.Equal(t, "anonymous", StateAnonymous.String())
	require.Equal(t, "authenticated", StateAuthenticated.String())
	require.Equal(t, "invalid", State(42).String())
}
