package parish

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoleFromStringUnknownIsNone(t *testing.T) {
	t.Parallel()

	require.Equal(t, RoleNone, RoleFromString("owner"))
	require.Equal(t, RoleNone, RoleFromString(""))
	require.Equal(t, RoleParishAdmin, RoleFromString("parish_admin"))
}

func TestHasMinRoleOrdering(t *testing.T) {
	t.Parallel()

	require.True(t, HasMinRole(RoleSuperAdmin, RoleParishAdmin))
	require.True(t, HasMinRole(RoleParishAdmin, RoleStaff))
	require.True(t, HasMinRole(RoleClergy, RoleStaff))
	require.True(t, HasMinRole(RoleStaff, RoleCoordinator))
	require.True(t, HasMinRole(RoleCoordinator, RolePosOperator))
	require.True(t, HasMinRole(RolePosOperator, RoleMember))

	require.False(t, HasMinRole(RoleStaff, RoleParishAdmin))
	require.False(t, HasMinRole(RoleMember, RolePosOperator))
	require.False(t, HasMinRole(RoleNone, RoleMember))
}

func TestCanOperatePos(t *testing.T) {
	t.Parallel()

	require.True(t, CanOperatePos(RolePosOperator))
	require.True(t, CanOperatePos(RoleStaff))
	require.True(t, CanOperatePos(RoleParishAdmin))
	require.False(t, CanOperatePos(RoleCoordinator))
	require.False(t, CanOperatePos(RoleMember))
}

func TestDeriveCapabilitiesNoneIsAllFalse(t *testing.T) {
	t.Parallel()

	caps := DeriveCapabilities(RoleNone)
	require.Equal(t, Capabilities{}, caps)
}

func TestDeriveCapabilitiesAdminFlags(t *testing.T) {
	t.Parallel()

	for _, r := range []Role{RoleParishAdmin, RoleSuperAdmin} {
		caps := DeriveCapabilities(r)
		require.True(t, caps.IsMember)
		require.True(t, caps.IsAdmin)
		require.False(t, caps.IsClergy)
	}

	caps := DeriveCapabilities(RoleClergy)
	require.True(t, caps.IsMember)
	require.False(t, caps.IsAdmin)
	require.True(t, caps.IsClergy)

	caps = DeriveCapabilities(RoleMember)
	require.True(t, caps.IsMember)
	require.True(t, caps.IsMemberRole)
	require.False(t, caps.IsAdmin)
}
