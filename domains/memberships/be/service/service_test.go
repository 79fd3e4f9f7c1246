package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/paroquiaemdia/parish-api/platform/go/parish"
	"github.com/paroquiaemdia/parish-api/platform/go/persistence"
)

type mockRepository struct {
	getActiveMembershipFn func(ctx context.Context, parishID uuid.UUID, userID string) (persistence.Membership, error)
	listMembersFn         func(ctx context.Context) ([]persistence.Membership, error)
	addMemberFn           func(ctx context.Context, userID, role string) (persistence.Membership, error)
	setRoleFn             func(ctx context.Context, membershipID uuid.UUID, role string) (persistence.Membership, error)
	setStatusFn           func(ctx context.Context, membershipID uuid.UUID, status string) (persistence.Membership, error)
}

func (m *mockRepository) GetActiveMembership(ctx context.Context, parishID uuid.UUID, userID string) (persistence.Membership, error) {
	if m.getActiveMembershipFn == nil {
		panic("getActiveMembershipFn not configured")
	}
	return m.getActiveMembershipFn(ctx, parishID, userID)
}

func (m *mockRepository) ListMembers(ctx context.Context) ([]persistence.Membership, error) {
	if m.listMembersFn == nil {
		panic("listMembersFn not configured")
	}
	return m.listMembersFn(ctx)
}

func (m *mockRepository) AddMember(ctx context.Context, userID, role string) (persistence.Membership, error) {
	if m.addMemberFn == nil {
		panic("addMemberFn not configured")
	}
	return m.addMemberFn(ctx, userID, role)
}

func (m *mockRepository) SetRole(ctx context.Context, membershipID uuid.UUID, role string) (persistence.Membership, error) {
	if m.setRoleFn == nil {
		panic("setRoleFn not configured")
	}
	return m.setRoleFn(ctx, membershipID, role)
}

func (m *mockRepository) SetStatus(ctx context.Context, membershipID uuid.UUID, status string) (persistence.Membership, error) {
	if m.setStatusFn == nil {
		panic("setStatusFn not configured")
	}
	return m.setStatusFn(ctx, membershipID, status)
}

func scopedContext(role parish.Role, userID string) context.Context {
	return parish.WithScope(context.Background(), parish.Scope{
		Parish: parish.Info{ID: uuid.New(), Slug: "sao-joao", Status: "active"},
		Role:   role,
		UserID: userID,
	})
}

func TestResolveWithoutMembership(t *testing.T) {
	t.Parallel()

	svc := New(&mockRepository{
		getActiveMembershipFn: func(ctx context.Context, parishID uuid.UUID, userID string) (persistence.Membership, error) {
			return persistence.Membership{}, persistence.ErrMembershipNotFound
		},
	})

	resolution, err := svc.Resolve(context.Background(), uuid.New(), "user-1")
	require.NoError(t, err)
	require.Equal(t, parish.RoleNone, resolution.Role)
	require.Equal(t, parish.Capabilities{}, resolution.Capabilities)
}

func TestResolveMapsRoleToCapabilities(t *testing.T) {
	t.Parallel()

	svc := New(&mockRepository{
		getActiveMembershipFn: func(ctx context.Context, parishID uuid.UUID, userID string) (persistence.Membership, error) {
			return persistence.Membership{
				ID:       uuid.New(),
				ParishID: parishID,
				UserID:   userID,
				Role:     "clergy",
				Status:   "active",
			}, nil
		},
	})

	resolution, err := svc.Resolve(context.Background(), uuid.New(), "user-1")
	require.NoError(t, err)
	require.Equal(t, parish.RoleClergy, resolution.Role)
	require.True(t, resolution.Capabilities.IsMember)
	require.True(t, resolution.Capabilities.IsClergy)
	require.False(t, resolution.Capabilities.IsAdmin)
}

func TestResolveFailsClosedOnLookupError(t *testing.T) {
	t.Parallel()

	svc := New(&mockRepository{
		getActiveMembershipFn: func(ctx context.Context, parishID uuid.UUID, userID string) (persistence.Membership, error) {
			return persistence.Membership{}, errors.New("connection refused")
		},
	})

	resolution, err := svc.Resolve(context.Background(), uuid.New(), "user-1")
	require.Error(t, err)
	require.Equal(t, parish.RoleNone, resolution.Role)
	require.Equal(t, parish.Capabilities{}, resolution.Capabilities)
}

func TestResolveAnonymousUser(t *testing.T) {
	t.Parallel()

	// No repository call should happen for an empty user id; the mock would
	// panic if it did.
	svc := New(&mockRepository{})

	resolution, err := svc.Resolve(context.Background(), uuid.New(), "")
	require.NoError(t, err)
	require.Equal(t, parish.RoleNone, resolution.Role)
}

func TestListMembersRequiresStaff(t *testing.T) {
	t.Parallel()

	svc := New(&mockRepository{})

	_, err := svc.ListMembers(scopedContext(parish.RoleMember, "user-1"))
	require.ErrorIs(t, err, ErrForbidden)
}

func TestAddMemberRejectsSuperAdmin(t *testing.T) {
	t.Parallel()

	svc := New(&mockRepository{})

	_, err := svc.AddMember(scopedContext(parish.RoleParishAdmin, "admin-1"), "user-2", parish.RoleSuperAdmin)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Contains(t, validationErr.Fields, "role")
}

func TestSetRoleRequiresAdmin(t *testing.T) {
	t.Parallel()

	svc := New(&mockRepository{})

	_, err := svc.SetRole(scopedContext(parish.RoleStaff, "staff-1"), uuid.New(), parish.RoleCoordinator)
	require.ErrorIs(t, err, ErrForbidden)
}

func TestSetActiveFlipsStatus(t *testing.T) {
	t.Parallel()

	membershipID := uuid.New()
	var gotStatus string
	svc := New(&mockRepository{
		setStatusFn: func(ctx context.Context, id uuid.UUID, status string) (persistence.Membership, error) {
			require.Equal(t, membershipID, id)
			gotStatus = status
			return persistence.Membership{ID: id, Role: "member", Status: status}, nil
		},
	})

	member, err := svc.SetActive(scopedContext(parish.RoleParishAdmin, "admin-1"), membershipID, false)
	require.NoError(t, err)
	require.Equal(t, StatusInactive, gotStatus)
	require.Equal(t, StatusInactive, member.Status)
}
