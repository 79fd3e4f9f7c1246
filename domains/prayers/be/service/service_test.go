package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/paroquiaemdia/parish-api/platform/go/parish"
	"github.com/paroquiaemdia/parish-api/platform/go/persistence"
)

type mockRepository struct {
	createFn    func(ctx context.Context, params persistence.CreatePrayerParams) (persistence.PrayerRequest, error)
	getFn       func(ctx context.Context, id uuid.UUID) (persistence.PrayerRequest, error)
	listFn      func(ctx context.Context, params persistence.ListPrayersParams) ([]persistence.PrayerRequest, error)
	setStatusFn func(ctx context.Context, id uuid.UUID, status string) (persistence.PrayerRequest, error)
	deleteFn    func(ctx context.Context, id uuid.UUID) error
}

func (m *mockRepository) Create(ctx context.Context, params persistence.CreatePrayerParams) (persistence.PrayerRequest, error) {
	if m.createFn == nil {
		panic("createFn not configured")
	}
	return m.createFn(ctx, params)
}

func (m *mockRepository) Get(ctx context.Context, id uuid.UUID) (persistence.PrayerRequest, error) {
	if m.getFn == nil {
		panic("getFn not configured")
	}
	return m.getFn(ctx, id)
}

func (m *mockRepository) List(ctx context.Context, params persistence.ListPrayersParams) ([]persistence.PrayerRequest, error) {
	if m.listFn == nil {
		panic("listFn not configured")
	}
	return m.listFn(ctx, params)
}

func (m *mockRepository) SetStatus(ctx context.Context, id uuid.UUID, status string) (persistence.PrayerRequest, error) {
	if m.setStatusFn == nil {
		panic("setStatusFn not configured")
	}
	return m.setStatusFn(ctx, id, status)
}

func (m *mockRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if m.deleteFn == nil {
		panic("deleteFn not configured")
	}
	return m.deleteFn(ctx, id)
}

func scopedContext(role parish.Role, userID string) context.Context {
	return parish.WithScope(context.Background(), parish.Scope{
		Parish: parish.Info{ID: uuid.New(), Slug: "sao-joao", Status: "active"},
		Role:   role,
		UserID: userID,
	})
}

func TestCreateStartsPending(t *testing.T) {
	t.Parallel()

	svc := New(&mockRepository{
		createFn: func(ctx context.Context, params persistence.CreatePrayerParams) (persistence.PrayerRequest, error) {
			require.Equal(t, "user-1", params.UserID)
			return persistence.PrayerRequest{ID: uuid.New(), UserID: params.UserID, Intention: params.Intention, Status: "pending"}, nil
		},
	})

	created, err := svc.Create(scopedContext(parish.RoleMember, "user-1"), CreateInput{Intention: "Pela saúde da família"})
	require.NoError(t, err)
	require.Equal(t, StatusPending, created.Status)
}

func TestCreateRequiresIntention(t *testing.T) {
	t.Parallel()

	svc := New(&mockRepository{})

	_, err := svc.Create(scopedContext(parish.RoleMember, "user-1"), CreateInput{Intention: "   "})

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Contains(t, validationErr.Fields, "intention")
}

func TestListDemotesAllForMembers(t *testing.T) {
	t.Parallel()

	var gotParams persistence.ListPrayersParams
	svc := New(&mockRepository{
		listFn: func(ctx context.Context, params persistence.ListPrayersParams) ([]persistence.PrayerRequest, error) {
			gotParams = params
			return nil, nil
		},
	})

	_, err := svc.List(scopedContext(parish.RoleMember, "user-1"), ListInput{All: true})
	require.NoError(t, err)
	require.False(t, gotParams.All)
	require.Equal(t, "user-1", gotParams.UserID)

	_, err = svc.List(scopedContext(parish.RoleStaff, "staff-1"), ListInput{All: true})
	require.NoError(t, err)
	require.True(t, gotParams.All)
}

func TestSetStatusRequiresStaff(t *testing.T) {
	t.Parallel()

	svc := New(&mockRepository{})

	_, err := svc.SetStatus(scopedContext(parish.RoleMember, "user-1"), uuid.New(), StatusApproved)
	require.ErrorIs(t, err, ErrForbidden)
}

func TestSetStatusRejectsUnknownStatus(t *testing.T) {
	t.Parallel()

	svc := New(&mockRepository{})

	_, err := svc.SetStatus(scopedContext(parish.RoleStaff, "staff-1"), uuid.New(), "archived")

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Contains(t, validationErr.Fields, "status")
}

func TestDeleteAllowsAuthor(t *testing.T) {
	t.Parallel()

	prayerID := uuid.New()
	deleted := false
	svc := New(&mockRepository{
		getFn: func(ctx context.Context, id uuid.UUID) (persistence.PrayerRequest, error) {
			return persistence.PrayerRequest{ID: id, UserID: "user-1", Status: "pending"}, nil
		},
		deleteFn: func(ctx context.Context, id uuid.UUID) error {
			deleted = true
			return nil
		},
	})

	require.NoError(t, svc.Delete(scopedContext(parish.RoleMember, "user-1"), prayerID))
	require.True(t, deleted)
}

func TestDeleteForbidsOtherMembers(t *testing.T) {
	t.Parallel()

	svc := New(&mockRepository{
		getFn: func(ctx context.Context, id uuid.UUID) (persistence.PrayerRequest, error) {
			return persistence.PrayerRequest{ID: id, UserID: "user-1", Status: "pending"}, nil
		},
	})

	err := svc.Delete(scopedContext(parish.RoleMember, "user-2"), uuid.New())
	require.ErrorIs(t, err, ErrForbidden)
}
