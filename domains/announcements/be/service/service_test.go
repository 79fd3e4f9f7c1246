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
	createFn func(ctx context.Context, params persistence.CreateAnnouncementParams) (persistence.Announcement, error)
	getFn    func(ctx context.Context, id uuid.UUID) (persistence.Announcement, error)
	listFn   func(ctx context.Context, publishedOnly bool) ([]persistence.Announcement, error)
	updateFn func(ctx context.Context, id uuid.UUID, params persistence.UpdateAnnouncementParams) (persistence.Announcement, error)
	deleteFn func(ctx context.Context, id uuid.UUID) error
}

func (m *mockRepository) Create(ctx context.Context, params persistence.CreateAnnouncementParams) (persistence.Announcement, error) {
	if m.createFn == nil {
		panic("createFn not configured")
	}
	return m.createFn(ctx, params)
}

func (m *mockRepository) Get(ctx context.Context, id uuid.UUID) (persistence.Announcement, error) {
	if m.getFn == nil {
		panic("getFn not configured")
	}
	return m.getFn(ctx, id)
}

func (m *mockRepository) List(ctx context.Context, publishedOnly bool) ([]persistence.Announcement, error) {
	if m.listFn == nil {
		panic("listFn not configured")
	}
	return m.listFn(ctx, publishedOnly)
}

func (m *mockRepository) Update(ctx context.Context, id uuid.UUID, params persistence.UpdateAnnouncementParams) (persistence.Announcement, error) {
	if m.updateFn == nil {
		panic("updateFn not configured")
	}
	return m.updateFn(ctx, id, params)
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

func TestCreateRequiresStaff(t *testing.T) {
	t.Parallel()

	svc := New(&mockRepository{})

	_, err := svc.Create(scopedContext(parish.RoleMember, "user-1"), CreateInput{Title: "Aviso", Body: "Texto"})
	require.ErrorIs(t, err, ErrForbidden)
}

func TestCreateStampsAuthor(t *testing.T) {
	t.Parallel()

	svc := New(&mockRepository{
		createFn: func(ctx context.Context, params persistence.CreateAnnouncementParams) (persistence.Announcement, error) {
			require.Equal(t, "staff-1", params.AuthorID)
			return persistence.Announcement{ID: uuid.New(), Title: params.Title, Body: params.Body, AuthorID: params.AuthorID}, nil
		},
	})

	created, err := svc.Create(scopedContext(parish.RoleStaff, "staff-1"), CreateInput{Title: "Aviso", Body: "Texto"})
	require.NoError(t, err)
	require.Equal(t, "staff-1", created.AuthorID)
}

func TestCreateValidatesFields(t *testing.T) {
	t.Parallel()

	svc := New(&mockRepository{})

	_, err := svc.Create(scopedContext(parish.RoleStaff, "staff-1"), CreateInput{Title: "  ", Body: ""})

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Contains(t, validationErr.Fields, "title")
	require.Contains(t, validationErr.Fields, "body")
}

func TestListHidesDraftsFromMembers(t *testing.T) {
	t.Parallel()

	var gotPublishedOnly bool
	repo := &mockRepository{
		listFn: func(ctx context.Context, publishedOnly bool) ([]persistence.Announcement, error) {
			gotPublishedOnly = publishedOnly
			return nil, nil
		},
	}
	svc := New(repo)

	_, err := svc.List(scopedContext(parish.RoleMember, "user-1"))
	require.NoError(t, err)
	require.True(t, gotPublishedOnly)

	_, err = svc.List(scopedContext(parish.RoleStaff, "staff-1"))
	require.NoError(t, err)
	require.False(t, gotPublishedOnly)
}

func TestUpdateRejectsEmptyBody(t *testing.T) {
	t.Parallel()

	svc := New(&mockRepository{})

	_, err := svc.Update(scopedContext(parish.RoleStaff, "staff-1"), uuid.New(), UpdateInput{})

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestDeleteMapsNotFound(t *testing.T) {
	t.Parallel()

	svc := New(&mockRepository{
		deleteFn: func(ctx context.Context, id uuid.UUID) error {
			return persistence.ErrAnnouncementNotFound
		},
	})

	err := svc.Delete(scopedContext(parish.RoleStaff, "staff-1"), uuid.New())
	require.ErrorIs(t, err, ErrNotFound)
}
