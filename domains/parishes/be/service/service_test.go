package service

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	platformauth "github.com/paroquiaemdia/parish-api/platform/go/auth"
	"github.com/paroquiaemdia/parish-api/platform/go/parish"
	"github.com/paroquiaemdia/parish-api/platform/go/persistence"
)

type mockRepository struct {
	createFn      func(ctx context.Context, params persistence.CreateParishParams, adminRole string) (persistence.Parish, error)
	getFn         func(ctx context.Context, id uuid.UUID) (persistence.Parish, error)
	getBySlugFn   func(ctx context.Context, slug string) (persistence.Parish, error)
	slugExistsFn  func(ctx context.Context, slug string) (bool, error)
	updateFn      func(ctx context.Context, id uuid.UUID, params persistence.UpdateParishParams) (persistence.Parish, error)
	listForUserFn func(ctx context.Context, userID string) ([]persistence.ParishMembership, error)
}

func (m *mockRepository) Create(ctx context.Context, params persistence.CreateParishParams, adminRole string) (persistence.Parish, error) {
	if m.createFn == nil {
		panic("createFn not configured")
	}
	return m.createFn(ctx, params, adminRole)
}

func (m *mockRepository) Get(ctx context.Context, id uuid.UUID) (persistence.Parish, error) {
	if m.getFn == nil {
		panic("getFn not configured")
	}
	return m.getFn(ctx, id)
}

func (m *mockRepository) GetBySlug(ctx context.Context, slug string) (persistence.Parish, error) {
	if m.getBySlugFn == nil {
		panic("getBySlugFn not configured")
	}
	return m.getBySlugFn(ctx, slug)
}

func (m *mockRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	if m.slugExistsFn == nil {
		panic("slugExistsFn not configured")
	}
	return m.slugExistsFn(ctx, slug)
}

func (m *mockRepository) Update(ctx context.Context, id uuid.UUID, params persistence.UpdateParishParams) (persistence.Parish, error) {
	if m.updateFn == nil {
		panic("updateFn not configured")
	}
	return m.updateFn(ctx, id, params)
}

func (m *mockRepository) ListForUser(ctx context.Context, userID string) ([]persistence.ParishMembership, error) {
	if m.listForUserFn == nil {
		panic("listForUserFn not configured")
	}
	return m.listForUserFn(ctx, userID)
}

func authedContext(userID string) context.Context {
	return platformauth.ContextWithUser(context.Background(), &platformauth.UserCredentials{
		ID:    userID,
		Email: userID + "@example.com",
	})
}

func adminScope(parishID uuid.UUID) context.Context {
	return parish.WithScope(context.Background(), parish.Scope{
		Parish: parish.Info{ID: parishID, Slug: "sao-joao", Status: "active"},
		Role:   parish.RoleParishAdmin,
		UserID: "admin-1",
	})
}

func TestCreateDerivesSlugAndAdminRole(t *testing.T) {
	t.Parallel()

	var gotParams persistence.CreateParishParams
	var gotRole string
	svc := New(&mockRepository{
		slugExistsFn: func(ctx context.Context, slug string) (bool, error) {
			require.Equal(t, "paroquia-sao-joao", slug)
			return false, nil
		},
		createFn: func(ctx context.Context, params persistence.CreateParishParams, adminRole string) (persistence.Parish, error) {
			gotParams = params
			gotRole = adminRole
			return persistence.Parish{ID: params.ParishID, Slug: params.Slug, Name: params.Name, Status: "active"}, nil
		},
	}, nil)

	created, err := svc.Create(authedContext("user-1"), CreateInput{Name: "  Paróquia São João  "})
	require.NoError(t, err)
	require.Equal(t, "paroquia-sao-joao", created.Slug)
	require.Equal(t, "Paróquia São João", gotParams.Name)
	require.Equal(t, "user-1", gotParams.CreatedBy)
	require.Equal(t, string(parish.RoleParishAdmin), gotRole)
}

func TestCreateRejectsTakenSlug(t *testing.T) {
	t.Parallel()

	svc := New(&mockRepository{
		slugExistsFn: func(ctx context.Context, slug string) (bool, error) {
			return true, nil
		},
	}, nil)

	_, err := svc.Create(authedContext("user-1"), CreateInput{Name: "São João"})
	require.ErrorIs(t, err, ErrSlugConflict)
}

func TestCreateRequiresAuthentication(t *testing.T) {
	t.Parallel()

	svc := New(&mockRepository{}, nil)

	_, err := svc.Create(context.Background(), CreateInput{Name: "São João"})
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestUpdateRequiresAdmin(t *testing.T) {
	t.Parallel()

	parishID := uuid.New()
	staffCtx := parish.WithScope(context.Background(), parish.Scope{
		Parish: parish.Info{ID: parishID, Status: "active"},
		Role:   parish.RoleStaff,
	})
	svc := New(&mockRepository{}, nil)

	name := "New Name"
	_, err := svc.Update(staffCtx, parishID, UpdateInput{Name: &name})
	require.ErrorIs(t, err, ErrForbidden)
}

func TestUpdateRejectsEmptyBody(t *testing.T) {
	t.Parallel()

	parishID := uuid.New()
	svc := New(&mockRepository{}, nil)

	_, err := svc.Update(adminScope(parishID), parishID, UpdateInput{})

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Contains(t, validationErr.Fields, "body")
}

func TestUpdateTreatsForeignParishAsNotFound(t *testing.T) {
	t.Parallel()

	svc := New(&mockRepository{}, nil)

	name := "New Name"
	_, err := svc.Update(adminScope(uuid.New()), uuid.New(), UpdateInput{Name: &name})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListMineMapsRoles(t *testing.T) {
	t.Parallel()

	svc := New(&mockRepository{
		listForUserFn: func(ctx context.Context, userID string) ([]persistence.ParishMembership, error) {
			require.Equal(t, "user-1", userID)
			return []persistence.ParishMembership{
				{Parish: persistence.Parish{Slug: "sao-joao"}, Role: "parish_admin"},
				{Parish: persistence.Parish{Slug: "santa-rita"}, Role: "member"},
			}, nil
		},
	}, nil)

	parishes, err := svc.ListMine(authedContext("user-1"))
	require.NoError(t, err)
	require.Len(t, parishes, 2)
	require.Equal(t, parish.RoleParishAdmin, parishes[0].Role)
	require.Equal(t, parish.RoleMember, parishes[1].Role)
}

type mockUploader struct {
	uploadFn func(ctx context.Context, parishSlug, folder, contentType string, size int64, body io.Reader) (string, error)
}

func (m *mockUploader) Upload(ctx context.Context, parishSlug, folder, contentType string, size int64, body io.Reader) (string, error) {
	return m.uploadFn(ctx, parishSlug, folder, contentType, size, body)
}

func TestUploadLogoPersistsURL(t *testing.T) {
	t.Parallel()

	parishID := uuid.New()
	svc := New(&mockRepository{
		getFn: func(ctx context.Context, id uuid.UUID) (persistence.Parish, error) {
			return persistence.Parish{ID: id, Slug: "sao-joao", Status: "active"}, nil
		},
		updateFn: func(ctx context.Context, id uuid.UUID, params persistence.UpdateParishParams) (persistence.Parish, error) {
			require.NotNil(t, params.LogoURL)
			return persistence.Parish{ID: id, Slug: "sao-joao", LogoURL: *params.LogoURL, Status: "active"}, nil
		},
	}, &mockUploader{
		uploadFn: func(ctx context.Context, parishSlug, folder, contentType string, size int64, body io.Reader) (string, error) {
			require.Equal(t, "sao-joao", parishSlug)
			require.Equal(t, "logo", folder)
			return "https://storage.googleapis.com/bucket/parishes/sao-joao/logo/x.png", nil
		},
	})

	updated, err := svc.UploadLogo(adminScope(parishID), parishID, "image/png", 1024, nil)
	require.NoError(t, err)
	require.Contains(t, updated.LogoURL, "parishes/sao-joao/logo/")
}
