package service

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	platformauth "github.com/paroquiaemdia/parish-api/platform/go/auth"
	"github.com/paroquiaemdia/parish-api/platform/go/persistence"
)

type mockRepository struct {
	upsertFn func(ctx context.Context, userID, name, email, photoURL string) (persistence.Profile, error)
	getFn    func(ctx context.Context, userID string) (persistence.Profile, error)
	updateFn func(ctx context.Context, userID string, params persistence.UpdateProfileParams) (persistence.Profile, error)
}

func (m *mockRepository) Upsert(ctx context.Context, userID, name, email, photoURL string) (persistence.Profile, error) {
	if m.upsertFn == nil {
		panic("upsertFn not configured")
	}
	return m.upsertFn(ctx, userID, name, email, photoURL)
}

func (m *mockRepository) Get(ctx context.Context, userID string) (persistence.Profile, error) {
	if m.getFn == nil {
		panic("getFn not configured")
	}
	return m.getFn(ctx, userID)
}

func (m *mockRepository) Update(ctx context.Context, userID string, params persistence.UpdateProfileParams) (persistence.Profile, error) {
	if m.updateFn == nil {
		panic("updateFn not configured")
	}
	return m.updateFn(ctx, userID, params)
}

func authedContext(userID string) context.Context {
	name := "Maria"
	return platformauth.ContextWithUser(context.Background(), &platformauth.UserCredentials{
		ID:    userID,
		Email: userID + "@example.com",
		Name:  &name,
	})
}

func TestMeCreatesProfileOnFirstRequest(t *testing.T) {
	t.Parallel()

	svc := New(&mockRepository{
		getFn: func(ctx context.Context, userID string) (persistence.Profile, error) {
			return persistence.Profile{}, persistence.ErrProfileNotFound
		},
		upsertFn: func(ctx context.Context, userID, name, email, photoURL string) (persistence.Profile, error) {
			require.Equal(t, "user-1", userID)
			require.Equal(t, "Maria", name)
			require.Equal(t, "user-1@example.com", email)
			return persistence.Profile{UserID: userID, Name: name, Email: email}, nil
		},
	}, nil)

	profile, err := svc.Me(authedContext("user-1"))
	require.NoError(t, err)
	require.Equal(t, "Maria", profile.Name)
}

func TestMeRequiresAuthentication(t *testing.T) {
	t.Parallel()

	svc := New(&mockRepository{}, nil)

	_, err := svc.Me(context.Background())
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestUpdateRejectsEmptyBody(t *testing.T) {
	t.Parallel()

	svc := New(&mockRepository{}, nil)

	_, err := svc.Update(authedContext("user-1"), UpdateInput{})

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Contains(t, validationErr.Fields, "body")
}

func TestUpdateAppliesFields(t *testing.T) {
	t.Parallel()

	phone := "+55 11 99999-0000"
	svc := New(&mockRepository{
		getFn: func(ctx context.Context, userID string) (persistence.Profile, error) {
			return persistence.Profile{UserID: userID, Name: "Maria"}, nil
		},
		updateFn: func(ctx context.Context, userID string, params persistence.UpdateProfileParams) (persistence.Profile, error) {
			require.NotNil(t, params.Phone)
			return persistence.Profile{UserID: userID, Name: "Maria", Phone: *params.Phone}, nil
		},
	}, nil)

	profile, err := svc.Update(authedContext("user-1"), UpdateInput{Phone: &phone})
	require.NoError(t, err)
	require.Equal(t, phone, profile.Phone)
}

type mockUploader struct {
	uploadAvatarFn func(ctx context.Context, userID, contentType string, size int64, body io.Reader) (string, error)
}

func (m *mockUploader) UploadAvatar(ctx context.Context, userID, contentType string, size int64, body io.Reader) (string, error) {
	if m.uploadAvatarFn == nil {
		panic("uploadAvatarFn not configured")
	}
	return m.uploadAvatarFn(ctx, userID, contentType, size, body)
}

func TestUploadAvatarPersistsURL(t *testing.T) {
	t.Parallel()

	svc := New(&mockRepository{
		getFn: func(ctx context.Context, userID string) (persistence.Profile, error) {
			return persistence.Profile{UserID: userID, Name: "Maria"}, nil
		},
		updateFn: func(ctx context.Context, userID string, params persistence.UpdateProfileParams) (persistence.Profile, error) {
			require.NotNil(t, params.PhotoURL)
			return persistence.Profile{UserID: userID, Name: "Maria", PhotoURL: *params.PhotoURL}, nil
		},
	}, &mockUploader{
		uploadAvatarFn: func(ctx context.Context, userID, contentType string, size int64, body io.Reader) (string, error) {
			require.Equal(t, "user-1", userID)
			require.Equal(t, "image/png", contentType)
			return "https://cdn.test/users/user-1/avatars/a.png", nil
		},
	})

	profile, err := svc.UploadAvatar(authedContext("user-1"), "image/png", 128, strings.NewReader("png-bytes"))
	require.NoError(t, err)
	require.Equal(t, "https://cdn.test/users/user-1/avatars/a.png", profile.PhotoURL)
}

func TestUploadAvatarWithoutStorageConfigured(t *testing.T) {
	t.Parallel()

	svc := New(&mockRepository{}, nil)

	_, err := svc.UploadAvatar(authedContext("user-1"), "image/png", 128, strings.NewReader("png-bytes"))
	require.ErrorIs(t, err, ErrForbidden)
}
