package storage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveObjectLocation(t *testing.T) {
	loc, err := ResolveObjectLocation("sao-joao", "parish-dev-assets", "logos/logo.png")
	require.NoError(t, err)
	require.Equal(t, "parish-dev-assets", loc.Bucket)
	require.Equal(t, "parishes/sao-joao/logos/logo.png", loc.FullPath)
}

func TestResolveObjectLocation_trimsSlashAndValidates(t *testing.T) {
	loc, err := ResolveObjectLocation("sao-joao", "bucket", "/avatars/user.png")
	require.NoError(t, err)
	require.Equal(t, "parishes/sao-joao/avatars/user.png", loc.FullPath)

	_, err = ResolveObjectLocation("sao-joao", "", "file")
	require.Error(t, err)

	_, err = ResolveObjectLocation("", "bucket", "file")
	require.Error(t, err)

	_, err = ResolveObjectLocation("sao-joao", "bucket", " ")
	require.Error(t, err)
}

func TestResolveUserObjectLocation(t *testing.T) {
	loc, err := ResolveUserObjectLocation("uid-123", "parish-dev-assets", "avatars/a.png")
	require.NoError(t, err)
	require.Equal(t, "users/uid-123/avatars/a.png", loc.FullPath)

	_, err = ResolveUserObjectLocation("", "bucket", "avatars/a.png")
	require.Error(t, err)
}

func TestValidateImageUpload(t *testing.T) {
	ext, err := ValidateImageUpload("image/png", 1024)
	require.NoError(t, err)
	require.Equal(t, ".png", ext)

	_, err = ValidateImageUpload("application/pdf", 1024)
	require.Error(t, err)

	_, err = ValidateImageUpload("image/jpeg", 0)
	require.Error(t, err)

	_, err = ValidateImageUpload("image/jpeg", MaxUploadBytes+1)
	require.Error(t, err)
}

func TestNewObjectKey(t *testing.T) {
	key := NewObjectKey("logos", ".png")
	require.True(t, strings.HasPrefix(key, "logos/"))
	require.True(t, strings.HasSuffix(key, ".png"))
	require.NotEqual(t, key, NewObjectKey("logos", ".png"))
}
