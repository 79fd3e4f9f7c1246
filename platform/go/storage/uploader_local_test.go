package storage

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocalUploaderUpload(t *testing.T) {
	dir := t.TempDir()
	up, err := NewLocalUploader(dir, "/static/")
	require.NoError(t, err)

	url, err := up.Upload(context.Background(), "sao-joao", "logo", "image/png", 9, strings.NewReader("png-bytes"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "/static/parishes/sao-joao/logo/"))
	require.True(t, strings.HasSuffix(url, ".png"))

	rel := strings.TrimPrefix(url, "/static/")
	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
	require.NoError(t, err)
	require.Equal(t, "png-bytes", string(data))
}

func TestLocalUploaderUploadAvatar(t *testing.T) {
	dir := t.TempDir()
	up, err := NewLocalUploader(dir, "/static")
	require.NoError(t, err)

	url, err := up.UploadAvatar(context.Background(), "uid-123", "image/jpeg", 10, strings.NewReader("jpeg-bytes"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "/static/users/uid-123/avatars/"))
	require.True(t, strings.HasSuffix(url, ".jpg"))
}

func TestLocalUploaderRejectsOversizedBody(t *testing.T) {
	dir := t.TempDir()
	up, err := NewLocalUploader(dir, "/static")
	require.NoError(t, err)

	// Declared size passes validation, the streamed body does not.
	body := strings.NewReader(strings.Repeat("x", MaxUploadBytes+1))
	_, err = up.Upload(context.Background(), "sao-joao", "logo", "image/png", 1024, body)
	require.Error(t, err)

	// The partial file must be removed.
	require.NoError(t, filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		require.NoError(t, err)
		require.True(t, d.IsDir(), "unexpected file %s", path)
		return nil
	}))
}
