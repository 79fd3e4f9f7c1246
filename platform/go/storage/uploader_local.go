package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalUploader writes assets to a directory on disk for development runs
// without a GCS bucket. Returned URLs are rooted at baseURL, which the API
// server serves with a plain file server.
type LocalUploader struct {
	baseDir string
	baseURL string
}

func NewLocalUploader(baseDir, baseURL string) (*LocalUploader, error) {
	if strings.TrimSpace(baseDir) == "" {
		return nil, fmt.Errorf("base directory is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	return &LocalUploader{baseDir: baseDir, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// Upload validates and writes one image file under the parish's prefix,
// returning a URL relative to the server root.
func (u *LocalUploader) Upload(ctx context.Context, parishSlug, folder, contentType string, size int64, body io.Reader) (string, error) {
	ext, err := ValidateImageUpload(contentType, size)
	if err != nil {
		return "", err
	}

	loc, err := ResolveObjectLocation(parishSlug, u.baseDir, NewObjectKey(folder, ext))
	if err != nil {
		return "", err
	}
	return u.writeFile(loc.FullPath, body)
}

// UploadAvatar validates and writes one avatar image under the user's prefix.
func (u *LocalUploader) UploadAvatar(ctx context.Context, userID, contentType string, size int64, body io.Reader) (string, error) {
	ext, err := ValidateImageUpload(contentType, size)
	if err != nil {
		return "", err
	}

	loc, err := ResolveUserObjectLocation(userID, u.baseDir, NewObjectKey("avatars", ext))
	if err != nil {
		return "", err
	}
	return u.writeFile(loc.FullPath, body)
}

func (u *LocalUploader) writeFile(relPath string, body io.Reader) (string, error) {
	dest := filepath.Join(u.baseDir, filepath.FromSlash(relPath))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("create object directory: %w", err)
	}

	f, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("create object file: %w", err)
	}

	written, err := io.Copy(f, io.LimitReader(body, MaxUploadBytes+1))
	if err != nil {
		_ = f.Close()
		_ = os.Remove(dest)
		return "", fmt.Errorf("write object file: %w", err)
	}
	if written > MaxUploadBytes {
		_ = f.Close()
		_ = os.Remove(dest)
		return "", fmt.Errorf("upload exceeds %d bytes", MaxUploadBytes)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close object file: %w", err)
	}

	return u.baseURL + "/" + relPath, nil
}
