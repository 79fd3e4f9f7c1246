package storage

import (
	"context"
	"fmt"
	"io"

	gcs "cloud.google.com/go/storage"
)

// Uploader writes parish assets to a GCS bucket.
type Uploader struct {
	client *gcs.Client
	bucket string
}

func NewUploader(client *gcs.Client, bucket string) (*Uploader, error) {
	if client == nil {
		return nil, fmt.Errorf("storage client is required")
	}
	if bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}
	return &Uploader{client: client, bucket: bucket}, nil
}

// Upload validates and writes one image object, returning its public URL.
// The reader is capped at MaxUploadBytes+1 so an oversized body fails even
// when the declared size lied.
func (u *Uploader) Upload(ctx context.Context, parishSlug, folder, contentType string, size int64, body io.Reader) (string, error) {
	ext, err := ValidateImageUpload(contentType, size)
	if err != nil {
		return "", err
	}

	loc, err := ResolveObjectLocation(parishSlug, u.bucket, NewObjectKey(folder, ext))
	if err != nil {
		return "", err
	}
	return u.writeObject(ctx, loc, contentType, body)
}

// UploadAvatar validates and writes one avatar image under the user's own
// prefix, returning its public URL.
func (u *Uploader) UploadAvatar(ctx context.Context, userID, contentType string, size int64, body io.Reader) (string, error) {
	ext, err := ValidateImageUpload(contentType, size)
	if err != nil {
		return "", err
	}

	loc, err := ResolveUserObjectLocation(userID, u.bucket, NewObjectKey("avatars", ext))
	if err != nil {
		return "", err
	}
	return u.writeObject(ctx, loc, contentType, body)
}

func (u *Uploader) writeObject(ctx context.Context, loc ObjectLocation, contentType string, body io.Reader) (string, error) {
	w := u.client.Bucket(loc.Bucket).Object(loc.FullPath).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "public, max-age=3600"

	written, err := io.Copy(w, io.LimitReader(body, MaxUploadBytes+1))
	if err != nil {
		_ = w.Close()
		return "", fmt.Errorf("write object: %w", err)
	}
	if written > MaxUploadBytes {
		_ = w.Close()
		return "", fmt.Errorf("upload exceeds %d bytes", MaxUploadBytes)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close object writer: %w", err)
	}

	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", loc.Bucket, loc.FullPath), nil
}
