package storage

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// MaxUploadBytes caps logo and avatar uploads.
const MaxUploadBytes = 2 << 20

// allowedContentTypes lists the image types accepted for uploads.
var allowedContentTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
}

// ObjectLocation describes where a blob should live.
type ObjectLocation struct {
	Bucket   string
	FullPath string
}

// ResolveObjectLocation combines a parish's slug and a logical key into a
// bucket/path pair.
//   - bucket must come from deployment configuration (one bucket per
//     environment class).
//   - logicalKey is a parish-relative key such as "logos/<uuid>.png" or
//     "avatars/<user_id>.jpg".
func ResolveObjectLocation(parishSlug, bucket, logicalKey string) (ObjectLocation, error) {
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return ObjectLocation{}, fmt.Errorf("bucket is required")
	}
	slug := strings.TrimSpace(parishSlug)
	if slug == "" {
		return ObjectLocation{}, fmt.Errorf("parish slug is required")
	}
	key := strings.TrimSpace(logicalKey)
	key = strings.TrimPrefix(key, "/")
	if key == "" {
		return ObjectLocation{}, fmt.Errorf("logical key is required")
	}

	return ObjectLocation{Bucket: bucket, FullPath: "parishes/" + slug + "/" + key}, nil
}

// ResolveUserObjectLocation places user-owned assets such as avatars under a
// per-user prefix instead of a parish prefix.
func ResolveUserObjectLocation(userID, bucket, logicalKey string) (ObjectLocation, error) {
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return ObjectLocation{}, fmt.Errorf("bucket is required")
	}
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return ObjectLocation{}, fmt.Errorf("user id is required")
	}
	key := strings.TrimSpace(logicalKey)
	key = strings.TrimPrefix(key, "/")
	if key == "" {
		return ObjectLocation{}, fmt.Errorf("logical key is required")
	}

	return ObjectLocation{Bucket: bucket, FullPath: "users/" + uid + "/" + key}, nil
}

// ValidateImageUpload checks content type and size before any bytes are
// written. Returns the canonical file extension for the type.
func ValidateImageUpload(contentType string, size int64) (string, error) {
	ext, ok := allowedContentTypes[contentType]
	if !ok {
		return "", fmt.Errorf("unsupported content type %q", contentType)
	}
	if size <= 0 {
		return "", fmt.Errorf("empty upload")
	}
	if size > MaxUploadBytes {
		return "", fmt.Errorf("upload exceeds %d bytes", MaxUploadBytes)
	}
	return ext, nil
}

// NewObjectKey builds a collision-free key under the given folder.
func NewObjectKey(folder, ext string) string {
	return folder + "/" + uuid.NewString() + ext
}
