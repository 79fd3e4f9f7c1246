package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/paroquiaemdia/parish-api/domains/profiles/be/repo"
	platformauth "github.com/paroquiaemdia/parish-api/platform/go/auth"
	"github.com/paroquiaemdia/parish-api/platform/go/persistence"
)

// FieldErrors maps request fields to validation issues.
type FieldErrors map[string][]string

// ValidationError is returned when the input payload is invalid.
type ValidationError struct {
	Fields FieldErrors
}

func (v *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %v", v.Fields)
}

// Sentinel errors returned by the profiles service.
var (
	ErrUnauthorized = errors.New("authentication required")
	ErrForbidden    = errors.New("forbidden")
)

// Profile is the platform-wide user record projected for API consumers.
type Profile struct {
	UserID    string
	Name      string
	Email     string
	Phone     string
	PhotoURL  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UpdateInput lists the user-editable fields. Nil leaves a field untouched.
type UpdateInput struct {
	Name     *string
	Phone    *string
	PhotoURL *string
}

// AvatarUploader stores an avatar image and returns its public URL.
type AvatarUploader interface {
	UploadAvatar(ctx context.Context, userID, contentType string, size int64, body io.Reader) (string, error)
}

// Service defines the business operations for the profiles domain.
type Service interface {
	Me(ctx context.Context) (Profile, error)
	Update(ctx context.Context, input UpdateInput) (Profile, error)
	UploadAvatar(ctx context.Context, contentType string, size int64, body io.Reader) (Profile, error)
}

type service struct {
	repo     repo.Repository
	uploader AvatarUploader
}

// New constructs a profiles Service. The uploader may be nil when object
// storage is not configured; avatar uploads then fail with ErrForbidden.
func New(r repo.Repository, uploader AvatarUploader) Service {
	if r == nil {
		panic("profiles repository is required")
	}
	return &service{repo: r, uploader: uploader}
}

// Me returns the caller's profile, creating it from the token claims on the
// first request after sign-up.
func (s *service) Me(ctx context.Context) (Profile, error) {
	creds, ok := platformauth.UserFromContext(ctx)
	if !ok || creds == nil {
		return Profile{}, ErrUnauthorized
	}

	record, err := s.repo.Get(ctx, creds.ID)
	if errors.Is(err, persistence.ErrProfileNotFound) {
		name := ""
		if creds.Name != nil {
			name = *creds.Name
		}
		photoURL := ""
		if creds.PictureURL != nil {
			photoURL = *creds.PictureURL
		}
		record, err = s.repo.Upsert(ctx, creds.ID, name, creds.Email, photoURL)
	}
	if err != nil {
		return Profile{}, err
	}
	return mapProfile(record), nil
}

func (s *service) Update(ctx context.Context, input UpdateInput) (Profile, error) {
	creds, ok := platformauth.UserFromContext(ctx)
	if !ok || creds == nil {
		return Profile{}, ErrUnauthorized
	}

	fieldErrors := FieldErrors{}
	params := persistence.UpdateProfileParams{
		Name:     input.Name,
		Phone:    input.Phone,
		PhotoURL: input.PhotoURL,
	}
	if params == (persistence.UpdateProfileParams{}) {
		fieldErrors.add("body", "at least one field is required")
	}
	if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
		fieldErrors.add("name", "name must not be empty")
	}
	if len(fieldErrors) > 0 {
		return Profile{}, &ValidationError{Fields: fieldErrors}
	}

	// Make sure the row exists before updating; a brand new user may PUT
	// before ever calling GET.
	if _, err := s.Me(ctx); err != nil {
		return Profile{}, err
	}

	record, err := s.repo.Update(ctx, creds.ID, params)
	if err != nil {
		return Profile{}, err
	}
	return mapProfile(record), nil
}

// UploadAvatar stores the image and points the caller's profile at it.
func (s *service) UploadAvatar(ctx context.Context, contentType string, size int64, body io.Reader) (Profile, error) {
	creds, ok := platformauth.UserFromContext(ctx)
	if !ok || creds == nil {
		return Profile{}, ErrUnauthorized
	}
	if s.uploader == nil {
		return Profile{}, ErrForbidden
	}

	// Make sure the row exists before updating.
	if _, err := s.Me(ctx); err != nil {
		return Profile{}, err
	}

	url, err := s.uploader.UploadAvatar(ctx, creds.ID, contentType, size, body)
	if err != nil {
		return Profile{}, err
	}

	record, err := s.repo.Update(ctx, creds.ID, persistence.UpdateProfileParams{PhotoURL: &url})
	if err != nil {
		return Profile{}, err
	}
	return mapProfile(record), nil
}

func mapProfile(record persistence.Profile) Profile {
	return Profile{
		UserID:    record.UserID,
		Name:      record.Name,
		Email:     record.Email,
		Phone:     record.Phone,
		PhotoURL:  record.PhotoURL,
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
}

func (f FieldErrors) add(field, message string) {
	f[field] = append(f[field], message)
}
