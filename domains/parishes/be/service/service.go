package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/paroquiaemdia/parish-api/domains/parishes/be/repo"
	platformauth "github.com/paroquiaemdia/parish-api/platform/go/auth"
	"github.com/paroquiaemdia/parish-api/platform/go/parish"
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

// Sentinel errors returned by the parish service.
var (
	ErrNotFound     = errors.New("parish not found")
	ErrSlugConflict = errors.New("parish slug already exists")
	ErrForbidden    = errors.New("operation not allowed for role")
	ErrUnauthorized = errors.New("authentication required")
)

// Parish is a parish row projected for API consumers.
type Parish struct {
	ID           uuid.UUID
	Slug         string
	Name         string
	Address      string
	City         string
	Region       string
	Phone        string
	Email        string
	PrimaryColor string
	LogoURL      string
	PixKey       string
	PixPayee     string
	Status       string
	CreatedAt    time.Time
}

// ParishWithRole pairs a parish with the caller's role in it.
type ParishWithRole struct {
	Parish Parish
	Role   parish.Role
}

// CreateInput carries a new parish registration.
type CreateInput struct {
	Name    string
	Address string
	City    string
	Region  string
	Phone   string
	Email   string
}

// UpdateInput lists the mutable parish fields. Nil leaves a field untouched.
type UpdateInput struct {
	Name         *string
	Address      *string
	City         *string
	Region       *string
	Phone        *string
	Email        *string
	PrimaryColor *string
	LogoURL      *string
	PixKey       *string
	PixPayee     *string
}

// LogoUploader stores a logo image and returns its public URL.
type LogoUploader interface {
	Upload(ctx context.Context, parishSlug, folder, contentType string, size int64, body io.Reader) (string, error)
}

// Service defines the business operations for the parishes domain.
type Service interface {
	Create(ctx context.Context, input CreateInput) (Parish, error)
	Get(ctx context.Context, id uuid.UUID) (Parish, error)
	GetBySlug(ctx context.Context, slug string) (Parish, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (Parish, error)
	ListMine(ctx context.Context) ([]ParishWithRole, error)
	UploadLogo(ctx context.Context, id uuid.UUID, contentType string, size int64, body io.Reader) (Parish, error)
}

type service struct {
	repo     repo.Repository
	uploader LogoUploader
}

// New constructs a parish Service. The uploader may be nil when object
// storage is not configured; logo uploads then fail with ErrForbidden.
func New(r repo.Repository, uploader LogoUploader) Service {
	if r == nil {
		panic("parish repository is required")
	}
	return &service{repo: r, uploader: uploader}
}

// Create registers a parish and makes the creator its administrator. The slug
// is derived from the name; a taken slug surfaces as ErrSlugConflict so the
// client can suggest a different name.
func (s *service) Create(ctx context.Context, input CreateInput) (Parish, error) {
	creds, ok := platformauth.UserFromContext(ctx)
	if !ok || creds == nil {
		return Parish{}, ErrUnauthorized
	}

	fieldErrors := FieldErrors{}
	if strings.TrimSpace(input.Name) == "" {
		fieldErrors.add("name", "name is required")
	}
	if len(fieldErrors) > 0 {
		return Parish{}, &ValidationError{Fields: fieldErrors}
	}

	slug, err := persistence.DeriveSlug(input.Name)
	if err != nil {
		fieldErrors.add("name", "name must contain letters or digits")
		return Parish{}, &ValidationError{Fields: fieldErrors}
	}

	// Pre-check for a friendlier error; the unique index still backstops
	// concurrent creations.
	taken, err := s.repo.SlugExists(ctx, slug)
	if err != nil {
		return Parish{}, fmt.Errorf("check slug: %w", err)
	}
	if taken {
		return Parish{}, ErrSlugConflict
	}

	record, err := s.repo.Create(ctx, persistence.CreateParishParams{
		ParishID:  uuid.New(),
		Slug:      slug,
		Name:      strings.TrimSpace(input.Name),
		Address:   input.Address,
		City:      input.City,
		Region:    input.Region,
		Phone:     input.Phone,
		Email:     input.Email,
		CreatedBy: creds.ID,
	}, string(parish.RoleParishAdmin))
	if err != nil {
		return Parish{}, mapPersistenceError(err)
	}
	return mapParish(record), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (Parish, error) {
	record, err := s.repo.Get(ctx, id)
	if err != nil {
		return Parish{}, mapPersistenceError(err)
	}
	return mapParish(record), nil
}

// GetBySlug serves the public parish page. No authentication required.
func (s *service) GetBySlug(ctx context.Context, slug string) (Parish, error) {
	normalized, err := persistence.NormalizeSlug(slug)
	if err != nil {
		return Parish{}, ErrNotFound
	}
	record, err := s.repo.GetBySlug(ctx, normalized)
	if err != nil {
		return Parish{}, mapPersistenceError(err)
	}
	return mapParish(record), nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (Parish, error) {
	if err := s.requireAdmin(ctx, id); err != nil {
		return Parish{}, err
	}

	params := persistence.UpdateParishParams{
		Name:         input.Name,
		Address:      input.Address,
		City:         input.City,
		Region:       input.Region,
		Phone:        input.Phone,
		Email:        input.Email,
		PrimaryColor: input.PrimaryColor,
		LogoURL:      input.LogoURL,
		PixKey:       input.PixKey,
		PixPayee:     input.PixPayee,
	}
	if params == (persistence.UpdateParishParams{}) {
		fieldErrors := FieldErrors{}
		fieldErrors.add("body", "at least one field is required")
		return Parish{}, &ValidationError{Fields: fieldErrors}
	}
	if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
		fieldErrors := FieldErrors{}
		fieldErrors.add("name", "name must not be empty")
		return Parish{}, &ValidationError{Fields: fieldErrors}
	}

	record, err := s.repo.Update(ctx, id, params)
	if err != nil {
		return Parish{}, mapPersistenceError(err)
	}
	return mapParish(record), nil
}

// ListMine returns every parish where the caller holds an active membership.
func (s *service) ListMine(ctx context.Context) ([]ParishWithRole, error) {
	creds, ok := platformauth.UserFromContext(ctx)
	if !ok || creds == nil {
		return nil, ErrUnauthorized
	}
	records, err := s.repo.ListForUser(ctx, creds.ID)
	if err != nil {
		return nil, mapPersistenceError(err)
	}
	out := make([]ParishWithRole, 0, len(records))
	for _, record := range records {
		out = append(out, ParishWithRole{
			Parish: mapParish(record.Parish),
			Role:   parish.RoleFromString(record.Role),
		})
	}
	return out, nil
}

// UploadLogo stores the image in object storage and persists its URL.
func (s *service) UploadLogo(ctx context.Context, id uuid.UUID, contentType string, size int64, body io.Reader) (Parish, error) {
	if s.uploader == nil {
		return Parish{}, ErrForbidden
	}
	if err := s.requireAdmin(ctx, id); err != nil {
		return Parish{}, err
	}

	record, err := s.repo.Get(ctx, id)
	if err != nil {
		return Parish{}, mapPersistenceError(err)
	}

	url, err := s.uploader.Upload(ctx, record.Slug, "logo", contentType, size, body)
	if err != nil {
		return Parish{}, err
	}

	updated, err := s.repo.Update(ctx, id, persistence.UpdateParishParams{LogoURL: &url})
	if err != nil {
		return Parish{}, mapPersistenceError(err)
	}
	return mapParish(updated), nil
}

// requireAdmin checks the request scope targets this parish with an admin
// role. A mismatched parish id is treated as not found.
func (s *service) requireAdmin(ctx context.Context, id uuid.UUID) error {
	scope, ok := parish.ScopeFromContext(ctx)
	if !ok {
		return errors.New("parish scope missing from context")
	}
	if scope.Parish.ID != id {
		return ErrNotFound
	}
	if !parish.CanAdmin(scope.Role) {
		return ErrForbidden
	}
	return nil
}

func mapParish(record persistence.Parish) Parish {
	return Parish{
		ID:           record.ID,
		Slug:         record.Slug,
		Name:         record.Name,
		Address:      record.Address,
		City:         record.City,
		Region:       record.Region,
		Phone:        record.Phone,
		Email:        record.Email,
		PrimaryColor: record.PrimaryColor,
		LogoURL:      record.LogoURL,
		PixKey:       record.PixKey,
		PixPayee:     record.PixPayee,
		Status:       record.Status,
		CreatedAt:    record.CreatedAt,
	}
}

func mapPersistenceError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, persistence.ErrParishNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrParishSlugConflict):
		return ErrSlugConflict
	default:
		return err
	}
}

func (f FieldErrors) add(field, message string) {
	f[field] = append(f[field], message)
}
