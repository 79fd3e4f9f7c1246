package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/paroquiaemdia/parish-api/domains/announcements/be/repo"
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

// Sentinel errors returned by the announcements service.
var (
	ErrNotFound  = errors.New("announcement not found")
	ErrForbidden = errors.New("operation not allowed for role")
)

// Announcement is an announcement row projected for API consumers.
type Announcement struct {
	ID        uuid.UUID
	Title     string
	Body      string
	ImageURL  string
	Published bool
	AuthorID  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateInput carries a new announcement.
type CreateInput struct {
	Title     string
	Body      string
	ImageURL  string
	Published bool
}

// UpdateInput lists the mutable announcement fields. Nil leaves a field
// untouched.
type UpdateInput struct {
	Title     *string
	Body      *string
	ImageURL  *string
	Published *bool
}

// Service defines the business operations for the announcements domain.
// Members see published announcements; staff also see drafts and may write.
type Service interface {
	Create(ctx context.Context, input CreateInput) (Announcement, error)
	List(ctx context.Context) ([]Announcement, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (Announcement, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo repo.Repository
}

// New constructs an announcements Service.
func New(r repo.Repository) Service {
	if r == nil {
		panic("announcements repository is required")
	}
	return &service{repo: r}
}

func (s *service) Create(ctx context.Context, input CreateInput) (Announcement, error) {
	scope, ok := parish.ScopeFromContext(ctx)
	if !ok {
		return Announcement{}, errors.New("parish scope missing from context")
	}
	if !parish.CanManage(scope.Role) {
		return Announcement{}, ErrForbidden
	}

	fieldErrors := FieldErrors{}
	if strings.TrimSpace(input.Title) == "" {
		fieldErrors.add("title", "title is required")
	}
	if strings.TrimSpace(input.Body) == "" {
		fieldErrors.add("body", "body is required")
	}
	if len(fieldErrors) > 0 {
		return Announcement{}, &ValidationError{Fields: fieldErrors}
	}

	record, err := s.repo.Create(ctx, persistence.CreateAnnouncementParams{
		Title:     input.Title,
		Body:      input.Body,
		ImageURL:  input.ImageURL,
		Published: input.Published,
		AuthorID:  scope.UserID,
	})
	if err != nil {
		return Announcement{}, mapPersistenceError(err)
	}
	return mapAnnouncement(record), nil
}

// List returns published announcements for everyone; staff also see drafts.
func (s *service) List(ctx context.Context) ([]Announcement, error) {
	scope, ok := parish.ScopeFromContext(ctx)
	if !ok {
		return nil, errors.New("parish scope missing from context")
	}

	publishedOnly := !parish.CanManage(scope.Role)
	records, err := s.repo.List(ctx, publishedOnly)
	if err != nil {
		return nil, mapPersistenceError(err)
	}
	out := make([]Announcement, 0, len(records))
	for _, record := range records {
		out = append(out, mapAnnouncement(record))
	}
	return out, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (Announcement, error) {
	scope, ok := parish.ScopeFromContext(ctx)
	if !ok {
		return Announcement{}, errors.New("parish scope missing from context")
	}
	if !parish.CanManage(scope.Role) {
		return Announcement{}, ErrForbidden
	}

	params := persistence.UpdateAnnouncementParams{
		Title:     input.Title,
		Body:      input.Body,
		ImageURL:  input.ImageURL,
		Published: input.Published,
	}
	if params == (persistence.UpdateAnnouncementParams{}) {
		fieldErrors := FieldErrors{}
		fieldErrors.add("body", "at least one field is required")
		return Announcement{}, &ValidationError{Fields: fieldErrors}
	}

	record, err := s.repo.Update(ctx, id, params)
	if err != nil {
		return Announcement{}, mapPersistenceError(err)
	}
	return mapAnnouncement(record), nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	scope, ok := parish.ScopeFromContext(ctx)
	if !ok {
		return errors.New("parish scope missing from context")
	}
	if !parish.CanManage(scope.Role) {
		return ErrForbidden
	}
	return mapPersistenceError(s.repo.Delete(ctx, id))
}

func mapAnnouncement(record persistence.Announcement) Announcement {
	return Announcement{
		ID:        record.ID,
		Title:     record.Title,
		Body:      record.Body,
		ImageURL:  record.ImageURL,
		Published: record.Published,
		AuthorID:  record.AuthorID,
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
}

func mapPersistenceError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, persistence.ErrAnnouncementNotFound):
		return ErrNotFound
	default:
		return err
	}
}

func (f FieldErrors) add(field, message string) {
	f[field] = append(f[field], message)
}
