package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/paroquiaemdia/parish-api/domains/prayers/be/repo"
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

// Sentinel errors returned by the prayers service.
var (
	ErrNotFound  = errors.New("prayer request not found")
	ErrForbidden = errors.New("operation not allowed for role")
)

// Prayer request moderation statuses.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
	StatusAnswered = "answered"
)

var validStatuses = map[string]bool{
	StatusPending:  true,
	StatusApproved: true,
	StatusRejected: true,
	StatusAnswered: true,
}

// Prayer is a prayer request projected for API consumers.
type Prayer struct {
	ID            uuid.UUID
	UserID        string
	RequesterName string
	Intention     string
	Status        string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CreateInput carries a new prayer request.
type CreateInput struct {
	RequesterName string
	Intention     string
}

// ListInput controls list filtering.
type ListInput struct {
	Mine bool
	All  bool
}

// Service defines the business operations for the prayers domain. Requests
// enter as pending; the community wall shows approved ones plus the caller's
// own submissions.
type Service interface {
	Create(ctx context.Context, input CreateInput) (Prayer, error)
	List(ctx context.Context, input ListInput) ([]Prayer, error)
	SetStatus(ctx context.Context, id uuid.UUID, status string) (Prayer, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo repo.Repository
}

// New constructs a prayers Service.
func New(r repo.Repository) Service {
	if r == nil {
		panic("prayers repository is required")
	}
	return &service{repo: r}
}

func (s *service) Create(ctx context.Context, input CreateInput) (Prayer, error) {
	scope, ok := parish.ScopeFromContext(ctx)
	if !ok {
		return Prayer{}, errors.New("parish scope missing from context")
	}
	if scope.UserID == "" {
		return Prayer{}, ErrForbidden
	}

	fieldErrors := FieldErrors{}
	if strings.TrimSpace(input.Intention) == "" {
		fieldErrors.add("intention", "intention is required")
	}
	if len(fieldErrors) > 0 {
		return Prayer{}, &ValidationError{Fields: fieldErrors}
	}

	record, err := s.repo.Create(ctx, persistence.CreatePrayerParams{
		UserID:        scope.UserID,
		RequesterName: input.RequesterName,
		Intention:     input.Intention,
	})
	if err != nil {
		return Prayer{}, mapPersistenceError(err)
	}
	return mapPrayer(record), nil
}

// List applies visibility rules: the full view is reserved for staff, so a
// member asking for everything silently gets the community wall instead.
func (s *service) List(ctx context.Context, input ListInput) ([]Prayer, error) {
	scope, ok := parish.ScopeFromContext(ctx)
	if !ok {
		return nil, errors.New("parish scope missing from context")
	}

	params := persistence.ListPrayersParams{
		Mine:   input.Mine,
		All:    input.All && parish.CanManage(scope.Role),
		UserID: scope.UserID,
	}
	records, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, mapPersistenceError(err)
	}
	out := make([]Prayer, 0, len(records))
	for _, record := range records {
		out = append(out, mapPrayer(record))
	}
	return out, nil
}

func (s *service) SetStatus(ctx context.Context, id uuid.UUID, status string) (Prayer, error) {
	scope, ok := parish.ScopeFromContext(ctx)
	if !ok {
		return Prayer{}, errors.New("parish scope missing from context")
	}
	if !parish.CanManage(scope.Role) {
		return Prayer{}, ErrForbidden
	}
	if !validStatuses[status] {
		fieldErrors := FieldErrors{}
		fieldErrors.add("status", "status must be pending, approved, rejected or answered")
		return Prayer{}, &ValidationError{Fields: fieldErrors}
	}

	record, err := s.repo.SetStatus(ctx, id, status)
	if err != nil {
		return Prayer{}, mapPersistenceError(err)
	}
	return mapPrayer(record), nil
}

// Delete removes a request. Staff may delete any; authors may delete their own.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	scope, ok := parish.ScopeFromContext(ctx)
	if !ok {
		return errors.New("parish scope missing from context")
	}
	if !parish.CanManage(scope.Role) {
		record, err := s.repo.Get(ctx, id)
		if err != nil {
			return mapPersistenceError(err)
		}
		if record.UserID == "" || record.UserID != scope.UserID {
			return ErrForbidden
		}
	}
	return mapPersistenceError(s.repo.Delete(ctx, id))
}

func mapPrayer(record persistence.PrayerRequest) Prayer {
	return Prayer{
		ID:            record.ID,
		UserID:        record.UserID,
		RequesterName: record.RequesterName,
		Intention:     record.Intention,
		Status:        record.Status,
		CreatedAt:     record.CreatedAt,
		UpdatedAt:     record.UpdatedAt,
	}
}

func mapPersistenceError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, persistence.ErrPrayerNotFound):
		return ErrNotFound
	default:
		return err
	}
}

func (f FieldErrors) add(field, message string) {
	f[field] = append(f[field], message)
}
