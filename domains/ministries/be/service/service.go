package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/paroquiaemdia/parish-api/domains/ministries/be/repo"
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

// Sentinel errors returned by the ministries service.
var (
	ErrNotFound  = errors.New("ministry not found")
	ErrForbidden = errors.New("operation not allowed for role")
)

var meetingTimePattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// Ministry is a ministry row projected for API consumers. MemberCount is
// derived from the join table.
type Ministry struct {
	ID            uuid.UUID
	Name          string
	Description   string
	CoordinatorID string
	MeetingDay    string
	MeetingTime   string
	MemberCount   int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CreateInput carries a new ministry.
type CreateInput struct {
	Name          string
	Description   string
	CoordinatorID string
	MeetingDay    string
	MeetingTime   string
}

// UpdateInput lists the mutable ministry fields. Nil leaves a field untouched.
type UpdateInput struct {
	Name          *string
	Description   *string
	CoordinatorID *string
	MeetingDay    *string
	MeetingTime   *string
}

// Service defines the business operations for the ministries domain.
type Service interface {
	Create(ctx context.Context, input CreateInput) (Ministry, error)
	List(ctx context.Context) ([]Ministry, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (Ministry, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Join(ctx context.Context, id uuid.UUID) error
	Leave(ctx context.Context, id uuid.UUID) error
	RemoveMember(ctx context.Context, id uuid.UUID, userID string) error
}

type service struct {
	repo repo.Repository
}

// New constructs a ministries Service.
func New(r repo.Repository) Service {
	if r == nil {
		panic("ministries repository is required")
	}
	return &service{repo: r}
}

func (s *service) Create(ctx context.Context, input CreateInput) (Ministry, error) {
	scope, ok := parish.ScopeFromContext(ctx)
	if !ok {
		return Ministry{}, errors.New("parish scope missing from context")
	}
	if !parish.CanManage(scope.Role) {
		return Ministry{}, ErrForbidden
	}

	fieldErrors := FieldErrors{}
	if strings.TrimSpace(input.Name) == "" {
		fieldErrors.add("name", "name is required")
	}
	if input.MeetingTime != "" && !meetingTimePattern.MatchString(input.MeetingTime) {
		fieldErrors.add("meetingTime", "meetingTime must be HH:MM")
	}
	if len(fieldErrors) > 0 {
		return Ministry{}, &ValidationError{Fields: fieldErrors}
	}

	record, err := s.repo.Create(ctx, persistence.CreateMinistryParams{
		Name:          input.Name,
		Description:   input.Description,
		CoordinatorID: input.CoordinatorID,
		MeetingDay:    input.MeetingDay,
		MeetingTime:   input.MeetingTime,
	})
	if err != nil {
		return Ministry{}, mapPersistenceError(err)
	}
	return mapMinistry(record), nil
}

func (s *service) List(ctx context.Context) ([]Ministry, error) {
	records, err := s.repo.List(ctx)
	if err != nil {
		return nil, mapPersistenceError(err)
	}
	out := make([]Ministry, 0, len(records))
	for _, record := range records {
		out = append(out, mapMinistry(record))
	}
	return out, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (Ministry, error) {
	scope, ok := parish.ScopeFromContext(ctx)
	if !ok {
		return Ministry{}, errors.New("parish scope missing from context")
	}
	if !parish.CanManage(scope.Role) {
		return Ministry{}, ErrForbidden
	}

	fieldErrors := FieldErrors{}
	if input.MeetingTime != nil && *input.MeetingTime != "" && !meetingTimePattern.MatchString(*input.MeetingTime) {
		fieldErrors.add("meetingTime", "meetingTime must be HH:MM")
	}
	params := persistence.UpdateMinistryParams{
		Name:          input.Name,
		Description:   input.Description,
		CoordinatorID: input.CoordinatorID,
		MeetingDay:    input.MeetingDay,
		MeetingTime:   input.MeetingTime,
	}
	if params == (persistence.UpdateMinistryParams{}) {
		fieldErrors.add("body", "at least one field is required")
	}
	if len(fieldErrors) > 0 {
		return Ministry{}, &ValidationError{Fields: fieldErrors}
	}

	record, err := s.repo.Update(ctx, id, params)
	if err != nil {
		return Ministry{}, mapPersistenceError(err)
	}
	return mapMinistry(record), nil
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

// Join adds the caller to a ministry. Any parish member may join; duplicate
// joins are no-ops at the persistence layer.
func (s *service) Join(ctx context.Context, id uuid.UUID) error {
	scope, ok := parish.ScopeFromContext(ctx)
	if !ok {
		return errors.New("parish scope missing from context")
	}
	if !scope.Role.Valid() {
		return ErrForbidden
	}
	return mapPersistenceError(s.repo.AddMember(ctx, id, scope.UserID))
}

// Leave removes the caller from a ministry.
func (s *service) Leave(ctx context.Context, id uuid.UUID) error {
	scope, ok := parish.ScopeFromContext(ctx)
	if !ok {
		return errors.New("parish scope missing from context")
	}
	if scope.UserID == "" {
		return ErrForbidden
	}
	return mapPersistenceError(s.repo.RemoveMember(ctx, id, scope.UserID))
}

// RemoveMember removes another user. Staff may always do this; the ministry's
// coordinator may manage their own roster.
func (s *service) RemoveMember(ctx context.Context, id uuid.UUID, userID string) error {
	scope, ok := parish.ScopeFromContext(ctx)
	if !ok {
		return errors.New("parish scope missing from context")
	}
	if !parish.CanManage(scope.Role) {
		ministry, err := s.repo.Get(ctx, id)
		if err != nil {
			return mapPersistenceError(err)
		}
		if ministry.CoordinatorID == "" || ministry.CoordinatorID != scope.UserID {
			return ErrForbidden
		}
	}
	return mapPersistenceError(s.repo.RemoveMember(ctx, id, userID))
}

func mapMinistry(record persistence.Ministry) Ministry {
	return Ministry{
		ID:            record.ID,
		Name:          record.Name,
		Description:   record.Description,
		CoordinatorID: record.CoordinatorID,
		MeetingDay:    record.MeetingDay,
		MeetingTime:   record.MeetingTime,
		MemberCount:   record.MemberCount,
		CreatedAt:     record.CreatedAt,
		UpdatedAt:     record.UpdatedAt,
	}
}

func mapPersistenceError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, persistence.ErrMinistryNotFound):
		return ErrNotFound
	default:
		return err
	}
}

func (f FieldErrors) add(field, message string) {
	f[field] = append(f[field], message)
}
