package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/paroquiaemdia/parish-api/domains/intentions/be/repo"
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
	return "validation error"
}

// Domain sentinel errors.
var (
	ErrNotFound   = errors.New("intention not found")
	ErrForbidden  = errors.New("operation not allowed for role")
	ErrNotPending = errors.New("intention already moderated")
)

// Intention categories.
const (
	CategoryDeceased     = "deceased"
	CategoryLiving       = "living"
	CategoryThanksgiving = "thanksgiving"
	CategoryOther        = "other"
)

// Moderation statuses.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

var validCategories = map[string]struct{}{
	CategoryDeceased:     {},
	CategoryLiving:       {},
	CategoryThanksgiving: {},
	CategoryOther:        {},
}

// Intention is the domain view of a mass intention.
type Intention struct {
	ID             uuid.UUID
	UserID         string
	RequesterName  string
	Intention      string
	Category       string
	MassDate       *time.Time
	MassTime       string
	Status         string
	ModerationNote string
	CreatedAt      time.Time
}

// CreateInput carries a new submission.
type CreateInput struct {
	RequesterName string
	Intention     string
	Category      string
	MassDate      *time.Time
	MassTime      string
}

// ListInput controls list filtering.
type ListInput struct {
	Mine     bool
	MassDate *time.Time
	Status   string
}

// Service defines the business operations for the intentions domain.
type Service interface {
	Create(ctx context.Context, input CreateInput) (Intention, error)
	List(ctx context.Context, input ListInput) ([]Intention, error)
	Moderate(ctx context.Context, id uuid.UUID, approve bool, note string) (Intention, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Ledger(ctx context.Context, massDate time.Time) (Ledger, error)
}

type service struct {
	repo repo.Repository
}

// New constructs an intentions Service backed by the provided repository.
func New(r repo.Repository) Service {
	if r == nil {
		panic("intentions repository is required")
	}
	return &service{repo: r}
}

func (s *service) Create(ctx context.Context, input CreateInput) (Intention, error) {
	scope, err := requireScope(ctx)
	if err != nil {
		return Intention{}, err
	}
	if scope.UserID == "" {
		return Intention{}, ErrForbidden
	}

	fieldErrors := FieldErrors{}
	text := strings.TrimSpace(input.Intention)
	if text == "" {
		fieldErrors.add("intention", "intention is required")
	}
	if _, ok := validCategories[input.Category]; !ok {
		fieldErrors.add("category", "category must be deceased, living, thanksgiving or other")
	}
	if input.MassTime != "" {
		if _, err := time.Parse("15:04", input.MassTime); err != nil {
			fieldErrors.add("massTime", "massTime must be HH:MM")
		}
	}
	if len(fieldErrors) > 0 {
		return Intention{}, &ValidationError{Fields: fieldErrors}
	}

	record, err := s.repo.Create(ctx, persistence.CreateIntentionParams{
		UserID:        scope.UserID,
		RequesterName: strings.TrimSpace(input.RequesterName),
		Intention:     text,
		Category:      input.Category,
		MassDate:      input.MassDate,
		MassTime:      input.MassTime,
	})
	if err != nil {
		return Intention{}, mapPersistenceError(err)
	}
	return mapIntention(record), nil
}

// List returns the caller's own submissions, or the parish moderation queue
// for clergy and staff. Members never see other members' pending intentions.
func (s *service) List(ctx context.Context, input ListInput) ([]Intention, error) {
	scope, err := requireScope(ctx)
	if err != nil {
		return nil, err
	}

	params := persistence.ListIntentionsParams{
		MassDate: input.MassDate,
		Status:   input.Status,
		UserID:   scope.UserID,
	}
	if input.Mine || !parish.CanModerateIntentions(scope.Role) {
		params.Mine = true
		if scope.UserID == "" {
			return nil, ErrForbidden
		}
	}

	records, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, mapPersistenceError(err)
	}
	out := make([]Intention, 0, len(records))
	for _, record := range records {
		out = append(out, mapIntention(record))
	}
	return out, nil
}

// Moderate approves or rejects a pending intention. Already-moderated
// intentions are left untouched.
func (s *service) Moderate(ctx context.Context, id uuid.UUID, approve bool, note string) (Intention, error) {
	scope, err := requireScope(ctx)
	if err != nil {
		return Intention{}, err
	}
	if !parish.CanModerateIntentions(scope.Role) {
		return Intention{}, ErrForbidden
	}

	status := StatusApproved
	if !approve {
		status = StatusRejected
	}

	record, err := s.repo.Moderate(ctx, id, status, strings.TrimSpace(note))
	if err != nil {
		if errors.Is(err, persistence.ErrIntentionNotFound) {
			// The row exists but is no longer pending, or truly absent.
			if existing, getErr := s.repo.Get(ctx, id); getErr == nil && existing.Status != StatusPending {
				return Intention{}, ErrNotPending
			}
			return Intention{}, ErrNotFound
		}
		return Intention{}, mapPersistenceError(err)
	}
	return mapIntention(record), nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	scope, err := requireScope(ctx)
	if err != nil {
		return err
	}

	record, err := s.repo.Get(ctx, id)
	if err != nil {
		return mapPersistenceError(err)
	}
	if !parish.CanModerateIntentions(scope.Role) && record.UserID != scope.UserID {
		return ErrForbidden
	}
	return mapPersistenceError(s.repo.Delete(ctx, id))
}

// Ledger builds the printable sheet for one mass date from the approved
// intentions, in submission order.
func (s *service) Ledger(ctx context.Context, massDate time.Time) (Ledger, error) {
	scope, err := requireScope(ctx)
	if err != nil {
		return Ledger{}, err
	}
	if !parish.CanModerateIntentions(scope.Role) {
		return Ledger{}, ErrForbidden
	}

	records, err := s.repo.ListApprovedForDate(ctx, massDate)
	if err != nil {
		return Ledger{}, mapPersistenceError(err)
	}
	intentions := make([]Intention, 0, len(records))
	for _, record := range records {
		intentions = append(intentions, mapIntention(record))
	}
	return BuildLedger(scope.Parish.Name, massDate, intentions), nil
}

func requireScope(ctx context.Context) (parish.Scope, error) {
	scope, ok := parish.ScopeFromContext(ctx)
	if !ok {
		return parish.Scope{}, errors.New("parish scope missing from context")
	}
	return scope, nil
}

func mapIntention(record persistence.MassIntention) Intention {
	return Intention{
		ID:             record.ID,
		UserID:         record.UserID,
		RequesterName:  record.RequesterName,
		Intention:      record.Intention,
		Category:       record.Category,
		MassDate:       record.MassDate,
		MassTime:       record.MassTime,
		Status:         record.Status,
		ModerationNote: record.ModerationNote,
		CreatedAt:      record.CreatedAt,
	}
}

func mapPersistenceError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, persistence.ErrIntentionNotFound):
		return ErrNotFound
	default:
		return err
	}
}

func (f FieldErrors) add(field, message string) {
	if f == nil {
		return
	}
	f[field] = append(f[field], message)
}
