package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/paroquiaemdia/parish-api/domains/memberships/be/repo"
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

// Sentinel errors returned by the membership service.
var (
	ErrNotFound  = errors.New("membership not found")
	ErrForbidden = errors.New("operation not allowed for role")
)

// Membership statuses.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Member is a membership row projected for API consumers.
type Member struct {
	ID        uuid.UUID
	UserID    string
	Role      parish.Role
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Resolution pairs a resolved role with its derived capability flags. A user
// without an active membership resolves to RoleNone and the zero Capabilities.
type Resolution struct {
	Role         parish.Role
	Capabilities parish.Capabilities
}

// Service defines the business operations for the memberships domain.
type Service interface {
	Resolve(ctx context.Context, parishID uuid.UUID, userID string) (Resolution, error)
	Me(ctx context.Context) (Resolution, error)
	ListMembers(ctx context.Context) ([]Member, error)
	AddMember(ctx context.Context, userID string, role parish.Role) (Member, error)
	SetRole(ctx context.Context, membershipID uuid.UUID, role parish.Role) (Member, error)
	SetActive(ctx context.Context, membershipID uuid.UUID, active bool) (Member, error)
}

type service struct {
	repo repo.Repository
}

// New constructs a membership Service.
func New(r repo.Repository) Service {
	if r == nil {
		panic("membership repository is required")
	}
	return &service{repo: r}
}

// Resolve looks up the single active membership of a user in a parish. A
// missing membership is a valid answer, not an error; any other lookup
// failure fails closed so no role is ever guessed.
func (s *service) Resolve(ctx context.Context, parishID uuid.UUID, userID string) (Resolution, error) {
	if userID == "" {
		return Resolution{}, nil
	}
	m, err := s.repo.GetActiveMembership(ctx, parishID, userID)
	if err != nil {
		if errors.Is(err, persistence.ErrMembershipNotFound) {
			return Resolution{Role: parish.RoleNone}, nil
		}
		return Resolution{}, fmt.Errorf("resolve membership: %w", err)
	}
	role := parish.RoleFromString(m.Role)
	return Resolution{Role: role, Capabilities: parish.DeriveCapabilities(role)}, nil
}

// Me reflects the scope already resolved by the middleware for this request.
func (s *service) Me(ctx context.Context) (Resolution, error) {
	scope, ok := parish.ScopeFromContext(ctx)
	if !ok {
		return Resolution{}, errors.New("parish scope missing from context")
	}
	return Resolution{Role: scope.Role, Capabilities: parish.DeriveCapabilities(scope.Role)}, nil
}

func (s *service) ListMembers(ctx context.Context) ([]Member, error) {
	scope, ok := parish.ScopeFromContext(ctx)
	if !ok {
		return nil, errors.New("parish scope missing from context")
	}
	if !parish.CanManage(scope.Role) {
		return nil, ErrForbidden
	}
	records, err := s.repo.ListMembers(ctx)
	if err != nil {
		return nil, mapPersistenceError(err)
	}
	members := make([]Member, 0, len(records))
	for _, record := range records {
		members = append(members, mapMember(record))
	}
	return members, nil
}

func (s *service) AddMember(ctx context.Context, userID string, role parish.Role) (Member, error) {
	scope, ok := parish.ScopeFromContext(ctx)
	if !ok {
		return Member{}, errors.New("parish scope missing from context")
	}
	if !parish.CanAdmin(scope.Role) {
		return Member{}, ErrForbidden
	}

	fieldErrors := FieldErrors{}
	if userID == "" {
		fieldErrors.add("userId", "userId is required")
	}
	validateAssignableRole(fieldErrors, role)
	if len(fieldErrors) > 0 {
		return Member{}, &ValidationError{Fields: fieldErrors}
	}

	record, err := s.repo.AddMember(ctx, userID, string(role))
	if err != nil {
		return Member{}, mapPersistenceError(err)
	}
	return mapMember(record), nil
}

func (s *service) SetRole(ctx context.Context, membershipID uuid.UUID, role parish.Role) (Member, error) {
	scope, ok := parish.ScopeFromContext(ctx)
	if !ok {
		return Member{}, errors.New("parish scope missing from context")
	}
	if !parish.CanAdmin(scope.Role) {
		return Member{}, ErrForbidden
	}

	fieldErrors := FieldErrors{}
	validateAssignableRole(fieldErrors, role)
	if len(fieldErrors) > 0 {
		return Member{}, &ValidationError{Fields: fieldErrors}
	}

	record, err := s.repo.SetRole(ctx, membershipID, string(role))
	if err != nil {
		return Member{}, mapPersistenceError(err)
	}
	return mapMember(record), nil
}

// SetActive flips the membership status. Memberships are never deleted so an
// audit trail survives deactivation.
func (s *service) SetActive(ctx context.Context, membershipID uuid.UUID, active bool) (Member, error) {
	scope, ok := parish.ScopeFromContext(ctx)
	if !ok {
		return Member{}, errors.New("parish scope missing from context")
	}
	if !parish.CanAdmin(scope.Role) {
		return Member{}, ErrForbidden
	}

	status := StatusInactive
	if active {
		status = StatusActive
	}
	record, err := s.repo.SetStatus(ctx, membershipID, status)
	if err != nil {
		return Member{}, mapPersistenceError(err)
	}
	return mapMember(record), nil
}

// validateAssignableRole accepts every parish-level role. super_admin is
// platform-wide and is never granted through this API.
func validateAssignableRole(fieldErrors FieldErrors, role parish.Role) {
	if !role.Valid() || role == parish.RoleSuperAdmin {
		fieldErrors.add("role", "role is not assignable")
	}
}

func mapMember(record persistence.Membership) Member {
	return Member{
		ID:        record.ID,
		UserID:    record.UserID,
		Role:      parish.RoleFromString(record.Role),
		Status:    record.Status,
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
}

func mapPersistenceError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, persistence.ErrMembershipNotFound):
		return ErrNotFound
	default:
		return err
	}
}

func (f FieldErrors) add(field, message string) {
	f[field] = append(f[field], message)
}
