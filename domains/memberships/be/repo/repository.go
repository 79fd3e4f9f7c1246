package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/paroquiaemdia/parish-api/platform/go/parish"
	"github.com/paroquiaemdia/parish-api/platform/go/persistence"
)

// Repository defines the persistence operations required by the membership
// service. Resolve runs before a request scope exists, so it takes parish and
// user explicitly; every other method reads the parish from the context scope.
type Repository interface {
	GetActiveMembership(ctx context.Context, parishID uuid.UUID, userID string) (persistence.Membership, error)
	ListMembers(ctx context.Context) ([]persistence.Membership, error)
	AddMember(ctx context.Context, userID, role string) (persistence.Membership, error)
	SetRole(ctx context.Context, membershipID uuid.UUID, role string) (persistence.Membership, error)
	SetStatus(ctx context.Context, membershipID uuid.UUID, status string) (persistence.Membership, error)
}

type postgresRepository struct {
	store *persistence.MembershipStore
}

// NewPostgresRepository constructs a repository backed by the shared persistence layer.
func NewPostgresRepository(store *persistence.MembershipStore) Repository {
	if store == nil {
		panic("membership store is required")
	}
	return &postgresRepository{store: store}
}

func (r *postgresRepository) GetActiveMembership(ctx context.Context, parishID uuid.UUID, userID string) (persistence.Membership, error) {
	return r.store.GetActiveMembership(ctx, parishID, userID)
}

func (r *postgresRepository) ListMembers(ctx context.Context) ([]persistence.Membership, error) {
	scope, err := requireScope(ctx)
	if err != nil {
		return nil, err
	}
	return r.store.ListMemberships(ctx, scope.Parish.ID)
}

func (r *postgresRepository) AddMember(ctx context.Context, userID, role string) (persistence.Membership, error) {
	scope, err := requireScope(ctx)
	if err != nil {
		return persistence.Membership{}, err
	}
	return r.store.UpsertMembership(ctx, scope.Parish.ID, userID, role)
}

func (r *postgresRepository) SetRole(ctx context.Context, membershipID uuid.UUID, role string) (persistence.Membership, error) {
	if _, err := r.checkMembership(ctx, membershipID); err != nil {
		return persistence.Membership{}, err
	}
	return r.store.SetMembershipRole(ctx, membershipID, role)
}

func (r *postgresRepository) SetStatus(ctx context.Context, membershipID uuid.UUID, status string) (persistence.Membership, error) {
	if _, err := r.checkMembership(ctx, membershipID); err != nil {
		return persistence.Membership{}, err
	}
	return r.store.SetMembershipStatus(ctx, membershipID, status)
}

// checkMembership confirms the membership belongs to the scoped parish.
// Cross-parish ids surface as not found, never as forbidden.
func (r *postgresRepository) checkMembership(ctx context.Context, membershipID uuid.UUID) (persistence.Membership, error) {
	scope, err := requireScope(ctx)
	if err != nil {
		return persistence.Membership{}, err
	}
	m, err := r.store.GetMembership(ctx, membershipID)
	if err != nil {
		return persistence.Membership{}, err
	}
	if m.ParishID != scope.Parish.ID {
		return persistence.Membership{}, persistence.ErrMembershipNotFound
	}
	return m, nil
}

func requireScope(ctx context.Context) (parish.Scope, error) {
	scope, ok := parish.ScopeFromContext(ctx)
	if !ok {
		return parish.Scope{}, errors.New("parish scope missing from context")
	}
	return scope, nil
}
