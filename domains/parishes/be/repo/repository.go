package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/paroquiaemdia/parish-api/platform/go/persistence"
)

// Repository defines the persistence operations required by the parish
// service. Creation and listing run before a parish scope exists, so nothing
// here reads the context scope; the service enforces authorization.
type Repository interface {
	Create(ctx context.Context, params persistence.CreateParishParams, adminRole string) (persistence.Parish, error)
	Get(ctx context.Context, id uuid.UUID) (persistence.Parish, error)
	GetBySlug(ctx context.Context, slug string) (persistence.Parish, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	Update(ctx context.Context, id uuid.UUID, params persistence.UpdateParishParams) (persistence.Parish, error)
	ListForUser(ctx context.Context, userID string) ([]persistence.ParishMembership, error)
}

type postgresRepository struct {
	store *persistence.ParishStore
}

// NewPostgresRepository constructs a repository backed by the shared persistence layer.
func NewPostgresRepository(store *persistence.ParishStore) Repository {
	if store == nil {
		panic("parish store is required")
	}
	return &postgresRepository{store: store}
}

func (r *postgresRepository) Create(ctx context.Context, params persistence.CreateParishParams, adminRole string) (persistence.Parish, error) {
	return r.store.CreateParish(ctx, params, adminRole)
}

func (r *postgresRepository) Get(ctx context.Context, id uuid.UUID) (persistence.Parish, error) {
	return r.store.GetParish(ctx, id)
}

func (r *postgresRepository) GetBySlug(ctx context.Context, slug string) (persistence.Parish, error) {
	return r.store.GetParishBySlug(ctx, slug)
}

func (r *postgresRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	return r.store.SlugExists(ctx, slug)
}

func (r *postgresRepository) Update(ctx context.Context, id uuid.UUID, params persistence.UpdateParishParams) (persistence.Parish, error) {
	return r.store.UpdateParish(ctx, id, params)
}

func (r *postgresRepository) ListForUser(ctx context.Context, userID string) ([]persistence.ParishMembership, error) {
	return r.store.ListParishesForUser(ctx, userID)
}
