package repo

import (
	"context"

	"github.com/paroquiaemdia/parish-api/platform/go/persistence"
)

// Repository defines the persistence operations required by the profiles
// service. Profiles are platform-wide and keyed by the identity provider uid,
// so nothing here reads the parish scope.
type Repository interface {
	Upsert(ctx context.Context, userID, name, email, photoURL string) (persistence.Profile, error)
	Get(ctx context.Context, userID string) (persistence.Profile, error)
	Update(ctx context.Context, userID string, params persistence.UpdateProfileParams) (persistence.Profile, error)
}

type postgresRepository struct {
	store *persistence.ProfileStore
}

// NewPostgresRepository constructs a repository backed by the shared persistence layer.
func NewPostgresRepository(store *persistence.ProfileStore) Repository {
	if store == nil {
		panic("profile store is required")
	}
	return &postgresRepository{store: store}
}

func (r *postgresRepository) Upsert(ctx context.Context, userID, name, email, photoURL string) (persistence.Profile, error) {
	return r.store.UpsertProfile(ctx, userID, name, email, photoURL)
}

func (r *postgresRepository) Get(ctx context.Context, userID string) (persistence.Profile, error) {
	return r.store.GetProfile(ctx, userID)
}

func (r *postgresRepository) Update(ctx context.Context, userID string, params persistence.UpdateProfileParams) (persistence.Profile, error) {
	return r.store.UpdateProfile(ctx, userID, params)
}
