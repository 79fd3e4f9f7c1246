package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/paroquiaemdia/parish-api/platform/go/parish"
	"github.com/paroquiaemdia/parish-api/platform/go/persistence"
)

// Repository defines the persistence operations required by the prayers
// service.
type Repository interface {
	Create(ctx context.Context, params persistence.CreatePrayerParams) (persistence.PrayerRequest, error)
	Get(ctx context.Context, id uuid.UUID) (persistence.PrayerRequest, error)
	List(ctx context.Context, params persistence.ListPrayersParams) ([]persistence.PrayerRequest, error)
	SetStatus(ctx context.Context, id uuid.UUID, status string) (persistence.PrayerRequest, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type postgresRepository struct {
	store *persistence.PrayerStore
}

// NewPostgresRepository constructs a repository backed by the shared persistence layer.
func NewPostgresRepository(store *persistence.PrayerStore) Repository {
	if store == nil {
		panic("prayer store is required")
	}
	return &postgresRepository{store: store}
}

func (r *postgresRepository) Create(ctx context.Context, params persistence.CreatePrayerParams) (persistence.PrayerRequest, error) {
	scope, err := requireScope(ctx)
	if err != nil {
		return persistence.PrayerRequest{}, err
	}
	params.ParishID = scope.Parish.ID
	return r.store.CreatePrayer(ctx, params)
}

func (r *postgresRepository) Get(ctx context.Context, id uuid.UUID) (persistence.PrayerRequest, error) {
	scope, err := requireScope(ctx)
	if err != nil {
		return persistence.PrayerRequest{}, err
	}
	p, err := r.store.GetPrayer(ctx, id)
	if err != nil {
		return persistence.PrayerRequest{}, err
	}
	if p.ParishID != scope.Parish.ID {
		return persistence.PrayerRequest{}, persistence.ErrPrayerNotFound
	}
	return p, nil
}

func (r *postgresRepository) List(ctx context.Context, params persistence.ListPrayersParams) ([]persistence.PrayerRequest, error) {
	scope, err := requireScope(ctx)
	if err != nil {
		return nil, err
	}
	return r.store.ListPrayers(ctx, scope.Parish.ID, params)
}

func (r *postgresRepository) SetStatus(ctx context.Context, id uuid.UUID, status string) (persistence.PrayerRequest, error) {
	if _, err := r.Get(ctx, id); err != nil {
		return persistence.PrayerRequest{}, err
	}
	return r.store.SetPrayerStatus(ctx, id, status)
}

func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.Get(ctx, id); err != nil {
		return err
	}
	return r.store.DeletePrayer(ctx, id)
}

func requireScope(ctx context.Context) (parish.Scope, error) {
	scope, ok := parish.ScopeFromContext(ctx)
	if !ok {
		return parish.Scope{}, errors.New("parish scope missing from context")
	}
	return scope, nil
}
