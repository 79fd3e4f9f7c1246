package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/paroquiaemdia/parish-api/platform/go/parish"
	"github.com/paroquiaemdia/parish-api/platform/go/persistence"
)

// Repository defines the persistence operations required by the ministries
// service.
type Repository interface {
	Create(ctx context.Context, params persistence.CreateMinistryParams) (persistence.Ministry, error)
	Get(ctx context.Context, id uuid.UUID) (persistence.Ministry, error)
	List(ctx context.Context) ([]persistence.Ministry, error)
	Update(ctx context.Context, id uuid.UUID, params persistence.UpdateMinistryParams) (persistence.Ministry, error)
	Delete(ctx context.Context, id uuid.UUID) error
	AddMember(ctx context.Context, ministryID uuid.UUID, userID string) error
	RemoveMember(ctx context.Context, ministryID uuid.UUID, userID string) error
}

type postgresRepository struct {
	store *persistence.MinistryStore
}

// NewPostgresRepository constructs a repository backed by the shared persistence layer.
func NewPostgresRepository(store *persistence.MinistryStore) Repository {
	if store == nil {
		panic("ministry store is required")
	}
	return &postgresRepository{store: store}
}

func (r *postgresRepository) Create(ctx context.Context, params persistence.CreateMinistryParams) (persistence.Ministry, error) {
	scope, err := requireScope(ctx)
	if err != nil {
		return persistence.Ministry{}, err
	}
	params.ParishID = scope.Parish.ID
	return r.store.CreateMinistry(ctx, params)
}

func (r *postgresRepository) Get(ctx context.Context, id uuid.UUID) (persistence.Ministry, error) {
	scope, err := requireScope(ctx)
	if err != nil {
		return persistence.Ministry{}, err
	}
	m, err := r.store.GetMinistry(ctx, id)
	if err != nil {
		return persistence.Ministry{}, err
	}
	if m.ParishID != scope.Parish.ID {
		return persistence.Ministry{}, persistence.ErrMinistryNotFound
	}
	return m, nil
}

func (r *postgresRepository) List(ctx context.Context) ([]persistence.Ministry, error) {
	scope, err := requireScope(ctx)
	if err != nil {
		return nil, err
	}
	return r.store.ListMinistries(ctx, scope.Parish.ID)
}

func (r *postgresRepository) Update(ctx context.Context, id uuid.UUID, params persistence.UpdateMinistryParams) (persistence.Ministry, error) {
	if _, err := r.Get(ctx, id); err != nil {
		return persistence.Ministry{}, err
	}
	return r.store.UpdateMinistry(ctx, id, params)
}

func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.Get(ctx, id); err != nil {
		return err
	}
	return r.store.DeleteMinistry(ctx, id)
}

func (r *postgresRepository) AddMember(ctx context.Context, ministryID uuid.UUID, userID string) error {
	if _, err := r.Get(ctx, ministryID); err != nil {
		return err
	}
	return r.store.AddMinistryMember(ctx, ministryID, userID)
}

func (r *postgresRepository) RemoveMember(ctx context.Context, ministryID uuid.UUID, userID string) error {
	if _, err := r.Get(ctx, ministryID); err != nil {
		return err
	}
	return r.store.RemoveMinistryMember(ctx, ministryID, userID)
}

func requireScope(ctx context.Context) (parish.Scope, error) {
	scope, ok := parish.ScopeFromContext(ctx)
	if !ok {
		return parish.Scope{}, errors.New("parish scope missing from context")
	}
	return scope, nil
}
