package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/paroquiaemdia/parish-api/platform/go/parish"
	"github.com/paroquiaemdia/parish-api/platform/go/persistence"
)

// Repository defines the persistence operations required by the intentions service.
type Repository interface {
	Create(ctx context.Context, params persistence.CreateIntentionParams) (persistence.MassIntention, error)
	List(ctx context.Context, params persistence.ListIntentionsParams) ([]persistence.MassIntention, error)
	ListApprovedForDate(ctx context.Context, massDate time.Time) ([]persistence.MassIntention, error)
	Get(ctx context.Context, id uuid.UUID) (persistence.MassIntention, error)
	Moderate(ctx context.Context, id uuid.UUID, status, note string) (persistence.MassIntention, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type postgresRepository struct {
	store *persistence.IntentionStore
}

// NewPostgresRepository constructs a repository backed by the shared persistence layer.
func NewPostgresRepository(store *persistence.IntentionStore) Repository {
	if store == nil {
		panic("intention store is required")
	}
	return &postgresRepository{store: store}
}

func (r *postgresRepository) Create(ctx context.Context, params persistence.CreateIntentionParams) (persistence.MassIntention, error) {
	scope, err := requireScope(ctx)
	if err != nil {
		return persistence.MassIntention{}, err
	}
	params.ParishID = scope.Parish.ID
	return r.store.CreateIntention(ctx, params)
}

func (r *postgresRepository) List(ctx context.Context, params persistence.ListIntentionsParams) ([]persistence.MassIntention, error) {
	scope, err := requireScope(ctx)
	if err != nil {
		return nil, err
	}
	return r.store.ListIntentions(ctx, scope.Parish.ID, params)
}

func (r *postgresRepository) ListApprovedForDate(ctx context.Context, massDate time.Time) ([]persistence.MassIntention, error) {
	scope, err := requireScope(ctx)
	if err != nil {
		return nil, err
	}
	return r.store.ListApprovedForDate(ctx, scope.Parish.ID, massDate)
}

func (r *postgresRepository) Get(ctx context.Context, id uuid.UUID) (persistence.MassIntention, error) {
	scope, err := requireScope(ctx)
	if err != nil {
		return persistence.MassIntention{}, err
	}
	record, err := r.store.GetIntention(ctx, id)
	if err != nil {
		return persistence.MassIntention{}, err
	}
	if record.ParishID != scope.Parish.ID {
		return persistence.MassIntention{}, persistence.ErrIntentionNotFound
	}
	return record, nil
}

func (r *postgresRepository) Moderate(ctx context.Context, id uuid.UUID, status, note string) (persistence.MassIntention, error) {
	if _, err := r.Get(ctx, id); err != nil {
		return persistence.MassIntention{}, err
	}
	return r.store.ModerateIntention(ctx, id, status, note)
}

func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.Get(ctx, id); err != nil {
		return err
	}
	return r.store.DeleteIntention(ctx, id)
}

func requireScope(ctx context.Context) (parish.Scope, error) {
	scope, ok := parish.ScopeFromContext(ctx)
	if !ok {
		return parish.Scope{}, errors.New("parish scope missing from context")
	}
	return scope, nil
}
