package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/paroquiaemdia/parish-api/platform/go/parish"
	"github.com/paroquiaemdia/parish-api/platform/go/persistence"
)

// Repository defines the persistence operations required by the
// announcements service.
type Repository interface {
	Create(ctx context.Context, params persistence.CreateAnnouncementParams) (persistence.Announcement, error)
	Get(ctx context.Context, id uuid.UUID) (persistence.Announcement, error)
	List(ctx context.Context, publishedOnly bool) ([]persistence.Announcement, error)
	Update(ctx context.Context, id uuid.UUID, params persistence.UpdateAnnouncementParams) (persistence.Announcement, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type postgresRepository struct {
	store *persistence.AnnouncementStore
}

// NewPostgresRepository constructs a repository backed by the shared persistence layer.
func NewPostgresRepository(store *persistence.AnnouncementStore) Repository {
	if store == nil {
		panic("announcement store is required")
	}
	return &postgresRepository{store: store}
}

func (r *postgresRepository) Create(ctx context.Context, params persistence.CreateAnnouncementParams) (persistence.Announcement, error) {
	scope, err := requireScope(ctx)
	if err != nil {
		return persistence.Announcement{}, err
	}
	params.ParishID = scope.Parish.ID
	return r.store.CreateAnnouncement(ctx, params)
}

func (r *postgresRepository) Get(ctx context.Context, id uuid.UUID) (persistence.Announcement, error) {
	scope, err := requireScope(ctx)
	if err != nil {
		return persistence.Announcement{}, err
	}
	a, err := r.store.GetAnnouncement(ctx, id)
	if err != nil {
		return persistence.Announcement{}, err
	}
	if a.ParishID != scope.Parish.ID {
		return persistence.Announcement{}, persistence.ErrAnnouncementNotFound
	}
	return a, nil
}

func (r *postgresRepository) List(ctx context.Context, publishedOnly bool) ([]persistence.Announcement, error) {
	scope, err := requireScope(ctx)
	if err != nil {
		return nil, err
	}
	return r.store.ListAnnouncements(ctx, scope.Parish.ID, publishedOnly)
}

func (r *postgresRepository) Update(ctx context.Context, id uuid.UUID, params persistence.UpdateAnnouncementParams) (persistence.Announcement, error) {
	if _, err := r.Get(ctx, id); err != nil {
		return persistence.Announcement{}, err
	}
	return r.store.UpdateAnnouncement(ctx, id, params)
}

func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.Get(ctx, id); err != nil {
		return err
	}
	return r.store.DeleteAnnouncement(ctx, id)
}

func requireScope(ctx context.Context) (parish.Scope, error) {
	scope, ok := parish.ScopeFromContext(ctx)
	if !ok {
		return parish.Scope{}, errors.New("parish scope missing from context")
	}
	return scope, nil
}
