package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/paroquiaemdia/parish-api/platform/go/parish"
	"github.com/paroquiaemdia/parish-api/platform/go/persistence"
)

// Repository defines the persistence operations required by the tithe service.
type Repository interface {
	CreatePledger(ctx context.Context, userID *string, name, phone, email string) (persistence.Pledger, error)
	GetPledger(ctx context.Context, id uuid.UUID) (persistence.Pledger, error)
	GetPledgerByUser(ctx context.Context, userID string) (persistence.Pledger, error)
	ListPledgers(ctx context.Context) ([]persistence.Pledger, error)
	CreatePledge(ctx context.Context, pledge persistence.Pledge, installments []persistence.Installment) (persistence.Pledge, []persistence.Installment, error)
	GetPledge(ctx context.Context, id uuid.UUID) (persistence.Pledge, error)
	ListPledges(ctx context.Context, pledgerID uuid.UUID) ([]persistence.Pledge, error)
	ListInstallments(ctx context.Context, pledgeID uuid.UUID) ([]persistence.Installment, error)
	GetInstallment(ctx context.Context, id uuid.UUID) (persistence.Installment, error)
	MarkInstallmentPaid(ctx context.Context, id uuid.UUID, paidAt time.Time) (persistence.Installment, error)
	MarkOverdue(ctx context.Context, asOf time.Time) (int64, error)
	SummarizeYear(ctx context.Context, year int) (persistence.TitheSummary, error)
}

type postgresRepository struct {
	store *persistence.TitheStore
}

// NewPostgresRepository constructs a repository backed by the shared persistence layer.
func NewPostgresRepository(store *persistence.TitheStore) Repository {
	if store == nil {
		panic("tithe store is required")
	}
	return &postgresRepository{store: store}
}

func (r *postgresRepository) CreatePledger(ctx context.Context, userID *string, name, phone, email string) (persistence.Pledger, error) {
	scope, err := requireScope(ctx)
	if err != nil {
		return persistence.Pledger{}, err
	}
	return r.store.CreatePledger(ctx, scope.Parish.ID, userID, name, phone, email)
}

func (r *postgresRepository) GetPledger(ctx context.Context, id uuid.UUID) (persistence.Pledger, error) {
	scope, err := requireScope(ctx)
	if err != nil {
		return persistence.Pledger{}, err
	}
	pledger, err := r.store.GetPledger(ctx, id)
	if err != nil {
		return persistence.Pledger{}, err
	}
	if pledger.ParishID != scope.Parish.ID {
		return persistence.Pledger{}, persistence.ErrPledgerNotFound
	}
	return pledger, nil
}

func (r *postgresRepository) GetPledgerByUser(ctx context.Context, userID string) (persistence.Pledger, error) {
	scope, err := requireScope(ctx)
	if err != nil {
		return persistence.Pledger{}, err
	}
	return r.store.GetPledgerByUser(ctx, scope.Parish.ID, userID)
}

func (r *postgresRepository) ListPledgers(ctx context.Context) ([]persistence.Pledger, error) {
	scope, err := requireScope(ctx)
	if err != nil {
		return nil, err
	}
	return r.store.ListPledgers(ctx, scope.Parish.ID)
}

func (r *postgresRepository) CreatePledge(ctx context.Context, pledge persistence.Pledge, installments []persistence.Installment) (persistence.Pledge, []persistence.Installment, error) {
	scope, err := requireScope(ctx)
	if err != nil {
		return persistence.Pledge{}, nil, err
	}
	pledge.ParishID = scope.Parish.ID
	return r.store.CreatePledge(ctx, pledge, installments)
}

func (r *postgresRepository) GetPledge(ctx context.Context, id uuid.UUID) (persistence.Pledge, error) {
	scope, err := requireScope(ctx)
	if err != nil {
		return persistence.Pledge{}, err
	}
	pledge, err := r.store.GetPledge(ctx, id)
	if err != nil {
		return persistence.Pledge{}, err
	}
	if pledge.ParishID != scope.Parish.ID {
		return persistence.Pledge{}, persistence.ErrPledgeNotFound
	}
	return pledge, nil
}

func (r *postgresRepository) ListPledges(ctx context.Context, pledgerID uuid.UUID) ([]persistence.Pledge, error) {
	if _, err := r.GetPledger(ctx, pledgerID); err != nil {
		return nil, err
	}
	return r.store.ListPledges(ctx, pledgerID)
}

func (r *postgresRepository) ListInstallments(ctx context.Context, pledgeID uuid.UUID) ([]persistence.Installment, error) {
	if _, err := r.GetPledge(ctx, pledgeID); err != nil {
		return nil, err
	}
	return r.store.ListInstallments(ctx, pledgeID)
}

func (r *postgresRepository) GetInstallment(ctx context.Context, id uuid.UUID) (persistence.Installment, error) {
	scope, err := requireScope(ctx)
	if err != nil {
		return persistence.Installment{}, err
	}
	inst, err := r.store.GetInstallment(ctx, id)
	if err != nil {
		return persistence.Installment{}, err
	}
	if inst.ParishID != scope.Parish.ID {
		return persistence.Installment{}, persistence.ErrInstallmentNotFound
	}
	return inst, nil
}

func (r *postgresRepository) MarkInstallmentPaid(ctx context.Context, id uuid.UUID, paidAt time.Time) (persistence.Installment, error) {
	if _, err := r.GetInstallment(ctx, id); err != nil {
		return persistence.Installment{}, err
	}
	return r.store.MarkInstallmentPaid(ctx, id, paidAt)
}

func (r *postgresRepository) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	scope, err := requireScope(ctx)
	if err != nil {
		return 0, err
	}
	return r.store.MarkOverdue(ctx, scope.Parish.ID, asOf)
}

func (r *postgresRepository) SummarizeYear(ctx context.Context, year int) (persistence.TitheSummary, error) {
	scope, err := requireScope(ctx)
	if err != nil {
		return persistence.TitheSummary{}, err
	}
	return r.store.SummarizeYear(ctx, scope.Parish.ID, year)
}

func requireScope(ctx context.Context) (parish.Scope, error) {
	scope, ok := parish.ScopeFromContext(ctx)
	if !ok {
		return parish.Scope{}, errors.New("parish scope missing from context")
	}
	return scope, nil
}
