package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/paroquiaemdia/parish-api/platform/go/parish"
	"github.com/paroquiaemdia/parish-api/platform/go/persistence"
)

// Repository defines the persistence operations required by the pos service.
type Repository interface {
	CreateEvent(ctx context.Context, params persistence.CreateEventParams) (persistence.Event, error)
	ListEvents(ctx context.Context, salesOnly bool) ([]persistence.Event, error)
	UpdateEvent(ctx context.Context, id uuid.UUID, params persistence.UpdateEventParams) (persistence.Event, error)
	DeleteEvent(ctx context.Context, id uuid.UUID) error
	CreateSalesPoint(ctx context.Context, eventID uuid.UUID, name string) (persistence.SalesPoint, error)
	GetSalesPoint(ctx context.Context, id uuid.UUID) (persistence.SalesPoint, error)
	ListSalesPoints(ctx context.Context, eventID uuid.UUID) ([]persistence.SalesPoint, error)
	CreateProduct(ctx context.Context, params persistence.CreateProductParams) (persistence.Product, error)
	ListProducts(ctx context.Context, salesPointID uuid.UUID) ([]persistence.Product, error)
	SetProductActive(ctx context.Context, id uuid.UUID, active bool) (persistence.Product, error)
	CreateOrder(ctx context.Context, salesPointID uuid.UUID, operatorID, customerName string, lines []persistence.OrderLine) (persistence.Order, []persistence.OrderItem, error)
	GetOrder(ctx context.Context, id uuid.UUID) (persistence.Order, error)
	ListOrderItems(ctx context.Context, orderID uuid.UUID) ([]persistence.OrderItem, error)
	ListOrders(ctx context.Context, salesPointID uuid.UUID, status string) ([]persistence.Order, error)
	PayOrder(ctx context.Context, id uuid.UUID, paymentMethod string) (persistence.Order, error)
	DeliverOrder(ctx context.Context, id uuid.UUID) (persistence.Order, error)
	CancelOrder(ctx context.Context, id uuid.UUID) (persistence.Order, error)
}

type postgresRepository struct {
	events *persistence.EventStore
	pos    *persistence.PosStore
}

// NewPostgresRepository constructs a repository backed by the shared persistence layer.
func NewPostgresRepository(events *persistence.EventStore, pos *persistence.PosStore) Repository {
	if events == nil {
		panic("event store is required")
	}
	if pos == nil {
		panic("pos store is required")
	}
	return &postgresRepository{events: events, pos: pos}
}

func (r *postgresRepository) CreateEvent(ctx context.Context, params persistence.CreateEventParams) (persistence.Event, error) {
	scope, err := requireScope(ctx)
	if err != nil {
		return persistence.Event{}, err
	}
	params.ParishID = scope.Parish.ID
	return r.events.CreateEvent(ctx, params)
}

func (r *postgresRepository) ListEvents(ctx context.Context, salesOnly bool) ([]persistence.Event, error) {
	scope, err := requireScope(ctx)
	if err != nil {
		return nil, err
	}
	return r.events.ListEvents(ctx, scope.Parish.ID, salesOnly)
}

func (r *postgresRepository) UpdateEvent(ctx context.Context, id uuid.UUID, params persistence.UpdateEventParams) (persistence.Event, error) {
	if err := r.checkEvent(ctx, id); err != nil {
		return persistence.Event{}, err
	}
	return r.events.UpdateEvent(ctx, id, params)
}

func (r *postgresRepository) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	if err := r.checkEvent(ctx, id); err != nil {
		return err
	}
	return r.events.DeleteEvent(ctx, id)
}

func (r *postgresRepository) CreateSalesPoint(ctx context.Context, eventID uuid.UUID, name string) (persistence.SalesPoint, error) {
	scope, err := requireScope(ctx)
	if err != nil {
		return persistence.SalesPoint{}, err
	}
	if err := r.checkEvent(ctx, eventID); err != nil {
		return persistence.SalesPoint{}, err
	}
	return r.events.CreateSalesPoint(ctx, eventID, scope.Parish.ID, name)
}

func (r *postgresRepository) GetSalesPoint(ctx context.Context, id uuid.UUID) (persistence.SalesPoint, error) {
	scope, err := requireScope(ctx)
	if err != nil {
		return persistence.SalesPoint{}, err
	}
	sp, err := r.events.GetSalesPoint(ctx, id)
	if err != nil {
		return persistence.SalesPoint{}, err
	}
	if sp.ParishID != scope.Parish.ID {
		return persistence.SalesPoint{}, persistence.ErrSalesPointNotFound
	}
	return sp, nil
}

func (r *postgresRepository) ListSalesPoints(ctx context.Context, eventID uuid.UUID) ([]persistence.SalesPoint, error) {
	if err := r.checkEvent(ctx, eventID); err != nil {
		return nil, err
	}
	return r.events.ListSalesPoints(ctx, eventID)
}

func (r *postgresRepository) CreateProduct(ctx context.Context, params persistence.CreateProductParams) (persistence.Product, error) {
	scope, err := requireScope(ctx)
	if err != nil {
		return persistence.Product{}, err
	}
	if _, err := r.GetSalesPoint(ctx, params.SalesPointID); err != nil {
		return persistence.Product{}, err
	}
	params.ParishID = scope.Parish.ID
	return r.events.CreateProduct(ctx, params)
}

func (r *postgresRepository) ListProducts(ctx context.Context, salesPointID uuid.UUID) ([]persistence.Product, error) {
	if _, err := r.GetSalesPoint(ctx, salesPointID); err != nil {
		return nil, err
	}
	return r.events.ListProducts(ctx, salesPointID)
}

func (r *postgresRepository) SetProductActive(ctx context.Context, id uuid.UUID, active bool) (persistence.Product, error) {
	scope, err := requireScope(ctx)
	if err != nil {
		return persistence.Product{}, err
	}
	product, err := r.events.GetProduct(ctx, id)
	if err != nil {
		return persistence.Product{}, err
	}
	if product.ParishID != scope.Parish.ID {
		return persistence.Product{}, persistence.ErrProductNotFound
	}
	return r.events.SetProductActive(ctx, id, active)
}

func (r *postgresRepository) CreateOrder(ctx context.Context, salesPointID uuid.UUID, operatorID, customerName string, lines []persistence.OrderLine) (persistence.Order, []persistence.OrderItem, error) {
	scope, err := requireScope(ctx)
	if err != nil {
		return persistence.Order{}, nil, err
	}
	if _, err := r.GetSalesPoint(ctx, salesPointID); err != nil {
		return persistence.Order{}, nil, err
	}
	return r.pos.CreateOrder(ctx, salesPointID, scope.Parish.ID, operatorID, customerName, lines)
}

func (r *postgresRepository) GetOrder(ctx context.Context, id uuid.UUID) (persistence.Order, error) {
	scope, err := requireScope(ctx)
	if err != nil {
		return persistence.Order{}, err
	}
	order, err := r.pos.GetOrder(ctx, id)
	if err != nil {
		return persistence.Order{}, err
	}
	if order.ParishID != scope.Parish.ID {
		return persistence.Order{}, persistence.ErrOrderNotFound
	}
	return order, nil
}

func (r *postgresRepository) ListOrderItems(ctx context.Context, orderID uuid.UUID) ([]persistence.OrderItem, error) {
	if _, err := r.GetOrder(ctx, orderID); err != nil {
		return nil, err
	}
	return r.pos.ListOrderItems(ctx, orderID)
}

func (r *postgresRepository) ListOrders(ctx context.Context, salesPointID uuid.UUID, status string) ([]persistence.Order, error) {
	if _, err := r.GetSalesPoint(ctx, salesPointID); err != nil {
		return nil, err
	}
	return r.pos.ListOrders(ctx, salesPointID, status)
}

func (r *postgresRepository) PayOrder(ctx context.Context, id uuid.UUID, paymentMethod string) (persistence.Order, error) {
	if _, err := r.GetOrder(ctx, id); err != nil {
		return persistence.Order{}, err
	}
	return r.pos.PayOrder(ctx, id, paymentMethod)
}

func (r *postgresRepository) DeliverOrder(ctx context.Context, id uuid.UUID) (persistence.Order, error) {
	if _, err := r.GetOrder(ctx, id); err != nil {
		return persistence.Order{}, err
	}
	return r.pos.DeliverOrder(ctx, id)
}

func (r *postgresRepository) CancelOrder(ctx context.Context, id uuid.UUID) (persistence.Order, error) {
	if _, err := r.GetOrder(ctx, id); err != nil {
		return persistence.Order{}, err
	}
	return r.pos.CancelOrder(ctx, id)
}

func (r *postgresRepository) checkEvent(ctx context.Context, id uuid.UUID) error {
	scope, err := requireScope(ctx)
	if err != nil {
		return err
	}
	event, err := r.events.GetEvent(ctx, id)
	if err != nil {
		return err
	}
	if event.ParishID != scope.Parish.ID {
		return persistence.ErrEventNotFound
	}
	return nil
}

func requireScope(ctx context.Context) (parish.Scope, error) {
	scope, ok := parish.ScopeFromContext(ctx)
	if !ok {
		return parish.Scope{}, errors.New("parish scope missing from context")
	}
	return scope, nil
}
