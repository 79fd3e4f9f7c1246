package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const (
	EventsTable      = "events"
	SalesPointsTable = "sales_points"
	ProductsTable    = "products"
)

// Event represents a row in the events table.
type Event struct {
	ID          uuid.UUID  `db:"event_id"`
	ParishID    uuid.UUID  `db:"parish_id"`
	Title       string     `db:"title"`
	Description string     `db:"description"`
	Location    string     `db:"location"`
	Category    string     `db:"category"`
	StartsAt    time.Time  `db:"starts_at"`
	EndsAt      *time.Time `db:"ends_at"`
	HasSales    bool       `db:"has_sales"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
}

// SalesPoint represents a register tied to one event.
type SalesPoint struct {
	ID        uuid.UUID `db:"sales_point_id"`
	EventID   uuid.UUID `db:"event_id"`
	ParishID  uuid.UUID `db:"parish_id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
}

// Product represents a sellable item at a sales point. Stock is nil for
// untracked items.
type Product struct {
	ID           uuid.UUID       `db:"product_id"`
	SalesPointID uuid.UUID       `db:"sales_point_id"`
	ParishID     uuid.UUID       `db:"parish_id"`
	Name         string          `db:"name"`
	UnitPrice    decimal.Decimal `db:"unit_price"`
	Stock        *int            `db:"stock"`
	Active       bool            `db:"active"`
	CreatedAt    time.Time       `db:"created_at"`
}

// EventStore exposes persistence helpers for events, sales points and
// products.
type EventStore struct {
	pool *pgxpool.Pool
}

func NewEventStore(pool *pgxpool.Pool) (*EventStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &EventStore{pool: pool}, nil
}

const eventColumns = `event_id, parish_id, title, description, location, category, starts_at, ends_at, has_sales, created_at, updated_at`

// CreateEventParams captures the fields for a new event.
type CreateEventParams struct {
	ParishID    uuid.UUID
	Title       string
	Description string
	Location    string
	Category    string
	StartsAt    time.Time
	EndsAt      *time.Time
	HasSales    bool
}

func (s *EventStore) CreateEvent(ctx context.Context, params CreateEventParams) (Event, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        INSERT INTO %s (event_id, parish_id, title, description, location, category, starts_at, ends_at, has_sales)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING %s
    `, EventsTable, eventColumns),
		uuid.New(), params.ParishID, strings.TrimSpace(params.Title), params.Description,
		params.Location, params.Category, params.StartsAt, params.EndsAt, params.HasSales)
	return scanEvent(row)
}

// GetEvent fetches one event by id.
func (s *EventStore) GetEvent(ctx context.Context, id uuid.UUID) (Event, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(
		`SELECT %s FROM %s WHERE event_id = $1`, eventColumns, EventsTable), id)
	return scanEvent(row)
}

// ListEvents returns a parish's events, most recent start first. When salesOnly
// is set, only events flagged for point-of-sale operation are returned.
func (s *EventStore) ListEvents(ctx context.Context, parishID uuid.UUID, salesOnly bool) ([]Event, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE parish_id = $1`, eventColumns, EventsTable)
	if salesOnly {
		query += ` AND has_sales = TRUE`
	}
	query += ` ORDER BY starts_at DESC`

	rows, err := s.pool.Query(ctx, query, parishID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// UpdateEventParams lists the allow-listed mutable fields.
type UpdateEventParams struct {
	Title       *string
	Description *string
	Location    *string
	Category    *string
	StartsAt    *time.Time
	EndsAt      *time.Time
	HasSales    *bool
}

func (s *EventStore) UpdateEvent(ctx context.Context, id uuid.UUID, params UpdateEventParams) (Event, error) {
	sets := []string{"updated_at = now()"}
	args := []any{id}

	addStr := func(column string, value *string) {
		if value == nil {
			return
		}
		args = append(args, *value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	addStr("title", params.Title)
	addStr("description", params.Description)
	addStr("location", params.Location)
	addStr("category", params.Category)
	if params.StartsAt != nil {
		args = append(args, *params.StartsAt)
		sets = append(sets, fmt.Sprintf("starts_at = $%d", len(args)))
	}
	if params.EndsAt != nil {
		args = append(args, *params.EndsAt)
		sets = append(sets, fmt.Sprintf("ends_at = $%d", len(args)))
	}
	if params.HasSales != nil {
		args = append(args, *params.HasSales)
		sets = append(sets, fmt.Sprintf("has_sales = $%d", len(args)))
	}

	if len(args) == 1 {
		return Event{}, errors.New("no fields to update")
	}

	row := s.pool.QueryRow(ctx, fmt.Sprintf(`UPDATE %s SET %s WHERE event_id = $1 RETURNING %s`,
		EventsTable, strings.Join(sets, ", "), eventColumns), args...)
	return scanEvent(row)
}

func (s *EventStore) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE event_id = $1`, EventsTable), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEventNotFound
	}
	return nil
}

// CreateSalesPoint adds a register to an event.
func (s *EventStore) CreateSalesPoint(ctx context.Context, eventID, parishID uuid.UUID, name string) (SalesPoint, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        INSERT INTO %s (sales_point_id, event_id, parish_id, name)
        VALUES ($1,$2,$3,$4)
        RETURNING sales_point_id, event_id, parish_id, name, created_at
    `, SalesPointsTable), uuid.New(), eventID, parishID, strings.TrimSpace(name))
	return scanSalesPoint(row)
}

// GetSalesPoint fetches one register by id.
func (s *EventStore) GetSalesPoint(ctx context.Context, id uuid.UUID) (SalesPoint, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        SELECT sales_point_id, event_id, parish_id, name, created_at
        FROM %s WHERE sales_point_id = $1
    `, SalesPointsTable), id)
	return scanSalesPoint(row)
}

// ListSalesPoints returns an event's registers in creation order.
func (s *EventStore) ListSalesPoints(ctx context.Context, eventID uuid.UUID) ([]SalesPoint, error) {
	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
        SELECT sales_point_id, event_id, parish_id, name, created_at
        FROM %s WHERE event_id = $1 ORDER BY created_at
    `, SalesPointsTable), eventID)
	if err != nil {
		return nil, fmt.Errorf("list sales points: %w", err)
	}
	defer rows.Close()

	var out []SalesPoint
	for rows.Next() {
		sp, err := scanSalesPoint(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sales point: %w", err)
		}
		out = append(out, sp)
	}
	return out, rows.Err()
}

// CreateProductParams captures the fields for a new product.
type CreateProductParams struct {
	SalesPointID uuid.UUID
	ParishID     uuid.UUID
	Name         string
	UnitPrice    decimal.Decimal
	Stock        *int
}

const productColumns = `product_id, sales_point_id, parish_id, name, unit_price::text, stock, active, created_at`

func (s *EventStore) CreateProduct(ctx context.Context, params CreateProductParams) (Product, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        INSERT INTO %s (product_id, sales_point_id, parish_id, name, unit_price, stock, active)
        VALUES ($1,$2,$3,$4,$5::numeric,$6,TRUE)
        RETURNING %s
    `, ProductsTable, productColumns),
		uuid.New(), params.SalesPointID, params.ParishID, strings.TrimSpace(params.Name),
		params.UnitPrice.String(), params.Stock)
	return scanProduct(row)
}

// GetProduct fetches one product by id.
func (s *EventStore) GetProduct(ctx context.Context, id uuid.UUID) (Product, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(
		`SELECT %s FROM %s WHERE product_id = $1`, productColumns, ProductsTable), id)
	return scanProduct(row)
}

// ListProducts returns a register's products in creation order.
func (s *EventStore) ListProducts(ctx context.Context, salesPointID uuid.UUID) ([]Product, error) {
	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
        SELECT %s FROM %s WHERE sales_point_id = $1 ORDER BY created_at
    `, productColumns, ProductsTable), salesPointID)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// SetProductActive flips a product's availability flag.
func (s *EventStore) SetProductActive(ctx context.Context, id uuid.UUID, active bool) (Product, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        UPDATE %s SET active = $2 WHERE product_id = $1 RETURNING %s
    `, ProductsTable, productColumns), id, active)
	return scanProduct(row)
}

func scanEvent(row pgx.Row) (Event, error) {
	var e Event
	err := row.Scan(&e.ID, &e.ParishID, &e.Title, &e.Description, &e.Location, &e.Category,
		&e.StartsAt, &e.EndsAt, &e.HasSales, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Event{}, ErrEventNotFound
		}
		return Event{}, err
	}
	return e, nil
}

func scanSalesPoint(row pgx.Row) (SalesPoint, error) {
	var sp SalesPoint
	err := row.Scan(&sp.ID, &sp.EventID, &sp.ParishID, &sp.Name, &sp.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SalesPoint{}, ErrSalesPointNotFound
		}
		return SalesPoint{}, err
	}
	return sp, nil
}

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	var price string
	err := row.Scan(&p.ID, &p.SalesPointID, &p.ParishID, &p.Name, &price, &p.Stock, &p.Active, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrProductNotFound
		}
		return Product{}, err
	}
	p.UnitPrice, err = decimal.NewFromString(price)
	if err != nil {
		return Product{}, fmt.Errorf("parse unit price: %w", err)
	}
	return p, nil
}
