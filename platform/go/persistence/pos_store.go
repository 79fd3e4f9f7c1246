package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const (
	OrdersTable     = "orders"
	OrderItemsTable = "order_items"
)

// Order statuses. Orders move forward only: open to paid to delivered, or
// open to cancelled.
const (
	OrderStatusOpen      = "open"
	OrderStatusPaid      = "paid"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

// Order represents a row in the orders table. PaymentMethod stays empty
// until the order is paid.
type Order struct {
	ID            uuid.UUID       `db:"order_id"`
	SalesPointID  uuid.UUID       `db:"sales_point_id"`
	ParishID      uuid.UUID       `db:"parish_id"`
	OperatorID    string          `db:"operator_id"`
	CustomerName  string          `db:"customer_name"`
	Status        string          `db:"status"`
	PaymentMethod string          `db:"payment_method"`
	Total         decimal.Decimal `db:"total"`
	CreatedAt     time.Time       `db:"created_at"`
	PaidAt        *time.Time      `db:"paid_at"`
	DeliveredAt   *time.Time      `db:"delivered_at"`
}

// OrderItem is one line of an order. ProductName and UnitPrice are
// snapshots taken at order time, so later product edits never change a
// recorded sale.
type OrderItem struct {
	ID          uuid.UUID       `db:"order_item_id"`
	OrderID     uuid.UUID       `db:"order_id"`
	ProductID   uuid.UUID       `db:"product_id"`
	ProductName string          `db:"product_name"`
	UnitPrice   decimal.Decimal `db:"unit_price"`
	Quantity    int             `db:"quantity"`
	Subtotal    decimal.Decimal `db:"subtotal"`
}

// PosStore persists point-of-sale orders.
type PosStore struct {
	pool *pgxpool.Pool
}

func NewPosStore(pool *pgxpool.Pool) (*PosStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &PosStore{pool: pool}, nil
}

const orderColumns = `order_id, sales_point_id, parish_id, operator_id, customer_name, status, payment_method, total::text, created_at, paid_at, delivered_at`

// OrderLine is one requested line of a new order.
type OrderLine struct {
	ProductID uuid.UUID
	Quantity  int
}

// CreateOrder inserts the order and its items in one transaction. Each
// tracked product's stock is decremented with a conditional update, so an
// insufficient stock on any line rolls back the whole order and returns
// ErrOutOfStock.
func (s *PosStore) CreateOrder(ctx context.Context, salesPointID, parishID uuid.UUID, operatorID, customerName string, lines []OrderLine) (Order, []OrderItem, error) {
	if len(lines) == 0 {
		return Order{}, nil, errors.New("order needs at least one line")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Order{}, nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	orderID := uuid.New()
	total := decimal.Zero
	items := make([]OrderItem, 0, len(lines))

	for _, line := range lines {
		if line.Quantity <= 0 {
			return Order{}, nil, fmt.Errorf("invalid quantity %d", line.Quantity)
		}

		var name string
		var price string
		var active bool
		err := tx.QueryRow(ctx, fmt.Sprintf(
			`SELECT name, unit_price::text, active FROM %s WHERE product_id = $1 AND sales_point_id = $2`,
			ProductsTable), line.ProductID, salesPointID).Scan(&name, &price, &active)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return Order{}, nil, ErrProductNotFound
			}
			return Order{}, nil, fmt.Errorf("load product: %w", err)
		}
		if !active {
			return Order{}, nil, ErrProductNotFound
		}

		unitPrice, err := decimal.NewFromString(price)
		if err != nil {
			return Order{}, nil, fmt.Errorf("parse unit price: %w", err)
		}

		// NULL stock means untracked; tracked stock must cover the line.
		tag, err := tx.Exec(ctx, fmt.Sprintf(
			`UPDATE %s SET stock = stock - $2 WHERE product_id = $1 AND stock IS NOT NULL AND stock >= $2`,
			ProductsTable), line.ProductID, line.Quantity)
		if err != nil {
			return Order{}, nil, fmt.Errorf("decrement stock: %w", err)
		}
		if tag.RowsAffected() == 0 {
			var tracked bool
			if err := tx.QueryRow(ctx, fmt.Sprintf(
				`SELECT stock IS NOT NULL FROM %s WHERE product_id = $1`, ProductsTable),
				line.ProductID).Scan(&tracked); err != nil {
				return Order{}, nil, fmt.Errorf("check stock tracking: %w", err)
			}
			if tracked {
				return Order{}, nil, ErrOutOfStock
			}
		}

		subtotal := unitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		total = total.Add(subtotal)

		item := OrderItem{
			ID:          uuid.New(),
			OrderID:     orderID,
			ProductID:   line.ProductID,
			ProductName: name,
			UnitPrice:   unitPrice,
			Quantity:    line.Quantity,
			Subtotal:    subtotal,
		}
		if _, err := tx.Exec(ctx, fmt.Sprintf(`
            INSERT INTO %s (order_item_id, order_id, product_id, product_name, unit_price, quantity, subtotal)
            VALUES ($1,$2,$3,$4,$5::numeric,$6,$7::numeric)
        `, OrderItemsTable),
			item.ID, item.OrderID, item.ProductID, item.ProductName,
			item.UnitPrice.String(), item.Quantity, item.Subtotal.String()); err != nil {
			return Order{}, nil, fmt.Errorf("insert order item: %w", err)
		}
		items = append(items, item)
	}

	row := tx.QueryRow(ctx, fmt.Sprintf(`
        INSERT INTO %s (order_id, sales_point_id, parish_id, operator_id, customer_name, status, total)
        VALUES ($1,$2,$3,$4,$5,$6,$7::numeric)
        RETURNING %s
    `, OrdersTable, orderColumns),
		orderID, salesPointID, parishID, operatorID, customerName, OrderStatusOpen, total.String())
	order, err := scanOrder(row)
	if err != nil {
		return Order{}, nil, fmt.Errorf("insert order: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Order{}, nil, fmt.Errorf("commit tx: %w", err)
	}
	return order, items, nil
}

// GetOrder fetches one order by id.
func (s *PosStore) GetOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(
		`SELECT %s FROM %s WHERE order_id = $1`, orderColumns, OrdersTable), id)
	return scanOrder(row)
}

// ListOrderItems returns an order's lines in insertion order.
func (s *PosStore) ListOrderItems(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
        SELECT order_item_id, order_id, product_id, product_name, unit_price::text, quantity, subtotal::text
        FROM %s WHERE order_id = $1 ORDER BY order_item_id
    `, OrderItemsTable), orderID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()

	var out []OrderItem
	for rows.Next() {
		var item OrderItem
		var price, subtotal string
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName,
			&price, &item.Quantity, &subtotal); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		if item.UnitPrice, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("parse unit price: %w", err)
		}
		if item.Subtotal, err = decimal.NewFromString(subtotal); err != nil {
			return nil, fmt.Errorf("parse subtotal: %w", err)
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// ListOrders returns a register's orders, newest first. An empty status
// returns every order.
func (s *PosStore) ListOrders(ctx context.Context, salesPointID uuid.UUID, status string) ([]Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE sales_point_id = $1`, orderColumns, OrdersTable)
	args := []any{salesPointID}
	if status != "" {
		args = append(args, status)
		query += fmt.Sprintf(` AND status = $%d`, len(args))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// PayOrder records payment on an open order. Paying an order in any other
// status returns ErrOrderNotFound via the gated update.
func (s *PosStore) PayOrder(ctx context.Context, id uuid.UUID, paymentMethod string) (Order, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        UPDATE %s SET status = $2, payment_method = $3, paid_at = now()
        WHERE order_id = $1 AND status = $4
        RETURNING %s
    `, OrdersTable, orderColumns), id, OrderStatusPaid, paymentMethod, OrderStatusOpen)
	return scanOrder(row)
}

// DeliverOrder marks a paid order as handed over.
func (s *PosStore) DeliverOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        UPDATE %s SET status = $2, delivered_at = now()
        WHERE order_id = $1 AND status = $3
        RETURNING %s
    `, OrdersTable, orderColumns), id, OrderStatusDelivered, OrderStatusPaid)
	return scanOrder(row)
}

// CancelOrder voids an open order and restores tracked stock for its lines.
func (s *PosStore) CancelOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Order{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, fmt.Sprintf(`
        UPDATE %s SET status = $2 WHERE order_id = $1 AND status = $3 RETURNING %s
    `, OrdersTable, orderColumns), id, OrderStatusCancelled, OrderStatusOpen)
	order, err := scanOrder(row)
	if err != nil {
		return Order{}, err
	}

	if _, err := tx.Exec(ctx, fmt.Sprintf(`
        UPDATE %s p SET stock = p.stock + i.quantity
        FROM %s i
        WHERE i.order_id = $1 AND i.product_id = p.product_id AND p.stock IS NOT NULL
    `, ProductsTable, OrderItemsTable), id); err != nil {
		return Order{}, fmt.Errorf("restore stock: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Order{}, fmt.Errorf("commit tx: %w", err)
	}
	return order, nil
}

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	var total string
	var method *string
	err := row.Scan(&o.ID, &o.SalesPointID, &o.ParishID, &o.OperatorID, &o.CustomerName,
		&o.Status, &method, &total, &o.CreatedAt, &o.PaidAt, &o.DeliveredAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, ErrOrderNotFound
		}
		return Order{}, err
	}
	if method != nil {
		o.PaymentMethod = *method
	}
	o.Total, err = decimal.NewFromString(total)
	if err != nil {
		return Order{}, fmt.Errorf("parse total: %w", err)
	}
	return o, nil
}
