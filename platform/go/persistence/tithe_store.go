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
	PledgersTable     = "pledgers"
	PledgesTable      = "pledges"
	InstallmentsTable = "installments"
)

// Installment statuses.
const (
	InstallmentStatusOpen    = "open"
	InstallmentStatusPaid    = "paid"
	InstallmentStatusOverdue = "overdue"
)

// Pledger is a registered tither. The record is parish-scoped and may or
// may not be linked to a platform user.
type Pledger struct {
	ID        uuid.UUID `db:"pledger_id"`
	ParishID  uuid.UUID `db:"parish_id"`
	UserID    *string   `db:"user_id"`
	Name      string    `db:"name"`
	Phone     string    `db:"phone"`
	Email     string    `db:"email"`
	CreatedAt time.Time `db:"created_at"`
}

// Pledge is a twelve-month commitment anchored at StartsOn (the first
// competency month). MonthlyAmount is the snapshot the installments were
// generated from.
type Pledge struct {
	ID            uuid.UUID       `db:"pledge_id"`
	PledgerID     uuid.UUID       `db:"pledger_id"`
	ParishID      uuid.UUID       `db:"parish_id"`
	StartsOn      time.Time       `db:"starts_on"`
	MonthlyAmount decimal.Decimal `db:"monthly_amount"`
	DueDay        int             `db:"due_day"`
	CreatedAt     time.Time       `db:"created_at"`
}

// Installment is one competency month of a pledge. Competency is always the
// first day of its month.
type Installment struct {
	ID         uuid.UUID       `db:"installment_id"`
	PledgeID   uuid.UUID       `db:"pledge_id"`
	ParishID   uuid.UUID       `db:"parish_id"`
	Competency time.Time       `db:"competency"`
	DueDate    time.Time       `db:"due_date"`
	Amount     decimal.Decimal `db:"amount"`
	Status     string          `db:"status"`
	PaidAt     *time.Time      `db:"paid_at"`
}

// TitheStore persists pledgers, pledges and their installments.
type TitheStore struct {
	pool *pgxpool.Pool
}

func NewTitheStore(pool *pgxpool.Pool) (*TitheStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &TitheStore{pool: pool}, nil
}

const pledgerColumns = `pledger_id, parish_id, user_id, name, phone, email, created_at`

// CreatePledger registers a tither. When the record is linked to a user the
// insert upserts on (parish_id, user_id), so a second registration for the
// same user refreshes the contact fields instead of failing.
func (s *TitheStore) CreatePledger(ctx context.Context, parishID uuid.UUID, userID *string, name, phone, email string) (Pledger, error) {
	if userID == nil {
		row := s.pool.QueryRow(ctx, fmt.Sprintf(`
            INSERT INTO %s (pledger_id, parish_id, user_id, name, phone, email)
            VALUES ($1,$2,NULL,$3,$4,$5)
            RETURNING %s
        `, PledgersTable, pledgerColumns),
			uuid.New(), parishID, strings.TrimSpace(name), phone, email)
		return scanPledger(row)
	}

	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        INSERT INTO %[1]s (pledger_id, parish_id, user_id, name, phone, email)
        VALUES ($1,$2,$3,$4,$5,$6)
        ON CONFLICT (parish_id, user_id) WHERE user_id IS NOT NULL
        DO UPDATE SET name  = COALESCE(NULLIF(EXCLUDED.name, ''), %[1]s.name),
                      phone = COALESCE(NULLIF(EXCLUDED.phone, ''), %[1]s.phone),
                      email = COALESCE(NULLIF(EXCLUDED.email, ''), %[1]s.email)
        RETURNING %[2]s
    `, PledgersTable, pledgerColumns),
		uuid.New(), parishID, userID, strings.TrimSpace(name), phone, email)
	return scanPledger(row)
}

func (s *TitheStore) GetPledger(ctx context.Context, id uuid.UUID) (Pledger, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(
		`SELECT %s FROM %s WHERE pledger_id = $1`, pledgerColumns, PledgersTable), id)
	return scanPledger(row)
}

// GetPledgerByUser returns the parish's pledger record linked to a user.
func (s *TitheStore) GetPledgerByUser(ctx context.Context, parishID uuid.UUID, userID string) (Pledger, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(
		`SELECT %s FROM %s WHERE parish_id = $1 AND user_id = $2`, pledgerColumns, PledgersTable),
		parishID, userID)
	return scanPledger(row)
}

// ListPledgers returns a parish's tithers ordered by name.
func (s *TitheStore) ListPledgers(ctx context.Context, parishID uuid.UUID) ([]Pledger, error) {
	rows, err := s.pool.Query(ctx, fmt.Sprintf(
		`SELECT %s FROM %s WHERE parish_id = $1 ORDER BY name`, pledgerColumns, PledgersTable), parishID)
	if err != nil {
		return nil, fmt.Errorf("list pledgers: %w", err)
	}
	defer rows.Close()

	var out []Pledger
	for rows.Next() {
		p, err := scanPledger(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pledger: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

const pledgeColumns = `pledge_id, pledger_id, parish_id, starts_on, monthly_amount::text, due_day, created_at`
const installmentColumns = `installment_id, pledge_id, parish_id, competency, due_date, amount::text, status, paid_at`

// CreatePledge inserts the pledge and all of its installments in one
// transaction. A failure on any installment leaves no partial plan behind.
func (s *TitheStore) CreatePledge(ctx context.Context, pledge Pledge, installments []Installment) (Pledge, []Installment, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Pledge{}, nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, fmt.Sprintf(`
        INSERT INTO %s (pledge_id, pledger_id, parish_id, starts_on, monthly_amount, due_day)
        VALUES ($1,$2,$3,$4,$5::numeric,$6)
        RETURNING %s
    `, PledgesTable, pledgeColumns),
		pledge.ID, pledge.PledgerID, pledge.ParishID, pledge.StartsOn,
		pledge.MonthlyAmount.String(), pledge.DueDay)
	created, err := scanPledge(row)
	if err != nil {
		return Pledge{}, nil, fmt.Errorf("insert pledge: %w", err)
	}

	out := make([]Installment, 0, len(installments))
	for _, inst := range installments {
		row := tx.QueryRow(ctx, fmt.Sprintf(`
            INSERT INTO %s (installment_id, pledge_id, parish_id, competency, due_date, amount, status)
            VALUES ($1,$2,$3,$4,$5,$6::numeric,$7)
            RETURNING %s
        `, InstallmentsTable, installmentColumns),
			inst.ID, created.ID, created.ParishID, inst.Competency, inst.DueDate,
			inst.Amount.String(), InstallmentStatusOpen)
		saved, err := scanInstallment(row)
		if err != nil {
			return Pledge{}, nil, fmt.Errorf("insert installment %s: %w", inst.Competency.Format("2006-01"), err)
		}
		out = append(out, saved)
	}

	if err := tx.Commit(ctx); err != nil {
		return Pledge{}, nil, fmt.Errorf("commit tx: %w", err)
	}
	return created, out, nil
}

func (s *TitheStore) GetPledge(ctx context.Context, id uuid.UUID) (Pledge, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(
		`SELECT %s FROM %s WHERE pledge_id = $1`, pledgeColumns, PledgesTable), id)
	return scanPledge(row)
}

// ListPledges returns a pledger's pledges, newest first.
func (s *TitheStore) ListPledges(ctx context.Context, pledgerID uuid.UUID) ([]Pledge, error) {
	rows, err := s.pool.Query(ctx, fmt.Sprintf(
		`SELECT %s FROM %s WHERE pledger_id = $1 ORDER BY starts_on DESC, created_at DESC`, pledgeColumns, PledgesTable), pledgerID)
	if err != nil {
		return nil, fmt.Errorf("list pledges: %w", err)
	}
	defer rows.Close()

	var out []Pledge
	for rows.Next() {
		p, err := scanPledge(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pledge: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListInstallments returns a pledge's installments in competency order.
func (s *TitheStore) ListInstallments(ctx context.Context, pledgeID uuid.UUID) ([]Installment, error) {
	rows, err := s.pool.Query(ctx, fmt.Sprintf(
		`SELECT %s FROM %s WHERE pledge_id = $1 ORDER BY competency`, installmentColumns, InstallmentsTable), pledgeID)
	if err != nil {
		return nil, fmt.Errorf("list installments: %w", err)
	}
	defer rows.Close()

	var out []Installment
	for rows.Next() {
		inst, err := scanInstallment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan installment: %w", err)
		}
		out = append(out, inst)
	}
	return out, rows.Err()
}

func (s *TitheStore) GetInstallment(ctx context.Context, id uuid.UUID) (Installment, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(
		`SELECT %s FROM %s WHERE installment_id = $1`, installmentColumns, InstallmentsTable), id)
	return scanInstallment(row)
}

// MarkInstallmentPaid records payment. Calling it again on a paid
// installment is a no-op that returns the unchanged row.
func (s *TitheStore) MarkInstallmentPaid(ctx context.Context, id uuid.UUID, paidAt time.Time) (Installment, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        UPDATE %s
        SET status = CASE WHEN status = $3 THEN status ELSE $3 END,
            paid_at = COALESCE(paid_at, $2)
        WHERE installment_id = $1
        RETURNING %s
    `, InstallmentsTable, installmentColumns), id, paidAt, InstallmentStatusPaid)
	return scanInstallment(row)
}

// MarkOverdue flips every open installment whose due date has passed.
// Returns how many rows changed.
func (s *TitheStore) MarkOverdue(ctx context.Context, parishID uuid.UUID, asOf time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, fmt.Sprintf(`
        UPDATE %s SET status = $3
        WHERE parish_id = $1 AND status = $4 AND due_date < $2
    `, InstallmentsTable), parishID, asOf, InstallmentStatusOverdue, InstallmentStatusOpen)
	if err != nil {
		return 0, fmt.Errorf("mark overdue: %w", err)
	}
	return tag.RowsAffected(), nil
}

// TitheSummary carries parish-wide aggregates for the admin dashboard. No
// per-pledger amounts leave the store through this view.
type TitheSummary struct {
	PledgerCount   int
	ActivePledges  int
	PaidCount      int
	OpenCount      int
	OverdueCount   int
	CollectedTotal decimal.Decimal
}

// SummarizeYear aggregates a parish's tithe activity over the installments
// whose competency falls inside one calendar year. Plans roll across year
// boundaries, so the window is cut on competency, not on the pledge.
func (s *TitheStore) SummarizeYear(ctx context.Context, parishID uuid.UUID, year int) (TitheSummary, error) {
	var summary TitheSummary

	err := s.pool.QueryRow(ctx, fmt.Sprintf(
		`SELECT count(*) FROM %s WHERE parish_id = $1`, PledgersTable), parishID).Scan(&summary.PledgerCount)
	if err != nil {
		return TitheSummary{}, fmt.Errorf("count pledgers: %w", err)
	}

	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)

	var collected string
	err = s.pool.QueryRow(ctx, fmt.Sprintf(`
        SELECT count(DISTINCT pledge_id),
               count(*) FILTER (WHERE status = $4),
               count(*) FILTER (WHERE status = $5),
               count(*) FILTER (WHERE status = $6),
               COALESCE(sum(amount) FILTER (WHERE status = $4), 0)::text
        FROM %s
        WHERE parish_id = $1 AND competency >= $2 AND competency < $3
    `, InstallmentsTable),
		parishID, from, to, InstallmentStatusPaid, InstallmentStatusOpen, InstallmentStatusOverdue).
		Scan(&summary.ActivePledges, &summary.PaidCount, &summary.OpenCount, &summary.OverdueCount, &collected)
	if err != nil {
		return TitheSummary{}, fmt.Errorf("summarize installments: %w", err)
	}

	summary.CollectedTotal, err = decimal.NewFromString(collected)
	if err != nil {
		return TitheSummary{}, fmt.Errorf("parse collected total: %w", err)
	}
	return summary, nil
}

func scanPledger(row pgx.Row) (Pledger, error) {
	var p Pledger
	err := row.Scan(&p.ID, &p.ParishID, &p.UserID, &p.Name, &p.Phone, &p.Email, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Pledger{}, ErrPledgerNotFound
		}
		return Pledger{}, err
	}
	return p, nil
}

func scanPledge(row pgx.Row) (Pledge, error) {
	var p Pledge
	var amount string
	err := row.Scan(&p.ID, &p.PledgerID, &p.ParishID, &p.StartsOn, &amount, &p.DueDay, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Pledge{}, ErrPledgeNotFound
		}
		return Pledge{}, err
	}
	p.MonthlyAmount, err = decimal.NewFromString(amount)
	if err != nil {
		return Pledge{}, fmt.Errorf("parse monthly amount: %w", err)
	}
	return p, nil
}

func scanInstallment(row pgx.Row) (Installment, error) {
	var inst Installment
	var amount string
	err := row.Scan(&inst.ID, &inst.PledgeID, &inst.ParishID, &inst.Competency, &inst.DueDate,
		&amount, &inst.Status, &inst.PaidAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Installment{}, ErrInstallmentNotFound
		}
		return Installment{}, err
	}
	inst.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return Installment{}, fmt.Errorf("parse amount: %w", err)
	}
	return inst, nil
}
