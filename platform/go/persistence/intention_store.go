package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const IntentionsTable = "mass_intentions"

// MassIntention represents a row in the mass_intentions table.
type MassIntention struct {
	ID             uuid.UUID  `db:"intention_id"`
	ParishID       uuid.UUID  `db:"parish_id"`
	UserID         string     `db:"user_id"`
	RequesterName  string     `db:"requester_name"`
	Intention      string     `db:"intention"`
	Category       string     `db:"category"`
	MassDate       *time.Time `db:"mass_date"`
	MassTime       string     `db:"mass_time"`
	Status         string     `db:"status"`
	ModerationNote string     `db:"moderation_note"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
}

// IntentionStore exposes persistence helpers for mass intentions.
type IntentionStore struct {
	pool *pgxpool.Pool
}

func NewIntentionStore(pool *pgxpool.Pool) (*IntentionStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &IntentionStore{pool: pool}, nil
}

const intentionColumns = `intention_id, parish_id, user_id, requester_name, intention, category,
	mass_date, mass_time, status, moderation_note, created_at, updated_at`

// CreateIntentionParams captures the fields for a new submission.
type CreateIntentionParams struct {
	ParishID      uuid.UUID
	UserID        string
	RequesterName string
	Intention     string
	Category      string
	MassDate      *time.Time
	MassTime      string
}

// CreateIntention inserts a submission; status is always pending.
func (s *IntentionStore) CreateIntention(ctx context.Context, params CreateIntentionParams) (MassIntention, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        INSERT INTO %s (intention_id, parish_id, user_id, requester_name, intention, category, mass_date, mass_time, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,'pending')
        RETURNING %s
    `, IntentionsTable, intentionColumns),
		uuid.New(), params.ParishID, params.UserID, params.RequesterName,
		params.Intention, params.Category, params.MassDate, params.MassTime)
	return scanIntention(row)
}

// ListIntentionsParams controls filtering for list queries.
type ListIntentionsParams struct {
	Mine     bool
	UserID   string
	MassDate *time.Time
	Status   string
}

// ListIntentions returns intentions ordered by mass date ascending then
// submission time descending, matching the moderation screen layout.
func (s *IntentionStore) ListIntentions(ctx context.Context, parishID uuid.UUID, params ListIntentionsParams) ([]MassIntention, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE parish_id = $1`, intentionColumns, IntentionsTable)
	args := []any{parishID}

	if params.Mine {
		args = append(args, params.UserID)
		query += fmt.Sprintf(` AND user_id = $%d`, len(args))
	} else {
		if params.MassDate != nil {
			args = append(args, *params.MassDate)
			query += fmt.Sprintf(` AND mass_date = $%d`, len(args))
		}
		if params.Status != "" {
			args = append(args, params.Status)
			query += fmt.Sprintf(` AND status = $%d`, len(args))
		}
	}
	query += ` ORDER BY mass_date ASC NULLS LAST, created_at DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list mass intentions: %w", err)
	}
	defer rows.Close()

	var out []MassIntention
	for rows.Next() {
		i, err := scanIntention(rows)
		if err != nil {
			return nil, fmt.Errorf("scan mass intention: %w", err)
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

// ListApprovedForDate returns approved intentions for one mass date in
// submission order, the shape the printable ledger consumes.
func (s *IntentionStore) ListApprovedForDate(ctx context.Context, parishID uuid.UUID, massDate time.Time) ([]MassIntention, error) {
	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
        SELECT %s FROM %s
        WHERE parish_id = $1 AND mass_date = $2 AND status = 'approved'
        ORDER BY created_at ASC
    `, intentionColumns, IntentionsTable), parishID, massDate)
	if err != nil {
		return nil, fmt.Errorf("list approved intentions: %w", err)
	}
	defer rows.Close()

	var out []MassIntention
	for rows.Next() {
		i, err := scanIntention(rows)
		if err != nil {
			return nil, fmt.Errorf("scan mass intention: %w", err)
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

// GetIntention fetches one intention by id.
func (s *IntentionStore) GetIntention(ctx context.Context, id uuid.UUID) (MassIntention, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(
		`SELECT %s FROM %s WHERE intention_id = $1`, intentionColumns, IntentionsTable), id)
	return scanIntention(row)
}

// ModerateIntention sets status and note only while the row is still
// pending; the returned ErrIntentionNotFound signals a non-pending row.
func (s *IntentionStore) ModerateIntention(ctx context.Context, id uuid.UUID, status, note string) (MassIntention, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        UPDATE %s SET status = $2, moderation_note = $3, updated_at = now()
        WHERE intention_id = $1 AND status = 'pending'
        RETURNING %s
    `, IntentionsTable, intentionColumns), id, status, note)
	return scanIntention(row)
}

func (s *IntentionStore) DeleteIntention(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE intention_id = $1`, IntentionsTable), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrIntentionNotFound
	}
	return nil
}

func scanIntention(row pgx.Row) (MassIntention, error) {
	var i MassIntention
	err := row.Scan(&i.ID, &i.ParishID, &i.UserID, &i.RequesterName, &i.Intention, &i.Category,
		&i.MassDate, &i.MassTime, &i.Status, &i.ModerationNote, &i.CreatedAt, &i.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return MassIntention{}, ErrIntentionNotFound
		}
		return MassIntention{}, err
	}
	return i, nil
}
