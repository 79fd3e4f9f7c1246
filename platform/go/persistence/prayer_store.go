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

const PrayersTable = "prayer_requests"

// PrayerRequest represents a row in the prayer_requests table.
type PrayerRequest struct {
	ID            uuid.UUID `db:"prayer_id"`
	ParishID      uuid.UUID `db:"parish_id"`
	UserID        string    `db:"user_id"`
	RequesterName string    `db:"requester_name"`
	Intention     string    `db:"intention"`
	Status        string    `db:"status"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

// PrayerStore exposes persistence helpers for prayer requests.
type PrayerStore struct {
	pool *pgxpool.Pool
}

func NewPrayerStore(pool *pgxpool.Pool) (*PrayerStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &PrayerStore{pool: pool}, nil
}

const prayerColumns = `prayer_id, parish_id, user_id, requester_name, intention, status, created_at, updated_at`

// CreatePrayerParams captures the fields for a new prayer request.
type CreatePrayerParams struct {
	ParishID      uuid.UUID
	UserID        string
	RequesterName string
	Intention     string
}

func (s *PrayerStore) CreatePrayer(ctx context.Context, params CreatePrayerParams) (PrayerRequest, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        INSERT INTO %s (prayer_id, parish_id, user_id, requester_name, intention, status)
        VALUES ($1,$2,$3,$4,$5,'pending')
        RETURNING %s
    `, PrayersTable, prayerColumns),
		uuid.New(), params.ParishID, params.UserID, params.RequesterName, params.Intention)
	return scanPrayer(row)
}

// ListPrayersParams controls visibility filtering.
type ListPrayersParams struct {
	// Mine restricts results to the given user's own requests.
	Mine bool
	// All returns every request regardless of status (moderator view).
	All    bool
	UserID string
}

// ListPrayers returns prayer requests newest first. Default visibility is
// approved requests plus the caller's own submissions.
func (s *PrayerStore) ListPrayers(ctx context.Context, parishID uuid.UUID, params ListPrayersParams) ([]PrayerRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE parish_id = $1`, prayerColumns, PrayersTable)
	args := []any{parishID}

	switch {
	case params.Mine:
		args = append(args, params.UserID)
		query += fmt.Sprintf(` AND user_id = $%d`, len(args))
	case !params.All:
		args = append(args, params.UserID)
		query += fmt.Sprintf(` AND (status = 'approved' OR user_id = $%d)`, len(args))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list prayer requests: %w", err)
	}
	defer rows.Close()

	var out []PrayerRequest
	for rows.Next() {
		p, err := scanPrayer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan prayer request: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetPrayer fetches a prayer request by id.
func (s *PrayerStore) GetPrayer(ctx context.Context, id uuid.UUID) (PrayerRequest, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(
		`SELECT %s FROM %s WHERE prayer_id = $1`, prayerColumns, PrayersTable), id)
	return scanPrayer(row)
}

// SetPrayerStatus moves a request through moderation.
func (s *PrayerStore) SetPrayerStatus(ctx context.Context, id uuid.UUID, status string) (PrayerRequest, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        UPDATE %s SET status = $2, updated_at = now()
        WHERE prayer_id = $1
        RETURNING %s
    `, PrayersTable, prayerColumns), id, status)
	return scanPrayer(row)
}

func (s *PrayerStore) DeletePrayer(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE prayer_id = $1`, PrayersTable), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPrayerNotFound
	}
	return nil
}

func scanPrayer(row pgx.Row) (PrayerRequest, error) {
	var p PrayerRequest
	err := row.Scan(&p.ID, &p.ParishID, &p.UserID, &p.RequesterName, &p.Intention, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PrayerRequest{}, ErrPrayerNotFound
		}
		return PrayerRequest{}, err
	}
	return p, nil
}
