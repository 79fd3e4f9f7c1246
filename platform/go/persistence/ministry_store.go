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
)

const (
	MinistriesTable      = "ministries"
	MinistryMembersTable = "ministry_members"
)

// Ministry represents a row in the ministries table. MemberCount is derived
// from the ministry_members join and never stored.
type Ministry struct {
	ID            uuid.UUID `db:"ministry_id"`
	ParishID      uuid.UUID `db:"parish_id"`
	Name          string    `db:"name"`
	Description   string    `db:"description"`
	CoordinatorID string    `db:"coordinator_id"`
	MeetingDay    string    `db:"meeting_day"`
	MeetingTime   string    `db:"meeting_time"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
	MemberCount   int       `db:"-"`
}

// MinistryStore exposes persistence helpers for ministries.
type MinistryStore struct {
	pool *pgxpool.Pool
}

func NewMinistryStore(pool *pgxpool.Pool) (*MinistryStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &MinistryStore{pool: pool}, nil
}

const ministryColumns = `ministry_id, parish_id, name, description, coordinator_id, meeting_day, meeting_time, created_at, updated_at`

// CreateMinistryParams captures the fields for a new ministry.
type CreateMinistryParams struct {
	ParishID      uuid.UUID
	Name          string
	Description   string
	CoordinatorID string
	MeetingDay    string
	MeetingTime   string
}

func (s *MinistryStore) CreateMinistry(ctx context.Context, params CreateMinistryParams) (Ministry, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        INSERT INTO %s (ministry_id, parish_id, name, description, coordinator_id, meeting_day, meeting_time)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING %s
    `, MinistriesTable, ministryColumns),
		uuid.New(), params.ParishID, strings.TrimSpace(params.Name), params.Description,
		params.CoordinatorID, params.MeetingDay, params.MeetingTime)
	return scanMinistry(row)
}

// ListMinistries returns a parish's ministries ordered by name, each with
// its derived member count.
func (s *MinistryStore) ListMinistries(ctx context.Context, parishID uuid.UUID) ([]Ministry, error) {
	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
        SELECT %s, COUNT(mm.ministry_id) AS member_count
        FROM %s m
        LEFT JOIN %s mm ON mm.ministry_id = m.ministry_id
        WHERE m.parish_id = $1
        GROUP BY %s
        ORDER BY m.name
    `, qualifyColumns("m", ministryColumns), MinistriesTable, MinistryMembersTable, qualifyColumns("m", ministryColumns)), parishID)
	if err != nil {
		return nil, fmt.Errorf("list ministries: %w", err)
	}
	defer rows.Close()

	var out []Ministry
	for rows.Next() {
		var m Ministry
		if err := rows.Scan(&m.ID, &m.ParishID, &m.Name, &m.Description, &m.CoordinatorID,
			&m.MeetingDay, &m.MeetingTime, &m.CreatedAt, &m.UpdatedAt, &m.MemberCount); err != nil {
			return nil, fmt.Errorf("scan ministry: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// GetMinistry fetches a ministry by id, including its member count.
func (s *MinistryStore) GetMinistry(ctx context.Context, id uuid.UUID) (Ministry, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        SELECT %s, (SELECT count(*) FROM %s mm WHERE mm.ministry_id = m.ministry_id)
        FROM %s m WHERE m.ministry_id = $1
    `, qualifyColumns("m", ministryColumns), MinistryMembersTable, MinistriesTable), id)

	var m Ministry
	err := row.Scan(&m.ID, &m.ParishID, &m.Name, &m.Description, &m.CoordinatorID,
		&m.MeetingDay, &m.MeetingTime, &m.CreatedAt, &m.UpdatedAt, &m.MemberCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Ministry{}, ErrMinistryNotFound
		}
		return Ministry{}, err
	}
	return m, nil
}

// UpdateMinistryParams lists the allow-listed mutable fields.
type UpdateMinistryParams struct {
	Name          *string
	Description   *string
	CoordinatorID *string
	MeetingDay    *string
	MeetingTime   *string
}

func (s *MinistryStore) UpdateMinistry(ctx context.Context, id uuid.UUID, params UpdateMinistryParams) (Ministry, error) {
	sets := []string{"updated_at = now()"}
	args := []any{id}

	add := func(column string, value *string) {
		if value == nil {
			return
		}
		args = append(args, *value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	add("name", params.Name)
	add("description", params.Description)
	add("coordinator_id", params.CoordinatorID)
	add("meeting_day", params.MeetingDay)
	add("meeting_time", params.MeetingTime)

	if len(args) == 1 {
		return Ministry{}, errors.New("no fields to update")
	}

	row := s.pool.QueryRow(ctx, fmt.Sprintf(`UPDATE %s SET %s WHERE ministry_id = $1 RETURNING %s`,
		MinistriesTable, strings.Join(sets, ", "), ministryColumns), args...)
	return scanMinistry(row)
}

func (s *MinistryStore) DeleteMinistry(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE ministry_id = $1`, MinistriesTable), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrMinistryNotFound
	}
	return nil
}

// AddMinistryMember links a user to a ministry; duplicate joins are no-ops.
func (s *MinistryStore) AddMinistryMember(ctx context.Context, ministryID uuid.UUID, userID string) error {
	_, err := s.pool.Exec(ctx, fmt.Sprintf(`
        INSERT INTO %s (ministry_id, user_id) VALUES ($1,$2)
        ON CONFLICT (ministry_id, user_id) DO NOTHING
    `, MinistryMembersTable), ministryID, userID)
	return err
}

// RemoveMinistryMember unlinks a user from a ministry.
func (s *MinistryStore) RemoveMinistryMember(ctx context.Context, ministryID uuid.UUID, userID string) error {
	_, err := s.pool.Exec(ctx, fmt.Sprintf(
		`DELETE FROM %s WHERE ministry_id = $1 AND user_id = $2`, MinistryMembersTable), ministryID, userID)
	return err
}

func scanMinistry(row pgx.Row) (Ministry, error) {
	var m Ministry
	err := row.Scan(&m.ID, &m.ParishID, &m.Name, &m.Description, &m.CoordinatorID,
		&m.MeetingDay, &m.MeetingTime, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Ministry{}, ErrMinistryNotFound
		}
		return Ministry{}, err
	}
	return m, nil
}
