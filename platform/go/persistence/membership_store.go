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

// Membership represents a row in the memberships table. At most one active
// membership may exist per (user, parish) pair; a partial unique index
// enforces the invariant.
type Membership struct {
	ID        uuid.UUID `db:"membership_id"`
	ParishID  uuid.UUID `db:"parish_id"`
	UserID    string    `db:"user_id"`
	Role      string    `db:"role"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// MembershipStore exposes persistence helpers for memberships.
type MembershipStore struct {
	pool *pgxpool.Pool
}

// NewMembershipStore returns a store instance.
func NewMembershipStore(pool *pgxpool.Pool) (*MembershipStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &MembershipStore{pool: pool}, nil
}

const membershipColumns = `membership_id, parish_id, user_id, role, status, created_at, updated_at`

// GetActiveMembership fetches the single active membership for a
// (user, parish) pair. Absence is reported as ErrMembershipNotFound, which
// callers treat as "no role", not as a failure.
func (s *MembershipStore) GetActiveMembership(ctx context.Context, parishID uuid.UUID, userID string) (Membership, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        SELECT %s FROM %s
        WHERE parish_id = $1 AND user_id = $2 AND status = 'active'
    `, membershipColumns, MembershipsTable), parishID, userID)
	return scanMembership(row)
}

// GetMembership fetches a membership by id regardless of status.
func (s *MembershipStore) GetMembership(ctx context.Context, id uuid.UUID) (Membership, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        SELECT %s FROM %s WHERE membership_id = $1
    `, membershipColumns, MembershipsTable), id)
	return scanMembership(row)
}

// UpsertMembership creates or reactivates the membership for a (user,
// parish) pair, setting the given role. Keyed on the partial unique index so
// the one-active-membership invariant holds under concurrent inserts.
func (s *MembershipStore) UpsertMembership(ctx context.Context, parishID uuid.UUID, userID, role string) (Membership, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        INSERT INTO %s (membership_id, parish_id, user_id, role, status)
        VALUES ($1,$2,$3,$4,'active')
        ON CONFLICT (parish_id, user_id) WHERE status = 'active'
        DO UPDATE SET role = EXCLUDED.role, updated_at = now()
        RETURNING %s
    `, MembershipsTable, membershipColumns),
		uuid.New(), parishID, userID, role)
	return scanMembership(row)
}

// SetMembershipRole changes the role on an existing membership.
func (s *MembershipStore) SetMembershipRole(ctx context.Context, id uuid.UUID, role string) (Membership, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        UPDATE %s SET role = $2, updated_at = now()
        WHERE membership_id = $1
        RETURNING %s
    `, MembershipsTable, membershipColumns), id, role)
	return scanMembership(row)
}

// SetMembershipStatus flips the status flag. Memberships are soft-disabled,
// never deleted.
func (s *MembershipStore) SetMembershipStatus(ctx context.Context, id uuid.UUID, status string) (Membership, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        UPDATE %s SET status = $2, updated_at = now()
        WHERE membership_id = $1
        RETURNING %s
    `, MembershipsTable, membershipColumns), id, status)
	return scanMembership(row)
}

// ListMemberships returns all memberships of a parish, newest first.
func (s *MembershipStore) ListMemberships(ctx context.Context, parishID uuid.UUID) ([]Membership, error) {
	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
        SELECT %s FROM %s WHERE parish_id = $1 ORDER BY created_at DESC
    `, membershipColumns, MembershipsTable), parishID)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	defer rows.Close()

	var out []Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, fmt.Errorf("scan membership: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func scanMembership(row pgx.Row) (Membership, error) {
	var m Membership
	err := row.Scan(&m.ID, &m.ParishID, &m.UserID, &m.Role, &m.Status, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Membership{}, ErrMembershipNotFound
		}
		if isUniqueViolation(err) {
			return Membership{}, ErrMembershipConflict
		}
		return Membership{}, err
	}
	return m, nil
}
