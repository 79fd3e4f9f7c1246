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
	ParishesTable    = "parishes"
	MembershipsTable = "memberships"
)

// Parish represents a row in the parishes table.
type Parish struct {
	ID           uuid.UUID `db:"parish_id"`
	Slug         string    `db:"slug"`
	Name         string    `db:"name"`
	Address      string    `db:"address"`
	City         string    `db:"city"`
	Region       string    `db:"region"`
	Phone        string    `db:"phone"`
	Email        string    `db:"email"`
	PrimaryColor string    `db:"primary_color"`
	LogoURL      string    `db:"logo_url"`
	PixKey       string    `db:"pix_key"`
	PixPayee     string    `db:"pix_payee"`
	Status       string    `db:"status"`
	CreatedBy    string    `db:"created_by"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// ParishStore exposes persistence helpers for the parishes table.
type ParishStore struct {
	pool *pgxpool.Pool
}

// NewParishStore returns a store instance; assumes Bootstrap already ran.
func NewParishStore(pool *pgxpool.Pool) (*ParishStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &ParishStore{pool: pool}, nil
}

const parishColumns = `parish_id, slug, name, address, city, region, phone, email,
	primary_color, logo_url, pix_key, pix_payee, status, created_by, created_at, updated_at`

// CreateParishParams captures the fields required to insert a parish.
type CreateParishParams struct {
	ParishID  uuid.UUID
	Slug      string
	Name      string
	Address   string
	City      string
	Region    string
	Phone     string
	Email     string
	CreatedBy string
}

// CreateParish inserts the parish and the creator's admin membership in a
// single transaction, so a parish never exists without an administrator.
func (s *ParishStore) CreateParish(ctx context.Context, params CreateParishParams, adminRole string) (Parish, error) {
	if params.ParishID == uuid.Nil {
		return Parish{}, errors.New("parish id is required")
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Parish{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, fmt.Sprintf(`
        INSERT INTO %s (parish_id, slug, name, address, city, region, phone, email, status, created_by)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,'active',$9)
        RETURNING %s
    `, ParishesTable, parishColumns),
		params.ParishID, params.Slug, strings.TrimSpace(params.Name), params.Address,
		params.City, params.Region, params.Phone, params.Email, params.CreatedBy,
	)

	parish, err := scanParish(row)
	if err != nil {
		if isUniqueViolation(err) {
			return Parish{}, ErrParishSlugConflict
		}
		return Parish{}, err
	}

	if _, err := tx.Exec(ctx, fmt.Sprintf(`
        INSERT INTO %s (membership_id, parish_id, user_id, role, status)
        VALUES ($1,$2,$3,$4,'active')
    `, MembershipsTable),
		uuid.New(), parish.ID, params.CreatedBy, adminRole,
	); err != nil {
		return Parish{}, fmt.Errorf("insert creator membership: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Parish{}, fmt.Errorf("commit: %w", err)
	}

	return parish, nil
}

// GetParish fetches a parish by id.
func (s *ParishStore) GetParish(ctx context.Context, id uuid.UUID) (Parish, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(
		`SELECT %s FROM %s WHERE parish_id = $1`, parishColumns, ParishesTable), id)
	return scanParish(row)
}

// GetParishBySlug fetches a parish by its unique slug.
func (s *ParishStore) GetParishBySlug(ctx context.Context, slug string) (Parish, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(
		`SELECT %s FROM %s WHERE slug = $1`, parishColumns, ParishesTable), slug)
	return scanParish(row)
}

// SlugExists reports whether a parish already claimed the slug.
func (s *ParishStore) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, fmt.Sprintf(
		`SELECT EXISTS(SELECT 1 FROM %s WHERE slug = $1)`, ParishesTable), slug).Scan(&exists)
	return exists, err
}

// UpdateParishParams lists the allow-listed mutable fields. A nil pointer
// leaves the column untouched.
type UpdateParishParams struct {
	Name         *string
	Address      *string
	City         *string
	Region       *string
	Phone        *string
	Email        *string
	PrimaryColor *string
	LogoURL      *string
	PixKey       *string
	PixPayee     *string
}

// UpdateParish applies the non-nil fields and returns the updated row.
func (s *ParishStore) UpdateParish(ctx context.Context, id uuid.UUID, params UpdateParishParams) (Parish, error) {
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
	add("address", params.Address)
	add("city", params.City)
	add("region", params.Region)
	add("phone", params.Phone)
	add("email", params.Email)
	add("primary_color", params.PrimaryColor)
	add("logo_url", params.LogoURL)
	add("pix_key", params.PixKey)
	add("pix_payee", params.PixPayee)

	if len(args) == 1 {
		return Parish{}, errors.New("no fields to update")
	}

	query := fmt.Sprintf(`UPDATE %s SET %s WHERE parish_id = $1 RETURNING %s`,
		ParishesTable, strings.Join(sets, ", "), parishColumns)

	return scanParish(s.pool.QueryRow(ctx, query, args...))
}

// ListParishesForUser returns parishes where the user holds an active
// membership, oldest first, with the role they hold.
func (s *ParishStore) ListParishesForUser(ctx context.Context, userID string) ([]ParishMembership, error) {
	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
        SELECT %s, m.role
        FROM %s p
        JOIN %s m ON m.parish_id = p.parish_id
        WHERE m.user_id = $1 AND m.status = 'active'
        ORDER BY p.created_at
    `, qualifyColumns("p", parishColumns), ParishesTable, MembershipsTable), userID)
	if err != nil {
		return nil, fmt.Errorf("list parishes for user: %w", err)
	}
	defer rows.Close()

	var out []ParishMembership
	for rows.Next() {
		var pm ParishMembership
		var err error
		pm.Parish, pm.Role, err = scanParishWithRole(rows)
		if err != nil {
			return nil, fmt.Errorf("scan parish: %w", err)
		}
		out = append(out, pm)
	}
	return out, rows.Err()
}

// ParishMembership pairs a parish with the caller's role in it.
type ParishMembership struct {
	Parish Parish
	Role   string
}

func qualifyColumns(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

func scanParish(row pgx.Row) (Parish, error) {
	var p Parish
	err := row.Scan(&p.ID, &p.Slug, &p.Name, &p.Address, &p.City, &p.Region,
		&p.Phone, &p.Email, &p.PrimaryColor, &p.LogoURL, &p.PixKey, &p.PixPayee,
		&p.Status, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Parish{}, ErrParishNotFound
		}
		return Parish{}, err
	}
	return p, nil
}

func scanParishWithRole(row pgx.Row) (Parish, string, error) {
	var p Parish
	var role string
	err := row.Scan(&p.ID, &p.Slug, &p.Name, &p.Address, &p.City, &p.Region,
		&p.Phone, &p.Email, &p.PrimaryColor, &p.LogoURL, &p.PixKey, &p.PixPayee,
		&p.Status, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt, &role)
	if err != nil {
		return Parish{}, "", err
	}
	return p, role, nil
}
