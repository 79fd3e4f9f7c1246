package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const ProfilesTable = "profiles"

// Profile is the platform-wide record for a user. UserID is the identity
// provider uid, not a generated key.
type Profile struct {
	UserID    string    `db:"user_id"`
	Name      string    `db:"name"`
	Email     string    `db:"email"`
	Phone     string    `db:"phone"`
	PhotoURL  string    `db:"photo_url"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// ProfileStore persists user profiles.
type ProfileStore struct {
	pool *pgxpool.Pool
}

func NewProfileStore(pool *pgxpool.Pool) (*ProfileStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &ProfileStore{pool: pool}, nil
}

const profileColumns = `user_id, name, email, phone, photo_url, created_at, updated_at`

// UpsertProfile creates the profile on first sign-in and refreshes the
// provider-sourced fields on later ones.
func (s *ProfileStore) UpsertProfile(ctx context.Context, userID, name, email, photoURL string) (Profile, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        INSERT INTO %s (user_id, name, email, photo_url)
        VALUES ($1,$2,$3,$4)
        ON CONFLICT (user_id) DO UPDATE
        SET email = EXCLUDED.email, updated_at = now()
        RETURNING %s
    `, ProfilesTable, profileColumns), userID, name, email, photoURL)
	return scanProfile(row)
}

func (s *ProfileStore) GetProfile(ctx context.Context, userID string) (Profile, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(
		`SELECT %s FROM %s WHERE user_id = $1`, profileColumns, ProfilesTable), userID)
	return scanProfile(row)
}

// UpdateProfileParams lists the user-editable fields.
type UpdateProfileParams struct {
	Name     *string
	Phone    *string
	PhotoURL *string
}

func (s *ProfileStore) UpdateProfile(ctx context.Context, userID string, params UpdateProfileParams) (Profile, error) {
	sets := []string{"updated_at = now()"}
	args := []any{userID}

	add := func(column string, value *string) {
		if value == nil {
			return
		}
		args = append(args, *value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	add("name", params.Name)
	add("phone", params.Phone)
	add("photo_url", params.PhotoURL)

	if len(args) == 1 {
		return Profile{}, errors.New("no fields to update")
	}

	row := s.pool.QueryRow(ctx, fmt.Sprintf(`UPDATE %s SET %s WHERE user_id = $1 RETURNING %s`,
		ProfilesTable, strings.Join(sets, ", "), profileColumns), args...)
	return scanProfile(row)
}

func scanProfile(row pgx.Row) (Profile, error) {
	var p Profile
	err := row.Scan(&p.UserID, &p.Name, &p.Email, &p.Phone, &p.PhotoURL, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, ErrProfileNotFound
		}
		return Profile{}, err
	}
	return p, nil
}
