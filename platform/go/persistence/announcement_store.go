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

const AnnouncementsTable = "announcements"

// Announcement represents a row in the announcements table.
type Announcement struct {
	ID        uuid.UUID `db:"announcement_id"`
	ParishID  uuid.UUID `db:"parish_id"`
	Title     string    `db:"title"`
	Body      string    `db:"body"`
	ImageURL  string    `db:"image_url"`
	Published bool      `db:"published"`
	AuthorID  string    `db:"author_id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// AnnouncementStore exposes persistence helpers for announcements.
type AnnouncementStore struct {
	pool *pgxpool.Pool
}

func NewAnnouncementStore(pool *pgxpool.Pool) (*AnnouncementStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &AnnouncementStore{pool: pool}, nil
}

const announcementColumns = `announcement_id, parish_id, title, body, image_url, published, author_id, created_at, updated_at`

// CreateAnnouncementParams captures the fields for a new announcement.
type CreateAnnouncementParams struct {
	ParishID  uuid.UUID
	Title     string
	Body      string
	ImageURL  string
	Published bool
	AuthorID  string
}

func (s *AnnouncementStore) CreateAnnouncement(ctx context.Context, params CreateAnnouncementParams) (Announcement, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        INSERT INTO %s (announcement_id, parish_id, title, body, image_url, published, author_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING %s
    `, AnnouncementsTable, announcementColumns),
		uuid.New(), params.ParishID, strings.TrimSpace(params.Title), params.Body,
		params.ImageURL, params.Published, params.AuthorID)
	return scanAnnouncement(row)
}

// ListAnnouncements returns a parish's announcements, newest first. When
// publishedOnly is set, drafts are excluded.
func (s *AnnouncementStore) ListAnnouncements(ctx context.Context, parishID uuid.UUID, publishedOnly bool) ([]Announcement, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE parish_id = $1`, announcementColumns, AnnouncementsTable)
	if publishedOnly {
		query += ` AND published = TRUE`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query, parishID)
	if err != nil {
		return nil, fmt.Errorf("list announcements: %w", err)
	}
	defer rows.Close()

	var out []Announcement
	for rows.Next() {
		a, err := scanAnnouncement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan announcement: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// GetAnnouncement fetches an announcement by id.
func (s *AnnouncementStore) GetAnnouncement(ctx context.Context, id uuid.UUID) (Announcement, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(
		`SELECT %s FROM %s WHERE announcement_id = $1`, announcementColumns, AnnouncementsTable), id)
	return scanAnnouncement(row)
}

// UpdateAnnouncementParams lists the allow-listed mutable fields.
type UpdateAnnouncementParams struct {
	Title     *string
	Body      *string
	ImageURL  *string
	Published *bool
}

func (s *AnnouncementStore) UpdateAnnouncement(ctx context.Context, id uuid.UUID, params UpdateAnnouncementParams) (Announcement, error) {
	sets := []string{"updated_at = now()"}
	args := []any{id}

	if params.Title != nil {
		args = append(args, *params.Title)
		sets = append(sets, fmt.Sprintf("title = $%d", len(args)))
	}
	if params.Body != nil {
		args = append(args, *params.Body)
		sets = append(sets, fmt.Sprintf("body = $%d", len(args)))
	}
	if params.ImageURL != nil {
		args = append(args, *params.ImageURL)
		sets = append(sets, fmt.Sprintf("image_url = $%d", len(args)))
	}
	if params.Published != nil {
		args = append(args, *params.Published)
		sets = append(sets, fmt.Sprintf("published = $%d", len(args)))
	}

	if len(args) == 1 {
		return Announcement{}, errors.New("no fields to update")
	}

	row := s.pool.QueryRow(ctx, fmt.Sprintf(`UPDATE %s SET %s WHERE announcement_id = $1 RETURNING %s`,
		AnnouncementsTable, strings.Join(sets, ", "), announcementColumns), args...)
	return scanAnnouncement(row)
}

func (s *AnnouncementStore) DeleteAnnouncement(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE announcement_id = $1`, AnnouncementsTable), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAnnouncementNotFound
	}
	return nil
}

func scanAnnouncement(row pgx.Row) (Announcement, error) {
	var a Announcement
	err := row.Scan(&a.ID, &a.ParishID, &a.Title, &a.Body, &a.ImageURL, &a.Published, &a.AuthorID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Announcement{}, ErrAnnouncementNotFound
		}
		return Announcement{}, err
	}
	return a, nil
}
