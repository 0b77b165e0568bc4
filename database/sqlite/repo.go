// Package sqlite implements the photo store and credential checker on SQLite
package sqlite

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dkarimov/petal"
)

// timeLayout is fixed-width (no trimmed fractional zeros) so the
// lexicographic ORDER BY over the stored text matches chronological
// order for every pair of timestamps.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type Repo struct {
	db          *sql.DB
	photosTable string
	usersTable  string
}

func NewRepo(db *sql.DB, tables petal.Tables) (*Repo, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("new repo: %w", err)
	}

	return &Repo{db: db, photosTable: tables.Photos, usersTable: tables.Users}, nil
}

// Ping verifies database connectivity
func (r *Repo) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", petal.ErrUnavailable, err)
	}
	return nil
}

func (r *Repo) List(ctx context.Context) ([]petal.Photo, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT id, title, photo_date, photo_time, image_data, created_at
		FROM %s
		ORDER BY created_at DESC`, r.photosTable)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	defer func() { _ = rows.Close() }()

	photos := make([]petal.Photo, 0)
	for rows.Next() {
		var p petal.Photo
		var createdAt string

		if scanErr := rows.Scan(&p.ID, &p.Title, &p.Date, &p.Time, &p.Image, &createdAt); scanErr != nil {
			return nil, fmt.Errorf("list: scan: %w", scanErr)
		}

		p.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("list: parse created_at: %w", err)
		}

		photos = append(photos, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list: rows: %w", err)
	}

	return photos, nil
}

func (r *Repo) Create(ctx context.Context, p petal.CreatePhoto) (petal.Photo, error) {
	id := uuid.New().String()
	now := time.Now().UTC()
	createdAt := now.Format(timeLayout)

	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`INSERT INTO %s (id, title, photo_date, photo_time, image_data, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`, r.photosTable)

	_, err := r.db.ExecContext(ctx, query, id, p.Title, p.Date, p.Time, p.ImageData, createdAt)
	if err != nil {
		return petal.Photo{}, fmt.Errorf("create: %w", err)
	}

	return petal.Photo{
		ID:        id,
		Title:     p.Title,
		Date:      p.Date,
		Time:      p.Time,
		Image:     p.ImageData,
		CreatedAt: now,
	}, nil
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, r.photosTable) //nolint:gosec // table name is validated

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete: rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("delete: %w", petal.ErrNotFound)
	}

	return nil
}

// Check validates the submitted pair against the users table. A mismatch
// or unknown username is (false, nil); only query failures return an error.
func (r *Repo) Check(ctx context.Context, username, password string) (bool, error) {
	query := fmt.Sprintf(`SELECT password FROM %s WHERE username = ?`, r.usersTable) //nolint:gosec // table name is validated

	var stored string
	err := r.db.QueryRowContext(ctx, query, username).Scan(&stored)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Burn the comparison anyway so an unknown username takes
			// the same path as a wrong password.
			subtle.ConstantTimeCompare([]byte(password), []byte(password))
			return false, nil
		}
		return false, fmt.Errorf("check credentials: %w", err)
	}

	return subtle.ConstantTimeCompare([]byte(password), []byte(stored)) == 1, nil
}
