// Package postgres implements the photo store and credential checker on PostgreSQL
package postgres

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dkarimov/petal"
)

type Repo struct {
	pool        *pgxpool.Pool
	photosTable string
	usersTable  string
}

func NewRepo(pool *pgxpool.Pool, tables petal.Tables) (*Repo, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("new repo: %w", err)
	}

	return &Repo{pool: pool, photosTable: tables.Photos, usersTable: tables.Users}, nil
}

// classify maps connectivity failures to petal.ErrUnavailable so the
// boundary can answer 503 during deployment windows. Everything else
// passes through untouched.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return fmt.Errorf("%w: %v", petal.ErrUnavailable, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", petal.ErrUnavailable, err)
	}

	return err
}

// Ping verifies database connectivity
func (r *Repo) Ping(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return classify(err)
	}
	return nil
}

func (r *Repo) List(ctx context.Context) ([]petal.Photo, error) {
	query := fmt.Sprintf(`
		SELECT id::text, title, photo_date::text, photo_time::text, image_data, created_at
		FROM %s
		ORDER BY created_at DESC
	`, r.photosTable)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list: %w", classify(err))
	}
	defer rows.Close()

	photos := make([]petal.Photo, 0)
	for rows.Next() {
		var p petal.Photo
		if err := rows.Scan(&p.ID, &p.Title, &p.Date, &p.Time, &p.Image, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("list: scan: %w", err)
		}
		photos = append(photos, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list: rows: %w", classify(err))
	}

	return photos, nil
}

// Create inserts one photo and reads the generated row back in the same
// statement, so the returned Photo matches exactly what was committed.
func (r *Repo) Create(ctx context.Context, p petal.CreatePhoto) (petal.Photo, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (title, photo_date, photo_time, image_data)
		VALUES ($1, $2, $3, $4)
		RETURNING id::text, title, photo_date::text, photo_time::text, image_data, created_at
	`, r.photosTable)

	var photo petal.Photo
	err := r.pool.QueryRow(ctx, query, p.Title, p.Date, p.Time, p.ImageData).Scan(
		&photo.ID, &photo.Title, &photo.Date, &photo.Time, &photo.Image, &photo.CreatedAt,
	)
	if err != nil {
		return petal.Photo{}, fmt.Errorf("create: %w", classify(err))
	}

	return photo, nil
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	// Ids are server-generated UUIDs; anything else cannot address an
	// existing row and must surface as not-found, not as a cast error.
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("delete: %w", petal.ErrNotFound)
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.photosTable)

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete: %w", classify(err))
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("delete: %w", petal.ErrNotFound)
	}

	return nil
}

// Check validates the submitted pair against the users table. A mismatch
// or unknown username is (false, nil); only connectivity or query
// failures return an error.
func (r *Repo) Check(ctx context.Context, username, password string) (bool, error) {
	query := fmt.Sprintf(`SELECT password FROM %s WHERE username = $1`, r.usersTable)

	var stored string
	err := r.pool.QueryRow(ctx, query, username).Scan(&stored)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Burn the comparison anyway so an unknown username takes
			// the same path as a wrong password.
			subtle.ConstantTimeCompare([]byte(password), []byte(password))
			return false, nil
		}
		return false, fmt.Errorf("check credentials: %w", classify(err))
	}

	return subtle.ConstantTimeCompare([]byte(password), []byte(stored)) == 1, nil
}
