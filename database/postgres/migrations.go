package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dkarimov/petal"
)

func createPhotosTable(ctx context.Context, pool *pgxpool.Pool, tableName string) error {
	quotedTable := pgx.Identifier{tableName}.Sanitize()
	indexCreatedAt := pgx.Identifier{fmt.Sprintf("idx_%s_created_at", tableName)}.Sanitize()

	sql := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			title VARCHAR(255) NOT NULL,
			photo_date DATE NOT NULL,
			photo_time TIME NOT NULL,
			image_data TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS %s
		ON %s (created_at DESC);
	`,
		quotedTable,
		indexCreatedAt, quotedTable,
	)

	_, err := pool.Exec(ctx, sql)
	if err != nil {
		return fmt.Errorf("create photos table: %w", err)
	}
	return nil
}

func createUsersTable(ctx context.Context, pool *pgxpool.Pool, tableName string) error {
	quotedTable := pgx.Identifier{tableName}.Sanitize()

	sql := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			username VARCHAR(50) UNIQUE NOT NULL,
			password VARCHAR(255) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`, quotedTable)

	_, err := pool.Exec(ctx, sql)
	if err != nil {
		return fmt.Errorf("create users table: %w", err)
	}
	return nil
}

func seedAccount(ctx context.Context, pool *pgxpool.Pool, tableName, username, password string) error {
	quotedTable := pgx.Identifier{tableName}.Sanitize()

	sql := fmt.Sprintf(`
		INSERT INTO %s (username, password)
		VALUES ($1, $2)
		ON CONFLICT (username) DO NOTHING
	`, quotedTable)

	_, err := pool.Exec(ctx, sql, username, password)
	if err != nil {
		return fmt.Errorf("seed account: %w", err)
	}
	return nil
}

// Migrate creates the photo and user tables and seeds the gallery
// account. Seeding never overwrites an existing row with the same
// username, so a changed password in config does not rotate a persisted
// one.
func Migrate(ctx context.Context, pool *pgxpool.Pool, tables petal.Tables, seedUsername, seedPassword string) error {
	if err := createPhotosTable(ctx, pool, tables.Photos); err != nil {
		return fmt.Errorf("migrate %s: %w", tables.Photos, err)
	}

	if err := createUsersTable(ctx, pool, tables.Users); err != nil {
		return fmt.Errorf("migrate %s: %w", tables.Users, err)
	}

	if seedUsername != "" {
		if err := seedAccount(ctx, pool, tables.Users, seedUsername, seedPassword); err != nil {
			return fmt.Errorf("migrate %s: %w", tables.Users, err)
		}
	}

	return nil
}
