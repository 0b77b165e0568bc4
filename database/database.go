package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dkarimov/petal"
	"github.com/dkarimov/petal/database/postgres"
	"github.com/dkarimov/petal/database/sqlite"

	_ "modernc.org/sqlite" // SQLite driver
)

// Config holds the configuration for connecting to an embedded backend.
type Config struct {
	// Backend selects the database flavor: petal.BackendPostgres or petal.BackendSQLite
	Backend petal.Backend
	// URL is the postgres connection string
	URL string
	// DSN is the sqlite data source name (file path or :memory:)
	DSN string
	// Tables holds the photo and user table names
	Tables petal.Tables
	// SeedUsername/SeedPassword is the gallery account inserted by the
	// migrations if no account exists yet
	SeedUsername string
	SeedPassword string
}

// Connect establishes a connection to the configured database backend,
// runs migrations (including the account seed), validates the schema,
// and returns the photo store plus the credential checker backed by it.
// The returned cleanup function should be called to close the connection.
func Connect(ctx context.Context, cfg Config) (petal.PhotoStore, petal.CredentialChecker, func(), error) {
	if err := cfg.Tables.Validate(); err != nil {
		return nil, nil, nil, fmt.Errorf("connect database: %w", err)
	}

	switch cfg.Backend {
	case petal.BackendSQLite:
		return connectSQLite(ctx, cfg)
	case petal.BackendPostgres:
		return connectPostgres(ctx, cfg)
	default:
		return nil, nil, nil, fmt.Errorf("unsupported database backend: %s", cfg.Backend)
	}
}

func connectSQLite(ctx context.Context, cfg Config) (petal.PhotoStore, petal.CredentialChecker, func(), error) {
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if err = sqlite.Migrate(ctx, db, cfg.Tables, cfg.SeedUsername, cfg.SeedPassword); err != nil {
		_ = db.Close()
		return nil, nil, nil, fmt.Errorf("migrate sqlite: %w", err)
	}

	repo, err := sqlite.NewRepo(db, cfg.Tables)
	if err != nil {
		_ = db.Close()
		return nil, nil, nil, fmt.Errorf("create sqlite repo: %w", err)
	}

	cleanup := func() {
		_ = db.Close()
	}

	return repo, repo, cleanup, nil
}

func connectPostgres(ctx context.Context, cfg Config) (petal.PhotoStore, petal.CredentialChecker, func(), error) {
	pool, err := pgxpool.New(ctx, cfg.URL)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, nil, fmt.Errorf("ping postgres: %w", err)
	}

	if err = postgres.Migrate(ctx, pool, cfg.Tables, cfg.SeedUsername, cfg.SeedPassword); err != nil {
		pool.Close()
		return nil, nil, nil, fmt.Errorf("migrate postgres: %w", err)
	}

	if err = postgres.ValidateSchema(ctx, pool, cfg.Tables); err != nil {
		pool.Close()
		return nil, nil, nil, fmt.Errorf("validate postgres schema: %w", err)
	}

	repo, err := postgres.NewRepo(pool, cfg.Tables)
	if err != nil {
		pool.Close()
		return nil, nil, nil, fmt.Errorf("create postgres repo: %w", err)
	}

	return repo, repo, pool.Close, nil
}
