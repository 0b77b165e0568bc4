// Package database provides a unified interface for connecting to the
// embedded relational backends.
//
// The package supports PostgreSQL and SQLite and handles connection
// management, migrations, account seeding, and schema validation
// automatically.
//
// # Supported Backends
//
//   - PostgreSQL: Production-ready backend using pgx connection pool
//   - SQLite: Lightweight backend suitable for development and single-node deployments
//
// # Usage
//
//	cfg := database.Config{
//	    Backend: petal.BackendSQLite,
//	    DSN:     "petal.db",
//	    Tables:  petal.Tables{Photos: "gallery_photos", Users: "users"},
//	}
//
//	store, creds, cleanup, err := database.Connect(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer cleanup()
//
// The Connect function automatically:
//   - Opens the database connection
//   - Runs schema migrations and seeds the gallery account
//   - Validates the schema (PostgreSQL)
//   - Returns a ready-to-use photo store and credential checker
//
// # Subpackages
//
// The database package contains backend-specific implementations:
//
//   - database/postgres: PostgreSQL implementation using pgx
//   - database/sqlite: SQLite implementation using modernc.org/sqlite
package database
