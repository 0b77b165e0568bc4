package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/dkarimov/petal"
)

// quoteIdentifier safely quotes a SQLite identifier
func quoteIdentifier(name string) string {
	return `"` + name + `"`
}

type TableMigration struct {
	TableName string
	Up        func(ctx context.Context, db *sql.DB) error
	Down      func(ctx context.Context, db *sql.DB) error
}

// getTableMigrations returns all table migrations for the app
func getTableMigrations(tables petal.Tables) []TableMigration {
	migrations := []TableMigration{}

	migrations = append(migrations, TableMigration{
		TableName: tables.Photos,
		Up:        createPhotosTable(tables.Photos),
		Down:      dropTable(tables.Photos),
	})

	migrations = append(migrations, TableMigration{
		TableName: tables.Users,
		Up:        createUsersTable(tables.Users),
		Down:      dropTable(tables.Users),
	})

	return migrations
}

// Migrate creates the photo and user tables and seeds the gallery
// account. An existing row with the same username is left untouched.
func Migrate(ctx context.Context, db *sql.DB, tables petal.Tables, seedUsername, seedPassword string) error {
	migrations := getTableMigrations(tables)

	for _, migration := range migrations {
		if err := migration.Up(ctx, db); err != nil {
			return fmt.Errorf("migrate up %s: %w", migration.TableName, err)
		}
	}

	if seedUsername != "" {
		if err := seedAccount(ctx, db, tables.Users, seedUsername, seedPassword); err != nil {
			return fmt.Errorf("migrate seed %s: %w", tables.Users, err)
		}
	}

	return nil
}

func DropTables(ctx context.Context, db *sql.DB, tables petal.Tables) error {
	migrations := getTableMigrations(tables)

	for i := len(migrations) - 1; i >= 0; i-- {
		migration := migrations[i]
		if err := migration.Down(ctx, db); err != nil {
			return fmt.Errorf("migrate down %s: %w", migration.TableName, err)
		}
	}

	return nil
}

func createPhotosTable(tableName string) func(context.Context, *sql.DB) error {
	return func(ctx context.Context, db *sql.DB) error {
		quotedTable := quoteIdentifier(tableName)
		indexCreatedAt := quoteIdentifier(fmt.Sprintf("idx_%s_created_at", tableName))

		createTableSQL := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id TEXT NOT NULL PRIMARY KEY,
				title TEXT NOT NULL,
				photo_date TEXT NOT NULL,
				photo_time TEXT NOT NULL,
				image_data TEXT NOT NULL,
				created_at TEXT NOT NULL
			)
		`, quotedTable)

		if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
			return fmt.Errorf("create table: %w", err)
		}

		indexSQL := fmt.Sprintf(`
			CREATE INDEX IF NOT EXISTS %s ON %s (created_at)
		`, indexCreatedAt, quotedTable)

		if _, err := db.ExecContext(ctx, indexSQL); err != nil {
			return fmt.Errorf("create index created_at: %w", err)
		}

		return nil
	}
}

func createUsersTable(tableName string) func(context.Context, *sql.DB) error {
	return func(ctx context.Context, db *sql.DB) error {
		quotedTable := quoteIdentifier(tableName)

		createTableSQL := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id TEXT NOT NULL PRIMARY KEY,
				username TEXT NOT NULL UNIQUE,
				password TEXT NOT NULL,
				created_at TEXT NOT NULL
			)
		`, quotedTable)

		if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
			return fmt.Errorf("create table: %w", err)
		}

		return nil
	}
}

func seedAccount(ctx context.Context, db *sql.DB, tableName, username, password string) error {
	quotedTable := quoteIdentifier(tableName)

	insertSQL := fmt.Sprintf(`
		INSERT OR IGNORE INTO %s (id, username, password, created_at)
		VALUES (?, ?, ?, datetime('now'))
	`, quotedTable)

	_, err := db.ExecContext(ctx, insertSQL, uuid.New().String(), username, password)
	if err != nil {
		return fmt.Errorf("seed account: %w", err)
	}
	return nil
}

func dropTable(tableName string) func(context.Context, *sql.DB) error {
	return func(ctx context.Context, db *sql.DB) error {
		quotedTable := quoteIdentifier(tableName)
		dropSQL := fmt.Sprintf("DROP TABLE IF EXISTS %s", quotedTable)

		_, err := db.ExecContext(ctx, dropSQL)
		return err
	}
}
