package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dkarimov/petal"
	"github.com/dkarimov/petal/config"
	"github.com/dkarimov/petal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations and exit",
	Long: `Create the photo and user tables on the configured relational
backend and seed the gallery account. The serve command does this on
startup as well; migrate exists for deployments that run migrations as
a separate step.`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.FromContext(ctx)
	if err != nil {
		return err
	}

	backend, err := petal.ParseBackend(cfg.Storage.Backend)
	if err != nil {
		return fmt.Errorf("parse backend: %w", err)
	}

	if backend == petal.BackendS3 {
		return fmt.Errorf("backend %s has no schema to migrate", backend)
	}

	_, _, cleanup, err := database.Connect(ctx, database.Config{
		Backend:      backend,
		URL:          cfg.Database.URL(),
		DSN:          cfg.Database.DSN,
		Tables:       cfg.Database.Tables,
		SeedUsername: cfg.Auth.Username,
		SeedPassword: cfg.Auth.Password,
	})
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	cleanup()

	slog.Info("migration complete", "backend", backend,
		"photos_table", cfg.Database.Tables.Photos,
		"users_table", cfg.Database.Tables.Users)
	return nil
}
