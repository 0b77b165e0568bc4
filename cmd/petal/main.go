package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/dkarimov/petal/config"
)

var version = "dev"

var configFiles []string

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "petal",
	Short:   "Photo catalog server with pluggable storage backends",
	Long: `Petal is a small photo catalog server. Photos live in PostgreSQL,
SQLite or an S3-compatible object store, selected at startup.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFiles, cmd.Flags())
		if err != nil {
			return err
		}

		setupLogging(cfg)
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&configFiles, "config", nil, "config file path (repeatable, later files override earlier ones)")
	rootCmd.PersistentFlags().String("backend", "", "storage backend: postgres, sqlite, s3 (default: sqlite, env: PETAL_STORAGE_BACKEND)")
	rootCmd.PersistentFlags().String("db-dsn", "", "sqlite data source name (default: petal.db, env: PETAL_DATABASE_DSN)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
