package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dkarimov/petal"
	"github.com/dkarimov/petal/config"
	"github.com/dkarimov/petal/database"
	petalhttp "github.com/dkarimov/petal/http"
	"github.com/dkarimov/petal/objectstore"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Start the Petal HTTP server.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Int("port", 8000, "HTTP server port")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	cfg, err := config.FromContext(ctx)
	if err != nil {
		return err
	}

	backend, err := petal.ParseBackend(cfg.Storage.Backend)
	if err != nil {
		return fmt.Errorf("parse backend: %w", err)
	}

	store, creds, cleanup, err := connectBackend(ctx, cfg, backend)
	if err != nil {
		return fmt.Errorf("connect backend: %w", err)
	}
	defer cleanup()

	slog.Info("connected to storage backend", "backend", backend)

	service, err := petal.NewCatalogService(store, creds, backend)
	if err != nil {
		return fmt.Errorf("create service: %w", err)
	}

	handlerConfig := petalhttp.HandlerConfig{
		CORS: cfg.CORS,
	}

	handler := petalhttp.NewHandler(&handlerConfig, service)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)

	server := &http.Server{
		Addr:         addr,
		Handler:      handler.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "err", err)
		}
		cancel()
	}()

	slog.Info("starting server", "addr", addr, "backend", backend)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// connectBackend wires the configured backend into a photo store and a
// credential checker. The relational backends check credentials against
// their users table; the object store has no table to check against, so
// the configured account is used directly.
func connectBackend(ctx context.Context, cfg *config.Config, backend petal.Backend) (petal.PhotoStore, petal.CredentialChecker, func(), error) {
	switch backend {
	case petal.BackendPostgres, petal.BackendSQLite:
		return database.Connect(ctx, database.Config{
			Backend:      backend,
			URL:          cfg.Database.URL(),
			DSN:          cfg.Database.DSN,
			Tables:       cfg.Database.Tables,
			SeedUsername: cfg.Auth.Username,
			SeedPassword: cfg.Auth.Password,
		})
	case petal.BackendS3:
		store, err := objectstore.New(ctx, objectstore.Config{
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			Bucket:    cfg.S3.Bucket,
			Prefix:    cfg.S3.Prefix,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			MaxKeys:   cfg.S3.MaxKeys,
			URLExpiry: cfg.S3.URLExpiry,
		})
		if err != nil {
			return nil, nil, nil, err
		}

		creds := petal.NewStaticCredentials(cfg.Auth.Username, cfg.Auth.Password)
		return store, creds, func() {}, nil
	default:
		return nil, nil, nil, fmt.Errorf("unsupported backend: %s", backend)
	}
}
