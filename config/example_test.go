package config_test

import (
	"context"
	"fmt"
	"log"

	"github.com/dkarimov/petal/config"
)

func ExampleLoad() {
	// Load with defaults only (no config file)
	cfg, err := config.Load(nil, nil)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Port: %d, Backend: %s\n", cfg.Server.Port, cfg.Storage.Backend)
	// Output: Port: 8000, Backend: sqlite
}

func ExampleWithContext() {
	cfg, _ := config.Load(nil, nil)

	// Store config in context
	ctx := config.WithContext(context.Background(), cfg)

	// Retrieve later (e.g., in a subcommand)
	retrieved, err := config.FromContext(ctx)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Retrieved backend: %s\n", retrieved.Storage.Backend)
	// Output: Retrieved backend: sqlite
}
