// Package config provides configuration loading and validation for petal.
//
// The package handles YAML configuration files, environment variables, and CLI flags
// with automatic merging and validation using go-playground/validator.
//
// # Configuration Precedence
//
// Values are loaded in this order (later sources override earlier ones):
//
//  1. Default values (development fallbacks, base64-decoded at startup)
//  2. Configuration file(s) - multiple files merged left-to-right
//  3. Environment variables (PETAL_ prefix)
//  4. CLI flags
//
// # Usage
//
//	cfg, err := config.Load([]string{"config.yaml"}, cmd.Flags())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Store in context for subcommands
//	ctx = config.WithContext(ctx, cfg)
//
//	// Retrieve later
//	cfg, err = config.FromContext(ctx)
//
// # Environment Variables
//
// All config keys map to environment variables with PETAL_ prefix:
//   - server.port → PETAL_SERVER_PORT
//   - storage.backend → PETAL_STORAGE_BACKEND
//   - database.password → PETAL_DATABASE_PASSWORD
//
// # Secrets
//
// Database host, name and user fall back to encoded development defaults
// when unset. The database password never does: selecting the postgres
// backend without a configured password is a fatal startup error. The
// gallery account pair is stored base64-encoded in every source and
// decoded by Load — an obfuscation, not encryption, kept as a documented
// limitation of the original deployment model.
package config
