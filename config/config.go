package config

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/dkarimov/petal"
	petalhttp "github.com/dkarimov/petal/http"
)

// configKey is the context key for storing the loaded configuration.
type configKey struct{}

// WithContext returns a new context with the config stored.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext retrieves the config from context.
// Returns an error if config is not found.
func FromContext(ctx context.Context) (*Config, error) {
	cfg, ok := ctx.Value(configKey{}).(*Config)
	if !ok || cfg == nil {
		return nil, errors.New("config not found in context")
	}
	return cfg, nil
}

// Config is the root configuration struct for petal.
type Config struct {
	Server   ServerConfig         `mapstructure:"server"`
	Storage  StorageConfig        `mapstructure:"storage"`
	Database DatabaseConfig       `mapstructure:"database"`
	S3       S3Config             `mapstructure:"s3"`
	Auth     AuthConfig           `mapstructure:"auth"`
	CORS     petalhttp.CORSConfig `mapstructure:"cors"`
	Log      LogConfig            `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port int `mapstructure:"port" validate:"required,min=1,max=65535"`
}

// StorageConfig selects the photo storage backend.
type StorageConfig struct {
	Backend string `mapstructure:"backend" validate:"required,oneof=postgres sqlite s3"`
}

// DatabaseConfig holds connection parameters for the embedded backends.
// Postgres connects via the individual parameters; sqlite uses DSN.
type DatabaseConfig struct {
	Host     string       `mapstructure:"host"`
	Port     int          `mapstructure:"port" validate:"min=0,max=65535"`
	Name     string       `mapstructure:"name"`
	User     string       `mapstructure:"user"`
	Password string       `mapstructure:"password"`
	SSLMode  string       `mapstructure:"sslmode" validate:"omitempty,oneof=disable require verify-ca verify-full"`
	DSN      string       `mapstructure:"dsn"`
	Tables   petal.Tables `mapstructure:"tables"`
}

// URL builds the postgres connection string from the individual parameters.
func (d DatabaseConfig) URL() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   "/" + d.Name,
	}
	if d.SSLMode != "" {
		u.RawQuery = "sslmode=" + d.SSLMode
	}
	return u.String()
}

// S3Config holds connection parameters for the object-store backend.
type S3Config struct {
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	Prefix    string `mapstructure:"prefix"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	MaxKeys   int    `mapstructure:"max_keys" validate:"min=1,max=1000"`
	URLExpiry int    `mapstructure:"url_expiry" validate:"min=1"`
}

// AuthConfig holds the single gallery account. The configured values are
// base64-encoded at rest (config file, environment, built-in fallback)
// and decoded by Load into Username/Password.
type AuthConfig struct {
	EncodedUsername string `mapstructure:"username"`
	EncodedPassword string `mapstructure:"password"`

	// Decoded by Load; never read from config sources directly.
	Username string `mapstructure:"-"`
	Password string `mapstructure:"-"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
}

// Development fallbacks, base64-encoded in source. This is obfuscation,
// not encryption — a documented known limitation. Production deployments
// override all of these through the environment, and the database
// password deliberately has no fallback at all.
const (
	fallbackDBHost   = "bG9jYWxob3N0"     // localhost
	fallbackDBName   = "Z2FsbGVyeQ=="     // gallery
	fallbackDBUser   = "cG9zdGdyZXM="     // postgres
	fallbackUsername = "ZGFuaWFs"         // gallery account name
	fallbackPassword = "YWxiaW5h"         // gallery account password
)

func decodeFallback(encoded string) string {
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		// Fallbacks are compile-time constants; a bad one is a programming error.
		panic(fmt.Sprintf("config: invalid encoded fallback: %v", err))
	}
	return string(decoded)
}

// flagToViperKey maps CLI flag names to viper configuration keys.
var flagToViperKey = map[string]string{
	"backend": "storage.backend",
	"db-dsn":  "database.dsn",
	"port":    "server.port",
}

// bindFlags binds CLI flags to viper keys with custom name mapping.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		// Use custom mapping if it exists, otherwise use flag name as-is
		viperKey := f.Name
		if mapped, ok := flagToViperKey[viperKey]; ok {
			viperKey = mapped
		}

		// Only bind if the flag was explicitly set
		if f.Changed {
			_ = v.BindPFlag(viperKey, f)
		}
	})
}

// setDefaults configures default values on the viper instance.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)

	v.SetDefault("storage.backend", "sqlite")

	v.SetDefault("database.host", decodeFallback(fallbackDBHost))
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", decodeFallback(fallbackDBName))
	v.SetDefault("database.user", decodeFallback(fallbackDBUser))
	v.SetDefault("database.sslmode", "require")
	v.SetDefault("database.dsn", "petal.db")
	v.SetDefault("database.tables.photos", "gallery_photos")
	v.SetDefault("database.tables.users", "users")
	// database.password has no default: it must come from the environment

	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.prefix", "photos/")
	v.SetDefault("s3.max_keys", 1000)
	v.SetDefault("s3.url_expiry", 900) // seconds

	v.SetDefault("auth.username", fallbackUsername)
	v.SetDefault("auth.password", fallbackPassword)

	v.SetDefault("cors.enabled", true)
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"*"})
	v.SetDefault("cors.allow_credentials", true)

	v.SetDefault("log.level", "info")
}

// Load reads configuration and returns a validated Config struct.
// Order of precedence (highest to lowest): flags > env > config files > defaults
//
// A missing database password is a fatal configuration error when the
// postgres backend is selected: the process must not start with an
// invalid credential and fail on first use instead.
//
// Parameters:
//   - configFiles: list of config file paths (later files override earlier ones)
//   - flags: cobra flag set for flag binding (can be nil)
func Load(configFiles []string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Read config files
	if len(configFiles) > 0 {
		v.SetConfigFile(configFiles[0])
		if err := v.ReadInConfig(); err != nil {
			slog.Warn("error reading config file", "file", configFiles[0], "err", err)
		}

		for _, cf := range configFiles[1:] {
			v.SetConfigFile(cf)
			if err := v.MergeInConfig(); err != nil {
				slog.Warn("error merging config file", "file", cf, "err", err)
			}
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			var configNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configNotFound) {
				slog.Warn("error reading config file", "err", err)
			}
		}
	}

	// 3. Bind environment variables
	v.SetEnvPrefix("PETAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 4. Bind flags (if provided)
	if flags != nil {
		bindFlags(v, flags)
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// 6. Validate using go-playground/validator
	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	// 7. Backend-dependent checks and at-rest decoding
	if err := cfg.finish(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// finish applies cross-field rules that validator tags cannot express and
// decodes the obfuscated-at-rest account pair.
func (cfg *Config) finish() error {
	switch cfg.Storage.Backend {
	case "postgres", "sqlite":
		if err := cfg.Database.Tables.Validate(); err != nil {
			return fmt.Errorf("validate config: %w", err)
		}
		if cfg.Storage.Backend == "postgres" && cfg.Database.Password == "" {
			return errors.New("validate config: database password is required " +
				"(set PETAL_DATABASE_PASSWORD; there is no development fallback)")
		}
	case "s3":
		if cfg.S3.Bucket == "" {
			return errors.New("validate config: s3 bucket is required for the s3 backend")
		}
		if cfg.S3.AccessKey == "" || cfg.S3.SecretKey == "" {
			return errors.New("validate config: s3 access_key and secret_key are required for the s3 backend")
		}
	}

	username, err := base64.StdEncoding.DecodeString(cfg.Auth.EncodedUsername)
	if err != nil {
		return fmt.Errorf("validate config: auth username is not valid base64: %w", err)
	}
	password, err := base64.StdEncoding.DecodeString(cfg.Auth.EncodedPassword)
	if err != nil {
		return fmt.Errorf("validate config: auth password is not valid base64: %w", err)
	}
	if len(username) == 0 || len(password) == 0 {
		return errors.New("validate config: auth username and password cannot be empty")
	}

	cfg.Auth.Username = string(username)
	cfg.Auth.Password = string(password)

	return nil
}
