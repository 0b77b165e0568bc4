package petal

import (
	"errors"
	"fmt"
	"regexp"
)

// Tables holds configurable table names for the embedded backends.
// This allows shared databases to use different table names per deployment.
type Tables struct {
	Photos string `mapstructure:"photos"`
	Users  string `mapstructure:"users"`
}

var validTableNameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// IsValidTableName checks if a table name is valid (lowercase, alphanumeric with underscores, max 63 chars).
func IsValidTableName(name string) bool {
	return validTableNameRegex.MatchString(name) && len(name) <= 63
}

// Validate checks that all required table names are set and valid.
func (t Tables) Validate() error {
	if t.Photos == "" {
		return errors.New("validate tables: photos table name cannot be empty")
	}
	if t.Users == "" {
		return errors.New("validate tables: users table name cannot be empty")
	}

	for _, name := range []string{t.Photos, t.Users} {
		if !IsValidTableName(name) {
			return fmt.Errorf("validate tables: invalid table name: %s (must match ^[a-z_][a-z0-9_]*$ and be <= 63 chars)", name)
		}
	}

	return nil
}
