package petal

import (
	"time"
)

// Photo is the catalog's sole entity. The Image field is backend-defined:
// embedded backends return the inline encoded payload, the object-store
// backend returns a resolvable URL.
type Photo struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Date      string    `json:"date"`
	Time      string    `json:"time"`
	Image     string    `json:"image"`
	CreatedAt time.Time `json:"createdAt"`
}

// CreatePhoto is the input for creating a photo. ImageData is
// backend-specific: embedded backends persist it verbatim, the
// object-store backend decodes and uploads it.
type CreatePhoto struct {
	Title     string `json:"title"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	ImageData string `json:"imageData"`
}

// LoginResult is the outcome of a credential check. Success is false on a
// mismatch; a mismatch is never an error.
type LoginResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type Backend string

const (
	BackendPostgres Backend = "postgres"
	BackendSQLite   Backend = "sqlite"
	BackendS3       Backend = "s3"
)

func (b Backend) IsValid() bool {
	switch b {
	case BackendPostgres, BackendSQLite, BackendS3:
		return true
	default:
		return false
	}
}

func ParseBackend(s string) (Backend, error) {
	b := Backend(s)
	if !b.IsValid() {
		return "", &BackendError{Name: s}
	}
	return b, nil
}

// BackendError reports an unknown storage backend name.
type BackendError struct {
	Name string
}

func (e *BackendError) Error() string {
	return "invalid storage backend: " + e.Name + " (valid backends: postgres, sqlite, s3)"
}

// IsValidDate reports whether s is a calendar date in YYYY-MM-DD form.
// Dates are opaque display fields; no timezone normalization happens here
// or anywhere else. time.Parse tolerates unpadded components, so the
// width check keeps the format fixed.
func IsValidDate(s string) bool {
	if len(s) != len("2006-01-02") {
		return false
	}
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

// IsValidTime reports whether s is a time of day in HH:MM or HH:MM:SS
// form. Components must be zero-padded to fixed width.
func IsValidTime(s string) bool {
	switch len(s) {
	case len("15:04"):
		_, err := time.Parse("15:04", s)
		return err == nil
	case len("15:04:05"):
		_, err := time.Parse("15:04:05", s)
		return err == nil
	default:
		return false
	}
}
