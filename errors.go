package petal

import "errors"

var (
	// ErrNotFound is returned when a photo is not found
	ErrNotFound = errors.New("not found")
	// ErrInternal is returned when an internal error occurs
	ErrInternal = errors.New("internal error")
	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnavailable is returned when the storage backend cannot be reached
	ErrUnavailable = errors.New("backend unavailable")
)
