package petal

import (
	"context"
	"fmt"
)

// PhotoStore defines the interface for photo persistence. Two families of
// implementations exist: embedded blob stores that keep the encoded image
// inside a relational row, and the external object store that delegates
// the bytes to an S3-compatible service.
//
// All methods accept a context for cancellation and timeout control.
// Implementations must map their native "row/object does not exist"
// condition to ErrNotFound and connectivity failures to ErrUnavailable.
type PhotoStore interface {
	// List retrieves every photo in the catalog, ordered by CreatedAt
	// descending (most recent first).
	//
	// Returns:
	//   - []Photo: the full set, empty (not nil) when no photos exist;
	//     never a partial result
	//   - error: any backend error
	List(ctx context.Context) ([]Photo, error)

	// Create persists one new photo and returns it fully materialized,
	// with the backend-assigned ID and CreatedAt. Not idempotent:
	// repeated calls with identical arguments create distinct photos.
	Create(ctx context.Context, p CreatePhoto) (Photo, error)

	// Delete removes the photo addressed by id.
	//
	// Returns:
	//   - error: ErrNotFound if id does not correspond to an existing
	//     photo, or other backend errors
	Delete(ctx context.Context, id string) error

	// Ping verifies backend connectivity.
	Ping(ctx context.Context) error
}

// CredentialChecker validates a submitted username/password pair against
// the single configured account. It produces a boolean outcome only — no
// session or token issuance, no lockout, no attempt counting.
//
// A mismatch is (false, nil); an error is returned only when the backend
// holding the credential record cannot be reached.
type CredentialChecker interface {
	Check(ctx context.Context, username, password string) (bool, error)
}

// CatalogService orchestrates catalog requests into PhotoStore and
// CredentialChecker calls. It is backend-agnostic and performs no
// business logic beyond input validation.
type CatalogService struct {
	store   PhotoStore
	creds   CredentialChecker
	backend Backend
}

func NewCatalogService(store PhotoStore, creds CredentialChecker, backend Backend) (*CatalogService, error) {
	if !backend.IsValid() {
		return nil, fmt.Errorf("new catalog service: %w", &BackendError{Name: string(backend)})
	}
	return &CatalogService{
		store:   store,
		creds:   creds,
		backend: backend,
	}, nil
}

// Backend reports which storage backend the service was built with.
func (s *CatalogService) Backend() Backend {
	return s.backend
}

// List returns all photos, most recent first.
func (s *CatalogService) List(ctx context.Context) ([]Photo, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}

	photos, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}

	return photos, nil
}

// Create validates the input and persists one new photo.
//
// Validation happens before any backend call:
//   - Title must be non-empty
//   - ImageData must be non-empty
//   - Date must be YYYY-MM-DD
//   - Time must be HH:MM or HH:MM:SS
//
// Error types returned:
//   - ErrInvalidInput: any validation failure above
//   - context.Canceled or context.DeadlineExceeded: context was cancelled
//   - Wrapped backend errors: issues persisting the photo
func (s *CatalogService) Create(ctx context.Context, p CreatePhoto) (Photo, error) {
	// Early context check - fail fast before expensive operations
	if err := ctx.Err(); err != nil {
		return Photo{}, fmt.Errorf("create photo: %w", err)
	}

	if p.Title == "" {
		return Photo{}, fmt.Errorf("create photo: %w: title cannot be empty", ErrInvalidInput)
	}

	if p.ImageData == "" {
		return Photo{}, fmt.Errorf("create photo: %w: image data cannot be empty", ErrInvalidInput)
	}

	if !IsValidDate(p.Date) {
		return Photo{}, fmt.Errorf("create photo: %w: date must be YYYY-MM-DD, got %q", ErrInvalidInput, p.Date)
	}

	if !IsValidTime(p.Time) {
		return Photo{}, fmt.Errorf("create photo: %w: time must be HH:MM or HH:MM:SS, got %q", ErrInvalidInput, p.Time)
	}

	photo, err := s.store.Create(ctx, p)
	if err != nil {
		return Photo{}, fmt.Errorf("create photo %q: %w", p.Title, err)
	}

	return photo, nil
}

// Delete removes the photo addressed by id. A missing photo surfaces as
// ErrNotFound, distinguishable from generic failures.
func (s *CatalogService) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("delete photo: %w", err)
	}

	if id == "" {
		return fmt.Errorf("delete photo: %w: id cannot be empty", ErrInvalidInput)
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete photo %q: %w", id, err)
	}

	return nil
}

// Login checks the submitted pair against the configured account. The
// outcome is a plain success flag with a display message; a mismatch is
// not an error.
func (s *CatalogService) Login(ctx context.Context, username, password string) (LoginResult, error) {
	if err := ctx.Err(); err != nil {
		return LoginResult{}, fmt.Errorf("login: %w", err)
	}

	ok, err := s.creds.Check(ctx, username, password)
	if err != nil {
		return LoginResult{}, fmt.Errorf("login: %w", err)
	}

	if !ok {
		return LoginResult{Success: false, Message: "Invalid credentials"}, nil
	}

	return LoginResult{Success: true, Message: "Login successful"}, nil
}

// Probe checks backend connectivity for the test-connection endpoint.
func (s *CatalogService) Probe(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("probe: %w", err)
	}

	if err := s.store.Ping(ctx); err != nil {
		return fmt.Errorf("probe: %w", err)
	}

	return nil
}
