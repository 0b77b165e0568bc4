// Package petal provides a small media-catalog service for a private
// photo-sharing page, with pluggable storage backends.
//
// Petal implements the catalog operations (list, create, delete) over a
// single Photo entity, plus a boolean credential check gating the page.
// Photos are immutable: once stored they can only be listed or deleted.
//
// # Key Components
//
//   - CatalogService: orchestrates requests into PhotoStore and
//     CredentialChecker calls
//   - PhotoStore: interface for photo persistence (PostgreSQL, SQLite,
//     S3-compatible object storage)
//   - CredentialChecker: interface for the single-account login check
//
// # Backends
//
// The embedded backends (postgres, sqlite) persist the encoded image
// payload directly in a relational row and generate their own ids. The
// object-store backend uploads the payload to an S3-compatible service,
// keeps title/date/time as object metadata, and uses the object key as
// the photo id.
//
// # Example Usage
//
//	service, err := petal.NewCatalogService(store, checker, petal.BackendSQLite)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	photo, err := service.Create(ctx, petal.CreatePhoto{
//	    Title:     "Beach",
//	    Date:      "2024-05-01",
//	    Time:      "14:30",
//	    ImageData: payload,
//	})
package petal
