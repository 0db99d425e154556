package services

import (
	"errors"
	"fmt"
)

// Operation-level errors. Phase failures wrap one of these sentinels so
// callers can branch on errors.Is without parsing messages.
var (
	ErrInsufficientSpace = errors.New("insufficient disk space at destination")
	ErrInvalidArchive    = errors.New("invalid bundle archive")
	ErrInvalidManifest   = errors.New("invalid bundle manifest")
	ErrCategoryNotFound  = errors.New("category not found")
	ErrCancelled         = errors.New("operation cancelled")
	ErrExportFailed      = errors.New("export failed")
	ErrImportFailed      = errors.New("import failed")
)

// AssetImportError wraps a single asset's failure during the asset
// phase. It is recorded in the result and never aborts the import.
type AssetImportError struct {
	Slug string
	Err  error
}

func (e *AssetImportError) Error() string {
	return fmt.Sprintf("asset %q: %v", e.Slug, e.Err)
}

func (e *AssetImportError) Unwrap() error {
	return e.Err
}
