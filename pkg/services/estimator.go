package services

import (
	"fmt"
	"path/filepath"
)

const (
	// Flat allowance per asset for thumbnails that are not separately
	// sized in the store.
	perAssetOverheadBytes = 512 * 1024

	// Allowance for the manifest document and README.
	manifestAllowanceBytes = 1024 * 1024

	// Free space must exceed the projection by this factor.
	spaceSafetyMargin = 1.10
)

// Estimator projects export sizes and guards destination free space.
type Estimator struct {
	// freeSpace is swappable in tests; defaults to a statfs query.
	freeSpace func(path string) (uint64, error)
}

func NewEstimator() *Estimator {
	return &Estimator{freeSpace: diskFree}
}

// Estimate projects the bundle size from persisted file sizes plus fixed
// allowances for thumbnails and the manifest.
func (e *Estimator) Estimate(store Store) (int64, error) {
	assets, err := store.ListAssets()
	if err != nil {
		return 0, fmt.Errorf("failed to list assets: %w", err)
	}

	projected := int64(manifestAllowanceBytes)
	for _, a := range assets {
		projected += a.FileSizeBytes + perAssetOverheadBytes
	}
	return projected, nil
}

// HasSpace reports whether the destination volume can hold projected
// bytes plus the safety margin. When free space cannot be determined it
// returns true by policy: an export is never blocked solely because the
// volume could not be measured.
func (e *Estimator) HasSpace(destPath string, projected int64) bool {
	free, err := e.freeSpace(filepath.Dir(destPath))
	if err != nil {
		return true
	}
	return float64(free) >= float64(projected)*spaceSafetyMargin
}
