package services

import (
	"database/sql"

	"github.com/kerbaras/shelf/pkg/data"
)

// Store is the relational-store surface the orchestrators need,
// implemented by *data.Repository. Orchestrators take it explicitly so
// tests can swap in fakes.
type Store interface {
	ListCategories() ([]*data.Category, error)
	GetCategoryBySlug(slug string) (*data.Category, error)
	CreateCategoryTx(tx *sql.Tx, c *data.Category) error

	ListTags() ([]*data.Tag, error)
	CreateTagIgnoreTx(tx *sql.Tx, t *data.Tag) error

	ListAssets() ([]*data.Asset, error)
	GetAssetBySlug(slug string) (*data.Asset, error)
	InsertAssetTx(tx *sql.Tx, a *data.Asset) error
	LinkTagBySlugTx(tx *sql.Tx, assetID, tagSlug string) error
	AdjustAssetCountTx(tx *sql.Tx, categoryID string, delta int) error
	UpdateAssetPaths(id, contentPath, thumbnailPath string, galleryPaths []string) error
	DeleteAsset(id string) error

	ListSettings() ([]*data.Setting, error)
	SetSettingIgnore(key, value string) error
	ListExportRecords() ([]*data.ExportRecord, error)
	AddExportRecord(rec *data.ExportRecord) error

	WithTx(fn func(tx *sql.Tx) error) error
	RebuildSearchIndex() error
}

// ContentStore hides the physical content layout from the orchestrators.
type ContentStore interface {
	Resolve(rel string) (string, error)
	Exists(rel string) bool
	Stage(src, opID, rel string) (string, error)
	Persist(staged, rel string) error
	Remove(rel string) error
	CleanStaging(opID string) error
}
