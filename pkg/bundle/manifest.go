// Package bundle defines the portable library archive: a ZIP container
// holding a JSON manifest, a README, and the asset/thumbnail file trees.
package bundle

import (
	"time"

	"github.com/kerbaras/shelf/pkg/data"
)

const (
	// FormatVersion is the bundle format this build reads and writes.
	FormatVersion = 1

	ManifestName = "database.json"
	ReadmeName   = "README.txt"

	AssetsPrefix     = "assets/"
	ThumbnailsPrefix = "thumbnails/"
)

// Metadata is the manifest header. Timestamps are epoch milliseconds UTC.
type Metadata struct {
	FormatVersion int    `json:"formatVersion"`
	ExportedAt    int64  `json:"exportedAt"`
	Generator     string `json:"generator"`
	CategoryCount int    `json:"categoryCount"`
	TagCount      int    `json:"tagCount"`
	AssetCount    int    `json:"assetCount"`
}

type Category struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	Description  string `json:"description,omitempty"`
	ParentID     string `json:"parentId,omitempty"`
	DisplayOrder int    `json:"displayOrder"`
}

type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type ZipEntry struct {
	Path            string `json:"path"`
	SizeBytes       int64  `json:"sizeBytes"`
	CompressedBytes int64  `json:"compressedBytes"`
}

type Asset struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Slug           string     `json:"slug"`
	Description    string     `json:"description"`
	CategoryID     string     `json:"categoryId"`
	Version        string     `json:"version,omitempty"`
	Tags           []string   `json:"tags"`
	Features       []string   `json:"features"`
	FileSizeBytes  int64      `json:"fileSizeBytes"`
	ContentPath    string     `json:"contentPath"`
	ThumbnailPath  string     `json:"thumbnailPath,omitempty"`
	GalleryPaths   []string   `json:"galleryPaths,omitempty"`
	IsFeatured     bool       `json:"isFeatured"`
	DownloadsCount int        `json:"downloadsCount"`
	CreatedAt      int64      `json:"createdAt"`
	UpdatedAt      int64      `json:"updatedAt"`
	ZipEntries     []ZipEntry `json:"zipEntryMetadata,omitempty"`
}

type ExportEntry struct {
	ID          string `json:"id"`
	ArchivePath string `json:"archivePath"`
	AssetCount  int    `json:"assetCount"`
	FileCount   int    `json:"fileCount"`
	SizeBytes   int64  `json:"sizeBytes"`
	CreatedAt   int64  `json:"createdAt"`
}

type Setting struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Manifest is the sole structured payload of a bundle besides raw files.
type Manifest struct {
	Metadata      Metadata      `json:"metadata"`
	Categories    []Category    `json:"categories"`
	Tags          []Tag         `json:"tags"`
	Assets        []Asset       `json:"assets"`
	ExportHistory []ExportEntry `json:"exportHistory"`
	Settings      []Setting     `json:"settings"`
}

func epochMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// FromCategory copies a store record into its wire form.
func FromCategory(c *data.Category) Category {
	return Category{
		ID:           c.ID,
		Name:         c.Name,
		Slug:         c.Slug,
		Description:  c.Description,
		ParentID:     c.ParentID,
		DisplayOrder: c.DisplayOrder,
	}
}

func (c Category) ToRecord() *data.Category {
	return &data.Category{
		ID:           c.ID,
		Name:         c.Name,
		Slug:         c.Slug,
		Description:  c.Description,
		ParentID:     c.ParentID,
		DisplayOrder: c.DisplayOrder,
	}
}

func FromTag(t *data.Tag) Tag {
	return Tag{ID: t.ID, Name: t.Name, Slug: t.Slug}
}

func (t Tag) ToRecord() *data.Tag {
	return &data.Tag{ID: t.ID, Name: t.Name, Slug: t.Slug}
}

func FromAsset(a *data.Asset) Asset {
	out := Asset{
		ID:             a.ID,
		Title:          a.Title,
		Slug:           a.Slug,
		Description:    a.Description,
		CategoryID:     a.CategoryID,
		Version:        a.Version,
		Tags:           a.Tags,
		Features:       a.Features,
		FileSizeBytes:  a.FileSizeBytes,
		ContentPath:    a.ContentPath,
		ThumbnailPath:  a.ThumbnailPath,
		GalleryPaths:   a.GalleryPaths,
		IsFeatured:     a.IsFeatured,
		DownloadsCount: a.DownloadsCount,
		CreatedAt:      epochMillis(a.CreatedAt),
		UpdatedAt:      epochMillis(a.UpdatedAt),
	}
	for _, e := range a.ZipEntries {
		out.ZipEntries = append(out.ZipEntries, ZipEntry(e))
	}
	return out
}

func (a Asset) ToRecord() *data.Asset {
	out := &data.Asset{
		ID:             a.ID,
		Title:          a.Title,
		Slug:           a.Slug,
		Description:    a.Description,
		CategoryID:     a.CategoryID,
		Version:        a.Version,
		Tags:           a.Tags,
		Features:       a.Features,
		FileSizeBytes:  a.FileSizeBytes,
		ContentPath:    a.ContentPath,
		ThumbnailPath:  a.ThumbnailPath,
		GalleryPaths:   a.GalleryPaths,
		IsFeatured:     a.IsFeatured,
		DownloadsCount: a.DownloadsCount,
		CreatedAt:      fromMillis(a.CreatedAt),
		UpdatedAt:      fromMillis(a.UpdatedAt),
	}
	for _, e := range a.ZipEntries {
		out.ZipEntries = append(out.ZipEntries, data.ZipEntry(e))
	}
	return out
}

func FromExportRecord(r *data.ExportRecord) ExportEntry {
	return ExportEntry{
		ID:          r.ID,
		ArchivePath: r.ArchivePath,
		AssetCount:  r.AssetCount,
		FileCount:   r.FileCount,
		SizeBytes:   r.SizeBytes,
		CreatedAt:   epochMillis(r.CreatedAt),
	}
}

func (e ExportEntry) ToRecord() *data.ExportRecord {
	return &data.ExportRecord{
		ID:          e.ID,
		ArchivePath: e.ArchivePath,
		AssetCount:  e.AssetCount,
		FileCount:   e.FileCount,
		SizeBytes:   e.SizeBytes,
		CreatedAt:   fromMillis(e.CreatedAt),
	}
}
