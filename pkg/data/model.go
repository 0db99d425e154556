package data

import "time"

type Category struct {
	ID           string
	Name         string
	Slug         string
	Description  string
	ParentID     string // empty for root categories
	DisplayOrder int
	AssetCount   int
}

type Tag struct {
	ID   string
	Name string
	Slug string
}

// ZipEntry describes one entry of an asset's packaged ZIP artifact.
type ZipEntry struct {
	Path            string
	SizeBytes       int64
	CompressedBytes int64
}

type Asset struct {
	ID             string
	Title          string
	Slug           string
	Description    string
	CategoryID     string
	Version        string
	Tags           []string // tag slugs
	Features       []string
	FileSizeBytes  int64
	ContentPath    string // relative to the content root, empty until persisted
	ThumbnailPath  string
	GalleryPaths   []string
	IsFeatured     bool
	DownloadsCount int
	CreatedAt      time.Time
	UpdatedAt      time.Time
	ZipEntries     []ZipEntry
}

type Setting struct {
	Key   string
	Value string
}

// ExportRecord is one row of the export history.
type ExportRecord struct {
	ID          string
	ArchivePath string
	AssetCount  int
	FileCount   int
	SizeBytes   int64
	CreatedAt   time.Time
}
