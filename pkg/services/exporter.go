package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/kerbaras/shelf/pkg/bundle"
	"github.com/kerbaras/shelf/pkg/data"
)

// ExportResult is the terminal result of a successful export.
type ExportResult struct {
	ArchivePath string
	AssetCount  int
	FileCount   int

	// Warnings lists referenced files that were missing on disk and
	// therefore left out of the bundle.
	Warnings []string
}

// Exporter streams the whole library into a bundle. One Exporter serves
// one Export call; its progress broker closes when the call returns.
type Exporter struct {
	store     Store
	content   ContentStore
	estimator *Estimator
	broker    *Broker
	log       *slog.Logger
}

func NewExporter(store Store, content ContentStore, log *slog.Logger) *Exporter {
	if log == nil {
		log = slog.Default()
	}
	return &Exporter{
		store:     store,
		content:   content,
		estimator: NewEstimator(),
		broker:    NewBroker(),
		log:       log,
	}
}

// Subscribe attaches a progress listener. Attach before calling Export.
func (e *Exporter) Subscribe() *Subscriber {
	return e.broker.Subscribe()
}

// Export writes the library to destPath. The source store is never
// mutated except for the export-history record added on success. On
// failure or cancellation any partially written destination file is
// removed.
func (e *Exporter) Export(ctx context.Context, destPath string) (result *ExportResult, err error) {
	wroteDest := false
	defer e.broker.Close()
	defer func() {
		if err != nil {
			e.broker.Publish(Event{Phase: PhaseCompleted, Err: err.Error()})
			if wroteDest {
				os.Remove(destPath)
			}
		}
	}()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCancelled, err)
	}

	// Preparing: snapshot the store into a manifest and check space.
	e.broker.Publish(Event{Phase: PhasePreparing})
	e.log.Info("export started", "dest", destPath)

	manifest, err := e.snapshot()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExportFailed, err)
	}

	projected, err := e.estimator.Estimate(e.store)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExportFailed, err)
	}
	if !e.estimator.HasSpace(destPath, projected) {
		return nil, fmt.Errorf("%w: need %d bytes", ErrInsufficientSpace, projected)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCancelled, err)
	}

	// Collecting: enumerate referenced files. Missing content is
	// skipped with a warning; metadata still travels in the manifest.
	e.broker.Publish(Event{Phase: PhaseCollecting, TotalUnits: len(manifest.Assets)})
	files, warnings, err := e.collect(ctx, manifest)
	if err != nil {
		return nil, err
	}

	// Archiving: one tick per file plus manifest and README.
	total := len(files) + 2
	processed := 0
	e.broker.Publish(Event{Phase: PhaseArchiving, TotalUnits: total})

	wroteDest = true
	err = bundle.Write(destPath, manifest, files, func(path string) error {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrCancelled, err)
		}
		processed++
		e.broker.Publish(Event{
			Phase:          PhaseArchiving,
			TotalUnits:     total,
			ProcessedUnits: processed,
			CurrentItem:    path,
		})
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
		}
		return nil, fmt.Errorf("%w: %v", ErrExportFailed, err)
	}

	result = &ExportResult{
		ArchivePath: destPath,
		AssetCount:  len(manifest.Assets),
		FileCount:   len(files),
		Warnings:    warnings,
	}

	if err := e.record(result); err != nil {
		e.log.Warn("failed to record export history", "error", err)
	}

	e.broker.Publish(Event{Phase: PhaseCompleted, TotalUnits: total, ProcessedUnits: total})
	e.log.Info("export finished", "assets", result.AssetCount, "files", result.FileCount,
		"warnings", len(result.Warnings))
	return result, nil
}

// snapshot copies every store section into a fresh manifest.
func (e *Exporter) snapshot() (*bundle.Manifest, error) {
	categories, err := e.store.ListCategories()
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot categories: %w", err)
	}
	tags, err := e.store.ListTags()
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot tags: %w", err)
	}
	assets, err := e.store.ListAssets()
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot assets: %w", err)
	}
	history, err := e.store.ListExportRecords()
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot export history: %w", err)
	}
	settings, err := e.store.ListSettings()
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot settings: %w", err)
	}

	m := &bundle.Manifest{
		Metadata: bundle.Metadata{
			FormatVersion: bundle.FormatVersion,
			ExportedAt:    time.Now().UTC().UnixMilli(),
			Generator:     "shelf",
			CategoryCount: len(categories),
			TagCount:      len(tags),
			AssetCount:    len(assets),
		},
		Categories:    []bundle.Category{},
		Tags:          []bundle.Tag{},
		Assets:        []bundle.Asset{},
		ExportHistory: []bundle.ExportEntry{},
		Settings:      []bundle.Setting{},
	}
	for _, c := range categories {
		m.Categories = append(m.Categories, bundle.FromCategory(c))
	}
	for _, t := range tags {
		m.Tags = append(m.Tags, bundle.FromTag(t))
	}
	for _, a := range assets {
		m.Assets = append(m.Assets, bundle.FromAsset(a))
	}
	for _, h := range history {
		m.ExportHistory = append(m.ExportHistory, bundle.FromExportRecord(h))
	}
	for _, s := range settings {
		m.Settings = append(m.Settings, bundle.Setting{Key: s.Key, Value: s.Value})
	}
	return m, nil
}

// collect resolves every referenced file, assets first then thumbnails,
// preserving manifest order so re-exports are deterministic.
func (e *Exporter) collect(ctx context.Context, m *bundle.Manifest) ([]bundle.FileEntry, []string, error) {
	var files []bundle.FileEntry
	var warnings []string

	add := func(rel string) {
		abs, err := e.content.Resolve(rel)
		if err != nil || !e.content.Exists(rel) {
			warnings = append(warnings, rel)
			e.log.Warn("referenced file missing, skipping", "path", rel)
			return
		}
		files = append(files, bundle.FileEntry{Path: rel, Source: abs})
	}

	for i, a := range m.Assets {
		if err := ctx.Err(); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrCancelled, err)
		}
		if a.ContentPath != "" {
			add(a.ContentPath)
		}
		e.broker.Publish(Event{
			Phase:          PhaseCollecting,
			TotalUnits:     len(m.Assets),
			ProcessedUnits: i + 1,
			CurrentItem:    a.Slug,
		})
	}
	for _, a := range m.Assets {
		if a.ThumbnailPath != "" {
			add(a.ThumbnailPath)
		}
		for _, g := range a.GalleryPaths {
			add(g)
		}
	}
	return files, warnings, nil
}

func (e *Exporter) record(result *ExportResult) error {
	info, err := os.Stat(result.ArchivePath)
	var size int64
	if err == nil {
		size = info.Size()
	}
	return e.store.AddExportRecord(&data.ExportRecord{
		ID:          uuid.NewString(),
		ArchivePath: result.ArchivePath,
		AssetCount:  result.AssetCount,
		FileCount:   result.FileCount,
		SizeBytes:   size,
		CreatedAt:   time.Now().UTC(),
	})
}
