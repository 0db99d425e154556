package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/kerbaras/shelf/pkg/bundle"
	"github.com/kerbaras/shelf/pkg/content"
	"github.com/kerbaras/shelf/pkg/data"
)

// DefaultConflictTimeout bounds how long the importer waits for a
// conflict resolution before defaulting to skip.
const DefaultConflictTimeout = 5 * time.Minute

// ImportResult is the terminal result. Per-asset failures are recorded
// in Errors keyed by slug; the operation as a whole still succeeds.
type ImportResult struct {
	Imported int
	Failed   int
	Skipped  int
	Errors   map[string]string
}

type ImportOptions struct {
	// ConflictTimeout caps each conflict rendezvous; zero means
	// DefaultConflictTimeout, negative disables the bound.
	ConflictTimeout time.Duration
}

// Importer merges a bundle into a (possibly non-empty) target library.
// One Importer serves one Import call.
type Importer struct {
	store    Store
	content  ContentStore
	resolver ConflictResolver
	opts     ImportOptions
	broker   *Broker
	log      *slog.Logger
}

func NewImporter(store Store, cs ContentStore, resolver ConflictResolver, opts ImportOptions, log *slog.Logger) *Importer {
	if resolver == nil {
		resolver = SkipAll()
	}
	if opts.ConflictTimeout == 0 {
		opts.ConflictTimeout = DefaultConflictTimeout
	}
	if log == nil {
		log = slog.Default()
	}
	return &Importer{
		store:    store,
		content:  cs,
		resolver: resolver,
		opts:     opts,
		broker:   NewBroker(),
		log:      log,
	}
}

// Subscribe attaches a progress listener. Attach before calling Import.
func (i *Importer) Subscribe() *Subscriber {
	return i.broker.Subscribe()
}

func (i *Importer) cancelled(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCancelled, err)
	}
	return nil
}

// Import runs the full pipeline. Phase failures abort the operation;
// per-asset failures are recorded and the loop continues. The temporary
// extraction directory is removed on every path, including cancellation.
func (i *Importer) Import(ctx context.Context, bundlePath string) (result *ImportResult, err error) {
	defer i.broker.Close()
	defer func() {
		if err != nil {
			i.broker.Publish(Event{Phase: PhaseCompleted, Err: err.Error()})
		}
	}()

	if err := i.cancelled(ctx); err != nil {
		return nil, err
	}

	// Extracting.
	i.broker.Publish(Event{Phase: PhaseExtracting, CurrentItem: bundlePath})
	i.log.Info("import started", "bundle", bundlePath)

	tmpDir, err := os.MkdirTemp("", "shelf-import-*")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImportFailed, err)
	}
	defer os.RemoveAll(tmpDir)

	if err := bundle.Extract(bundlePath, tmpDir); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}

	if err := i.cancelled(ctx); err != nil {
		return nil, err
	}

	// Validating.
	i.broker.Publish(Event{Phase: PhaseValidating})
	manifest, err := bundle.ReadManifest(tmpDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}

	if err := i.cancelled(ctx); err != nil {
		return nil, err
	}

	// Categories, one store-wide transaction.
	i.broker.Publish(Event{Phase: PhaseCategories, TotalUnits: len(manifest.Categories)})
	idmap := NewIdentityMap()
	catSlugs, err := i.importCategories(manifest.Categories, idmap)
	if err != nil {
		return nil, fmt.Errorf("%w: categories: %v", ErrImportFailed, err)
	}

	if err := i.cancelled(ctx); err != nil {
		return nil, err
	}

	// Tags, one transaction, dedup by slug.
	i.broker.Publish(Event{Phase: PhaseTags, TotalUnits: len(manifest.Tags)})
	if err := i.importTags(manifest.Tags); err != nil {
		return nil, fmt.Errorf("%w: tags: %v", ErrImportFailed, err)
	}

	// Assets, sequential, partial-success.
	result = &ImportResult{Errors: make(map[string]string)}
	total := len(manifest.Assets)
	for n, src := range manifest.Assets {
		if err := i.cancelled(ctx); err != nil {
			return nil, err
		}
		i.broker.Publish(Event{
			Phase:          PhaseAssets,
			TotalUnits:     total,
			ProcessedUnits: n,
			CurrentItem:    src.Slug,
		})

		outcome, assetErr := i.importAsset(ctx, tmpDir, src, idmap, catSlugs)
		switch {
		case assetErr != nil && errors.Is(assetErr, ErrCancelled):
			return nil, assetErr
		case assetErr != nil:
			result.Failed++
			result.Errors[src.Slug] = assetErr.Error()
			i.log.Warn("asset import failed", "error", &AssetImportError{Slug: src.Slug, Err: assetErr})
		case outcome == assetSkipped:
			result.Skipped++
		default:
			result.Imported++
		}
	}
	i.broker.Publish(Event{Phase: PhaseAssets, TotalUnits: total, ProcessedUnits: total})

	// Finalizing: merge settings, rebuild the search index (best
	// effort), drop the extraction directory.
	i.broker.Publish(Event{Phase: PhaseFinalizing})
	for _, s := range manifest.Settings {
		if err := i.store.SetSettingIgnore(s.Key, s.Value); err != nil {
			i.log.Warn("failed to merge setting", "key", s.Key, "error", err)
		}
	}
	if err := i.store.RebuildSearchIndex(); err != nil {
		i.log.Warn("search index rebuild failed", "error", err)
	}
	os.RemoveAll(tmpDir)

	i.broker.Publish(Event{Phase: PhaseCompleted, TotalUnits: total, ProcessedUnits: total})
	i.log.Info("import finished", "imported", result.Imported,
		"failed", result.Failed, "skipped", result.Skipped)
	return result, nil
}

// importCategories merges the manifest's category tree into the store:
// same-slug categories map onto the existing row, new ones are inserted
// with parentId remapped through the identity map. Roots are processed
// first; children keep being picked up as their parents get bound.
// Returns target category id → slug for content-path construction.
func (i *Importer) importCategories(cats []bundle.Category, idmap *IdentityMap) (map[string]string, error) {
	existing, err := i.store.ListCategories()
	if err != nil {
		return nil, err
	}
	bySlug := make(map[string]*data.Category, len(existing))
	slugs := make(map[string]string, len(existing))
	for _, c := range existing {
		bySlug[c.Slug] = c
		slugs[c.ID] = c.Slug
	}

	err = i.store.WithTx(func(tx *sql.Tx) error {
		pending := make([]bundle.Category, len(cats))
		copy(pending, cats)

		for len(pending) > 0 {
			var next []bundle.Category
			progressed := false

			for _, c := range pending {
				_, parentBound := idmap.Category(c.ParentID)
				if c.ParentID != "" && !parentBound {
					next = append(next, c)
					continue
				}
				progressed = true

				if hit, ok := bySlug[c.Slug]; ok {
					idmap.BindCategory(c.ID, hit.ID)
					continue
				}

				rec := c.ToRecord()
				rec.ID = uuid.NewString()
				rec.AssetCount = 0
				if c.ParentID != "" {
					rec.ParentID, _ = idmap.Category(c.ParentID)
				}
				if err := i.store.CreateCategoryTx(tx, rec); err != nil {
					return err
				}
				idmap.BindCategory(c.ID, rec.ID)
				bySlug[rec.Slug] = rec
				slugs[rec.ID] = rec.Slug
				i.broker.Publish(Event{Phase: PhaseCategories, TotalUnits: len(cats), CurrentItem: rec.Slug})
			}

			if !progressed {
				return fmt.Errorf("unresolvable category parents (cycle or dangling parentId)")
			}
			pending = next
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return slugs, nil
}

func (i *Importer) importTags(tags []bundle.Tag) error {
	return i.store.WithTx(func(tx *sql.Tx) error {
		for _, t := range tags {
			rec := t.ToRecord()
			rec.ID = uuid.NewString()
			if err := i.store.CreateTagIgnoreTx(tx, rec); err != nil {
				return err
			}
		}
		return nil
	})
}

type assetOutcome int

const (
	assetImported assetOutcome = iota
	assetSkipped
)

// importAsset runs steps (a)-(f) of the asset phase for one asset. Any
// error cleans up staged files and counts against this asset only.
func (i *Importer) importAsset(ctx context.Context, tmpDir string, src bundle.Asset, idmap *IdentityMap, catSlugs map[string]string) (assetOutcome, error) {
	slug := src.Slug

	existing, err := i.store.GetAssetBySlug(slug)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		res, err := resolveBounded(ctx, i.resolver, Conflict{
			Slug:     slug,
			Title:    src.Title,
			Existing: summarize(existing),
			Incoming: summarize(src.ToRecord()),
		}, i.opts.ConflictTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return 0, fmt.Errorf("%w: %v", ErrCancelled, err)
			}
			return 0, fmt.Errorf("conflict resolution: %w", err)
		}

		switch res.Action {
		case ActionSkip:
			i.log.Info("asset skipped by user", "slug", slug)
			return assetSkipped, nil
		case ActionOverwrite:
			i.removeAssetFiles(existing)
			if err := i.store.DeleteAsset(existing.ID); err != nil {
				return 0, fmt.Errorf("failed to delete existing asset: %w", err)
			}
		case ActionRename:
			if err := validateRename(res); err != nil {
				return 0, err
			}
			if taken, err := i.store.GetAssetBySlug(res.NewSlug); err != nil {
				return 0, err
			} else if taken != nil {
				return 0, fmt.Errorf("rename target slug %q already in use", res.NewSlug)
			}
			slug = res.NewSlug
		default:
			return 0, fmt.Errorf("unknown conflict action %d", res.Action)
		}
	}

	targetCat, ok := idmap.Category(src.CategoryID)
	if !ok {
		return 0, fmt.Errorf("%w: source category %s", ErrCategoryNotFound, src.CategoryID)
	}

	newID := uuid.NewString()
	defer i.content.CleanStaging(newID)

	// Stage files into scratch space; permanent storage is untouched
	// until the row is committed.
	type move struct {
		staged string
		rel    string
	}
	var moves []move

	stage := func(srcRel, dstRel string) error {
		abs, err := bundle.ResolveFile(tmpDir, srcRel)
		if err != nil {
			return err
		}
		staged, err := i.content.Stage(abs, newID, dstRel)
		if err != nil {
			return err
		}
		moves = append(moves, move{staged, dstRel})
		return nil
	}

	contentRel := content.AssetPath(catSlugs[targetCat], newID)
	if err := stage(src.ContentPath, contentRel); err != nil {
		return 0, err
	}

	thumbRel := ""
	if src.ThumbnailPath != "" {
		thumbRel = content.ThumbnailPath(newID)
		if err := stage(src.ThumbnailPath, thumbRel); err != nil {
			return 0, err
		}
	}
	var galleryRels []string
	for n, g := range src.GalleryPaths {
		rel := content.GalleryPath(newID, n)
		if err := stage(g, rel); err != nil {
			return 0, err
		}
		galleryRels = append(galleryRels, rel)
	}

	// One transaction per asset: the row goes in with placeholder
	// paths so a crash mid-move leaves a recoverable asset, never an
	// orphaned permanent file.
	rec := src.ToRecord()
	rec.ID = newID
	rec.Slug = slug
	rec.CategoryID = targetCat
	rec.ContentPath = ""
	rec.ThumbnailPath = ""
	rec.GalleryPaths = nil

	err = i.store.WithTx(func(tx *sql.Tx) error {
		if err := i.store.InsertAssetTx(tx, rec); err != nil {
			return err
		}
		for _, tagSlug := range src.Tags {
			if err := i.store.LinkTagBySlugTx(tx, newID, tagSlug); err != nil {
				return err
			}
		}
		return i.store.AdjustAssetCountTx(tx, targetCat, 1)
	})
	if err != nil {
		return 0, err
	}

	for _, mv := range moves {
		if err := i.content.Persist(mv.staged, mv.rel); err != nil {
			return 0, fmt.Errorf("failed to move staged file: %w", err)
		}
	}
	if err := i.store.UpdateAssetPaths(newID, contentRel, thumbRel, galleryRels); err != nil {
		return 0, err
	}

	idmap.BindAsset(src.ID, newID)
	return assetImported, nil
}

// removeAssetFiles deletes an asset's stored files, best effort.
func (i *Importer) removeAssetFiles(a *data.Asset) {
	for _, rel := range append([]string{a.ContentPath, a.ThumbnailPath}, a.GalleryPaths...) {
		if rel == "" {
			continue
		}
		if err := i.content.Remove(rel); err != nil {
			i.log.Warn("failed to remove asset file", "path", rel, "error", err)
		}
	}
}
