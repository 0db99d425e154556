package services

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kerbaras/shelf/pkg/bundle"
	"github.com/kerbaras/shelf/pkg/content"
	"github.com/kerbaras/shelf/pkg/data"
)

func setupTestLibrary(t *testing.T) (*data.Repository, *content.Store, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "shelf-services-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}

	db, err := data.InitDuckDB(filepath.Join(tmpDir, "library.db"))
	if err != nil {
		os.RemoveAll(tmpDir)
		t.Fatalf("Failed to init DB: %v", err)
	}
	repo := data.NewRepository(db)

	cs, err := content.NewStore(filepath.Join(tmpDir, "content"))
	if err != nil {
		repo.Close()
		os.RemoveAll(tmpDir)
		t.Fatalf("Failed to create content store: %v", err)
	}

	cleanup := func() {
		repo.Close()
		os.RemoveAll(tmpDir)
	}
	return repo, cs, cleanup
}

func seedCategory(t *testing.T, repo *data.Repository, id, slug string) *data.Category {
	t.Helper()
	c := &data.Category{ID: id, Name: "Category " + slug, Slug: slug}
	if err := repo.CreateCategory(c); err != nil {
		t.Fatalf("Failed to seed category %s: %v", slug, err)
	}
	return c
}

func seedTag(t *testing.T, repo *data.Repository, id, slug string) *data.Tag {
	t.Helper()
	tag := &data.Tag{ID: id, Name: "Tag " + slug, Slug: slug}
	if err := repo.CreateTag(tag); err != nil {
		t.Fatalf("Failed to seed tag %s: %v", slug, err)
	}
	return tag
}

func seedAsset(t *testing.T, repo *data.Repository, id, slug, categoryID string) *data.Asset {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Millisecond)
	a := &data.Asset{
		ID:            id,
		Title:         "Asset " + slug,
		Slug:          slug,
		CategoryID:    categoryID,
		Version:       "1.0",
		FileSizeBytes: 2048,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := repo.CreateAsset(a); err != nil {
		t.Fatalf("Failed to seed asset %s: %v", slug, err)
	}
	return a
}

// writeContentFile places a file directly at a logical path, bypassing
// staging, to set up pre-existing library content.
func writeContentFile(t *testing.T, cs *content.Store, rel, body string) {
	t.Helper()
	abs, err := cs.Resolve(rel)
	if err != nil {
		t.Fatalf("Failed to resolve %s: %v", rel, err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
		t.Fatalf("Failed to create content dir: %v", err)
	}
	if err := os.WriteFile(abs, []byte(body), 0644); err != nil {
		t.Fatalf("Failed to write content file: %v", err)
	}
}

// makeBundle writes a bundle archive containing the manifest and the
// given files (in-archive path -> body).
func makeBundle(t *testing.T, m *bundle.Manifest, files map[string]string) string {
	t.Helper()

	srcDir := t.TempDir()
	var entries []bundle.FileEntry
	for rel, body := range files {
		src := filepath.Join(srcDir, filepath.Base(rel)+".src")
		if err := os.WriteFile(src, []byte(body), 0644); err != nil {
			t.Fatalf("Failed to write bundle payload: %v", err)
		}
		entries = append(entries, bundle.FileEntry{Path: rel, Source: src})
	}

	dst := filepath.Join(t.TempDir(), "bundle.zip")
	if err := bundle.Write(dst, m, entries, nil); err != nil {
		t.Fatalf("Failed to write bundle: %v", err)
	}
	return dst
}

// writeRawZip builds an arbitrary ZIP that need not be a valid bundle.
func writeRawZip(path string, entries map[string]string) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	zw := zip.NewWriter(out)
	for name, body := range entries {
		w, err := zw.Create(name)
		if err != nil {
			return err
		}
		if _, err := w.Write([]byte(body)); err != nil {
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return err
	}
	return out.Close()
}

func wireManifest(categories []bundle.Category, tags []bundle.Tag, assets []bundle.Asset) *bundle.Manifest {
	return &bundle.Manifest{
		Metadata: bundle.Metadata{
			FormatVersion: bundle.FormatVersion,
			ExportedAt:    time.Now().UTC().UnixMilli(),
			Generator:     "shelf-test",
			CategoryCount: len(categories),
			TagCount:      len(tags),
			AssetCount:    len(assets),
		},
		Categories: categories,
		Tags:       tags,
		Assets:     assets,
	}
}
