package bundle

import (
	"archive/zip"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testManifest() *Manifest {
	return &Manifest{
		Metadata: Metadata{
			FormatVersion: FormatVersion,
			ExportedAt:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC).UnixMilli(),
			Generator:     "shelf-test",
			CategoryCount: 1,
			TagCount:      1,
			AssetCount:    1,
		},
		Categories: []Category{
			{ID: "cat-1", Name: "Icons", Slug: "icons"},
		},
		Tags: []Tag{
			{ID: "tag-1", Name: "Dark", Slug: "dark"},
		},
		Assets: []Asset{
			{
				ID:          "asset-1",
				Title:       "Dark Icons",
				Slug:        "dark-icons",
				CategoryID:  "cat-1",
				Tags:        []string{"dark"},
				ContentPath: "assets/icons/asset-1.zip",
				CreatedAt:   1700000000000,
				UpdatedAt:   1700000000000,
			},
		},
	}
}

func writeTestBundle(t *testing.T, m *Manifest, files []FileEntry) string {
	t.Helper()
	dst := filepath.Join(t.TempDir(), "bundle.zip")
	if err := Write(dst, m, files, nil); err != nil {
		t.Fatalf("Failed to write bundle: %v", err)
	}
	return dst
}

func TestWriteAndReadBundle(t *testing.T) {
	payload := filepath.Join(t.TempDir(), "asset-1.zip")
	if err := os.WriteFile(payload, []byte("artifact"), 0644); err != nil {
		t.Fatalf("Failed to write payload: %v", err)
	}

	m := testManifest()
	dst := writeTestBundle(t, m, []FileEntry{
		{Path: "assets/icons/asset-1.zip", Source: payload},
	})

	extractDir := t.TempDir()
	if err := Extract(dst, extractDir); err != nil {
		t.Fatalf("Failed to extract: %v", err)
	}

	got, err := ReadManifest(extractDir)
	if err != nil {
		t.Fatalf("Failed to read manifest: %v", err)
	}
	if got.Metadata.FormatVersion != FormatVersion {
		t.Errorf("Expected format version %d, got %d", FormatVersion, got.Metadata.FormatVersion)
	}
	if len(got.Assets) != 1 || got.Assets[0].Slug != "dark-icons" {
		t.Errorf("Manifest assets wrong: %+v", got.Assets)
	}

	abs, err := ResolveFile(extractDir, "assets/icons/asset-1.zip")
	if err != nil {
		t.Fatalf("Failed to resolve bundled file: %v", err)
	}
	data, _ := os.ReadFile(abs)
	if string(data) != "artifact" {
		t.Errorf("Bundled file content = %q", data)
	}

	// README is present
	if _, err := os.Stat(filepath.Join(extractDir, ReadmeName)); err != nil {
		t.Errorf("Expected README in bundle: %v", err)
	}
}

func TestWriteDeterministicOrder(t *testing.T) {
	payload := filepath.Join(t.TempDir(), "f.bin")
	if err := os.WriteFile(payload, []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to write payload: %v", err)
	}

	files := []FileEntry{
		{Path: "assets/icons/b.zip", Source: payload},
		{Path: "assets/icons/a.zip", Source: payload},
	}
	dst := writeTestBundle(t, testManifest(), files)

	zr, err := zip.OpenReader(dst)
	if err != nil {
		t.Fatalf("Failed to open bundle: %v", err)
	}
	defer zr.Close()

	want := []string{ManifestName, ReadmeName, "assets/icons/b.zip", "assets/icons/a.zip"}
	if len(zr.File) != len(want) {
		t.Fatalf("Expected %d entries, got %d", len(want), len(zr.File))
	}
	for i, f := range zr.File {
		if f.Name != want[i] {
			t.Errorf("Entry %d: expected %q, got %q", i, want[i], f.Name)
		}
	}
}

func TestWriteCallbackAborts(t *testing.T) {
	stop := errors.New("stop")
	dst := filepath.Join(t.TempDir(), "bundle.zip")
	calls := 0
	err := Write(dst, testManifest(), nil, func(path string) error {
		calls++
		return stop
	})
	if !errors.Is(err, stop) {
		t.Fatalf("Expected the callback error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected write to stop after first callback, got %d calls", calls)
	}
}

func TestExtractRejectsUnsafePaths(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "evil.zip")
	out, err := os.Create(dst)
	if err != nil {
		t.Fatalf("Failed to create archive: %v", err)
	}
	zw := zip.NewWriter(out)
	w, _ := zw.Create("../escape.txt")
	w.Write([]byte("nope"))
	zw.Close()
	out.Close()

	err = Extract(dst, t.TempDir())
	if !errors.Is(err, ErrCorruptBundle) {
		t.Errorf("Expected ErrCorruptBundle, got %v", err)
	}
}

func TestExtractRejectsNonZip(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "not-a-zip.zip")
	if err := os.WriteFile(dst, []byte("plain text"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
	if err := Extract(dst, t.TempDir()); err == nil {
		t.Error("Expected extraction of a non-ZIP to fail")
	}
}

func TestReadManifestMissingSection(t *testing.T) {
	dir := t.TempDir()

	// Valid JSON missing the assets section entirely
	raw, _ := json.Marshal(map[string]any{
		"metadata":   map[string]any{"formatVersion": 1},
		"categories": []any{},
		"tags":       []any{},
	})
	if err := os.WriteFile(filepath.Join(dir, ManifestName), raw, 0644); err != nil {
		t.Fatalf("Failed to write manifest: %v", err)
	}

	_, err := ReadManifest(dir)
	if !errors.Is(err, ErrCorruptBundle) {
		t.Errorf("Expected ErrCorruptBundle for missing section, got %v", err)
	}
}

func TestReadManifestEmptySectionsAllowed(t *testing.T) {
	dir := t.TempDir()
	raw, _ := json.Marshal(map[string]any{
		"metadata":   map[string]any{"formatVersion": 1},
		"categories": []any{},
		"tags":       []any{},
		"assets":     []any{},
	})
	if err := os.WriteFile(filepath.Join(dir, ManifestName), raw, 0644); err != nil {
		t.Fatalf("Failed to write manifest: %v", err)
	}

	m, err := ReadManifest(dir)
	if err != nil {
		t.Fatalf("Empty sections should be valid: %v", err)
	}
	if len(m.Assets) != 0 {
		t.Errorf("Expected no assets, got %d", len(m.Assets))
	}
}

func TestReadManifestMissingFile(t *testing.T) {
	_, err := ReadManifest(t.TempDir())
	if !errors.Is(err, ErrCorruptBundle) {
		t.Errorf("Expected ErrCorruptBundle for missing manifest, got %v", err)
	}
}

func TestReadManifestMalformedJSON(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ManifestName), []byte("{not json"), 0644); err != nil {
		t.Fatalf("Failed to write manifest: %v", err)
	}
	_, err := ReadManifest(dir)
	if !errors.Is(err, ErrCorruptBundle) {
		t.Errorf("Expected ErrCorruptBundle for malformed JSON, got %v", err)
	}
}

func TestResolveFileMissing(t *testing.T) {
	_, err := ResolveFile(t.TempDir(), "assets/icons/missing.zip")
	if !errors.Is(err, ErrCorruptBundle) {
		t.Errorf("Expected ErrCorruptBundle for missing referenced file, got %v", err)
	}
}

func TestAssetRoundTripConversion(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	wire := testManifest().Assets[0]
	wire.CreatedAt = now.UnixMilli()
	wire.UpdatedAt = now.UnixMilli()

	rec := wire.ToRecord()
	if !rec.CreatedAt.Equal(now) {
		t.Errorf("Expected CreatedAt %v, got %v", now, rec.CreatedAt)
	}

	back := FromAsset(rec)
	if back.CreatedAt != wire.CreatedAt || back.Slug != wire.Slug {
		t.Errorf("Round trip changed asset: %+v vs %+v", wire, back)
	}
}
