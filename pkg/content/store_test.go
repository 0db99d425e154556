package content

import (
	"os"
	"path/filepath"
	"testing"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "content"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	return s
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "src.bin")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write temp file: %v", err)
	}
	return path
}

func TestLogicalPaths(t *testing.T) {
	if got := AssetPath("icons", "a1"); got != "assets/icons/a1.zip" {
		t.Errorf("AssetPath = %q", got)
	}
	if got := ThumbnailPath("a1"); got != "thumbnails/a1/main.jpg" {
		t.Errorf("ThumbnailPath = %q", got)
	}
	if got := GalleryPath("a1", 2); got != "thumbnails/a1/gallery_2.jpg" {
		t.Errorf("GalleryPath = %q", got)
	}
}

func TestResolveRejectsEscapes(t *testing.T) {
	s := setupStore(t)

	for _, rel := range []string{"", "/etc/passwd", "../outside", "a/../../b"} {
		if _, err := s.Resolve(rel); err == nil {
			t.Errorf("Expected Resolve(%q) to fail", rel)
		}
	}

	abs, err := s.Resolve("assets/icons/a1.zip")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if filepath.Dir(filepath.Dir(filepath.Dir(abs))) != s.Root() {
		t.Errorf("Resolved path %q not under root %q", abs, s.Root())
	}
}

func TestStagePersistRemove(t *testing.T) {
	s := setupStore(t)
	src := writeTempFile(t, "zip bytes")
	rel := AssetPath("icons", "a1")

	staged, err := s.Stage(src, "op-1", rel)
	if err != nil {
		t.Fatalf("Failed to stage: %v", err)
	}

	// Staged file is not yet visible at the logical path
	if s.Exists(rel) {
		t.Error("Expected staged file to be invisible before persist")
	}

	if err := s.Persist(staged, rel); err != nil {
		t.Fatalf("Failed to persist: %v", err)
	}
	if !s.Exists(rel) {
		t.Error("Expected file to exist after persist")
	}

	abs, _ := s.Resolve(rel)
	data, err := os.ReadFile(abs)
	if err != nil {
		t.Fatalf("Failed to read persisted file: %v", err)
	}
	if string(data) != "zip bytes" {
		t.Errorf("Persisted content = %q", data)
	}

	if err := s.Remove(rel); err != nil {
		t.Fatalf("Failed to remove: %v", err)
	}
	if s.Exists(rel) {
		t.Error("Expected file to be gone after remove")
	}
	// Empty parent directory was pruned
	if _, err := os.Stat(filepath.Dir(abs)); !os.IsNotExist(err) {
		t.Error("Expected empty directory to be pruned")
	}
}

func TestRemoveMissingIsNoop(t *testing.T) {
	s := setupStore(t)
	if err := s.Remove("assets/icons/missing.zip"); err != nil {
		t.Errorf("Removing a missing file should not error: %v", err)
	}
}

func TestCleanStaging(t *testing.T) {
	s := setupStore(t)
	src := writeTempFile(t, "data")

	staged, err := s.Stage(src, "op-1", "assets/icons/a1.zip")
	if err != nil {
		t.Fatalf("Failed to stage: %v", err)
	}

	if err := s.CleanStaging("op-1"); err != nil {
		t.Fatalf("Failed to clean staging: %v", err)
	}
	if _, err := os.Stat(staged); !os.IsNotExist(err) {
		t.Error("Expected staged file to be removed")
	}
}
