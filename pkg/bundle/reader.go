package bundle

import (
	"archive/zip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrCorruptBundle marks archives that are readable containers but not
// valid bundles: missing or malformed manifest, or a manifest-referenced
// file absent from the archive.
var ErrCorruptBundle = errors.New("bundle: corrupt bundle")

// Extract unpacks every entry of the archive at src into destDir.
// It fails if the file is not a readable, non-empty ZIP container.
func Extract(src, destDir string) error {
	zr, err := zip.OpenReader(src)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer zr.Close()

	if len(zr.File) == 0 {
		return fmt.Errorf("archive is empty")
	}

	for _, f := range zr.File {
		if err := extractEntry(f, destDir); err != nil {
			return err
		}
	}
	return nil
}

func extractEntry(f *zip.File, destDir string) error {
	if strings.Contains(f.Name, "..") || strings.HasPrefix(f.Name, "/") {
		return fmt.Errorf("%w: unsafe entry path %q", ErrCorruptBundle, f.Name)
	}

	dst := filepath.Join(destDir, filepath.FromSlash(f.Name))
	if f.FileInfo().IsDir() {
		return os.MkdirAll(dst, 0755)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}

	in, err := f.Open()
	if err != nil {
		return fmt.Errorf("failed to open entry %q: %w", f.Name, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("failed to extract %q: %w", f.Name, err)
	}
	return out.Close()
}

// rawManifest detects missing sections: decoding distinguishes an absent
// key from an empty array.
type rawManifest struct {
	Metadata   *json.RawMessage `json:"metadata"`
	Categories *json.RawMessage `json:"categories"`
	Tags       *json.RawMessage `json:"tags"`
	Assets     *json.RawMessage `json:"assets"`
}

// ReadManifest decodes and validates the manifest of an extracted
// bundle. The metadata, categories, tags, and assets sections must all
// be present.
func ReadManifest(dir string) (*Manifest, error) {
	raw, err := os.ReadFile(filepath.Join(dir, ManifestName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: missing %s", ErrCorruptBundle, ManifestName)
		}
		return nil, err
	}

	var probe rawManifest
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptBundle, err)
	}
	for name, section := range map[string]*json.RawMessage{
		"metadata":   probe.Metadata,
		"categories": probe.Categories,
		"tags":       probe.Tags,
		"assets":     probe.Assets,
	} {
		if section == nil {
			return nil, fmt.Errorf("%w: manifest missing %q section", ErrCorruptBundle, name)
		}
	}

	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptBundle, err)
	}
	return &m, nil
}

// ResolveFile returns the absolute path of a manifest-referenced file in
// an extracted bundle. Presence is checked here, lazily per file, not
// up front for the whole archive.
func ResolveFile(dir, rel string) (string, error) {
	abs := filepath.Join(dir, filepath.FromSlash(rel))
	info, err := os.Stat(abs)
	if err != nil || !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: referenced file %q not in archive", ErrCorruptBundle, rel)
	}
	return abs, nil
}
