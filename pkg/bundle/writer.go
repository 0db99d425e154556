package bundle

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

// FileEntry maps an on-disk file to its forward-slash path inside the
// archive.
type FileEntry struct {
	Path   string // in-archive path, relative, forward-slash
	Source string // absolute path on disk
}

// Write encodes a bundle to dst in deterministic order: manifest, then
// README, then the files in the order given. onFile, if non-nil, is
// called once per written entry; a non-nil return aborts the write.
func Write(dst string, m *Manifest, files []FileEntry, onFile func(path string) error) error {
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create bundle: %w", err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)

	if err := writeManifest(zw, m); err != nil {
		return err
	}
	if err := tick(onFile, ManifestName); err != nil {
		return err
	}

	if err := writeString(zw, ReadmeName, readme(m)); err != nil {
		return err
	}
	if err := tick(onFile, ReadmeName); err != nil {
		return err
	}

	for _, f := range files {
		if err := writeFile(zw, f); err != nil {
			return err
		}
		if err := tick(onFile, f.Path); err != nil {
			return err
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize bundle: %w", err)
	}
	return out.Close()
}

func tick(onFile func(path string) error, path string) error {
	if onFile == nil {
		return nil
	}
	return onFile(path)
}

func writeManifest(zw *zip.Writer, m *Manifest) error {
	raw, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	return writeString(zw, ManifestName, string(raw))
}

func writeString(zw *zip.Writer, name, body string) error {
	// Fixed header timestamp keeps re-exports of an unchanged store
	// byte-stable apart from the manifest's exportedAt field.
	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: time.Unix(0, 0).UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to create entry %q: %w", name, err)
	}
	_, err = io.WriteString(w, body)
	return err
}

func writeFile(zw *zip.Writer, f FileEntry) error {
	in, err := os.Open(f.Source)
	if err != nil {
		return fmt.Errorf("failed to open %q: %w", f.Source, err)
	}
	defer in.Close()

	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:     f.Path,
		Method:   zip.Deflate,
		Modified: time.Unix(0, 0).UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to create entry %q: %w", f.Path, err)
	}
	if _, err := io.Copy(w, in); err != nil {
		return fmt.Errorf("failed to write entry %q: %w", f.Path, err)
	}
	return nil
}

func readme(m *Manifest) string {
	exported := time.UnixMilli(m.Metadata.ExportedAt).UTC().Format(time.RFC3339)
	return fmt.Sprintf(`shelf library bundle
====================

Exported: %s
Format:   v%d

Contents:
  %s        library metadata (categories, tags, assets, settings)
  %s            this file
  %s<category>/<asset-id>.zip   packaged asset artifacts
  %s<asset-id>/main.jpg      asset thumbnails (plus gallery_*.jpg)

Counts: %d categories, %d tags, %d assets.

Import this bundle with: shelf import <bundle>
`,
		exported, m.Metadata.FormatVersion,
		ManifestName, ReadmeName, AssetsPrefix, ThumbnailsPrefix,
		m.Metadata.CategoryCount, m.Metadata.TagCount, m.Metadata.AssetCount)
}
