// Package content implements the on-disk content store: ZIP artifacts
// and thumbnails addressed by logical, forward-slash relative paths so
// callers never see the physical directory layout.
package content

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

const stagingDir = ".staging"

type Store struct {
	root string
}

// NewStore opens (creating if needed) a content store rooted at root.
func NewStore(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create content root: %w", err)
	}
	return &Store{root: root}, nil
}

func (s *Store) Root() string {
	return s.root
}

// AssetPath is the logical path of an asset's packaged ZIP artifact.
func AssetPath(categorySlug, assetID string) string {
	return path.Join("assets", categorySlug, assetID+".zip")
}

// ThumbnailPath is the logical path of an asset's main thumbnail.
func ThumbnailPath(assetID string) string {
	return path.Join("thumbnails", assetID, "main.jpg")
}

// GalleryPath is the logical path of the i-th gallery image.
func GalleryPath(assetID string, i int) string {
	return path.Join("thumbnails", assetID, fmt.Sprintf("gallery_%d.jpg", i))
}

// Resolve turns a logical path into an absolute one, rejecting paths
// that would escape the root.
func (s *Store) Resolve(rel string) (string, error) {
	if rel == "" || path.IsAbs(rel) || strings.Contains(rel, "..") {
		return "", fmt.Errorf("invalid content path %q", rel)
	}
	return filepath.Join(s.root, filepath.FromSlash(rel)), nil
}

// Exists reports whether a logical path resolves to a regular file.
func (s *Store) Exists(rel string) bool {
	abs, err := s.Resolve(rel)
	if err != nil {
		return false
	}
	info, err := os.Stat(abs)
	return err == nil && info.Mode().IsRegular()
}

// Stage copies src into the scratch area of operation opID under rel.
// Staged files are invisible to Resolve until persisted.
func (s *Store) Stage(src, opID, rel string) (string, error) {
	staged := filepath.Join(s.root, stagingDir, opID, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(staged), 0755); err != nil {
		return "", fmt.Errorf("failed to create staging directory: %w", err)
	}
	if err := copyFile(src, staged); err != nil {
		return "", fmt.Errorf("failed to stage %q: %w", rel, err)
	}
	return staged, nil
}

// Persist moves a staged file into permanent storage at rel.
func (s *Store) Persist(staged, rel string) error {
	dst, err := s.Resolve(rel)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("failed to create content directory: %w", err)
	}
	if err := os.Rename(staged, dst); err != nil {
		// Rename fails across filesystems; fall back to copy+remove.
		if err := copyFile(staged, dst); err != nil {
			return fmt.Errorf("failed to persist %q: %w", rel, err)
		}
		os.Remove(staged)
	}
	return nil
}

// Remove deletes a stored file and prunes its directory if empty.
func (s *Store) Remove(rel string) error {
	abs, err := s.Resolve(rel)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
		return err
	}
	os.Remove(filepath.Dir(abs)) // fails when non-empty, which is fine
	return nil
}

// CleanStaging removes the scratch area of one operation.
func (s *Store) CleanStaging(opID string) error {
	return os.RemoveAll(filepath.Join(s.root, stagingDir, opID))
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
