package data

import (
	"database/sql"
	"fmt"
)

const assetColumns = `id, title, slug, description, category_id, version, file_size_bytes,
	content_path, thumbnail_path, is_featured, downloads_count, created_at, updated_at`

func scanAsset(row interface{ Scan(...any) error }) (*Asset, error) {
	var a Asset
	err := row.Scan(
		&a.ID, &a.Title, &a.Slug, &a.Description, &a.CategoryID, &a.Version,
		&a.FileSizeBytes, &a.ContentPath, &a.ThumbnailPath, &a.IsFeatured,
		&a.DownloadsCount, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// InsertAssetTx inserts the asset row plus its features and zip-entry
// metadata. Tag links and path fields are written separately: tags via
// LinkTagBySlugTx in the same transaction, paths via UpdateAssetPaths
// after the content files are in place.
func (r *Repository) InsertAssetTx(tx *sql.Tx, a *Asset) error {
	_, err := tx.Exec(
		`INSERT INTO assets (`+assetColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Title, a.Slug, a.Description, a.CategoryID, a.Version,
		a.FileSizeBytes, a.ContentPath, a.ThumbnailPath, a.IsFeatured,
		a.DownloadsCount, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert asset %q: %w", a.Slug, err)
	}

	for i, feature := range a.Features {
		if _, err := tx.Exec(
			`INSERT INTO asset_features (asset_id, position, feature) VALUES (?, ?, ?)`,
			a.ID, i, feature,
		); err != nil {
			return fmt.Errorf("failed to insert feature for asset %q: %w", a.Slug, err)
		}
	}

	for _, entry := range a.ZipEntries {
		if _, err := tx.Exec(
			`INSERT INTO asset_zip_entries (asset_id, path, size_bytes, compressed_bytes)
			 VALUES (?, ?, ?, ?)`,
			a.ID, entry.Path, entry.SizeBytes, entry.CompressedBytes,
		); err != nil {
			return fmt.Errorf("failed to insert zip entry for asset %q: %w", a.Slug, err)
		}
	}

	return nil
}

// LinkTagBySlugTx links the asset to the tag with the given slug.
// Unknown slugs are ignored.
func (r *Repository) LinkTagBySlugTx(tx *sql.Tx, assetID, tagSlug string) error {
	var tagID string
	err := tx.QueryRow(`SELECT id FROM tags WHERE slug = ?`, tagSlug).Scan(&tagID)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return err
	}
	if _, err := tx.Exec(
		`INSERT INTO asset_tags (asset_id, tag_id) VALUES (?, ?) ON CONFLICT DO NOTHING`,
		assetID, tagID,
	); err != nil {
		return fmt.Errorf("failed to link tag %q: %w", tagSlug, err)
	}
	return nil
}

// UpdateAssetPaths sets the asset's path fields once the content files
// have been moved into permanent storage.
func (r *Repository) UpdateAssetPaths(id, contentPath, thumbnailPath string, galleryPaths []string) error {
	return r.WithTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(
			`UPDATE assets SET content_path = ?, thumbnail_path = ? WHERE id = ?`,
			contentPath, thumbnailPath, id,
		); err != nil {
			return fmt.Errorf("failed to update asset paths: %w", err)
		}
		if _, err := tx.Exec(`DELETE FROM asset_gallery WHERE asset_id = ?`, id); err != nil {
			return err
		}
		for i, path := range galleryPaths {
			if _, err := tx.Exec(
				`INSERT INTO asset_gallery (asset_id, position, path) VALUES (?, ?, ?)`,
				id, i, path,
			); err != nil {
				return fmt.Errorf("failed to insert gallery path: %w", err)
			}
		}
		return nil
	})
}

func (r *Repository) loadAssetChildren(a *Asset) error {
	rows, err := r.db.Query(
		`SELECT t.slug FROM asset_tags atg JOIN tags t ON t.id = atg.tag_id
		 WHERE atg.asset_id = ? ORDER BY t.slug`, a.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var slug string
		if err := rows.Scan(&slug); err != nil {
			return err
		}
		a.Tags = append(a.Tags, slug)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = r.db.Query(
		`SELECT feature FROM asset_features WHERE asset_id = ? ORDER BY position`, a.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var feature string
		if err := rows.Scan(&feature); err != nil {
			return err
		}
		a.Features = append(a.Features, feature)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = r.db.Query(
		`SELECT path FROM asset_gallery WHERE asset_id = ? ORDER BY position`, a.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return err
		}
		a.GalleryPaths = append(a.GalleryPaths, path)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = r.db.Query(
		`SELECT path, size_bytes, compressed_bytes FROM asset_zip_entries
		 WHERE asset_id = ? ORDER BY path`, a.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var entry ZipEntry
		if err := rows.Scan(&entry.Path, &entry.SizeBytes, &entry.CompressedBytes); err != nil {
			return err
		}
		a.ZipEntries = append(a.ZipEntries, entry)
	}
	return rows.Err()
}

func (r *Repository) GetAsset(id string) (*Asset, error) {
	a, err := scanAsset(r.db.QueryRow(
		`SELECT `+assetColumns+` FROM assets WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadAssetChildren(a); err != nil {
		return nil, err
	}
	return a, nil
}

func (r *Repository) GetAssetBySlug(slug string) (*Asset, error) {
	a, err := scanAsset(r.db.QueryRow(
		`SELECT `+assetColumns+` FROM assets WHERE slug = ?`, slug))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadAssetChildren(a); err != nil {
		return nil, err
	}
	return a, nil
}

func (r *Repository) ListAssets() ([]*Asset, error) {
	rows, err := r.db.Query(`SELECT ` + assetColumns + ` FROM assets ORDER BY slug`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assets []*Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, a := range assets {
		if err := r.loadAssetChildren(a); err != nil {
			return nil, err
		}
	}
	return assets, nil
}

// CreateAsset inserts a complete asset in one transaction. Tag slugs
// must already exist in the tags table to be linked.
func (r *Repository) CreateAsset(a *Asset) error {
	return r.WithTx(func(tx *sql.Tx) error {
		if err := r.InsertAssetTx(tx, a); err != nil {
			return err
		}
		for _, slug := range a.Tags {
			if err := r.LinkTagBySlugTx(tx, a.ID, slug); err != nil {
				return err
			}
		}
		for i, path := range a.GalleryPaths {
			if _, err := tx.Exec(
				`INSERT INTO asset_gallery (asset_id, position, path) VALUES (?, ?, ?)`,
				a.ID, i, path,
			); err != nil {
				return err
			}
		}
		return r.AdjustAssetCountTx(tx, a.CategoryID, 1)
	})
}

// DeleteAsset removes the asset row and every dependent row in one
// transaction. Content files are the caller's responsibility.
func (r *Repository) DeleteAsset(id string) error {
	return r.WithTx(func(tx *sql.Tx) error {
		var categoryID string
		err := tx.QueryRow(`SELECT category_id FROM assets WHERE id = ?`, id).Scan(&categoryID)
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return err
		}

		for _, stmt := range []string{
			`DELETE FROM asset_tags WHERE asset_id = ?`,
			`DELETE FROM asset_features WHERE asset_id = ?`,
			`DELETE FROM asset_gallery WHERE asset_id = ?`,
			`DELETE FROM asset_zip_entries WHERE asset_id = ?`,
			`DELETE FROM asset_search WHERE asset_id = ?`,
			`DELETE FROM assets WHERE id = ?`,
		} {
			if _, err := tx.Exec(stmt, id); err != nil {
				return fmt.Errorf("failed to delete asset %s: %w", id, err)
			}
		}

		return r.AdjustAssetCountTx(tx, categoryID, -1)
	})
}

func (r *Repository) CountAssets() (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM assets`).Scan(&n)
	return n, err
}
