package data

import (
	"database/sql"
	"fmt"
)

const categoryColumns = `id, name, slug, description, parent_id, display_order, asset_count`

func scanCategory(row interface{ Scan(...any) error }) (*Category, error) {
	var c Category
	var parent sql.NullString
	err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &parent, &c.DisplayOrder, &c.AssetCount)
	if err != nil {
		return nil, err
	}
	c.ParentID = parent.String
	return &c, nil
}

func insertCategory(q querier, c *Category) error {
	_, err := q.Exec(
		`INSERT INTO categories (id, name, slug, description, parent_id, display_order, asset_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Slug, c.Description, nullable(c.ParentID), c.DisplayOrder, c.AssetCount,
	)
	if err != nil {
		return fmt.Errorf("failed to insert category %q: %w", c.Slug, err)
	}
	return nil
}

func (r *Repository) CreateCategory(c *Category) error {
	return insertCategory(r.db, c)
}

// CreateCategoryTx inserts a category inside an open transaction.
func (r *Repository) CreateCategoryTx(tx *sql.Tx, c *Category) error {
	return insertCategory(tx, c)
}

func (r *Repository) GetCategory(id string) (*Category, error) {
	c, err := scanCategory(r.db.QueryRow(
		`SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

func (r *Repository) GetCategoryBySlug(slug string) (*Category, error) {
	c, err := scanCategory(r.db.QueryRow(
		`SELECT `+categoryColumns+` FROM categories WHERE slug = ?`, slug))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

// ListCategories returns every category, roots before children so a
// single pass can rebuild the tree.
func (r *Repository) ListCategories() ([]*Category, error) {
	rows, err := r.db.Query(
		`SELECT ` + categoryColumns + ` FROM categories
		 ORDER BY parent_id IS NOT NULL, display_order, slug`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []*Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// AdjustAssetCountTx changes a category's asset counter by delta.
func (r *Repository) AdjustAssetCountTx(tx *sql.Tx, id string, delta int) error {
	_, err := tx.Exec(`UPDATE categories SET asset_count = asset_count + ? WHERE id = ?`, delta, id)
	if err != nil {
		return fmt.Errorf("failed to adjust asset count for category %s: %w", id, err)
	}
	return nil
}

func (r *Repository) CountCategories() (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM categories`).Scan(&n)
	return n, err
}
