package data

import (
	"database/sql"
	"fmt"
)

func (r *Repository) CreateTag(t *Tag) error {
	_, err := r.db.Exec(`INSERT INTO tags (id, name, slug) VALUES (?, ?, ?)`, t.ID, t.Name, t.Slug)
	if err != nil {
		return fmt.Errorf("failed to insert tag %q: %w", t.Slug, err)
	}
	return nil
}

// CreateTagIgnoreTx inserts a tag unless one with the same slug exists.
func (r *Repository) CreateTagIgnoreTx(tx *sql.Tx, t *Tag) error {
	_, err := tx.Exec(
		`INSERT INTO tags (id, name, slug) VALUES (?, ?, ?) ON CONFLICT (slug) DO NOTHING`,
		t.ID, t.Name, t.Slug,
	)
	if err != nil {
		return fmt.Errorf("failed to insert tag %q: %w", t.Slug, err)
	}
	return nil
}

func (r *Repository) GetTagBySlug(slug string) (*Tag, error) {
	var t Tag
	err := r.db.QueryRow(`SELECT id, name, slug FROM tags WHERE slug = ?`, slug).
		Scan(&t.ID, &t.Name, &t.Slug)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *Repository) ListTags() ([]*Tag, error) {
	rows, err := r.db.Query(`SELECT id, name, slug FROM tags ORDER BY slug`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []*Tag
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug); err != nil {
			return nil, err
		}
		tags = append(tags, &t)
	}
	return tags, rows.Err()
}

func (r *Repository) CountTags() (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM tags`).Scan(&n)
	return n, err
}
