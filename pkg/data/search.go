package data

import (
	"database/sql"
	"fmt"
	"strings"
)

// RebuildSearchIndex regenerates the asset_search table from the current
// asset rows in one transaction.
func (r *Repository) RebuildSearchIndex() error {
	assets, err := r.ListAssets()
	if err != nil {
		return fmt.Errorf("failed to load assets for indexing: %w", err)
	}

	return r.WithTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM asset_search`); err != nil {
			return err
		}
		for _, a := range assets {
			text := strings.ToLower(strings.Join(append([]string{
				a.Title, a.Slug, a.Description, a.Version,
			}, append(a.Tags, a.Features...)...), " "))
			if _, err := tx.Exec(
				`INSERT INTO asset_search (asset_id, text) VALUES (?, ?)`,
				a.ID, text,
			); err != nil {
				return fmt.Errorf("failed to index asset %q: %w", a.Slug, err)
			}
		}
		return nil
	})
}

// SearchAssets returns assets whose indexed text contains every term.
func (r *Repository) SearchAssets(query string) ([]*Asset, error) {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return nil, nil
	}

	where := make([]string, len(terms))
	args := make([]any, len(terms))
	for i, term := range terms {
		where[i] = `s.text LIKE ?`
		args[i] = "%" + term + "%"
	}

	rows, err := r.db.Query(
		`SELECT `+prefixColumns(assetColumns, "a.")+`
		 FROM assets a JOIN asset_search s ON s.asset_id = a.id
		 WHERE `+strings.Join(where, " AND ")+` ORDER BY a.slug`, args...)
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
	return assets, rows.Err()
}

func prefixColumns(columns, prefix string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = prefix + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
