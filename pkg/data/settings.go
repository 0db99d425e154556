package data

import (
	"database/sql"
	"fmt"
)

func (r *Repository) SetSetting(key, value string) error {
	_, err := r.db.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("failed to set setting %q: %w", key, err)
	}
	return nil
}

// SetSettingIgnore inserts a setting unless the key already exists.
// Import uses this so local settings win over bundled ones.
func (r *Repository) SetSettingIgnore(key, value string) error {
	_, err := r.db.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT (key) DO NOTHING`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("failed to set setting %q: %w", key, err)
	}
	return nil
}

func (r *Repository) GetSetting(key string) (string, bool, error) {
	var value string
	err := r.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (r *Repository) ListSettings() ([]*Setting, error) {
	rows, err := r.db.Query(`SELECT key, value FROM settings ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var settings []*Setting
	for rows.Next() {
		var s Setting
		if err := rows.Scan(&s.Key, &s.Value); err != nil {
			return nil, err
		}
		settings = append(settings, &s)
	}
	return settings, rows.Err()
}

func (r *Repository) AddExportRecord(rec *ExportRecord) error {
	_, err := r.db.Exec(
		`INSERT INTO export_history (id, archive_path, asset_count, file_count, size_bytes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.ArchivePath, rec.AssetCount, rec.FileCount, rec.SizeBytes, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record export: %w", err)
	}
	return nil
}

func (r *Repository) ListExportRecords() ([]*ExportRecord, error) {
	rows, err := r.db.Query(
		`SELECT id, archive_path, asset_count, file_count, size_bytes, created_at
		 FROM export_history ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*ExportRecord
	for rows.Next() {
		var rec ExportRecord
		err := rows.Scan(&rec.ID, &rec.ArchivePath, &rec.AssetCount, &rec.FileCount,
			&rec.SizeBytes, &rec.CreatedAt)
		if err != nil {
			return nil, err
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}
