package data

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb/v2"
)

const schema = `
CREATE TABLE IF NOT EXISTS categories (
	id            VARCHAR PRIMARY KEY,
	name          VARCHAR NOT NULL,
	slug          VARCHAR NOT NULL UNIQUE,
	description   VARCHAR NOT NULL DEFAULT '',
	parent_id     VARCHAR,
	display_order INTEGER NOT NULL DEFAULT 0,
	asset_count   INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS tags (
	id   VARCHAR PRIMARY KEY,
	name VARCHAR NOT NULL,
	slug VARCHAR NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS assets (
	id              VARCHAR PRIMARY KEY,
	title           VARCHAR NOT NULL,
	slug            VARCHAR NOT NULL UNIQUE,
	description     VARCHAR NOT NULL DEFAULT '',
	category_id     VARCHAR NOT NULL REFERENCES categories(id),
	version         VARCHAR NOT NULL DEFAULT '',
	file_size_bytes BIGINT NOT NULL DEFAULT 0,
	content_path    VARCHAR NOT NULL DEFAULT '',
	thumbnail_path  VARCHAR NOT NULL DEFAULT '',
	is_featured     BOOLEAN NOT NULL DEFAULT FALSE,
	downloads_count INTEGER NOT NULL DEFAULT 0,
	created_at      TIMESTAMP NOT NULL,
	updated_at      TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS asset_tags (
	asset_id VARCHAR NOT NULL REFERENCES assets(id),
	tag_id   VARCHAR NOT NULL REFERENCES tags(id),
	PRIMARY KEY (asset_id, tag_id)
);
CREATE TABLE IF NOT EXISTS asset_features (
	asset_id VARCHAR NOT NULL REFERENCES assets(id),
	position INTEGER NOT NULL,
	feature  VARCHAR NOT NULL,
	PRIMARY KEY (asset_id, position)
);
CREATE TABLE IF NOT EXISTS asset_gallery (
	asset_id VARCHAR NOT NULL REFERENCES assets(id),
	position INTEGER NOT NULL,
	path     VARCHAR NOT NULL,
	PRIMARY KEY (asset_id, position)
);
CREATE TABLE IF NOT EXISTS asset_zip_entries (
	asset_id         VARCHAR NOT NULL REFERENCES assets(id),
	path             VARCHAR NOT NULL,
	size_bytes       BIGINT NOT NULL,
	compressed_bytes BIGINT NOT NULL,
	PRIMARY KEY (asset_id, path)
);
CREATE TABLE IF NOT EXISTS settings (
	key   VARCHAR PRIMARY KEY,
	value VARCHAR NOT NULL
);
CREATE TABLE IF NOT EXISTS export_history (
	id           VARCHAR PRIMARY KEY,
	archive_path VARCHAR NOT NULL,
	asset_count  INTEGER NOT NULL,
	file_count   INTEGER NOT NULL,
	size_bytes   BIGINT NOT NULL,
	created_at   TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS asset_search (
	asset_id VARCHAR PRIMARY KEY,
	text     VARCHAR NOT NULL
);
`

// InitDuckDB opens (creating if needed) the library database at path and
// ensures the schema exists.
func InitDuckDB(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

// Repository is the relational store for the library.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Close() error {
	return r.db.Close()
}

// nullable maps the empty string to SQL NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
