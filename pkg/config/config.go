// Package config loads shelf's configuration from
// ~/.shelf/config.yaml with SHELF_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	// LibraryDir is the root of the library; the database and content
	// tree live under it unless overridden.
	LibraryDir      string        `mapstructure:"library_dir"`
	DBPath          string        `mapstructure:"db_path"`
	ContentDir      string        `mapstructure:"content_dir"`
	OnConflict      string        `mapstructure:"on_conflict"` // ask, skip, overwrite or rename
	ConflictTimeout time.Duration `mapstructure:"conflict_timeout"`
}

func defaultLibraryDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".shelf"
	}
	return filepath.Join(home, ".shelf")
}

// Load reads the config file if present and applies defaults. A missing
// file is not an error.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(defaultLibraryDir())
	v.SetEnvPrefix("SHELF")
	v.AutomaticEnv()

	v.SetDefault("library_dir", defaultLibraryDir())
	v.SetDefault("on_conflict", "ask")
	v.SetDefault("conflict_timeout", 5*time.Minute)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(cfg.LibraryDir, "shelf.db")
	}
	if cfg.ContentDir == "" {
		cfg.ContentDir = filepath.Join(cfg.LibraryDir, "content")
	}
	return &cfg, nil
}
