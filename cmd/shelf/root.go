package cmd

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kerbaras/shelf/pkg/config"
	"github.com/kerbaras/shelf/pkg/services"
)

var libraryDir string

var rootCmd = &cobra.Command{
	Use:   "shelf",
	Short: "A personal digital-asset library",
	Long:  "Manage a personal library of ZIP-packaged assets, with whole-library backup and restore",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&libraryDir, "library", "", "Library directory (default ~/.shelf)")
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(estimateCmd)
	rootCmd.AddCommand(catalogCmd)
}

func Execute() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// openLibrary loads config (honoring --library) and opens the store and
// content tree.
func openLibrary() (*services.Library, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if libraryDir != "" {
		cfg.LibraryDir = libraryDir
		cfg.DBPath = filepath.Join(libraryDir, "shelf.db")
		cfg.ContentDir = filepath.Join(libraryDir, "content")
	}

	lib, err := services.OpenLibrary(cfg, slog.Default())
	if err != nil {
		return nil, nil, err
	}
	return lib, cfg, nil
}

func truncateString(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}
