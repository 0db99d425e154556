package services

import (
	"log/slog"

	"github.com/kerbaras/shelf/pkg/config"
	"github.com/kerbaras/shelf/pkg/content"
	"github.com/kerbaras/shelf/pkg/data"
)

// Library wires the store and content tree together and hands out
// per-operation orchestrators.
type Library struct {
	Repo    *data.Repository
	Content *content.Store
	log     *slog.Logger
}

func OpenLibrary(cfg *config.Config, log *slog.Logger) (*Library, error) {
	if log == nil {
		log = slog.Default()
	}

	db, err := data.InitDuckDB(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	cs, err := content.NewStore(cfg.ContentDir)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Library{
		Repo:    data.NewRepository(db),
		Content: cs,
		log:     log,
	}, nil
}

func (l *Library) Close() error {
	return l.Repo.Close()
}

// NewExporter returns a single-use export orchestrator.
func (l *Library) NewExporter() *Exporter {
	return NewExporter(l.Repo, l.Content, l.log)
}

// NewImporter returns a single-use import orchestrator.
func (l *Library) NewImporter(resolver ConflictResolver, opts ImportOptions) *Importer {
	return NewImporter(l.Repo, l.Content, resolver, opts, l.log)
}
