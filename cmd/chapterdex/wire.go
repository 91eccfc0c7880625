package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/custodia-labs/chapterdex/internal/adapters/driven/ai"
	"github.com/custodia-labs/chapterdex/internal/adapters/driven/config/file"
	"github.com/custodia-labs/chapterdex/internal/adapters/driven/storage/jsonfile"
	"github.com/custodia-labs/chapterdex/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/chapterdex/internal/adapters/driving/cli"
	"github.com/custodia-labs/chapterdex/internal/core/domain"
	"github.com/custodia-labs/chapterdex/internal/core/ports/driven"
	"github.com/custodia-labs/chapterdex/internal/core/services"
	"github.com/custodia-labs/chapterdex/internal/logger"
)

// wire builds the services once global flags are parsed.
// Precedence for the data directory: --data-dir, then settings, then
// <config-dir>/data.
func wire(opts cli.Options) (*cli.Services, error) {
	ctx := context.Background()

	configStore, err := file.NewConfigStore(opts.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("config store: %w", err)
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())

	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	dataDir, err := resolveDataDir(opts, settings.DataDir)
	if err != nil {
		return nil, err
	}
	snapshots, closeSnapshots, err := openSnapshots(settings.Storage, dataDir)
	if err != nil {
		return nil, fmt.Errorf("snapshot store: %w", err)
	}
	logger.Debug("Data directory: %s (%s)", dataDir, settings.Storage)

	chapters := services.NewDocumentStore(snapshots)
	if err := chapters.Load(ctx); err != nil {
		closeSnapshots()
		return nil, fmt.Errorf("load document store: %w", err)
	}

	embedder, err := ai.CreateEmbeddingService(&settings.Embedding)
	if err != nil {
		// Keyword and substring search still work without embeddings.
		logger.Warn("Embedding backend unavailable, semantic search disabled: %v", err)
	}

	var vectors *services.VectorIndex
	if embedder != nil {
		vectors = services.NewVectorIndex(embedder, snapshots, settings.Index.Workers)
		if err := vectors.Load(ctx); err != nil {
			closeSnapshots()
			return nil, fmt.Errorf("load vector index: %w", err)
		}
	}

	search := services.NewSearchService(chapters, vectors)
	search.SetDefaults(settings.Search.DefaultLimit, settings.Search.DefaultType)

	return &cli.Services{
		Chapters: chapters,
		Search:   search,
		Index:    services.NewIndexService(chapters, vectors, embedder),
		Import:   services.NewImportService(chapters),
		Settings: settingsService,
		Close: func() {
			closeSnapshots()
			if embedder != nil {
				if err := embedder.Close(); err != nil {
					logger.Debug("Closing embedder: %v", err)
				}
			}
		},
	}, nil
}

// openSnapshots opens the configured snapshot backend. The returned func
// releases it.
func openSnapshots(backend domain.StorageBackend, dataDir string) (driven.SnapshotStore, func(), error) {
	if backend == domain.StorageBackendSQLite {
		store, err := sqlite.NewStore(dataDir)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {
			if err := store.Close(); err != nil {
				logger.Warn("Closing database: %v", err)
			}
		}, nil
	}

	store, err := jsonfile.New(dataDir)
	if err != nil {
		return nil, nil, err
	}
	return store, func() {}, nil
}

func resolveDataDir(opts cli.Options, configured string) (string, error) {
	if opts.DataDir != "" {
		return opts.DataDir, nil
	}
	if configured != "" {
		return configured, nil
	}
	base := opts.ConfigDir
	if base == "" {
		dir, err := file.DefaultDir()
		if err != nil {
			return "", fmt.Errorf("resolve data directory: %w", err)
		}
		base = dir
	}
	return filepath.Join(base, "data"), nil
}
