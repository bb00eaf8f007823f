// Package app wires the storage, embedding, chunking, indexing and search
// components from a loaded configuration.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dshills/codechunk/internal/chunker"
	"github.com/dshills/codechunk/internal/config"
	"github.com/dshills/codechunk/internal/embedder"
	"github.com/dshills/codechunk/internal/indexer"
	"github.com/dshills/codechunk/internal/logger"
	"github.com/dshills/codechunk/internal/parser"
	"github.com/dshills/codechunk/internal/searcher"
	"github.com/dshills/codechunk/internal/storage"
)

// App holds the long-lived components shared by the CLI and the MCP server.
type App struct {
	Config   *config.Config
	Log      logger.Logger
	Store    storage.Store
	Embedder embedder.Embedder
	Parser   *parser.Parser
	Chunker  *chunker.Chunker
	Indexer  *indexer.Indexer
	Searcher *searcher.Searcher
}

// New opens the index database and constructs every component. The caller
// must Close the returned App.
func New(ctx context.Context, cfg *config.Config, log logger.Logger) (*App, error) {
	if log == nil {
		log = logger.NewNop()
	}

	c, err := chunker.New(cfg.Chunking)
	if err != nil {
		return nil, fmt.Errorf("failed to create chunker: %w", err)
	}

	if dir := filepath.Dir(cfg.Storage.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	store, err := storage.NewSQLiteStore(ctx, cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	emb, err := embedder.New(cfg.Embedding)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	idx := indexer.New(store, emb, c,
		indexer.WithLogger(log.With("component", "indexer")),
		indexer.WithWorkers(cfg.Indexing.Workers),
		indexer.WithBatchSize(cfg.Embedding.BatchSize),
	)
	srch := searcher.New(store, emb,
		searcher.WithCache(cfg.Search.CacheSize, cfg.Search.CacheTTL),
		searcher.WithLogger(log.With("component", "searcher")),
	)

	log.Debug("components ready",
		"storage", cfg.Storage.Path,
		"driver", storage.DriverName,
		"provider", emb.Provider(),
		"model", emb.Model(),
	)

	return &App{
		Config:   cfg,
		Log:      log,
		Store:    store,
		Embedder: emb,
		Parser:   parser.New(),
		Chunker:  c,
		Indexer:  idx,
		Searcher: srch,
	}, nil
}

// IndexRepository runs the indexer with the configured indexing options and
// drops cached search results afterwards.
func (a *App) IndexRepository(ctx context.Context, root string, cfg *indexer.Config) (*indexer.Statistics, error) {
	if cfg == nil {
		c := a.Config.Indexing
		cfg = &c
	}
	stats, err := a.Indexer.IndexRepository(ctx, root, cfg)
	if stats != nil && (stats.FilesIndexed > 0 || stats.FilesRemoved > 0) {
		a.Searcher.InvalidateCache()
	}
	return stats, err
}

// Close releases the embedder and the database.
func (a *App) Close() error {
	embErr := a.Embedder.Close()
	if err := a.Store.Close(); err != nil {
		return err
	}
	return embErr
}
