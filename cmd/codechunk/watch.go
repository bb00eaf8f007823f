package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/codechunk/internal/app"
	"github.com/dshills/codechunk/internal/indexer"
	"github.com/dshills/codechunk/internal/watcher"
)

func newWatchCmd(opts *rootOptions) *cobra.Command {
	var (
		debounce time.Duration
		skipInit bool
	)

	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Index a directory, then re-index Go files as they change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}

			a, err := opts.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			if !skipInit {
				stats, err := a.IndexRepository(cmd.Context(), root, nil)
				if err != nil {
					return err
				}
				printStatistics(cmd.OutOrStdout(), stats)
			}

			return watchRepository(cmd.Context(), a, root, debounce)
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", watcher.DefaultDebounce, "Quiet period before a changed file is re-indexed")
	cmd.Flags().BoolVar(&skipInit, "skip-initial", false, "Do not index the directory before watching")

	return cmd
}

// watchRepository blocks until ctx is canceled, keeping the index in step
// with the files under root.
func watchRepository(ctx context.Context, a *app.App, root string, debounce time.Duration) error {
	log := a.Log.With("component", "watcher")
	cfg := a.Config.Indexing

	w, err := watcher.New(watcher.Config{
		Debounce: debounce,
		Logger:   log,
		Match: func(path string) bool {
			rel, err := filepath.Rel(root, path)
			return err == nil && cfg.Accepts(filepath.ToSlash(rel))
		},
		OnChange: func(ctx context.Context, path string) error {
			stats, err := a.Indexer.IndexFile(ctx, root, path)
			if err != nil {
				return retryable(err)
			}
			if stats.FilesIndexed > 0 {
				a.Searcher.InvalidateCache()
				log.Info("re-indexed", "file", path, "chunks", stats.ChunksCreated)
			}
			return nil
		},
		OnRemove: func(ctx context.Context, path string) error {
			if err := a.Indexer.RemoveFile(ctx, root, path); err != nil {
				return err
			}
			a.Searcher.InvalidateCache()
			log.Info("removed", "file", path)
			return nil
		},
	})
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	if err := w.AddRecursive(root); err != nil {
		return fmt.Errorf("failed to watch %s: %w", root, err)
	}
	log.Info("watching", "root", root, "directories", len(w.Watched()))

	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// retryable marks a busy indexer so the watcher tries the file again.
func retryable(err error) error {
	if errors.Is(err, indexer.ErrIndexingInProgress) {
		return fmt.Errorf("%w: %w", watcher.ErrRetryLater, err)
	}
	return err
}
