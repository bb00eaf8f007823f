package chunker

import (
	"context"
	"fmt"
	"runtime"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/codechunk/internal/logger"
	"github.com/dshills/codechunk/pkg/types"
)

// Observer is notified once per file, in input order, after chunking
type Observer func(file string, chunks []types.Chunk)

// FileChunks holds the chunks produced for one file
type FileChunks struct {
	File   string
	Chunks []types.Chunk
}

// AggregateStats summarizes one aggregation run
type AggregateStats struct {
	RunID      string
	Files      int
	Chunks     int
	ByType     map[types.ChunkType]int
	Undersized int // below the advisory minimum
	Oversized  int // above the ceiling (single over-long lines)
}

// AggregateResult is the repository-level chunk sequence
type AggregateResult struct {
	Chunks []types.Chunk
	Files  []FileChunks
	Stats  AggregateStats
}

// Aggregator applies a Chunker to every file of a repository and
// concatenates the results in input order
type Aggregator struct {
	chunker  *Chunker
	log      logger.Logger
	workers  int
	observer Observer
}

// AggregatorOption configures an Aggregator
type AggregatorOption func(*Aggregator)

// WithLogger sets the logger used for progress reporting
func WithLogger(log logger.Logger) AggregatorOption {
	return func(a *Aggregator) {
		if log != nil {
			a.log = log
		}
	}
}

// WithWorkers bounds the number of files chunked concurrently
func WithWorkers(n int) AggregatorOption {
	return func(a *Aggregator) {
		if n > 0 {
			a.workers = n
		}
	}
}

// WithObserver registers a per-file callback
func WithObserver(fn Observer) AggregatorOption {
	return func(a *Aggregator) {
		a.observer = fn
	}
}

// NewAggregator creates an Aggregator around the given Chunker
func NewAggregator(c *Chunker, opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{
		chunker: c,
		log:     logger.NewNop(),
		workers: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Aggregate chunks every analysis and returns one ordered sequence.
// Files are chunked concurrently; output order is file order, then
// category order within a file. A repeated chunk id is an error.
func (a *Aggregator) Aggregate(ctx context.Context, analyses []types.FileAnalysis) (*AggregateResult, error) {
	perFile := make([][]types.Chunk, len(analyses))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i := range analyses {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			perFile[i] = a.chunker.ChunkFile(analyses[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("aggregate chunks: %w", err)
	}

	result := &AggregateResult{
		Chunks: []types.Chunk{},
		Files:  make([]FileChunks, 0, len(analyses)),
		Stats: AggregateStats{
			RunID:  uuid.NewString(),
			Files:  len(analyses),
			ByType: make(map[types.ChunkType]int, len(types.AllChunkTypes)),
		},
	}
	log := a.log.With("run", result.Stats.RunID)

	owners := make(map[string]string)
	for i, analysis := range analyses {
		chunks := perFile[i]
		s := &analysis.Summary
		log.Debug("chunked file",
			"file", analysis.File,
			"functions", len(s.Functions),
			"imports", len(s.Imports),
			"exports", len(s.Exports),
			"classes", len(s.Classes),
			"variables", len(s.Variables),
			"chunks", len(chunks),
		)

		for _, c := range chunks {
			if prev, dup := owners[c.ID]; dup {
				return nil, fmt.Errorf("%w: %s (files %s and %s)", types.ErrDuplicateChunkID, c.ID, prev, c.File)
			}
			owners[c.ID] = c.File

			result.Stats.ByType[c.Type]++
			if a.chunker.IsUndersized(c) {
				result.Stats.Undersized++
			}
			if a.chunker.IsOversized(c) {
				result.Stats.Oversized++
			}
		}

		result.Chunks = append(result.Chunks, chunks...)
		result.Files = append(result.Files, FileChunks{File: analysis.File, Chunks: chunks})

		if a.observer != nil {
			a.observer(analysis.File, chunks)
		}
	}
	result.Stats.Chunks = len(result.Chunks)

	log.Info("aggregated chunks", histogramKeyvals(&result.Stats)...)

	return result, nil
}

func histogramKeyvals(stats *AggregateStats) []any {
	kv := []any{"files", stats.Files, "chunks", stats.Chunks}
	for _, t := range types.AllChunkTypes {
		if n := stats.ByType[t]; n > 0 {
			kv = append(kv, string(t), n)
		}
	}
	return append(kv, "undersized", stats.Undersized, "oversized", stats.Oversized)
}
