package indexer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/codechunk/internal/chunker"
	"github.com/dshills/codechunk/internal/embedder"
	"github.com/dshills/codechunk/internal/logger"
	"github.com/dshills/codechunk/internal/parser"
	"github.com/dshills/codechunk/internal/storage"
	"github.com/dshills/codechunk/pkg/types"
)

// Indexer coordinates the pipeline: discover -> parse -> chunk -> embed -> store.
type Indexer struct {
	parser    *parser.Parser
	chunker   *chunker.Chunker
	embedder  embedder.Embedder
	store     storage.Store
	log       logger.Logger
	lock      IndexLock
	workers   int
	batchSize int

	// fingerprint identifies the settings that shape stored chunks. It is
	// folded into every file hash so a settings change re-indexes the file.
	fingerprint string
}

// Option configures an Indexer.
type Option func(*Indexer)

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(idx *Indexer) {
		if log != nil {
			idx.log = log
		}
	}
}

// WithWorkers bounds concurrent file reads and parses.
func WithWorkers(n int) Option {
	return func(idx *Indexer) {
		if n > 0 {
			idx.workers = n
		}
	}
}

// WithBatchSize sets how many chunk texts go into one embedding request.
func WithBatchSize(n int) Option {
	return func(idx *Indexer) {
		if n > 0 {
			idx.batchSize = min(n, embedder.MaxBatchSize)
		}
	}
}

// Config selects which files a repository run covers.
type Config struct {
	Workers       int      `mapstructure:"workers" yaml:"workers"`
	IncludeTests  bool     `mapstructure:"include_tests" yaml:"include_tests"`
	IncludeVendor bool     `mapstructure:"include_vendor" yaml:"include_vendor"`
	Exclude       []string `mapstructure:"exclude" yaml:"exclude"` // doublestar globs, relative to root
}

// DefaultConfig indexes non-test sources outside vendor.
func DefaultConfig() Config {
	return Config{
		Workers:       runtime.NumCPU(),
		IncludeTests:  false,
		IncludeVendor: false,
	}
}

// Validate rejects malformed exclude patterns.
func (c *Config) Validate() error {
	for _, pattern := range c.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid exclude pattern %q", pattern)
		}
	}
	return nil
}

// Accepts reports whether a file, given as a slash-separated path relative
// to the repository root, should be indexed. Directory rules (hidden,
// testdata, vendor) are checked per path segment.
func (c *Config) Accepts(rel string) bool {
	if !strings.HasSuffix(rel, ".go") {
		return false
	}
	if !c.IncludeTests && strings.HasSuffix(rel, "_test.go") {
		return false
	}
	segments := strings.Split(rel, "/")
	for _, dir := range segments[:len(segments)-1] {
		if strings.HasPrefix(dir, ".") || dir == "testdata" {
			return false
		}
		if !c.IncludeVendor && dir == "vendor" {
			return false
		}
	}
	return !excluded(rel, c.Exclude)
}

// Statistics describes one indexing run.
type Statistics struct {
	RunID         string
	Module        string
	FilesIndexed  int
	FilesSkipped  int
	FilesFailed   int
	FilesRemoved  int
	ChunksCreated int
	ChunksByType  map[string]int
	Undersized    int
	Duration      time.Duration
	ErrorMessages []string
}

func newStatistics() *Statistics {
	return &Statistics{
		ChunksByType:  make(map[string]int),
		ErrorMessages: make([]string, 0),
	}
}

func (s *Statistics) fail(file string, err error) {
	s.FilesFailed++
	s.ErrorMessages = append(s.ErrorMessages, fmt.Sprintf("%s: %v", file, err))
}

// New creates an Indexer writing to store with vectors from emb.
func New(store storage.Store, emb embedder.Embedder, c *chunker.Chunker, opts ...Option) *Indexer {
	if c == nil {
		c = chunker.NewDefault()
	}
	idx := &Indexer{
		parser:    parser.New(),
		chunker:   c,
		embedder:  emb,
		store:     store,
		log:       logger.NewNop(),
		workers:   runtime.NumCPU(),
		batchSize: embedder.DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(idx)
	}
	idx.fingerprint = settingsFingerprint(c.Options(), emb)
	return idx
}

// settingsFingerprint describes the chunk sizing and embedding model. The
// advisory minimum is left out because it never changes chunk boundaries.
func settingsFingerprint(opts types.ChunkOptions, emb embedder.Embedder) string {
	fp := fmt.Sprintf("max=%d combine=%t split=%t", opts.MaxCharactersPerChunk, opts.Combine, opts.Split)
	if emb != nil {
		fp += fmt.Sprintf(" provider=%s model=%s dim=%d", emb.Provider(), emb.Model(), emb.Dimension())
	}
	return fp
}

// IsIndexing reports whether a run currently holds the lock.
func (idx *Indexer) IsIndexing() bool {
	return idx.lock.Held()
}

// sourceFile is a discovered file read into memory.
type sourceFile struct {
	rel     string // slash-separated, relative to root
	content []byte
	hash    string
	result  *types.ParseResult
	err     error
}

// IndexRepository indexes every matching Go file under root. Files whose
// content hash is unchanged since the last run are skipped, and files that
// disappeared are removed from the store. Per-file failures are collected in
// the statistics; only discovery, aggregation and store errors abort the run.
func (idx *Indexer) IndexRepository(ctx context.Context, root string, cfg *Config) (*Statistics, error) {
	if !idx.lock.TryAcquire() {
		return nil, ErrIndexingInProgress
	}
	defer idx.lock.Release()

	if cfg == nil {
		def := DefaultConfig()
		cfg = &def
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	workers := idx.workers
	if cfg.Workers > 0 {
		workers = cfg.Workers
	}

	start := time.Now()
	stats := newStatistics()
	if mod, err := parseGoMod(filepath.Join(root, "go.mod")); err == nil {
		stats.Module = mod.Module
	}

	paths, err := DiscoverFiles(root, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to discover files: %w", err)
	}
	idx.log.Info("indexing repository", "root", root, "files", len(paths), "workers", workers)

	sources, err := idx.loadFiles(ctx, root, paths, workers)
	if err != nil {
		return nil, err
	}

	var analyses []types.FileAnalysis
	pending := make(map[string]*sourceFile)
	for _, src := range sources {
		switch {
		case src.err != nil:
			stats.fail(src.rel, src.err)
		case src.result == nil:
			stats.FilesSkipped++
		default:
			if src.result.HasErrors() {
				idx.log.Warn("syntax errors, indexing recovered declarations", "file", src.rel, "errors", len(src.result.Errors))
			}
			analyses = append(analyses, src.result.Analysis(src.rel))
			pending[src.rel] = src
		}
	}

	if err := idx.storeAnalyses(ctx, analyses, pending, workers, stats); err != nil {
		return nil, err
	}

	removed, err := idx.removeStale(ctx, paths)
	if err != nil {
		return nil, err
	}
	stats.FilesRemoved = removed

	stats.Duration = time.Since(start)
	idx.log.Info("indexing complete",
		"indexed", stats.FilesIndexed,
		"skipped", stats.FilesSkipped,
		"failed", stats.FilesFailed,
		"removed", stats.FilesRemoved,
		"chunks", stats.ChunksCreated,
		"duration", stats.Duration)
	return stats, nil
}

// IndexFile re-indexes a single file. path may be absolute or relative to root.
func (idx *Indexer) IndexFile(ctx context.Context, root, path string) (*Statistics, error) {
	if !idx.lock.TryAcquire() {
		return nil, ErrIndexingInProgress
	}
	defer idx.lock.Release()

	rel, err := relativePath(root, path)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	stats := newStatistics()
	src := idx.loadFile(ctx, root, rel)
	switch {
	case src.err != nil:
		return nil, src.err
	case src.result == nil:
		stats.FilesSkipped++
	default:
		pending := map[string]*sourceFile{rel: src}
		if err := idx.storeAnalyses(ctx, []types.FileAnalysis{src.result.Analysis(rel)}, pending, 1, stats); err != nil {
			return nil, err
		}
	}
	stats.Duration = time.Since(start)
	return stats, nil
}

// RemoveFile deletes the stored chunks of a file that no longer exists.
func (idx *Indexer) RemoveFile(ctx context.Context, root, path string) error {
	rel, err := relativePath(root, path)
	if err != nil {
		return err
	}
	if err := idx.store.DeleteFile(ctx, rel); err != nil {
		return fmt.Errorf("remove %s: %w", rel, err)
	}
	idx.log.Debug("removed file from index", "file", rel)
	return nil
}

// loadFiles reads, hashes and parses files concurrently. The result keeps
// the sorted order of paths.
func (idx *Indexer) loadFiles(ctx context.Context, root string, paths []string, workers int) ([]*sourceFile, error) {
	sources := make([]*sourceFile, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, rel := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			sources[i] = idx.loadFile(gctx, root, rel)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return sources, nil
}

// loadFile returns a sourceFile with a nil result when the stored hash
// already matches the file content and the current settings.
func (idx *Indexer) loadFile(ctx context.Context, root, rel string) *sourceFile {
	src := &sourceFile{rel: rel}

	content, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		src.err = err
		return src
	}
	src.content = content
	src.hash = computeHash(content, idx.fingerprint)

	prev, err := idx.store.GetFileHash(ctx, rel)
	switch {
	case err == nil && prev == src.hash:
		return src
	case err != nil && !errors.Is(err, storage.ErrNotFound):
		src.err = err
		return src
	}

	result, err := idx.parser.ParseSource(rel, content)
	if err != nil {
		src.err = err
		return src
	}
	src.result = result
	return src
}

// storeAnalyses runs the repository aggregation, then embeds and stores each
// file's chunks.
func (idx *Indexer) storeAnalyses(ctx context.Context, analyses []types.FileAnalysis, pending map[string]*sourceFile, workers int, stats *Statistics) error {
	if len(analyses) == 0 {
		return nil
	}

	agg := chunker.NewAggregator(idx.chunker,
		chunker.WithLogger(idx.log),
		chunker.WithWorkers(workers),
	)
	result, err := agg.Aggregate(ctx, analyses)
	if err != nil {
		return fmt.Errorf("failed to aggregate chunks: %w", err)
	}
	stats.RunID = result.Stats.RunID
	stats.Undersized += result.Stats.Undersized

	for _, fc := range result.Files {
		if err := ctx.Err(); err != nil {
			return err
		}
		src := pending[fc.File]
		if err := idx.storeFile(ctx, fc, src.hash); err != nil {
			idx.log.Error("failed to index file", "file", fc.File, "error", err)
			stats.fail(fc.File, err)
			continue
		}
		stats.FilesIndexed++
		stats.ChunksCreated += len(fc.Chunks)
		for _, c := range fc.Chunks {
			stats.ChunksByType[string(c.Type)]++
		}
	}
	return nil
}

// storeFile replaces a file's stored chunks. The hash is written last, so a
// failed file is retried on the next run.
func (idx *Indexer) storeFile(ctx context.Context, fc chunker.FileChunks, hash string) error {
	records := make([]storage.Record, 0, len(fc.Chunks))
	for start := 0; start < len(fc.Chunks); start += idx.batchSize {
		end := min(start+idx.batchSize, len(fc.Chunks))
		batch := fc.Chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}
		resp, err := idx.embedder.GenerateBatch(ctx, embedder.BatchEmbeddingRequest{Texts: texts})
		if err != nil {
			return fmt.Errorf("embed chunks: %w", err)
		}

		for i, c := range batch {
			emb := resp.Embeddings[i]
			records = append(records, storage.Record{
				ID:       c.ID,
				File:     c.File,
				Type:     string(c.Type),
				Name:     c.Name,
				Text:     c.Text,
				Vector:   emb.Vector,
				Provider: emb.Provider,
				Model:    emb.Model,
			})
		}
	}

	if err := idx.store.DeleteFile(ctx, fc.File); err != nil {
		return fmt.Errorf("delete old chunks: %w", err)
	}
	if err := idx.store.Upsert(ctx, records); err != nil {
		return fmt.Errorf("store chunks: %w", err)
	}
	return idx.store.SetFileHash(ctx, fc.File, hash)
}

// removeStale deletes stored files that discovery no longer finds.
func (idx *Indexer) removeStale(ctx context.Context, discovered []string) (int, error) {
	stored, err := idx.store.ListFiles(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list indexed files: %w", err)
	}

	seen := make(map[string]struct{}, len(discovered))
	for _, p := range discovered {
		seen[p] = struct{}{}
	}

	removed := 0
	for _, file := range stored {
		if _, ok := seen[file]; ok {
			continue
		}
		if err := idx.store.DeleteFile(ctx, file); err != nil {
			return removed, fmt.Errorf("failed to remove %s: %w", file, err)
		}
		removed++
	}
	return removed, nil
}

// DiscoverFiles returns the Go files under root that cfg accepts, as sorted
// slash-separated paths relative to root.
func DiscoverFiles(root string, cfg *Config) ([]string, error) {
	var files []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel == "." {
				return nil
			}
			name := d.Name()
			if strings.HasPrefix(name, ".") || name == "testdata" {
				return filepath.SkipDir
			}
			if !cfg.IncludeVendor && name == "vendor" {
				return filepath.SkipDir
			}
			if excluded(rel, cfg.Exclude) {
				return filepath.SkipDir
			}
			return nil
		}

		if cfg.Accepts(rel) {
			files = append(files, rel)
		}
		return nil
	})

	sort.Strings(files)
	return files, err
}

func excluded(rel string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}

// relativePath normalizes path to the slash-separated form used as chunk file.
func relativePath(root, path string) (string, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", err
	}
	rel = filepath.ToSlash(rel)
	if strings.HasPrefix(rel, "../") || rel == ".." {
		return "", fmt.Errorf("%s is outside %s", path, root)
	}
	return rel, nil
}

// computeHash returns the hex SHA-256 of content followed by fingerprint.
func computeHash(content []byte, fingerprint string) string {
	h := sha256.New()
	_, _ = h.Write(content)
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(fingerprint))
	return hex.EncodeToString(h.Sum(nil))
}

// goModInfo contains parsed go.mod information
type goModInfo struct {
	Module    string
	GoVersion string
}

// parseGoMod extracts basic info from go.mod file
func parseGoMod(goModPath string) (*goModInfo, error) {
	content, err := os.ReadFile(goModPath)
	if err != nil {
		return nil, err
	}

	info := &goModInfo{}
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "module ") {
			info.Module = strings.TrimSpace(strings.TrimPrefix(line, "module"))
		} else if strings.HasPrefix(line, "go ") {
			info.GoVersion = strings.TrimSpace(strings.TrimPrefix(line, "go"))
		}
	}

	return info, nil
}
