// Package indexer coordinates the end-to-end indexing pipeline for Go codebases.
//
// # Basic Usage
//
//	idx := indexer.New(store, emb, chunker.NewDefault(), indexer.WithLogger(log))
//
//	stats, err := idx.IndexRepository(ctx, "/path/to/repo", &indexer.Config{
//	    IncludeTests: true,
//	    Exclude:      []string{"internal/gen/**"},
//	})
//
//	fmt.Printf("Indexed %d files in %v\n", stats.FilesIndexed, stats.Duration)
//
// # Indexing Pipeline
//
//  1. Discovery: walk the root for .go files, skipping hidden directories,
//     testdata, vendor (unless included), tests (unless included) and
//     doublestar exclude patterns
//  2. Incremental decision: files whose SHA-256 matches the stored hash are skipped
//  3. Parse: changed files are parsed concurrently into syntax summaries
//  4. Chunk: the repository aggregator turns summaries into one ordered
//     chunk sequence with unique ids
//  5. Embed and store: per file, chunk texts are embedded in batches, the
//     file's old rows are replaced and the new hash is recorded
//
// Files that are no longer discovered are removed from the store.
//
// # Error Handling
//
// A file that cannot be read, embedded or stored is counted in
// Statistics.FilesFailed with a message; the run continues. Its hash is not
// recorded, so the next run retries it.
//
// # Concurrency
//
// Only one run may be active per Indexer. IndexRepository and IndexFile return
// ErrIndexingInProgress instead of blocking when another run holds the lock.
package indexer
