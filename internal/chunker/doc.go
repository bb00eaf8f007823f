// Package chunker turns per-file syntax summaries into size-bounded text
// chunks for embedding and search.
//
// # Building
//
// BuildChunks maps one FileAnalysis to chunks in a fixed category order:
//   - Functions: one chunk per function, id "<file>::<name>"
//   - Imports: one grouped chunk, id "<file>::imports"
//   - Exports: one grouped chunk, id "<file>::exports"
//   - Classes: one chunk per class, id "<file>::<class>"
//   - Variables: one grouped chunk, id "<file>::variables"
//
// When none of these produce anything, a single summary chunk with id
// "<file>::summary" carries the path and category counts.
//
// # Sizing
//
// Two passes bound chunk size, both measured in characters:
//
//	parts := chunker.SplitChunk(chunk, 300)    // ids "<id>#1", "<id>#2", ...
//	merged := chunker.MergeChunks(chunks, 1200) // ids "<a>+<b>"
//
// Split cuts along newlines; a single line longer than the bound is kept
// whole. Merge folds adjacent chunks of the same file while the joined text
// fits; the merged chunk keeps the first chunk's type and has no name.
//
// Chunker applies both according to ChunkOptions:
//
//	c, err := chunker.New(types.ChunkOptions{MaxCharactersPerChunk: 1200, Combine: true, Split: true})
//	chunks := c.ChunkFile(analysis)
//
// # Aggregation
//
// Aggregator chunks a whole repository concurrently and concatenates the
// results in file order:
//
//	agg := chunker.NewAggregator(c, chunker.WithLogger(log), chunker.WithWorkers(8))
//	result, err := agg.Aggregate(ctx, analyses)
//	// result.Chunks, result.Stats.ByType
//
// Chunk ids are unique per run; a collision returns types.ErrDuplicateChunkID.
package chunker
