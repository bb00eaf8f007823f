package chunker

import (
	"fmt"

	"github.com/dshills/codechunk/pkg/types"
)

// Chunker creates size-bounded chunks from file analyses
type Chunker struct {
	opts types.ChunkOptions
}

// New creates a Chunker with validated options
func New(opts types.ChunkOptions) (*Chunker, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("chunker: %w", err)
	}
	return &Chunker{opts: opts}, nil
}

// NewDefault creates a Chunker with the default options
func NewDefault() *Chunker {
	return &Chunker{opts: types.DefaultChunkOptions()}
}

// Options returns the sizing options in effect
func (c *Chunker) Options() types.ChunkOptions {
	return c.opts
}

// ChunkFile builds the chunks for one file and normalizes their sizes:
// oversized chunks are split first, then adjacent chunks are merged.
func (c *Chunker) ChunkFile(analysis types.FileAnalysis) []types.Chunk {
	chunks := BuildChunks(analysis)

	if c.opts.Split {
		chunks = SplitChunks(chunks, c.opts.MaxCharactersPerChunk)
	}

	if c.opts.Combine {
		chunks = MergeChunks(chunks, c.opts.MaxCharactersPerChunk)
	}

	return chunks
}

// IsUndersized reports whether a chunk falls below the advisory minimum
func (c *Chunker) IsUndersized(chunk types.Chunk) bool {
	return TextLength(chunk.Text) < c.opts.MinCharactersPerChunk
}

// IsOversized reports whether a chunk exceeds the ceiling
func (c *Chunker) IsOversized(chunk types.Chunk) bool {
	return TextLength(chunk.Text) > c.opts.MaxCharactersPerChunk
}
