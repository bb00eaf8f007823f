package types

import (
	"errors"
	"fmt"
)

// ChunkType represents the syntactic category a chunk was built from
type ChunkType string

const (
	ChunkFunction ChunkType = "function"
	ChunkImport   ChunkType = "import"
	ChunkExport   ChunkType = "export"
	ChunkClass    ChunkType = "class"
	ChunkVariable ChunkType = "variable"
	ChunkSummary  ChunkType = "summary"
)

// AllChunkTypes lists every chunk type in builder order
var AllChunkTypes = []ChunkType{
	ChunkFunction,
	ChunkImport,
	ChunkExport,
	ChunkClass,
	ChunkVariable,
	ChunkSummary,
}

// Chunk is a bounded-size, labeled unit of text ready for embedding.
// Name is empty for chunks that do not describe a single named element.
type Chunk struct {
	ID   string    `json:"id" yaml:"id"`
	Text string    `json:"text" yaml:"text"`
	Type ChunkType `json:"type" yaml:"type"`
	File string    `json:"file" yaml:"file"`
	Name string    `json:"name,omitempty" yaml:"name,omitempty"`
}

// ValidateChunkType checks if the chunk type is valid
func (c *Chunk) ValidateChunkType() error {
	return c.Type.Validate()
}

// Validate checks the structural invariants of a chunk
func (c *Chunk) Validate() error {
	if c.ID == "" {
		return errors.New("chunk id cannot be empty")
	}

	if c.Text == "" {
		return ErrEmptyContent
	}

	if c.File == "" {
		return errors.New("chunk file is required")
	}

	return c.ValidateChunkType()
}

// Validate checks if the chunk type is one of the known categories
func (t ChunkType) Validate() error {
	switch t {
	case ChunkFunction, ChunkImport, ChunkExport, ChunkClass, ChunkVariable, ChunkSummary:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidChunkType, string(t))
	}
}
