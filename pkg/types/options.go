package types

import "fmt"

const (
	// DefaultMaxCharactersPerChunk is the default chunk size ceiling in characters
	DefaultMaxCharactersPerChunk = 1200

	// DefaultMinCharactersPerChunk is the default advisory lower bound in characters
	DefaultMinCharactersPerChunk = 300
)

// ChunkOptions governs chunk sizing
type ChunkOptions struct {
	// MaxCharactersPerChunk is the size ceiling used by both merge and split
	MaxCharactersPerChunk int `json:"maxCharactersPerChunk" mapstructure:"max_chars"`

	// MinCharactersPerChunk is advisory: reported, never enforced
	MinCharactersPerChunk int `json:"minCharactersPerChunk" mapstructure:"min_chars"`

	// Combine enables the merge pass
	Combine bool `json:"combine" mapstructure:"combine"`

	// Split enables the split pass for oversized chunks
	Split bool `json:"split" mapstructure:"split"`
}

// DefaultChunkOptions returns the default sizing configuration
func DefaultChunkOptions() ChunkOptions {
	return ChunkOptions{
		MaxCharactersPerChunk: DefaultMaxCharactersPerChunk,
		MinCharactersPerChunk: DefaultMinCharactersPerChunk,
		Combine:               true,
		Split:                 true,
	}
}

// Validate checks that the sizing bounds are usable
func (o ChunkOptions) Validate() error {
	if o.MaxCharactersPerChunk <= 0 {
		return fmt.Errorf("%w: max characters must be positive, got %d", ErrInvalidOptions, o.MaxCharactersPerChunk)
	}

	if o.MinCharactersPerChunk < 0 {
		return fmt.Errorf("%w: min characters cannot be negative, got %d", ErrInvalidOptions, o.MinCharactersPerChunk)
	}

	if o.MinCharactersPerChunk > o.MaxCharactersPerChunk {
		return fmt.Errorf("%w: min characters %d exceeds max %d", ErrInvalidOptions,
			o.MinCharactersPerChunk, o.MaxCharactersPerChunk)
	}

	return nil
}
