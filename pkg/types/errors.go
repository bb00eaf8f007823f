package types

import "errors"

// Domain errors for type validation
var (
	// Chunk errors
	ErrInvalidChunkType = errors.New("invalid chunk type")
	ErrDuplicateChunkID = errors.New("duplicate chunk id")
	ErrInvalidOptions   = errors.New("invalid chunk options")

	// Search result errors
	ErrInvalidChunkID        = errors.New("invalid chunk ID")
	ErrInvalidRank           = errors.New("rank must be >= 1")
	ErrInvalidRelevanceScore = errors.New("relevance score must be between 0 and 1")
	ErrMissingFileInfo       = errors.New("file info is required")
	ErrEmptyContent          = errors.New("content cannot be empty")
)
