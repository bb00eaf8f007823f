package types

// SearchResult represents a single search result with relevance information
type SearchResult struct {
	// Identification
	ChunkID string `json:"chunk_id"`
	Rank    int    `json:"rank"` // Position in result set (1-based)

	// Scoring
	RelevanceScore float64 `json:"relevance_score"` // Cosine similarity clamped to [0, 1]

	// Metadata
	File    string    `json:"file"`
	Type    ChunkType `json:"type"`
	Name    string    `json:"name,omitempty"`
	Content string    `json:"content"`
}

// Validate checks if the search result is valid
func (sr *SearchResult) Validate() error {
	if sr.ChunkID == "" {
		return ErrInvalidChunkID
	}

	if sr.Rank < 1 {
		return ErrInvalidRank
	}

	if sr.RelevanceScore < 0 || sr.RelevanceScore > 1 {
		return ErrInvalidRelevanceScore
	}

	if sr.File == "" {
		return ErrMissingFileInfo
	}

	if sr.Content == "" {
		return ErrEmptyContent
	}

	return nil
}
