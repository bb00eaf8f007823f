package searcher

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/dshills/codechunk/internal/embedder"
	"github.com/dshills/codechunk/internal/logger"
	"github.com/dshills/codechunk/internal/storage"
	"github.com/dshills/codechunk/pkg/types"
)

const (
	DefaultLimit     = 10
	MaxLimit         = 100
	DefaultCacheSize = 1000
	DefaultCacheTTL  = time.Hour
)

// ErrEmptyQuery is returned for blank queries.
var ErrEmptyQuery = errors.New("query cannot be empty")

// Request describes a semantic search over indexed chunks.
type Request struct {
	Query  string
	Limit  int
	Filter *storage.Filter
}

// Response contains ranked results and metadata.
type Response struct {
	Results      []types.SearchResult
	TotalResults int
	Duration     time.Duration
	CacheHit     bool
}

// Searcher embeds queries and ranks stored chunks by cosine similarity.
type Searcher struct {
	store    storage.Store
	embedder embedder.Embedder
	cache    *expirable.LRU[[32]byte, *Response]
	log      logger.Logger
}

// Option configures a Searcher.
type Option func(*searcherConfig)

type searcherConfig struct {
	cacheSize int
	cacheTTL  time.Duration
	log       logger.Logger
}

// WithCache sets the query cache capacity and entry lifetime. A size of zero
// disables caching.
func WithCache(size int, ttl time.Duration) Option {
	return func(c *searcherConfig) {
		c.cacheSize = size
		c.cacheTTL = ttl
	}
}

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(c *searcherConfig) {
		if log != nil {
			c.log = log
		}
	}
}

// New creates a Searcher.
func New(store storage.Store, emb embedder.Embedder, opts ...Option) *Searcher {
	cfg := searcherConfig{
		cacheSize: DefaultCacheSize,
		cacheTTL:  DefaultCacheTTL,
		log:       logger.NewNop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Searcher{
		store:    store,
		embedder: emb,
		log:      cfg.log,
	}
	if cfg.cacheSize > 0 {
		s.cache = expirable.NewLRU[[32]byte, *Response](cfg.cacheSize, nil, cfg.cacheTTL)
	}
	return s
}

// Search validates req, embeds the query and returns results ranked 1..n.
func (s *Searcher) Search(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	if s.embedder == nil {
		return nil, fmt.Errorf("embedder not initialized")
	}
	if err := validateRequest(&req); err != nil {
		return nil, fmt.Errorf("invalid search request: %w", err)
	}

	key := computeQueryHash(req)
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			resp := copyResponse(cached)
			resp.CacheHit = true
			resp.Duration = time.Since(start)
			return resp, nil
		}
	}

	emb, err := s.embedder.GenerateEmbedding(ctx, embedder.EmbeddingRequest{Text: req.Query})
	if err != nil {
		return nil, fmt.Errorf("failed to generate query embedding: %w", err)
	}

	matches, err := s.store.Query(ctx, emb.Vector, req.Limit, req.Filter)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	results := rankMatches(matches)
	resp := &Response{
		Results:      results,
		TotalResults: len(results),
		Duration:     time.Since(start),
	}

	if s.cache != nil && len(results) > 0 {
		s.cache.Add(key, copyResponse(resp))
	}

	s.log.Debug("search", "query", req.Query, "results", len(results), "duration", resp.Duration)
	return resp, nil
}

// InvalidateCache drops all cached responses. Call it after the index changes.
func (s *Searcher) InvalidateCache() {
	if s.cache != nil {
		s.cache.Purge()
	}
}

// CacheLen returns the number of live cache entries.
func (s *Searcher) CacheLen() int {
	if s.cache == nil {
		return 0
	}
	return s.cache.Len()
}

// rankMatches keeps store order, assigns ranks from 1 and clamps similarity
// into [0, 1].
func rankMatches(matches []storage.Match) []types.SearchResult {
	results := make([]types.SearchResult, len(matches))
	for i, m := range matches {
		results[i] = types.SearchResult{
			ChunkID:        m.ID,
			Rank:           i + 1,
			RelevanceScore: clamp(m.Score),
			File:           m.File,
			Type:           types.ChunkType(m.Type),
			Name:           m.Name,
			Content:        m.Text,
		}
	}
	return results
}

func clamp(score float64) float64 {
	switch {
	case score < 0:
		return 0
	case score > 1:
		return 1
	default:
		return score
	}
}

// validateRequest fills defaults and rejects unusable requests.
func validateRequest(req *Request) error {
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		return ErrEmptyQuery
	}

	if req.Limit <= 0 {
		req.Limit = DefaultLimit
	}
	if req.Limit > MaxLimit {
		req.Limit = MaxLimit
	}

	if req.Filter != nil {
		for _, t := range req.Filter.Types {
			if err := types.ChunkType(t).Validate(); err != nil {
				return err
			}
		}
		if req.Filter.MinScore < 0 || req.Filter.MinScore > 1 {
			return fmt.Errorf("%w: min score must be between 0 and 1, got %v", storage.ErrInvalidFilter, req.Filter.MinScore)
		}
		if err := req.Filter.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// computeQueryHash keys the cache on everything that affects the result.
func computeQueryHash(req Request) [32]byte {
	var data strings.Builder
	data.WriteString(req.Query)
	fmt.Fprintf(&data, "|%d", req.Limit)

	if req.Filter != nil {
		typesCopy := append([]string(nil), req.Filter.Types...)
		sort.Strings(typesCopy)
		data.WriteString("|filter:")
		data.WriteString(strings.Join(typesCopy, ","))
		data.WriteString("|")
		data.WriteString(req.Filter.FilePattern)
		fmt.Fprintf(&data, "|%.4f", req.Filter.MinScore)
	}

	return sha256.Sum256([]byte(data.String()))
}

func copyResponse(src *Response) *Response {
	dst := *src
	dst.Results = append([]types.SearchResult(nil), src.Results...)
	return &dst
}
