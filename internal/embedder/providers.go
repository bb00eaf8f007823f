package embedder

import (
	"context"
	"crypto/sha256"
	"hash/fnv"
	"math"
	"regexp"
	"strings"
)

// Provider configuration
const (
	ProviderJina   = "jina"
	ProviderOpenAI = "openai"
	ProviderLocal  = "local"

	// Default models
	DefaultJinaModel   = "jina-embeddings-v3"
	DefaultOpenAIModel = "text-embedding-3-small"
	DefaultLocalModel  = "local-hashed-tokens"

	// Dimensions
	JinaDimension   = 1024
	OpenAIDimension = 1536
	LocalDimension  = 384

	// Batch limits
	DefaultBatchSize = 50
	MaxBatchSize     = 100

	// Retry configuration
	MaxRetries       = 3
	InitialBackoffMs = 100
	MaxBackoffMs     = 5000

	// Environment fallbacks for API keys
	EnvJinaAPIKey   = "JINA_API_KEY"
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
)

var tokenPattern = regexp.MustCompile(`[A-Za-z][a-z0-9]*|[0-9]+`)

// LocalProvider embeds text offline by hashing its tokens into a fixed number
// of buckets. Texts sharing identifiers land close together under cosine
// similarity, which is enough for tests and air-gapped use.
type LocalProvider struct {
	model     string
	dimension int
	cache     *Cache
}

// NewLocalProvider creates a local embedder. cache may be nil.
func NewLocalProvider(cache *Cache) (*LocalProvider, error) {
	return &LocalProvider{
		model:     DefaultLocalModel,
		dimension: LocalDimension,
		cache:     cache,
	}, nil
}

func (l *LocalProvider) GenerateEmbedding(ctx context.Context, req EmbeddingRequest) (*Embedding, error) {
	return embedOne(ctx, l, req)
}

func (l *LocalProvider) GenerateBatch(ctx context.Context, req BatchEmbeddingRequest) (*BatchEmbeddingResponse, error) {
	if err := ValidateBatchRequest(req); err != nil {
		return nil, err
	}

	embeddings, err := embedBatch(ctx, l.cache, req, l.model, func(ctx context.Context, texts []string, _ string) ([]*Embedding, error) {
		out := make([]*Embedding, len(texts))
		for i, text := range texts {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			out[i] = &Embedding{
				Vector:    l.vectorize(text),
				Dimension: l.dimension,
				Provider:  ProviderLocal,
				Model:     l.model,
			}
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	return &BatchEmbeddingResponse{
		Embeddings: embeddings,
		Provider:   ProviderLocal,
		Model:      l.model,
	}, nil
}

// vectorize splits camelCase and snake_case identifiers into lowercase
// tokens and accumulates a signed hash per token.
func (l *LocalProvider) vectorize(text string) []float32 {
	vector := make([]float32, l.dimension)
	tokens := tokenPattern.FindAllString(text, -1)

	for _, tok := range tokens {
		h := fnv.New64a()
		_, _ = h.Write([]byte(strings.ToLower(tok)))
		sum := h.Sum64()
		idx := int(sum % uint64(l.dimension))
		if sum&(1<<63) != 0 {
			vector[idx] -= 1
		} else {
			vector[idx] += 1
		}
	}

	if len(tokens) == 0 {
		digest := sha256.Sum256([]byte(text))
		for i, b := range digest {
			vector[i%l.dimension] += float32(b)/255.0 - 0.5
		}
	}

	return NormalizeVector(vector)
}

func (l *LocalProvider) Dimension() int {
	return l.dimension
}

func (l *LocalProvider) Provider() string {
	return ProviderLocal
}

func (l *LocalProvider) Model() string {
	return l.model
}

func (l *LocalProvider) Close() error {
	return nil
}

// NormalizeVector scales v to unit length. Zero vectors are returned unchanged.
func NormalizeVector(v []float32) []float32 {
	var sum float64
	for _, val := range v {
		sum += float64(val) * float64(val)
	}

	if sum == 0 {
		return v
	}

	norm := math.Sqrt(sum)
	result := make([]float32, len(v))
	for i, val := range v {
		result[i] = float32(float64(val) / norm)
	}

	return result
}
