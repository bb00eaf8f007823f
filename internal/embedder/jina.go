package embedder

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
)

const jinaBaseURL = "https://api.jina.ai"

// JinaProvider implements Embedder with the Jina AI embeddings API.
type JinaProvider struct {
	client    *resty.Client
	model     string
	dimension int
	cache     *Cache
	retry     RetryConfig
}

// NewJinaProvider creates a Jina embedder. An empty apiKey falls back to
// JINA_API_KEY; an empty baseURL uses the public endpoint.
func NewJinaProvider(apiKey, baseURL, model string, cache *Cache) (*JinaProvider, error) {
	if apiKey == "" {
		apiKey = os.Getenv(EnvJinaAPIKey)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: %s not set", ErrNoProviderEnabled, EnvJinaAPIKey)
	}
	if model == "" {
		model = DefaultJinaModel
	}
	if baseURL == "" {
		baseURL = jinaBaseURL
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30*time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetAuthToken(apiKey)

	return &JinaProvider{
		client:    client,
		model:     model,
		dimension: JinaDimension,
		cache:     cache,
		retry:     DefaultRetryConfig(),
	}, nil
}

type jinaRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type jinaResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Model string `json:"model"`
}

func (j *JinaProvider) GenerateEmbedding(ctx context.Context, req EmbeddingRequest) (*Embedding, error) {
	return embedOne(ctx, j, req)
}

func (j *JinaProvider) GenerateBatch(ctx context.Context, req BatchEmbeddingRequest) (*BatchEmbeddingResponse, error) {
	if err := ValidateBatchRequest(req); err != nil {
		return nil, err
	}
	if len(req.Texts) > MaxBatchSize {
		return nil, fmt.Errorf("%w: max %d texts allowed", ErrBatchTooLarge, MaxBatchSize)
	}

	model := req.Model
	if model == "" {
		model = j.model
	}

	embeddings, err := embedBatch(ctx, j.cache, req, model, func(ctx context.Context, texts []string, model string) ([]*Embedding, error) {
		return retryWithBackoff(ctx, j.retry, isRetryableStatus, func(ctx context.Context) ([]*Embedding, error) {
			return j.callAPI(ctx, texts, model)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProviderFailed, err)
	}

	return &BatchEmbeddingResponse{
		Embeddings: embeddings,
		Provider:   ProviderJina,
		Model:      model,
	}, nil
}

func (j *JinaProvider) callAPI(ctx context.Context, texts []string, model string) ([]*Embedding, error) {
	var result jinaResponse
	resp, err := j.client.R().
		SetContext(ctx).
		SetBody(jinaRequest{Input: texts, Model: model}).
		SetResult(&result).
		Post("/v1/embeddings")
	if err != nil {
		return nil, fmt.Errorf("api call: %w", err)
	}
	if resp.IsError() {
		return nil, &StatusError{StatusCode: resp.StatusCode(), Body: resp.String()}
	}

	embeddings := make([]*Embedding, len(texts))
	for _, data := range result.Data {
		if data.Index < 0 || data.Index >= len(texts) {
			return nil, fmt.Errorf("embedding index %d out of range", data.Index)
		}
		embeddings[data.Index] = &Embedding{
			Vector:    data.Embedding,
			Dimension: len(data.Embedding),
			Provider:  ProviderJina,
			Model:     result.Model,
		}
	}
	for i, emb := range embeddings {
		if emb == nil {
			return nil, fmt.Errorf("missing embedding for text %d", i)
		}
	}
	return embeddings, nil
}

func (j *JinaProvider) Dimension() int {
	return j.dimension
}

func (j *JinaProvider) Provider() string {
	return ProviderJina
}

func (j *JinaProvider) Model() string {
	return j.model
}

func (j *JinaProvider) Close() error {
	j.client.GetClient().CloseIdleConnections()
	return nil
}
