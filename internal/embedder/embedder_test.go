package embedder

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeHash(t *testing.T) {
	h1 := ComputeHash("func main() {}")
	h2 := ComputeHash("func main() {}")
	h3 := ComputeHash("func other() {}")

	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
	assert.Len(t, h1, 64)
}

func TestValidateBatchRequest(t *testing.T) {
	tests := []struct {
		name    string
		req     BatchEmbeddingRequest
		wantErr bool
	}{
		{"valid", BatchEmbeddingRequest{Texts: []string{"a", "b"}}, false},
		{"empty batch", BatchEmbeddingRequest{}, true},
		{"empty text", BatchEmbeddingRequest{Texts: []string{"a", ""}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBatchRequest(tt.req)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidInput)
			} else {
				assert.NoError(t, err)
			}
		})
	}
	assert.ErrorIs(t, ValidateRequest(EmbeddingRequest{}), ErrEmptyText)
}

func TestEmbedBatch_OnlyFetchesMisses(t *testing.T) {
	cache := NewCache(10)
	cache.Set("m", &Embedding{Vector: []float32{7}, Dimension: 1, Hash: ComputeHash("cached")})
	cache.Set("other", &Embedding{Vector: []float32{8}, Dimension: 1, Hash: ComputeHash("b")})

	var fetched []string
	fetch := func(_ context.Context, texts []string, _ string) ([]*Embedding, error) {
		fetched = append(fetched, texts...)
		out := make([]*Embedding, len(texts))
		for i := range texts {
			out[i] = &Embedding{Vector: []float32{float32(i)}}
		}
		return out, nil
	}

	got, err := embedBatch(context.Background(), cache, BatchEmbeddingRequest{Texts: []string{"a", "cached", "b"}}, "m", fetch)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, []string{"a", "b"}, fetched)
	assert.Equal(t, []float32{7}, got[1].Vector)
	assert.Equal(t, []float32{1}, got[2].Vector)
	assert.Equal(t, 1, got[0].Dimension)
	assert.Equal(t, ComputeHash("b"), got[2].Hash)
	assert.Equal(t, 4, cache.Len())
}

func TestEmbedBatch_ModelScopesCache(t *testing.T) {
	cache := NewCache(10)
	calls := 0
	fetch := func(_ context.Context, texts []string, model string) ([]*Embedding, error) {
		calls++
		out := make([]*Embedding, len(texts))
		for i := range texts {
			out[i] = &Embedding{Vector: []float32{float32(len(model))}, Model: model}
		}
		return out, nil
	}
	req := BatchEmbeddingRequest{Texts: []string{"func main() {}"}}

	small, err := embedBatch(context.Background(), cache, req, "small", fetch)
	require.NoError(t, err)
	large, err := embedBatch(context.Background(), cache, req, "large-model", fetch)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, "small", small[0].Model)
	assert.Equal(t, "large-model", large[0].Model)

	again, err := embedBatch(context.Background(), cache, req, "small", fetch)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, []float32{5}, again[0].Vector)
}

func TestEmbedBatch_CountMismatch(t *testing.T) {
	fetch := func(_ context.Context, _ []string, _ string) ([]*Embedding, error) {
		return nil, nil
	}
	_, err := embedBatch(context.Background(), nil, BatchEmbeddingRequest{Texts: []string{"a"}}, "m", fetch)
	assert.ErrorIs(t, err, ErrProviderFailed)
}

func TestEmbedBatch_FetchError(t *testing.T) {
	boom := errors.New("boom")
	fetch := func(_ context.Context, _ []string, _ string) ([]*Embedding, error) {
		return nil, boom
	}
	_, err := embedBatch(context.Background(), nil, BatchEmbeddingRequest{Texts: []string{"a"}}, "m", fetch)
	assert.ErrorIs(t, err, boom)
}
