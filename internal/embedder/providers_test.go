package embedder

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func fastRetry() RetryConfig {
	return RetryConfig{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func TestLocalProvider_Deterministic(t *testing.T) {
	p, err := NewLocalProvider(nil)
	require.NoError(t, err)

	ctx := context.Background()
	a, err := p.GenerateEmbedding(ctx, EmbeddingRequest{Text: "Function: ParseFile"})
	require.NoError(t, err)
	b, err := p.GenerateEmbedding(ctx, EmbeddingRequest{Text: "Function: ParseFile"})
	require.NoError(t, err)

	assert.Equal(t, a.Vector, b.Vector)
	assert.Equal(t, LocalDimension, a.Dimension)
	assert.Len(t, a.Vector, LocalDimension)
	assert.Equal(t, ProviderLocal, a.Provider)
	assert.InDelta(t, 1.0, cosine(a.Vector, a.Vector), 1e-6)
}

func TestLocalProvider_SharedTokensAreCloser(t *testing.T) {
	p, _ := NewLocalProvider(nil)
	resp, err := p.GenerateBatch(context.Background(), BatchEmbeddingRequest{Texts: []string{
		"Function: parseConfigFile\nCalls: os.ReadFile, yaml.Unmarshal",
		"Function: loadConfig\nCalls: os.ReadFile, yaml.Unmarshal",
		"Class: HTTPServer",
	}})
	require.NoError(t, err)
	require.Len(t, resp.Embeddings, 3)

	related := cosine(resp.Embeddings[0].Vector, resp.Embeddings[1].Vector)
	unrelated := cosine(resp.Embeddings[0].Vector, resp.Embeddings[2].Vector)
	assert.Greater(t, related, unrelated)
}

func TestLocalProvider_PunctuationOnly(t *testing.T) {
	p, _ := NewLocalProvider(nil)
	emb, err := p.GenerateEmbedding(context.Background(), EmbeddingRequest{Text: "{}();"})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, cosine(emb.Vector, emb.Vector), 1e-6)
}

func TestLocalProvider_Cancelled(t *testing.T) {
	p, _ := NewLocalProvider(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.GenerateBatch(ctx, BatchEmbeddingRequest{Texts: []string{"a"}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNormalizeVector(t *testing.T) {
	got := NormalizeVector([]float32{3, 4})
	assert.InDelta(t, 0.6, got[0], 1e-6)
	assert.InDelta(t, 0.8, got[1], 1e-6)

	zero := []float32{0, 0}
	assert.Equal(t, zero, NormalizeVector(zero))
}

type embeddingServer struct {
	calls    atomic.Int32
	failures int32
	status   int
}

func (s *embeddingServer) handler(t *testing.T, wantPath string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n := s.calls.Add(1)
		assert.Equal(t, wantPath, r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		if n <= s.failures {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(s.status)
			_, _ = w.Write([]byte(`{"error":{"message":"nope","type":"server_error"}}`))
			return
		}

		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		type item struct {
			Object    string    `json:"object"`
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		}
		data := make([]item, len(req.Input))
		// reversed to check that results are placed by index
		for i := range req.Input {
			j := len(req.Input) - 1 - i
			data[i] = item{Object: "embedding", Embedding: []float32{float32(j), 1}, Index: j}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   data,
			"model":  req.Model,
		})
	}
}

func TestOpenAIProvider(t *testing.T) {
	tests := []struct {
		name      string
		failures  int32
		status    int
		wantErr   bool
		wantCalls int32
	}{
		{"success", 0, 0, false, 1},
		{"retries server errors", 2, http.StatusInternalServerError, false, 3},
		{"retries rate limits", 1, http.StatusTooManyRequests, false, 2},
		{"does not retry auth errors", 1, http.StatusUnauthorized, true, 1},
		{"gives up after budget", 5, http.StatusBadGateway, true, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := &embeddingServer{failures: tt.failures, status: tt.status}
			ts := httptest.NewServer(srv.handler(t, "/v1/embeddings"))
			defer ts.Close()

			p, err := NewOpenAIProvider("test-key", ts.URL+"/v1", "", NewCache(10))
			require.NoError(t, err)
			p.retry = fastRetry()

			resp, err := p.GenerateBatch(context.Background(), BatchEmbeddingRequest{Texts: []string{"a", "b"}})
			assert.Equal(t, tt.wantCalls, srv.calls.Load())
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrProviderFailed)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, ProviderOpenAI, resp.Provider)
			assert.Equal(t, DefaultOpenAIModel, resp.Model)
			assert.Equal(t, []float32{0, 1}, resp.Embeddings[0].Vector)
			assert.Equal(t, []float32{1, 1}, resp.Embeddings[1].Vector)
		})
	}
}

func TestOpenAIProvider_UsesCache(t *testing.T) {
	srv := &embeddingServer{}
	ts := httptest.NewServer(srv.handler(t, "/v1/embeddings"))
	defer ts.Close()

	p, err := NewOpenAIProvider("test-key", ts.URL+"/v1", "custom-model", NewCache(10))
	require.NoError(t, err)

	ctx := context.Background()
	_, err = p.GenerateEmbedding(ctx, EmbeddingRequest{Text: "hello"})
	require.NoError(t, err)
	_, err = p.GenerateEmbedding(ctx, EmbeddingRequest{Text: "hello"})
	require.NoError(t, err)

	assert.Equal(t, int32(1), srv.calls.Load())
	assert.Equal(t, "custom-model", p.Model())
}

func TestJinaProvider(t *testing.T) {
	srv := &embeddingServer{failures: 1, status: http.StatusServiceUnavailable}
	ts := httptest.NewServer(srv.handler(t, "/v1/embeddings"))
	defer ts.Close()

	p, err := NewJinaProvider("test-key", ts.URL, "", nil)
	require.NoError(t, err)
	p.retry = fastRetry()
	defer func() { _ = p.Close() }()

	resp, err := p.GenerateBatch(context.Background(), BatchEmbeddingRequest{Texts: []string{"x", "y", "z"}})
	require.NoError(t, err)
	assert.Equal(t, int32(2), srv.calls.Load())
	require.Len(t, resp.Embeddings, 3)
	assert.Equal(t, []float32{2, 1}, resp.Embeddings[2].Vector)
	assert.Equal(t, DefaultJinaModel, resp.Embeddings[2].Model)
	assert.Equal(t, JinaDimension, p.Dimension())
}

func TestJinaProvider_ClientError(t *testing.T) {
	srv := &embeddingServer{failures: 1, status: http.StatusBadRequest}
	ts := httptest.NewServer(srv.handler(t, "/v1/embeddings"))
	defer ts.Close()

	p, err := NewJinaProvider("test-key", ts.URL, "", nil)
	require.NoError(t, err)
	p.retry = fastRetry()

	_, err = p.GenerateBatch(context.Background(), BatchEmbeddingRequest{Texts: []string{"x"}})
	require.Error(t, err)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
	assert.Equal(t, int32(1), srv.calls.Load())
}

func TestRemoteProviders_BatchTooLarge(t *testing.T) {
	texts := make([]string, MaxBatchSize+1)
	for i := range texts {
		texts[i] = "t"
	}
	o, _ := NewOpenAIProvider("k", "http://127.0.0.1:1", "", nil)
	_, err := o.GenerateBatch(context.Background(), BatchEmbeddingRequest{Texts: texts})
	assert.ErrorIs(t, err, ErrBatchTooLarge)

	j, _ := NewJinaProvider("k", "http://127.0.0.1:1", "", nil)
	_, err = j.GenerateBatch(context.Background(), BatchEmbeddingRequest{Texts: texts})
	assert.ErrorIs(t, err, ErrBatchTooLarge)
}
