// Package embedder turns chunk text into vectors for semantic search.
//
// Three providers are available:
//
//   - local: offline token hashing into 384 buckets, deterministic and free
//   - openai: the OpenAI embeddings API via github.com/sashabaranov/go-openai
//   - jina: the Jina AI embeddings API via github.com/go-resty/resty/v2
//
// # Basic Usage
//
//	emb, err := embedder.New(embedder.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer emb.Close()
//
//	resp, err := emb.GenerateBatch(ctx, embedder.BatchEmbeddingRequest{
//	    Texts: []string{chunkA.Text, chunkB.Text},
//	})
//
// Embeddings come back in request order.
//
// # Caching
//
// Providers share an LRU Cache keyed by the SHA-256 of the text. Only cache
// misses are sent to a remote API, and cached vectors are copied on read.
//
// # Retries
//
// Remote calls retry with capped exponential backoff (github.com/sethvargo/go-retry)
// on transport errors, HTTP 429 and 5xx. Other 4xx answers and context
// cancellation fail immediately.
package embedder
