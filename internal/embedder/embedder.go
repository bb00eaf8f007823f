package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
)

// Common errors
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrProviderFailed    = errors.New("embedding provider failed")
	ErrUnsupportedModel  = errors.New("unsupported model")
	ErrEmptyText         = errors.New("text cannot be empty")
	ErrBatchTooLarge     = errors.New("batch size exceeds limit")
	ErrNoProviderEnabled = errors.New("no embedding provider configured")
)

// Embedding is the vector of one chunk text. Provider and Model name the
// vector space; vectors from different spaces are never compared.
type Embedding struct {
	Vector    []float32
	Dimension int
	Provider  string
	Model     string
	Hash      string // ComputeHash of the text
}

// EmbeddingRequest embeds a search query or a single chunk. An empty Model
// selects the provider's configured model.
type EmbeddingRequest struct {
	Text  string
	Model string
}

// BatchEmbeddingRequest embeds chunk texts in order, under one model.
type BatchEmbeddingRequest struct {
	Texts []string
	Model string
}

// BatchEmbeddingResponse holds one embedding per requested text.
type BatchEmbeddingResponse struct {
	Embeddings []*Embedding
	Provider   string
	Model      string
}

// Embedder turns chunk text into vectors.
type Embedder interface {
	// GenerateEmbedding generates a single embedding for the given text
	GenerateEmbedding(ctx context.Context, req EmbeddingRequest) (*Embedding, error)

	// GenerateBatch generates embeddings for multiple texts, preserving order
	GenerateBatch(ctx context.Context, req BatchEmbeddingRequest) (*BatchEmbeddingResponse, error)

	// Dimension returns the embedding dimension for this provider
	Dimension() int

	// Provider returns the provider name
	Provider() string

	// Model returns the model name
	Model() string

	// Close releases any resources held by the embedder
	Close() error
}

// ComputeHash computes the SHA-256 hex digest of text.
func ComputeHash(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}

// ValidateRequest validates an embedding request
func ValidateRequest(req EmbeddingRequest) error {
	if req.Text == "" {
		return ErrEmptyText
	}
	return nil
}

// ValidateBatchRequest validates a batch embedding request
func ValidateBatchRequest(req BatchEmbeddingRequest) error {
	if len(req.Texts) == 0 {
		return fmt.Errorf("%w: no texts provided", ErrInvalidInput)
	}
	for i, text := range req.Texts {
		if text == "" {
			return fmt.Errorf("%w: text at index %d is empty", ErrInvalidInput, i)
		}
	}
	return nil
}

// batchFunc embeds texts that missed the cache. Results must match texts in
// length and order.
type batchFunc func(ctx context.Context, texts []string, model string) ([]*Embedding, error)

// embedBatch serves cache hits for model directly and sends only misses to
// fetch. The cache may be nil.
func embedBatch(ctx context.Context, cache *Cache, req BatchEmbeddingRequest, model string, fetch batchFunc) ([]*Embedding, error) {
	out := make([]*Embedding, len(req.Texts))
	var missTexts []string
	var missIdx []int

	for i, text := range req.Texts {
		if emb, ok := cache.Get(model, text); ok {
			out[i] = emb
			continue
		}
		missTexts = append(missTexts, text)
		missIdx = append(missIdx, i)
	}

	if len(missTexts) == 0 {
		return out, nil
	}

	fetched, err := fetch(ctx, missTexts, model)
	if err != nil {
		return nil, err
	}
	if len(fetched) != len(missTexts) {
		return nil, fmt.Errorf("%w: expected %d embeddings, got %d", ErrProviderFailed, len(missTexts), len(fetched))
	}

	for j, emb := range fetched {
		emb.Hash = ComputeHash(missTexts[j])
		if emb.Dimension == 0 {
			emb.Dimension = len(emb.Vector)
		}
		cache.Set(model, emb)
		out[missIdx[j]] = emb
	}
	return out, nil
}

// embedOne routes a single request through the batch path of e.
func embedOne(ctx context.Context, e Embedder, req EmbeddingRequest) (*Embedding, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}
	resp, err := e.GenerateBatch(ctx, BatchEmbeddingRequest{Texts: []string{req.Text}, Model: req.Model})
	if err != nil {
		return nil, err
	}
	if len(resp.Embeddings) == 0 {
		return nil, fmt.Errorf("%w: no embeddings returned", ErrProviderFailed)
	}
	return resp.Embeddings[0], nil
}
