package embedder

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultCacheSize = 10000

// cacheKey scopes a text hash to the model that embedded it, so a request
// that overrides the model never receives another model's vector.
type cacheKey struct {
	model string
	hash  string
}

// Cache is an in-memory LRU of embeddings shared by the providers. A nil
// *Cache is valid and never hits.
type Cache struct {
	lru *lru.Cache[cacheKey, *Embedding]
}

// NewCache creates a cache holding at most maxLen embeddings. A non-positive
// maxLen selects the default size.
func NewCache(maxLen int) *Cache {
	if maxLen <= 0 {
		maxLen = defaultCacheSize
	}
	l, err := lru.New[cacheKey, *Embedding](maxLen)
	if err != nil {
		l, _ = lru.New[cacheKey, *Embedding](defaultCacheSize)
	}
	return &Cache{lru: l}
}

// Get returns a private copy of the embedding of text under model.
func (c *Cache) Get(model, text string) (*Embedding, bool) {
	if c == nil {
		return nil, false
	}
	emb, ok := c.lru.Get(cacheKey{model: model, hash: ComputeHash(text)})
	if !ok {
		return nil, false
	}
	return cloneEmbedding(emb), true
}

// Set stores a copy of emb under model. emb.Hash must already be set.
func (c *Cache) Set(model string, emb *Embedding) {
	if c == nil {
		return
	}
	c.lru.Add(cacheKey{model: model, hash: emb.Hash}, cloneEmbedding(emb))
}

// Len reports how many embeddings are cached.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	return c.lru.Len()
}

func cloneEmbedding(emb *Embedding) *Embedding {
	out := *emb
	out.Vector = append([]float32(nil), emb.Vector...)
	return &out
}
