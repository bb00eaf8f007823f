package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/codechunk/internal/embedder"
	"github.com/dshills/codechunk/internal/logger"
	"github.com/dshills/codechunk/pkg/types"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, types.DefaultChunkOptions(), cfg.Chunking)
	assert.Equal(t, embedder.ProviderLocal, cfg.Embedding.Provider)
	assert.Equal(t, DefaultStoragePath, cfg.Storage.Path)
	assert.Equal(t, time.Hour, cfg.Search.CacheTTL)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codechunk.yaml")
	yaml := `
chunking:
  max_chars: 800
  combine: false
embedding:
  provider: openai
  model: text-embedding-3-large
indexing:
  include_tests: true
  exclude:
    - "gen/**"
search:
  cache_ttl: 5m
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	t.Setenv("CODECHUNK_CHUNKING_MIN_CHARS", "100")
	t.Setenv("CODECHUNK_STORAGE_PATH", "/tmp/index.db")
	t.Setenv("CODECHUNK_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 800, cfg.Chunking.MaxCharactersPerChunk)
	assert.Equal(t, 100, cfg.Chunking.MinCharactersPerChunk)
	assert.False(t, cfg.Chunking.Combine)
	assert.True(t, cfg.Chunking.Split)
	assert.Equal(t, embedder.ProviderOpenAI, cfg.Embedding.Provider)
	assert.Equal(t, "text-embedding-3-large", cfg.Embedding.Model)
	assert.True(t, cfg.Indexing.IncludeTests)
	assert.Equal(t, []string{"gen/**"}, cfg.Indexing.Exclude)
	assert.Equal(t, 5*time.Minute, cfg.Search.CacheTTL)
	assert.Equal(t, "/tmp/index.db", cfg.Storage.Path)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "zero max", mutate: func(c *Config) { c.Chunking.MaxCharactersPerChunk = 0 }, wantErr: true},
		{name: "min above max", mutate: func(c *Config) { c.Chunking.MinCharactersPerChunk = 5000 }, wantErr: true},
		{name: "unknown provider", mutate: func(c *Config) { c.Embedding.Provider = "cohere" }, wantErr: true},
		{name: "batch too large", mutate: func(c *Config) { c.Embedding.BatchSize = embedder.MaxBatchSize + 1 }, wantErr: true},
		{name: "bad exclude", mutate: func(c *Config) { c.Indexing.Exclude = []string{"[unclosed"} }, wantErr: true},
		{name: "empty storage", mutate: func(c *Config) { c.Storage.Path = "" }, wantErr: true},
		{name: "negative ttl", mutate: func(c *Config) { c.Search.CacheTTL = -time.Second }, wantErr: true},
		{name: "bad log level", mutate: func(c *Config) { c.Log.Level = "trace" }, wantErr: true},
		{name: "upper case level", mutate: func(c *Config) { c.Log.Level = "DEBUG" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestLoggerConfig(t *testing.T) {
	cfg := Default()
	cfg.Log = LogConfig{Level: "ERROR", JSON: true}

	lc := cfg.LoggerConfig()
	assert.Equal(t, logger.ErrorLevel, lc.Level)
	assert.True(t, lc.JSON)
}
