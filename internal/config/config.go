// Package config loads codechunk settings from defaults, an optional YAML
// file and CODECHUNK_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/dshills/codechunk/internal/embedder"
	"github.com/dshills/codechunk/internal/indexer"
	"github.com/dshills/codechunk/internal/logger"
	"github.com/dshills/codechunk/internal/searcher"
	"github.com/dshills/codechunk/pkg/types"
)

// EnvPrefix is prepended to every environment override, e.g.
// CODECHUNK_CHUNKING_MAX_CHARS.
const EnvPrefix = "CODECHUNK"

// DefaultStoragePath is the index database location relative to the
// working directory.
const DefaultStoragePath = ".codechunk/index.db"

// ErrInvalidConfig wraps every Validate failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the full codechunk configuration. Keys in YAML files and
// environment variables follow the mapstructure tags.
type Config struct {
	Chunking  types.ChunkOptions `mapstructure:"chunking"`
	Embedding embedder.Config    `mapstructure:"embedding"`
	Storage   StorageConfig      `mapstructure:"storage"`
	Indexing  indexer.Config     `mapstructure:"indexing"`
	Search    SearchConfig       `mapstructure:"search"`
	Log       LogConfig          `mapstructure:"log"`
}

// StorageConfig locates the SQLite index database.
type StorageConfig struct {
	Path string `mapstructure:"path"`
}

// SearchConfig sizes the query result cache. A zero size disables it.
type SearchConfig struct {
	CacheSize int           `mapstructure:"cache_size"`
	CacheTTL  time.Duration `mapstructure:"cache_ttl"`
}

// LogConfig selects the log level and output format.
type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Chunking:  types.DefaultChunkOptions(),
		Embedding: embedder.DefaultConfig(),
		Storage:   StorageConfig{Path: DefaultStoragePath},
		Indexing:  indexer.DefaultConfig(),
		Search: SearchConfig{
			CacheSize: searcher.DefaultCacheSize,
			CacheTTL:  searcher.DefaultCacheTTL,
		},
		Log: LogConfig{Level: string(logger.InfoLevel)},
	}
}

// Load reads configuration. path may be empty, in which case only defaults
// and environment variables apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv can resolve overrides for
// keys absent from the file.
func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("chunking.max_chars", d.Chunking.MaxCharactersPerChunk)
	v.SetDefault("chunking.min_chars", d.Chunking.MinCharactersPerChunk)
	v.SetDefault("chunking.combine", d.Chunking.Combine)
	v.SetDefault("chunking.split", d.Chunking.Split)

	v.SetDefault("embedding.provider", d.Embedding.Provider)
	v.SetDefault("embedding.api_key", d.Embedding.APIKey)
	v.SetDefault("embedding.base_url", d.Embedding.BaseURL)
	v.SetDefault("embedding.model", d.Embedding.Model)
	v.SetDefault("embedding.cache_size", d.Embedding.CacheSize)
	v.SetDefault("embedding.batch_size", d.Embedding.BatchSize)

	v.SetDefault("storage.path", d.Storage.Path)

	v.SetDefault("indexing.workers", d.Indexing.Workers)
	v.SetDefault("indexing.include_tests", d.Indexing.IncludeTests)
	v.SetDefault("indexing.include_vendor", d.Indexing.IncludeVendor)
	v.SetDefault("indexing.exclude", d.Indexing.Exclude)

	v.SetDefault("search.cache_size", d.Search.CacheSize)
	v.SetDefault("search.cache_ttl", d.Search.CacheTTL)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.json", d.Log.JSON)
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.Chunking.Validate(); err != nil {
		return fmt.Errorf("%w: chunking: %w", ErrInvalidConfig, err)
	}
	if err := c.Indexing.Validate(); err != nil {
		return fmt.Errorf("%w: indexing: %w", ErrInvalidConfig, err)
	}
	switch c.Embedding.Provider {
	case "", embedder.ProviderLocal, embedder.ProviderOpenAI, embedder.ProviderJina:
	default:
		return fmt.Errorf("%w: unknown embedding provider %q", ErrInvalidConfig, c.Embedding.Provider)
	}
	if c.Embedding.BatchSize < 0 || c.Embedding.BatchSize > embedder.MaxBatchSize {
		return fmt.Errorf("%w: embedding batch size must be between 0 and %d", ErrInvalidConfig, embedder.MaxBatchSize)
	}
	if c.Storage.Path == "" {
		return fmt.Errorf("%w: storage path is required", ErrInvalidConfig)
	}
	if c.Search.CacheSize < 0 || c.Search.CacheTTL < 0 {
		return fmt.Errorf("%w: search cache size and ttl cannot be negative", ErrInvalidConfig)
	}
	switch logger.LogLevel(strings.ToLower(c.Log.Level)) {
	case logger.DebugLevel, logger.InfoLevel, logger.WarnLevel, logger.ErrorLevel:
	default:
		return fmt.Errorf("%w: unknown log level %q", ErrInvalidConfig, c.Log.Level)
	}
	return nil
}

// LoggerConfig converts the log section into a logger configuration.
func (c *Config) LoggerConfig() logger.Config {
	lc := logger.DefaultConfig()
	lc.Level = logger.LogLevel(strings.ToLower(c.Log.Level))
	lc.JSON = c.Log.JSON
	return lc
}
