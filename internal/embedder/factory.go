package embedder

import (
	"fmt"
	"os"
	"strings"
)

// Config selects and configures an embedding provider.
type Config struct {
	Provider  string `mapstructure:"provider" yaml:"provider"`
	APIKey    string `mapstructure:"api_key" yaml:"api_key"`
	BaseURL   string `mapstructure:"base_url" yaml:"base_url"`
	Model     string `mapstructure:"model" yaml:"model"`
	CacheSize int    `mapstructure:"cache_size" yaml:"cache_size"`
	BatchSize int    `mapstructure:"batch_size" yaml:"batch_size"`
}

// DefaultConfig returns an offline configuration using the local provider.
func DefaultConfig() Config {
	return Config{
		Provider:  ProviderLocal,
		CacheSize: defaultCacheSize,
		BatchSize: DefaultBatchSize,
	}
}

// New creates an embedder from cfg. An empty provider is resolved with
// DetectProvider.
func New(cfg Config) (Embedder, error) {
	var cache *Cache
	if cfg.CacheSize > 0 {
		cache = NewCache(cfg.CacheSize)
	}

	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider == "" {
		provider = DetectProvider()
	}

	switch provider {
	case ProviderJina:
		return NewJinaProvider(cfg.APIKey, cfg.BaseURL, cfg.Model, cache)
	case ProviderOpenAI:
		return NewOpenAIProvider(cfg.APIKey, cfg.BaseURL, cfg.Model, cache)
	case ProviderLocal:
		return NewLocalProvider(cache)
	default:
		return nil, fmt.Errorf("%w: unknown provider %s", ErrUnsupportedModel, cfg.Provider)
	}
}

// DetectProvider picks a provider from the API keys present in the
// environment, falling back to local.
func DetectProvider() string {
	if os.Getenv(EnvJinaAPIKey) != "" {
		return ProviderJina
	}
	if os.Getenv(EnvOpenAIAPIKey) != "" {
		return ProviderOpenAI
	}
	return ProviderLocal
}
