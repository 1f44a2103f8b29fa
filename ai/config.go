package ai

import (
	"errors"
	"fmt"
	"strings"
)

// Config holds the settings for creating an embedding provider.
type Config struct {
	// Provider selects the embedding backend: "openai", "compat" (any
	// OpenAI-compatible server) or "ollama".
	Provider string

	// Host is the base URL for the embedding service API.
	// Empty means the provider's public default.
	// Example: "http://localhost:11434/v1" for a local OpenAI-compatible server
	Host string

	// Model is the embedding model identifier.
	// Example: "text-embedding-3-small", "nomic-embed-text"
	Model string

	// APIKey authenticates against hosted providers.
	APIKey string

	// Dimension is the vector length expected by the index. Vectors are
	// sliced or zero-padded to this length.
	// Default: 1536
	Dimension int

	// BatchSize is the maximum number of texts sent per embedding call.
	// Default: 32
	BatchSize int

	// MaxTokens bounds each input; longer inputs are truncated.
	// Default: 8191
	MaxTokens int

	// Normalize scales every vector to unit length after fitting.
	Normalize bool
}

type ConfigOption func(*Config)

func WithProvider(provider string) ConfigOption {
	return func(c *Config) {
		c.Provider = provider
	}
}

func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.Host = host
	}
}

func WithModel(model string) ConfigOption {
	return func(c *Config) {
		c.Model = model
	}
}

func WithAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.APIKey = key
	}
}

func WithDimension(dim int) ConfigOption {
	return func(c *Config) {
		c.Dimension = dim
	}
}

func WithBatchSize(size int) ConfigOption {
	return func(c *Config) {
		c.BatchSize = size
	}
}

func WithMaxTokens(max int) ConfigOption {
	return func(c *Config) {
		c.MaxTokens = max
	}
}

func WithNormalize(normalize bool) ConfigOption {
	return func(c *Config) {
		c.Normalize = normalize
	}
}

func DefaultConfig() *Config {
	return &Config{
		Provider:  ProviderOpenAI,
		Model:     DefaultModel,
		Dimension: DefaultDimension,
		BatchSize: DefaultBatchSize,
		MaxTokens: DefaultMaxTokens,
	}
}

func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

func (c *Config) normalizeHost() {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	// OpenAI-compatible servers expect the /v1 prefix
	if c.Provider == ProviderCompat && c.Host != "" && !strings.HasSuffix(c.Host, "/v1") {
		c.Host = strings.TrimSuffix(c.Host, "/")
		c.Host = c.Host + "/v1"
	}
	if c.Provider == ProviderOllama && c.Host == "" {
		c.Host = DefaultOllamaHost
	}
}

func (c *Config) Validate() error {
	// normalize first to ensure hosts are in correct format
	c.normalizeHost()

	switch c.Provider {
	case ProviderOpenAI:
		if c.APIKey == "" {
			return errors.New("ai config: APIKey is required for the openai provider")
		}
	case ProviderCompat:
		if c.Host == "" {
			return errors.New("ai config: Host is required for the compat provider")
		}
	case ProviderOllama:
	default:
		return fmt.Errorf("ai config: unknown provider %q", c.Provider)
	}
	if c.Model == "" {
		return errors.New("ai config: Model is required")
	}
	if c.Dimension <= 0 {
		return errors.New("ai config: Dimension must be greater than 0")
	}
	if c.BatchSize <= 0 {
		return errors.New("ai config: BatchSize must be greater than 0")
	}
	if c.MaxTokens <= 0 {
		return errors.New("ai config: MaxTokens must be greater than 0")
	}
	return nil
}
