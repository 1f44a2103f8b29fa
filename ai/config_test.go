package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, ProviderOpenAI, cfg.Provider)
	assert.Equal(t, "", cfg.Host)
	assert.Equal(t, "text-embedding-3-small", cfg.Model)
	assert.Equal(t, 1536, cfg.Dimension)
	assert.Equal(t, 32, cfg.BatchSize)
	assert.Equal(t, 8191, cfg.MaxTokens)
	assert.False(t, cfg.Normalize)
}

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		cfg := NewConfig()

		assert.NotNil(t, cfg)
		assert.Equal(t, DefaultModel, cfg.Model)
		assert.Equal(t, DefaultDimension, cfg.Dimension)
	})

	t.Run("with multiple options", func(t *testing.T) {
		cfg := NewConfig(
			WithProvider(ProviderCompat),
			WithHost("http://custom:8080/v1"),
			WithModel("custom-embed"),
			WithAPIKey("sk-test"),
			WithDimension(768),
			WithBatchSize(8),
			WithMaxTokens(512),
			WithNormalize(true),
		)

		assert.Equal(t, ProviderCompat, cfg.Provider)
		assert.Equal(t, "http://custom:8080/v1", cfg.Host)
		assert.Equal(t, "custom-embed", cfg.Model)
		assert.Equal(t, "sk-test", cfg.APIKey)
		assert.Equal(t, 768, cfg.Dimension)
		assert.Equal(t, 8, cfg.BatchSize)
		assert.Equal(t, 512, cfg.MaxTokens)
		assert.True(t, cfg.Normalize)
	})
}

func TestConfigNormalizeHost(t *testing.T) {
	tests := []struct {
		name         string
		provider     string
		host         string
		expectedHost string
	}{
		{
			name:         "compat already has /v1",
			provider:     ProviderCompat,
			host:         "http://localhost:11434/v1",
			expectedHost: "http://localhost:11434/v1",
		},
		{
			name:         "compat missing /v1",
			provider:     ProviderCompat,
			host:         "http://localhost:11434",
			expectedHost: "http://localhost:11434/v1",
		},
		{
			name:         "compat trailing slash",
			provider:     ProviderCompat,
			host:         "http://localhost:11434/",
			expectedHost: "http://localhost:11434/v1",
		},
		{
			name:         "openai host untouched",
			provider:     ProviderOpenAI,
			host:         "https://proxy.internal",
			expectedHost: "https://proxy.internal",
		},
		{
			name:         "ollama default host",
			provider:     ProviderOllama,
			host:         "",
			expectedHost: DefaultOllamaHost,
		},
		{
			name:         "provider is case-insensitive",
			provider:     " Compat ",
			host:         "http://embed:8080",
			expectedHost: "http://embed:8080/v1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Provider: tt.provider, Host: tt.host}

			cfg.normalizeHost()

			assert.Equal(t, tt.expectedHost, cfg.Host)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		return NewConfig(WithAPIKey("sk-test"))
	}

	t.Run("valid openai config", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("valid compat config without key", func(t *testing.T) {
		cfg := NewConfig(WithProvider(ProviderCompat), WithHost("http://localhost:8080"))
		require.NoError(t, cfg.Validate())
		assert.Equal(t, "http://localhost:8080/v1", cfg.Host)
	})

	t.Run("valid ollama config", func(t *testing.T) {
		cfg := NewConfig(WithProvider(ProviderOllama), WithModel("nomic-embed-text"))
		assert.NoError(t, cfg.Validate())
	})

	tests := []struct {
		name    string
		mutate  func(*Config)
		errText string
	}{
		{"openai without key", func(c *Config) { c.APIKey = "" }, "APIKey"},
		{"compat without host", func(c *Config) { c.Provider = ProviderCompat; c.Host = "" }, "Host"},
		{"unknown provider", func(c *Config) { c.Provider = "bedrock" }, "unknown provider"},
		{"missing model", func(c *Config) { c.Model = "" }, "Model"},
		{"zero dimension", func(c *Config) { c.Dimension = 0 }, "Dimension"},
		{"negative batch size", func(c *Config) { c.BatchSize = -1 }, "BatchSize"},
		{"zero max tokens", func(c *Config) { c.MaxTokens = 0 }, "MaxTokens"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errText)
		})
	}
}

func TestConfigOptions(t *testing.T) {
	t.Run("WithHost", func(t *testing.T) {
		cfg := &Config{}
		WithHost("http://test:8080/v1")(cfg)
		assert.Equal(t, "http://test:8080/v1", cfg.Host)
	})

	t.Run("WithModel", func(t *testing.T) {
		cfg := &Config{}
		WithModel("test-model")(cfg)
		assert.Equal(t, "test-model", cfg.Model)
	})

	t.Run("WithDimension", func(t *testing.T) {
		cfg := &Config{}
		WithDimension(3072)(cfg)
		assert.Equal(t, 3072, cfg.Dimension)
	})
}
