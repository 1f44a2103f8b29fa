package ai

// Supported embedding providers.
const (
	ProviderOpenAI = "openai"
	ProviderCompat = "compat"
	ProviderOllama = "ollama"
)

const (
	DefaultModel      = "text-embedding-3-small"
	DefaultDimension  = 1536
	DefaultBatchSize  = 32
	DefaultMaxTokens  = 8191
	DefaultOllamaHost = "http://localhost:11434"
)
