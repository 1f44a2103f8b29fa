// Package mock provides test double implementations of AI service interfaces.
//
// MockEmbedder and MockProvider let tests run without an embedding service
// and give controlled, deterministic vectors.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	provider := mock.NewMockProvider()
//	vec, err := provider.Embedder().EmbedText(ctx, "test")
//
//	// Custom behavior injection
//	embedder := mock.NewMockEmbedder()
//	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
//	    return nil, errors.New("rate limited")
//	}
//
//	// Inspect calls
//	count := embedder.CallCount()
//	batches := embedder.Batches()
//
// # Default Behavior
//
// MockEmbedder returns deterministic, non-zero vectors derived from an FNV
// hash of each text. Vector length is Dimension, or 384 when unset.
package mock
