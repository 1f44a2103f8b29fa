// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package ai provides the embedding abstractions used by docvec.
//
// The core interface is Embedder, which turns text into vectors. Concrete
// providers live in subpackages:
//
//   - openai: OpenAI and OpenAI-compatible servers via langchaingo
//   - ollama: a local Ollama server via langchaingo
//   - mock: deterministic test doubles
//
// # Fitting vectors to an index
//
// Vector indexes have a fixed dimension, while models differ. Fitter wraps
// any Embedder and guarantees every vector has exactly Config.Dimension
// values:
//
//	provider, _ := openai.NewProvider(cfg)
//	fitter, _ := ai.NewFitter(provider.Embedder(), cfg, ai.WithTruncator(ai.NewTruncator("")))
//	vectors, err := fitter.EmbedTexts(ctx, chunks)
//
// Blank inputs become zero vectors without a provider call. Inputs longer
// than Config.MaxTokens are truncated with tiktoken before sending.
//
// # Configuration
//
// Config uses functional options:
//
//	cfg := ai.NewConfig(
//	    ai.WithAPIKey(os.Getenv("OPENAI_API_KEY")),
//	    ai.WithDimension(1536),
//	)
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
//
// Validate normalizes the config first, adding /v1 to compat hosts and
// defaulting the Ollama host.
package ai
