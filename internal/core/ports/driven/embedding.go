package driven

import (
	"context"

	"github.com/custodia-labs/chapterdex/internal/core/domain"
)

// EmbeddingService generates vector embeddings from text.
// This is an optional service - when nil, vector/semantic search is disabled.
//
// Vectors are only meaningful relative to cosine similarity against vectors
// produced by the same backend. The core never assumes which backend is active.
//
// Implementations include:
//   - hashvocab: deterministic bag-of-known-words scheme (default)
//   - Ollama (nomic-embed-text, all-minilm)
//   - OpenAI-compatible APIs (text-embedding-3-small)
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts efficiently.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 128, 768, 1536).
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// ModelDescriber is implemented by embedding services that can report
// vocabulary and load state for snapshot metadata.
type ModelDescriber interface {
	ModelInfo() domain.ModelInfo
}

// VocabularyExpander is implemented by embedding services whose known
// terms can grow at runtime. Expansion never changes existing term vectors.
type VocabularyExpander interface {
	// ExpandVocabulary adds unknown words and returns how many were added.
	ExpandVocabulary(words []string) int
}

// EmbeddingValidator checks that embedding settings produce a reachable service.
type EmbeddingValidator interface {
	// ValidateEmbedding creates the configured service and pings it.
	ValidateEmbedding(settings *domain.EmbeddingSettings) error
}
