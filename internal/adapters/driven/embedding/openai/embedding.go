// Package openai provides an embedding service adapter for OpenAI-compatible APIs.
//
// Requests go through langchaingo's OpenAI client, so any server speaking the
// /embeddings protocol (OpenAI, vLLM, LM Studio, llama.cpp) can be used.
package openai

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	lcopenai "github.com/tmc/langchaingo/llms/openai"

	"github.com/custodia-labs/chapterdex/internal/core/ports/driven"
	"github.com/custodia-labs/chapterdex/internal/logger"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultBaseURL   = "https://api.openai.com/v1"
	DefaultModel     = "text-embedding-3-small"
	DefaultBatchSize = 64

	// localToken is sent to local servers that do not check credentials.
	localToken = "none"
)

// Model dimensions for OpenAI embedding models.
var modelDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// Config holds configuration for the OpenAI-compatible embedding service.
type Config struct {
	// APIKey is the API key. Empty means an unauthenticated local server.
	APIKey string

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	BaseURL string

	// Model is the embedding model to use (default: text-embedding-3-small).
	Model string

	// Dimensions is the expected vector size. Derived from Model when zero.
	Dimensions int

	// BatchSize is the number of texts sent per request (default: 64).
	BatchSize int
}

// EmbeddingService generates embeddings through langchaingo.
type EmbeddingService struct {
	embedder   embeddings.Embedder
	model      string
	dimensions int
}

// NewEmbeddingService creates a new OpenAI-compatible embedding service.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.APIKey == "" {
		cfg.APIKey = localToken
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = modelDimensions[cfg.Model]
	}

	client, err := lcopenai.New(
		lcopenai.WithBaseURL(cfg.BaseURL),
		lcopenai.WithToken(cfg.APIKey),
		lcopenai.WithEmbeddingModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("openai: create client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(client,
		embeddings.WithStripNewLines(true),
		embeddings.WithBatchSize(cfg.BatchSize),
	)
	if err != nil {
		return nil, fmt.Errorf("openai: create embedder: %w", err)
	}

	return &EmbeddingService{
		embedder:   embedder,
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
	}, nil
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 {
		return nil, fmt.Errorf("openai: empty embedding response")
	}
	return vecs[0], nil
}

// EmbedBatch generates embeddings for multiple texts in as few requests as possible.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	logger.Debug("openai: embedding %d texts with %s", len(texts), s.model)

	vecs, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("openai: embed documents: %w", err)
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("openai: expected %d embeddings, got %d", len(texts), len(vecs))
	}

	// Learn the dimension from the first response when the model is unknown.
	if s.dimensions == 0 && len(vecs) > 0 {
		s.dimensions = len(vecs[0])
	}
	return vecs, nil
}

// Dimensions returns the embedding vector size (0 until known).
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping validates the service by embedding a short probe string.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	if _, err := s.embedder.EmbedQuery(ctx, "ping"); err != nil {
		return fmt.Errorf("openai: ping failed: %w", err)
	}
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}
