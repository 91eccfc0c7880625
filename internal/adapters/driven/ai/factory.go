// Package ai provides factory functions for creating embedding service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/chapterdex/internal/adapters/driven/embedding/hashvocab"
	ollamaembed "github.com/custodia-labs/chapterdex/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/chapterdex/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/chapterdex/internal/adapters/driven/embedding/ratelimit"
	"github.com/custodia-labs/chapterdex/internal/core/domain"
	"github.com/custodia-labs/chapterdex/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// CreateEmbeddingService creates the embedding service selected by settings.
// Remote backends are wrapped in a rate limiter. Nil settings select the
// hash backend with default dimensions.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil {
		defaults := domain.DefaultAppSettings().Embedding
		settings = &defaults
	}

	switch settings.Backend {
	case domain.EmbeddingBackendHash, "":
		return hashvocab.NewEmbeddingService(hashvocab.Config{
			Dimensions: settings.Dimensions,
			Vocabulary: settings.Vocabulary,
		}), nil

	case domain.EmbeddingBackendOllama:
		svc := ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      modelOrDefault(settings),
			Dimensions: domain.EmbeddingDimensions()[modelOrDefault(settings)],
		})
		return withRateLimit(svc, settings), nil

	case domain.EmbeddingBackendOpenAI:
		svc, err := openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      modelOrDefault(settings),
			Dimensions: domain.EmbeddingDimensions()[modelOrDefault(settings)],
		})
		if err != nil {
			return nil, err
		}
		return withRateLimit(svc, settings), nil

	default:
		return nil, fmt.Errorf("%w: embedding backend %q", domain.ErrUnsupportedType, settings.Backend)
	}
}

// CreateAndValidateEmbeddingService creates an embedding service and validates connectivity.
func CreateAndValidateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). Check the [embedding] section of the config file",
			domain.ErrEmbeddingUnavailable, err)
	}

	return svc, nil
}

// ValidateEmbeddingConfig creates a service for settings and pings it.
func ValidateEmbeddingConfig(settings *domain.EmbeddingSettings) error {
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}

func modelOrDefault(settings *domain.EmbeddingSettings) string {
	if settings.Model != "" {
		return settings.Model
	}
	return domain.DefaultEmbeddingModels()[settings.Backend]
}

func withRateLimit(svc driven.EmbeddingService, settings *domain.EmbeddingSettings) driven.EmbeddingService {
	return ratelimit.Wrap(svc, ratelimit.Config{
		RequestsPerSecond: settings.RateLimit,
		Burst:             settings.Burst,
	})
}
