// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	ollamaembed "github.com/custodia-labs/scribe/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/scribe/internal/adapters/driven/embedding/openai"
	anthropicmodel "github.com/custodia-labs/scribe/internal/adapters/driven/model/anthropic"
	openaimodel "github.com/custodia-labs/scribe/internal/adapters/driven/model/openai"
	"github.com/custodia-labs/scribe/internal/adapters/driven/vector/memory"
	"github.com/custodia-labs/scribe/internal/adapters/driven/vector/qdrant"
	"github.com/custodia-labs/scribe/internal/core/domain"
	"github.com/custodia-labs/scribe/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// InitResult contains the result of AI service initialisation.
type InitResult struct {
	EmbeddingService driven.EmbeddingService
	ModelClient      driven.ModelClient
	VectorIndex      driven.VectorIndex
	Warnings         []string // Non-fatal issues that caused fallback.
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.EmbeddingService != nil {
		r.EmbeddingService.Close()
	}
	if r.VectorIndex != nil {
		r.VectorIndex.Close()
	}
	if r.ModelClient != nil {
		r.ModelClient.Close()
	}
}

// CreateAndValidateEmbeddingService creates an embedding service and
// validates connectivity. Returns nil without error when the provider
// is not configured.
func CreateAndValidateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'scribe settings set' to fix",
			domain.ErrEmbeddingUnavailable, err)
	}
	if svc == nil {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). Run 'scribe settings set' to fix",
			domain.ErrEmbeddingUnavailable, err)
	}

	return svc, nil
}

// CreateAndValidateModelClient creates a model client and validates
// connectivity. Returns nil without error when the provider is not
// configured.
func CreateAndValidateModelClient(settings *domain.ModelSettings) (driven.ModelClient, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	client, err := CreateModelClient(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'scribe settings set' to fix",
			domain.ErrModelUnavailable, err)
	}
	if client == nil {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). Run 'scribe settings set' to fix",
			domain.ErrModelUnavailable, err)
	}

	return client, nil
}

// ValidateEmbeddingConfig validates an embedding configuration by
// creating a service and pinging it. Intended for the settings flow,
// so bad credentials surface at configuration time.
func ValidateEmbeddingConfig(settings *domain.EmbeddingSettings) error {
	if settings == nil || !settings.IsConfigured() {
		return nil
	}

	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return err
	}
	if svc == nil {
		return nil
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}

// ValidateModelConfig validates a model configuration by creating a
// client and pinging it.
func ValidateModelConfig(settings *domain.ModelSettings) error {
	if settings == nil || !settings.IsConfigured() {
		return nil
	}

	client, err := CreateModelClient(settings)
	if err != nil {
		return err
	}
	if client == nil {
		return nil
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return client.Ping(ctx)
}

// CreateEmbeddingService creates the appropriate embedding service
// based on settings. Returns nil if the provider is not configured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: settings.Dimensions,
		})

	case domain.AIProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: settings.Dimensions,
		})

	case domain.AIProviderAnthropic:
		// Anthropic does not support embeddings.
		return nil, fmt.Errorf("anthropic does not support embeddings, use ollama or openai")

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
}

// CreateModelClient creates the appropriate model client based on
// settings. Returns nil if the provider is not configured.
func CreateModelClient(settings *domain.ModelSettings) (driven.ModelClient, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderAnthropic:
		return anthropicmodel.NewModelClient(anthropicmodel.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderOpenAI:
		return openaimodel.NewModelClient(openaimodel.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	default:
		return nil, fmt.Errorf("unsupported model provider: %s", settings.Provider)
	}
}

// CreateVectorIndex creates the vector index backend. Dimensions come
// from the embedding service so the collection always matches the
// model in use. Defaults to the in-memory backend when unset.
func CreateVectorIndex(settings *domain.VectorSettings, dimensions int) (driven.VectorIndex, error) {
	backend := domain.VectorBackendMemory
	if settings != nil && settings.Backend != "" {
		backend = settings.Backend
	}

	switch backend {
	case domain.VectorBackendMemory:
		return memory.NewIndex(), nil

	case domain.VectorBackendQdrant:
		if settings == nil {
			return nil, fmt.Errorf("qdrant backend requires vector settings")
		}
		return qdrant.NewIndex(qdrant.Config{
			URL:        settings.URL,
			APIKey:     settings.APIKey,
			Collection: settings.Collection,
			Dimensions: dimensions,
		})

	default:
		return nil, fmt.Errorf("unsupported vector backend: %s", backend)
	}
}
