package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/scribe/internal/core/domain"
)

func TestInitResult_Close(t *testing.T) {
	t.Run("close with nil services", func(t *testing.T) {
		result := &InitResult{}
		// Should not panic
		result.Close()
	})
}

func TestCreateEmbeddingService(t *testing.T) {
	tests := []struct {
		name        string
		settings    *domain.EmbeddingSettings
		wantNil     bool
		errContains string
	}{
		{
			name:     "nil settings returns nil",
			settings: nil,
			wantNil:  true,
		},
		{
			name:     "unconfigured settings returns nil",
			settings: &domain.EmbeddingSettings{},
			wantNil:  true,
		},
		{
			name: "ollama provider creates service",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderOllama,
				BaseURL:  "http://localhost:11434",
				Model:    "nomic-embed-text",
			},
		},
		{
			name: "openai provider creates service",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderOpenAI,
				APIKey:   "test-key",
				Model:    "text-embedding-3-small",
			},
		},
		{
			name: "anthropic provider returns error",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderAnthropic,
				APIKey:   "test-key",
			},
			wantNil:     true,
			errContains: "does not support embeddings",
		},
		{
			name: "unknown provider returns error",
			settings: &domain.EmbeddingSettings{
				Provider: "unknown",
				APIKey:   "test-key",
			},
			wantNil:     true,
			errContains: "unsupported embedding provider",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateEmbeddingService(tt.settings)

			if tt.errContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
			} else {
				require.NoError(t, err)
			}
			if tt.wantNil {
				assert.Nil(t, svc)
			} else {
				assert.NotNil(t, svc)
			}
		})
	}
}

func TestCreateModelClient(t *testing.T) {
	tests := []struct {
		name        string
		settings    *domain.ModelSettings
		wantNil     bool
		errContains string
	}{
		{
			name:     "nil settings returns nil",
			settings: nil,
			wantNil:  true,
		},
		{
			name:     "unconfigured settings returns nil",
			settings: &domain.ModelSettings{},
			wantNil:  true,
		},
		{
			name: "anthropic provider creates client",
			settings: &domain.ModelSettings{
				Provider: domain.AIProviderAnthropic,
				APIKey:   "test-key",
			},
		},
		{
			name: "openai provider creates client",
			settings: &domain.ModelSettings{
				Provider: domain.AIProviderOpenAI,
				APIKey:   "test-key",
				Model:    "gpt-4o",
			},
		},
		{
			name: "unknown provider returns error",
			settings: &domain.ModelSettings{
				Provider: "unknown",
				APIKey:   "test-key",
			},
			wantNil:     true,
			errContains: "unsupported model provider",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := CreateModelClient(tt.settings)

			if tt.errContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
			} else {
				require.NoError(t, err)
			}
			if tt.wantNil {
				assert.Nil(t, client)
			} else {
				assert.NotNil(t, client)
			}
		})
	}
}

func TestCreateVectorIndex(t *testing.T) {
	t.Run("defaults to memory backend", func(t *testing.T) {
		idx, err := CreateVectorIndex(nil, 768)
		require.NoError(t, err)
		assert.NotNil(t, idx)
	})

	t.Run("qdrant backend", func(t *testing.T) {
		idx, err := CreateVectorIndex(&domain.VectorSettings{
			Backend: domain.VectorBackendQdrant,
			URL:     "http://localhost:6333",
		}, 768)
		require.NoError(t, err)
		assert.NotNil(t, idx)
	})

	t.Run("qdrant requires positive dimensions", func(t *testing.T) {
		_, err := CreateVectorIndex(&domain.VectorSettings{
			Backend: domain.VectorBackendQdrant,
		}, 0)
		assert.Error(t, err)
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := CreateVectorIndex(&domain.VectorSettings{Backend: "pinecone"}, 768)
		assert.Error(t, err)
	})
}
