package domain

// AI provider identifiers used in settings.
const (
	AIProviderOpenAI    = "openai"
	AIProviderAnthropic = "anthropic"
	AIProviderOllama    = "ollama"
)

// Vector index backend identifiers used in settings.
const (
	VectorBackendQdrant = "qdrant"
	VectorBackendMemory = "memory"
)

// EmbeddingSettings configures the embedding provider.
type EmbeddingSettings struct {
	// Provider is "openai" or "ollama".
	Provider string

	// Model is the embedding model name.
	Model string

	// APIKey authenticates against hosted providers.
	APIKey string

	// BaseURL overrides the provider endpoint.
	BaseURL string

	// Dimensions overrides the model's default vector size.
	Dimensions int
}

// IsConfigured reports whether enough is set to create a service.
func (s *EmbeddingSettings) IsConfigured() bool {
	if s.Provider == "" {
		return false
	}
	// Ollama runs locally and needs no key.
	return s.Provider == "ollama" || s.APIKey != ""
}

// ModelSettings configures the generative model client.
type ModelSettings struct {
	// Provider is "anthropic" or "openai".
	Provider string

	// Model is the chat model name.
	Model string

	// APIKey authenticates against the provider.
	APIKey string

	// BaseURL overrides the provider endpoint.
	BaseURL string

	// MaxTokens caps tokens per completion step.
	MaxTokens int
}

// IsConfigured reports whether enough is set to create a client.
func (s *ModelSettings) IsConfigured() bool {
	return s.Provider != "" && s.APIKey != ""
}

// VectorSettings configures the vector index backend.
type VectorSettings struct {
	// Backend is "qdrant" or "memory".
	Backend string

	// URL is the Qdrant endpoint.
	URL string

	// APIKey authenticates against hosted Qdrant.
	APIKey string

	// Collection is the logical collection name.
	Collection string
}

// ChunkingSettings configures document splitting.
type ChunkingSettings struct {
	// MaxTokens bounds each chunk (default 600).
	MaxTokens int

	// OverlapTokens is the shared text between consecutive chunks
	// (default 150).
	OverlapTokens int

	// PreserveStructure splits on paragraph and heading boundaries
	// before packing.
	PreserveStructure bool
}
