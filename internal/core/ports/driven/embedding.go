package driven

import "context"

// MaxEmbeddingBatchSize caps the number of texts per embedding
// request, bounding request latency and memory.
const MaxEmbeddingBatchSize = 10

// EmbeddingService generates vector embeddings from text.
//
// Document and query embeddings use distinct intents because some
// models bias the vector space by usage type; the two must not be
// conflated.
//
// Implementations may include:
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - Ollama (nomic-embed-text, all-minilm)
type EmbeddingService interface {
	// EmbedDocuments generates embeddings for document chunks,
	// preserving input order and length. Batches larger than
	// MaxEmbeddingBatchSize are split internally; a failure in any
	// sub-batch fails the whole call - no silent partial embedding.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery generates an embedding for a search query.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding vector size (e.g., 768, 1536).
	// This is fixed for a collection's lifetime.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable by making a
	// lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
