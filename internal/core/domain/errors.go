package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrIndexUnavailable indicates the vector index liveness probe
	// failed. Indexing and vector search become no-ops; the error is
	// logged, never surfaced to the user-visible generation flow.
	ErrIndexUnavailable = errors.New("vector index unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// configured. Vector search is disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrEmbeddingFailure indicates an embedding batch failed. The
	// failure is batch-level: it aborts the indexing run that issued
	// it and leaves the prior good index intact.
	ErrEmbeddingFailure = errors.New("embedding failed")

	// ErrModelUnavailable indicates the generative model client is
	// not configured.
	ErrModelUnavailable = errors.New("model service unavailable")

	// ErrRetrievalTransport indicates a tool-call round failed
	// network-side. It is counted against the round cap like a
	// normal round, with an empty result fed back to the model.
	ErrRetrievalTransport = errors.New("retrieval transport failure")

	// ErrModelProtocol indicates the model returned neither a tool
	// call nor final text. The run aborts immediately.
	ErrModelProtocol = errors.New("model protocol violation")

	// ErrGenerationFailed is the single user-visible error for a run
	// that exhausted its recovery options.
	ErrGenerationFailed = errors.New("generation failed")
)
