package driven

import "context"

// VectorPoint is the persisted unit in the vector index: one chunk
// embedding plus the payload needed to reconstruct a search result.
type VectorPoint struct {
	// Vector is the chunk embedding.
	Vector []float32

	// DocumentID and ChunkIndex identify the logical unit. The pair
	// is stable across re-indexing runs, so upserts are idempotent.
	DocumentID string
	ChunkIndex int

	// Text is the chunk content, stored for retrieval.
	Text string

	// OwnerID scopes the point to one owner.
	OwnerID string

	// Metadata carries chunk metadata.
	Metadata map[string]any
}

// VectorHit is a similarity search result.
type VectorHit struct {
	// DocumentID and ChunkIndex identify the matched chunk.
	DocumentID string
	ChunkIndex int

	// Text is the matched chunk content.
	Text string

	// Score is the cosine similarity (higher is better).
	Score float64

	// Metadata is the payload stored at upsert time.
	Metadata map[string]any
}

// VectorFilter constrains a similarity search server-side.
type VectorFilter struct {
	// OwnerID is required; points of other owners never match.
	OwnerID string

	// DocumentIDs optionally restricts to an allowlist.
	DocumentIDs []string

	// Limit is the maximum number of hits.
	Limit int

	// ScoreThreshold excludes hits scoring below it.
	ScoreThreshold float64
}

// VectorIndex persists (vector, payload) pairs per logical collection
// and serves filtered similarity search.
//
// All write and read paths must check IsAvailable first and degrade
// gracefully: retrieval is an enhancement, not a correctness
// requirement of the base generation feature.
type VectorIndex interface {
	// Upsert writes points, idempotent by (DocumentID, ChunkIndex).
	Upsert(ctx context.Context, points []VectorPoint) error

	// Search returns hits ranked descending by score.
	Search(ctx context.Context, vector []float32, filter VectorFilter) ([]VectorHit, error)

	// DeleteByDocument removes every point for the document. Used
	// before re-indexing and on document deletion.
	DeleteByDocument(ctx context.Context, documentID string) error

	// IsAvailable is a liveness probe.
	IsAvailable(ctx context.Context) bool

	// Close releases resources.
	Close() error
}
