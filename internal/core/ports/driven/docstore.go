package driven

import (
	"context"

	"github.com/custodia-labs/scribe/internal/core/domain"
)

// KeywordHit is a lexical match from the document store.
type KeywordHit struct {
	// DocumentID and ChunkIndex identify the matched chunk.
	DocumentID string
	ChunkIndex int

	// Text is the matched chunk content.
	Text string

	// Score is the lexical relevance score.
	Score float64
}

// DocumentStore persists document and chunk records. It is the
// registry behind document listing and the keyword (lexical) path of
// hybrid retrieval.
type DocumentStore interface {
	// SaveDocument inserts or replaces a document record.
	SaveDocument(ctx context.Context, doc domain.Document) error

	// SaveChunks replaces all chunk records for the document.
	SaveChunks(ctx context.Context, documentID string, chunks []domain.Chunk) error

	// GetDocument retrieves a document by ID.
	// Returns domain.ErrNotFound if it does not exist.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// ListDocuments returns the owner's documents, newest first.
	ListDocuments(ctx context.Context, ownerID string) ([]domain.Document, error)

	// DeleteDocument removes a document and its chunks.
	DeleteDocument(ctx context.Context, id string) error

	// KeywordSearch performs lexical matching over stored chunks,
	// scoped to an owner and an optional document allowlist.
	KeywordSearch(ctx context.Context, query string, ownerID string, documentIDs []string, limit int) ([]KeywordHit, error)

	// Close releases resources.
	Close() error
}
