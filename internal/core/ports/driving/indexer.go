package driving

import (
	"context"

	"github.com/custodia-labs/scribe/internal/core/domain"
)

// Indexer maintains the retrieval index for documents.
type Indexer interface {
	// IndexDocument chunks, embeds and indexes the document.
	// Re-indexing the same ID first removes all prior points, so a
	// reader never observes a half-deleted document. Empty text and
	// an unavailable vector index are skips, not errors.
	IndexDocument(ctx context.Context, doc domain.Document) (*domain.IndexReport, error)

	// DeleteDocumentIndex removes the document and all its points.
	DeleteDocumentIndex(ctx context.Context, documentID string) error
}
