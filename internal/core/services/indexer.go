package services

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/scribe/internal/core/domain"
	"github.com/custodia-labs/scribe/internal/core/ports/driven"
	"github.com/custodia-labs/scribe/internal/core/ports/driving"
	"github.com/custodia-labs/scribe/internal/logger"
)

// Ensure IndexerService implements the interface.
var _ driving.Indexer = (*IndexerService)(nil)

// IndexerService maintains the retrieval index: it chunks documents,
// embeds the chunks and writes (vector, payload) points, plus a
// registry record used for listing and keyword search.
type IndexerService struct {
	pipeline         driven.PostProcessorPipeline
	embeddingService driven.EmbeddingService
	vectorIndex      driven.VectorIndex
	docStore         driven.DocumentStore
}

// NewIndexerService creates a new indexer service.
// The embeddingService and vectorIndex parameters are optional (can
// be nil); without them documents are still chunked and registered
// for keyword search.
func NewIndexerService(
	pipeline driven.PostProcessorPipeline,
	embeddingService driven.EmbeddingService,
	vectorIndex driven.VectorIndex,
	docStore driven.DocumentStore,
) *IndexerService {
	return &IndexerService{
		pipeline:         pipeline,
		embeddingService: embeddingService,
		vectorIndex:      vectorIndex,
		docStore:         docStore,
	}
}

// IndexDocument chunks, embeds and indexes the document.
//
// Vectors are embedded before any deletion, so an embedding failure
// leaves the prior good index intact. Within one document the write
// is serialized delete-then-upsert; a reader never observes a
// half-deleted document longer than the run itself.
func (s *IndexerService) IndexDocument(ctx context.Context, doc domain.Document) (*domain.IndexReport, error) {
	logger.Section("Indexing")
	logger.Debug("Document: %s (owner %s)", doc.ID, doc.OwnerID)

	if doc.ID == "" || doc.OwnerID == "" {
		return nil, fmt.Errorf("%w: document id and owner id are required", domain.ErrInvalidInput)
	}

	chunks, err := s.pipeline.Process(ctx, &doc)
	if err != nil {
		return nil, fmt.Errorf("chunk document %s: %w", doc.ID, err)
	}
	if len(chunks) == 0 {
		logger.Info("Document %s has no indexable text, skipping", doc.ID)
		return &domain.IndexReport{
			DocumentID: doc.ID,
			Skipped:    true,
			SkipReason: "empty document",
		}, nil
	}
	logger.Debug("Chunked into %d chunks", len(chunks))

	tokens := 0
	for _, c := range chunks {
		tokens += c.TokenCount
	}

	// Registry first: listing and keyword search work even when the
	// vector index is down.
	if s.docStore != nil {
		now := time.Now().UTC()
		doc.CreatedAt = now
		doc.UpdatedAt = now
		if err := s.docStore.SaveDocument(ctx, doc); err != nil {
			return nil, fmt.Errorf("save document %s: %w", doc.ID, err)
		}
		if err := s.docStore.SaveChunks(ctx, doc.ID, chunks); err != nil {
			return nil, fmt.Errorf("save chunks for %s: %w", doc.ID, err)
		}
	}

	report := &domain.IndexReport{
		DocumentID: doc.ID,
		ChunkCount: len(chunks),
		TokenCount: tokens,
	}

	if s.embeddingService == nil || s.vectorIndex == nil {
		logger.Warn("Vectorization skipped: embedding or vector index not configured")
		report.Skipped = true
		report.SkipReason = "vectorization not configured"
		return report, nil
	}
	if !s.vectorIndex.IsAvailable(ctx) {
		logger.Warn("Vector index liveness probe failed, skipping vectorization for %s", doc.ID)
		report.Skipped = true
		report.SkipReason = "vector index unavailable"
		return report, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := s.embeddingService.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: document %s: %w", domain.ErrEmbeddingFailure, doc.ID, err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("%w: document %s: got %d vectors for %d chunks",
			domain.ErrEmbeddingFailure, doc.ID, len(vectors), len(chunks))
	}
	logger.Debug("Embedded %d chunks", len(vectors))

	points := make([]driven.VectorPoint, len(chunks))
	for i, c := range chunks {
		points[i] = driven.VectorPoint{
			Vector:     vectors[i],
			DocumentID: c.DocumentID,
			ChunkIndex: c.Index,
			Text:       c.Text,
			OwnerID:    doc.OwnerID,
			Metadata:   c.Metadata,
		}
	}

	// Delete-then-upsert keeps (documentID, chunkIndex) identity
	// stable and removes stale points from a previously longer
	// version of the document.
	if err := s.vectorIndex.DeleteByDocument(ctx, doc.ID); err != nil {
		return nil, fmt.Errorf("delete prior points for %s: %w", doc.ID, err)
	}
	if err := s.vectorIndex.Upsert(ctx, points); err != nil {
		return nil, fmt.Errorf("upsert points for %s: %w", doc.ID, err)
	}

	logger.Info("Indexed document %s: %d chunks, ~%d tokens", doc.ID, len(chunks), tokens)
	return report, nil
}

// DeleteDocumentIndex removes the document's registry records and all
// its vector points. An unavailable vector index is logged, not
// fatal: the registry delete still proceeds.
func (s *IndexerService) DeleteDocumentIndex(ctx context.Context, documentID string) error {
	logger.Section("Delete Index")
	logger.Debug("Document: %s", documentID)

	if documentID == "" {
		return fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}

	if s.vectorIndex != nil {
		if s.vectorIndex.IsAvailable(ctx) {
			if err := s.vectorIndex.DeleteByDocument(ctx, documentID); err != nil {
				return fmt.Errorf("delete points for %s: %w", documentID, err)
			}
		} else {
			logger.Warn("Vector index unavailable, points for %s not removed", documentID)
		}
	}

	if s.docStore != nil {
		if err := s.docStore.DeleteDocument(ctx, documentID); err != nil {
			return fmt.Errorf("delete document %s: %w", documentID, err)
		}
	}

	logger.Info("Deleted index for document %s", documentID)
	return nil
}
