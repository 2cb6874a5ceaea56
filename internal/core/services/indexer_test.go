package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/scribe/internal/core/domain"
	"github.com/custodia-labs/scribe/internal/postprocessors"
)

func testPipeline() *postprocessors.Pipeline {
	return postprocessors.DefaultPipeline(domain.ChunkingSettings{
		MaxTokens:         100,
		OverlapTokens:     20,
		PreserveStructure: true,
	})
}

func indexableDoc() domain.Document {
	return domain.Document{
		ID:      "doc-1",
		OwnerID: "owner-1",
		Title:   "Quarterly Report",
		Text:    strings.Repeat("Revenue grew in the third quarter. ", 50),
	}
}

func TestIndexDocument_HappyPath(t *testing.T) {
	idx := &mockVectorIndex{available: true}
	store := newMockDocStore()
	svc := NewIndexerService(testPipeline(), &mockEmbeddingService{}, idx, store)

	report, err := svc.IndexDocument(context.Background(), indexableDoc())
	require.NoError(t, err)

	assert.False(t, report.Skipped)
	assert.Greater(t, report.ChunkCount, 1)
	assert.Equal(t, report.ChunkCount, len(idx.points))

	// Delete-then-upsert: prior points for the document removed first.
	require.Len(t, idx.deleted, 1)
	assert.Equal(t, "doc-1", idx.deleted[0])

	// Registry record saved.
	_, ok := store.docs["doc-1"]
	assert.True(t, ok)
	assert.Len(t, store.chunks["doc-1"], report.ChunkCount)
}

func TestIndexDocument_PointIdentity(t *testing.T) {
	idx := &mockVectorIndex{available: true}
	svc := NewIndexerService(testPipeline(), &mockEmbeddingService{}, idx, newMockDocStore())

	doc := indexableDoc()
	_, err := svc.IndexDocument(context.Background(), doc)
	require.NoError(t, err)
	first := len(idx.points)

	// Indexing twice with identical content yields the same
	// (documentID, chunkIndex) set.
	_, err = svc.IndexDocument(context.Background(), doc)
	require.NoError(t, err)

	type key struct {
		doc   string
		chunk int
	}
	seen := make(map[key]int)
	for _, p := range idx.points {
		seen[key{p.DocumentID, p.ChunkIndex}]++
	}
	assert.Len(t, seen, first)
	for k, n := range seen {
		assert.Equal(t, 2, n, "point %v upserted a different number of times", k)
	}
}

func TestIndexDocument_EmptyTextSkips(t *testing.T) {
	idx := &mockVectorIndex{available: true}
	svc := NewIndexerService(testPipeline(), &mockEmbeddingService{}, idx, newMockDocStore())

	doc := indexableDoc()
	doc.Text = "   \n  "

	report, err := svc.IndexDocument(context.Background(), doc)
	require.NoError(t, err)
	assert.True(t, report.Skipped)
	assert.Equal(t, "empty document", report.SkipReason)
	assert.Empty(t, idx.points)
}

func TestIndexDocument_MissingIDs(t *testing.T) {
	svc := NewIndexerService(testPipeline(), &mockEmbeddingService{}, &mockVectorIndex{available: true}, newMockDocStore())

	_, err := svc.IndexDocument(context.Background(), domain.Document{Text: "content"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestIndexDocument_IndexUnavailableDegrades(t *testing.T) {
	idx := &mockVectorIndex{available: false}
	store := newMockDocStore()
	svc := NewIndexerService(testPipeline(), &mockEmbeddingService{}, idx, store)

	report, err := svc.IndexDocument(context.Background(), indexableDoc())
	require.NoError(t, err)

	assert.True(t, report.Skipped)
	assert.Equal(t, "vector index unavailable", report.SkipReason)
	assert.Empty(t, idx.points)

	// Registry still written so keyword search keeps working.
	assert.Contains(t, store.docs, "doc-1")
}

func TestIndexDocument_EmbeddingFailureLeavesIndexIntact(t *testing.T) {
	idx := &mockVectorIndex{available: true}
	embed := &mockEmbeddingService{embedErr: errors.New("batch rejected")}
	svc := NewIndexerService(testPipeline(), embed, idx, newMockDocStore())

	_, err := svc.IndexDocument(context.Background(), indexableDoc())
	assert.ErrorIs(t, err, domain.ErrEmbeddingFailure)

	// Embedding runs before any deletion: the prior good index
	// must be untouched.
	assert.Empty(t, idx.deleted)
	assert.Empty(t, idx.points)
}

func TestDeleteDocumentIndex(t *testing.T) {
	idx := &mockVectorIndex{available: true}
	store := newMockDocStore()
	store.docs["doc-1"] = domain.Document{ID: "doc-1", OwnerID: "owner-1"}

	svc := NewIndexerService(testPipeline(), &mockEmbeddingService{}, idx, store)

	err := svc.DeleteDocumentIndex(context.Background(), "doc-1")
	require.NoError(t, err)

	assert.Equal(t, []string{"doc-1"}, idx.deleted)
	assert.NotContains(t, store.docs, "doc-1")
}

func TestDeleteDocumentIndex_IndexUnavailable(t *testing.T) {
	idx := &mockVectorIndex{available: false}
	store := newMockDocStore()
	store.docs["doc-1"] = domain.Document{ID: "doc-1", OwnerID: "owner-1"}

	svc := NewIndexerService(testPipeline(), &mockEmbeddingService{}, idx, store)

	// Registry delete proceeds; the unavailable index is logged only.
	err := svc.DeleteDocumentIndex(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Empty(t, idx.deleted)
	assert.NotContains(t, store.docs, "doc-1")
}
