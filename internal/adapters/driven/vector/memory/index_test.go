package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/scribe/internal/core/ports/driven"
)

func point(docID string, idx int, owner string, vec []float32, text string) driven.VectorPoint {
	return driven.VectorPoint{
		Vector:     vec,
		DocumentID: docID,
		ChunkIndex: idx,
		Text:       text,
		OwnerID:    owner,
	}
}

func TestUpsert_IdempotentByDocumentAndChunk(t *testing.T) {
	idx := NewIndex()
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, []driven.VectorPoint{
		point("doc-1", 0, "alice", []float32{1, 0}, "first"),
	}))
	require.NoError(t, idx.Upsert(ctx, []driven.VectorPoint{
		point("doc-1", 0, "alice", []float32{1, 0}, "revised"),
	}))

	assert.Equal(t, 1, idx.Len())

	hits, err := idx.Search(ctx, []float32{1, 0}, driven.VectorFilter{OwnerID: "alice", Limit: 5})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "revised", hits[0].Text)
}

func TestSearch_RanksByCosineSimilarity(t *testing.T) {
	idx := NewIndex()
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, []driven.VectorPoint{
		point("doc-1", 0, "alice", []float32{1, 0}, "aligned"),
		point("doc-1", 1, "alice", []float32{0.7, 0.7}, "diagonal"),
		point("doc-1", 2, "alice", []float32{0, 1}, "orthogonal"),
	}))

	hits, err := idx.Search(ctx, []float32{1, 0}, driven.VectorFilter{OwnerID: "alice", Limit: 5})
	require.NoError(t, err)
	require.Len(t, hits, 3)

	assert.Equal(t, "aligned", hits[0].Text)
	assert.Equal(t, "diagonal", hits[1].Text)
	assert.Equal(t, "orthogonal", hits[2].Text)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
	assert.InDelta(t, 0.0, hits[2].Score, 1e-6)
}

func TestSearch_FiltersByOwner(t *testing.T) {
	idx := NewIndex()
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, []driven.VectorPoint{
		point("doc-1", 0, "alice", []float32{1, 0}, "alice chunk"),
		point("doc-2", 0, "bob", []float32{1, 0}, "bob chunk"),
	}))

	hits, err := idx.Search(ctx, []float32{1, 0}, driven.VectorFilter{OwnerID: "alice", Limit: 5})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "doc-1", hits[0].DocumentID)
}

func TestSearch_DocumentAllowlist(t *testing.T) {
	idx := NewIndex()
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, []driven.VectorPoint{
		point("doc-1", 0, "alice", []float32{1, 0}, "one"),
		point("doc-2", 0, "alice", []float32{1, 0}, "two"),
		point("doc-3", 0, "alice", []float32{1, 0}, "three"),
	}))

	hits, err := idx.Search(ctx, []float32{1, 0}, driven.VectorFilter{
		OwnerID:     "alice",
		DocumentIDs: []string{"doc-1", "doc-3"},
		Limit:       5,
	})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	for _, h := range hits {
		assert.NotEqual(t, "doc-2", h.DocumentID)
	}
}

func TestSearch_ScoreThresholdAndLimit(t *testing.T) {
	idx := NewIndex()
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, []driven.VectorPoint{
		point("doc-1", 0, "alice", []float32{1, 0}, "aligned"),
		point("doc-1", 1, "alice", []float32{0.9, 0.1}, "near"),
		point("doc-1", 2, "alice", []float32{0, 1}, "orthogonal"),
	}))

	hits, err := idx.Search(ctx, []float32{1, 0}, driven.VectorFilter{
		OwnerID:        "alice",
		Limit:          1,
		ScoreThreshold: 0.5,
	})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "aligned", hits[0].Text)
}

func TestSearch_EqualScoresKeepInsertionOrder(t *testing.T) {
	idx := NewIndex()
	ctx := context.Background()

	vec := []float32{1, 0}
	for i := 0; i < 8; i++ {
		require.NoError(t, idx.Upsert(ctx, []driven.VectorPoint{
			point("doc-1", i, "alice", vec, "tied"),
		}))
	}

	for trial := 0; trial < 50; trial++ {
		hits, err := idx.Search(ctx, vec, driven.VectorFilter{OwnerID: "alice", Limit: 8})
		require.NoError(t, err)
		require.Len(t, hits, 8)
		for i, h := range hits {
			assert.Equal(t, i, h.ChunkIndex, "trial %d", trial)
		}
	}

	// A limit cutting inside the tie group still selects the
	// earliest-inserted points.
	for trial := 0; trial < 50; trial++ {
		hits, err := idx.Search(ctx, vec, driven.VectorFilter{OwnerID: "alice", Limit: 3})
		require.NoError(t, err)
		require.Len(t, hits, 3)
		for i, h := range hits {
			assert.Equal(t, i, h.ChunkIndex, "trial %d", trial)
		}
	}
}

func TestUpsert_ReplacementKeepsTieOrder(t *testing.T) {
	idx := NewIndex()
	ctx := context.Background()

	vec := []float32{1, 0}
	require.NoError(t, idx.Upsert(ctx, []driven.VectorPoint{
		point("doc-1", 0, "alice", vec, "first"),
		point("doc-1", 1, "alice", vec, "second"),
	}))
	require.NoError(t, idx.Upsert(ctx, []driven.VectorPoint{
		point("doc-1", 0, "alice", vec, "first revised"),
	}))

	hits, err := idx.Search(ctx, vec, driven.VectorFilter{OwnerID: "alice", Limit: 2})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "first revised", hits[0].Text)
	assert.Equal(t, "second", hits[1].Text)
}

func TestDeleteByDocument_RemovesAllChunks(t *testing.T) {
	idx := NewIndex()
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, []driven.VectorPoint{
		point("doc-1", 0, "alice", []float32{1, 0}, "a"),
		point("doc-1", 1, "alice", []float32{1, 0}, "b"),
		point("doc-2", 0, "alice", []float32{1, 0}, "c"),
	}))

	require.NoError(t, idx.DeleteByDocument(ctx, "doc-1"))
	assert.Equal(t, 1, idx.Len())

	hits, err := idx.Search(ctx, []float32{1, 0}, driven.VectorFilter{OwnerID: "alice", Limit: 5})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "doc-2", hits[0].DocumentID)
}

func TestSearch_EmptyIndexReturnsNoHits(t *testing.T) {
	idx := NewIndex()

	hits, err := idx.Search(context.Background(), []float32{1, 0}, driven.VectorFilter{OwnerID: "alice"})
	require.NoError(t, err)
	assert.Empty(t, hits)
}
