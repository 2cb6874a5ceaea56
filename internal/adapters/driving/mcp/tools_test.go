package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/scribe/internal/core/domain"
)

func TestServer_handleSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("returns search results", func(t *testing.T) {
		mock := &mockRetrieval{
			resp: &domain.SearchResponse{
				Results: []domain.SearchResult{
					{
						DocumentID: "doc-1",
						ChunkIndex: 2,
						ChunkText:  "This is the passage",
						Score:      0.95,
					},
				},
				SearchType: domain.SearchModeVector,
			},
		}

		server, err := NewServer(&Ports{Retrieval: mock, OwnerID: "alice"})
		require.NoError(t, err)

		input := SearchInput{Query: "test", Limit: 10}
		_, output, err := server.handleSearch(ctx, nil, input)

		require.NoError(t, err)
		assert.Equal(t, 1, output.Count)
		require.Len(t, output.Results, 1)
		assert.Equal(t, "doc-1", output.Results[0].DocumentID)
		assert.Equal(t, 2, output.Results[0].ChunkIndex)
		assert.Equal(t, "This is the passage", output.Results[0].Text)
		assert.Equal(t, 0.95, output.Results[0].Score)
		assert.Equal(t, "vector", output.SearchType)
	})

	t.Run("scopes to configured owner and applies default limit", func(t *testing.T) {
		mock := &mockRetrieval{}
		server, err := NewServer(&Ports{Retrieval: mock, OwnerID: "alice"})
		require.NoError(t, err)

		_, _, err = server.handleSearch(ctx, nil, SearchInput{Query: "test"})

		require.NoError(t, err)
		assert.Equal(t, "alice", mock.lastOpts.OwnerID)
		assert.Equal(t, 10, mock.lastOpts.Limit)
	})

	t.Run("returns error on search failure", func(t *testing.T) {
		mock := &mockRetrieval{err: errors.New("search failed")}
		server, err := NewServer(&Ports{Retrieval: mock})
		require.NoError(t, err)

		_, _, err = server.handleSearch(ctx, nil, SearchInput{Query: "test"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "search failed")
	})
}

func TestServer_handleGenerate(t *testing.T) {
	ctx := context.Background()

	t.Run("returns processed answer with sources", func(t *testing.T) {
		gen := &mockGenerator{
			result: &domain.GenerationResult{
				Content: "The rollout finished early [1].",
				Sources: []domain.Source{
					{Index: 1, DocumentID: "doc-1", Title: "Rollout Report"},
				},
				Metadata: domain.GenerationMetadata{SearchRounds: 2},
			},
		}

		server, err := NewServer(&Ports{
			Retrieval: &mockRetrieval{},
			Generator: gen,
			OwnerID:   "alice",
		})
		require.NoError(t, err)

		input := GenerateInput{Task: "Summarise the rollout"}
		_, output, err := server.handleGenerate(ctx, nil, input)

		require.NoError(t, err)
		assert.Equal(t, "The rollout finished early [1].", output.Content)
		require.Len(t, output.Sources, 1)
		assert.Equal(t, "doc-1", output.Sources[0].DocumentID)
		assert.Equal(t, 2, output.SearchRounds)

		assert.Equal(t, "alice", gen.lastReq.OwnerID)
		assert.Equal(t, "Summarise the rollout", gen.lastReq.FormInputs["task"])
	})

	t.Run("returns error on generation failure", func(t *testing.T) {
		gen := &mockGenerator{err: domain.ErrGenerationFailed}
		server, err := NewServer(&Ports{Retrieval: &mockRetrieval{}, Generator: gen})
		require.NoError(t, err)

		_, _, err = server.handleGenerate(ctx, nil, GenerateInput{Task: "x"})

		assert.ErrorIs(t, err, domain.ErrGenerationFailed)
	})
}

func TestNewServer_RequiresRetrieval(t *testing.T) {
	_, err := NewServer(&Ports{})
	assert.ErrorIs(t, err, ErrMissingRetrieval)
}
