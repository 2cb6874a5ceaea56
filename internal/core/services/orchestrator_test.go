package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/scribe/internal/core/domain"
)

func searchCall(id, query string) domain.ToolCall {
	return domain.ToolCall{ID: id, Name: domain.ToolNameSearchDocuments, Query: query}
}

func evidenceResults() []domain.SearchResult {
	return []domain.SearchResult{
		{
			DocumentID: "doc-a",
			ChunkIndex: 0,
			ChunkText:  "The migration to the new billing platform completed in March with zero downtime reported.",
			Score:      0.9,
			Metadata:   map[string]any{"title": "Billing Migration"},
		},
	}
}

func genRequest() domain.GenerationRequest {
	return domain.GenerationRequest{
		OwnerID:      "owner-1",
		SystemPrompt: "You write status updates.",
		FormInputs:   map[string]string{"topic": "billing migration", "tone": "formal"},
	}
}

func TestGenerate_DirectFinalAnswer(t *testing.T) {
	model := &mockModelClient{responses: []scriptedResponse{
		finalResponse("All systems are operational."),
	}}
	orch := NewOrchestrator(model, &mockRetrieval{}, NewCitationProcessor())

	result, err := orch.GenerateWithRetrieval(context.Background(), genRequest())
	require.NoError(t, err)

	assert.Equal(t, "All systems are operational.", result.Content)
	assert.Empty(t, result.Sources)
	assert.Empty(t, result.Citations)
	assert.Equal(t, 0, result.Metadata.SearchRounds)
	assert.False(t, result.Metadata.Forced)
}

func TestGenerate_OneToolRoundThenAnswer(t *testing.T) {
	model := &mockModelClient{responses: []scriptedResponse{
		toolUseResponse(searchCall("t1", "billing migration status")),
		finalResponse("The migration to the new billing platform completed in March with zero downtime reported."),
	}}
	retrieval := &mockRetrieval{results: evidenceResults()}
	orch := NewOrchestrator(model, retrieval, NewCitationProcessor())

	result, err := orch.GenerateWithRetrieval(context.Background(), genRequest())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Metadata.SearchRounds)
	assert.Equal(t, 1, result.Metadata.RetrievedChunks)
	assert.Equal(t, []string{"billing migration status"}, retrieval.queries)

	// The answer restates the evidence, so it must be cited.
	require.Len(t, result.Sources, 1)
	assert.Equal(t, "doc-a", result.Sources[0].DocumentID)
	assert.Contains(t, result.Content, "[1]")

	// Tool result turn fed back before the final call.
	secondCall := model.calls[1]
	require.Len(t, secondCall.Turns, 3)
	assert.Equal(t, domain.RoleToolResult, secondCall.Turns[2].Role)
	assert.Equal(t, "t1", secondCall.Turns[2].ToolCallID)
}

func TestGenerate_RoundCapForcesFinalAnswer(t *testing.T) {
	// Model always wants more searches: rounds 1-3 execute, then a
	// 4th tool-disabled call forces the answer.
	model := &mockModelClient{responses: []scriptedResponse{
		toolUseResponse(searchCall("t1", "first")),
		toolUseResponse(searchCall("t2", "second")),
		toolUseResponse(searchCall("t3", "third")),
		toolUseResponse(searchCall("t4", "fourth")), // never reached
		finalResponse("Answer from gathered evidence."),
	}}
	retrieval := &mockRetrieval{results: evidenceResults()}
	orch := NewOrchestrator(model, retrieval, NewCitationProcessor())

	result, err := orch.GenerateWithRetrieval(context.Background(), genRequest())
	require.NoError(t, err)

	assert.Equal(t, 3, result.Metadata.SearchRounds)
	assert.True(t, result.Metadata.Forced)
	assert.Equal(t, []string{"first", "second", "third"}, retrieval.queries)

	// Exactly 4 model calls: 3 tool rounds + 1 forced final.
	require.Len(t, model.calls, 4)
	for i := 0; i < 3; i++ {
		assert.NotEmpty(t, model.calls[i].Tools, "round %d should offer tools", i+1)
	}
	assert.Empty(t, model.calls[3].Tools, "forced final call must disable tools")

	// The 4th scripted tool_use response was never consumed.
	assert.Len(t, model.responses, 1)
}

func TestGenerate_ForcedFinalStillNoText_Aborts(t *testing.T) {
	model := &mockModelClient{responses: []scriptedResponse{
		toolUseResponse(searchCall("t1", "first")),
		toolUseResponse(searchCall("t2", "second")),
		toolUseResponse(searchCall("t3", "third")),
		toolUseResponse(searchCall("t4", "fourth")), // returned on the forced call
	}}
	orch := NewOrchestrator(model, &mockRetrieval{}, NewCitationProcessor())

	_, err := orch.GenerateWithRetrieval(context.Background(), genRequest())
	assert.ErrorIs(t, err, domain.ErrGenerationFailed)
	assert.ErrorIs(t, err, domain.ErrModelProtocol)
}

func TestGenerate_ProtocolViolationAborts(t *testing.T) {
	tests := []struct {
		name string
		resp scriptedResponse
	}{
		{
			name: "empty final text",
			resp: scriptedResponse{resp: &domain.ModelResponse{StopReason: domain.StopReasonEnd}},
		},
		{
			name: "tool_use with no calls",
			resp: scriptedResponse{resp: &domain.ModelResponse{StopReason: domain.StopReasonToolUse}},
		},
		{
			name: "unknown stop reason",
			resp: scriptedResponse{resp: &domain.ModelResponse{StopReason: domain.StopReason("pause")}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := &mockModelClient{responses: []scriptedResponse{tt.resp}}
			orch := NewOrchestrator(model, &mockRetrieval{}, NewCitationProcessor())

			_, err := orch.GenerateWithRetrieval(context.Background(), genRequest())
			assert.ErrorIs(t, err, domain.ErrGenerationFailed)
			assert.ErrorIs(t, err, domain.ErrModelProtocol)
		})
	}
}

func TestGenerate_RetrievalFailureFeedsEmptyResult(t *testing.T) {
	model := &mockModelClient{responses: []scriptedResponse{
		toolUseResponse(searchCall("t1", "query")),
		finalResponse("Answer without evidence."),
	}}
	retrieval := &mockRetrieval{err: errors.New("connection reset")}
	orch := NewOrchestrator(model, retrieval, NewCitationProcessor())

	result, err := orch.GenerateWithRetrieval(context.Background(), genRequest())
	require.NoError(t, err)

	// The failed round still counts and the model saw a failure note.
	assert.Equal(t, 1, result.Metadata.SearchRounds)
	assert.Equal(t, 0, result.Metadata.RetrievedChunks)
	secondCall := model.calls[1]
	assert.Contains(t, secondCall.Turns[2].Content, "Search failed")

	// No evidence means no sources and no markers.
	assert.Empty(t, result.Sources)
	assert.Equal(t, "Answer without evidence.", result.Content)
}

func TestGenerate_ConcurrentCallsInOneRound(t *testing.T) {
	model := &mockModelClient{responses: []scriptedResponse{
		toolUseResponse(
			searchCall("t1", "first query"),
			searchCall("t2", "second query"),
		),
		finalResponse("Done."),
	}}
	retrieval := &mockRetrieval{results: evidenceResults()}
	orch := NewOrchestrator(model, retrieval, NewCitationProcessor())

	result, err := orch.GenerateWithRetrieval(context.Background(), genRequest())
	require.NoError(t, err)

	// Two calls in one round is still one round against the cap.
	assert.Equal(t, 1, result.Metadata.SearchRounds)
	assert.Len(t, retrieval.queries, 2)

	// One tool_result turn per call, in call order.
	secondCall := model.calls[1]
	require.Len(t, secondCall.Turns, 4)
	assert.Equal(t, "t1", secondCall.Turns[2].ToolCallID)
	assert.Equal(t, "t2", secondCall.Turns[3].ToolCallID)

	// Identical results from both calls dedupe to one chunk.
	assert.Equal(t, 1, result.Metadata.RetrievedChunks)
}

func TestGenerate_AccumulatedResultsDedupedAcrossRounds(t *testing.T) {
	model := &mockModelClient{responses: []scriptedResponse{
		toolUseResponse(searchCall("t1", "first")),
		toolUseResponse(searchCall("t2", "second")),
		finalResponse("Done."),
	}}
	retrieval := &mockRetrieval{results: evidenceResults()}
	orch := NewOrchestrator(model, retrieval, NewCitationProcessor())

	result, err := orch.GenerateWithRetrieval(context.Background(), genRequest())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Metadata.SearchRounds)
	assert.Equal(t, 1, result.Metadata.RetrievedChunks)
}

func TestGenerate_MissingOwner(t *testing.T) {
	orch := NewOrchestrator(&mockModelClient{}, &mockRetrieval{}, NewCitationProcessor())

	_, err := orch.GenerateWithRetrieval(context.Background(), domain.GenerationRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestGenerate_NilModel(t *testing.T) {
	orch := NewOrchestrator(nil, &mockRetrieval{}, NewCitationProcessor())

	_, err := orch.GenerateWithRetrieval(context.Background(), genRequest())
	assert.ErrorIs(t, err, domain.ErrGenerationFailed)
}

func TestGenerate_FormInputsRendered(t *testing.T) {
	model := &mockModelClient{responses: []scriptedResponse{finalResponse("ok")}}
	orch := NewOrchestrator(model, &mockRetrieval{}, NewCitationProcessor())

	_, err := orch.GenerateWithRetrieval(context.Background(), genRequest())
	require.NoError(t, err)

	first := model.calls[0]
	assert.Contains(t, first.Turns[0].Content, "topic: billing migration")
	assert.Contains(t, first.Turns[0].Content, "tone: formal")
	assert.Contains(t, first.System, "You write status updates.")
	assert.Contains(t, first.System, "search_documents")
}
