package services

import (
	"context"
	"strings"
	"sync"

	"github.com/custodia-labs/scribe/internal/core/domain"
	"github.com/custodia-labs/scribe/internal/core/ports/driven"
)

// --- Mock implementations shared across service tests ---

// mockEmbeddingService implements driven.EmbeddingService.
type mockEmbeddingService struct {
	dimensions int
	embedErr   error
	queryCalls int
	docCalls   int
}

func (m *mockEmbeddingService) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	m.docCalls++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = make([]float32, m.dims())
	}
	return vectors, nil
}

func (m *mockEmbeddingService) EmbedQuery(_ context.Context, _ string) ([]float32, error) {
	m.queryCalls++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return make([]float32, m.dims()), nil
}

func (m *mockEmbeddingService) dims() int {
	if m.dimensions == 0 {
		return 8
	}
	return m.dimensions
}

func (m *mockEmbeddingService) Dimensions() int            { return m.dims() }
func (m *mockEmbeddingService) ModelName() string          { return "mock-embed" }
func (m *mockEmbeddingService) Ping(_ context.Context) error { return nil }
func (m *mockEmbeddingService) Close() error               { return nil }

// mockVectorIndex implements driven.VectorIndex.
type mockVectorIndex struct {
	available bool
	hits      []driven.VectorHit
	points    []driven.VectorPoint
	searchErr error
	upsertErr error
	deleteErr error
	deleted   []string
}

func (m *mockVectorIndex) Upsert(_ context.Context, points []driven.VectorPoint) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.points = append(m.points, points...)
	return nil
}

func (m *mockVectorIndex) Search(_ context.Context, _ []float32, filter driven.VectorFilter) ([]driven.VectorHit, error) {
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	hits := m.hits
	if filter.Limit > 0 && len(hits) > filter.Limit {
		hits = hits[:filter.Limit]
	}
	return hits, nil
}

func (m *mockVectorIndex) DeleteByDocument(_ context.Context, documentID string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, documentID)
	return nil
}

func (m *mockVectorIndex) IsAvailable(_ context.Context) bool { return m.available }
func (m *mockVectorIndex) Close() error                       { return nil }

// mockDocStore implements driven.DocumentStore.
type mockDocStore struct {
	docs        map[string]domain.Document
	chunks      map[string][]domain.Chunk
	keywordHits []driven.KeywordHit
	keywordErr  error
	saveErr     error
}

func newMockDocStore() *mockDocStore {
	return &mockDocStore{
		docs:   make(map[string]domain.Document),
		chunks: make(map[string][]domain.Chunk),
	}
}

func (m *mockDocStore) SaveDocument(_ context.Context, doc domain.Document) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.docs[doc.ID] = doc
	return nil
}

func (m *mockDocStore) SaveChunks(_ context.Context, documentID string, chunks []domain.Chunk) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.chunks[documentID] = chunks
	return nil
}

func (m *mockDocStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	doc, ok := m.docs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

func (m *mockDocStore) ListDocuments(_ context.Context, ownerID string) ([]domain.Document, error) {
	var out []domain.Document
	for _, d := range m.docs {
		if d.OwnerID == ownerID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *mockDocStore) DeleteDocument(_ context.Context, id string) error {
	delete(m.docs, id)
	delete(m.chunks, id)
	return nil
}

func (m *mockDocStore) KeywordSearch(_ context.Context, query, _ string, _ []string, limit int) ([]driven.KeywordHit, error) {
	if m.keywordErr != nil {
		return nil, m.keywordErr
	}
	var hits []driven.KeywordHit
	for _, h := range m.keywordHits {
		if query == "" || strings.Contains(strings.ToLower(h.Text), strings.ToLower(query)) {
			hits = append(hits, h)
		}
	}
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func (m *mockDocStore) Close() error { return nil }

// mockModelClient implements driven.ModelClient with a scripted
// sequence of responses.
type mockModelClient struct {
	responses []scriptedResponse
	calls     []driven.ModelRequest
}

type scriptedResponse struct {
	resp *domain.ModelResponse
	err  error
}

func (m *mockModelClient) Complete(_ context.Context, req driven.ModelRequest) (*domain.ModelResponse, error) {
	m.calls = append(m.calls, req)
	if len(m.responses) == 0 {
		return nil, context.Canceled
	}
	next := m.responses[0]
	m.responses = m.responses[1:]
	return next.resp, next.err
}

func (m *mockModelClient) ModelName() string            { return "mock-model" }
func (m *mockModelClient) Ping(_ context.Context) error { return nil }
func (m *mockModelClient) Close() error                 { return nil }

func toolUseResponse(calls ...domain.ToolCall) scriptedResponse {
	return scriptedResponse{resp: &domain.ModelResponse{
		StopReason: domain.StopReasonToolUse,
		ToolCalls:  calls,
	}}
}

func finalResponse(text string) scriptedResponse {
	return scriptedResponse{resp: &domain.ModelResponse{
		StopReason: domain.StopReasonEnd,
		Content:    text,
	}}
}

// mockRetrieval implements driving.Retrieval.
// Tool calls within a round run concurrently, so access is locked.
type mockRetrieval struct {
	mu      sync.Mutex
	results []domain.SearchResult
	err     error
	queries []string
}

func (m *mockRetrieval) Search(_ context.Context, query string, opts domain.SearchOptions) (*domain.SearchResponse, error) {
	m.mu.Lock()
	m.queries = append(m.queries, query)
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	mode := opts.Mode
	if mode == "" {
		mode = domain.SearchModeHybrid
	}
	return &domain.SearchResponse{Results: m.results, SearchType: mode}, nil
}
