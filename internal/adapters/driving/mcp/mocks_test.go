package mcp

import (
	"context"

	"github.com/custodia-labs/scribe/internal/core/domain"
	"github.com/custodia-labs/scribe/internal/core/ports/driven"
)

// mockRetrieval is a mock implementation of driving.Retrieval.
type mockRetrieval struct {
	resp     *domain.SearchResponse
	err      error
	lastOpts domain.SearchOptions
}

func (m *mockRetrieval) Search(
	_ context.Context,
	_ string,
	opts domain.SearchOptions,
) (*domain.SearchResponse, error) {
	m.lastOpts = opts
	if m.err != nil {
		return nil, m.err
	}
	if m.resp != nil {
		return m.resp, nil
	}
	return &domain.SearchResponse{SearchType: domain.SearchModeHybrid}, nil
}

// mockGenerator is a mock implementation of driving.Generator.
type mockGenerator struct {
	result  *domain.GenerationResult
	err     error
	lastReq domain.GenerationRequest
}

func (m *mockGenerator) GenerateWithRetrieval(
	_ context.Context,
	req domain.GenerationRequest,
) (*domain.GenerationResult, error) {
	m.lastReq = req
	return m.result, m.err
}

// mockDocumentStore is a mock implementation of driven.DocumentStore.
type mockDocumentStore struct {
	documents []domain.Document
	document  *domain.Document
	err       error
}

func (m *mockDocumentStore) SaveDocument(_ context.Context, _ domain.Document) error {
	return m.err
}

func (m *mockDocumentStore) SaveChunks(_ context.Context, _ string, _ []domain.Chunk) error {
	return m.err
}

func (m *mockDocumentStore) GetDocument(_ context.Context, _ string) (*domain.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.document == nil {
		return nil, domain.ErrNotFound
	}
	return m.document, nil
}

func (m *mockDocumentStore) ListDocuments(_ context.Context, _ string) ([]domain.Document, error) {
	return m.documents, m.err
}

func (m *mockDocumentStore) DeleteDocument(_ context.Context, _ string) error {
	return m.err
}

func (m *mockDocumentStore) KeywordSearch(
	_ context.Context, _ string, _ string, _ []string, _ int,
) ([]driven.KeywordHit, error) {
	return nil, m.err
}

func (m *mockDocumentStore) Close() error {
	return nil
}
