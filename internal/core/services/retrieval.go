package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/scribe/internal/core/domain"
	"github.com/custodia-labs/scribe/internal/core/ports/driven"
	"github.com/custodia-labs/scribe/internal/core/ports/driving"
	"github.com/custodia-labs/scribe/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.Retrieval = (*RetrievalService)(nil)

// DefaultSearchLimit is the result cap when the caller does not set one.
const DefaultSearchLimit = 5

// RetrievalService composes the embedding service and vector index
// into a single search-by-query operation, with a lexical fallback
// served by the document store.
type RetrievalService struct {
	docStore         driven.DocumentStore
	vectorIndex      driven.VectorIndex
	embeddingService driven.EmbeddingService

	// sparseRatio divides the limit to decide when hybrid search
	// considers vector results too sparse and merges in keyword
	// matches. Default 2 (fewer than limit/2 hits triggers merge).
	sparseRatio int
}

// NewRetrievalService creates a new retrieval service.
// The vectorIndex and embeddingService parameters are optional (can
// be nil); without them every mode degrades to keyword search.
func NewRetrievalService(
	docStore driven.DocumentStore,
	vectorIndex driven.VectorIndex,
	embeddingService driven.EmbeddingService,
) *RetrievalService {
	return &RetrievalService{
		docStore:         docStore,
		vectorIndex:      vectorIndex,
		embeddingService: embeddingService,
		sparseRatio:      2,
	}
}

// SetSparseRatio tunes the hybrid fallback trigger.
func (s *RetrievalService) SetSparseRatio(r int) {
	if r > 0 {
		s.sparseRatio = r
	}
}

// Search performs retrieval for the given query.
// "No results" is an empty list, never an error. Errors indicate
// upstream transport failure only; the caller treats those as a
// failed tool call, not a fatal generation error.
func (s *RetrievalService) Search(
	ctx context.Context, query string, opts domain.SearchOptions,
) (*domain.SearchResponse, error) {
	logger.Section("Retrieval")
	logger.Debug("Query: %q", query)

	mode := opts.Mode
	if mode == "" {
		mode = domain.SearchModeHybrid
	}
	if !mode.IsValid() {
		return nil, fmt.Errorf("%w: unknown search mode %q", domain.ErrInvalidInput, opts.Mode)
	}

	query = strings.TrimSpace(query)
	if query == "" {
		logger.Debug("Empty query, returning no results")
		return &domain.SearchResponse{Results: []domain.SearchResult{}, SearchType: mode}, nil
	}
	if opts.OwnerID == "" {
		return nil, fmt.Errorf("%w: owner id is required", domain.ErrInvalidInput)
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	threshold := opts.ScoreThreshold
	if threshold == 0 {
		threshold = domain.DefaultScoreThreshold
	}

	logger.Debug("Mode: %s, Limit: %d, Threshold: %.2f", mode, limit, threshold)

	var results []domain.SearchResult
	var err error

	switch mode {
	case domain.SearchModeVector:
		results, err = s.vectorSearch(ctx, query, opts, limit, threshold)
	case domain.SearchModeKeyword:
		results, err = s.keywordSearch(ctx, query, opts, limit)
	case domain.SearchModeHybrid:
		results, err = s.hybridSearch(ctx, query, opts, limit, threshold)
	}
	if err != nil {
		logger.Warn("Search failed: %v", err)
		return nil, err
	}

	if len(results) > limit {
		results = results[:limit]
	}

	logger.Info("Results: %d (%s)", len(results), mode)
	return &domain.SearchResponse{Results: results, SearchType: mode}, nil
}

// vectorSearch embeds the query and searches the vector index.
// An unavailable index degrades to an empty result set.
func (s *RetrievalService) vectorSearch(
	ctx context.Context, query string, opts domain.SearchOptions, limit int, threshold float64,
) ([]domain.SearchResult, error) {
	if s.vectorIndex == nil || s.embeddingService == nil {
		logger.Warn("Vector search unavailable: service not configured")
		return []domain.SearchResult{}, nil
	}
	if !s.vectorIndex.IsAvailable(ctx) {
		logger.Warn("Vector index liveness probe failed, returning no results")
		return []domain.SearchResult{}, nil
	}

	vector, err := s.embeddingService.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %w", domain.ErrRetrievalTransport, err)
	}
	logger.Debug("Query embedding: %d dimensions", len(vector))

	hits, err := s.vectorIndex.Search(ctx, vector, driven.VectorFilter{
		OwnerID:        opts.OwnerID,
		DocumentIDs:    opts.DocumentIDs,
		Limit:          limit,
		ScoreThreshold: threshold,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: vector search: %w", domain.ErrRetrievalTransport, err)
	}
	logger.Debug("Vector search: %d hits", len(hits))

	results := make([]domain.SearchResult, len(hits))
	for i, hit := range hits {
		results[i] = domain.SearchResult{
			DocumentID: hit.DocumentID,
			ChunkIndex: hit.ChunkIndex,
			ChunkText:  hit.Text,
			Score:      hit.Score,
			Metadata:   hit.Metadata,
		}
	}
	return results, nil
}

// keywordSearch performs lexical matching via the document store.
func (s *RetrievalService) keywordSearch(
	ctx context.Context, query string, opts domain.SearchOptions, limit int,
) ([]domain.SearchResult, error) {
	if s.docStore == nil {
		logger.Warn("Keyword search unavailable: document store is nil")
		return []domain.SearchResult{}, nil
	}

	hits, err := s.docStore.KeywordSearch(ctx, query, opts.OwnerID, opts.DocumentIDs, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: keyword search: %w", domain.ErrRetrievalTransport, err)
	}
	logger.Debug("Keyword search: %d hits", len(hits))

	results := make([]domain.SearchResult, len(hits))
	for i, hit := range hits {
		results[i] = domain.SearchResult{
			DocumentID: hit.DocumentID,
			ChunkIndex: hit.ChunkIndex,
			ChunkText:  hit.Text,
			Score:      hit.Score,
		}
	}
	return results, nil
}

// hybridSearch runs vector search and merges in keyword matches when
// vector results are sparse (fewer than limit/sparseRatio hits).
func (s *RetrievalService) hybridSearch(
	ctx context.Context, query string, opts domain.SearchOptions, limit int, threshold float64,
) ([]domain.SearchResult, error) {
	vectorResults, err := s.vectorSearch(ctx, query, opts, limit, threshold)
	if err != nil {
		return nil, err
	}

	if len(vectorResults) >= limit/s.sparseRatio && len(vectorResults) > 0 {
		return vectorResults, nil
	}

	logger.Debug("Hybrid: vector results sparse (%d), merging keyword matches", len(vectorResults))
	keywordResults, err := s.keywordSearch(ctx, query, opts, limit)
	if err != nil {
		// Vector results are still usable; a keyword failure only
		// matters when both paths fail.
		if len(vectorResults) > 0 {
			logger.Warn("Hybrid: keyword search failed, using vector results only: %v", err)
			return vectorResults, nil
		}
		return nil, err
	}

	return mergeResults(vectorResults, keywordResults, limit), nil
}

// mergeResults combines two result lists, deduplicated by
// (documentID, chunkIndex), ordered descending by score with stable
// ties, capped at limit.
func mergeResults(a, b []domain.SearchResult, limit int) []domain.SearchResult {
	type key struct {
		doc   string
		chunk int
	}
	seen := make(map[key]bool, len(a)+len(b))
	merged := make([]domain.SearchResult, 0, len(a)+len(b))

	for _, r := range append(append([]domain.SearchResult{}, a...), b...) {
		k := key{r.DocumentID, r.ChunkIndex}
		if seen[k] {
			continue
		}
		seen[k] = true
		merged = append(merged, r)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Score > merged[j].Score
	})

	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}
