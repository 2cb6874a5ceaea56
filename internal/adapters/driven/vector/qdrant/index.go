// Package qdrant provides a vector index adapter using the Qdrant
// REST API. It assumes cosine distance and creates the collection on
// first write if missing.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/scribe/internal/core/ports/driven"
	"github.com/custodia-labs/scribe/internal/logger"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Default configuration values.
const (
	DefaultURL        = "http://localhost:6333"
	DefaultCollection = "scribe_chunks"
	DefaultTimeout    = 15 * time.Second
)

// pointNamespace derives deterministic point UUIDs from
// (documentID, chunkIndex), which makes upserts idempotent.
var pointNamespace = uuid.MustParse("3b9c34e2-8f1d-4a6b-9c0e-5d7f2a81c4e6")

// Config holds configuration for the Qdrant index.
type Config struct {
	// URL is the Qdrant endpoint (default: http://localhost:6333).
	URL string

	// APIKey authenticates against hosted Qdrant (optional).
	APIKey string

	// Collection is the logical collection name (default: scribe_chunks).
	Collection string

	// Dimensions is the embedding vector size (required). Fixed for
	// the collection's lifetime.
	Dimensions int

	// Timeout is the request timeout (default: 15s).
	Timeout time.Duration
}

// Index is a REST client to Qdrant.
type Index struct {
	client     *http.Client
	url        string
	apiKey     string
	collection string
	dimensions int

	ensureOnce sync.Once
	ensureErr  error
}

// NewIndex creates a new Qdrant-backed vector index.
func NewIndex(cfg Config) (*Index, error) {
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("qdrant: dimensions must be positive")
	}
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Index{
		client:     &http.Client{Timeout: cfg.Timeout},
		url:        strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		dimensions: cfg.Dimensions,
	}, nil
}

// pointID derives the stable point identifier for a chunk.
func pointID(documentID string, chunkIndex int) string {
	return uuid.NewSHA1(pointNamespace, []byte(fmt.Sprintf("%s#%d", documentID, chunkIndex))).String()
}

// ensureCollection creates the collection if it does not exist.
// Qdrant returns 409 when it already exists with the same schema.
func (x *Index) ensureCollection(ctx context.Context) error {
	x.ensureOnce.Do(func() {
		body := map[string]any{
			"vectors": map[string]any{
				"size":     x.dimensions,
				"distance": "Cosine",
			},
		}
		status, respBody, err := x.do(ctx, http.MethodPut,
			fmt.Sprintf("/collections/%s", x.collection), body)
		if err != nil {
			x.ensureErr = err
			return
		}
		if status != http.StatusOK && status != http.StatusConflict {
			x.ensureErr = fmt.Errorf("qdrant: create collection (status %d): %s", status, respBody)
		}
	})
	return x.ensureErr
}

// Upsert writes points, idempotent by (documentID, chunkIndex): the
// point ID is derived deterministically from the pair, so re-indexing
// identical content overwrites rather than duplicates.
func (x *Index) Upsert(ctx context.Context, points []driven.VectorPoint) error {
	if len(points) == 0 {
		return nil
	}
	if err := x.ensureCollection(ctx); err != nil {
		return err
	}

	apiPoints := make([]map[string]any, len(points))
	for i, p := range points {
		apiPoints[i] = map[string]any{
			"id":     pointID(p.DocumentID, p.ChunkIndex),
			"vector": p.Vector,
			"payload": map[string]any{
				"document_id": p.DocumentID,
				"chunk_index": p.ChunkIndex,
				"text":        p.Text,
				"owner_id":    p.OwnerID,
				"metadata":    p.Metadata,
			},
		}
	}

	status, body, err := x.do(ctx, http.MethodPut,
		fmt.Sprintf("/collections/%s/points?wait=true", x.collection),
		map[string]any{"points": apiPoints})
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("qdrant: upsert (status %d): %s", status, body)
	}

	logger.Debug("Qdrant: upserted %d points into %s", len(points), x.collection)
	return nil
}

// searchResponse is the Qdrant points/search response format.
type searchResponse struct {
	Result []struct {
		Score   float64        `json:"score"`
		Payload map[string]any `json:"payload"`
	} `json:"result"`
	Status any `json:"status"`
}

// Search returns hits ranked descending by cosine similarity,
// filtered server-side by owner and optional document allowlist.
func (x *Index) Search(ctx context.Context, vector []float32, filter driven.VectorFilter) ([]driven.VectorHit, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 5
	}

	must := []map[string]any{
		{"key": "owner_id", "match": map[string]any{"value": filter.OwnerID}},
	}
	if len(filter.DocumentIDs) > 0 {
		must = append(must, map[string]any{
			"key":   "document_id",
			"match": map[string]any{"any": filter.DocumentIDs},
		})
	}

	req := map[string]any{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
		"filter":       map[string]any{"must": must},
	}
	if filter.ScoreThreshold > 0 {
		req["score_threshold"] = filter.ScoreThreshold
	}

	status, body, err := x.do(ctx, http.MethodPost,
		fmt.Sprintf("/collections/%s/points/search", x.collection), req)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("qdrant: search (status %d): %s", status, body)
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("qdrant: decode search response: %w", err)
	}

	hits := make([]driven.VectorHit, 0, len(resp.Result))
	for _, r := range resp.Result {
		hit := driven.VectorHit{Score: r.Score}
		if v, ok := r.Payload["document_id"].(string); ok {
			hit.DocumentID = v
		}
		if v, ok := r.Payload["chunk_index"].(float64); ok {
			hit.ChunkIndex = int(v)
		}
		if v, ok := r.Payload["text"].(string); ok {
			hit.Text = v
		}
		if v, ok := r.Payload["metadata"].(map[string]any); ok {
			hit.Metadata = v
		}
		hits = append(hits, hit)
	}

	return hits, nil
}

// DeleteByDocument removes every point for the document in one
// filtered delete, so a reader never observes a partial removal
// across separate calls.
func (x *Index) DeleteByDocument(ctx context.Context, documentID string) error {
	if err := x.ensureCollection(ctx); err != nil {
		return err
	}

	req := map[string]any{
		"filter": map[string]any{
			"must": []map[string]any{
				{"key": "document_id", "match": map[string]any{"value": documentID}},
			},
		},
	}

	status, body, err := x.do(ctx, http.MethodPost,
		fmt.Sprintf("/collections/%s/points/delete?wait=true", x.collection), req)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("qdrant: delete (status %d): %s", status, body)
	}

	logger.Debug("Qdrant: deleted points for document %s", documentID)
	return nil
}

// IsAvailable probes the Qdrant readiness endpoint.
func (x *Index) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, x.url+"/readyz", nil)
	if err != nil {
		return false
	}
	if x.apiKey != "" {
		req.Header.Set("api-key", x.apiKey)
	}

	resp, err := x.client.Do(req)
	if err != nil {
		logger.Warn("Qdrant: liveness probe failed: %v", err)
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body) //nolint:errcheck

	return resp.StatusCode == http.StatusOK
}

// Close releases resources.
func (x *Index) Close() error {
	x.client.CloseIdleConnections()
	return nil
}

// do issues one JSON request and returns the status and body.
func (x *Index) do(ctx context.Context, method, path string, payload any) (int, []byte, error) {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("qdrant: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, x.url+path, bytes.NewReader(jsonBody))
	if err != nil {
		return 0, nil, fmt.Errorf("qdrant: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if x.apiKey != "" {
		req.Header.Set("api-key", x.apiKey)
	}

	resp, err := x.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("qdrant: send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("qdrant: read response: %w", err)
	}

	return resp.StatusCode, body, nil
}
