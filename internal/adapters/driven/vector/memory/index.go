// Package memory provides an in-memory vector index. It is used in
// tests and for small corpora where running Qdrant is not worth it.
package memory

import (
	"context"
	"math"
	"sort"
	"strconv"
	"sync"

	"github.com/custodia-labs/scribe/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Index stores points in memory and scans them with cosine
// similarity. Safe for concurrent use.
type Index struct {
	mu      sync.RWMutex
	points  map[string]entry
	nextSeq uint64
}

// entry pairs a point with its insertion sequence number, the
// tie-break for equal-score search hits.
type entry struct {
	point driven.VectorPoint
	seq   uint64
}

// NewIndex creates an empty in-memory index.
func NewIndex() *Index {
	return &Index{points: make(map[string]entry)}
}

// key identifies a point by (documentID, chunkIndex).
type key struct {
	documentID string
	chunkIndex int
}

func (k key) String() string {
	return k.documentID + "#" + strconv.Itoa(k.chunkIndex)
}

// Upsert writes points, replacing any existing point with the same
// (documentID, chunkIndex). A replaced point keeps its original
// insertion sequence so re-indexing does not reorder ties.
func (x *Index) Upsert(_ context.Context, points []driven.VectorPoint) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	for _, p := range points {
		k := key{p.DocumentID, p.ChunkIndex}.String()
		seq := x.nextSeq
		if existing, ok := x.points[k]; ok {
			seq = existing.seq
		} else {
			x.nextSeq++
		}
		x.points[k] = entry{point: p, seq: seq}
	}
	return nil
}

// Search scans all points, filters by owner and document allowlist,
// and returns the top hits by cosine similarity.
func (x *Index) Search(_ context.Context, vector []float32, filter driven.VectorFilter) ([]driven.VectorHit, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 5
	}

	allowed := make(map[string]bool, len(filter.DocumentIDs))
	for _, id := range filter.DocumentIDs {
		allowed[id] = true
	}

	type scored struct {
		hit driven.VectorHit
		seq uint64
	}

	x.mu.RLock()
	matches := make([]scored, 0, len(x.points))
	for _, e := range x.points {
		p := e.point
		if p.OwnerID != filter.OwnerID {
			continue
		}
		if len(allowed) > 0 && !allowed[p.DocumentID] {
			continue
		}
		score := cosine(vector, p.Vector)
		if filter.ScoreThreshold > 0 && score < filter.ScoreThreshold {
			continue
		}
		matches = append(matches, scored{
			hit: driven.VectorHit{
				DocumentID: p.DocumentID,
				ChunkIndex: p.ChunkIndex,
				Text:       p.Text,
				Score:      score,
				Metadata:   p.Metadata,
			},
			seq: e.seq,
		})
	}
	x.mu.RUnlock()

	// Map iteration order is random; the insertion sequence makes
	// equal-score ordering deterministic even when the limit cuts
	// inside a tie group.
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].hit.Score != matches[j].hit.Score {
			return matches[i].hit.Score > matches[j].hit.Score
		}
		return matches[i].seq < matches[j].seq
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}

	hits := make([]driven.VectorHit, len(matches))
	for i, m := range matches {
		hits[i] = m.hit
	}
	return hits, nil
}

// DeleteByDocument removes all points belonging to the document.
func (x *Index) DeleteByDocument(_ context.Context, documentID string) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	for k, e := range x.points {
		if e.point.DocumentID == documentID {
			delete(x.points, k)
		}
	}
	return nil
}

// IsAvailable always reports true for the in-memory index.
func (x *Index) IsAvailable(_ context.Context) bool {
	return true
}

// Close releases resources.
func (x *Index) Close() error {
	return nil
}

// Len reports the number of stored points.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.points)
}

// cosine computes cosine similarity between two vectors. Mismatched
// lengths or zero vectors score 0.
func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
