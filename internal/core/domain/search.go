package domain

// SearchMode selects the retrieval strategy for a query.
type SearchMode string

// Search modes.
const (
	// SearchModeVector uses embedding similarity only.
	SearchModeVector SearchMode = "vector"

	// SearchModeKeyword uses lexical matching only.
	SearchModeKeyword SearchMode = "keyword"

	// SearchModeHybrid runs vector search and merges in keyword
	// matches when vector results are sparse. This is the default.
	SearchModeHybrid SearchMode = "hybrid"
)

// IsValid reports whether the mode is one of the defined modes.
func (m SearchMode) IsValid() bool {
	switch m {
	case SearchModeVector, SearchModeKeyword, SearchModeHybrid:
		return true
	}
	return false
}

// DefaultScoreThreshold is the similarity floor below which vector
// matches are treated as noise and excluded.
const DefaultScoreThreshold = 0.3

// SearchOptions configures a retrieval query.
type SearchOptions struct {
	// OwnerID scopes results to a single owner (required).
	OwnerID string

	// DocumentIDs optionally restricts results to an allowlist of
	// documents. Empty means all of the owner's documents.
	DocumentIDs []string

	// Limit is the maximum number of results (default 5).
	Limit int

	// Mode is the retrieval strategy (default hybrid).
	Mode SearchMode

	// ScoreThreshold is the similarity floor for vector matches.
	// Zero means DefaultScoreThreshold.
	ScoreThreshold float64
}

// SearchResult represents a single retrieval hit.
type SearchResult struct {
	// DocumentID is the source document of the matched chunk.
	DocumentID string

	// ChunkIndex is the position of the matched chunk within its
	// document.
	ChunkIndex int

	// ChunkText is the matched chunk content.
	ChunkText string

	// Score is the relevance score; cosine similarity for vector
	// hits, a lexical score for keyword hits. Higher is better.
	Score float64

	// Metadata carries the chunk metadata stored at index time.
	Metadata map[string]any
}

// SearchResponse is the result of one retrieval operation.
type SearchResponse struct {
	// Results are ordered descending by score; ties keep insertion
	// order.
	Results []SearchResult

	// SearchType records the strategy that produced the results
	// ("vector", "keyword" or "hybrid").
	SearchType SearchMode
}
