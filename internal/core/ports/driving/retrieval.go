package driving

import (
	"context"

	"github.com/custodia-labs/scribe/internal/core/domain"
)

// Retrieval searches indexed documents by natural-language query.
type Retrieval interface {
	// Search resolves the requested mode to a strategy and returns
	// ranked results. "No results" is an empty list, never an error;
	// errors indicate upstream transport failure only.
	Search(ctx context.Context, query string, opts domain.SearchOptions) (*domain.SearchResponse, error)
}
