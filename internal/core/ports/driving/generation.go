package driving

import (
	"context"

	"github.com/custodia-labs/scribe/internal/core/domain"
)

// Generator produces retrieval-augmented answers.
type Generator interface {
	// GenerateWithRetrieval drives a bounded tool-use conversation
	// with the model and returns a fully processed answer with
	// citations, or an error - never a half-built answer.
	GenerateWithRetrieval(ctx context.Context, req domain.GenerationRequest) (*domain.GenerationResult, error)
}
