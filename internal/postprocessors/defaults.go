package postprocessors

import (
	"github.com/custodia-labs/scribe/internal/core/domain"
	"github.com/custodia-labs/scribe/internal/postprocessors/chunker"
)

// DefaultPipeline builds the standard indexing pipeline from chunking
// settings. Currently a single token-bounded chunker.
func DefaultPipeline(settings domain.ChunkingSettings) *Pipeline {
	opts := []chunker.Option{
		chunker.WithPreserveStructure(settings.PreserveStructure),
	}
	if settings.MaxTokens > 0 {
		opts = append(opts, chunker.WithMaxTokens(settings.MaxTokens))
	}
	if settings.OverlapTokens > 0 {
		opts = append(opts, chunker.WithOverlapTokens(settings.OverlapTokens))
	}
	return NewPipeline(chunker.New(opts...))
}
