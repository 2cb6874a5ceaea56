package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/scribe/internal/adapters/driven/config/file"
	"github.com/custodia-labs/scribe/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/scribe/internal/adapters/driven/vector/memory"
	"github.com/custodia-labs/scribe/internal/core/domain"
	"github.com/custodia-labs/scribe/internal/core/services"
	"github.com/custodia-labs/scribe/internal/postprocessors"
)

// testEmbedder is a deterministic driven.EmbeddingService for
// command tests: each text embeds to a fixed-length hash vector.
type testEmbedder struct{}

func (testEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = hashVector(t)
	}
	return out, nil
}

func (testEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return hashVector(text), nil
}

func (testEmbedder) Dimensions() int              { return 8 }
func (testEmbedder) ModelName() string            { return "test-embedder" }
func (testEmbedder) Ping(_ context.Context) error { return nil }
func (testEmbedder) Close() error                 { return nil }

func hashVector(text string) []float32 {
	v := make([]float32, 8)
	for i, r := range text {
		v[i%8] += float32(r%13) / 13
	}
	return v
}

// testGenerator is a canned driving.Generator for command tests.
type testGenerator struct {
	result *domain.GenerationResult
	err    error
}

func (g *testGenerator) GenerateWithRetrieval(
	_ context.Context, _ domain.GenerationRequest,
) (*domain.GenerationResult, error) {
	return g.result, g.err
}

// setupTestServices wires the shared command services against
// throwaway in-memory and temp-dir backends, bypassing the normal
// config-driven bootstrap. Returns a cleanup function.
func setupTestServices(tmpDir string) (func(), error) {
	var err error
	configStore, err = file.NewConfigStore(tmpDir)
	if err != nil {
		return nil, err
	}
	promptStore, err = file.NewPromptStore(tmpDir)
	if err != nil {
		return nil, err
	}
	sqlStore, err = sqlite.NewStore(tmpDir)
	if err != nil {
		return nil, err
	}
	docStore = sqlStore

	pipeline := postprocessors.DefaultPipeline(domain.ChunkingSettings{PreserveStructure: true})
	index := memory.NewIndex()

	indexer = services.NewIndexerService(pipeline, testEmbedder{}, index, docStore)
	retrieval = services.NewRetrievalService(docStore, index, testEmbedder{})
	generator = &testGenerator{
		result: &domain.GenerationResult{Content: "stub answer"},
	}

	// Bypass config-driven init; tests wire services directly.
	savedPreRun := rootCmd.PersistentPreRunE
	savedPostRun := rootCmd.PersistentPostRun
	rootCmd.PersistentPreRunE = func(_ *cobra.Command, _ []string) error { return nil }
	rootCmd.PersistentPostRun = nil

	cleanup := func() {
		rootCmd.PersistentPreRunE = savedPreRun
		rootCmd.PersistentPostRun = savedPostRun
		teardown()
		configStore = nil
		promptStore = nil
		docStore = nil
		indexer = nil
		retrieval = nil
		generator = nil
	}
	return cleanup, nil
}
