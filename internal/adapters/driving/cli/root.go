// Package cli implements the scribe command-line interface. Commands
// are thin adapters over the core services; all business logic lives
// in internal/core.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/scribe/internal/adapters/driven/ai"
	"github.com/custodia-labs/scribe/internal/adapters/driven/config/file"
	"github.com/custodia-labs/scribe/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/scribe/internal/core/domain"
	"github.com/custodia-labs/scribe/internal/core/ports/driven"
	"github.com/custodia-labs/scribe/internal/core/ports/driving"
	"github.com/custodia-labs/scribe/internal/core/services"
	"github.com/custodia-labs/scribe/internal/logger"
	"github.com/custodia-labs/scribe/internal/postprocessors"
)

// version is set at build time via -ldflags.
var version = "dev"

// Shared services, wired in initServices and used by the commands.
var (
	configStore  driven.ConfigStore
	promptStore  driven.PromptStore
	docStore     driven.DocumentStore
	indexer      driving.Indexer
	retrieval    driving.Retrieval
	generator    driving.Generator
	initWarnings []string

	aiResult *ai.InitResult
	sqlStore *sqlite.Store
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "scribe",
	Short: "Retrieval-augmented writing over your own documents",
	Long: `Scribe indexes your documents and drives a generative model that
searches them before writing, so every factual claim in the output can
be traced back to a source passage.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)
		// The settings and version commands must work before any
		// backend is reachable.
		switch cmd.Name() {
		case "version", "help", "completion":
			return nil
		}
		if cmd.Name() == "settings" || (cmd.Parent() != nil && cmd.Parent().Name() == "settings") {
			return initConfigOnly()
		}
		return initServices()
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		teardown()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging to stderr")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		teardown()
		os.Exit(1)
	}
}

// initConfigOnly loads only the config store, for settings commands.
func initConfigOnly() error {
	var err error
	configStore, err = file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	return nil
}

// initServices wires the full service graph from configuration.
// Missing AI providers degrade features instead of failing startup:
// without embeddings search falls back to keyword mode, without a
// model only generate is unavailable.
func initServices() error {
	if err := initConfigOnly(); err != nil {
		return err
	}

	var err error
	promptStore, err = file.NewPromptStore("")
	if err != nil {
		return fmt.Errorf("loading prompts: %w", err)
	}

	sqlStore, err = sqlite.NewStore("")
	if err != nil {
		return fmt.Errorf("opening document store: %w", err)
	}
	docStore = sqlStore

	embeddingSettings := loadEmbeddingSettings()
	modelSettings := loadModelSettings()
	vectorSettings := loadVectorSettings()

	aiResult = &ai.InitResult{}

	aiResult.EmbeddingService, err = ai.CreateAndValidateEmbeddingService(embeddingSettings)
	if err != nil {
		logger.Warn("Embedding service unavailable: %v", err)
		initWarnings = append(initWarnings, err.Error())
	}

	aiResult.ModelClient, err = ai.CreateAndValidateModelClient(modelSettings)
	if err != nil {
		logger.Warn("Model client unavailable: %v", err)
		initWarnings = append(initWarnings, err.Error())
	}

	if aiResult.EmbeddingService != nil {
		aiResult.VectorIndex, err = ai.CreateVectorIndex(vectorSettings, aiResult.EmbeddingService.Dimensions())
		if err != nil {
			logger.Warn("Vector index unavailable: %v", err)
			initWarnings = append(initWarnings, err.Error())
		}
	}

	pipeline := postprocessors.DefaultPipeline(loadChunkingSettings())

	indexer = services.NewIndexerService(pipeline, aiResult.EmbeddingService, aiResult.VectorIndex, docStore)

	retrievalSvc := services.NewRetrievalService(docStore, aiResult.VectorIndex, aiResult.EmbeddingService)
	retrieval = retrievalSvc

	if aiResult.ModelClient != nil {
		orch := services.NewOrchestrator(aiResult.ModelClient, retrievalSvc, services.NewCitationProcessor())
		orch.SetPromptStore(promptStore)
		if maxTokens := configStore.GetInt("model.max_tokens"); maxTokens > 0 {
			orch.SetMaxTokens(maxTokens)
		}
		generator = orch
	}

	return nil
}

// teardown releases all shared resources.
func teardown() {
	if aiResult != nil {
		aiResult.Close()
		aiResult = nil
	}
	if sqlStore != nil {
		sqlStore.Close()
		sqlStore = nil
	}
}

// loadEmbeddingSettings reads embedding configuration.
func loadEmbeddingSettings() *domain.EmbeddingSettings {
	return &domain.EmbeddingSettings{
		Provider:   configStore.GetString("embedding.provider"),
		Model:      configStore.GetString("embedding.model"),
		APIKey:     firstNonEmpty(os.Getenv("SCRIBE_EMBEDDING_API_KEY"), configStore.GetString("embedding.api_key")),
		BaseURL:    configStore.GetString("embedding.base_url"),
		Dimensions: configStore.GetInt("embedding.dimensions"),
	}
}

// loadModelSettings reads model configuration.
func loadModelSettings() *domain.ModelSettings {
	return &domain.ModelSettings{
		Provider:  configStore.GetString("model.provider"),
		Model:     configStore.GetString("model.name"),
		APIKey:    firstNonEmpty(os.Getenv("SCRIBE_MODEL_API_KEY"), configStore.GetString("model.api_key")),
		BaseURL:   configStore.GetString("model.base_url"),
		MaxTokens: configStore.GetInt("model.max_tokens"),
	}
}

// loadVectorSettings reads vector index configuration.
func loadVectorSettings() *domain.VectorSettings {
	return &domain.VectorSettings{
		Backend:    configStore.GetString("vector.backend"),
		URL:        configStore.GetString("vector.url"),
		APIKey:     firstNonEmpty(os.Getenv("SCRIBE_VECTOR_API_KEY"), configStore.GetString("vector.api_key")),
		Collection: configStore.GetString("vector.collection"),
	}
}

// loadChunkingSettings reads chunking configuration.
func loadChunkingSettings() domain.ChunkingSettings {
	return domain.ChunkingSettings{
		MaxTokens:         configStore.GetInt("chunking.max_tokens"),
		OverlapTokens:     configStore.GetInt("chunking.overlap_tokens"),
		PreserveStructure: !configStore.GetBool("chunking.flat"),
	}
}

// ownerID resolves the acting owner: flag value, config, or a local
// single-user default.
func ownerID(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if v := configStore.GetString("owner"); v != "" {
		return v
	}
	return "local"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
