package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/scribe/internal/adapters/driven/ai"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure providers, the vector backend and chunking.

Well-known keys:
  owner                     default owner id
  embedding.provider        openai or ollama
  embedding.model           embedding model name
  embedding.api_key         provider API key (or SCRIBE_EMBEDDING_API_KEY)
  embedding.base_url        provider endpoint override
  model.provider            anthropic or openai
  model.name                chat model name
  model.api_key             provider API key (or SCRIBE_MODEL_API_KEY)
  model.max_tokens          per-step completion cap
  vector.backend            qdrant or memory
  vector.url                Qdrant endpoint
  vector.collection         Qdrant collection name
  chunking.max_tokens       chunk size bound (default 600)
  chunking.overlap_tokens   chunk overlap (default 150)`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Print one setting",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsGet,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a setting",
	Long: `Sets a configuration value and persists it immediately. Setting a
provider key validates connectivity against the configured credentials.`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

// settingsSkipValidate disables the connectivity check on set.
var settingsSkipValidate bool

func init() {
	settingsSetCmd.Flags().BoolVar(&settingsSkipValidate, "no-validate", false, "skip provider connectivity validation")

	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsGetCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	embedding := loadEmbeddingSettings()
	model := loadModelSettings()
	vector := loadVectorSettings()

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", orUnset(embedding.Provider))
	cmd.Printf("  Model: %s\n", orUnset(embedding.Model))
	cmd.Printf("  API Key: %s\n", maskAPIKey(embedding.APIKey))
	cmd.Printf("  Status: %s\n", configuredStatus(embedding.IsConfigured()))
	cmd.Println()

	cmd.Println("[Model]")
	cmd.Printf("  Provider: %s\n", orUnset(model.Provider))
	cmd.Printf("  Model: %s\n", orUnset(model.Model))
	cmd.Printf("  API Key: %s\n", maskAPIKey(model.APIKey))
	cmd.Printf("  Status: %s\n", configuredStatus(model.IsConfigured()))
	cmd.Println()

	cmd.Println("[Vector]")
	cmd.Printf("  Backend: %s\n", orUnset(vector.Backend))
	if vector.URL != "" {
		cmd.Printf("  URL: %s\n", vector.URL)
	}
	if vector.Collection != "" {
		cmd.Printf("  Collection: %s\n", vector.Collection)
	}
	cmd.Println()

	cmd.Printf("Config file: %s\n", configStore.Path())
	return nil
}

func runSettingsGet(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	val, ok := configStore.Get(args[0])
	if !ok {
		return fmt.Errorf("key %q is not set", args[0])
	}
	cmd.Printf("%v\n", val)
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	key, raw := args[0], args[1]
	if err := configStore.Set(key, coerceValue(raw)); err != nil {
		return fmt.Errorf("saving setting: %w", err)
	}

	if !settingsSkipValidate {
		if err := validateTouchedProvider(key); err != nil {
			cmd.Printf("Warning: saved, but validation failed: %v\n", err)
			return nil
		}
	}

	cmd.Printf("Set %s\n", key)
	return nil
}

// validateTouchedProvider pings the provider whose settings changed.
func validateTouchedProvider(key string) error {
	switch {
	case strings.HasPrefix(key, "embedding."):
		return ai.ValidateEmbeddingConfig(loadEmbeddingSettings())
	case strings.HasPrefix(key, "model."):
		return ai.ValidateModelConfig(loadModelSettings())
	default:
		return nil
	}
}

// coerceValue parses booleans and integers so TOML stores them typed.
func coerceValue(raw string) any {
	if b, err := strconv.ParseBool(raw); err == nil && (raw == "true" || raw == "false") {
		return b
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	return raw
}

// maskAPIKey shows only the last few characters of a key.
func maskAPIKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}

func orUnset(v string) string {
	if v == "" {
		return "(not set)"
	}
	return v
}

func configuredStatus(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}
