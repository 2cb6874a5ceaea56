package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/scribe/internal/core/domain"
)

var (
	generateOwner   string
	generateSystem  string
	generateInputs  []string
	generateDocs    []string
	generateRounds  int
	generateTimeout time.Duration
	generateJSON    bool
)

var generateCmd = &cobra.Command{
	Use:   "generate [task]",
	Short: "Generate content grounded in your documents",
	Long: `Drives a generative model that searches your indexed documents
before writing. The answer carries inline [n] citation markers and a
source list; claims the model could not ground stay unmarked.

Examples:
  scribe generate "Summarise our Q3 incident reports"
  scribe generate --input topic="rollout plan" --input audience="SRE team" \
      --docs doc-a,doc-b "Draft an announcement"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVar(&generateOwner, "owner", "", "owner id (default: configured owner)")
	generateCmd.Flags().StringVar(&generateSystem, "system", "", "extra system prompt for this run")
	generateCmd.Flags().StringArrayVar(&generateInputs, "input", nil, "form input as key=value (repeatable)")
	generateCmd.Flags().StringSliceVar(&generateDocs, "docs", nil, "restrict retrieval to these document ids")
	generateCmd.Flags().IntVar(&generateRounds, "max-searches", 0, "tool-call round cap (default 3)")
	generateCmd.Flags().DurationVar(&generateTimeout, "timeout", 0, "overall run budget, e.g. 90s")
	generateCmd.Flags().BoolVar(&generateJSON, "json", false, "output the full result as JSON")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if generator == nil {
		return errors.New("model client not configured, run 'scribe settings set model.provider ...' first")
	}

	inputs, err := parseInputs(generateInputs)
	if err != nil {
		return err
	}
	if len(args) == 1 {
		if inputs == nil {
			inputs = make(map[string]string)
		}
		inputs["task"] = args[0]
	}
	if len(inputs) == 0 {
		return errors.New("provide a task argument or at least one --input")
	}

	req := domain.GenerationRequest{
		OwnerID:      ownerID(generateOwner),
		SystemPrompt: generateSystem,
		FormInputs:   inputs,
		DocumentIDs:  generateDocs,
		MaxSearches:  generateRounds,
		Timeout:      generateTimeout,
	}

	result, err := generator.GenerateWithRetrieval(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}

	if generateJSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println(result.Content)

	if len(result.Sources) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for _, src := range result.Sources {
			cmd.Printf("  [%d] %s\n", src.Index, src.DocumentID)
		}
	}

	if verbose {
		meta := result.Metadata
		cmd.Printf("\n(%d search rounds, %d chunks retrieved, forced=%v, model=%s)\n",
			meta.SearchRounds, meta.RetrievedChunks, meta.Forced, meta.Model)
	}
	return nil
}

// parseInputs turns key=value flags into a map.
func parseInputs(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	inputs := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --input %q, expected key=value", pair)
		}
		inputs[key] = value
	}
	return inputs, nil
}
