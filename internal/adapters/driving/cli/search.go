package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/scribe/internal/core/domain"
)

var (
	searchLimit     int
	searchMode      string
	searchOwner     string
	searchDocs      []string
	searchThreshold float64
	searchJSON      bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed documents",
	Long: `Searches indexed documents. The hybrid mode (default) runs vector
search and merges in keyword matches when vector results are sparse;
without a configured embedding provider it degrades to keyword search.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "maximum number of results")
	searchCmd.Flags().StringVarP(&searchMode, "mode", "m", "", "search mode: vector, keyword or hybrid")
	searchCmd.Flags().StringVar(&searchOwner, "owner", "", "owner id (default: configured owner)")
	searchCmd.Flags().StringSliceVar(&searchDocs, "docs", nil, "restrict to these document ids")
	searchCmd.Flags().Float64Var(&searchThreshold, "threshold", 0, "minimum similarity score (default 0.3)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	if retrieval == nil {
		return errors.New("retrieval service not configured")
	}

	opts := domain.SearchOptions{
		OwnerID:        ownerID(searchOwner),
		DocumentIDs:    searchDocs,
		Limit:          searchLimit,
		Mode:           domain.SearchMode(searchMode),
		ScoreThreshold: searchThreshold,
	}

	resp, err := retrieval.Search(cmd.Context(), query, opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		data, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal results: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(resp.Results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Printf("Results (%s):\n\n", resp.SearchType)
	for i, r := range resp.Results {
		cmd.Printf("  [%d] %s #%d (%.2f)\n", i+1, r.DocumentID, r.ChunkIndex, r.Score)
		cmd.Printf("      %s\n", snippet(r.ChunkText, 160))
		cmd.Println()
	}
	return nil
}

// snippet truncates text to n runes on a single line.
func snippet(text string, n int) string {
	out := make([]rune, 0, n)
	for _, r := range text {
		if r == '\n' || r == '\t' {
			r = ' '
		}
		out = append(out, r)
		if len(out) >= n {
			return string(out) + "..."
		}
	}
	return string(out)
}
