package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/scribe/internal/core/domain"
)

var (
	indexOwner string
	indexID    string
	indexTitle string
)

var indexCmd = &cobra.Command{
	Use:   "index [file...]",
	Short: "Index documents for retrieval",
	Long: `Chunks, embeds and indexes the given text files. Re-indexing a file
replaces its previous chunks. Without a configured embedding provider
the documents are still registered for keyword search.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().StringVar(&indexOwner, "owner", "", "owner id (default: configured owner)")
	indexCmd.Flags().StringVar(&indexID, "id", "", "document id (single file only; default: derived from path)")
	indexCmd.Flags().StringVar(&indexTitle, "title", "", "document title (single file only; default: file name)")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	if indexer == nil {
		return errors.New("indexer not configured")
	}
	if len(args) > 1 && (indexID != "" || indexTitle != "") {
		return errors.New("--id and --title apply to a single file only")
	}

	owner := ownerID(indexOwner)
	ctx := cmd.Context()

	for _, path := range args {
		doc, err := documentFromFile(path, owner)
		if err != nil {
			return err
		}
		if indexID != "" {
			doc.ID = indexID
		}
		if indexTitle != "" {
			doc.Title = indexTitle
		}

		report, err := indexer.IndexDocument(ctx, *doc)
		if err != nil {
			return fmt.Errorf("indexing %s: %w", path, err)
		}

		if report.Skipped {
			cmd.Printf("Skipped %s: %s\n", path, report.SkipReason)
			continue
		}
		cmd.Printf("Indexed %s as %s (%d chunks, ~%d tokens)\n",
			path, report.DocumentID, report.ChunkCount, report.TokenCount)
	}

	return nil
}

// documentFromFile builds a document from a text file. The ID is
// derived from the absolute path, so re-running the command updates
// the same document instead of creating a new one.
func documentFromFile(path, owner string) (*domain.Document, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	title := strings.TrimSuffix(filepath.Base(abs), filepath.Ext(abs))

	return &domain.Document{
		ID:      uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+abs)).String(),
		OwnerID: owner,
		Title:   title,
		Text:    string(data),
		Metadata: map[string]any{
			"path": abs,
		},
	}, nil
}
