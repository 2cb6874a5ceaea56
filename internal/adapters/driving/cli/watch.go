package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/scribe/internal/logger"
)

var (
	watchOwner      string
	watchExtensions []string
)

// watchDebounce coalesces editor save bursts into one re-index.
const watchDebounce = 500 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch [dir...]",
	Short: "Watch directories and keep the index current",
	Long: `Watches the given directories and re-indexes files as they change.
Created and modified files are indexed; removed files have their index
entries deleted. Runs until interrupted.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchOwner, "owner", "", "owner id (default: configured owner)")
	watchCmd.Flags().StringSliceVar(&watchExtensions, "ext", []string{".txt", ".md"}, "file extensions to index")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if indexer == nil {
		return errors.New("indexer not configured")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	for _, dir := range args {
		info, err := os.Stat(dir)
		if err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("watching %s: not a directory", dir)
		}
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
		cmd.Printf("Watching %s\n", dir)
	}

	owner := ownerID(watchOwner)
	ctx := cmd.Context()

	// Pending paths awaiting their debounce window.
	pending := make(map[string]time.Time)
	ticker := time.NewTicker(watchDebounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !watchable(event.Name) {
				continue
			}

			switch {
			case event.Has(fsnotify.Create) || event.Has(fsnotify.Write):
				pending[event.Name] = time.Now()

			case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
				delete(pending, event.Name)
				if err := removeWatched(cmd, event.Name); err != nil {
					logger.Warn("Failed to remove %s from index: %v", event.Name, err)
				}
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)

		case now := <-ticker.C:
			for path, seen := range pending {
				if now.Sub(seen) < watchDebounce {
					continue
				}
				delete(pending, path)
				if err := indexWatched(cmd, path, owner); err != nil {
					logger.Warn("Failed to index %s: %v", path, err)
				}
			}
		}
	}
}

// watchable reports whether the path has an indexable extension.
func watchable(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, allowed := range watchExtensions {
		if ext == strings.ToLower(allowed) {
			return true
		}
	}
	return false
}

func indexWatched(cmd *cobra.Command, path, owner string) error {
	doc, err := documentFromFile(path, owner)
	if err != nil {
		return err
	}

	report, err := indexer.IndexDocument(cmd.Context(), *doc)
	if err != nil {
		return err
	}
	if report.Skipped {
		cmd.Printf("Skipped %s: %s\n", path, report.SkipReason)
		return nil
	}
	cmd.Printf("Indexed %s (%d chunks)\n", path, report.ChunkCount)
	return nil
}

func removeWatched(cmd *cobra.Command, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	id := uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+abs)).String()

	if err := indexer.DeleteDocumentIndex(cmd.Context(), id); err != nil {
		return err
	}
	cmd.Printf("Removed %s from index\n", path)
	return nil
}
