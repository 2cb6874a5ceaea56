// Package logger provides verbose logging for Scribe.
// When verbose mode is enabled via the --verbose flag, pipeline
// messages (indexing, retrieval, generation runs) are printed to
// stderr with a level tag.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
)

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for verbose logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// Debug logs pipeline detail useful when diagnosing a run.
func Debug(format string, args ...any) { logf("DEBUG", format, args...) }

// Info logs pipeline milestones.
func Info(format string, args ...any) { logf("INFO", format, args...) }

// Warn logs degraded behavior, like a skipped vectorization.
func Warn(format string, args ...any) { logf("WARN", format, args...) }

// Section prints a section header separating pipeline phases.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// logf emits one tagged line when verbose mode is enabled.
func logf(level, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if !verbose {
		return
	}
	fmt.Fprintf(output, "["+level+"] "+format+"\n", args...)
}
