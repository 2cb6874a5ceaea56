package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/scribe/internal/core/domain"
)

func TestSearchCmd_Use(t *testing.T) {
	assert.Equal(t, "search [query]", searchCmd.Use)
}

func TestSearchCmd_RequiresExactlyOneArg(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"search"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestSearchCmd_HasLimitFlag(t *testing.T) {
	flag := searchCmd.Flags().Lookup("limit")
	require.NotNil(t, flag, "limit flag should exist")
	assert.Equal(t, "n", flag.Shorthand)
	assert.Equal(t, "10", flag.DefValue)
}

func TestSearchCmd_ExecutesWithQuery(t *testing.T) {
	cleanup, err := setupTestServices(t.TempDir())
	require.NoError(t, err)
	defer cleanup()

	require.NoError(t, docStore.SaveDocument(context.Background(), domain.Document{
		ID: "doc-1", OwnerID: "local", Title: "Notes", Text: "x",
	}))
	require.NoError(t, docStore.SaveChunks(context.Background(), "doc-1", []domain.Chunk{
		{DocumentID: "doc-1", Index: 0, Text: "release checklist for the rollout", TokenCount: 6},
	}))

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"search", "rollout checklist"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err = rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "doc-1")
	assert.Contains(t, buf.String(), "release checklist")
}

func TestSnippet_TruncatesAndFlattens(t *testing.T) {
	assert.Equal(t, "short", snippet("short", 20))
	assert.Equal(t, "a b", snippet("a\nb", 20))

	long := snippet("0123456789", 5)
	assert.Equal(t, "01234...", long)
}
