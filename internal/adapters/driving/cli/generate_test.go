package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/scribe/internal/core/domain"
)

func TestGenerateCmd_Use(t *testing.T) {
	assert.Equal(t, "generate [task]", generateCmd.Use)
}

func TestGenerateCmd_ExecutesWithTask(t *testing.T) {
	cleanup, err := setupTestServices(t.TempDir())
	require.NoError(t, err)
	defer cleanup()

	generator = &testGenerator{
		result: &domain.GenerationResult{
			Content: "The rollout finished early [1].",
			Sources: []domain.Source{
				{Index: 1, DocumentID: "doc-1", Title: "Rollout Report"},
			},
		},
	}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"generate", "Summarise the rollout"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err = rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "The rollout finished early [1].")
	assert.Contains(t, buf.String(), "Sources:")
	assert.Contains(t, buf.String(), "[1] doc-1")
}

func TestGenerateCmd_RequiresTaskOrInputs(t *testing.T) {
	cleanup, err := setupTestServices(t.TempDir())
	require.NoError(t, err)
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"generate"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err = rootCmd.Execute()

	assert.Error(t, err)
}

func TestParseInputs(t *testing.T) {
	t.Run("valid pairs", func(t *testing.T) {
		inputs, err := parseInputs([]string{"topic=rollout", "audience=SRE team"})
		require.NoError(t, err)
		assert.Equal(t, "rollout", inputs["topic"])
		assert.Equal(t, "SRE team", inputs["audience"])
	})

	t.Run("value may contain equals", func(t *testing.T) {
		inputs, err := parseInputs([]string{"formula=a=b"})
		require.NoError(t, err)
		assert.Equal(t, "a=b", inputs["formula"])
	})

	t.Run("missing equals is an error", func(t *testing.T) {
		_, err := parseInputs([]string{"noequals"})
		assert.Error(t, err)
	})

	t.Run("empty key is an error", func(t *testing.T) {
		_, err := parseInputs([]string{"=value"})
		assert.Error(t, err)
	})

	t.Run("nil for no pairs", func(t *testing.T) {
		inputs, err := parseInputs(nil)
		require.NoError(t, err)
		assert.Nil(t, inputs)
	})
}
