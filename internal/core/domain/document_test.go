package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{name: "empty", text: "", want: 0},
		{name: "exact multiple", text: "abcd", want: 1},
		{name: "rounds up", text: "abcde", want: 2},
		{name: "long text", text: strings.Repeat("a", 5000), want: 1250},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EstimateTokens(tt.text))
		})
	}
}

func TestSearchModeIsValid(t *testing.T) {
	assert.True(t, SearchModeVector.IsValid())
	assert.True(t, SearchModeKeyword.IsValid())
	assert.True(t, SearchModeHybrid.IsValid())
	assert.False(t, SearchMode("semantic").IsValid())
	assert.False(t, SearchMode("").IsValid())
}

func TestModelResponseIsFinal(t *testing.T) {
	final := ModelResponse{StopReason: StopReasonEnd, Content: "answer"}
	assert.True(t, final.IsFinal())

	toolUse := ModelResponse{
		StopReason: StopReasonToolUse,
		ToolCalls:  []ToolCall{{ID: "t1", Name: ToolNameSearchDocuments}},
	}
	assert.False(t, toolUse.IsFinal())

	// End with empty content is a protocol violation, not final.
	empty := ModelResponse{StopReason: StopReasonEnd}
	assert.False(t, empty.IsFinal())
}
