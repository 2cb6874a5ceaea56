package driven

import (
	"context"

	"github.com/custodia-labs/scribe/internal/core/domain"
)

// ToolDefinition describes one tool advertised to the model.
type ToolDefinition struct {
	// Name is the tool identifier sent to the provider.
	Name string

	// Description tells the model when to use the tool.
	Description string

	// InputSchema is the JSON schema of the tool input.
	InputSchema map[string]any
}

// ModelRequest is one completion step of a conversation.
type ModelRequest struct {
	// System is the system prompt.
	System string

	// Turns is the conversation so far.
	Turns []domain.Turn

	// Tools are the tool definitions offered for this step. Empty
	// disables tool use, forcing a textual answer.
	Tools []ToolDefinition

	// MaxTokens caps the completion length.
	MaxTokens int

	// Temperature controls randomness.
	Temperature float64
}

// ModelClient drives a generative model that may request tool calls.
//
// The tagged ModelResponse isolates the orchestrator from any one
// provider's response shape.
//
// Implementations may include:
//   - Anthropic (Claude messages API)
//   - OpenAI (chat completions with function calling)
type ModelClient interface {
	// Complete performs one completion step and returns either a
	// final answer or a set of tool calls.
	Complete(ctx context.Context, req ModelRequest) (*domain.ModelResponse, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable by making a
	// lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
