package domain

// Role identifies the author of a conversation turn.
type Role string

// Conversation roles.
const (
	RoleUser       Role = "user"
	RoleAssistant  Role = "assistant"
	RoleToolResult Role = "tool_result"
)

// StopReason is how a model ended one completion step.
type StopReason string

// Stop reasons.
const (
	// StopReasonEnd means the model returned a final text answer.
	StopReasonEnd StopReason = "end"

	// StopReasonToolUse means the model requested one or more tool
	// calls before continuing.
	StopReasonToolUse StopReason = "tool_use"
)

// Turn is a single entry in a conversation. The conversation is
// append-only during one orchestration run.
type Turn struct {
	// Role is who produced this turn.
	Role Role

	// Content is the turn text. For assistant turns that requested
	// tools it may be empty.
	Content string

	// ToolCalls is set on assistant turns that requested tools.
	ToolCalls []ToolCall

	// ToolCallID links a tool_result turn to the call it answers.
	ToolCallID string
}

// ToolCall is a structured request from the model to invoke a tool.
// Only the search_documents tool is defined.
type ToolCall struct {
	// ID is the provider-assigned call identifier.
	ID string

	// Name is the tool name.
	Name string

	// Query is the natural-language search query.
	Query string

	// SearchMode is the requested retrieval strategy. Empty means
	// hybrid.
	SearchMode SearchMode
}

// ToolNameSearchDocuments is the only tool advertised to the model.
const ToolNameSearchDocuments = "search_documents"

// ModelResponse is the tagged result of one model completion step:
// either a final text answer or a set of tool calls, never both.
type ModelResponse struct {
	// StopReason discriminates the response.
	StopReason StopReason

	// Content is the final answer text when StopReason is end.
	Content string

	// ToolCalls are the requested calls when StopReason is tool_use.
	ToolCalls []ToolCall
}

// IsFinal reports whether the response carries a final text answer.
func (r *ModelResponse) IsFinal() bool {
	return r.StopReason == StopReasonEnd && r.Content != ""
}
