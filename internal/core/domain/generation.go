package domain

import "time"

// DefaultMaxSearches is the default tool-call round cap per
// generation run.
const DefaultMaxSearches = 3

// GenerationRequest describes one retrieval-augmented generation run.
type GenerationRequest struct {
	// OwnerID scopes document retrieval to one owner.
	OwnerID string

	// SystemPrompt is prepended to the conversation. It should
	// describe the task; the tool definition is added separately.
	SystemPrompt string

	// FormInputs are the structured user inputs rendered into the
	// first user turn.
	FormInputs map[string]string

	// DocumentIDs optionally restricts retrieval to specific source
	// documents.
	DocumentIDs []string

	// MaxSearches caps tool-call rounds. Zero means
	// DefaultMaxSearches.
	MaxSearches int

	// Timeout is the overall budget for the run. Zero means no
	// explicit deadline beyond the caller's context.
	Timeout time.Duration
}

// GenerationMetadata records how an answer was produced.
type GenerationMetadata struct {
	// RunID uniquely identifies the run, for logs.
	RunID string

	// SearchRounds is the number of tool-call rounds executed.
	SearchRounds int

	// RetrievedChunks is the number of unique chunks accumulated
	// across all rounds.
	RetrievedChunks int

	// Forced is true when the final answer came from the tool-free
	// call issued at the round cap or on timeout.
	Forced bool

	// Model is the model name used for generation.
	Model string
}

// GenerationResult is the user-visible outcome of a run: either a
// fully processed answer or an error, never a half-built answer.
type GenerationResult struct {
	// Content is the final answer with inline citation markers.
	Content string

	// Sources lists the cited documents.
	Sources []Source

	// Citations are the span-level attributions.
	Citations []Citation

	// Metadata records run statistics.
	Metadata GenerationMetadata
}
