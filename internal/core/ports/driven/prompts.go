package driven

// PromptStore provides access to model prompt templates.
// Implementations may load prompts from files, embed them in the binary,
// or fetch them from a remote configuration service.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations should return a sensible
	// default or an error, depending on whether the prompt is required.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	// This is useful when prompts may have been edited on disk.
	Reload()
}

// Well-known prompt names used throughout the application.
const (
	// PromptGenerationSystem is the base system prompt for
	// retrieval-augmented generation. It advertises the
	// search_documents tool and sets citation expectations.
	// This prompt has no format placeholders.
	PromptGenerationSystem = "generation_system"

	// PromptForcedAnswer is appended on the tool-free final call
	// issued at the round cap, instructing the model to answer from
	// gathered evidence. This prompt has no format placeholders.
	PromptForcedAnswer = "forced_answer"
)
