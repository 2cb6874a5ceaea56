package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/custodia-labs/scribe/internal/core/domain"
	"github.com/custodia-labs/scribe/internal/core/ports/driven"
	"github.com/custodia-labs/scribe/internal/core/ports/driving"
	"github.com/custodia-labs/scribe/internal/logger"
)

// Ensure Orchestrator implements the interface.
var _ driving.Generator = (*Orchestrator)(nil)

// defaultGenerationSystemPrompt is the fallback when no PromptStore
// is configured.
const defaultGenerationSystemPrompt = `You have access to a search_documents tool that searches the user's indexed documents.
Use it when the task would benefit from facts in those documents.
Base factual claims on retrieved passages where possible, and prefer several focused searches over one broad one.
When you have enough evidence, write the final answer as plain text.`

// defaultForcedAnswerPrompt is the fallback instruction for the
// tool-free final call issued at the round cap.
const defaultForcedAnswerPrompt = `Search is no longer available. Write the complete final answer now using the evidence already gathered.`

// defaultMaxTokens caps completion length when the caller does not
// configure one.
const defaultMaxTokens = 4096

// resultKey dedupes accumulated search results across rounds.
type resultKey struct {
	documentID string
	chunkIndex int
}

// Orchestrator drives a bounded tool-use conversation with a
// generative model, executing search_documents calls against the
// retrieval service and turning the gathered evidence into citations.
//
// Each run is fully isolated: all mutable state lives in the run's
// own accumulator, so unrelated runs may execute concurrently.
type Orchestrator struct {
	model       driven.ModelClient
	retrieval   driving.Retrieval
	citations   *CitationProcessor
	promptStore driven.PromptStore
	maxTokens   int
}

// NewOrchestrator creates a new generation orchestrator.
func NewOrchestrator(
	model driven.ModelClient,
	retrieval driving.Retrieval,
	citations *CitationProcessor,
) *Orchestrator {
	return &Orchestrator{
		model:     model,
		retrieval: retrieval,
		citations: citations,
		maxTokens: defaultMaxTokens,
	}
}

// SetPromptStore sets the prompt store for loading customisable prompts.
// If not set, the orchestrator uses hardcoded default prompts.
func (o *Orchestrator) SetPromptStore(store driven.PromptStore) {
	o.promptStore = store
}

// SetMaxTokens caps tokens per completion step.
func (o *Orchestrator) SetMaxTokens(n int) {
	if n > 0 {
		o.maxTokens = n
	}
}

// run holds the per-run accumulator state. It is never shared
// between runs.
type run struct {
	id          string
	req         domain.GenerationRequest
	turns       []domain.Turn
	accumulated []domain.SearchResult
	seen        map[resultKey]bool
	rounds      int
}

// GenerateWithRetrieval drives one bounded generation run.
//
// States: AwaitingModel -> ExecutingTools -> AwaitingModel (loop) ->
// Done | Aborted. At most req.MaxSearches tool rounds execute; on the
// cap (or run timeout) one final tool-free call forces a textual
// answer. A model step with neither tool calls nor final text aborts
// the run.
func (o *Orchestrator) GenerateWithRetrieval(
	ctx context.Context, req domain.GenerationRequest,
) (*domain.GenerationResult, error) {
	if o.model == nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrGenerationFailed, domain.ErrModelUnavailable)
	}
	if req.OwnerID == "" {
		return nil, fmt.Errorf("%w: owner id is required", domain.ErrInvalidInput)
	}

	maxSearches := req.MaxSearches
	if maxSearches <= 0 {
		maxSearches = domain.DefaultMaxSearches
	}

	r := &run{
		id:   uuid.New().String(),
		req:  req,
		seen: make(map[resultKey]bool),
		turns: []domain.Turn{
			{Role: domain.RoleUser, Content: renderFormInputs(req.FormInputs)},
		},
	}

	logger.Section("Generation Run")
	logger.Debug("Run %s: owner=%s, maxSearches=%d", r.id, req.OwnerID, maxSearches)

	// The run's own timeout budget. On expiry the orchestrator
	// behaves as if the round cap were hit, using the parent context
	// for the forced final call.
	runCtx := ctx
	cancel := context.CancelFunc(func() {})
	if req.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, req.Timeout)
	}
	defer cancel()

	system := o.systemPrompt(req.SystemPrompt)
	tools := []driven.ToolDefinition{searchDocumentsTool()}

	for {
		resp, err := o.model.Complete(runCtx, driven.ModelRequest{
			System:    system,
			Turns:     r.turns,
			Tools:     tools,
			MaxTokens: o.maxTokens,
		})
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
				logger.Warn("Run %s timed out after %d rounds, forcing final answer", r.id, r.rounds)
				return o.forceFinalAnswer(ctx, r, system, true)
			}
			return nil, fmt.Errorf("%w: model call: %w", domain.ErrGenerationFailed, err)
		}

		switch resp.StopReason {
		case domain.StopReasonEnd:
			if resp.Content == "" {
				return nil, fmt.Errorf("%w: %w: empty final answer", domain.ErrGenerationFailed, domain.ErrModelProtocol)
			}
			logger.Info("Run %s: final answer after %d search rounds", r.id, r.rounds)
			return o.finish(r, resp.Content, false)

		case domain.StopReasonToolUse:
			if len(resp.ToolCalls) == 0 {
				return nil, fmt.Errorf("%w: %w: tool_use with no calls", domain.ErrGenerationFailed, domain.ErrModelProtocol)
			}
			o.executeToolRound(runCtx, r, resp)
			if r.rounds >= maxSearches {
				logger.Info("Run %s: round cap (%d) reached, forcing final answer", r.id, maxSearches)
				return o.forceFinalAnswer(runCtx, r, system, false)
			}

		default:
			return nil, fmt.Errorf("%w: %w: stop reason %q", domain.ErrGenerationFailed, domain.ErrModelProtocol, resp.StopReason)
		}
	}
}

// executeToolRound runs every tool call of one round concurrently,
// folds the deduplicated results into the accumulator and appends the
// assistant and tool_result turns. A transport failure becomes an
// empty result fed back to the model so it can adapt; the round still
// counts against the cap.
func (o *Orchestrator) executeToolRound(ctx context.Context, r *run, resp *domain.ModelResponse) {
	r.rounds++
	logger.Debug("Run %s: round %d with %d tool call(s)", r.id, r.rounds, len(resp.ToolCalls))

	r.turns = append(r.turns, domain.Turn{
		Role:      domain.RoleAssistant,
		Content:   resp.Content,
		ToolCalls: resp.ToolCalls,
	})

	// Tool calls within one round are independent reads and may
	// execute concurrently. Results are folded in call order so the
	// accumulator stays deterministic.
	outputs := make([]*domain.SearchResponse, len(resp.ToolCalls))
	errs := make([]error, len(resp.ToolCalls))

	var wg sync.WaitGroup
	for i, call := range resp.ToolCalls {
		wg.Add(1)
		go func(i int, call domain.ToolCall) {
			defer wg.Done()
			outputs[i], errs[i] = o.executeSearchCall(ctx, r.req, call)
		}(i, call)
	}
	wg.Wait()

	for i, call := range resp.ToolCalls {
		var content string
		if errs[i] != nil {
			logger.Warn("Run %s: tool call %s failed: %v", r.id, call.ID, errs[i])
			content = "Search failed; no results available for this query."
		} else {
			for _, res := range outputs[i].Results {
				k := resultKey{res.DocumentID, res.ChunkIndex}
				if !r.seen[k] {
					r.seen[k] = true
					r.accumulated = append(r.accumulated, res)
				}
			}
			content = renderSearchResults(outputs[i].Results)
		}
		r.turns = append(r.turns, domain.Turn{
			Role:       domain.RoleToolResult,
			Content:    content,
			ToolCallID: call.ID,
		})
	}

	logger.Debug("Run %s: %d unique chunks accumulated", r.id, len(r.accumulated))
}

// executeSearchCall runs one search_documents call against the
// retrieval service, scoped to the run's owner and document
// allowlist.
func (o *Orchestrator) executeSearchCall(
	ctx context.Context, req domain.GenerationRequest, call domain.ToolCall,
) (*domain.SearchResponse, error) {
	if call.Name != domain.ToolNameSearchDocuments {
		return nil, fmt.Errorf("%w: unknown tool %q", domain.ErrModelProtocol, call.Name)
	}
	if o.retrieval == nil {
		return &domain.SearchResponse{Results: []domain.SearchResult{}, SearchType: domain.SearchModeHybrid}, nil
	}

	mode := call.SearchMode
	if mode == "" {
		mode = domain.SearchModeHybrid
	}

	return o.retrieval.Search(ctx, call.Query, domain.SearchOptions{
		OwnerID:     req.OwnerID,
		DocumentIDs: req.DocumentIDs,
		Mode:        mode,
	})
}

// forceFinalAnswer performs one model call with tool use disabled,
// forcing a textual answer from whatever evidence has been gathered.
// If the model still fails to return text, the run aborts; a
// half-built answer is never surfaced.
func (o *Orchestrator) forceFinalAnswer(
	ctx context.Context, r *run, system string, timedOut bool,
) (*domain.GenerationResult, error) {
	instruction := o.loadPrompt(driven.PromptForcedAnswer, defaultForcedAnswerPrompt)
	turns := append(r.turns, domain.Turn{Role: domain.RoleUser, Content: instruction})

	resp, err := o.model.Complete(ctx, driven.ModelRequest{
		System:    system,
		Turns:     turns,
		MaxTokens: o.maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: forced final call: %w", domain.ErrGenerationFailed, err)
	}
	if resp.StopReason != domain.StopReasonEnd || resp.Content == "" {
		return nil, fmt.Errorf("%w: %w: no text on forced final call", domain.ErrGenerationFailed, domain.ErrModelProtocol)
	}

	if timedOut {
		logger.Info("Run %s: forced answer after timeout", r.id)
	}
	return o.finish(r, resp.Content, true)
}

// finish runs citation processing and assembles the result.
func (o *Orchestrator) finish(r *run, answer string, forced bool) (*domain.GenerationResult, error) {
	processed := o.citations.Process(answer, r.accumulated)

	return &domain.GenerationResult{
		Content:   processed.AnnotatedAnswer,
		Sources:   processed.Sources,
		Citations: processed.Citations,
		Metadata: domain.GenerationMetadata{
			RunID:           r.id,
			SearchRounds:    r.rounds,
			RetrievedChunks: len(r.accumulated),
			Forced:          forced,
			Model:           o.model.ModelName(),
		},
	}, nil
}

// systemPrompt combines the caller's prompt with the base generation
// prompt that advertises the search tool.
func (o *Orchestrator) systemPrompt(callerPrompt string) string {
	base := o.loadPrompt(driven.PromptGenerationSystem, defaultGenerationSystemPrompt)
	if callerPrompt == "" {
		return base
	}
	return callerPrompt + "\n\n" + base
}

// loadPrompt reads a named prompt from the store, falling back to the
// embedded default.
func (o *Orchestrator) loadPrompt(name, fallback string) string {
	if o.promptStore == nil {
		return fallback
	}
	p, err := o.promptStore.Load(name)
	if err != nil || p == "" {
		return fallback
	}
	return p
}

// renderFormInputs states the form inputs in structured form for the
// first user turn. Keys are sorted for determinism.
func renderFormInputs(inputs map[string]string) string {
	if len(inputs) == 0 {
		return "Generate the requested content."
	}

	keys := make([]string, 0, len(inputs))
	for k := range inputs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("Generate content from these inputs:\n")
	for _, k := range keys {
		fmt.Fprintf(&b, "- %s: %s\n", k, inputs[k])
	}
	return b.String()
}

// renderSearchResults formats retrieval results as a tool result
// block the model can read.
func renderSearchResults(results []domain.SearchResult) string {
	if len(results) == 0 {
		return "No matching passages found."
	}

	var b strings.Builder
	for i, r := range results {
		fmt.Fprintf(&b, "[Result %d] document=%s chunk=%d score=%.3f\n%s\n\n",
			i+1, r.DocumentID, r.ChunkIndex, r.Score, r.ChunkText)
	}
	return strings.TrimRight(b.String(), "\n")
}

// searchDocumentsTool is the single tool schema advertised to the
// model.
func searchDocumentsTool() driven.ToolDefinition {
	return driven.ToolDefinition{
		Name:        domain.ToolNameSearchDocuments,
		Description: "Search the user's indexed documents for passages relevant to a query. Returns ranked excerpts with document identifiers.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "Natural-language search query.",
				},
				"search_mode": map[string]any{
					"type":        "string",
					"enum":        []string{"vector", "hybrid", "keyword"},
					"description": "Retrieval strategy. Defaults to hybrid.",
				},
			},
			"required": []string{"query"},
		},
	}
}
