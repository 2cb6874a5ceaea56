package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/scribe/internal/core/domain"
)

// SearchInput is the input schema for the search_documents tool.
type SearchInput struct {
	Query       string   `json:"query" jsonschema:"the search query to find document passages"`
	SearchMode  string   `json:"search_mode,omitempty" jsonschema:"vector, keyword or hybrid (default hybrid)"`
	DocumentIDs []string `json:"document_ids,omitempty" jsonschema:"restrict the search to these document ids"`
	Limit       int      `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 10)"`
}

// SearchOutput is the output schema for the search_documents tool.
type SearchOutput struct {
	Results    []SearchResultOutput `json:"results"`
	Count      int                  `json:"count"`
	SearchType string               `json:"search_type"`
}

// SearchResultOutput represents a single search result.
type SearchResultOutput struct {
	DocumentID string  `json:"document_id"`
	ChunkIndex int     `json:"chunk_index"`
	Score      float64 `json:"score"`
	Text       string  `json:"text"`
}

// GenerateInput is the input schema for the generate tool.
type GenerateInput struct {
	Task        string            `json:"task" jsonschema:"what to write"`
	Inputs      map[string]string `json:"inputs,omitempty" jsonschema:"structured form inputs for the generation"`
	DocumentIDs []string          `json:"document_ids,omitempty" jsonschema:"restrict retrieval to these document ids"`
	MaxSearches int               `json:"max_searches,omitempty" jsonschema:"tool-call round cap (default 3)"`
}

// GenerateOutput is the output schema for the generate tool.
type GenerateOutput struct {
	Content      string         `json:"content"`
	Sources      []SourceOutput `json:"sources"`
	SearchRounds int            `json:"search_rounds"`
	Forced       bool           `json:"forced"`
}

// SourceOutput is one cited source.
type SourceOutput struct {
	Index      int    `json:"index"`
	DocumentID string `json:"document_id"`
	Title      string `json:"title,omitempty"`
	Excerpt    string `json:"excerpt,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_documents",
		Description: "Search the indexed documents and return relevant passages",
	}, s.handleSearch)

	if s.ports.Generator != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "generate",
			Description: "Generate content grounded in the indexed documents, with citations",
		}, s.handleGenerate)
	}
}

// handleSearch handles the search_documents tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 10
	}

	opts := domain.SearchOptions{
		OwnerID:     s.ports.OwnerID,
		DocumentIDs: input.DocumentIDs,
		Limit:       limit,
		Mode:        domain.SearchMode(input.SearchMode),
	}

	resp, err := s.ports.Retrieval.Search(ctx, input.Query, opts)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results:    make([]SearchResultOutput, len(resp.Results)),
		Count:      len(resp.Results),
		SearchType: string(resp.SearchType),
	}
	for i, r := range resp.Results {
		output.Results[i] = SearchResultOutput{
			DocumentID: r.DocumentID,
			ChunkIndex: r.ChunkIndex,
			Score:      r.Score,
			Text:       r.ChunkText,
		}
	}

	return nil, output, nil
}

// handleGenerate handles the generate tool invocation.
func (s *Server) handleGenerate(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GenerateInput,
) (*mcp.CallToolResult, GenerateOutput, error) {
	inputs := input.Inputs
	if inputs == nil {
		inputs = make(map[string]string)
	}
	if input.Task != "" {
		inputs["task"] = input.Task
	}

	req := domain.GenerationRequest{
		OwnerID:     s.ports.OwnerID,
		FormInputs:  inputs,
		DocumentIDs: input.DocumentIDs,
		MaxSearches: input.MaxSearches,
	}

	result, err := s.ports.Generator.GenerateWithRetrieval(ctx, req)
	if err != nil {
		return nil, GenerateOutput{}, err
	}

	output := GenerateOutput{
		Content:      result.Content,
		Sources:      make([]SourceOutput, len(result.Sources)),
		SearchRounds: result.Metadata.SearchRounds,
		Forced:       result.Metadata.Forced,
	}
	for i, src := range result.Sources {
		output.Sources[i] = SourceOutput{
			Index:      src.Index,
			DocumentID: src.DocumentID,
			Title:      src.Title,
			Excerpt:    src.Excerpt,
		}
	}

	return nil, output, nil
}
