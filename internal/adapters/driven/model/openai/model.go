// Package openai provides a tool-capable model client using the
// OpenAI chat completions API.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/custodia-labs/scribe/internal/core/domain"
	"github.com/custodia-labs/scribe/internal/core/ports/driven"
)

// Ensure ModelClient implements the interface.
var _ driven.ModelClient = (*ModelClient)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o"
	DefaultTimeout = 120 * time.Second
)

// Config holds configuration for the OpenAI model client.
type Config struct {
	// APIKey is the OpenAI API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	// Can be changed for Azure OpenAI or compatible APIs.
	BaseURL string

	// Model is the chat model to use (default: gpt-4o).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration
}

// ModelClient drives the OpenAI chat completions API.
type ModelClient struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

// chatToolCall is the OpenAI tool call format.
type chatToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

// chatMessage is the OpenAI message format.
type chatMessage struct {
	Role       string         `json:"role"`
	Content    string         `json:"content,omitempty"`
	ToolCalls  []chatToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
}

// chatTool is the OpenAI tool definition format.
type chatTool struct {
	Type     string `json:"type"`
	Function struct {
		Name        string         `json:"name"`
		Description string         `json:"description"`
		Parameters  map[string]any `json:"parameters"`
	} `json:"function"`
}

// chatRequest is the /chat/completions request format.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
	Tools       []chatTool    `json:"tools,omitempty"`
}

// chatResponse is the /chat/completions response format.
type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// toolArguments is the search_documents argument shape.
type toolArguments struct {
	Query      string `json:"query"`
	SearchMode string `json:"search_mode,omitempty"`
}

// NewModelClient creates a new OpenAI model client.
func NewModelClient(cfg Config) (*ModelClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &ModelClient{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
	}, nil
}

// Complete performs one completion step.
func (c *ModelClient) Complete(ctx context.Context, req driven.ModelRequest) (*domain.ModelResponse, error) {
	apiReq := chatRequest{
		Model:       c.model,
		Messages:    toMessages(req.System, req.Turns),
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	for _, tool := range req.Tools {
		t := chatTool{Type: "function"}
		t.Function.Name = tool.Name
		t.Function.Description = tool.Description
		t.Function.Parameters = tool.InputSchema
		apiReq.Tools = append(apiReq.Tools, t)
	}

	jsonBody, err := json.Marshal(apiReq)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+"/chat/completions",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if chatResp.Error != nil {
		return nil, fmt.Errorf("openai error: %s", chatResp.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openai error (status %d): %s", resp.StatusCode, string(body))
	}
	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("openai: no choices returned")
	}

	return fromChoice(chatResp.Choices[0].Message, chatResp.Choices[0].FinishReason)
}

// toMessages converts conversation turns to the OpenAI wire shape.
func toMessages(system string, turns []domain.Turn) []chatMessage {
	messages := make([]chatMessage, 0, len(turns)+1)
	if system != "" {
		messages = append(messages, chatMessage{Role: "system", Content: system})
	}

	for _, turn := range turns {
		switch turn.Role {
		case domain.RoleUser:
			messages = append(messages, chatMessage{Role: "user", Content: turn.Content})

		case domain.RoleAssistant:
			msg := chatMessage{Role: "assistant", Content: turn.Content}
			for _, call := range turn.ToolCalls {
				args, _ := json.Marshal(toolArguments{
					Query:      call.Query,
					SearchMode: string(call.SearchMode),
				})
				tc := chatToolCall{ID: call.ID, Type: "function"}
				tc.Function.Name = call.Name
				tc.Function.Arguments = string(args)
				msg.ToolCalls = append(msg.ToolCalls, tc)
			}
			messages = append(messages, msg)

		case domain.RoleToolResult:
			messages = append(messages, chatMessage{
				Role:       "tool",
				Content:    turn.Content,
				ToolCallID: turn.ToolCallID,
			})
		}
	}
	return messages
}

// fromChoice maps the provider response to the tagged domain shape.
func fromChoice(msg chatMessage, finishReason string) (*domain.ModelResponse, error) {
	if finishReason == "tool_calls" || len(msg.ToolCalls) > 0 {
		calls := make([]domain.ToolCall, 0, len(msg.ToolCalls))
		for _, tc := range msg.ToolCalls {
			var args toolArguments
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
				return nil, fmt.Errorf("decode tool arguments: %w", err)
			}
			calls = append(calls, domain.ToolCall{
				ID:         tc.ID,
				Name:       tc.Function.Name,
				Query:      args.Query,
				SearchMode: domain.SearchMode(args.SearchMode),
			})
		}
		return &domain.ModelResponse{
			StopReason: domain.StopReasonToolUse,
			Content:    msg.Content,
			ToolCalls:  calls,
		}, nil
	}

	return &domain.ModelResponse{
		StopReason: domain.StopReasonEnd,
		Content:    msg.Content,
	}, nil
}

// ModelName returns the name of the model being used.
func (c *ModelClient) ModelName() string {
	return c.model
}

// Ping validates the service is reachable by requesting a one-token
// completion.
func (c *ModelClient) Ping(ctx context.Context) error {
	_, err := c.Complete(ctx, driven.ModelRequest{
		Turns:     []domain.Turn{{Role: domain.RoleUser, Content: "ping"}},
		MaxTokens: 1,
	})
	return err
}

// Close releases resources.
func (c *ModelClient) Close() error {
	c.client.CloseIdleConnections()
	return nil
}
