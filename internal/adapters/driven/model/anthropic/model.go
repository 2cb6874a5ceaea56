// Package anthropic provides a tool-capable model client using the
// Anthropic messages API.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/scribe/internal/core/domain"
	"github.com/custodia-labs/scribe/internal/core/ports/driven"
)

// Ensure ModelClient implements the interface.
var _ driven.ModelClient = (*ModelClient)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.anthropic.com"
	DefaultModel   = "claude-3-5-sonnet-latest"
	DefaultTimeout = 120 * time.Second

	// anthropicVersion is the required API version header.
	anthropicVersion = "2023-06-01"
)

// Config holds configuration for the Anthropic model client.
type Config struct {
	// APIKey is the Anthropic API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.anthropic.com).
	BaseURL string

	// Model is the model to use (default: claude-3-5-sonnet-latest).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration
}

// ModelClient drives the Anthropic messages API.
type ModelClient struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

// contentBlock is one block of an Anthropic message, request or
// response side.
type contentBlock struct {
	Type string `json:"type"`

	// type == "text"
	Text string `json:"text,omitempty"`

	// type == "tool_use"
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`

	// type == "tool_result"
	ToolUseID string `json:"tool_use_id,omitempty"`
	Content   string `json:"content,omitempty"`
}

// message is the Anthropic message format.
type message struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

// toolSchema is the Anthropic tool definition format.
type toolSchema struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

// messagesRequest is the Anthropic /v1/messages request format.
type messagesRequest struct {
	Model       string       `json:"model"`
	Messages    []message    `json:"messages"`
	MaxTokens   int          `json:"max_tokens"`
	System      string       `json:"system,omitempty"`
	Temperature float64      `json:"temperature,omitempty"`
	Tools       []toolSchema `json:"tools,omitempty"`
}

// messagesResponse is the Anthropic /v1/messages response format.
type messagesResponse struct {
	Content    []contentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
	Error      *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// toolInput is the search_documents input shape.
type toolInput struct {
	Query      string `json:"query"`
	SearchMode string `json:"search_mode,omitempty"`
}

// NewModelClient creates a new Anthropic model client.
func NewModelClient(cfg Config) (*ModelClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic: API key is required")
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
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 1024 // Anthropic requires max_tokens to be set
	}

	apiReq := messagesRequest{
		Model:     c.model,
		Messages:  toMessages(req.Turns),
		MaxTokens: maxTokens,
		System:    req.System,
	}
	if req.Temperature > 0 {
		apiReq.Temperature = req.Temperature
	}
	for _, tool := range req.Tools {
		apiReq.Tools = append(apiReq.Tools, toolSchema{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: tool.InputSchema,
		})
	}

	jsonBody, err := json.Marshal(apiReq)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+"/v1/messages",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var msgResp messagesResponse
	if err := json.Unmarshal(body, &msgResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if msgResp.Error != nil {
		return nil, fmt.Errorf("anthropic error: %s", msgResp.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("anthropic error (status %d): %s", resp.StatusCode, string(body))
	}

	return fromResponse(&msgResp)
}

// toMessages converts conversation turns to the Anthropic wire shape.
// Tool results are carried as user messages with tool_result blocks.
func toMessages(turns []domain.Turn) []message {
	messages := make([]message, 0, len(turns))
	for _, turn := range turns {
		switch turn.Role {
		case domain.RoleUser:
			messages = append(messages, message{
				Role:    "user",
				Content: []contentBlock{{Type: "text", Text: turn.Content}},
			})

		case domain.RoleAssistant:
			var blocks []contentBlock
			if turn.Content != "" {
				blocks = append(blocks, contentBlock{Type: "text", Text: turn.Content})
			}
			for _, call := range turn.ToolCalls {
				input, _ := json.Marshal(toolInput{
					Query:      call.Query,
					SearchMode: string(call.SearchMode),
				})
				blocks = append(blocks, contentBlock{
					Type:  "tool_use",
					ID:    call.ID,
					Name:  call.Name,
					Input: input,
				})
			}
			messages = append(messages, message{Role: "assistant", Content: blocks})

		case domain.RoleToolResult:
			messages = append(messages, message{
				Role: "user",
				Content: []contentBlock{{
					Type:      "tool_result",
					ToolUseID: turn.ToolCallID,
					Content:   turn.Content,
				}},
			})
		}
	}
	return messages
}

// fromResponse maps the provider response to the tagged domain shape.
func fromResponse(resp *messagesResponse) (*domain.ModelResponse, error) {
	var text strings.Builder
	var calls []domain.ToolCall

	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			text.WriteString(block.Text)
		case "tool_use":
			var input toolInput
			if err := json.Unmarshal(block.Input, &input); err != nil {
				return nil, fmt.Errorf("decode tool input: %w", err)
			}
			calls = append(calls, domain.ToolCall{
				ID:         block.ID,
				Name:       block.Name,
				Query:      input.Query,
				SearchMode: domain.SearchMode(input.SearchMode),
			})
		}
	}

	if resp.StopReason == "tool_use" {
		return &domain.ModelResponse{
			StopReason: domain.StopReasonToolUse,
			Content:    text.String(),
			ToolCalls:  calls,
		}, nil
	}

	return &domain.ModelResponse{
		StopReason: domain.StopReasonEnd,
		Content:    text.String(),
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
