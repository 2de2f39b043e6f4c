package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/qingyun-ai/weather-agent/internal/api"
	"github.com/qingyun-ai/weather-agent/internal/tools"
)

// Chat-completions endpoints of the OpenAI-compatible providers.
const (
	openAIBaseURL   = "https://api.openai.com/v1/chat/completions"
	deepSeekBaseURL = "https://api.deepseek.com/chat/completions"
	mistralBaseURL  = "https://api.mistral.ai/v1/chat/completions"
)

// openAIRequest is the chat-completions request body.
type openAIRequest struct {
	Model    string          `json:"model"`
	Messages []openAIMessage `json:"messages"`
	Tools    []openAITool    `json:"tools,omitempty"`
	// ToolChoice is "auto" whenever tools are bound.
	ToolChoice string `json:"tool_choice,omitempty"`
	// ParallelToolCalls is pinned to false when tools are bound so the
	// model proposes at most one call per turn. A pointer keeps the field
	// off the wire entirely when no tools are bound.
	ParallelToolCalls *bool    `json:"parallel_tool_calls,omitempty"`
	MaxTokens         int      `json:"max_tokens,omitempty"`
	Temperature       *float32 `json:"temperature,omitempty"`
	TopP              *float32 `json:"top_p,omitempty"`
}

// openAIMessage is one conversation entry on the wire.
type openAIMessage struct {
	Role       string           `json:"role"`
	Content    string           `json:"content"`
	Name       string           `json:"name,omitempty"`
	ToolCalls  []tools.ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
}

type openAITool struct {
	Type     string         `json:"type"`
	Function tools.Function `json:"function"`
}

// openAIResponse is a successful chat-completions response.
type openAIResponse struct {
	Choices []struct {
		Message openAIMessage `json:"message"`
	} `json:"choices"`
	Usage api.Usage `json:"usage"`
}

// OpenAIClient speaks the OpenAI chat-completions wire format. DeepSeek and
// Mistral expose the same format, so one client serves all three providers;
// only the base URL and the error-message prefix differ.
type OpenAIClient struct {
	provider   string
	apiKey     string
	baseURL    string
	httpClient *http.Client
	// retryDelay seeds the exponential backoff; tests shorten it.
	retryDelay time.Duration
}

// Statically verify that OpenAIClient implements the LLMClient interface.
var _ LLMClient = (*OpenAIClient)(nil)

func newOpenAICompatibleClient(provider, apiKey, baseURL string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%s API key cannot be empty", provider)
	}
	return &OpenAIClient{
		provider:   provider,
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		retryDelay: initialRetryDelay,
	}, nil
}

// NewOpenAIClient creates a client for the OpenAI API (gpt-* models).
func NewOpenAIClient(apiKey string) (*OpenAIClient, error) {
	return newOpenAICompatibleClient("openai", apiKey, openAIBaseURL)
}

// NewDeepSeekClient creates a client for the DeepSeek API (deepseek-* models).
func NewDeepSeekClient(apiKey string) (*OpenAIClient, error) {
	return newOpenAICompatibleClient("deepseek", apiKey, deepSeekBaseURL)
}

// NewMistralClient creates a client for the Mistral API (mistral-* models).
func NewMistralClient(apiKey string) (*OpenAIClient, error) {
	return newOpenAICompatibleClient("mistral", apiKey, mistralBaseURL)
}

// Generate performs one blocking chat-completions call.
func (c *OpenAIClient) Generate(
	ctx context.Context,
	messages []Message,
	config *GenerationConfig,
	availableTools []tools.Tool,
) (*GenerationResult, error) {
	payload, err := c.buildRequestPayload(messages, config, availableTools)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request payload: %w", c.provider, err)
	}

	respBody, err := c.doRequest(ctx, payload)
	if err != nil {
		return nil, err
	}

	return c.parseResponse(respBody)
}

// buildRequestPayload converts the generic messages and tools into the
// chat-completions request body.
func (c *OpenAIClient) buildRequestPayload(messages []Message, config *GenerationConfig, availableTools []tools.Tool) ([]byte, error) {
	req := openAIRequest{
		Model:    config.Model,
		Messages: toOpenAIMessages(messages),
		Tools:    toOpenAITools(availableTools),
	}

	if config.MaxTokens > 0 {
		req.MaxTokens = config.MaxTokens
	}
	if config.Temperature != nil {
		req.Temperature = config.Temperature
	}
	if config.TopP != nil {
		req.TopP = config.TopP
	}

	if len(req.Tools) > 0 {
		req.ToolChoice = "auto"
		noParallel := false
		req.ParallelToolCalls = &noParallel
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %w", err)
	}
	return payload, nil
}

// doRequest performs the HTTP call with exponential-backoff retries. Client
// errors (4xx) are not retried; context cancellation stops the backoff wait.
func (c *OpenAIClient) doRequest(ctx context.Context, payload []byte) ([]byte, error) {
	var lastErr error
	delay := c.retryDelay

	for i := 0; i < maxRetries; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		req, err := c.createRequest(ctx, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("request failed (attempt %d/%d): %w", i+1, maxRetries, err)
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return nil, fmt.Errorf("failed to read response body: %w", readErr)
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return body, nil
		}

		lastErr = fmt.Errorf("%s API error (attempt %d/%d): status %d, body: %s",
			c.provider, i+1, maxRetries, resp.StatusCode, string(body))

		// Client errors will not improve on retry.
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return nil, lastErr
		}
	}
	return nil, lastErr
}

func (c *OpenAIClient) createRequest(ctx context.Context, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	return req, nil
}

// toOpenAIMessages converts the internal message slice to the wire format.
func toOpenAIMessages(messages []Message) []openAIMessage {
	openAIMsgs := make([]openAIMessage, 0, len(messages))
	for _, msg := range messages {
		m := openAIMessage{Role: string(msg.Role), Content: msg.Content}
		switch msg.Role {
		case RoleTool:
			m.ToolCallID = msg.ToolCallID
			m.Name = msg.Name
		case RoleAssistant:
			if len(msg.ToolCalls) > 0 {
				m.ToolCalls = make([]tools.ToolCall, len(msg.ToolCalls))
				for i, tc := range msg.ToolCalls {
					m.ToolCalls[i] = *tc
				}
			}
		}
		openAIMsgs = append(openAIMsgs, m)
	}
	return openAIMsgs
}

func toOpenAITools(availableTools []tools.Tool) []openAITool {
	if len(availableTools) == 0 {
		return nil
	}
	openAITools := make([]openAITool, 0, len(availableTools))
	for _, tool := range availableTools {
		openAITools = append(openAITools, openAITool{
			Type:     tools.ToolTypeFunction,
			Function: tool.Function,
		})
	}
	return openAITools
}

// parseResponse converts a chat-completions response into a GenerationResult.
func (c *OpenAIClient) parseResponse(body []byte) (*GenerationResult, error) {
	var openAIResp openAIResponse
	if err := json.Unmarshal(body, &openAIResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s response: %w", c.provider, err)
	}
	if len(openAIResp.Choices) == 0 {
		return nil, errors.New("no choices returned from " + c.provider)
	}

	choice := openAIResp.Choices[0]
	result := &GenerationResult{
		Content: choice.Message.Content,
		Usage:   openAIResp.Usage,
	}

	if len(choice.Message.ToolCalls) > 0 {
		result.ToolCalls = make([]*tools.ToolCall, 0, len(choice.Message.ToolCalls))
		for _, tc := range choice.Message.ToolCalls {
			result.ToolCalls = append(result.ToolCalls, &tools.ToolCall{
				ID:   tc.ID,
				Type: tools.ToolTypeFunction,
				Function: tools.ToolCallFunction{
					Name:      tc.Function.Name,
					Arguments: tc.Function.Arguments,
				},
			})
		}
	}

	return result, nil
}
