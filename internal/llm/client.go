// Package llm defines the provider-agnostic model client interface and its
// OpenAI-compatible, Anthropic and Gemini implementations.
package llm

import (
	"context"

	"github.com/qingyun-ai/weather-agent/internal/api"
	"github.com/qingyun-ai/weather-agent/internal/tools"
)

// Role identifies the originator of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one entry of a conversation history.
type Message struct {
	// ID survives persistence and the HTTP surface; providers never see it.
	ID      string `json:"id,omitempty"`
	Role    Role   `json:"role"`
	Content string `json:"content"`
	// Name is the tool name on RoleTool messages. Gemini replays tool
	// results keyed by function name rather than call ID, so the name is
	// stored alongside ToolCallID.
	Name string `json:"name,omitempty"`
	// ToolCallID links a RoleTool message to the assistant tool call it
	// answers.
	ToolCallID string `json:"tool_call_id,omitempty"`
	// ToolCalls are the calls an assistant message proposed.
	ToolCalls []*tools.ToolCall `json:"tool_calls,omitempty"`
}

// GenerationConfig holds the parameters of one model call.
type GenerationConfig struct {
	// Model is the provider's model ID (e.g. "deepseek-chat", "gpt-4o").
	Model string
	// Temperature controls randomness. A pointer distinguishes an explicit
	// 0.0 from unset.
	Temperature *float32
	// MaxTokens caps the response length; 0 means the provider's default.
	MaxTokens int
	// TopP is nucleus sampling, the alternative to Temperature.
	TopP *float32
}

// GenerationResult is the complete output of one model call.
type GenerationResult struct {
	Content string
	// ToolCalls the model proposed. The agent loop routes each one either to
	// the server-side registry or back to the caller.
	ToolCalls []*tools.ToolCall
	// Usage holds the token statistics for this call.
	Usage api.Usage
}

// LLMClient is the interface every provider client implements. The agent
// loop is strict request/response (a model turn, maybe tool turns, another
// model turn), so a single blocking call is the whole contract.
type LLMClient interface {
	Generate(
		ctx context.Context,
		messages []Message,
		config *GenerationConfig,
		availableTools []tools.Tool,
	) (*GenerationResult, error)
}
