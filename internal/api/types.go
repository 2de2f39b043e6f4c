// Package api defines the public JSON types of the agent's HTTP surface.
// These are the shapes callers send and receive; the internal llm and agent
// packages have their own richer types and convert at the boundary.
package api

import (
	"encoding/json"

	"github.com/qingyun-ai/weather-agent/internal/tools"
)

// Message is a single chat message on the wire. Role is one of "system",
// "user", "assistant" or "tool". Tool-result messages carry the ToolCallID of
// the call they answer and the tool's Name, so a caller that executed a
// client-side tool can post the result back on its next request.
type Message struct {
	// ID identifies the message across requests. The server assigns one to
	// every message it produces; callers may supply their own.
	ID      string `json:"id,omitempty"`
	Role    string `json:"role"`
	Content string `json:"content,omitempty"`
	// Name is the tool name on role="tool" messages.
	Name string `json:"name,omitempty"`
	// ToolCallID links a role="tool" message to the assistant tool call it
	// answers.
	ToolCallID string `json:"tool_call_id,omitempty"`
	// ToolCalls holds the calls an assistant message proposed.
	ToolCalls []*tools.ToolCall `json:"tool_calls,omitempty"`
}

// State is the UI-owned conversation state the caller syncs with each request.
// The agent reads it (proverbs are embedded in the system prompt) but never
// mutates it; client-side tools change it on the client, which sends the
// updated copy back.
type State struct {
	Proverbs []string `json:"proverbs"`
	// WeatherCards are opaque card payloads rendered by the caller. The server
	// only stores and echoes them.
	WeatherCards []json.RawMessage `json:"weather_cards,omitempty"`
}

// GenerationOptions are optional per-request overrides for the model call.
// Zero values mean "use the configured defaults".
type GenerationOptions struct {
	MaxTokens   int      `json:"max_tokens,omitempty"`
	Temperature *float32 `json:"temperature,omitempty"`
	TopP        *float32 `json:"top_p,omitempty"`
}

// ChatRequest starts one agent run on a thread.
//
// Messages are the NEW messages for this run (typically one user message, or
// the tool results for client calls returned by the previous run); the server
// keeps the rest of the thread history. Tools are the client-side tool
// definitions available for this run; any tool call whose name is not in the
// server registry is routed back to the caller, so names listed here never
// execute on the server.
type ChatRequest struct {
	ThreadID string             `json:"thread_id"`
	Messages []Message          `json:"messages" binding:"required"`
	Tools    []tools.Tool       `json:"tools,omitempty"`
	State    *State             `json:"state,omitempty"`
	Options  *GenerationOptions `json:"options,omitempty"`
}

// ChatResponse reports the outcome of one agent run.
//
// Messages contains only the messages produced by this run, in order
// (assistant messages and the tool results of server-executed calls).
// ClientToolCalls are the calls the caller must execute itself; when it is
// non-empty the agent has handed control back and expects the results as
// role="tool" messages on the next request.
type ChatResponse struct {
	RunID           string            `json:"run_id"`
	ThreadID        string            `json:"thread_id"`
	ModelUsed       string            `json:"model_used"`
	Messages        []Message         `json:"messages"`
	ClientToolCalls []*tools.ToolCall `json:"client_tool_calls,omitempty"`
	State           State             `json:"state"`
	Usage           Usage             `json:"usage"`
	LatencyMS       int64             `json:"latency_ms"`
}

// ToolListResponse describes the tool split: definitions the server executes
// itself and the client-tool names it knows about from configuration.
type ToolListResponse struct {
	ServerTools     []tools.Tool `json:"server_tools"`
	ClientToolNames []string     `json:"client_tool_names"`
}

// Usage tracks token consumption across the model calls of a run.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Add accumulates another usage record into u.
func (u *Usage) Add(other Usage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
}
