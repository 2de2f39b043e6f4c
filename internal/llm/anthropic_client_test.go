package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/qingyun-ai/weather-agent/internal/tools"
)

func newTestAnthropicClient(t *testing.T, handler http.HandlerFunc) *AnthropicClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewAnthropicClient("test-key")
	if err != nil {
		t.Fatalf("NewAnthropicClient failed: %v", err)
	}
	client.baseURL = server.URL
	client.retryDelay = time.Millisecond
	return client
}

const anthropicTextResponse = `{"content":[{"type":"text","text":"It is sunny."}],
	"usage":{"input_tokens":12,"output_tokens":4}}`

func TestBuildAnthropicPayload(t *testing.T) {
	messages := []Message{
		{Role: RoleSystem, Content: "You are a weather assistant."},
		{Role: RoleUser, Content: "北京天气"},
		{Role: RoleAssistant, ToolCalls: []*tools.ToolCall{{
			ID:   "toolu-1",
			Type: tools.ToolTypeFunction,
			Function: tools.ToolCallFunction{
				Name:      "get_weather",
				Arguments: `{"location":"北京"}`,
			},
		}}},
		{Role: RoleTool, ToolCallID: "toolu-1", Content: "晴 25°C"},
	}

	payload, err := buildAnthropicPayload(messages, &GenerationConfig{Model: "claude-sonnet-4"}, []tools.Tool{sampleTool()})
	if err != nil {
		t.Fatalf("buildAnthropicPayload failed: %v", err)
	}

	var req anthropicRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		t.Fatalf("payload is not valid JSON: %v", err)
	}

	if req.System != "You are a weather assistant." {
		t.Errorf("system = %q, want the system prompt as a top-level field", req.System)
	}
	if req.MaxTokens != anthropicMaxTokens {
		t.Errorf("max_tokens = %d, want default %d", req.MaxTokens, anthropicMaxTokens)
	}
	if req.ToolChoice == nil || req.ToolChoice.Type != "auto" || !req.ToolChoice.DisableParallelToolUse {
		t.Errorf("tool_choice = %+v, want auto with parallel tool use disabled", req.ToolChoice)
	}
	if len(req.Tools) != 1 || req.Tools[0].Name != "get_weather" {
		t.Errorf("tools = %+v, want one get_weather entry", req.Tools)
	}

	// The system message stays out of the messages array.
	if len(req.Messages) != 3 {
		t.Fatalf("got %d messages, want 3", len(req.Messages))
	}

	assistant := req.Messages[1]
	if assistant.Role != "assistant" || len(assistant.Content) != 1 {
		t.Fatalf("assistant message = %+v, want one content block", assistant)
	}
	if block := assistant.Content[0]; block.Type != "tool_use" || block.ID != "toolu-1" || block.Name != "get_weather" {
		t.Errorf("assistant block = %+v, want tool_use toolu-1 / get_weather", block)
	}

	result := req.Messages[2]
	if result.Role != "user" {
		t.Errorf("tool result role = %q, want user", result.Role)
	}
	if block := result.Content[0]; block.Type != "tool_result" || block.ToolUseID != "toolu-1" || block.Content != "晴 25°C" {
		t.Errorf("tool result block = %+v, want tool_result for toolu-1", block)
	}
}

func TestBuildAnthropicPayloadOmitsToolChoiceWithoutTools(t *testing.T) {
	payload, err := buildAnthropicPayload([]Message{{Role: RoleUser, Content: "hi"}}, &GenerationConfig{Model: "claude-sonnet-4"}, nil)
	if err != nil {
		t.Fatalf("buildAnthropicPayload failed: %v", err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		t.Fatalf("payload is not valid JSON: %v", err)
	}
	for _, key := range []string{"tools", "tool_choice"} {
		if _, ok := fields[key]; ok {
			t.Errorf("payload contains %q without tools bound", key)
		}
	}
}

func TestBuildAnthropicPayloadRejectsInvalidArguments(t *testing.T) {
	messages := []Message{{Role: RoleAssistant, ToolCalls: []*tools.ToolCall{{
		ID:       "toolu-2",
		Type:     tools.ToolTypeFunction,
		Function: tools.ToolCallFunction{Name: "get_weather", Arguments: "not json"},
	}}}}

	if _, err := buildAnthropicPayload(messages, &GenerationConfig{Model: "claude-sonnet-4"}, nil); err == nil {
		t.Fatal("buildAnthropicPayload succeeded with non-JSON tool arguments, want error")
	}
}

func TestParseAnthropicResponseMixedBlocks(t *testing.T) {
	body := []byte(`{"content":[
		{"type":"text","text":"Looking that up."},
		{"type":"tool_use","id":"toolu-3","name":"get_weather","input":{"location":"上海"}}],
		"usage":{"input_tokens":30,"output_tokens":12}}`)

	result, err := parseAnthropicResponse(body)
	if err != nil {
		t.Fatalf("parseAnthropicResponse failed: %v", err)
	}
	if result.Content != "Looking that up." {
		t.Errorf("content = %q, want %q", result.Content, "Looking that up.")
	}
	if len(result.ToolCalls) != 1 {
		t.Fatalf("got %d tool calls, want 1", len(result.ToolCalls))
	}
	if call := result.ToolCalls[0]; call.ID != "toolu-3" || call.Function.Name != "get_weather" {
		t.Errorf("tool call = %+v, want toolu-3 / get_weather", call)
	}
	if result.Usage.TotalTokens != 42 {
		t.Errorf("total tokens = %d, want 42", result.Usage.TotalTokens)
	}
}

func TestAnthropicGenerateSetsHeaders(t *testing.T) {
	var gotKey, gotVersion string
	client := newTestAnthropicClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		gotVersion = r.Header.Get("anthropic-version")
		w.Write([]byte(anthropicTextResponse))
	})

	if _, err := client.Generate(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, &GenerationConfig{Model: "claude-sonnet-4"}, nil); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if gotKey != "test-key" {
		t.Errorf("x-api-key = %q, want %q", gotKey, "test-key")
	}
	if gotVersion != anthropicVersion {
		t.Errorf("anthropic-version = %q, want %q", gotVersion, anthropicVersion)
	}
}

func TestAnthropicGenerateDoesNotRetryClientErrors(t *testing.T) {
	var requests int
	client := newTestAnthropicClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		http.Error(w, `{"error":{"message":"invalid request"}}`, http.StatusBadRequest)
	})

	_, err := client.Generate(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, &GenerationConfig{Model: "claude-sonnet-4"}, nil)
	if err == nil {
		t.Fatal("Generate succeeded, want error on 400")
	}
	if requests != 1 {
		t.Errorf("server saw %d requests, want 1 (no retry on 4xx)", requests)
	}
	if !strings.Contains(err.Error(), "status 400") {
		t.Errorf("error = %v, want status 400 mentioned", err)
	}
}

func TestAnthropicGenerateRetriesServerErrors(t *testing.T) {
	var requests int
	client := newTestAnthropicClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests < 2 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(anthropicTextResponse))
	})

	result, err := client.Generate(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, &GenerationConfig{Model: "claude-sonnet-4"}, nil)
	if err != nil {
		t.Fatalf("Generate failed after retry: %v", err)
	}
	if requests != 2 {
		t.Errorf("server saw %d requests, want 2", requests)
	}
	if result.Content != "It is sunny." {
		t.Errorf("content = %q, want %q", result.Content, "It is sunny.")
	}
}
