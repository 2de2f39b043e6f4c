package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/qingyun-ai/weather-agent/internal/tools"
)

func newTestOpenAIClient(t *testing.T, handler http.HandlerFunc) *OpenAIClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := newOpenAICompatibleClient("openai", "test-key", server.URL)
	if err != nil {
		t.Fatalf("newOpenAICompatibleClient failed: %v", err)
	}
	client.retryDelay = time.Millisecond
	return client
}

func sampleTool() tools.Tool {
	return tools.NewFunctionTool("get_weather", "Look up current weather.", tools.JSONSchema{
		Type: "object",
		Properties: map[string]*tools.JSONSchema{
			"location": {Type: "string", Description: "City name."},
		},
		Required: []string{"location"},
	})
}

const openAITextResponse = `{"choices":[{"message":{"role":"assistant","content":"It is sunny."}}],
	"usage":{"prompt_tokens":10,"completion_tokens":5,"total_tokens":15}}`

func TestGenerateBindsToolsWithSingleCallMode(t *testing.T) {
	var rawBody []byte
	client := newTestOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		rawBody, _ = io.ReadAll(r.Body)
		w.Write([]byte(openAITextResponse))
	})

	messages := []Message{{Role: RoleUser, Content: "今天北京天气怎么样？"}}
	config := &GenerationConfig{Model: "gpt-4o"}
	if _, err := client.Generate(context.Background(), messages, config, []tools.Tool{sampleTool()}); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	var got struct {
		Model             string       `json:"model"`
		ToolChoice        string       `json:"tool_choice"`
		ParallelToolCalls *bool        `json:"parallel_tool_calls"`
		Tools             []openAITool `json:"tools"`
	}
	if err := json.Unmarshal(rawBody, &got); err != nil {
		t.Fatalf("request body is not valid JSON: %v", err)
	}
	if got.ToolChoice != "auto" {
		t.Errorf("tool_choice = %q, want %q", got.ToolChoice, "auto")
	}
	if got.ParallelToolCalls == nil || *got.ParallelToolCalls {
		t.Errorf("parallel_tool_calls = %v, want false", got.ParallelToolCalls)
	}
	if len(got.Tools) != 1 || got.Tools[0].Function.Name != "get_weather" {
		t.Errorf("tools = %+v, want one get_weather entry", got.Tools)
	}
}

func TestGenerateOmitsToolFieldsWithoutTools(t *testing.T) {
	var rawBody []byte
	client := newTestOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		rawBody, _ = io.ReadAll(r.Body)
		w.Write([]byte(openAITextResponse))
	})

	messages := []Message{{Role: RoleUser, Content: "hello"}}
	if _, err := client.Generate(context.Background(), messages, &GenerationConfig{Model: "gpt-4o"}, nil); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(rawBody, &fields); err != nil {
		t.Fatalf("request body is not valid JSON: %v", err)
	}
	for _, key := range []string{"tools", "tool_choice", "parallel_tool_calls"} {
		if _, ok := fields[key]; ok {
			t.Errorf("request body contains %q without tools bound", key)
		}
	}
}

func TestGenerateSerializesToolCallHistory(t *testing.T) {
	var rawBody []byte
	client := newTestOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		rawBody, _ = io.ReadAll(r.Body)
		w.Write([]byte(openAITextResponse))
	})

	messages := []Message{
		{Role: RoleUser, Content: "北京天气"},
		{Role: RoleAssistant, ToolCalls: []*tools.ToolCall{{
			ID:   "call-1",
			Type: tools.ToolTypeFunction,
			Function: tools.ToolCallFunction{
				Name:      "get_weather",
				Arguments: `{"location":"北京"}`,
			},
		}}},
		{Role: RoleTool, Name: "get_weather", ToolCallID: "call-1", Content: "晴 25°C"},
	}
	if _, err := client.Generate(context.Background(), messages, &GenerationConfig{Model: "gpt-4o"}, nil); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	var got struct {
		Messages []openAIMessage `json:"messages"`
	}
	if err := json.Unmarshal(rawBody, &got); err != nil {
		t.Fatalf("request body is not valid JSON: %v", err)
	}
	if len(got.Messages) != 3 {
		t.Fatalf("got %d messages, want 3", len(got.Messages))
	}

	assistant := got.Messages[1]
	if len(assistant.ToolCalls) != 1 {
		t.Fatalf("assistant message has %d tool calls, want 1", len(assistant.ToolCalls))
	}
	if assistant.ToolCalls[0].ID != "call-1" || assistant.ToolCalls[0].Function.Name != "get_weather" {
		t.Errorf("assistant tool call = %+v, want id call-1 / get_weather", assistant.ToolCalls[0])
	}

	result := got.Messages[2]
	if result.Role != "tool" || result.ToolCallID != "call-1" || result.Name != "get_weather" {
		t.Errorf("tool message = %+v, want role tool, tool_call_id call-1, name get_weather", result)
	}
}

func TestGenerateParsesToolCallsAndUsage(t *testing.T) {
	client := newTestOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"",
			"tool_calls":[{"id":"call-9","type":"function",
				"function":{"name":"get_weather_forecast","arguments":"{\"location\":\"上海\",\"days\":2}"}}]}}],
			"usage":{"prompt_tokens":20,"completion_tokens":8,"total_tokens":28}}`))
	})

	result, err := client.Generate(context.Background(), []Message{{Role: RoleUser, Content: "上海"}}, &GenerationConfig{Model: "gpt-4o"}, nil)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(result.ToolCalls) != 1 {
		t.Fatalf("got %d tool calls, want 1", len(result.ToolCalls))
	}
	call := result.ToolCalls[0]
	if call.ID != "call-9" || call.Function.Name != "get_weather_forecast" {
		t.Errorf("tool call = %+v, want id call-9 / get_weather_forecast", call)
	}
	if !strings.Contains(call.Function.Arguments, "上海") {
		t.Errorf("arguments = %q, want to contain 上海", call.Function.Arguments)
	}
	if result.Usage.TotalTokens != 28 {
		t.Errorf("total tokens = %d, want 28", result.Usage.TotalTokens)
	}
}

func TestGenerateDoesNotRetryClientErrors(t *testing.T) {
	var requests int
	client := newTestOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		http.Error(w, `{"error":{"message":"invalid api key"}}`, http.StatusUnauthorized)
	})

	_, err := client.Generate(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, &GenerationConfig{Model: "gpt-4o"}, nil)
	if err == nil {
		t.Fatal("Generate succeeded, want error on 401")
	}
	if requests != 1 {
		t.Errorf("server saw %d requests, want 1 (no retry on 4xx)", requests)
	}
	if !strings.Contains(err.Error(), "status 401") {
		t.Errorf("error = %v, want status 401 mentioned", err)
	}
}

func TestGenerateRetriesServerErrors(t *testing.T) {
	var requests int
	client := newTestOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests < 3 {
			http.Error(w, "upstream overloaded", http.StatusInternalServerError)
			return
		}
		w.Write([]byte(openAITextResponse))
	})

	result, err := client.Generate(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, &GenerationConfig{Model: "gpt-4o"}, nil)
	if err != nil {
		t.Fatalf("Generate failed after retries: %v", err)
	}
	if requests != 3 {
		t.Errorf("server saw %d requests, want 3", requests)
	}
	if result.Content != "It is sunny." {
		t.Errorf("content = %q, want %q", result.Content, "It is sunny.")
	}
}

func TestGenerateStopsRetryingOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	client := newTestOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		cancel()
		http.Error(w, "upstream overloaded", http.StatusInternalServerError)
	})
	// A long delay so the backoff wait only ends via the cancelled context.
	client.retryDelay = time.Minute

	_, err := client.Generate(ctx, []Message{{Role: RoleUser, Content: "hi"}}, &GenerationConfig{Model: "gpt-4o"}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Generate error = %v, want context.Canceled", err)
	}
}
