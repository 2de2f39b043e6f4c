package tools

import (
	"context"
	"testing"
)

// stubExecutor is a minimal tool for registry and routing tests.
type stubExecutor struct {
	name   string
	output string
	err    error
}

func (s *stubExecutor) Definition() Tool {
	return NewFunctionTool(s.name, "stub tool", JSONSchema{Type: "object"})
}

func (s *stubExecutor) Execute(_ context.Context, _ string) (string, error) {
	return s.output, s.err
}

func call(name string) *ToolCall {
	return &ToolCall{
		ID:       "call-" + name,
		Type:     ToolTypeFunction,
		Function: ToolCallFunction{Name: name, Arguments: "{}"},
	}
}

func TestPartitionSplitsByRegistryMembership(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubExecutor{name: "get_weather"})
	r.Register(&stubExecutor{name: "get_weather_forecast"})

	calls := []*ToolCall{
		call("add_weather_card_to_center"),
		call("get_weather"),
		call("setThemeColor"),
		call("get_weather_forecast"),
	}

	server, client := r.Partition(calls)

	if len(server) != 2 {
		t.Fatalf("expected 2 server calls, got %d", len(server))
	}
	if server[0].Function.Name != "get_weather" || server[1].Function.Name != "get_weather_forecast" {
		t.Errorf("server calls out of proposal order: %s, %s", server[0].Function.Name, server[1].Function.Name)
	}
	if len(client) != 2 {
		t.Fatalf("expected 2 client calls, got %d", len(client))
	}
	if client[0].Function.Name != "add_weather_card_to_center" || client[1].Function.Name != "setThemeColor" {
		t.Errorf("client calls out of proposal order: %s, %s", client[0].Function.Name, client[1].Function.Name)
	}
}

func TestPartitionUnknownNamesDefaultToClient(t *testing.T) {
	r := NewRegistry()

	server, client := r.Partition([]*ToolCall{call("never_heard_of_it"), call("")})

	if len(server) != 0 {
		t.Errorf("empty registry must not claim any calls, got %d", len(server))
	}
	if len(client) != 2 {
		t.Errorf("expected both calls routed to client, got %d", len(client))
	}
}

func TestPartitionEmptyAndNilSafe(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubExecutor{name: "get_weather"})

	server, client := r.Partition(nil)
	if server != nil || client != nil {
		t.Errorf("nil input should yield nil slices, got %v / %v", server, client)
	}

	server, client = r.Partition([]*ToolCall{nil, call("get_weather")})
	if len(server) != 1 || len(client) != 0 {
		t.Errorf("nil entries must be skipped, got %d server / %d client", len(server), len(client))
	}
}
