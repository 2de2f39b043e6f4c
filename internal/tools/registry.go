package tools

import (
	"context"
	"fmt"
)

// Registry holds the server-executed tools. Registration happens once at
// startup; afterwards the registry is read-only and safe for concurrent use.
type Registry struct {
	tools map[string]ToolExecutor
	// names preserves registration order so tool definitions and prompt
	// listings are stable between runs.
	names []string
}

func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]ToolExecutor),
	}
}

// Register adds a tool under its definition name. Registering the same name
// twice replaces the executor but keeps its original position.
func (r *Registry) Register(tool ToolExecutor) {
	name := tool.Definition().Function.Name
	if _, exists := r.tools[name]; !exists {
		r.names = append(r.names, name)
	}
	r.tools[name] = tool
}

// Definitions returns all registered tool definitions in registration order.
func (r *Registry) Definitions() []Tool {
	defs := make([]Tool, 0, len(r.names))
	for _, name := range r.names {
		defs = append(defs, r.tools[name].Definition())
	}
	return defs
}

// Has reports whether name is a registered server-side tool.
func (r *Registry) Has(name string) bool {
	_, ok := r.tools[name]
	return ok
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.names))
	copy(names, r.names)
	return names
}

// Execute runs a registered tool by name with the given arguments.
func (r *Registry) Execute(ctx context.Context, name, arguments string) (string, error) {
	tool, ok := r.tools[name]
	if !ok {
		return "", fmt.Errorf("tool '%s' not found", name)
	}
	return tool.Execute(ctx, arguments)
}

// Count returns the number of registered tools.
func (r *Registry) Count() int {
	return len(r.names)
}
