// Package agent runs the chat/tool loop: call the model, execute whatever
// server-side tool calls it proposed, feed the results back, and repeat until
// the model answers in plain text or only client-side calls remain.
package agent

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/qingyun-ai/weather-agent/internal/api"
	"github.com/qingyun-ai/weather-agent/internal/llm"
	"github.com/qingyun-ai/weather-agent/internal/tools"
)

// defaultMaxToolRounds bounds the number of model calls per run when the
// configuration does not set its own limit.
const defaultMaxToolRounds = 5

// Config holds the agent's fixed settings, loaded once at startup.
type Config struct {
	// Model is the provider model ID every run uses.
	Model string
	// MaxToolRounds caps the model calls in a single run; zero selects the
	// default.
	MaxToolRounds int
	// ClientToolNames are the well-known frontend tools listed in the
	// system prompt even when a request supplies no definitions for them.
	ClientToolNames []string
	// Default generation parameters; requests may override them.
	MaxTokens   int
	Temperature *float32
	TopP        *float32
}

// Agent drives the loop for one configured model and tool registry. It is
// stateless between runs and safe for concurrent use.
type Agent struct {
	client   llm.LLMClient
	registry *tools.Registry
	cfg      Config
}

func New(client llm.LLMClient, registry *tools.Registry, cfg Config) *Agent {
	if cfg.MaxToolRounds <= 0 {
		cfg.MaxToolRounds = defaultMaxToolRounds
	}
	return &Agent{client: client, registry: registry, cfg: cfg}
}

// RunInput is everything one run needs: the thread's history, the client-side
// tool definitions the caller brought along, and the UI state the system
// prompt embeds.
type RunInput struct {
	ThreadID    string
	Messages    []llm.Message
	ClientTools []tools.Tool
	Proverbs    []string
	Options     *api.GenerationOptions
}

// RunResult reports what one run produced. NewMessages holds only the
// messages generated during this run, in append order; ClientCalls are the
// tool calls the caller must execute itself.
type RunResult struct {
	RunID       string
	ModelUsed   string
	NewMessages []llm.Message
	ClientCalls []*tools.ToolCall
	Usage       api.Usage
}

// Run executes the loop until the model stops proposing server-side calls.
//
// Each round appends the assistant message, partitions its tool calls by
// registry membership, and executes the server set in proposal order. Tool
// failures become tool-result text rather than run failures so the model can
// explain the problem. Client calls are accumulated and handed back; if a
// round produces no server calls the run is over.
func (a *Agent) Run(ctx context.Context, in RunInput) (*RunResult, error) {
	result := &RunResult{
		RunID:     uuid.NewString(),
		ModelUsed: a.cfg.Model,
	}

	history := make([]llm.Message, 0, len(in.Messages)+1)
	history = append(history, llm.Message{
		Role:    llm.RoleSystem,
		Content: a.systemPrompt(in.Proverbs, in.ClientTools),
	})
	history = append(history, in.Messages...)

	available := append(a.registry.Definitions(), in.ClientTools...)
	genConfig := a.generationConfig(in.Options)

	for round := 0; round < a.cfg.MaxToolRounds; round++ {
		generated, err := a.client.Generate(ctx, history, genConfig, available)
		if err != nil {
			return nil, fmt.Errorf("model call failed (run %s): %w", result.RunID, err)
		}
		result.Usage.Add(generated.Usage)

		assistant := llm.Message{
			ID:        uuid.NewString(),
			Role:      llm.RoleAssistant,
			Content:   generated.Content,
			ToolCalls: generated.ToolCalls,
		}
		history = append(history, assistant)
		result.NewMessages = append(result.NewMessages, assistant)

		serverCalls, clientCalls := a.registry.Partition(generated.ToolCalls)
		result.ClientCalls = append(result.ClientCalls, clientCalls...)

		// No server work left: the caller takes over, either to render
		// the answer or to execute the client calls.
		if len(serverCalls) == 0 {
			return result, nil
		}

		for _, call := range serverCalls {
			log.Printf("🛠️ Executing tool: %s (ID: %s) with args: %s",
				call.Function.Name, call.ID, call.Function.Arguments)
			output, err := a.registry.Execute(ctx, call.Function.Name, call.Function.Arguments)
			if err != nil {
				output = fmt.Sprintf("Error executing tool %s: %v", call.Function.Name, err)
			}
			toolMsg := llm.Message{
				ID:         uuid.NewString(),
				Role:       llm.RoleTool,
				Content:    output,
				Name:       call.Function.Name,
				ToolCallID: call.ID,
			}
			history = append(history, toolMsg)
			result.NewMessages = append(result.NewMessages, toolMsg)
		}
	}

	return nil, fmt.Errorf("run %s exceeded the maximum of %d tool rounds", result.RunID, a.cfg.MaxToolRounds)
}

// generationConfig merges per-request overrides onto the configured defaults.
func (a *Agent) generationConfig(opts *api.GenerationOptions) *llm.GenerationConfig {
	cfg := &llm.GenerationConfig{
		Model:       a.cfg.Model,
		MaxTokens:   a.cfg.MaxTokens,
		Temperature: a.cfg.Temperature,
		TopP:        a.cfg.TopP,
	}
	if opts == nil {
		return cfg
	}
	if opts.MaxTokens > 0 {
		cfg.MaxTokens = opts.MaxTokens
	}
	if opts.Temperature != nil {
		cfg.Temperature = opts.Temperature
	}
	if opts.TopP != nil {
		cfg.TopP = opts.TopP
	}
	return cfg
}
