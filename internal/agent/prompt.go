package agent

import (
	"fmt"
	"strings"

	"github.com/qingyun-ai/weather-agent/internal/tools"
)

// systemPrompt builds the per-run system message. It is rebuilt every run
// because the proverbs and the client tool set change between requests, and
// it is never persisted to the thread.
func (a *Agent) systemPrompt(proverbs []string, clientTools []tools.Tool) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are a helpful assistant. The current proverbs are %s.\n\n", formatProverbs(proverbs))

	b.WriteString("Available tools:\n")
	fmt.Fprintf(&b, "- Backend tools (handled by server): %s\n", strings.Join(a.registry.Names(), ", "))
	if names := a.clientToolNames(clientTools); len(names) > 0 {
		fmt.Fprintf(&b, "- Frontend tools (handled by UI): %s\n", strings.Join(names, ", "))
	}

	b.WriteString(`
When users ask for weather information:
- Use 'get_weather' to show weather info in chat
- Use 'add_weather_card_to_center' to add persistent weather cards to the page center

When users ask to add weather cards to the page, use the 'add_weather_card_to_center' tool with the location parameter.

Choose the appropriate tool based on user intent. When explaining tool names, use plain text instead of code blocks to avoid HTML nesting issues.`)

	return b.String()
}

// clientToolNames merges the configured well-known frontend tools with the
// definitions supplied on this request, keeping configured order first and
// dropping duplicates.
func (a *Agent) clientToolNames(clientTools []tools.Tool) []string {
	seen := make(map[string]bool, len(a.cfg.ClientToolNames)+len(clientTools))
	names := make([]string, 0, len(a.cfg.ClientToolNames)+len(clientTools))
	for _, name := range a.cfg.ClientToolNames {
		if name != "" && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	for _, tool := range clientTools {
		name := tool.Function.Name
		if name != "" && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

// formatProverbs renders the proverb list the way the UI displays it.
func formatProverbs(proverbs []string) string {
	if len(proverbs) == 0 {
		return "[]"
	}
	quoted := make([]string, len(proverbs))
	for i, p := range proverbs {
		quoted[i] = fmt.Sprintf("%q", p)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
