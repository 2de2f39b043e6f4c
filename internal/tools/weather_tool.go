package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/qingyun-ai/weather-agent/internal/weather"
)

// --- Weather Tool Implementation ---

// WeatherProvider is the weather capability the weather tools depend on.
// *weather.Service satisfies it; tests substitute their own.
type WeatherProvider interface {
	Live(ctx context.Context, location string) (*weather.Report, error)
	Forecast(ctx context.Context, location string, days int) (*weather.Forecast, error)
}

// WeatherTool answers "what's the weather" questions in chat: it fetches the
// live observation for a location and renders it as the emoji weather card.
type WeatherTool struct {
	provider WeatherProvider
}

// Statically verify that WeatherTool implements the ToolExecutor interface.
var _ ToolExecutor = (*WeatherTool)(nil)

// NewWeatherTool creates the get_weather tool backed by provider.
func NewWeatherTool(provider WeatherProvider) *WeatherTool {
	return &WeatherTool{provider: provider}
}

// Definition describes the tool to the LLM.
func (wt *WeatherTool) Definition() Tool {
	return NewFunctionTool(
		"get_weather",
		"Get the current weather for a given location using Amap (高德地图) API. Use this to show weather info in chat.",
		JSONSchema{
			Type: "object",
			Properties: map[string]*JSONSchema{
				"location": {
					Type:        "string",
					Description: "City name in Chinese (e.g., 北京, 上海, 广州) or a 6-digit adcode",
				},
			},
			Required: []string{"location"},
		},
	)
}

// Execute fetches the live weather and returns the formatted card. Lookup
// failures become tool-result text so the model can relay them, matching the
// product's Chinese error strings.
func (wt *WeatherTool) Execute(ctx context.Context, arguments string) (string, error) {
	var args struct {
		Location string `json:"location"`
	}
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return "", fmt.Errorf("invalid arguments for weather tool: %w", err)
	}
	if args.Location == "" {
		return "Error: Location cannot be empty.", nil
	}

	report, err := wt.provider.Live(ctx, args.Location)
	if err != nil {
		return fmt.Sprintf("获取天气信息失败: %v", err), nil
	}

	return weather.FormatReport(report), nil
}
