package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/qingyun-ai/weather-agent/internal/weather"
)

// --- Forecast Tool Implementation ---

// defaultForecastDays is used when the model omits the days argument.
const defaultForecastDays = 3

// ForecastTool answers forecast questions with a one-to-three day outlook.
type ForecastTool struct {
	provider WeatherProvider
}

// Statically verify that ForecastTool implements the ToolExecutor interface.
var _ ToolExecutor = (*ForecastTool)(nil)

// NewForecastTool creates the get_weather_forecast tool backed by provider.
func NewForecastTool(provider WeatherProvider) *ForecastTool {
	return &ForecastTool{provider: provider}
}

// Definition describes the tool to the LLM.
func (ft *ForecastTool) Definition() Tool {
	return NewFunctionTool(
		"get_weather_forecast",
		"Get the weather forecast for a given location using Amap (高德地图) API.",
		JSONSchema{
			Type: "object",
			Properties: map[string]*JSONSchema{
				"location": {
					Type:        "string",
					Description: "City name in Chinese (e.g., 北京, 上海, 广州) or a 6-digit adcode",
				},
				"days": {
					Type:        "number",
					Description: "Number of days to forecast (1-3, default 3)",
				},
			},
			Required: []string{"location"},
		},
	)
}

// Execute fetches the forecast and returns it as one block per day.
func (ft *ForecastTool) Execute(ctx context.Context, arguments string) (string, error) {
	var args struct {
		Location string   `json:"location"`
		Days     *float64 `json:"days"`
	}
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return "", fmt.Errorf("invalid arguments for forecast tool: %w", err)
	}
	if args.Location == "" {
		return "Error: Location cannot be empty.", nil
	}

	// Models emit numbers, not integers; an absent days means the default.
	days := defaultForecastDays
	if args.Days != nil {
		days = int(*args.Days)
	}

	forecast, err := ft.provider.Forecast(ctx, args.Location, days)
	if err != nil {
		return fmt.Sprintf("获取天气预报失败: %v", err), nil
	}

	return weather.FormatForecast(forecast), nil
}
