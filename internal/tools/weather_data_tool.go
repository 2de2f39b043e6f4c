package tools

import (
	"context"
	"encoding/json"
	"fmt"
)

// --- Weather Data Tool Implementation ---

// WeatherDataTool returns structured weather data instead of chat text. The
// caller's UI renders the payload as a dynamic weather card.
type WeatherDataTool struct {
	provider WeatherProvider
}

// Statically verify that WeatherDataTool implements the ToolExecutor interface.
var _ ToolExecutor = (*WeatherDataTool)(nil)

// NewWeatherDataTool creates the get_weather_data_for_ui tool backed by
// provider.
func NewWeatherDataTool(provider WeatherProvider) *WeatherDataTool {
	return &WeatherDataTool{provider: provider}
}

// weatherCardData is the payload shape the frontend's weather cards expect.
type weatherCardData struct {
	City          string `json:"city"`
	Province      string `json:"province"`
	Temperature   string `json:"temperature"`
	Weather       string `json:"weather"`
	Humidity      string `json:"humidity"`
	WindDirection string `json:"wind_direction"`
	WindPower     string `json:"wind_power"`
	ReportTime    string `json:"report_time"`
}

// weatherCardResult wraps the payload in the success/error envelope the
// frontend checks before rendering.
type weatherCardResult struct {
	Success  bool             `json:"success,omitempty"`
	Location string           `json:"location,omitempty"`
	Data     *weatherCardData `json:"data,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// Definition describes the tool to the LLM.
func (wd *WeatherDataTool) Definition() Tool {
	return NewFunctionTool(
		"get_weather_data_for_ui",
		"Get structured weather data that frontend components can use to display dynamic weather cards. Prefer get_weather when a plain chat answer is enough.",
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

// Execute fetches the live weather and returns it as the JSON envelope.
// Failures are encoded into the envelope's error field rather than failing
// the call, so the model sees a well-formed result either way.
func (wd *WeatherDataTool) Execute(ctx context.Context, arguments string) (string, error) {
	var args struct {
		Location string `json:"location"`
	}
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return "", fmt.Errorf("invalid arguments for weather data tool: %w", err)
	}
	if args.Location == "" {
		return marshalCardResult(weatherCardResult{Error: "Error: Location cannot be empty."})
	}

	report, err := wd.provider.Live(ctx, args.Location)
	if err != nil {
		return marshalCardResult(weatherCardResult{
			Error: fmt.Sprintf("获取天气信息失败: %v", err),
		})
	}

	return marshalCardResult(weatherCardResult{
		Success:  true,
		Location: args.Location,
		Data: &weatherCardData{
			City:          report.City,
			Province:      report.Province,
			Temperature:   report.Temperature,
			Weather:       report.Weather,
			Humidity:      report.Humidity,
			WindDirection: report.WindDirection,
			WindPower:     report.WindPower,
			ReportTime:    report.ReportTime,
		},
	})
}

func marshalCardResult(result weatherCardResult) (string, error) {
	out, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("failed to encode weather card data: %w", err)
	}
	return string(out), nil
}
