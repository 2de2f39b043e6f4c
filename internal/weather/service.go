// Package weather talks to the Amap (高德地图) weather API. It resolves
// Chinese place names to the adcodes the API expects, fetches live
// observations and short forecasts, and formats them for chat display.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// defaultBaseURL is the public Amap weather endpoint. extensions=base returns
// the live observation, extensions=all the multi-day forecast.
const defaultBaseURL = "https://restapi.amap.com/v3/weather/weatherInfo"

const defaultTimeout = 10 * time.Second

// maxForecastDays is the longest outlook the Amap API serves.
const maxForecastDays = 3

// ErrLocationNotFound is returned when a location string resolves to no
// adcode. Callers can branch on it with errors.Is.
var ErrLocationNotFound = errors.New("location not found")

// CityCodeResolver maps a location string to an Amap adcode.
type CityCodeResolver interface {
	// Resolve returns the adcode for a place name, or ok=false when the name
	// is unknown.
	Resolve(location string) (adcode string, ok bool)
}

// Config carries the service's external-call settings.
type Config struct {
	// APIKey is the Amap Web service key.
	APIKey string
	// BaseURL overrides the weather endpoint; empty selects the public one.
	BaseURL string
	// Timeout bounds each HTTP call; zero selects 10s.
	Timeout time.Duration
}

// Service fetches weather data from Amap. It is constructed once at startup
// via NewService and is safe for concurrent use.
type Service struct {
	apiKey     string
	baseURL    string
	resolver   CityCodeResolver
	httpClient *http.Client
}

// NewService builds a Service from explicit configuration and a city-code
// resolver.
func NewService(cfg Config, resolver CityCodeResolver) (*Service, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("weather: Amap API key is required")
	}
	if resolver == nil {
		return nil, errors.New("weather: city code resolver is required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &Service{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		resolver:   resolver,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Report is one live observation. Amap returns every field as a string and
// they are kept that way.
type Report struct {
	City          string `json:"city"`
	Province      string `json:"province"`
	Adcode        string `json:"adcode"`
	Weather       string `json:"weather"`
	Temperature   string `json:"temperature"`
	Humidity      string `json:"humidity"`
	WindDirection string `json:"wind_direction"`
	WindPower     string `json:"wind_power"`
	ReportTime    string `json:"report_time"`
}

// Cast is one forecast day.
type Cast struct {
	Date string `json:"date"`
	// Week is the day of week, "1" (Monday) through "7" (Sunday).
	Week         string `json:"week"`
	DayWeather   string `json:"day_weather"`
	NightWeather string `json:"night_weather"`
	DayTemp      string `json:"day_temp"`
	NightTemp    string `json:"night_temp"`
	DayWind      string `json:"day_wind"`
	NightWind    string `json:"night_wind"`
	DayPower     string `json:"day_power"`
	NightPower   string `json:"night_power"`
}

// Forecast is the day-by-day outlook for one place.
type Forecast struct {
	City       string `json:"city"`
	Province   string `json:"province"`
	Adcode     string `json:"adcode"`
	ReportTime string `json:"report_time"`
	Casts      []Cast `json:"casts"`
}

// Live returns the current observation for a location (Chinese place name or
// 6-digit adcode).
func (s *Service) Live(ctx context.Context, location string) (*Report, error) {
	adcode, err := s.adcode(location)
	if err != nil {
		return nil, err
	}

	data, err := s.query(ctx, adcode, "base")
	if err != nil {
		return nil, err
	}
	if len(data.Lives) == 0 {
		return nil, fmt.Errorf("no weather data found for location: %s", location)
	}

	live := data.Lives[0]
	return &Report{
		City:          live.City,
		Province:      live.Province,
		Adcode:        live.Adcode,
		Weather:       live.Weather,
		Temperature:   live.Temperature,
		Humidity:      live.Humidity,
		WindDirection: live.WindDirection,
		WindPower:     live.WindPower,
		ReportTime:    live.ReportTime,
	}, nil
}

// Forecast returns the outlook for a location, truncated to days entries.
// days is clamped into the 1..3 range the API serves.
func (s *Service) Forecast(ctx context.Context, location string, days int) (*Forecast, error) {
	if days < 1 {
		days = 1
	}
	if days > maxForecastDays {
		days = maxForecastDays
	}

	adcode, err := s.adcode(location)
	if err != nil {
		return nil, err
	}

	data, err := s.query(ctx, adcode, "all")
	if err != nil {
		return nil, err
	}
	if len(data.Forecasts) == 0 {
		return nil, fmt.Errorf("no forecast data found for location: %s", location)
	}

	raw := data.Forecasts[0]
	forecast := &Forecast{
		City:       raw.City,
		Province:   raw.Province,
		Adcode:     raw.Adcode,
		ReportTime: raw.ReportTime,
	}
	for i, cast := range raw.Casts {
		if i >= days {
			break
		}
		forecast.Casts = append(forecast.Casts, Cast{
			Date:         cast.Date,
			Week:         cast.Week,
			DayWeather:   cast.DayWeather,
			NightWeather: cast.NightWeather,
			DayTemp:      cast.DayTemp,
			NightTemp:    cast.NightTemp,
			DayWind:      cast.DayWind,
			NightWind:    cast.NightWind,
			DayPower:     cast.DayPower,
			NightPower:   cast.NightPower,
		})
	}
	return forecast, nil
}

// adcode resolves a location string to the code the API wants. A 6-digit
// numeric location already is an adcode and passes through verbatim.
func (s *Service) adcode(location string) (string, error) {
	if isADCode(location) {
		return location, nil
	}
	if code, ok := s.resolver.Resolve(location); ok {
		return code, nil
	}
	return "", fmt.Errorf("%w: %s", ErrLocationNotFound, location)
}

func isADCode(s string) bool {
	if len(s) != 6 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// query performs one GET against the weather endpoint and validates the
// envelope. extensions is "base" for live data or "all" for forecasts.
func (s *Service) query(ctx context.Context, adcode, extensions string) (*amapResponse, error) {
	params := url.Values{}
	params.Set("key", s.apiKey)
	params.Set("city", adcode)
	params.Set("extensions", extensions)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create weather API request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call weather API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weather API returned non-200 status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read weather API response: %w", err)
	}

	var data amapResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("failed to parse weather API response: %w", err)
	}
	if data.Status != "1" {
		info := data.Info
		if info == "" {
			info = "unknown error"
		}
		return nil, fmt.Errorf("weather API error: %s", info)
	}
	return &data, nil
}

// Amap wire format. status is "1" on success; info carries the error text
// otherwise (e.g. "INVALID_USER_KEY").
type amapResponse struct {
	Status    string         `json:"status"`
	Info      string         `json:"info"`
	Infocode  string         `json:"infocode"`
	Lives     []amapLive     `json:"lives"`
	Forecasts []amapForecast `json:"forecasts"`
}

type amapLive struct {
	Province      string `json:"province"`
	City          string `json:"city"`
	Adcode        string `json:"adcode"`
	Weather       string `json:"weather"`
	Temperature   string `json:"temperature"`
	WindDirection string `json:"winddirection"`
	WindPower     string `json:"windpower"`
	Humidity      string `json:"humidity"`
	ReportTime    string `json:"reporttime"`
}

type amapForecast struct {
	City       string     `json:"city"`
	Adcode     string     `json:"adcode"`
	Province   string     `json:"province"`
	ReportTime string     `json:"reporttime"`
	Casts      []amapCast `json:"casts"`
}

type amapCast struct {
	Date         string `json:"date"`
	Week         string `json:"week"`
	DayWeather   string `json:"dayweather"`
	NightWeather string `json:"nightweather"`
	DayTemp      string `json:"daytemp"`
	NightTemp    string `json:"nighttemp"`
	DayWind      string `json:"daywind"`
	NightWind    string `json:"nightwind"`
	DayPower     string `json:"daypower"`
	NightPower   string `json:"nightpower"`
}
