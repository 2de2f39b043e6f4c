package main

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// defaultPort is used when PORT is not set.
const defaultPort = "8000"

// AppConfig is the fully resolved configuration: YAML settings plus the
// secrets and addresses taken from the environment.
type AppConfig struct {
	// Agent settings from config.yaml.
	Model         string
	MaxToolRounds int
	ClientTools   []string
	MaxTokens     int
	Temperature   *float32
	TopP          *float32
	// Weather settings.
	WeatherBaseURL string
	CityCodesPath  string
	WeatherTimeout time.Duration
	// Session settings.
	SessionTTL time.Duration
	// Environment-sourced values.
	ProviderAPIKey string
	AmapAPIKey     string
	RedisAddr      string
	Port           string
}

// yamlConfig mirrors config.yaml.
type yamlConfig struct {
	Agent struct {
		Model         string   `yaml:"model"`
		MaxToolRounds int      `yaml:"max_tool_rounds"`
		ClientTools   []string `yaml:"client_tools"`
		MaxTokens     int      `yaml:"max_tokens"`
		Temperature   *float32 `yaml:"temperature"`
		TopP          *float32 `yaml:"top_p"`
	} `yaml:"agent"`
	Weather struct {
		BaseURL        string `yaml:"base_url"`
		CityCodes      string `yaml:"city_codes"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"weather"`
	Session struct {
		TTLHours int `yaml:"ttl_hours"`
	} `yaml:"session"`
}

// LoadConfig reads the YAML file at path and the environment. In local
// development a .env file supplies the environment; in release mode
// (GIN_MODE=release) configuration comes from the deployment environment
// directly.
func LoadConfig(path string) (*AppConfig, error) {
	if os.Getenv("GIN_MODE") != "release" {
		if err := godotenv.Load(); err != nil {
			log.Println("WARNING: No .env file found for local development.")
		}
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var yc yamlConfig
	if err := yaml.Unmarshal(raw, &yc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if yc.Agent.Model == "" {
		return nil, fmt.Errorf("agent.model is not set in %s", path)
	}
	if yc.Weather.CityCodes == "" {
		return nil, fmt.Errorf("weather.city_codes is not set in %s", path)
	}

	keyEnv, err := providerKeyEnv(yc.Agent.Model)
	if err != nil {
		return nil, err
	}
	providerKey := os.Getenv(keyEnv)
	if providerKey == "" {
		return nil, fmt.Errorf("%s is not set (required for model %s)", keyEnv, yc.Agent.Model)
	}

	amapKey := os.Getenv("AMAP_API_KEY")
	if amapKey == "" {
		return nil, fmt.Errorf("AMAP_API_KEY is not set (the weather tools need it)")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}

	cfg := &AppConfig{
		Model:          yc.Agent.Model,
		MaxToolRounds:  yc.Agent.MaxToolRounds,
		ClientTools:    yc.Agent.ClientTools,
		MaxTokens:      yc.Agent.MaxTokens,
		Temperature:    yc.Agent.Temperature,
		TopP:           yc.Agent.TopP,
		WeatherBaseURL: yc.Weather.BaseURL,
		CityCodesPath:  yc.Weather.CityCodes,
		WeatherTimeout: time.Duration(yc.Weather.TimeoutSeconds) * time.Second,
		SessionTTL:     time.Duration(yc.Session.TTLHours) * time.Hour,
		ProviderAPIKey: providerKey,
		AmapAPIKey:     amapKey,
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		Port:           port,
	}
	return cfg, nil
}

// providerKeyEnv maps a model ID prefix to the environment variable holding
// that provider's API key.
func providerKeyEnv(model string) (string, error) {
	switch {
	case strings.HasPrefix(model, "deepseek"):
		return "DEEPSEEK_API_KEY", nil
	case strings.HasPrefix(model, "gpt"):
		return "OPENAI_API_KEY", nil
	case strings.HasPrefix(model, "claude"):
		return "ANTHROPIC_API_KEY", nil
	case strings.HasPrefix(model, "gemini"):
		return "GEMINI_API_KEY", nil
	case strings.HasPrefix(model, "mistral"):
		return "MISTRAL_API_KEY", nil
	default:
		return "", fmt.Errorf("unknown model provider for %q", model)
	}
}
