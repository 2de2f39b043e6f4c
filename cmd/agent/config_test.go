package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const testYAML = `agent:
  model: deepseek-chat
  max_tool_rounds: 4
  client_tools:
    - add_weather_card_to_center
    - setThemeColor
weather:
  city_codes: data/AMap_adcode_citycode.CSV
  timeout_seconds: 5
session:
  ttl_hours: 12
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("DEEPSEEK_API_KEY", "sk-test")
	t.Setenv("AMAP_API_KEY", "amap-test")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("PORT", "9000")

	cfg, err := LoadConfig(writeConfig(t, testYAML))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Model != "deepseek-chat" || cfg.MaxToolRounds != 4 {
		t.Errorf("agent settings wrong: %+v", cfg)
	}
	if len(cfg.ClientTools) != 2 {
		t.Errorf("client tools wrong: %v", cfg.ClientTools)
	}
	if cfg.WeatherTimeout != 5*time.Second || cfg.SessionTTL != 12*time.Hour {
		t.Errorf("durations wrong: timeout=%s ttl=%s", cfg.WeatherTimeout, cfg.SessionTTL)
	}
	if cfg.ProviderAPIKey != "sk-test" || cfg.AmapAPIKey != "amap-test" {
		t.Errorf("keys not loaded: %+v", cfg)
	}
	if cfg.RedisAddr != "localhost:6379" || cfg.Port != "9000" {
		t.Errorf("addresses wrong: %+v", cfg)
	}
}

func TestLoadConfigDefaultPort(t *testing.T) {
	t.Setenv("DEEPSEEK_API_KEY", "sk-test")
	t.Setenv("AMAP_API_KEY", "amap-test")
	t.Setenv("PORT", "")

	cfg, err := LoadConfig(writeConfig(t, testYAML))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Port != defaultPort {
		t.Errorf("Port = %s, want %s", cfg.Port, defaultPort)
	}
}

func TestLoadConfigMissingProviderKey(t *testing.T) {
	t.Setenv("DEEPSEEK_API_KEY", "")
	t.Setenv("AMAP_API_KEY", "amap-test")

	_, err := LoadConfig(writeConfig(t, testYAML))
	if err == nil || !strings.Contains(err.Error(), "DEEPSEEK_API_KEY") {
		t.Fatalf("expected a missing-key error naming the variable, got %v", err)
	}
}

func TestLoadConfigMissingAmapKey(t *testing.T) {
	t.Setenv("DEEPSEEK_API_KEY", "sk-test")
	t.Setenv("AMAP_API_KEY", "")

	_, err := LoadConfig(writeConfig(t, testYAML))
	if err == nil || !strings.Contains(err.Error(), "AMAP_API_KEY") {
		t.Fatalf("expected a missing-key error, got %v", err)
	}
}

func TestLoadConfigUnknownProvider(t *testing.T) {
	t.Setenv("AMAP_API_KEY", "amap-test")
	yaml := strings.Replace(testYAML, "deepseek-chat", "llama-unknown", 1)

	if _, err := LoadConfig(writeConfig(t, yaml)); err == nil {
		t.Fatal("expected an error for an unknown model provider")
	}
}

func TestProviderKeyEnvPrefixes(t *testing.T) {
	cases := map[string]string{
		"deepseek-chat":        "DEEPSEEK_API_KEY",
		"gpt-4o":               "OPENAI_API_KEY",
		"claude-sonnet-4-0":    "ANTHROPIC_API_KEY",
		"gemini-2.0-flash":     "GEMINI_API_KEY",
		"mistral-large-latest": "MISTRAL_API_KEY",
	}
	for model, want := range cases {
		got, err := providerKeyEnv(model)
		if err != nil || got != want {
			t.Errorf("providerKeyEnv(%s) = %s, %v; want %s", model, got, err, want)
		}
	}
}
