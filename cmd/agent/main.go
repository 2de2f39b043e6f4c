// Command agent serves the conversational weather agent: a JSON chat API
// that loops between an LLM, the server-side weather tools, and whatever
// client-side tools the caller brings along.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/qingyun-ai/weather-agent/internal/agent"
	"github.com/qingyun-ai/weather-agent/internal/llm"
	"github.com/qingyun-ai/weather-agent/internal/session"
	"github.com/qingyun-ai/weather-agent/internal/tools"
	"github.com/qingyun-ai/weather-agent/internal/weather"
)

// main is the composition root: it loads configuration, constructs every
// service explicitly, injects the dependencies, and starts the server.
func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	buildInfo := GetBuildInfo()
	log.Printf("🚀 Starting Weather Agent | Version: %s | Commit: %s", buildInfo.Version, buildInfo.GitCommit)

	cfg, err := LoadConfig("config.yaml")
	if err != nil {
		log.Fatalf("❌ FATAL: Configuration Error: %v", err)
	}
	log.Println("✅ Configuration loaded.")

	store, err := initializeStore(cfg)
	if err != nil {
		log.Fatalf("❌ FATAL: %v", err)
	}

	registry, err := initializeRegistry(cfg)
	if err != nil {
		log.Fatalf("❌ FATAL: %v", err)
	}

	client, err := initializeLLMClient(cfg)
	if err != nil {
		log.Fatalf("❌ FATAL: %v", err)
	}

	weatherAgent := agent.New(client, registry, agent.Config{
		Model:           cfg.Model,
		MaxToolRounds:   cfg.MaxToolRounds,
		ClientToolNames: cfg.ClientTools,
		MaxTokens:       cfg.MaxTokens,
		Temperature:     cfg.Temperature,
		TopP:            cfg.TopP,
	})
	handler := NewAgentHandler(weatherAgent, store, registry, cfg.ClientTools)
	log.Println("✅ All services initialized.")

	gin.SetMode(os.Getenv("GIN_MODE"))
	engine := gin.Default()
	v1 := engine.Group("/api/v1")
	{
		v1.POST("/chat", handler.HandleChat)
		v1.GET("/tools", handler.HandleListTools)
	}
	engine.GET("/healthz", handler.HandleHealth)

	srv := &http.Server{Addr: fmt.Sprintf(":%s", cfg.Port), Handler: engine}
	runServerWithGracefulShutdown(srv)
}

// initializeStore selects Redis when an address is configured, otherwise the
// in-process store.
func initializeStore(cfg *AppConfig) (session.Store, error) {
	if cfg.RedisAddr == "" {
		log.Println("✅ Using in-memory thread store (REDIS_ADDR not set).")
		return session.NewMemoryStore(), nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		return nil, fmt.Errorf("could not connect to Redis at %s: %w", cfg.RedisAddr, err)
	}
	log.Printf("✅ Using Redis thread store at %s (TTL %s).", cfg.RedisAddr, cfg.SessionTTL)
	return session.NewRedisStore(rdb, cfg.SessionTTL), nil
}

// initializeRegistry builds the weather service and registers the three
// server-side tools on top of it.
func initializeRegistry(cfg *AppConfig) (*tools.Registry, error) {
	cityCodes, err := weather.LoadCityCodes(cfg.CityCodesPath)
	if err != nil {
		return nil, fmt.Errorf("loading city codes (see data/README.md for the download): %w", err)
	}
	log.Printf("✅ City code table loaded (%d entries).", cityCodes.Count())

	service, err := weather.NewService(weather.Config{
		APIKey:  cfg.AmapAPIKey,
		BaseURL: cfg.WeatherBaseURL,
		Timeout: cfg.WeatherTimeout,
	}, cityCodes)
	if err != nil {
		return nil, err
	}

	registry := tools.NewRegistry()
	registry.Register(tools.NewWeatherTool(service))
	registry.Register(tools.NewForecastTool(service))
	registry.Register(tools.NewWeatherDataTool(service))
	log.Printf("✅ Tool registry initialized with %d tools.", registry.Count())
	return registry, nil
}

// initializeLLMClient picks the provider client from the model ID prefix.
func initializeLLMClient(cfg *AppConfig) (llm.LLMClient, error) {
	var (
		client llm.LLMClient
		err    error
	)
	switch {
	case strings.HasPrefix(cfg.Model, "deepseek"):
		client, err = llm.NewDeepSeekClient(cfg.ProviderAPIKey)
	case strings.HasPrefix(cfg.Model, "gpt"):
		client, err = llm.NewOpenAIClient(cfg.ProviderAPIKey)
	case strings.HasPrefix(cfg.Model, "claude"):
		client, err = llm.NewAnthropicClient(cfg.ProviderAPIKey)
	case strings.HasPrefix(cfg.Model, "gemini"):
		client, err = llm.NewGeminiClient(cfg.ProviderAPIKey)
	case strings.HasPrefix(cfg.Model, "mistral"):
		client, err = llm.NewMistralClient(cfg.ProviderAPIKey)
	default:
		return nil, fmt.Errorf("unknown model provider for %q", cfg.Model)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create client for %s: %w", cfg.Model, err)
	}
	log.Printf("✅ LLM client initialized for model %s.", cfg.Model)
	return client, nil
}

// runServerWithGracefulShutdown handles the server lifecycle.
func runServerWithGracefulShutdown(srv *http.Server) {
	go func() {
		log.Printf("👂 Agent is listening on http://localhost%s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("❌ Listen error: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("❌ Server shutdown failed:", err)
	}

	log.Println("👋 Server exited gracefully.")
}
