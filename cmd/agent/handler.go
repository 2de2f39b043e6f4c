package main

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/qingyun-ai/weather-agent/internal/agent"
	"github.com/qingyun-ai/weather-agent/internal/api"
	"github.com/qingyun-ai/weather-agent/internal/llm"
	"github.com/qingyun-ai/weather-agent/internal/session"
	"github.com/qingyun-ai/weather-agent/internal/tools"
)

// AgentHandler owns the HTTP surface: it binds requests, loads and saves
// thread state, and delegates the actual chat/tool loop to the agent.
type AgentHandler struct {
	agent           *agent.Agent
	store           session.Store
	registry        *tools.Registry
	clientToolNames []string
}

func NewAgentHandler(a *agent.Agent, store session.Store, registry *tools.Registry, clientToolNames []string) *AgentHandler {
	return &AgentHandler{
		agent:           a,
		store:           store,
		registry:        registry,
		clientToolNames: clientToolNames,
	}
}

// HandleChat runs one agent turn on a thread: append the caller's new
// messages to the stored history, run the loop, persist, and report the new
// messages plus any client-side tool calls the caller must execute.
func (h *AgentHandler) HandleChat(c *gin.Context) {
	startTime := time.Now()

	var req api.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	threadID := req.ThreadID
	if threadID == "" {
		threadID = uuid.NewString()
	}

	thread, err := h.store.Load(c.Request.Context(), threadID)
	if err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load thread: " + err.Error()})
			return
		}
		thread = &session.Thread{ID: threadID}
	}

	// The caller owns the UI state; a supplied state replaces the stored one.
	if req.State != nil {
		thread.Proverbs = req.State.Proverbs
		thread.WeatherCards = req.State.WeatherCards
	}

	thread.Messages = append(thread.Messages, toLLMMessages(req.Messages)...)
	log.Printf("--- New Run (Thread: %s, Messages: %d, Client Tools: %d) ---",
		threadID, len(thread.Messages), len(req.Tools))

	result, err := h.agent.Run(c.Request.Context(), agent.RunInput{
		ThreadID:    threadID,
		Messages:    thread.Messages,
		ClientTools: req.Tools,
		Proverbs:    thread.Proverbs,
		Options:     req.Options,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	thread.Messages = append(thread.Messages, result.NewMessages...)
	if err := h.store.Save(c.Request.Context(), thread); err != nil {
		// The answer was generated; losing persistence is not worth a 500.
		log.Printf("WARNING: Failed to save thread %s: %v", threadID, err)
	}

	c.JSON(http.StatusOK, api.ChatResponse{
		RunID:           result.RunID,
		ThreadID:        threadID,
		ModelUsed:       result.ModelUsed,
		Messages:        toAPIMessages(result.NewMessages),
		ClientToolCalls: result.ClientCalls,
		State: api.State{
			Proverbs:     thread.Proverbs,
			WeatherCards: thread.WeatherCards,
		},
		Usage:     result.Usage,
		LatencyMS: time.Since(startTime).Milliseconds(),
	})
}

// HandleListTools reports the tool split: the definitions this server
// executes and the client-tool names it knows from configuration.
func (h *AgentHandler) HandleListTools(c *gin.Context) {
	names := h.clientToolNames
	if names == nil {
		names = []string{}
	}
	c.JSON(http.StatusOK, api.ToolListResponse{
		ServerTools:     h.registry.Definitions(),
		ClientToolNames: names,
	})
}

// HandleHealth is the liveness endpoint.
func (h *AgentHandler) HandleHealth(c *gin.Context) {
	buildInfo := GetBuildInfo()
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"version":    buildInfo.Version,
		"commit":     buildInfo.GitCommit,
		"tool_count": h.registry.Count(),
	})
}

// toLLMMessages converts wire messages to the internal type, minting IDs for
// messages the caller did not identify.
func toLLMMessages(messages []api.Message) []llm.Message {
	out := make([]llm.Message, len(messages))
	for i, msg := range messages {
		id := msg.ID
		if id == "" {
			id = uuid.NewString()
		}
		out[i] = llm.Message{
			ID:         id,
			Role:       llm.Role(msg.Role),
			Content:    msg.Content,
			Name:       msg.Name,
			ToolCallID: msg.ToolCallID,
			ToolCalls:  msg.ToolCalls,
		}
	}
	return out
}

func toAPIMessages(messages []llm.Message) []api.Message {
	out := make([]api.Message, len(messages))
	for i, msg := range messages {
		out[i] = api.Message{
			ID:         msg.ID,
			Role:       string(msg.Role),
			Content:    msg.Content,
			Name:       msg.Name,
			ToolCallID: msg.ToolCallID,
			ToolCalls:  msg.ToolCalls,
		}
	}
	return out
}
