// Package session persists conversation threads between requests. The HTTP
// API is stateless per call; the thread store carries the history, the
// proverbs and the weather cards from one run to the next.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/qingyun-ai/weather-agent/internal/llm"
	"github.com/qingyun-ai/weather-agent/internal/tools"
)

// ErrNotFound is returned when a thread ID has no stored state. Handlers
// treat it as "start a fresh thread".
var ErrNotFound = errors.New("thread not found")

// Thread is the stored state of one conversation.
type Thread struct {
	ID       string        `json:"id"`
	Messages []llm.Message `json:"messages"`
	Proverbs []string      `json:"proverbs"`
	// WeatherCards are opaque UI payloads; the server stores and echoes
	// them without looking inside.
	WeatherCards []json.RawMessage `json:"weather_cards,omitempty"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// Store loads and saves threads. Both implementations return copies, so the
// caller may mutate what it gets back.
type Store interface {
	// Load returns the thread with the given ID, or ErrNotFound.
	Load(ctx context.Context, threadID string) (*Thread, error)
	// Save stores the thread, stamping UpdatedAt.
	Save(ctx context.Context, thread *Thread) error
}

// clone deep-copies a thread so stored state and handler state never share
// backing slices.
func clone(t *Thread) *Thread {
	c := &Thread{
		ID:        t.ID,
		UpdatedAt: t.UpdatedAt,
	}
	if t.Messages != nil {
		c.Messages = make([]llm.Message, len(t.Messages))
		copy(c.Messages, t.Messages)
		// Messages carry tool-call pointers; copy those too or the
		// stored thread and the caller's copy would share them.
		for i := range c.Messages {
			calls := c.Messages[i].ToolCalls
			if calls == nil {
				continue
			}
			cloned := make([]*tools.ToolCall, len(calls))
			for j, call := range calls {
				if call != nil {
					copied := *call
					cloned[j] = &copied
				}
			}
			c.Messages[i].ToolCalls = cloned
		}
	}
	if t.Proverbs != nil {
		c.Proverbs = make([]string, len(t.Proverbs))
		copy(c.Proverbs, t.Proverbs)
	}
	if t.WeatherCards != nil {
		c.WeatherCards = make([]json.RawMessage, len(t.WeatherCards))
		for i, card := range t.WeatherCards {
			c.WeatherCards[i] = append(json.RawMessage(nil), card...)
		}
	}
	return c
}
