package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/qingyun-ai/weather-agent/internal/llm"
)

// RedisStore persists each thread as a Redis hash under thread:<id>. The TTL
// is refreshed on every save, so active conversations stay alive and
// abandoned ones age out.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore wraps an already-connected client. A zero ttl keeps threads
// forever.
func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func threadKey(threadID string) string {
	return "thread:" + threadID
}

func (s *RedisStore) Load(ctx context.Context, threadID string) (*Thread, error) {
	data, err := s.rdb.HGetAll(ctx, threadKey(threadID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load thread %s: %w", threadID, err)
	}
	if len(data) == 0 {
		return nil, ErrNotFound
	}

	thread := &Thread{ID: threadID}
	if raw := data["messages"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &thread.Messages); err != nil {
			return nil, fmt.Errorf("corrupt messages for thread %s: %w", threadID, err)
		}
	}
	if raw := data["proverbs"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &thread.Proverbs); err != nil {
			return nil, fmt.Errorf("corrupt proverbs for thread %s: %w", threadID, err)
		}
	}
	if raw := data["weather_cards"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &thread.WeatherCards); err != nil {
			return nil, fmt.Errorf("corrupt weather cards for thread %s: %w", threadID, err)
		}
	}
	if raw := data["updated_at"]; raw != "" {
		if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			thread.UpdatedAt = ts
		}
	}
	return thread, nil
}

func (s *RedisStore) Save(ctx context.Context, thread *Thread) error {
	thread.UpdatedAt = time.Now().UTC()

	messages, err := json.Marshal(orEmptyMessages(thread.Messages))
	if err != nil {
		return fmt.Errorf("failed to encode messages for thread %s: %w", thread.ID, err)
	}
	proverbs, err := json.Marshal(orEmptyStrings(thread.Proverbs))
	if err != nil {
		return fmt.Errorf("failed to encode proverbs for thread %s: %w", thread.ID, err)
	}
	cards, err := json.Marshal(orEmptyCards(thread.WeatherCards))
	if err != nil {
		return fmt.Errorf("failed to encode weather cards for thread %s: %w", thread.ID, err)
	}

	key := threadKey(thread.ID)
	fields := map[string]interface{}{
		"messages":      string(messages),
		"proverbs":      string(proverbs),
		"weather_cards": string(cards),
		"updated_at":    thread.UpdatedAt.Format(time.RFC3339Nano),
	}
	if err := s.rdb.HSet(ctx, key, fields).Err(); err != nil {
		return fmt.Errorf("failed to save thread %s: %w", thread.ID, err)
	}
	if s.ttl > 0 {
		if err := s.rdb.Expire(ctx, key, s.ttl).Err(); err != nil {
			return fmt.Errorf("failed to refresh TTL for thread %s: %w", thread.ID, err)
		}
	}
	return nil
}

// JSON round-trips should yield [] rather than null for empty collections.

func orEmptyMessages(m []llm.Message) []llm.Message {
	if m == nil {
		return []llm.Message{}
	}
	return m
}

func orEmptyStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func orEmptyCards(c []json.RawMessage) []json.RawMessage {
	if c == nil {
		return []json.RawMessage{}
	}
	return c
}
