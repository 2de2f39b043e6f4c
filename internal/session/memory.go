package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps threads in a mutex-guarded map. It is the default store
// when no Redis address is configured; state lives as long as the process.
type MemoryStore struct {
	mu      sync.RWMutex
	threads map[string]*Thread
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{threads: make(map[string]*Thread)}
}

func (s *MemoryStore) Load(_ context.Context, threadID string) (*Thread, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	thread, ok := s.threads[threadID]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(thread), nil
}

func (s *MemoryStore) Save(_ context.Context, thread *Thread) error {
	thread.UpdatedAt = time.Now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.threads[thread.ID] = clone(thread)
	return nil
}
