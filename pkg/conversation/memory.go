package conversation

import (
	"context"
	"sync"

	"github.com/papercomputeco/claudeapi/pkg/llm"
)

// MemoryStore is a process-local Store. Its contents live for the lifetime
// of the value and are lost on restart.
type MemoryStore struct {
	mu    sync.RWMutex
	turns map[string][]llm.Turn
	order []string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		turns: make(map[string][]llm.Turn),
	}
}

func (s *MemoryStore) Append(_ context.Context, conversationID string, turns ...llm.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.turns[conversationID]
	if !ok {
		s.order = append(s.order, conversationID)
	}
	s.turns[conversationID] = append(existing, turns...)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, conversationID string) ([]llm.Turn, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turns, ok := s.turns[conversationID]
	if !ok {
		return []llm.Turn{}, false, nil
	}

	out := make([]llm.Turn, len(turns))
	copy(out, turns)
	return out, true, nil
}

func (s *MemoryStore) Clear(_ context.Context, conversationID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.turns[conversationID]; !ok {
		return false, nil
	}
	s.turns[conversationID] = []llm.Turn{}
	return true, nil
}

func (s *MemoryStore) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, len(s.order))
	copy(ids, s.order)
	return ids, nil
}
