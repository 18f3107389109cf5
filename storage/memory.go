package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/mink555/covergate/graph"
)

// MemoryCheckpoints is an in-process CheckpointStore. Conversations do
// not survive restarts; it serves tests and single-shot CLI runs.
// State is stored serialized so callers cannot alias the saved copy.
type MemoryCheckpoints struct {
	mu     sync.RWMutex
	states map[string][]byte
}

var _ CheckpointStore = (*MemoryCheckpoints)(nil)

// NewMemoryCheckpoints creates an empty in-memory store.
func NewMemoryCheckpoints() *MemoryCheckpoints {
	return &MemoryCheckpoints{states: make(map[string][]byte)}
}

func (s *MemoryCheckpoints) Load(ctx context.Context, sessionID string) (graph.TurnState, bool, error) {
	s.mu.RLock()
	raw, ok := s.states[sessionID]
	s.mu.RUnlock()
	if !ok {
		return graph.TurnState{}, false, nil
	}

	var state graph.TurnState
	if err := json.Unmarshal(raw, &state); err != nil {
		return graph.TurnState{}, false, fmt.Errorf("corrupt checkpoint for session %s: %w", sessionID, err)
	}
	return state, true, nil
}

func (s *MemoryCheckpoints) Save(ctx context.Context, sessionID string, state graph.TurnState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to serialize checkpoint: %w", err)
	}
	s.mu.Lock()
	s.states[sessionID] = raw
	s.mu.Unlock()
	return nil
}

func (s *MemoryCheckpoints) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.states, sessionID)
	s.mu.Unlock()
	return nil
}

func (s *MemoryCheckpoints) Close() error {
	return nil
}
