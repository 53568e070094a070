package scorm

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"mobile-gateway/pkg/platform/sentinel"
)

// InMemoryTrackerStore is the development and test state store.
type InMemoryTrackerStore struct {
	mu     sync.RWMutex
	states map[string][]byte
}

// NewInMemoryTrackerStore builds an empty store.
func NewInMemoryTrackerStore() *InMemoryTrackerStore {
	return &InMemoryTrackerStore{states: make(map[string][]byte)}
}

func stateKey(username, blockID string) string {
	return username + "#" + blockID
}

func (s *InMemoryTrackerStore) Load(_ context.Context, username, blockID string) (*State, error) {
	s.mu.RLock()
	raw, ok := s.states[stateKey(username, blockID)]
	s.mu.RUnlock()
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	var state State
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("decode scorm state: %w", err)
	}
	return &state, nil
}

func (s *InMemoryTrackerStore) Save(_ context.Context, username, blockID string, state *State) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode scorm state: %w", err)
	}
	s.mu.Lock()
	s.states[stateKey(username, blockID)] = raw
	s.mu.Unlock()
	return nil
}
