package authcode

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"mobile-gateway/pkg/platform/sentinel"
)

// InMemoryStore keeps authorization codes in memory for tests/dev.
type InMemoryStore struct {
	mu     sync.RWMutex
	byUser map[uuid.UUID]string
	byCode map[string]uuid.UUID
}

// NewMemory constructs an empty in-memory authorization code store.
func NewMemory() *InMemoryStore {
	return &InMemoryStore{
		byUser: make(map[uuid.UUID]string),
		byCode: make(map[string]uuid.UUID),
	}
}

func (s *InMemoryStore) Assign(_ context.Context, userID uuid.UUID, code string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.byUser[userID]; ok && existing != "" {
		return existing, nil
	}
	if _, taken := s.byCode[code]; taken {
		return "", fmt.Errorf("authorization code already assigned: %w", sentinel.ErrConflict)
	}
	s.byUser[userID] = code
	s.byCode[code] = userID
	return code, nil
}

func (s *InMemoryStore) FindUser(_ context.Context, code string) (uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if userID, ok := s.byCode[code]; ok {
		return userID, nil
	}
	return uuid.Nil, fmt.Errorf("authorization code not found: %w", sentinel.ErrNotFound)
}

func (s *InMemoryStore) Clear(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	userID, ok := s.byCode[code]
	if !ok {
		return fmt.Errorf("authorization code not found: %w", sentinel.ErrNotFound)
	}
	delete(s.byCode, code)
	delete(s.byUser, userID)
	return nil
}
