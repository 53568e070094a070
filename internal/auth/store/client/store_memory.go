package client

import (
	"context"
	"fmt"
	"sync"

	"mobile-gateway/internal/auth/models"
	"mobile-gateway/pkg/platform/sentinel"
)

// InMemoryStore keeps client registrations in memory for tests/dev.
type InMemoryStore struct {
	mu      sync.RWMutex
	clients map[string]*models.Client
}

// NewMemory constructs an empty in-memory client store.
func NewMemory() *InMemoryStore {
	return &InMemoryStore{clients: make(map[string]*models.Client)}
}

func (s *InMemoryStore) FindByClientID(_ context.Context, clientID string) (*models.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.clients[clientID]; ok {
		copied := *c
		return &copied, nil
	}
	return nil, fmt.Errorf("client not found: %w", sentinel.ErrNotFound)
}

func (s *InMemoryStore) Save(_ context.Context, client *models.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *client
	s.clients[client.ClientID] = &copied
	return nil
}
