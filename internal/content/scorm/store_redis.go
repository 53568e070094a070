package scorm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"mobile-gateway/internal/platform/redis"
	"mobile-gateway/pkg/platform/sentinel"
)

const trackerKeyPrefix = "mobile-gateway:scorm:"

// RedisTrackerStore keeps runtime state in Redis so every gateway replica
// sees the same progress. State has no TTL; it lives as long as the course.
type RedisTrackerStore struct {
	client *redis.Client
}

// NewRedisTrackerStore builds a store over an existing client.
func NewRedisTrackerStore(client *redis.Client) *RedisTrackerStore {
	return &RedisTrackerStore{client: client}
}

func redisStateKey(username, blockID string) string {
	return trackerKeyPrefix + username + ":" + blockID
}

func (s *RedisTrackerStore) Load(ctx context.Context, username, blockID string) (*State, error) {
	raw, err := s.client.Get(ctx, redisStateKey(username, blockID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read scorm state: %w", err)
	}
	var state State
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("decode scorm state: %w", err)
	}
	return &state, nil
}

func (s *RedisTrackerStore) Save(ctx context.Context, username, blockID string, state *State) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode scorm state: %w", err)
	}
	if err := s.client.Set(ctx, redisStateKey(username, blockID), raw, 0).Err(); err != nil {
		return fmt.Errorf("write scorm state: %w", err)
	}
	return nil
}
