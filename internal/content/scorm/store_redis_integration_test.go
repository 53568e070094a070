//go:build integration

package scorm_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"mobile-gateway/internal/content/scorm"
	"mobile-gateway/internal/platform/redis"
	"mobile-gateway/pkg/platform/sentinel"
	"mobile-gateway/pkg/testutil/containers"
)

type RedisTrackerStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *scorm.RedisTrackerStore
}

func TestRedisTrackerStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisTrackerStoreSuite))
}

func (s *RedisTrackerStoreSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.store = scorm.NewRedisTrackerStore(&redis.Client{Client: s.redis.Client})
}

func (s *RedisTrackerStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisTrackerStoreSuite) TestRoundTrip() {
	ctx := context.Background()

	score := 0.8
	state := &scorm.State{
		Values: map[string]any{
			"cmi.core.lesson_location": "page5",
			"cmi.core.lesson_status":   "passed",
		},
		LessonScore:     &score,
		LessonStatus:    "passed",
		LastUpdatedTime: 1700000000,
	}

	s.Run("save then load returns the state", func() {
		s.Require().NoError(s.store.Save(ctx, "jane", "block-1", state))

		loaded, err := s.store.Load(ctx, "jane", "block-1")
		s.Require().NoError(err)
		s.Equal("page5", loaded.Values["cmi.core.lesson_location"])
		s.Equal("passed", loaded.LessonStatus)
		s.Require().NotNil(loaded.LessonScore)
		s.InDelta(0.8, *loaded.LessonScore, 1e-9)
		s.Equal(int64(1700000000), loaded.LastUpdatedTime)
	})

	s.Run("state is scoped per learner and block", func() {
		_, err := s.store.Load(ctx, "john", "block-1")
		s.ErrorIs(err, sentinel.ErrNotFound)

		_, err = s.store.Load(ctx, "jane", "block-2")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("save replaces the stored state", func() {
		state.Values["cmi.core.lesson_location"] = "page9"
		s.Require().NoError(s.store.Save(ctx, "jane", "block-1", state))

		loaded, err := s.store.Load(ctx, "jane", "block-1")
		s.Require().NoError(err)
		s.Equal("page9", loaded.Values["cmi.core.lesson_location"])
	})
}
