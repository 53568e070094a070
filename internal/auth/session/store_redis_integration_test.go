//go:build integration

package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"mobile-gateway/internal/auth/session"
	"mobile-gateway/pkg/platform/sentinel"
	"mobile-gateway/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *session.RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.store = session.NewRedis(s.redis.Client, time.Hour)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	sess := session.New("Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X)", time.Now())
	sess.DeeplinkRequested = true
	sess.Backend = "tpa-saml"

	s.Run("save then find returns the session", func() {
		s.Require().NoError(s.store.Save(ctx, sess))

		found, err := s.store.Find(ctx, sess.ID)
		s.Require().NoError(err)
		s.Equal(sess.ID, found.ID)
		s.True(found.DeeplinkRequested)
		s.True(found.Mobile)
		s.Equal("tpa-saml", found.Backend)
	})

	s.Run("an unknown id is not found", func() {
		_, err := s.store.Find(ctx, "absent")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("delete removes the session", func() {
		s.Require().NoError(s.store.Delete(ctx, sess.ID))

		_, err := s.store.Find(ctx, sess.ID)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *RedisStoreSuite) TestExpiry() {
	ctx := context.Background()
	short := session.NewRedis(s.redis.Client, time.Second)

	sess := session.New("test agent", time.Now())
	s.Require().NoError(short.Save(ctx, sess))

	s.Require().Eventually(func() bool {
		_, err := short.Find(ctx, sess.ID)
		return err != nil
	}, 5*time.Second, 250*time.Millisecond, "session should expire out of redis")
}
