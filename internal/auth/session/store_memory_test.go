package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"mobile-gateway/pkg/platform/sentinel"
)

type SessionStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	now   time.Time
}

func TestSessionStoreSuite(t *testing.T) {
	suite.Run(t, new(SessionStoreSuite))
}

func (s *SessionStoreSuite) SetupTest() {
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.store = NewMemory(time.Hour, WithMemoryClock(func() time.Time { return s.now }))
}

func (s *SessionStoreSuite) TestSaveAndFind() {
	ctx := context.Background()

	s.Run("round-trips a session", func() {
		sess := New("Mozilla/5.0", s.now)
		sess.DeeplinkRequested = true
		sess.Next = "app://authorized"
		s.Require().NoError(s.store.Save(ctx, sess))

		found, err := s.store.Find(ctx, sess.ID)
		s.Require().NoError(err)
		s.True(found.DeeplinkRequested)
		s.Equal("app://authorized", found.Next)
	})

	s.Run("unknown id returns ErrNotFound", func() {
		_, err := s.store.Find(ctx, "missing")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("stored session is isolated from later mutation", func() {
		sess := New("Mozilla/5.0", s.now)
		s.Require().NoError(s.store.Save(ctx, sess))

		sess.DeeplinkRequested = true

		found, err := s.store.Find(ctx, sess.ID)
		s.Require().NoError(err)
		s.False(found.DeeplinkRequested)
	})

	s.Run("deeplink flag on one session does not leak to another", func() {
		mobile := New("Mobile UA", s.now)
		mobile.DeeplinkRequested = true
		web := New("Desktop UA", s.now)

		s.Require().NoError(s.store.Save(ctx, mobile))
		s.Require().NoError(s.store.Save(ctx, web))

		foundWeb, err := s.store.Find(ctx, web.ID)
		s.Require().NoError(err)
		s.False(foundWeb.DeeplinkRequested)
	})
}

func (s *SessionStoreSuite) TestExpiry() {
	ctx := context.Background()

	sess := New("Mozilla/5.0", s.now)
	s.Require().NoError(s.store.Save(ctx, sess))

	s.now = s.now.Add(time.Hour + time.Second)

	_, err := s.store.Find(ctx, sess.ID)
	s.Require().ErrorIs(err, sentinel.ErrExpired)
}

func (s *SessionStoreSuite) TestDelete() {
	ctx := context.Background()

	sess := New("Mozilla/5.0", s.now)
	s.Require().NoError(s.store.Save(ctx, sess))
	s.Require().NoError(s.store.Delete(ctx, sess.ID))

	_, err := s.store.Find(ctx, sess.ID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	s.Run("deleting an absent session is not an error", func() {
		s.Require().NoError(s.store.Delete(ctx, "missing"))
	})
}

func TestNewSession(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("mobile user agent marks the session mobile", func(t *testing.T) {
		sess := New("Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1", now)
		if !sess.Mobile {
			t.Fatal("expected mobile session")
		}
		if sess.ID == "" {
			t.Fatal("expected a session id")
		}
		if !sess.CreatedAt.Equal(now) {
			t.Fatalf("expected CreatedAt %v, got %v", now, sess.CreatedAt)
		}
	})

	t.Run("desktop user agent is not mobile", func(t *testing.T) {
		sess := New("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36", now)
		if sess.Mobile {
			t.Fatal("expected non-mobile session")
		}
	})
}
