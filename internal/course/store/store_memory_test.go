package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"mobile-gateway/internal/platform/lms"
	"mobile-gateway/pkg/platform/sentinel"
)

type EnrollmentCacheSuite struct {
	suite.Suite
	now   time.Time
	cache *InMemoryCache
}

func TestEnrollmentCacheSuite(t *testing.T) {
	suite.Run(t, new(EnrollmentCacheSuite))
}

func (s *EnrollmentCacheSuite) SetupTest() {
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.cache = NewInMemoryCache(5*time.Minute, WithClock(func() time.Time { return s.now }))
}

func (s *EnrollmentCacheSuite) page(courseID string) *lms.Page {
	return &lms.Page{Count: 1, CurrentPage: 1, Results: []map[string]any{{"course_id": courseID}}}
}

func (s *EnrollmentCacheSuite) TestGet() {
	ctx := context.Background()

	s.Run("returns a fresh entry", func() {
		s.Require().NoError(s.cache.Put(ctx, "learner", 1, s.page("course-a")))

		cached, err := s.cache.Get(ctx, "learner", 1)
		s.Require().NoError(err)
		s.Equal("course-a", cached.Results[0]["course_id"])
	})

	s.Run("missing entry returns ErrNotFound", func() {
		_, err := s.cache.Get(ctx, "nobody", 1)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("aged-out entry returns ErrExpired", func() {
		s.Require().NoError(s.cache.Put(ctx, "learner", 2, s.page("course-b")))
		s.now = s.now.Add(6 * time.Minute)

		_, err := s.cache.Get(ctx, "learner", 2)
		s.Require().ErrorIs(err, sentinel.ErrExpired)
	})

	s.Run("pages are keyed independently", func() {
		s.Require().NoError(s.cache.Put(ctx, "learner", 1, s.page("course-a")))
		_, err := s.cache.Get(ctx, "learner", 3)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *EnrollmentCacheSuite) TestPut() {
	ctx := context.Background()

	s.Require().NoError(s.cache.Put(ctx, "learner", 1, s.page("old")))
	s.Require().NoError(s.cache.Put(ctx, "learner", 1, s.page("new")))

	cached, err := s.cache.Get(ctx, "learner", 1)
	s.Require().NoError(err)
	s.Equal("new", cached.Results[0]["course_id"])
}

func (s *EnrollmentCacheSuite) TestInvalidate() {
	ctx := context.Background()

	s.Require().NoError(s.cache.Put(ctx, "learner", 1, s.page("course-a")))
	s.Require().NoError(s.cache.Put(ctx, "learner", 2, s.page("course-b")))
	s.Require().NoError(s.cache.Put(ctx, "other", 1, s.page("course-c")))

	s.Require().NoError(s.cache.Invalidate(ctx, "learner"))

	_, err := s.cache.Get(ctx, "learner", 1)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.cache.Get(ctx, "learner", 2)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	kept, err := s.cache.Get(ctx, "other", 1)
	s.Require().NoError(err)
	s.Equal("course-c", kept.Results[0]["course_id"])
}
