package authcode

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"mobile-gateway/pkg/platform/sentinel"
)

// One code per account and single-use clearing are the contract the whole
// exchange flow leans on; they are pinned here directly against the store.
type AuthCodeStoreSuite struct {
	suite.Suite
	store *InMemoryStore
}

func TestAuthCodeStoreSuite(t *testing.T) {
	suite.Run(t, new(AuthCodeStoreSuite))
}

func (s *AuthCodeStoreSuite) SetupTest() {
	s.store = NewMemory()
}

func (s *AuthCodeStoreSuite) TestAssign() {
	ctx := context.Background()

	s.Run("fresh assignment returns the given code", func() {
		userID := uuid.New()
		stored, err := s.store.Assign(ctx, userID, "c0de000000000000000000000000aaaa")
		s.Require().NoError(err)
		s.Equal("c0de000000000000000000000000aaaa", stored)
	})

	s.Run("second assignment returns the outstanding code, not the new one", func() {
		userID := uuid.New()
		first, err := s.store.Assign(ctx, userID, "c0de000000000000000000000000bbbb")
		s.Require().NoError(err)

		second, err := s.store.Assign(ctx, userID, "c0de000000000000000000000000cccc")
		s.Require().NoError(err)
		s.Equal(first, second)
	})

	s.Run("code held by another account surfaces ErrConflict", func() {
		holder := uuid.New()
		_, err := s.store.Assign(ctx, holder, "c0de000000000000000000000000dddd")
		s.Require().NoError(err)

		_, err = s.store.Assign(ctx, uuid.New(), "c0de000000000000000000000000dddd")
		s.Require().ErrorIs(err, sentinel.ErrConflict)
	})
}

func (s *AuthCodeStoreSuite) TestFindUser() {
	ctx := context.Background()

	s.Run("resolves an assigned code to its account", func() {
		userID := uuid.New()
		_, err := s.store.Assign(ctx, userID, "f1ad000000000000000000000000aaaa")
		s.Require().NoError(err)

		found, err := s.store.FindUser(ctx, "f1ad000000000000000000000000aaaa")
		s.Require().NoError(err)
		s.Equal(userID, found)
	})

	s.Run("unknown code returns ErrNotFound", func() {
		_, err := s.store.FindUser(ctx, "00000000000000000000000000000000")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *AuthCodeStoreSuite) TestClear() {
	ctx := context.Background()

	s.Run("cleared code stops resolving", func() {
		userID := uuid.New()
		_, err := s.store.Assign(ctx, userID, "c1ea000000000000000000000000aaaa")
		s.Require().NoError(err)

		s.Require().NoError(s.store.Clear(ctx, "c1ea000000000000000000000000aaaa"))

		_, err = s.store.FindUser(ctx, "c1ea000000000000000000000000aaaa")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("clearing twice returns ErrNotFound", func() {
		userID := uuid.New()
		_, err := s.store.Assign(ctx, userID, "c1ea000000000000000000000000bbbb")
		s.Require().NoError(err)

		s.Require().NoError(s.store.Clear(ctx, "c1ea000000000000000000000000bbbb"))
		s.Require().ErrorIs(s.store.Clear(ctx, "c1ea000000000000000000000000bbbb"), sentinel.ErrNotFound)
	})

	s.Run("account can receive a new code after its old one is cleared", func() {
		userID := uuid.New()
		_, err := s.store.Assign(ctx, userID, "c1ea000000000000000000000000cccc")
		s.Require().NoError(err)
		s.Require().NoError(s.store.Clear(ctx, "c1ea000000000000000000000000cccc"))

		stored, err := s.store.Assign(ctx, userID, "c1ea000000000000000000000000dddd")
		s.Require().NoError(err)
		s.Equal("c1ea000000000000000000000000dddd", stored)
	})
}
