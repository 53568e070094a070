package client

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"mobile-gateway/internal/auth/models"
	"mobile-gateway/pkg/platform/sentinel"
)

type ClientStoreSuite struct {
	suite.Suite
	store *InMemoryStore
}

func TestClientStoreSuite(t *testing.T) {
	suite.Run(t, new(ClientStoreSuite))
}

func (s *ClientStoreSuite) SetupTest() {
	s.store = NewMemory()
}

func (s *ClientStoreSuite) TestFindByClientID() {
	ctx := context.Background()

	s.Run("returns a saved registration", func() {
		reg, err := models.NewClient("app-123", "Mobile App", models.GrantAuthorizationCode, "")
		s.Require().NoError(err)
		s.Require().NoError(s.store.Save(ctx, reg))

		found, err := s.store.FindByClientID(ctx, "app-123")
		s.Require().NoError(err)
		s.Equal("Mobile App", found.Name)
		s.Equal(models.GrantAuthorizationCode, found.GrantType)
		s.False(found.IsConfidential())
	})

	s.Run("unknown client_id returns ErrNotFound", func() {
		_, err := s.store.FindByClientID(ctx, "ghost")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("returned registration is a copy", func() {
		reg, err := models.NewClient("app-copy", "Copy", models.GrantAuthorizationCode, "")
		s.Require().NoError(err)
		s.Require().NoError(s.store.Save(ctx, reg))

		first, err := s.store.FindByClientID(ctx, "app-copy")
		s.Require().NoError(err)
		first.Name = "mutated"

		second, err := s.store.FindByClientID(ctx, "app-copy")
		s.Require().NoError(err)
		s.Equal("Copy", second.Name)
	})
}

func (s *ClientStoreSuite) TestSave() {
	ctx := context.Background()

	s.Run("replaces a prior registration with the same client_id", func() {
		reg, err := models.NewClient("app-replace", "Old Name", models.GrantAuthorizationCode, "")
		s.Require().NoError(err)
		s.Require().NoError(s.store.Save(ctx, reg))

		updated, err := models.NewClient("app-replace", "New Name", models.GrantPassword, "")
		s.Require().NoError(err)
		s.Require().NoError(s.store.Save(ctx, updated))

		found, err := s.store.FindByClientID(ctx, "app-replace")
		s.Require().NoError(err)
		s.Equal("New Name", found.Name)
		s.Equal(models.GrantPassword, found.GrantType)
	})
}

func (s *ClientStoreSuite) TestSecrets() {
	s.Run("hashed secret verifies and a wrong secret does not", func() {
		hash, err := HashSecret("s3cret")
		s.Require().NoError(err)

		reg, err := models.NewClient("app-confidential", "Confidential", models.GrantClientCredentials, hash)
		s.Require().NoError(err)
		s.True(reg.IsConfidential())
		s.True(VerifySecret(reg, "s3cret"))
		s.False(VerifySecret(reg, "wrong"))
	})

	s.Run("public client never verifies a secret", func() {
		reg, err := models.NewClient("app-public", "Public", models.GrantAuthorizationCode, "")
		s.Require().NoError(err)
		s.False(VerifySecret(reg, "anything"))
		s.False(VerifySecret(reg, ""))
	})
}
