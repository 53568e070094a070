package email

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type EmailSuite struct {
	suite.Suite
}

func TestEmailSuite(t *testing.T) {
	suite.Run(t, new(EmailSuite))
}

func (s *EmailSuite) TestDeriveNameFromEmail() {
	cases := []struct {
		email string
		first string
		last  string
	}{
		{"jane.doe@example.com", "Jane", "Doe"},
		{"jane_van-der_berg@example.com", "Jane", "Berg"},
		{"admin@example.com", "Admin", "User"},
		{"x+filters@example.com", "X", "Filters"},
		{"@example.com", "User", "User"},
		{"no-at-sign", "No", "Sign"},
	}
	for _, tc := range cases {
		first, last := DeriveNameFromEmail(tc.email)
		s.Equal(tc.first, first, tc.email)
		s.Equal(tc.last, last, tc.email)
	}
}

func (s *EmailSuite) TestComposeActivation() {
	msg := ComposeActivation("jane.doe@example.com", "https://lms.example.com/activate/abc123")

	s.Equal("jane.doe@example.com", msg.To)
	s.Equal("Activate your account", msg.Subject)
	s.Contains(msg.Body, "Hi Jane,")
	s.Contains(msg.Body, "https://lms.example.com/activate/abc123")
}
