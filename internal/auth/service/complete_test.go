package service

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"mobile-gateway/internal/auth/federation"
	fedmocks "mobile-gateway/internal/auth/federation/mocks"
	"mobile-gateway/internal/auth/models"
	"mobile-gateway/internal/auth/session"
)

func TestAppendAuthParams(t *testing.T) {
	tests := []struct {
		name   string
		base   string
		code   string
		status string
		want   string
	}{
		{
			name:   "bare path gets a question mark",
			base:   "/dashboard",
			code:   "abc123",
			status: "success",
			want:   "/dashboard?AuthorizationCode=abc123&Status=success",
		},
		{
			name:   "existing query string gets an ampersand",
			base:   "/courses?tab=progress",
			code:   "abc123",
			status: "success",
			want:   "/courses?tab=progress&AuthorizationCode=abc123&Status=success",
		},
		{
			name:   "app scheme deep link",
			base:   "app://authorized",
			code:   "abc123",
			status: "success",
			want:   "app://authorized?AuthorizationCode=abc123&Status=success",
		},
		{
			name:   "empty code on failure",
			base:   "/login/error",
			code:   "",
			status: "error",
			want:   "/login/error?AuthorizationCode=&Status=error",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AppendAuthParams(tt.base, tt.code, tt.status))
		})
	}
}

type CompleteSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	f       *fixture
	backend *fedmocks.MockBackend
}

func TestCompleteSuite(t *testing.T) {
	suite.Run(t, new(CompleteSuite))
}

func (s *CompleteSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.f = newFixture(s.ctrl)
	s.backend = fedmocks.NewMockBackend(s.ctrl)
	s.backend.EXPECT().Name().Return("tpa-saml").AnyTimes()
	s.backend.EXPECT().LoginErrorURL().Return("/login/error").AnyTimes()
}

func (s *CompleteSuite) newSession() *session.Session {
	return session.New("test agent", time.Now())
}

func activeUser() *models.User {
	return &models.User{
		ID:       uuid.New(),
		Username: "learner",
		Email:    "learner@example.com",
		IsActive: true,
	}
}

func (s *CompleteSuite) TestStartLogin() {
	ctx := context.Background()

	s.Run("deep link target marks the session mobile", func() {
		sess := s.newSession()
		s.backend.EXPECT().
			Begin(gomock.Any(), "https://gw.example.com/auth/complete/tpa-saml/", gomock.Any()).
			Return(federation.Redirect{URL: "https://idp.example.com/sso"}, nil)

		redirect, err := s.f.svc.StartLogin(ctx, sess, s.backend, "app://authorized",
			"https://gw.example.com/auth/complete/tpa-saml/", url.Values{})
		s.Require().NoError(err)
		s.Equal("https://idp.example.com/sso", redirect.URL)

		saved, err := s.f.sessions.Find(ctx, sess.ID)
		s.Require().NoError(err)
		s.True(saved.DeeplinkRequested)
		s.Equal("app://authorized", saved.Next)
	})

	s.Run("web target leaves the session ordinary", func() {
		sess := s.newSession()
		s.backend.EXPECT().
			Begin(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(federation.Redirect{URL: "https://idp.example.com/sso"}, nil)

		_, err := s.f.svc.StartLogin(ctx, sess, s.backend, "/courses", "https://gw.example.com/cb", url.Values{})
		s.Require().NoError(err)

		saved, err := s.f.sessions.Find(ctx, sess.ID)
		s.Require().NoError(err)
		s.False(saved.DeeplinkRequested)
		s.Equal("/courses", saved.Next)
	})
}

func (s *CompleteSuite) TestCompleteLogin() {
	ctx := context.Background()

	s.Run("mobile login redirects to the deep link bounce with a code", func() {
		user := activeUser()
		sess := s.newSession()
		sess.DeeplinkRequested = true

		s.backend.EXPECT().
			Complete(gomock.Any(), gomock.Any(), gomock.Nil()).
			Return(federation.Completion{User: user}, nil)

		result, err := s.f.svc.CompleteLogin(ctx, s.backend, sess, url.Values{}, nil)
		s.Require().NoError(err)

		parsed, err := url.Parse(result.RedirectURL)
		s.Require().NoError(err)
		s.Equal("/api/mobile/v1/sso_deeplink", parsed.Path)
		s.Regexp(hexCode, parsed.Query().Get("AuthorizationCode"))
		s.Equal(StatusSuccess, parsed.Query().Get("Status"))
	})

	s.Run("web login redirects to the requested next target", func() {
		user := activeUser()
		sess := s.newSession()
		sess.Next = "/courses?tab=progress"

		s.backend.EXPECT().
			Complete(gomock.Any(), gomock.Any(), gomock.Nil()).
			Return(federation.Completion{User: user}, nil)

		result, err := s.f.svc.CompleteLogin(ctx, s.backend, sess, url.Values{}, nil)
		s.Require().NoError(err)
		s.Contains(result.RedirectURL, "/courses?tab=progress&AuthorizationCode=")
		s.Contains(result.RedirectURL, "&Status=success")
	})

	s.Run("web login without a next target lands on the default", func() {
		user := activeUser()
		sess := s.newSession()

		s.backend.EXPECT().
			Complete(gomock.Any(), gomock.Any(), gomock.Nil()).
			Return(federation.Completion{User: user}, nil)

		result, err := s.f.svc.CompleteLogin(ctx, s.backend, sess, url.Values{}, nil)
		s.Require().NoError(err)
		s.Contains(result.RedirectURL, "/dashboard?AuthorizationCode=")
	})

	s.Run("completion establishes the session for the account", func() {
		user := activeUser()
		sess := s.newSession()

		s.backend.EXPECT().
			Complete(gomock.Any(), gomock.Any(), gomock.Nil()).
			Return(federation.Completion{User: user}, nil)

		_, err := s.f.svc.CompleteLogin(ctx, s.backend, sess, url.Values{}, nil)
		s.Require().NoError(err)

		saved, err := s.f.sessions.Find(ctx, sess.ID)
		s.Require().NoError(err)
		s.Equal(user.ID, saved.UserID)
		s.Equal("tpa-saml", saved.Backend)
	})

	s.Run("no account yields the error redirect", func() {
		sess := s.newSession()

		s.backend.EXPECT().
			Complete(gomock.Any(), gomock.Any(), gomock.Nil()).
			Return(federation.Completion{}, nil)

		result, err := s.f.svc.CompleteLogin(ctx, s.backend, sess, url.Values{}, nil)
		s.Require().NoError(err)
		s.Equal("/login/error?AuthorizationCode=&Status=error", result.RedirectURL)
	})

	s.Run("mobile failure also lands on the error page, not the deep link", func() {
		sess := s.newSession()
		sess.DeeplinkRequested = true

		s.backend.EXPECT().
			Complete(gomock.Any(), gomock.Any(), gomock.Nil()).
			Return(federation.Completion{}, nil)

		result, err := s.f.svc.CompleteLogin(ctx, s.backend, sess, url.Values{}, nil)
		s.Require().NoError(err)
		s.Equal("/login/error?AuthorizationCode=&Status=error", result.RedirectURL)
	})

	s.Run("partial flow is resumed once", func() {
		user := activeUser()
		sess := s.newSession()

		s.backend.EXPECT().
			Complete(gomock.Any(), gomock.Any(), gomock.Nil()).
			Return(federation.Completion{Partial: &federation.PartialState{Token: "resume-me"}}, nil)
		s.backend.EXPECT().
			Resume(gomock.Any(), federation.PartialState{Token: "resume-me"}).
			Return(federation.Completion{User: user}, nil)

		result, err := s.f.svc.CompleteLogin(ctx, s.backend, sess, url.Values{}, nil)
		s.Require().NoError(err)
		s.Contains(result.RedirectURL, "Status=success")
	})

	s.Run("custom pipeline response passes through untouched", func() {
		sess := s.newSession()
		custom := &federation.CustomResponse{
			Status:      200,
			ContentType: "text/html",
			Body:        []byte("<html>choose an account</html>"),
		}

		s.backend.EXPECT().
			Complete(gomock.Any(), gomock.Any(), gomock.Nil()).
			Return(federation.Completion{Response: custom}, nil)

		result, err := s.f.svc.CompleteLogin(ctx, s.backend, sess, url.Values{}, nil)
		s.Require().NoError(err)
		s.Empty(result.RedirectURL)
		s.Equal(custom, result.Custom)
	})

	s.Run("already authenticated caller keeps their session untouched", func() {
		user := activeUser()
		sess := s.newSession()
		sess.UserID = user.ID
		sess.Backend = "tpa-saml"
		s.Require().NoError(s.f.sessions.Save(ctx, sess))

		s.backend.EXPECT().
			Complete(gomock.Any(), gomock.Any(), user).
			Return(federation.Completion{}, nil)

		result, err := s.f.svc.CompleteLogin(ctx, s.backend, sess, url.Values{}, user)
		s.Require().NoError(err)
		s.Contains(result.RedirectURL, "Status=success")
	})

	s.Run("code issuance failure downgrades to the error redirect", func() {
		user := activeUser()
		sess := s.newSession()
		sess.DeeplinkRequested = true
		s.f.svc.codes = &conflictStore{}

		s.backend.EXPECT().
			Complete(gomock.Any(), gomock.Any(), gomock.Nil()).
			Return(federation.Completion{User: user}, nil)

		result, err := s.f.svc.CompleteLogin(ctx, s.backend, sess, url.Values{}, nil)
		s.Require().NoError(err)
		s.Equal("/login/error?AuthorizationCode=&Status=error", result.RedirectURL)
	})
}

func (s *CompleteSuite) TestActivation() {
	ctx := context.Background()

	inactive := func() *models.User {
		u := activeUser()
		u.IsActive = false
		return u
	}

	s.Run("trusted backend activates the account directly", func() {
		user := inactive()
		sess := s.newSession()

		s.backend.EXPECT().
			Complete(gomock.Any(), gomock.Any(), gomock.Nil()).
			Return(federation.Completion{User: user}, nil)
		s.backend.EXPECT().SkipEmailVerification().Return(true)
		s.f.directory.EXPECT().Activate(gomock.Any(), user.ID).Return(nil)

		_, err := s.f.svc.CompleteLogin(ctx, s.backend, sess, url.Values{}, nil)
		s.Require().NoError(err)
		s.Empty(s.f.mail.msgs)
	})

	s.Run("untrusted backend sends the activation email", func() {
		user := inactive()
		sess := s.newSession()

		s.backend.EXPECT().
			Complete(gomock.Any(), gomock.Any(), gomock.Nil()).
			Return(federation.Completion{User: user}, nil)
		s.backend.EXPECT().SkipEmailVerification().Return(false)
		s.f.directory.EXPECT().
			ActivationURL(user.ID).
			Return("https://lms.example.com/activate/abc")

		_, err := s.f.svc.CompleteLogin(ctx, s.backend, sess, url.Values{}, nil)
		s.Require().NoError(err)

		s.Require().Len(s.f.mail.msgs, 1)
		s.Equal(user.Email, s.f.mail.msgs[0].To)
		s.Contains(s.f.mail.msgs[0].Body, "https://lms.example.com/activate/abc")
	})

	s.Run("active account triggers no activation at all", func() {
		s.f.mail.msgs = nil
		user := activeUser()
		sess := s.newSession()

		s.backend.EXPECT().
			Complete(gomock.Any(), gomock.Any(), gomock.Nil()).
			Return(federation.Completion{User: user}, nil)

		_, err := s.f.svc.CompleteLogin(ctx, s.backend, sess, url.Values{}, nil)
		s.Require().NoError(err)
		s.Empty(s.f.mail.msgs)
	})
}
