package service

import (
	"context"
	"net/url"
	"strings"

	"mobile-gateway/internal/auth/federation"
	"mobile-gateway/internal/auth/models"
	"mobile-gateway/internal/auth/session"
	"mobile-gateway/internal/events"
	dErrors "mobile-gateway/pkg/domain-errors"
	"mobile-gateway/pkg/email"
)

// Outcome strings reported to the mobile app in the Status query parameter.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// CompletionResult is what the completion handler turns into an HTTP
// response: a redirect in the common case, or a payload the pipeline
// short-circuited with.
type CompletionResult struct {
	RedirectURL string
	Custom      *federation.CustomResponse
}

// StartLogin records the login's redirect intent on the session and kicks
// off the federated backend. A next target equal to the configured deep
// link marks the session as a mobile login.
func (s *Service) StartLogin(ctx context.Context, sess *session.Session, backend federation.Backend, next, callbackURL string, params url.Values) (federation.Redirect, error) {
	sess.DeeplinkRequested = next == s.cfg.DeeplinkURL
	sess.Next = next
	if err := s.sessions.Save(ctx, sess); err != nil {
		return federation.Redirect{}, dErrors.Wrap(err, dErrors.CodeInternal, "save login session")
	}
	redirect, err := backend.Begin(ctx, callbackURL, params)
	if err != nil {
		return federation.Redirect{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "begin federated login")
	}
	s.logger.InfoContext(ctx, "federated login started",
		"backend", backend.Name(),
		"deeplink", sess.DeeplinkRequested,
	)
	return redirect, nil
}

// CompleteLogin finishes a federated login and decides where the browser
// goes next. Every redirect it produces carries AuthorizationCode and
// Status parameters, whether the target is the mobile deep link or the
// ordinary web destination.
func (s *Service) CompleteLogin(ctx context.Context, backend federation.Backend, sess *session.Session, callbackParams url.Values, authenticated *models.User) (*CompletionResult, error) {
	ctx, span := s.tracer.Start(ctx, "auth.complete_login")
	defer span.End()

	completion, err := backend.Complete(ctx, callbackParams, authenticated)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "complete federated login")
	}
	if completion.Partial != nil {
		// The pipeline parked mid-flow (extra registration step, provider
		// round trip). Resume it once; a second park means the provider
		// wants the user back, which we treat as no account this pass.
		completion, err = backend.Resume(ctx, *completion.Partial)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "resume federated login")
		}
	}
	if completion.Response != nil {
		return &CompletionResult{Custom: completion.Response}, nil
	}

	user := authenticated
	if user == nil {
		user = completion.User
	}

	var code string
	if user != nil {
		if completion.User != nil && authenticated == nil {
			sess.UserID = completion.User.ID
			sess.Backend = backend.Name()
			if err := s.sessions.Save(ctx, sess); err != nil {
				return nil, dErrors.Wrap(err, dErrors.CodeInternal, "establish session")
			}
		}
		// A code issuance failure downgrades the redirect to the error
		// status rather than stranding the browser on a 500 page.
		code, err = s.IssueCode(ctx, user.ID)
		if err != nil {
			s.logger.ErrorContext(ctx, "authorization code issuance failed",
				"user_id", user.ID,
				"error", err,
			)
			code = ""
		}
		s.ensureActivation(ctx, backend, user)
	}

	status := StatusError
	if code != "" {
		status = StatusSuccess
	}

	base := s.redirectBase(sess, backend, code)
	if sess.DeeplinkRequested && code != "" {
		s.metrics.DeeplinkRedirects.Inc()
	}
	s.metrics.LoginsCompleted.WithLabelValues(backend.Name(), status).Inc()

	eventType := events.TypeLoginCompleted
	if status == StatusError {
		eventType = events.TypeLoginFailed
	}
	event := events.AuthEvent{Type: eventType, Backend: backend.Name()}
	if user != nil {
		event.UserID = user.ID.String()
	}
	s.emit(ctx, event)

	return &CompletionResult{RedirectURL: AppendAuthParams(base, code, status)}, nil
}

// redirectBase picks the redirect target before the auth parameters are
// appended.
func (s *Service) redirectBase(sess *session.Session, backend federation.Backend, code string) string {
	if sess.DeeplinkRequested {
		if code == "" {
			return backend.LoginErrorURL()
		}
		return s.cfg.DeeplinkPath
	}
	if code == "" {
		return backend.LoginErrorURL()
	}
	next := sess.Next
	if next == "" || next == s.cfg.DeeplinkURL {
		next = s.cfg.DefaultRedirect
	}
	return next
}

// ensureActivation activates or prompts activation for accounts that
// arrive inactive. Trusted backends activate directly; the rest get the
// activation email. Failures are logged, never fatal: the login succeeded.
func (s *Service) ensureActivation(ctx context.Context, backend federation.Backend, user *models.User) {
	if user.IsActive {
		return
	}
	if backend.SkipEmailVerification() {
		if err := s.directory.Activate(ctx, user.ID); err != nil {
			s.logger.ErrorContext(ctx, "account activation failed",
				"user_id", user.ID,
				"error", err,
			)
		}
		return
	}
	msg := email.ComposeActivation(user.Email, s.directory.ActivationURL(user.ID))
	if err := s.mail.Send(ctx, msg); err != nil {
		s.logger.ErrorContext(ctx, "activation email send failed",
			"user_id", user.ID,
			"error", err,
		)
	}
}

// AppendAuthParams attaches the AuthorizationCode and Status parameters to
// base, choosing the separator by whether base already has a query string.
func AppendAuthParams(base, code, status string) string {
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + "AuthorizationCode=" + url.QueryEscape(code) + "&Status=" + url.QueryEscape(status)
}
