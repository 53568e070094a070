// Package handler exposes the mobile auth flow over HTTP: login start and
// completion, the deep-link bounce, and the code exchange endpoint.
package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"log/slog"

	"mobile-gateway/internal/auth/federation"
	"mobile-gateway/internal/auth/models"
	"mobile-gateway/internal/auth/service"
	"mobile-gateway/internal/auth/session"
	dErrors "mobile-gateway/pkg/domain-errors"
	"mobile-gateway/pkg/platform/httputil"
	"mobile-gateway/pkg/platform/sentinel"
)

// Handler carries the auth endpoints' dependencies.
type Handler struct {
	svc       *service.Service
	sessions  session.Store
	backends  *federation.Registry
	directory service.UserDirectory
	// deeplinkURL is the app scheme target /sso_deeplink bounces into.
	deeplinkURL string
	logger      *slog.Logger
}

// New constructs the auth handler.
func New(svc *service.Service, sessions session.Store, backends *federation.Registry, directory service.UserDirectory, deeplinkURL string, logger *slog.Logger) *Handler {
	return &Handler{
		svc:         svc,
		sessions:    sessions,
		backends:    backends,
		directory:   directory,
		deeplinkURL: deeplinkURL,
		logger:      logger,
	}
}

// Routes mounts the auth endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/exchange_authorization_code/", h.ExchangeAuthorizationCode)
	r.Get("/sso_deeplink", h.SSODeeplink)
	r.Get("/auth/login/{backend}/", h.Login)
	r.Get("/auth/complete/{backend}/", h.Complete)
	r.Get("/auth/login/mobile/{backend}/", h.MobileLogin)
}

// ExchangeAuthorizationCode trades a one-time code for a bearer token.
// Accepts form-encoded bodies the way mobile OAuth clients send them.
func (h *Handler) ExchangeAuthorizationCode(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "malformed form body"))
		return
	}
	req := models.ExchangeRequest{
		AuthorizationCode: r.PostFormValue("authorization_code"),
		ClientID:          r.PostFormValue("client_id"),
		ClientSecret:      r.PostFormValue("client_secret"),
	}
	result, err := h.svc.ExchangeCode(r.Context(), req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

// SSODeeplink bounces the browser into the installed app, carrying the auth
// parameters through unchanged.
func (h *Handler) SSODeeplink(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("AuthorizationCode")
	status := r.URL.Query().Get("Status")
	target := service.AppendAuthParams(h.deeplinkURL, code, status)
	http.Redirect(w, r, target, http.StatusFound)
}

// Login starts a federated login through the named backend. The idp query
// parameter selects the identity provider for the SAML backend.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	backend, err := h.backends.Get(chi.URLParam(r, "backend"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeNotFound, "unknown auth backend"))
		return
	}
	sess, err := session.Load(r.Context(), h.sessions)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "load session"))
		return
	}

	params := url.Values{}
	if idp := r.URL.Query().Get("idp"); idp != "" {
		params.Set("idp", idp)
	}
	if entry := r.URL.Query().Get("auth_entry"); entry != "" {
		params.Set("auth_entry", entry)
	}
	next := r.URL.Query().Get("next")

	redirect, err := h.svc.StartLogin(r.Context(), sess, backend, next, h.callbackURL(r, backend.Name()), params)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	http.Redirect(w, r, redirect.URL, http.StatusFound)
}

// Complete finishes a federated login from the provider callback and sends
// the browser to its final destination.
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	backend, err := h.backends.Get(chi.URLParam(r, "backend"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeNotFound, "unknown auth backend"))
		return
	}
	sess, err := session.Load(r.Context(), h.sessions)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "load session"))
		return
	}

	result, err := h.svc.CompleteLogin(r.Context(), backend, sess, r.URL.Query(), h.authenticatedUser(r, sess))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "login completion failed",
			"backend", backend.Name(),
			"error", err,
		)
		http.Redirect(w, r, backend.LoginErrorURL(), http.StatusFound)
		return
	}
	if result.Custom != nil {
		w.Header().Set("Content-Type", result.Custom.ContentType)
		w.WriteHeader(result.Custom.Status)
		_, _ = w.Write(result.Custom.Body)
		return
	}
	http.Redirect(w, r, result.RedirectURL, http.StatusFound)
}

// MobileLogin is the app's entry point: it forwards into the ordinary login
// flow with next pointed at the deep link, so completion bounces back into
// the app.
func (h *Handler) MobileLogin(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "backend")
	if _, err := h.backends.Get(name); err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeNotFound, "unknown auth backend"))
		return
	}

	q := url.Values{}
	q.Set("next", h.deeplinkURL)
	if name == federation.SAMLBackendName {
		q.Set("auth_entry", "login")
		if idp := r.URL.Query().Get("idp"); idp != "" {
			q.Set("idp", idp)
		}
	}
	http.Redirect(w, r, "/auth/login/"+name+"/?"+q.Encode(), http.StatusFound)
}

// authenticatedUser resolves the account already bound to this session, if
// any. Resolution failures are treated as anonymous; the pipeline will
// authenticate from scratch.
func (h *Handler) authenticatedUser(r *http.Request, sess *session.Session) *models.User {
	if sess.UserID == uuid.Nil {
		return nil
	}
	user, err := h.directory.FindUser(r.Context(), sess.UserID)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			h.logger.WarnContext(r.Context(), "session user lookup failed",
				"user_id", sess.UserID,
				"error", err,
			)
		}
		return nil
	}
	return user
}

// callbackURL builds the absolute completion URL the provider redirects
// back to.
func (h *Handler) callbackURL(r *http.Request, backend string) string {
	scheme := "https"
	if r.TLS == nil {
		scheme = "http"
	}
	return scheme + "://" + r.Host + "/auth/complete/" + backend + "/"
}
