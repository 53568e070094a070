// Package http assembles the gateway's HTTP surface: public auth routes,
// token-protected API routes, and the operational endpoints.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	authhandler "mobile-gateway/internal/auth/handler"
	"mobile-gateway/internal/auth/session"
	contenthandler "mobile-gateway/internal/content/handler"
	coursehandler "mobile-gateway/internal/course/handler"
	"mobile-gateway/pkg/platform/middleware/bearerauth"
	"mobile-gateway/pkg/platform/middleware/requestid"
	"mobile-gateway/pkg/platform/middleware/requesttime"
)

// Deps are the handlers and cross-cutting pieces the router mounts.
type Deps struct {
	Auth     *authhandler.Handler
	Course   *coursehandler.Handler
	Content  *contenthandler.Handler
	Sessions session.Store
	Tokens   bearerauth.Validator
}

// New builds the gateway router.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestid.Middleware)
	r.Use(requesttime.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Browser-facing auth flow: session cookie, no bearer token.
	r.Group(func(r chi.Router) {
		r.Use(session.Middleware(deps.Sessions))
		deps.Auth.Routes(r)
	})

	// App-facing API: bearer token required.
	r.Group(func(r chi.Router) {
		r.Use(bearerauth.Middleware(deps.Tokens))
		deps.Course.Routes(r)
		deps.Content.Routes(r)
	})

	return r
}
