// Package federation models the boundary to the external social-auth
// pipeline. The gateway never implements a federated protocol itself; it
// wraps the pipeline's begin/complete/resume operations so the mobile
// redirect logic can compose over them without depending on their internals.
package federation

import (
	"context"
	"fmt"
	"net/url"

	"mobile-gateway/internal/auth/models"
	"mobile-gateway/pkg/platform/sentinel"
)

//go:generate mockgen -source=federation.go -destination=mocks/mocks.go -package=mocks

// Redirect tells the caller where to send the browser next.
type Redirect struct {
	URL string
}

// PartialState marks a multi-step provider flow that has not finished; the
// opaque token resumes it.
type PartialState struct {
	Token string
}

// CustomResponse is a payload the pipeline short-circuited with instead of
// an account; it is passed through to the client unchanged.
type CustomResponse struct {
	Status      int
	ContentType string
	Body        []byte
}

// Completion is the outcome of running the pipeline to its end. Exactly one
// of the fields is set; all nil means the pipeline yielded no account.
type Completion struct {
	User     *models.User
	Partial  *PartialState
	Response *CustomResponse
}

// Backend is one federated authentication backend (e.g. a SAML provider
// reached through the platform's third-party-auth pipeline).
type Backend interface {
	Name() string

	// SkipEmailVerification reports whether accounts arriving through this
	// backend are trusted enough to activate without an activation email.
	SkipEmailVerification() bool

	// Begin starts authentication and yields the provider redirect.
	// params carries backend-specific selectors (e.g. the SAML idp).
	Begin(ctx context.Context, callbackURL string, params url.Values) (Redirect, error)

	// Complete finishes authentication from the provider's callback
	// parameters. authenticated is the account already bound to the
	// caller's session, or nil.
	Complete(ctx context.Context, callbackParams url.Values, authenticated *models.User) (Completion, error)

	// Resume continues a partially completed multi-step flow.
	Resume(ctx context.Context, state PartialState) (Completion, error)

	// LoginErrorURL is where failed logins land for this backend.
	LoginErrorURL() string
}

// Registry resolves backend names from the login URLs.
type Registry struct {
	backends map[string]Backend
}

// NewRegistry builds a registry over the configured backends.
func NewRegistry(backends ...Backend) *Registry {
	m := make(map[string]Backend, len(backends))
	for _, b := range backends {
		m[b.Name()] = b
	}
	return &Registry{backends: m}
}

// Get resolves a backend by name.
func (r *Registry) Get(name string) (Backend, error) {
	if b, ok := r.backends[name]; ok {
		return b, nil
	}
	return nil, fmt.Errorf("unknown auth backend %q: %w", name, sentinel.ErrNotFound)
}
