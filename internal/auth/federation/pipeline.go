package federation

import (
	"context"
	"net/url"

	"mobile-gateway/internal/auth/models"
)

// SAMLBackendName is the platform's SAML backend; logins through it carry an
// identity-provider selector alongside the usual parameters.
const SAMLBackendName = "tpa-saml"

// PipelineClient is the transport to the platform's social-auth pipeline.
// internal/platform/lms implements it over the LMS REST API.
type PipelineClient interface {
	BeginAuth(ctx context.Context, backend, callbackURL string, params url.Values) (Redirect, error)
	CompleteAuth(ctx context.Context, backend string, callbackParams url.Values, authenticatedUserID string) (Completion, error)
	ResumeAuth(ctx context.Context, backend, partialToken string) (Completion, error)
}

// PipelineBackend adapts one named backend of the platform pipeline to the
// Backend interface.
type PipelineBackend struct {
	name                  string
	skipEmailVerification bool
	loginErrorURL         string
	client                PipelineClient
}

// NewPipelineBackend wires a named backend over the pipeline client.
func NewPipelineBackend(name string, skipEmailVerification bool, loginErrorURL string, client PipelineClient) *PipelineBackend {
	return &PipelineBackend{
		name:                  name,
		skipEmailVerification: skipEmailVerification,
		loginErrorURL:         loginErrorURL,
		client:                client,
	}
}

func (b *PipelineBackend) Name() string                { return b.name }
func (b *PipelineBackend) SkipEmailVerification() bool { return b.skipEmailVerification }
func (b *PipelineBackend) LoginErrorURL() string       { return b.loginErrorURL }

func (b *PipelineBackend) Begin(ctx context.Context, callbackURL string, params url.Values) (Redirect, error) {
	return b.client.BeginAuth(ctx, b.name, callbackURL, params)
}

func (b *PipelineBackend) Complete(ctx context.Context, callbackParams url.Values, authenticated *models.User) (Completion, error) {
	userID := ""
	if authenticated != nil {
		userID = authenticated.ID.String()
	}
	return b.client.CompleteAuth(ctx, b.name, callbackParams, userID)
}

func (b *PipelineBackend) Resume(ctx context.Context, state PartialState) (Completion, error) {
	return b.client.ResumeAuth(ctx, b.name, state.Token)
}
