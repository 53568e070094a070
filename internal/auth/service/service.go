// Package service implements the mobile authorization-code flow: issuing
// codes on federated login, deciding between deep-link and web redirects,
// and exchanging codes for bearer tokens.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"log/slog"

	"mobile-gateway/internal/auth/federation"
	"mobile-gateway/internal/auth/metrics"
	"mobile-gateway/internal/auth/models"
	"mobile-gateway/internal/auth/session"
	"mobile-gateway/internal/auth/store/authcode"
	clientstore "mobile-gateway/internal/auth/store/client"
	"mobile-gateway/internal/events"
	"mobile-gateway/internal/token"
	"mobile-gateway/pkg/email"
)

// Config is the explicit configuration the flow needs. It is passed in
// rather than read from ambient settings so the service tests in isolation.
type Config struct {
	// DeeplinkURL is the mobile app scheme URL; a login that asks to be
	// redirected there is a mobile login.
	DeeplinkURL string
	// DeeplinkPath is the gateway endpoint that bounces into DeeplinkURL.
	DeeplinkPath string
	// DefaultRedirect is where ordinary web logins land.
	DefaultRedirect string
	// DefaultScopes are granted to every exchanged token.
	DefaultScopes []string
	// ExpirePublicClientDays is the access token lifetime in days.
	ExpirePublicClientDays int
}

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

// UserDirectory is the account boundary to the upstream platform. The
// gateway reads and activates accounts; it never creates or deletes them.
type UserDirectory interface {
	FindUser(ctx context.Context, userID uuid.UUID) (*models.User, error)
	Activate(ctx context.Context, userID uuid.UUID) error
	ActivationURL(userID uuid.UUID) string
}

// Service wires the flow's collaborators together.
type Service struct {
	cfg       Config
	codes     authcode.Store
	clients   clientstore.Store
	sessions  session.Store
	tokens    token.Generator
	directory UserDirectory
	mail      email.Sender
	publisher events.Publisher
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
}

// Deps carries the service's collaborators; all are required except
// Publisher, which defaults to a no-op.
type Deps struct {
	Codes     authcode.Store
	Clients   clientstore.Store
	Sessions  session.Store
	Tokens    token.Generator
	Directory UserDirectory
	Mail      email.Sender
	Publisher events.Publisher
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
}

// New constructs the auth service.
func New(cfg Config, deps Deps) *Service {
	publisher := deps.Publisher
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &Service{
		cfg:       cfg,
		codes:     deps.Codes,
		clients:   deps.Clients,
		sessions:  deps.Sessions,
		tokens:    deps.Tokens,
		directory: deps.Directory,
		mail:      deps.Mail,
		publisher: publisher,
		logger:    deps.Logger,
		metrics:   deps.Metrics,
		tracer:    otel.Tracer("mobile-gateway/auth"),
	}
}

// accessTokenTTL converts the configured expiry from days to a duration,
// the same day-to-second conversion the exchange response reports.
func (s *Service) accessTokenTTL() time.Duration {
	return time.Duration(s.cfg.ExpirePublicClientDays) * 24 * time.Hour
}

func (s *Service) emit(ctx context.Context, event events.AuthEvent) {
	if err := s.publisher.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "auth event emit failed",
			"type", event.Type,
			"error", err,
		)
	}
}

// FindBackend resolves a federation backend by name.
func (s *Service) FindBackend(registry *federation.Registry, name string) (federation.Backend, error) {
	return registry.Get(name)
}
