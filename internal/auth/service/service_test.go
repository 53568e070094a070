package service

import (
	"context"
	"io"
	"log/slog"
	"time"

	"go.uber.org/mock/gomock"

	"mobile-gateway/internal/auth/metrics"
	"mobile-gateway/internal/auth/service/mocks"
	"mobile-gateway/internal/auth/session"
	"mobile-gateway/internal/auth/store/authcode"
	clientstore "mobile-gateway/internal/auth/store/client"
	"mobile-gateway/internal/events"
	tokenmocks "mobile-gateway/internal/token/mocks"
	"mobile-gateway/pkg/email"
)

// testMetrics is shared across the package's tests; promauto registers on
// the default registry, so New may only run once per test binary.
var testMetrics = metrics.New()

// capturedMail records activation messages instead of sending them.
type capturedMail struct {
	msgs []email.Message
}

func (c *capturedMail) Send(_ context.Context, msg email.Message) error {
	c.msgs = append(c.msgs, msg)
	return nil
}

// capturedEvents records emitted auth events.
type capturedEvents struct {
	events []events.AuthEvent
}

func (c *capturedEvents) Emit(_ context.Context, event events.AuthEvent) error {
	c.events = append(c.events, event)
	return nil
}

func (c *capturedEvents) ofType(t events.Type) []events.AuthEvent {
	var out []events.AuthEvent
	for _, e := range c.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// fixture wires a Service over in-memory stores and gomock boundaries.
type fixture struct {
	svc       *Service
	codes     *authcode.InMemoryStore
	clients   *clientstore.InMemoryStore
	sessions  *session.InMemoryStore
	tokens    *tokenmocks.MockGenerator
	directory *mocks.MockUserDirectory
	mail      *capturedMail
	events    *capturedEvents
}

func testConfig() Config {
	return Config{
		DeeplinkURL:            "app://authorized",
		DeeplinkPath:           "/api/mobile/v1/sso_deeplink",
		DefaultRedirect:        "/dashboard",
		DefaultScopes:          []string{"read", "write"},
		ExpirePublicClientDays: 30,
	}
}

func newFixture(ctrl *gomock.Controller) *fixture {
	f := &fixture{
		codes:     authcode.NewMemory(),
		clients:   clientstore.NewMemory(),
		sessions:  session.NewMemory(time.Hour),
		tokens:    tokenmocks.NewMockGenerator(ctrl),
		directory: mocks.NewMockUserDirectory(ctrl),
		mail:      &capturedMail{},
		events:    &capturedEvents{},
	}
	f.svc = New(testConfig(), Deps{
		Codes:     f.codes,
		Clients:   f.clients,
		Sessions:  f.sessions,
		Tokens:    f.tokens,
		Directory: f.directory,
		Mail:      f.mail,
		Publisher: f.events,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		Metrics:   testMetrics,
	})
	return f
}
