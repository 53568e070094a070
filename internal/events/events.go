// Package events carries the gateway's event-bus integration: auth events
// published for downstream consumers, and course-published notifications
// consumed to refresh packaged content.
package events

import (
	"context"
	"time"
)

// Type names an auth event.
type Type string

const (
	TypeCodeIssued     Type = "auth_code_issued"
	TypeCodeExchanged  Type = "auth_code_exchanged"
	TypeLoginCompleted Type = "login_completed"
	TypeLoginFailed    Type = "login_failed"
)

// AuthEvent is emitted from the auth service for audit consumers.
type AuthEvent struct {
	Type      Type      `json:"type"`
	UserID    string    `json:"user_id,omitempty"`
	Backend   string    `json:"backend,omitempty"`
	ClientID  string    `json:"client_id,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	At        time.Time `json:"at"`
}

// CoursePublished is the notification the LMS emits when course content is
// republished; the content worker reacts by repackaging HTML blocks.
type CoursePublished struct {
	CourseID    string    `json:"course_id"`
	PublishedAt time.Time `json:"published_at"`
}

// Publisher emits auth events. Publishing is best-effort: the auth flow
// never fails because the bus is down.
type Publisher interface {
	Emit(ctx context.Context, event AuthEvent) error
}

// NoopPublisher drops events; used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Emit(context.Context, AuthEvent) error { return nil }
