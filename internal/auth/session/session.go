// Package session holds the ephemeral login session: the deeplink flag set
// at login start, the backend that completed the login, and the device that
// started it. Sessions are scoped to one browser/device and never outlive
// their TTL.
package session

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mssola/useragent"
)

// Session is one browser/device login session.
type Session struct {
	ID string `json:"id"`
	// DeeplinkRequested marks that this login should conclude with a
	// mobile deep-link redirect. Written once at login start, read once at
	// completion.
	DeeplinkRequested bool `json:"deeplink_requested"`
	// UserID is set when the completion handler establishes the session
	// for an account.
	UserID uuid.UUID `json:"user_id"`
	// Backend records which federated backend completed the login.
	Backend string `json:"backend"`
	// Next is the post-login redirect target requested at login start.
	Next string `json:"next"`
	// Device is a human-readable description of the client that started
	// the session.
	Device    string    `json:"device"`
	Mobile    bool      `json:"mobile"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is the persistence boundary for login sessions.
type Store interface {
	Save(ctx context.Context, s *Session) error
	Find(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}

// New mints a fresh session describing the requesting client.
func New(userAgent string, now time.Time) *Session {
	ua := useragent.New(userAgent)
	name, version := ua.Browser()
	device := name
	if version != "" {
		device += " " + version
	}
	if os := ua.OS(); os != "" {
		device += " on " + os
	}
	return &Session{
		ID:        uuid.NewString(),
		Device:    device,
		Mobile:    ua.Mobile(),
		CreatedAt: now,
	}
}
