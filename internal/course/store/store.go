// Package store caches enrollment pages so repeated app foregrounds do not
// refetch an unchanged listing from the platform.
//
// Error Contract:
//
// - Return sentinel.ErrNotFound when no entry exists for the key
// - Return sentinel.ErrExpired when the entry exists but aged out
// - Return wrapped errors with context for infrastructure failures
package store

import (
	"context"

	"mobile-gateway/internal/platform/lms"
)

// EnrollmentCache holds recently fetched enrollment pages per user.
type EnrollmentCache interface {
	// Get returns the cached page for (username, page) if it is still
	// fresh.
	Get(ctx context.Context, username string, page int) (*lms.Page, error)

	// Put stores a freshly fetched page, replacing any prior entry.
	Put(ctx context.Context, username string, page int, data *lms.Page) error

	// Invalidate drops every cached page for a user, e.g. after an
	// enrollment change.
	Invalidate(ctx context.Context, username string) error
}
