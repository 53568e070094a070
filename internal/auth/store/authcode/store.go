// Package authcode persists the one-to-one account to authorization-code
// association. The code column is globally unique while present and nullable;
// clearing it on exchange is what makes codes single-use.
package authcode

import (
	"context"

	"github.com/google/uuid"
)

// Error Contract:
// All store methods follow this pattern:
// - Return sentinel.ErrNotFound when the requested entity does not exist
// - Return sentinel.ErrConflict when a write collides with the code
//   uniqueness constraint
// - Return nil for successful operations
// - Return wrapped errors with context for infrastructure failures

// Store is the persistence boundary for authorization codes.
type Store interface {
	// Assign persists code as the user's outstanding authorization code
	// when none exists, and returns the code that is outstanding after the
	// call. An existing code is never replaced, so the returned value may
	// differ from the argument. A collision with another account's code
	// surfaces sentinel.ErrConflict so the caller can retry with a fresh
	// value.
	Assign(ctx context.Context, userID uuid.UUID, code string) (string, error)

	// FindUser resolves a code to the account it was issued for.
	// Exact string match only; sentinel.ErrNotFound otherwise.
	FindUser(ctx context.Context, code string) (uuid.UUID, error)

	// Clear nulls out the code, making any replay of it fail resolution.
	// sentinel.ErrNotFound when no account holds the code.
	Clear(ctx context.Context, code string) error
}
