// Package bearerauth authenticates requests carrying a Bearer access token
// and binds the token's account to the request context.
package bearerauth

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"mobile-gateway/internal/token"
	dErrors "mobile-gateway/pkg/domain-errors"
	"mobile-gateway/pkg/platform/httputil"
	"mobile-gateway/pkg/requestcontext"
)

// Validator verifies an access token and returns its claims.
type Validator interface {
	ValidateToken(tokenString string) (*token.Claims, error)
}

// Middleware rejects requests without a valid Bearer token and stores the
// token's user ID in the request context.
func Middleware(validator Validator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			const prefix = "Bearer "
			if !strings.HasPrefix(raw, prefix) {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Authentication credentials were not provided."))
				return
			}
			claims, err := validator.ValidateToken(strings.TrimSpace(raw[len(prefix):]))
			if err != nil {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Invalid token."))
				return
			}
			userID, err := uuid.Parse(claims.UserID)
			if err != nil {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Invalid token."))
				return
			}
			ctx := requestcontext.WithUserID(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
