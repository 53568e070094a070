// Package token defines the token generator boundary the exchange endpoint
// delegates to. The gateway never stores issued tokens; the generator mints
// them and the response hands them straight to the client.
package token

import (
	"context"
	"time"

	"github.com/google/uuid"

	"mobile-gateway/internal/auth/models"
)

// GrantRequest is the issuance context the exchange endpoint synthesizes:
// target account, resolved client, default scopes, and the grant type copied
// from the client registration. No PKCE, no extra credentials.
type GrantRequest struct {
	UserID    uuid.UUID
	ClientID  string
	Scopes    []string
	GrantType models.GrantType
	ExpiresIn time.Duration
}

//go:generate mockgen -source=token.go -destination=mocks/mocks.go -package=mocks

// Generator mints an access/refresh token pair for a grant.
type Generator interface {
	CreateToken(ctx context.Context, req GrantRequest) (*models.TokenResult, error)
}
