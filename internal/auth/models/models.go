package models

import (
	"github.com/google/uuid"
)

// User mirrors the account record the upstream LMS holds for a learner.
// The gateway never owns accounts; it carries just enough to issue codes,
// establish sessions, and trigger activation.
type User struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	IsActive bool      `json:"is_active"`
}

// TokenResult is the OAuth token payload returned by the exchange endpoint,
// passed through verbatim from the token generator.
type TokenResult struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	Scope        string `json:"scope"`
}

// ExchangeRequest is the form body of the code exchange endpoint.
type ExchangeRequest struct {
	AuthorizationCode string
	ClientID          string
	// ClientSecret is only consulted for confidential clients; the mobile
	// flow uses public clients and leaves it empty.
	ClientSecret string
}
