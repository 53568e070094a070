package models

import (
	dErrors "mobile-gateway/pkg/domain-errors"
)

// GrantType enumerates the authorization grant configured on a client
// registration. The exchange endpoint copies it verbatim into the token
// issuance request.
type GrantType string

const (
	GrantAuthorizationCode GrantType = "authorization-code"
	GrantPassword          GrantType = "password"
	GrantClientCredentials GrantType = "client-credentials"
)

func (g GrantType) IsValid() bool {
	switch g {
	case GrantAuthorizationCode, GrantPassword, GrantClientCredentials:
		return true
	}
	return false
}

// Client is an OAuth client registration known to the gateway.
//
// Invariants:
//   - ClientID is non-empty and unique
//   - GrantType is one of the declared grant types
//   - SecretHash is empty for public clients and a bcrypt hash for
//     confidential ones
type Client struct {
	ClientID   string    `json:"client_id"`
	Name       string    `json:"name"`
	GrantType  GrantType `json:"authorization_grant_type"`
	SecretHash string    `json:"-"` // never serialized, bcrypt hash
}

// NewClient validates and builds a client registration.
func NewClient(clientID, name string, grantType GrantType, secretHash string) (*Client, error) {
	if clientID == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "client_id cannot be empty")
	}
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "client name cannot be empty")
	}
	if !grantType.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "invalid authorization_grant_type")
	}
	return &Client{
		ClientID:   clientID,
		Name:       name,
		GrantType:  grantType,
		SecretHash: secretHash,
	}, nil
}

// IsConfidential reports whether the registration carries a secret.
func (c *Client) IsConfidential() bool { return c.SecretHash != "" }
