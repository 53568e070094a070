// Package client persists OAuth client registrations the exchange endpoint
// resolves client_id against.
package client

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"mobile-gateway/internal/auth/models"
)

// Store is the persistence boundary for client registrations.
type Store interface {
	// FindByClientID resolves a public client identifier to its
	// registration. sentinel.ErrNotFound when unknown.
	FindByClientID(ctx context.Context, clientID string) (*models.Client, error)

	// Save persists a registration, replacing any prior one with the same
	// client_id.
	Save(ctx context.Context, client *models.Client) error
}

// HashSecret derives the bcrypt hash stored for confidential clients.
func HashSecret(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifySecret checks a presented secret against a registration's hash.
func VerifySecret(client *models.Client, secret string) bool {
	if client.SecretHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(client.SecretHash), []byte(secret)) == nil
}
