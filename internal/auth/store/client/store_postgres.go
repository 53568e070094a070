package client

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"mobile-gateway/internal/auth/models"
	"mobile-gateway/pkg/platform/sentinel"
)

// PostgresStore persists client registrations in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed client store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the backing table when it does not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS oauth_clients (
			client_id   TEXT PRIMARY KEY,
			name        TEXT NOT NULL,
			grant_type  TEXT NOT NULL,
			secret_hash TEXT NOT NULL DEFAULT ''
		)
	`)
	if err != nil {
		return fmt.Errorf("ensure client schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByClientID(ctx context.Context, clientID string) (*models.Client, error) {
	var c models.Client
	err := s.db.QueryRowContext(ctx,
		`SELECT client_id, name, grant_type, secret_hash FROM oauth_clients WHERE client_id = $1`,
		clientID,
	).Scan(&c.ClientID, &c.Name, &c.GrantType, &c.SecretHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("client not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find client: %w", err)
	}
	return &c, nil
}

func (s *PostgresStore) Save(ctx context.Context, client *models.Client) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO oauth_clients (client_id, name, grant_type, secret_hash)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (client_id) DO UPDATE SET
			name = EXCLUDED.name,
			grant_type = EXCLUDED.grant_type,
			secret_hash = EXCLUDED.secret_hash
	`, client.ClientID, client.Name, client.GrantType, client.SecretHash)
	if err != nil {
		return fmt.Errorf("save client: %w", err)
	}
	return nil
}
