package authcode

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"mobile-gateway/pkg/platform/sentinel"
)

// uniqueViolation is the postgres error code for a uniqueness constraint
// breach; Assign translates it to sentinel.ErrConflict so the issuer can
// retry with a fresh code.
const uniqueViolation = "23505"

// PostgresStore persists authorization codes in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed authorization code store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the backing table when it does not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS mobile_auth_codes (
			user_id            UUID PRIMARY KEY,
			authorization_code CHAR(32) UNIQUE
		)
	`)
	if err != nil {
		return fmt.Errorf("ensure auth code schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Assign(ctx context.Context, userID uuid.UUID, code string) (string, error) {
	// The upsert only writes when no code is outstanding; RETURNING hands
	// back whichever code won, so concurrent first-time issuances converge
	// on a single value.
	query := `
		INSERT INTO mobile_auth_codes (user_id, authorization_code)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET
			authorization_code = COALESCE(mobile_auth_codes.authorization_code, EXCLUDED.authorization_code)
		RETURNING authorization_code
	`
	var stored string
	err := s.db.QueryRowContext(ctx, query, userID, code).Scan(&stored)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return "", fmt.Errorf("authorization code already assigned: %w", sentinel.ErrConflict)
		}
		return "", fmt.Errorf("assign authorization code: %w", err)
	}
	return stored, nil
}

func (s *PostgresStore) FindUser(ctx context.Context, code string) (uuid.UUID, error) {
	var userID uuid.UUID
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id FROM mobile_auth_codes WHERE authorization_code = $1`, code,
	).Scan(&userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return uuid.Nil, fmt.Errorf("authorization code not found: %w", sentinel.ErrNotFound)
		}
		return uuid.Nil, fmt.Errorf("find user by authorization code: %w", err)
	}
	return userID, nil
}

func (s *PostgresStore) Clear(ctx context.Context, code string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE mobile_auth_codes SET authorization_code = NULL WHERE authorization_code = $1`, code,
	)
	if err != nil {
		return fmt.Errorf("clear authorization code: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("clear authorization code: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("authorization code not found: %w", sentinel.ErrNotFound)
	}
	return nil
}
