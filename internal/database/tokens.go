package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// TokenRepository records revoked token ids so sign-out invalidates bearer
// tokens before they expire.
type TokenRepository struct {
	conn *sql.DB
}

func NewTokenRepository(conn *sql.DB) *TokenRepository {
	return &TokenRepository{conn: conn}
}

// Revoke marks the token id as unusable until its natural expiry.
func (r *TokenRepository) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	_, err := r.conn.ExecContext(ctx,
		`INSERT INTO revoked_tokens (jti, expires_at) VALUES (?, ?)
		 ON CONFLICT (jti) DO NOTHING`,
		jti, expiresAt.UTC())
	if err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// IsRevoked reports whether the token id has been revoked.
func (r *TokenRepository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var one int
	err := r.conn.QueryRowContext(ctx,
		`SELECT 1 FROM revoked_tokens WHERE jti = ?`, jti).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return true, nil
}

// PurgeExpired drops revocation rows whose tokens have expired anyway.
func (r *TokenRepository) PurgeExpired(ctx context.Context) error {
	_, err := r.conn.ExecContext(ctx,
		`DELETE FROM revoked_tokens WHERE expires_at < ?`, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("purge revoked tokens: %w", err)
	}
	return nil
}
