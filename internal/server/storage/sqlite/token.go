package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/folio/internal/models"
)

// RevokeRefreshToken adds a token id to the revocation set
func (s *Storage) RevokeRefreshToken(ctx context.Context, token *models.RevokedToken) error {
	query := `
		INSERT OR IGNORE INTO refresh_revocations (token_id, user_id, issued_at, expires_at, revoked_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		token.TokenID,
		token.UserID,
		token.IssuedAt.Unix(),
		token.ExpiresAt.Unix(),
		token.RevokedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}

	return nil
}

// IsRefreshTokenRevoked reports whether the token id is in the revocation set
func (s *Storage) IsRefreshTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	query := `SELECT 1 FROM refresh_revocations WHERE token_id = ?`

	var one int
	err := s.db.QueryRowContext(ctx, query, tokenID).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check revocation: %w", err)
	}

	return true, nil
}

// RevokeUserTokensBefore sets the per-user cutoff, stored as unix milliseconds
func (s *Storage) RevokeUserTokensBefore(ctx context.Context, userID string, cutoff time.Time) error {
	query := `
		INSERT INTO token_cutoffs (user_id, revoked_before)
		VALUES (?, ?)
		ON CONFLICT(user_id) DO UPDATE SET revoked_before = MAX(revoked_before, excluded.revoked_before)
	`

	if _, err := s.db.ExecContext(ctx, query, userID, cutoff.UnixMilli()); err != nil {
		return fmt.Errorf("failed to set token cutoff: %w", err)
	}

	return nil
}

// GetUserTokenCutoff returns the cutoff for the user
func (s *Storage) GetUserTokenCutoff(ctx context.Context, userID string) (time.Time, bool, error) {
	query := `SELECT revoked_before FROM token_cutoffs WHERE user_id = ?`

	var millis int64
	err := s.db.QueryRowContext(ctx, query, userID).Scan(&millis)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("failed to get token cutoff: %w", err)
	}

	return time.UnixMilli(millis).UTC(), true, nil
}

// DeleteExpiredRevocations removes revocations of tokens that have expired anyway
func (s *Storage) DeleteExpiredRevocations(ctx context.Context, now time.Time) (int, error) {
	query := `DELETE FROM refresh_revocations WHERE expires_at <= ?`

	result, err := s.db.ExecContext(ctx, query, now.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired revocations: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return int(rows), nil
}
