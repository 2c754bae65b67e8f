package postgres

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
	query := `INSERT INTO refresh_revocations (token_id, user_id, issued_at, expires_at, revoked_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (token_id) DO NOTHING`

	_, err := s.db.ExecContext(ctx, query,
		token.TokenID,
		token.UserID,
		token.IssuedAt.UTC(),
		token.ExpiresAt.UTC(),
		token.RevokedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}

	return nil
}

// IsRefreshTokenRevoked reports whether the token id is in the revocation set
func (s *Storage) IsRefreshTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	var revoked bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM refresh_revocations WHERE token_id = $1)`, tokenID,
	).Scan(&revoked)
	if err != nil {
		return false, fmt.Errorf("failed to check revocation: %w", err)
	}

	return revoked, nil
}

// RevokeUserTokensBefore sets the per-user cutoff
func (s *Storage) RevokeUserTokensBefore(ctx context.Context, userID string, cutoff time.Time) error {
	query := `INSERT INTO token_cutoffs (user_id, revoked_before)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET revoked_before = GREATEST(token_cutoffs.revoked_before, EXCLUDED.revoked_before)`

	if _, err := s.db.ExecContext(ctx, query, userID, cutoff.UTC().Truncate(time.Millisecond)); err != nil {
		return fmt.Errorf("failed to set token cutoff: %w", err)
	}

	return nil
}

// GetUserTokenCutoff returns the cutoff for the user
func (s *Storage) GetUserTokenCutoff(ctx context.Context, userID string) (time.Time, bool, error) {
	var cutoff time.Time
	err := s.db.QueryRowContext(ctx,
		`SELECT revoked_before FROM token_cutoffs WHERE user_id = $1`, userID,
	).Scan(&cutoff)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("failed to get token cutoff: %w", err)
	}

	return cutoff.UTC(), true, nil
}

// DeleteExpiredRevocations removes revocations of tokens that have expired anyway
func (s *Storage) DeleteExpiredRevocations(ctx context.Context, now time.Time) (int, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM refresh_revocations WHERE expires_at <= $1`, now.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired revocations: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return int(rows), nil
}
