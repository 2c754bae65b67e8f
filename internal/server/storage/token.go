package storage

import (
	"context"
	"time"

	"github.com/iudanet/folio/internal/models"
)

// TokenStorage defines interface for refresh token revocation
//
// Refresh tokens themselves are never stored. A token is rejected if its jti
// is in the revocation set or if it was issued at or before the user's cutoff.
type TokenStorage interface {
	// RevokeRefreshToken adds a token id to the revocation set
	// Revoking the same token twice is not an error
	RevokeRefreshToken(ctx context.Context, token *models.RevokedToken) error

	// IsRefreshTokenRevoked reports whether the token id is in the revocation set
	IsRefreshTokenRevoked(ctx context.Context, tokenID string) (bool, error)

	// RevokeUserTokensBefore sets the per-user cutoff: every refresh token of
	// the user issued at or before the cutoff is rejected
	RevokeUserTokensBefore(ctx context.Context, userID string, cutoff time.Time) error

	// GetUserTokenCutoff returns the cutoff for the user, ok=false if none is set
	GetUserTokenCutoff(ctx context.Context, userID string) (cutoff time.Time, ok bool, err error)

	// DeleteExpiredRevocations removes revocations whose token has expired
	// Returns number of deleted rows
	DeleteExpiredRevocations(ctx context.Context, now time.Time) (int, error)
}
