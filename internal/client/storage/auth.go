// Package storage описывает локальное хранилище сессии CLI клиента.
package storage

import (
	"context"
	"time"
)

// AuthStorage defines interface for storing the current session on the client.
type AuthStorage interface {
	// SaveAuth сохраняет сессию, перезаписывая предыдущую
	SaveAuth(ctx context.Context, auth *AuthData) error

	// GetAuth returns ErrAuthNotFound if nobody is logged in
	GetAuth(ctx context.Context) (*AuthData, error)

	// DeleteAuth removes stored session (logout)
	DeleteAuth(ctx context.Context) error
}

// AuthData сессия пользователя, сохраненная после login
type AuthData struct {
	UserID       string `json:"user_id"`
	Email        string `json:"email"`
	Username     string `json:"username"`
	Role         string `json:"role"`
	ServerURL    string `json:"server_url"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"` // unix seconds, срок жизни access token
}

// AccessExpired reports whether the access token has expired at now.
func (a *AuthData) AccessExpired(now time.Time) bool {
	return !now.Before(time.Unix(a.ExpiresAt, 0))
}
