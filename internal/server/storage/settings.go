package storage

import (
	"context"

	"github.com/iudanet/folio/internal/models"
)

// SettingsStorage persists the site settings singleton
type SettingsStorage interface {
	// GetSettings returns ErrSettingsNotFound until settings are saved once
	GetSettings(ctx context.Context) (*models.Settings, error)

	// SaveSettings creates or replaces the settings row
	SaveSettings(ctx context.Context, settings *models.Settings) error
}

// Storage is everything the server needs from a backend.
type Storage interface {
	UserStorage
	TokenStorage
	SettingsStorage

	// Ping checks that the backend is reachable
	Ping(ctx context.Context) error
	Close() error
}
