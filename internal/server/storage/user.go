package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/iudanet/folio/internal/models"
)

// UserStorage defines interface for user credential persistence
type UserStorage interface {
	// CreateUser creates a new user in the storage
	// Returns ErrUserAlreadyExists if email or username is taken,
	// ErrInvalidUser if the record has no password hash
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByID retrieves user by ID
	// Returns ErrUserNotFound if user doesn't exist
	GetUserByID(ctx context.Context, userID string) (*models.User, error)

	// GetUserByEmail retrieves user by email (case-insensitive)
	// Returns ErrUserNotFound if user doesn't exist
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// UpdateProfile updates name, username, email and profile picture
	// Returns ErrUserNotFound or ErrUserAlreadyExists
	UpdateProfile(ctx context.Context, user *models.User) error

	// UpdatePassword replaces the password hash
	// Returns ErrInvalidUser for an empty hash, ErrUserNotFound if user doesn't exist
	UpdatePassword(ctx context.Context, userID, passwordHash string, updatedAt time.Time) error

	// UpdateLastLogin updates the last login timestamp
	UpdateLastLogin(ctx context.Context, userID string, lastLogin time.Time) error

	// SetRole changes the role of a user. Only used by operator tooling.
	SetRole(ctx context.Context, userID string, role models.Role) error

	// DeleteUser deletes user by ID
	// Returns ErrUserNotFound if user doesn't exist
	DeleteUser(ctx context.Context, userID string) error
}

// ValidateUser checks the invariants every persisted user must satisfy.
// Both storage implementations call it before writing.
func ValidateUser(user *models.User) error {
	switch {
	case user == nil:
		return fmt.Errorf("%w: nil user", ErrInvalidUser)
	case user.ID == "":
		return fmt.Errorf("%w: id is required", ErrInvalidUser)
	case user.Email == "":
		return fmt.Errorf("%w: email is required", ErrInvalidUser)
	case user.Username == "":
		return fmt.Errorf("%w: username is required", ErrInvalidUser)
	case user.PasswordHash == "":
		return fmt.Errorf("%w: password hash is required", ErrInvalidUser)
	}
	return nil
}
