package storage

import "errors"

// Common storage errors
var (
	// ErrUserNotFound indicates that user was not found in storage
	ErrUserNotFound = errors.New("user not found")

	// ErrUserAlreadyExists indicates that user with this email or username already exists
	ErrUserAlreadyExists = errors.New("user already exists")

	// ErrInvalidUser indicates that a user record violates a storage invariant
	// (missing id, email, username or password hash)
	ErrInvalidUser = errors.New("invalid user record")

	// ErrSettingsNotFound indicates that the settings row has not been created yet
	ErrSettingsNotFound = errors.New("settings not found")
)
