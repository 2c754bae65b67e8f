package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/folio/internal/models"
	"github.com/iudanet/folio/internal/server/storage"
)

const userColumns = `id, email, username, name, password_hash, role,
	profile_picture_url, profile_picture_storage_id, last_login, created_at, updated_at`

// CreateUser creates a new user in the storage
func (s *Storage) CreateUser(ctx context.Context, user *models.User) error {
	if err := storage.ValidateUser(user); err != nil {
		return err
	}

	query := `INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	picURL, picID := pictureColumns(user.ProfilePicture)

	_, err := s.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.Username,
		user.Name,
		user.PasswordHash,
		string(user.Role.Normalize()),
		picURL,
		picID,
		nullTime(user.LastLogin),
		user.CreatedAt.UTC(),
		user.UpdatedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

// GetUserByID retrieves user by ID
func (s *Storage) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	return s.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID)
}

// GetUserByEmail retrieves user by email
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (s *Storage) getUser(ctx context.Context, query string, arg string) (*models.User, error) {
	user := &models.User{}
	var (
		role      string
		picURL    sql.NullString
		picID     sql.NullString
		lastLogin sql.NullTime
	)

	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.Name,
		&user.PasswordHash,
		&role,
		&picURL,
		&picID,
		&lastLogin,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	user.Role = models.Role(role).Normalize()
	if lastLogin.Valid {
		user.LastLogin = &lastLogin.Time
	}
	if picURL.Valid && picURL.String != "" {
		user.ProfilePicture = &models.ProfilePicture{URL: picURL.String, StorageID: picID.String}
	}

	return user, nil
}

// UpdateProfile updates the editable profile fields
func (s *Storage) UpdateProfile(ctx context.Context, user *models.User) error {
	query := `UPDATE users
		SET email = $1, username = $2, name = $3, profile_picture_url = $4, profile_picture_storage_id = $5, updated_at = $6
		WHERE id = $7`

	picURL, picID := pictureColumns(user.ProfilePicture)

	result, err := s.db.ExecContext(ctx, query,
		user.Email,
		user.Username,
		user.Name,
		picURL,
		picID,
		user.UpdatedAt.UTC(),
		user.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to update user: %w", err)
	}

	return expectOneRow(result)
}

// UpdatePassword replaces the password hash
func (s *Storage) UpdatePassword(ctx context.Context, userID, passwordHash string, updatedAt time.Time) error {
	if passwordHash == "" {
		return fmt.Errorf("%w: password hash is required", storage.ErrInvalidUser)
	}

	query := `UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3`

	result, err := s.db.ExecContext(ctx, query, passwordHash, updatedAt.UTC(), userID)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return expectOneRow(result)
}

// UpdateLastLogin updates the last login timestamp
func (s *Storage) UpdateLastLogin(ctx context.Context, userID string, lastLogin time.Time) error {
	query := `UPDATE users SET last_login = $1 WHERE id = $2`

	result, err := s.db.ExecContext(ctx, query, lastLogin.UTC(), userID)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}

	return expectOneRow(result)
}

// SetRole changes the role of a user
func (s *Storage) SetRole(ctx context.Context, userID string, role models.Role) error {
	query := `UPDATE users SET role = $1, updated_at = $2 WHERE id = $3`

	result, err := s.db.ExecContext(ctx, query, string(role.Normalize()), s.now().UTC(), userID)
	if err != nil {
		return fmt.Errorf("failed to set role: %w", err)
	}

	return expectOneRow(result)
}

// DeleteUser deletes user by ID
func (s *Storage) DeleteUser(ctx context.Context, userID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	return expectOneRow(result)
}

func expectOneRow(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return storage.ErrUserNotFound
	}
	return nil
}

func pictureColumns(p *models.ProfilePicture) (sql.NullString, sql.NullString) {
	if p == nil || p.URL == "" {
		return sql.NullString{}, sql.NullString{}
	}
	return sql.NullString{String: p.URL, Valid: true}, sql.NullString{String: p.StorageID, Valid: p.StorageID != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
