package boltdb

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/folio/internal/client/storage"
)

// SaveAuth replaces the current session. A session without user id or
// refresh token is rejected with storage.ErrIncompleteSession.
func (s *Storage) SaveAuth(ctx context.Context, auth *storage.AuthData) error {
	if err := auth.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(auth)
	if err != nil {
		return fmt.Errorf("failed to marshal auth data: %w", err)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := sessionBucket(tx)
		if err != nil {
			return err
		}
		if err := b.Put(currentKey, data); err != nil {
			return fmt.Errorf("failed to save auth data: %w", err)
		}
		return nil
	})
}

// GetAuth returns the session of the logged in folio user or
// storage.ErrAuthNotFound.
func (s *Storage) GetAuth(ctx context.Context) (*storage.AuthData, error) {
	auth := &storage.AuthData{}

	err := s.db.View(func(tx *bbolt.Tx) error {
		b, err := sessionBucket(tx)
		if err != nil {
			return err
		}

		data := b.Get(currentKey)
		if data == nil {
			return storage.ErrAuthNotFound
		}

		// data валидна только внутри транзакции, Unmarshal копирует
		if err := json.Unmarshal(data, auth); err != nil {
			return fmt.Errorf("failed to unmarshal auth data: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := auth.Validate(); err != nil {
		return nil, err
	}
	return auth, nil
}

// DeleteAuth удаляет сессию при logout и после смены пароля.
// Пустое хранилище дает storage.ErrAuthNotFound.
func (s *Storage) DeleteAuth(ctx context.Context) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := sessionBucket(tx)
		if err != nil {
			return err
		}
		if b.Get(currentKey) == nil {
			return storage.ErrAuthNotFound
		}
		if err := b.Delete(currentKey); err != nil {
			return fmt.Errorf("failed to delete auth data: %w", err)
		}
		return nil
	})
}
