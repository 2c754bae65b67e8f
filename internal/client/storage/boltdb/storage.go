// Package boltdb хранит сессию CLI клиента folio в локальном файле BoltDB.
//
// Файл содержит один bucket "session" с единственным ключом "current":
// JSON storage.AuthData последнего login (пользователь, адрес сервера,
// access и refresh токены). Refresh перезаписывает запись, logout удаляет.
package boltdb

import (
	"context"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

var (
	bucketSession = []byte("session")
	currentKey    = []byte("current")
)

// Storage is the BoltDB-backed storage.AuthStorage of the folio CLI.
type Storage struct {
	db *bbolt.DB
}

// New opens (or creates) the session file at dbPath, by default
// folio-client.db in the working directory.
func New(ctx context.Context, dbPath string) (*Storage, error) {
	// Второй процесс клиента не должен висеть на flock бесконечно
	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open session db %s: %w", dbPath, err)
	}

	s := &Storage{db: db}
	if err := s.initBuckets(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize session db: %w", err)
	}

	return s, nil
}

// Close closes the session file. Safe on a zero Storage.
func (s *Storage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Storage) initBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketSession); err != nil {
			return fmt.Errorf("failed to create session bucket: %w", err)
		}
		return nil
	})
}

// sessionBucket возвращает bucket или ошибку, если файл поврежден вручную
func sessionBucket(tx *bbolt.Tx) (*bbolt.Bucket, error) {
	b := tx.Bucket(bucketSession)
	if b == nil {
		return nil, fmt.Errorf("session bucket not found")
	}
	return b, nil
}
