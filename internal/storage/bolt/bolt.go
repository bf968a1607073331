// Package bolt stores mappings in an embedded bbolt database file.
package bolt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"github.com/MikhailRaia/golinks/internal/model"
	"github.com/MikhailRaia/golinks/internal/storage"
)

const backendName = "bolt"

var bucketName = []byte("urls")

// Storage is a URLStorage on top of bbolt. bbolt runs one writer at a time and
// lets readers proceed on a consistent snapshot, so the check-and-insert inside
// a single Update transaction is atomic without extra locking.
type Storage struct {
	db *bbolt.DB
}

// NewStorage opens the database at path, creating the file and bucket if needed.
func NewStorage(path string) (*Storage, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{
		Timeout: 1 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	return &Storage{db: db}, nil
}

// Put inserts code -> targetURL unless code already exists.
func (s *Storage) Put(_ context.Context, code, targetURL string) error {
	value, err := json.Marshal(model.URLMapping{Code: code, TargetURL: targetURL})
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketName)
		if bucket.Get([]byte(code)) != nil {
			return storage.ErrCollision
		}
		return bucket.Put([]byte(code), value)
	})
	if errors.Is(err, storage.ErrCollision) {
		return err
	}

	return storage.NewPersistenceError(backendName, "put", err)
}

// Get reads the mapping for code.
func (s *Storage) Get(_ context.Context, code string) (string, error) {
	var record model.URLMapping

	err := s.db.View(func(tx *bbolt.Tx) error {
		value := tx.Bucket(bucketName).Get([]byte(code))
		if value == nil {
			return storage.ErrNotFound
		}
		// value is only valid inside the transaction; Unmarshal copies it out
		return json.Unmarshal(value, &record)
	})
	if errors.Is(err, storage.ErrNotFound) {
		return "", err
	}
	if err != nil {
		return "", storage.NewPersistenceError(backendName, "get", err)
	}

	return record.TargetURL, nil
}

// Ping runs an empty read transaction.
func (s *Storage) Ping(_ context.Context) error {
	return storage.NewPersistenceError(backendName, "ping", s.db.View(func(*bbolt.Tx) error { return nil }))
}

// Close syncs and closes the database file.
func (s *Storage) Close() error {
	if err := s.db.Sync(); err != nil {
		return err
	}
	return s.db.Close()
}
