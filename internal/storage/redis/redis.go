// Package redis stores mappings in Redis under url:{code} keys.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MikhailRaia/golinks/internal/model"
	"github.com/MikhailRaia/golinks/internal/storage"
)

const backendName = "redis"

// Storage is a URLStorage on Redis. SETNX makes the existence check and the
// write a single server-side operation.
type Storage struct {
	client *redis.Client
}

// NewStorage wraps an existing client.
func NewStorage(client *redis.Client) *Storage {
	return &Storage{client: client}
}

func key(code string) string {
	return fmt.Sprintf("url:%s", code)
}

// Put stores the mapping only if the code is not present yet.
func (s *Storage) Put(ctx context.Context, code, targetURL string) error {
	data, err := json.Marshal(model.URLMapping{Code: code, TargetURL: targetURL})
	if err != nil {
		return fmt.Errorf("failed to marshal URL: %w", err)
	}

	created, err := s.client.SetNX(ctx, key(code), data, 0).Result()
	if err != nil {
		return storage.NewPersistenceError(backendName, "put", err)
	}
	if !created {
		return storage.ErrCollision
	}

	return nil
}

// Get loads the mapping for code.
func (s *Storage) Get(ctx context.Context, code string) (string, error) {
	data, err := s.client.Get(ctx, key(code)).Bytes()
	if errors.Is(err, redis.Nil) {
		return "", storage.ErrNotFound
	}
	if err != nil {
		return "", storage.NewPersistenceError(backendName, "get", err)
	}

	var record model.URLMapping
	if err := json.Unmarshal(data, &record); err != nil {
		return "", storage.NewPersistenceError(backendName, "get", fmt.Errorf("failed to unmarshal URL: %w", err))
	}

	return record.TargetURL, nil
}

// Ping checks the connection to the server.
func (s *Storage) Ping(ctx context.Context) error {
	return storage.NewPersistenceError(backendName, "ping", s.client.Ping(ctx).Err())
}

// Close closes the underlying client.
func (s *Storage) Close() error {
	return s.client.Close()
}

// Connect creates a client for addr and verifies it with PING.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,

		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}
