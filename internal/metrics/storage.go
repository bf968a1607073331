package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/MikhailRaia/golinks/internal/storage"
)

// InstrumentedStorage records latency and persistence failures of a URLStorage.
type InstrumentedStorage struct {
	backend string
	next    storage.URLStorage
}

// InstrumentStorage wraps next; backend becomes the "backend" label.
func InstrumentStorage(backend string, next storage.URLStorage) *InstrumentedStorage {
	return &InstrumentedStorage{backend: backend, next: next}
}

func (s *InstrumentedStorage) Put(ctx context.Context, code, targetURL string) error {
	start := time.Now()
	err := s.next.Put(ctx, code, targetURL)
	s.observe("put", start, err)
	return err
}

func (s *InstrumentedStorage) Get(ctx context.Context, code string) (string, error) {
	start := time.Now()
	targetURL, err := s.next.Get(ctx, code)
	s.observe("get", start, err)
	return targetURL, err
}

// Ping forwards to the wrapped storage when it supports it.
func (s *InstrumentedStorage) Ping(ctx context.Context) error {
	if p, ok := s.next.(storage.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (s *InstrumentedStorage) observe(op string, start time.Time, err error) {
	StorageOperationDuration.WithLabelValues(s.backend, op).Observe(time.Since(start).Seconds())
	if errors.Is(err, storage.ErrPersistence) {
		StorageErrorsTotal.WithLabelValues(s.backend, op).Inc()
	}
}
