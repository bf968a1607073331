package memory

import (
	"context"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/MikhailRaia/golinks/internal/storage"
)

const shardCount = 64

type shard struct {
	mu   sync.RWMutex
	urls map[string]string
}

// Storage implements in-memory URLStorage for testing and development.
// Codes are spread over independently locked shards so that operations on
// different codes rarely contend.
type Storage struct {
	shards [shardCount]*shard
}

// NewStorage creates a new in-memory storage instance.
func NewStorage() *Storage {
	s := &Storage{}
	for i := range s.shards {
		s.shards[i] = &shard{urls: make(map[string]string)}
	}
	return s
}

func (s *Storage) shardFor(code string) *shard {
	return s.shards[xxhash.Sum64String(code)%shardCount]
}

// Put stores a new mapping. It fails with storage.ErrCollision if code is taken.
func (s *Storage) Put(ctx context.Context, code, targetURL string) error {
	return s.PutWith(ctx, code, targetURL, nil)
}

// PutWith is Put with a persist step executed while the code's shard is locked,
// after the existence check and before the mapping becomes visible. If persist
// fails, nothing is stored and its error is returned.
func (s *Storage) PutWith(_ context.Context, code, targetURL string, persist func() error) error {
	sh := s.shardFor(code)

	sh.mu.Lock()
	defer sh.mu.Unlock()

	if _, exists := sh.urls[code]; exists {
		return storage.ErrCollision
	}

	if persist != nil {
		if err := persist(); err != nil {
			return err
		}
	}

	sh.urls[code] = targetURL
	return nil
}

// Get retrieves the target URL for a code.
func (s *Storage) Get(_ context.Context, code string) (string, error) {
	sh := s.shardFor(code)

	sh.mu.RLock()
	defer sh.mu.RUnlock()

	targetURL, found := sh.urls[code]
	if !found {
		return "", storage.ErrNotFound
	}

	return targetURL, nil
}

// Load inserts a mapping unconditionally. Used when replaying persisted state.
func (s *Storage) Load(code, targetURL string) {
	sh := s.shardFor(code)

	sh.mu.Lock()
	sh.urls[code] = targetURL
	sh.mu.Unlock()
}

// Len returns the number of stored mappings.
func (s *Storage) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		n += len(sh.urls)
		sh.mu.RUnlock()
	}
	return n
}
