// Package storagetest runs the URLStorage contract against any backend.
package storagetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikhailRaia/golinks/internal/storage"
)

// Factory returns an empty storage. Cleanup is registered on t by the factory.
type Factory func(t *testing.T) storage.URLStorage

// Run executes every contract check as a subtest, each against a fresh storage.
func Run(t *testing.T, newStorage Factory) {
	t.Run("RoundTrip", func(t *testing.T) { testRoundTrip(t, newStorage(t)) })
	t.Run("CollisionKeepsOriginal", func(t *testing.T) { testCollision(t, newStorage(t)) })
	t.Run("NotFound", func(t *testing.T) { testNotFound(t, newStorage(t)) })
	t.Run("ConcurrentDistinctCodes", func(t *testing.T) { testConcurrentDistinct(t, newStorage(t)) })
	t.Run("ConcurrentSameCode", func(t *testing.T) { testConcurrentSameCode(t, newStorage(t)) })
}

func testRoundTrip(t *testing.T, s storage.URLStorage) {
	ctx := context.Background()

	urls := map[string]string{
		"ABCD1234": "https://example.com/a/b?x=1",
		"00000000": "http://localhost:8080",
		"FFFFFFFF": "https://example.com/path with spaces/#frag",
		"CAFE0001": "https://example.com/café?q=naïve&x=<b>",
	}

	for code, target := range urls {
		require.NoError(t, s.Put(ctx, code, target))
	}

	for code, target := range urls {
		got, err := s.Get(ctx, code)
		require.NoError(t, err)
		assert.Equal(t, target, got)
	}
}

func testCollision(t *testing.T, s storage.URLStorage) {
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "C0FFEE00", "https://example.com/first"))

	err := s.Put(ctx, "C0FFEE00", "https://example.com/second")
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrCollision)

	got, err := s.Get(ctx, "C0FFEE00")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/first", got)
}

func testNotFound(t *testing.T, s storage.URLStorage) {
	_, err := s.Get(context.Background(), "doesnotexist")
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func testConcurrentDistinct(t *testing.T, s storage.URLStorage) {
	ctx := context.Background()
	const n = 50

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// half of the mappings share a target URL
			target := fmt.Sprintf("https://example.com/%d", i%2)
			errs[i] = s.Put(ctx, fmt.Sprintf("%08X", i), target)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "put %d", i)
	}

	for i := 0; i < n; i++ {
		got, err := s.Get(ctx, fmt.Sprintf("%08X", i))
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("https://example.com/%d", i%2), got)
	}
}

func testConcurrentSameCode(t *testing.T, s storage.URLStorage) {
	ctx := context.Background()
	const n = 20

	var (
		wg         sync.WaitGroup
		successes  atomic.Int32
		collisions atomic.Int32
		winner     atomic.Value
	)

	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			target := fmt.Sprintf("https://example.com/racer/%d", i)
			err := s.Put(ctx, "RACE0001", target)
			switch {
			case err == nil:
				successes.Add(1)
				winner.Store(target)
			case errors.Is(err, storage.ErrCollision):
				collisions.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	require.EqualValues(t, 1, successes.Load())
	assert.EqualValues(t, n-1, collisions.Load())

	got, err := s.Get(ctx, "RACE0001")
	require.NoError(t, err)
	assert.Equal(t, winner.Load(), got)
}
