// Package storage defines the short code to URL mapping contract shared by all backends.
package storage

import "context"

// URLStorage persists code -> target URL mappings.
//
// Put must never overwrite: inserting an existing code fails with ErrCollision and
// leaves the stored mapping untouched. The existence check and the insert happen as
// one atomic step per code. A Get that follows a successful Put for the same code
// observes the written URL.
type URLStorage interface {
	Put(ctx context.Context, code, targetURL string) error
	Get(ctx context.Context, code string) (string, error)
}

// Pinger is implemented by backends that can report connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}
