package storage

import (
	"errors"
	"fmt"
)

var (
	// ErrCollision is returned by Put when the code is already taken.
	ErrCollision = errors.New("short code already exists")
	// ErrNotFound is returned by Get when no mapping exists for the code.
	ErrNotFound = errors.New("short code not found")
	// ErrPersistence matches every PersistenceError via errors.Is.
	ErrPersistence = errors.New("persistence failure")
)

// PersistenceError reports a failure of the underlying storage engine.
type PersistenceError struct {
	Backend string
	Op      string
	Err     error
}

// NewPersistenceError wraps err as a PersistenceError. A nil err yields nil.
func NewPersistenceError(backend, op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Backend: backend, Op: op, Err: err}
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Backend, e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrPersistence.
func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}
