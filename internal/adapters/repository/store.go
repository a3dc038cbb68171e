// Package repository keeps live aggregation sessions in memory.
package repository

import (
	"context"

	"github.com/google/uuid"
)

// Store provides keyed access to live sessions. Nothing is persisted; a
// session's state is discarded when it is deleted or evicted.
type Store[T any] interface {
	// Insert adds v under id. When the store is full the oldest session is
	// evicted and returned, or ErrCapacity is returned if eviction is off.
	Insert(ctx context.Context, id string, v T) (evicted []string, err error)

	// Get returns the session stored under id or ErrNotFound.
	Get(ctx context.Context, id string) (T, error)

	// Delete removes the session stored under id or returns ErrNotFound.
	Delete(ctx context.Context, id string) error

	// Count returns the number of live sessions.
	Count(ctx context.Context) int
}

// NewID returns a fresh session identifier.
func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether id has the shape NewID produces.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
