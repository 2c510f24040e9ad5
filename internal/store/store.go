// Package store provides access to the persisted schedule entries. The
// engine only sees the Store interface; the SQLite and REST adapters are
// interchangeable backends behind it.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/sevenhill/schedsync/internal/domain"
)

// ErrNotFound marks a mutation whose target no longer exists in the store.
var ErrNotFound = errors.New("schedule entry not found")

// StoreError wraps a transport or backend failure. The coordinator treats
// any StoreError as a trigger for rolling back optimistic state.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

type Store interface {
	// List returns every entry owned by ownerID.
	List(ctx context.Context, ownerID string) ([]domain.ScheduleEntry, error)
	// Create persists a new entry and returns it with its assigned id.
	Create(ctx context.Context, entry domain.ScheduleEntry) (domain.ScheduleEntry, error)
	// Update applies only the changed fields to an existing entry.
	Update(ctx context.Context, id string, mutation domain.EntryMutation) error
	// Delete removes an entry.
	Delete(ctx context.Context, id string) error
}
