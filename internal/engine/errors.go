package engine

import "errors"

// ErrConcurrentMutation rejects a mutation for an entry that already has a
// persist call in flight. The caller retries after the first one resolves;
// nothing was applied, so there is nothing to roll back.
var ErrConcurrentMutation = errors.New("mutation already in flight for entry")

// ErrNoActiveEntry rejects a delete without a prior Activate on the target.
var ErrNoActiveEntry = errors.New("no active entry selected")

// ErrUnknownEntry marks an operation on an id the coordinator has never
// loaded or created.
var ErrUnknownEntry = errors.New("unknown entry")
