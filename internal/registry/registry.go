// Package registry holds the occurrences currently rendered for the
// displayed window, keyed by entry id. It is the engine's only record of
// what the view shows, and the thing snapshots are taken from before an
// optimistic mutation.
package registry

import (
	"sort"
	"sync"

	"github.com/sevenhill/schedsync/internal/domain"
	"github.com/sevenhill/schedsync/internal/view"
)

// Registry keeps at most one occurrence per entry id. Every change is
// forwarded to the view binding as an incremental effect; Replace re-renders
// the whole window. Only the mutation coordinator writes to it.
type Registry struct {
	mu      sync.RWMutex
	binding view.Binding
	occs    map[string]domain.Occurrence
}

func New(binding view.Binding) *Registry {
	if binding == nil {
		binding = view.NewNoop()
	}
	return &Registry{binding: binding, occs: make(map[string]domain.Occurrence)}
}

// Put inserts or replaces the occurrence for an entry id.
func (r *Registry) Put(entryID string, occ domain.Occurrence) {
	r.mu.Lock()
	_, existed := r.occs[entryID]
	r.occs[entryID] = occ
	r.mu.Unlock()

	kind := view.EffectAdd
	if existed {
		kind = view.EffectReplace
	}
	r.binding.Apply(view.Effect{Kind: kind, EntryID: entryID, Occurrence: occ})
}

// Remove deletes the occurrence for an entry id. Removing an absent id is a
// no-op, not an error.
func (r *Registry) Remove(entryID string) {
	r.mu.Lock()
	_, existed := r.occs[entryID]
	delete(r.occs, entryID)
	r.mu.Unlock()

	if existed {
		r.binding.Apply(view.Effect{Kind: view.EffectRemove, EntryID: entryID})
	}
}

// Snapshot returns the occurrence currently held for an id. The second
// return reports presence; callers capture this before mutating so a failed
// persist can restore the exact prior state.
func (r *Registry) Snapshot(entryID string) (domain.Occurrence, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	occ, ok := r.occs[entryID]
	return occ, ok
}

// Restore puts back a previously captured snapshot. A snapshot that did not
// exist restores to absence.
func (r *Registry) Restore(entryID string, occ domain.Occurrence, existed bool) {
	if existed {
		r.Put(entryID, occ)
		return
	}
	r.Remove(entryID)
}

// Replace swaps the full displayed set and re-renders the window.
func (r *Registry) Replace(occs []domain.Occurrence) {
	r.mu.Lock()
	r.occs = make(map[string]domain.Occurrence, len(occs))
	for _, occ := range occs {
		r.occs[occ.EntryID] = occ
	}
	r.mu.Unlock()

	r.binding.Render(r.Occurrences())
}

// Occurrences lists the displayed set ordered by start time, then entry id.
func (r *Registry) Occurrences() []domain.Occurrence {
	r.mu.RLock()
	out := make([]domain.Occurrence, 0, len(r.occs))
	for _, occ := range r.occs {
		out = append(out, occ)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Start.Equal(out[j].Start) {
			return out[i].Start.Before(out[j].Start)
		}
		return out[i].EntryID < out[j].EntryID
	})
	return out
}

// Len reports how many occurrences are displayed.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.occs)
}
