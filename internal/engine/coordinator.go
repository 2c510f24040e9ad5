// Package engine coordinates optimistic schedule mutations: it is the only
// writer of the occurrence registry and the only caller of the remote
// store. Each mutation applies locally first, persists second, and rolls
// the registry back to its pre-mutation snapshot when the persist fails.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sevenhill/schedsync/internal/domain"
	"github.com/sevenhill/schedsync/internal/projector"
	"github.com/sevenhill/schedsync/internal/registry"
	"github.com/sevenhill/schedsync/internal/store"
	"github.com/sevenhill/schedsync/internal/view"
)

type Options struct {
	Store     store.Store
	Binding   view.Binding
	OwnerID   string
	WeekStart projector.WeekStart
	// Reference anchors the displayed week. Zero means "now".
	Reference time.Time
	Logger    *slog.Logger
}

// Coordinator owns the registry, the active mutation context and the per-id
// in-flight guard for one calendar-view session.
type Coordinator struct {
	store     store.Store
	binding   view.Binding
	registry  *registry.Registry
	owner     string
	weekStart projector.WeekStart
	log       *slog.Logger

	mu        sync.Mutex
	reference time.Time
	active    string
	inflight  map[string]struct{}
	entries   map[string]domain.ScheduleEntry
}

func New(opts Options) *Coordinator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	binding := opts.Binding
	if binding == nil {
		binding = view.NewNoop()
	}
	reference := opts.Reference
	if reference.IsZero() {
		reference = time.Now()
	}
	return &Coordinator{
		store:     opts.Store,
		binding:   binding,
		registry:  registry.New(binding),
		owner:     opts.OwnerID,
		weekStart: opts.WeekStart,
		log:       logger,
		reference: reference,
		inflight:  make(map[string]struct{}),
		entries:   make(map[string]domain.ScheduleEntry),
	}
}

// Registry exposes the displayed occurrence set for read-only callers.
func (c *Coordinator) Registry() *registry.Registry { return c.registry }

// Load lists the owner's entries, projects them into the current window and
// renders the full set. Entries the projector rejects are logged and
// skipped; a bad row must not take down the render pass.
func (c *Coordinator) Load(ctx context.Context) error {
	entries, err := c.store.List(ctx, c.owner)
	if err != nil {
		return fmt.Errorf("load schedule: %w", err)
	}

	c.mu.Lock()
	reference := c.reference
	c.entries = make(map[string]domain.ScheduleEntry, len(entries))
	for _, e := range entries {
		c.entries[e.ID] = e
	}
	c.mu.Unlock()

	occs := make([]domain.Occurrence, 0, len(entries))
	for _, e := range entries {
		occ, err := projector.Project(e, reference, c.weekStart)
		if err != nil {
			c.log.Warn("skipping unprojectable entry", "entry_id", e.ID, "error", err)
			continue
		}
		occs = append(occs, occ)
	}
	c.registry.Replace(occs)
	return nil
}

// SetWindow moves the displayed week and reprojects the cached entries.
// Purely local; no store traffic.
func (c *Coordinator) SetWindow(reference time.Time) {
	c.mu.Lock()
	c.reference = reference
	entries := make([]domain.ScheduleEntry, 0, len(c.entries))
	for _, e := range c.entries {
		entries = append(entries, e)
	}
	c.mu.Unlock()

	occs := make([]domain.Occurrence, 0, len(entries))
	for _, e := range entries {
		occ, err := projector.Project(e, reference, c.weekStart)
		if err != nil {
			c.log.Warn("skipping unprojectable entry", "entry_id", e.ID, "error", err)
			continue
		}
		occs = append(occs, occ)
	}
	c.registry.Replace(occs)
}

// Entries returns the coordinator's cached persisted entries.
func (c *Coordinator) Entries() []domain.ScheduleEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.ScheduleEntry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e)
	}
	return out
}

// Activate marks an entry as the one being edited or deleted.
func (c *Coordinator) Activate(entryID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[entryID]; !ok {
		return fmt.Errorf("activate %s: %w", entryID, ErrUnknownEntry)
	}
	c.active = entryID
	return nil
}

// Cancel discards the active mutation context. Nothing was applied at form
// open time, so there is nothing to revert.
func (c *Coordinator) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = ""
}

// Active returns the id of the entry currently being edited, or "".
func (c *Coordinator) Active() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Create validates, displays a provisional occurrence, persists, then swaps
// the provisional slot for one keyed by the assigned id. A failed persist
// removes the provisional slot again.
func (c *Coordinator) Create(ctx context.Context, entry domain.ScheduleEntry) (domain.ScheduleEntry, error) {
	entry.ID = ""
	entry.OwnerID = c.owner
	if err := entry.Validate(); err != nil {
		return domain.ScheduleEntry{}, err
	}

	c.mu.Lock()
	reference := c.reference
	c.mu.Unlock()

	provisional := entry
	provisional.ID = "provisional-" + uuid.NewString()
	occ, err := projector.Project(provisional, reference, c.weekStart)
	if err != nil {
		return domain.ScheduleEntry{}, err
	}
	c.registry.Put(provisional.ID, occ)

	created, err := c.store.Create(ctx, entry)
	if err != nil {
		c.registry.Remove(provisional.ID)
		c.log.Error("create rolled back", "state", StateRolledBack, "error", err)
		return domain.ScheduleEntry{}, fmt.Errorf("create entry: %w", err)
	}

	c.registry.Remove(provisional.ID)
	occ.EntryID = created.ID
	c.registry.Put(created.ID, occ)

	c.mu.Lock()
	c.entries[created.ID] = created
	c.active = ""
	c.mu.Unlock()

	c.log.Debug("create committed", "state", StateCommitted, "entry_id", created.ID)
	return created, nil
}

// Update applies a full edit to an entry. Optimistic: the registry shows the
// new slot before the store confirms, and is restored from the snapshot if
// the store refuses.
func (c *Coordinator) Update(ctx context.Context, entryID string, mutation domain.EntryMutation) error {
	return c.mutate(ctx, "update", entryID, mutation, false)
}

// Move handles a drag-drop to a new day and start/end time. On rollback the
// view binding is told to snap the slot back to its prior position.
func (c *Coordinator) Move(ctx context.Context, entryID string, dayOfWeek int, startTime, endTime string) error {
	mutation := domain.EntryMutation{DayOfWeek: &dayOfWeek, StartTime: &startTime, EndTime: &endTime}
	return c.mutate(ctx, "move", entryID, mutation, true)
}

// Resize handles a duration change; only the end time moves.
func (c *Coordinator) Resize(ctx context.Context, entryID string, endTime string) error {
	return c.mutate(ctx, "resize", entryID, domain.EntryMutation{EndTime: &endTime}, true)
}

// ToggleDone optimistically flips the completion flag and persists it,
// flipping back when the store refuses.
func (c *Coordinator) ToggleDone(ctx context.Context, entryID string) error {
	c.mu.Lock()
	entry, ok := c.entries[entryID]
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("toggle %s: %w", entryID, ErrUnknownEntry)
	}
	done := !entry.Done
	return c.mutate(ctx, "toggle", entryID, domain.EntryMutation{Done: &done}, false)
}

// Delete removes the active entry. Deliberately not optimistic: a transient
// failure leaves the slot on screen rather than risking a silently lost
// record, so the registry is only touched after the store confirms.
func (c *Coordinator) Delete(ctx context.Context, entryID string) error {
	c.mu.Lock()
	if c.active != entryID {
		c.mu.Unlock()
		return fmt.Errorf("delete %s: %w", entryID, ErrNoActiveEntry)
	}
	if _, busy := c.inflight[entryID]; busy {
		c.mu.Unlock()
		return fmt.Errorf("delete %s: %w", entryID, ErrConcurrentMutation)
	}
	c.inflight[entryID] = struct{}{}
	c.mu.Unlock()
	defer c.release(entryID)

	if err := c.store.Delete(ctx, entryID); err != nil {
		c.mu.Lock()
		c.active = ""
		c.mu.Unlock()
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("delete entry: target already gone: %w", err)
		}
		return fmt.Errorf("delete entry: %w", err)
	}

	c.registry.Remove(entryID)
	c.mu.Lock()
	delete(c.entries, entryID)
	c.active = ""
	c.mu.Unlock()
	return nil
}

// mutate is the single optimistic-update path shared by update, move,
// resize and toggle. State machine per attempt:
// Idle -> Validating -> OptimisticallyApplied -> Persisting -> Committed | RolledBack.
func (c *Coordinator) mutate(ctx context.Context, op, entryID string, mutation domain.EntryMutation, revertView bool) error {
	c.mu.Lock()
	entry, known := c.entries[entryID]
	if !known {
		c.mu.Unlock()
		return fmt.Errorf("%s %s: %w", op, entryID, ErrUnknownEntry)
	}
	if _, busy := c.inflight[entryID]; busy {
		c.mu.Unlock()
		return fmt.Errorf("%s %s: %w", op, entryID, ErrConcurrentMutation)
	}
	c.inflight[entryID] = struct{}{}
	reference := c.reference
	c.mu.Unlock()
	defer c.release(entryID)

	c.log.Debug("mutation state", "op", op, "entry_id", entryID, "state", StateValidating)
	merged := entry.Apply(mutation)
	if err := merged.Validate(); err != nil {
		return err
	}
	occ, err := projector.Project(merged, reference, c.weekStart)
	if err != nil {
		return err
	}

	snapshot, had := c.registry.Snapshot(entryID)
	c.registry.Put(entryID, occ)
	c.log.Debug("mutation state", "op", op, "entry_id", entryID, "state", StateOptimisticallyApplied)

	c.log.Debug("mutation state", "op", op, "entry_id", entryID, "state", StatePersisting)
	if err := c.store.Update(ctx, entryID, mutation); err != nil {
		c.registry.Restore(entryID, snapshot, had)
		if revertView {
			c.binding.Revert(entryID)
		}
		c.log.Error("mutation rolled back", "op", op, "entry_id", entryID, "state", StateRolledBack, "error", err)
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%s entry: target no longer exists: %w", op, err)
		}
		return fmt.Errorf("%s entry: %w", op, err)
	}

	c.mu.Lock()
	c.entries[entryID] = merged
	if c.active == entryID {
		c.active = ""
	}
	c.mu.Unlock()

	c.log.Debug("mutation committed", "op", op, "entry_id", entryID, "state", StateCommitted)
	return nil
}

func (c *Coordinator) release(entryID string) {
	c.mu.Lock()
	delete(c.inflight, entryID)
	c.mu.Unlock()
	c.log.Debug("mutation state", "entry_id", entryID, "state", StateIdle)
}

// ExpandWindow materializes occurrences for every cached entry across an
// arbitrary range, for multi-week listings and export.
func (c *Coordinator) ExpandWindow(from, to time.Time) ([]domain.Occurrence, error) {
	if to.Before(from) {
		return nil, &domain.ValidationError{Field: "to", Reason: "must not precede from"}
	}
	var out []domain.Occurrence
	for _, e := range c.Entries() {
		occs, err := projector.ExpandRange(e, from, to, c.weekStart)
		if err != nil {
			c.log.Warn("skipping unexpandable entry", "entry_id", e.ID, "error", err)
			continue
		}
		out = append(out, occs...)
	}
	return out, nil
}
