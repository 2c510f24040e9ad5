package view

import (
	"sync"

	"github.com/sevenhill/schedsync/internal/domain"
)

// Recorder is a Binding that captures everything the engine emits. Used by
// tests and by the diagnostic endpoints to inspect render traffic.
type Recorder struct {
	mu      sync.Mutex
	renders [][]domain.Occurrence
	effects []Effect
	reverts []string
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Render(occurrences []domain.Occurrence) {
	r.mu.Lock()
	defer r.mu.Unlock()
	snapshot := make([]domain.Occurrence, len(occurrences))
	copy(snapshot, occurrences)
	r.renders = append(r.renders, snapshot)
}

func (r *Recorder) Apply(effect Effect) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.effects = append(r.effects, effect)
}

func (r *Recorder) Revert(entryID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reverts = append(r.reverts, entryID)
}

func (r *Recorder) Renders() [][]domain.Occurrence {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]domain.Occurrence(nil), r.renders...)
}

func (r *Recorder) Effects() []Effect {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Effect(nil), r.effects...)
}

func (r *Recorder) Reverts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.reverts...)
}
