// Package view defines the contract between the scheduling engine and a
// calendar rendering surface. The engine never talks to a concrete widget;
// it emits render effects through a Binding and asks it to revert a slot
// when an optimistic move or resize is rolled back.
package view

import "github.com/sevenhill/schedsync/internal/domain"

type EffectKind string

const (
	EffectAdd     EffectKind = "add"
	EffectReplace EffectKind = "replace"
	EffectRemove  EffectKind = "remove"
)

// Effect is a single incremental change to the displayed occurrence set.
type Effect struct {
	Kind       EffectKind
	EntryID    string
	Occurrence domain.Occurrence
}

type Binding interface {
	// Render replaces the displayed set for the current window.
	Render(occurrences []domain.Occurrence)
	// Apply folds one incremental change into the display.
	Apply(effect Effect)
	// Revert restores the prior visual position and size of a slot after a
	// rolled-back drag or resize.
	Revert(entryID string)
}

type Noop struct{}

func NewNoop() Binding { return Noop{} }

func (Noop) Render([]domain.Occurrence) {}
func (Noop) Apply(Effect)               {}
func (Noop) Revert(string)              {}
