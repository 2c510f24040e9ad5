package engine

// AttemptState tracks one mutation attempt through its lifecycle. Every
// write path (create, update, move, resize, delete, toggle) moves through
// the same states so rollback behavior cannot drift between them.
type AttemptState string

const (
	StateIdle                  AttemptState = "idle"
	StateValidating            AttemptState = "validating"
	StateOptimisticallyApplied AttemptState = "optimistically_applied"
	StatePersisting            AttemptState = "persisting"
	StateCommitted             AttemptState = "committed"
	StateRolledBack            AttemptState = "rolled_back"
)
