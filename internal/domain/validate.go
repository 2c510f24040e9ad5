package domain

import (
	"fmt"
	"time"
)

// ValidationError reports a malformed or missing entry field. It is raised
// before any optimistic or remote effect takes place.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ParseClock parses a wall-clock time of day in HH:MM form.
func ParseClock(v string) (hour, minute int, err error) {
	if len(v) != 5 {
		return 0, 0, fmt.Errorf("clock %q: want HH:MM", v)
	}
	t, err := time.Parse("15:04", v)
	if err != nil {
		return 0, 0, fmt.Errorf("clock %q: %w", v, err)
	}
	return t.Hour(), t.Minute(), nil
}

// Validate checks the entry invariants: required fields present, day of week
// in range, HH:MM times with start strictly before end.
func (e ScheduleEntry) Validate() error {
	if e.Title == "" {
		return &ValidationError{Field: "title", Reason: "required"}
	}
	if e.DayOfWeek < 0 || e.DayOfWeek > 6 {
		return &ValidationError{Field: "day_of_week", Reason: "must be in [0,6]"}
	}
	if e.StartTime == "" {
		return &ValidationError{Field: "start_time", Reason: "required"}
	}
	if e.EndTime == "" {
		return &ValidationError{Field: "end_time", Reason: "required"}
	}
	if _, _, err := ParseClock(e.StartTime); err != nil {
		return &ValidationError{Field: "start_time", Reason: err.Error()}
	}
	if _, _, err := ParseClock(e.EndTime); err != nil {
		return &ValidationError{Field: "end_time", Reason: err.Error()}
	}
	if e.StartTime >= e.EndTime {
		return &ValidationError{Field: "end_time", Reason: "must be after start_time"}
	}
	return nil
}
