// Package projector maps abstract weekly schedule entries onto concrete
// calendar occurrences. Projection is pure: no clock reads, no mutation of
// the input entry.
package projector

import (
	"errors"
	"fmt"
	"time"

	"github.com/sevenhill/schedsync/internal/domain"
)

// ErrInvalidEntry marks an entry that cannot be projected: day of week out
// of range or times that do not parse as HH:MM.
var ErrInvalidEntry = errors.New("invalid schedule entry")

// WeekStart selects which weekday carries index 0.
type WeekStart int

const (
	// WeekStartSunday anchors weeks on Sunday, matching the 0=Sunday slot
	// numbering used by the persisted entries.
	WeekStartSunday WeekStart = iota
	WeekStartMonday
)

// ParseWeekStart maps a config value onto a WeekStart.
func ParseWeekStart(v string) (WeekStart, error) {
	switch v {
	case "", "sunday":
		return WeekStartSunday, nil
	case "monday":
		return WeekStartMonday, nil
	default:
		return WeekStartSunday, fmt.Errorf("invalid week start %q", v)
	}
}

func (ws WeekStart) String() string {
	if ws == WeekStartMonday {
		return "monday"
	}
	return "sunday"
}

func (ws WeekStart) firstWeekday() time.Weekday {
	if ws == WeekStartMonday {
		return time.Monday
	}
	return time.Sunday
}

// dayIndex returns the position of t's weekday within the anchored week.
func dayIndex(t time.Time, ws WeekStart) int {
	return (int(t.Weekday()) - int(ws.firstWeekday()) + 7) % 7
}

// Weekday returns the absolute weekday a slot index resolves to.
func (ws WeekStart) Weekday(dayOfWeek int) time.Weekday {
	return time.Weekday((int(ws.firstWeekday()) + dayOfWeek) % 7)
}

// Project computes the entry's occurrence within the week containing
// reference. The resolved date may precede the reference date: the target is
// the slot inside the same anchored week, not the next future occurrence.
func Project(entry domain.ScheduleEntry, reference time.Time, ws WeekStart) (domain.Occurrence, error) {
	if entry.DayOfWeek < 0 || entry.DayOfWeek > 6 {
		return domain.Occurrence{}, fmt.Errorf("%w: day_of_week %d out of range", ErrInvalidEntry, entry.DayOfWeek)
	}
	sh, sm, err := domain.ParseClock(entry.StartTime)
	if err != nil {
		return domain.Occurrence{}, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}
	eh, em, err := domain.ParseClock(entry.EndTime)
	if err != nil {
		return domain.Occurrence{}, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}

	delta := entry.DayOfWeek - dayIndex(reference, ws)
	day := reference.AddDate(0, 0, delta)
	start := time.Date(day.Year(), day.Month(), day.Day(), sh, sm, 0, 0, reference.Location())
	end := time.Date(day.Year(), day.Month(), day.Day(), eh, em, 0, 0, reference.Location())

	return domain.Occurrence{
		EntryID: entry.ID,
		Title:   entry.Title,
		Room:    entry.Room,
		Start:   start,
		End:     end,
		Done:    entry.Done,
	}, nil
}
