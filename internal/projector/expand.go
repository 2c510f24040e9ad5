package projector

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/sevenhill/schedsync/internal/domain"
)

var rruleWeekdays = map[time.Weekday]rrule.Weekday{
	time.Sunday:    rrule.SU,
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
}

// ExpandRange materializes every occurrence of the entry inside [from, to],
// one per week. Unlike Project it is not bounded to a single display week;
// it backs multi-week listings and iCalendar export.
func ExpandRange(entry domain.ScheduleEntry, from, to time.Time, ws WeekStart) ([]domain.Occurrence, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("expand range: to precedes from")
	}
	base, err := Project(entry, from, ws)
	if err != nil {
		return nil, err
	}

	r, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Dtstart:   base.Start,
		Byweekday: []rrule.Weekday{rruleWeekdays[ws.Weekday(entry.DayOfWeek)]},
	})
	if err != nil {
		return nil, fmt.Errorf("expand range: %w", err)
	}

	duration := base.End.Sub(base.Start)
	starts := r.Between(from, to, true)
	out := make([]domain.Occurrence, 0, len(starts))
	for _, start := range starts {
		occ := base
		occ.Start = start
		occ.End = start.Add(duration)
		out = append(out, occ)
	}
	return out, nil
}
