// Package ics renders an owner's weekly schedule as an iCalendar document
// with one WEEKLY-recurring VEVENT per entry.
package ics

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/sevenhill/schedsync/internal/domain"
	"github.com/sevenhill/schedsync/internal/projector"
)

var icalByDay = map[time.Weekday]string{
	time.Sunday:    "SU",
	time.Monday:    "MO",
	time.Tuesday:   "TU",
	time.Wednesday: "WE",
	time.Thursday:  "TH",
	time.Friday:    "FR",
	time.Saturday:  "SA",
}

// Export serializes the entries anchored on the week containing reference.
// reference also stamps DTSTAMP so output is reproducible for a fixed input.
func Export(entries []domain.ScheduleEntry, reference time.Time, ws projector.WeekStart) (string, error) {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//schedsync//weekly schedule//EN")

	for _, entry := range entries {
		occ, err := projector.Project(entry, reference, ws)
		if err != nil {
			return "", fmt.Errorf("export entry %s: %w", entry.ID, err)
		}
		ev := cal.AddEvent(entry.ID + "@schedsync")
		ev.SetDtStampTime(reference.UTC())
		ev.SetStartAt(occ.Start)
		ev.SetEndAt(occ.End)
		ev.SetSummary(entry.Title)
		if entry.Room != "" {
			ev.SetLocation(entry.Room)
		}
		if entry.Professor != "" {
			ev.SetDescription(entry.Professor)
		}
		ev.AddRrule("FREQ=WEEKLY;BYDAY=" + icalByDay[ws.Weekday(entry.DayOfWeek)])
	}
	return cal.Serialize(), nil
}
