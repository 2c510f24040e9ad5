package domain

import "time"

// ScheduleEntry is a persisted weekly recurring slot. ID is empty until the
// first successful create. DayOfWeek is an index into the configured week,
// 0 = first day of the week.
type ScheduleEntry struct {
	ID        string `json:"id,omitempty"`
	OwnerID   string `json:"owner_id"`
	DayOfWeek int    `json:"day_of_week"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Title     string `json:"title"`
	Room      string `json:"room,omitempty"`
	Professor string `json:"professor,omitempty"`
	Done      bool   `json:"done,omitempty"`
}

// Occurrence is the concrete instantiation of an entry within the displayed
// week. Derived state, never persisted.
type Occurrence struct {
	EntryID string    `json:"entry_id"`
	Title   string    `json:"title"`
	Room    string    `json:"room,omitempty"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Done    bool      `json:"done,omitempty"`
}

// EntryMutation carries the changed fields of an update; nil means unchanged.
type EntryMutation struct {
	DayOfWeek *int    `json:"day_of_week,omitempty"`
	StartTime *string `json:"start_time,omitempty"`
	EndTime   *string `json:"end_time,omitempty"`
	Title     *string `json:"title,omitempty"`
	Room      *string `json:"room,omitempty"`
	Professor *string `json:"professor,omitempty"`
	Done      *bool   `json:"done,omitempty"`
}

// Apply merges a mutation into a copy of the entry.
func (e ScheduleEntry) Apply(m EntryMutation) ScheduleEntry {
	if m.DayOfWeek != nil {
		e.DayOfWeek = *m.DayOfWeek
	}
	if m.StartTime != nil {
		e.StartTime = *m.StartTime
	}
	if m.EndTime != nil {
		e.EndTime = *m.EndTime
	}
	if m.Title != nil {
		e.Title = *m.Title
	}
	if m.Room != nil {
		e.Room = *m.Room
	}
	if m.Professor != nil {
		e.Professor = *m.Professor
	}
	if m.Done != nil {
		e.Done = *m.Done
	}
	return e
}

// Empty reports whether the mutation carries no changes.
func (m EntryMutation) Empty() bool {
	return m.DayOfWeek == nil && m.StartTime == nil && m.EndTime == nil &&
		m.Title == nil && m.Room == nil && m.Professor == nil && m.Done == nil
}
