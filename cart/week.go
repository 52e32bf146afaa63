package cart

import (
	"fmt"
	"time"
)

// =============================================================================
// WEEK ID - ISO year-week partition key
// =============================================================================

// WeekID is the "<ISO-year>-<two-digit ISO-week>" key that buckets every line
// item and every planned meal. ISO-8601 semantics: weeks start on Monday and
// week 1 is the week containing the year's first Thursday. The zero-padded
// format makes lexicographic order chronological.
type WeekID string

// WeekOf maps a calendar date to its ISO week partition key.
func WeekOf(t time.Time) WeekID {
	year, week := t.ISOWeek()
	return WeekID(fmt.Sprintf("%d-%02d", year, week))
}

// CurrentWeek returns the partition key for today.
func CurrentWeek() WeekID { return WeekOf(time.Now()) }

// Start returns the Monday of the identified ISO week, in UTC. This is the
// approximate inverse of WeekOf used by reporting: exact to the week, which
// is all the reports need.
func (w WeekID) Start() (time.Time, error) {
	// The trailing %s catches junk after the week number, so "2025-06xyz"
	// fails instead of parsing as week 6.
	var year, week int
	var trailing string
	if n, _ := fmt.Sscanf(string(w), "%d-%d%s", &year, &week, &trailing); n != 2 {
		return time.Time{}, fmt.Errorf("malformed week id %q", w)
	}
	if week < 1 || week > 53 {
		return time.Time{}, fmt.Errorf("malformed week id %q: week out of range", w)
	}

	// Jan 4 is always inside ISO week 1. Walk back to its Monday, then
	// forward (week-1) weeks.
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	weekday := int(jan4.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday
	}
	monday := jan4.AddDate(0, 0, 1-weekday)
	return monday.AddDate(0, 0, (week-1)*7), nil
}

// Valid reports whether w parses as a week id.
func (w WeekID) Valid() bool {
	_, err := w.Start()
	return err == nil
}
