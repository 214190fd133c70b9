package branch

import (
	"strings"
	"time"
)

// maxSessionDates caps how many practice entries resolve to dates; attendance
// sheets cover at most the three most recent sessions of the week.
const maxSessionDates = 3

// dayAbbrevs in Monday-first order; the index doubles as the weekday number
// (Monday = 0 .. Sunday = 6). Matching is by containment, so full day names
// match through their abbreviation ("monday" contains "mon").
var dayAbbrevs = []string{"mon", "tue", "wed", "thu", "fri", "sat", "sun"}

// SessionDates resolves a branch's practice-days config into the concrete
// dates of the current training week, formatted as YYYY-MM-DD.
//
// The training week is anchored on the most recent Friday on or before today:
// each entry's weekday maps to the first occurrence of that weekday on or
// after the anchor, so every resolved date falls within [anchor, anchor+6d].
//
// Entries are comma-separated; only the part before the first ":" is searched
// for a day-name abbreviation (Mon..Sun), case-insensitively and by
// containment ("Mon" and "Every Monday" both match). Entries without a
// recognizable day name are skipped. Result order follows input order; at
// most three dates are returned.
func SessionDates(practiceDays string, today time.Time) []string {
	anchor := lastFriday(today)

	var dates []string
	for _, entry := range strings.Split(practiceDays, ",") {
		if len(dates) == maxSessionDates {
			break
		}
		dayToken := entry
		if i := strings.Index(entry, ":"); i >= 0 {
			dayToken = entry[:i]
		}
		dayToken = strings.ToLower(strings.TrimSpace(dayToken))
		if dayToken == "" {
			continue
		}
		for idx, abbrev := range dayAbbrevs {
			if strings.Contains(dayToken, abbrev) {
				dates = append(dates, anchor.AddDate(0, 0, daysFromFriday(idx)).Format("2006-01-02"))
				break
			}
		}
	}
	return dates
}

// lastFriday returns the most recent Friday on or before the given date,
// truncated to a date.
func lastFriday(today time.Time) time.Time {
	t := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())
	return t.AddDate(0, 0, -daysFromFriday(mondayFirstWeekday(t)))
}

// mondayFirstWeekday converts time.Weekday (Sunday = 0) to Monday = 0 .. Sunday = 6.
func mondayFirstWeekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// daysFromFriday is the offset of a Monday-first weekday index from Friday (4),
// wrapped into [0, 6].
func daysFromFriday(weekday int) int {
	return ((weekday-4)%7 + 7) % 7
}
