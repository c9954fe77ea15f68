// Package week computes Monday-start week boundaries for consistency scoring.
package week

import "time"

// Start returns the most recent Monday at 00:00:00 in t's location.
// Weeks run Monday through Sunday: a Sunday timestamp belongs to the week
// that started six days earlier, not to a new one.
func Start(t time.Time) time.Time {
	daysBack := int(t.Weekday()) - int(time.Monday)
	if daysBack < 0 {
		daysBack += 7 // Sunday
	}

	year, month, day := t.AddDate(0, 0, -daysBack).Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

// SameWeek reports whether two timestamps fall in the same Monday-start week.
func SameWeek(a, b time.Time) bool {
	return Start(a).Equal(Start(b))
}
