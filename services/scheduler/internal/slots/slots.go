// Package slots generates the bookable half-hour grid of a day and decides
// whether two instants fall into the same slot.
package slots

import "time"

// Length is the fixed granularity of the grid.
const Length = 30 * time.Minute

// Grid is the daily booking window. Both ends are bookable slots.
type Grid struct {
	StartHour int
	EndHour   int
}

// Default is the 08:00-20:00 window, 25 slots a day.
var Default = Grid{StartHour: 8, EndHour: 20}

// ForDay returns every slot of day in ascending order, in day's location.
func (g Grid) ForDay(day time.Time) []time.Time {
	y, m, d := day.Date()
	loc := day.Location()

	out := make([]time.Time, 0, g.Count())
	for i := 0; i < g.Count(); i++ {
		// wall-clock minutes, so a DST switch never shifts the grid
		out = append(out, time.Date(y, m, d, g.StartHour, i*int(Length/time.Minute), 0, 0, loc))
	}
	return out
}

// Count is the number of slots per day.
func (g Grid) Count() int {
	return (g.EndHour-g.StartHour)*2 + 1
}

// Contains reports whether t sits exactly on a slot boundary inside the window.
func (g Grid) Contains(t time.Time) bool {
	if t.Second() != 0 || t.Nanosecond() != 0 {
		return false
	}
	if t.Minute() != 0 && t.Minute() != 30 {
		return false
	}
	h := t.Hour()
	if h < g.StartHour || h > g.EndHour {
		return false
	}
	return h < g.EndHour || t.Minute() == 0
}

// Key identifies a slot bucket: calendar day, hour and half.
type Key struct {
	Year  int
	Month time.Month
	Day   int
	Hour  int
	Half  int // 0 for minutes 0-29, 1 for 30-59
}

func KeyOf(t time.Time) Key {
	y, m, d := t.Date()
	half := 0
	if t.Minute() >= 30 {
		half = 1
	}
	return Key{Year: y, Month: m, Day: d, Hour: t.Hour(), Half: half}
}

// Same reports whether a and b share a day, an hour and a half-hour bucket.
func Same(a, b time.Time) bool {
	return KeyOf(a) == KeyOf(b)
}

// SameDay compares calendar dates only.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// DateOf truncates t to midnight in its own location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// CompareDates orders a and b by calendar date, ignoring clock and location.
func CompareDates(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	switch {
	case ay != by:
		return cmpInt(ay, by)
	case am != bm:
		return cmpInt(int(am), int(bm))
	default:
		return cmpInt(ad, bd)
	}
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
