// Package calendar projects committed demo requests onto month and day grids.
// Projections are recomputed from their inputs on every call.
package calendar

import (
	"errors"
	"sort"
	"time"

	"github.com/diagnosis/demo-scheduler/services/scheduler/internal/domain"
	"github.com/diagnosis/demo-scheduler/services/scheduler/internal/slots"
)

// WeekStart is the first column of the month grid.
const WeekStart = time.Sunday

var ErrPastMonth = errors.New("month is before the current month")

type DayCell struct {
	Date     time.Time              `json:"date"`
	InMonth  bool                   `json:"in_month"`
	IsToday  bool                   `json:"is_today"`
	Requests []domain.BookingRequest `json:"requests"`
}

type SlotCell struct {
	At       time.Time              `json:"at"`
	Requests []domain.BookingRequest `json:"requests"`
}

// Month returns the complete weeks intersecting ref's month. Each cell lists
// the requests scheduled on that date, ordered by time with ties kept in
// collection order.
func Month(ref, today time.Time, reqs []domain.BookingRequest, filter domain.StatusFilter) []DayCell {
	y, m, loc := ref.Year(), ref.Month(), ref.Location()
	lead := daysFromWeekStart(startOfDay(y, m, 1, loc))
	inMonth := time.Date(y, m+1, 0, 12, 0, 0, 0, loc).Day()
	n := (lead + inMonth + 6) / 7 * 7

	byDay := map[dayKey][]domain.BookingRequest{}
	for _, r := range committed(reqs, filter) {
		k := keyOfDay(*r.ScheduledAt)
		byDay[k] = append(byDay[k], r)
	}

	cells := make([]DayCell, 0, n)
	for i := 0; i < n; i++ {
		// noon never falls in a DST gap, so the components are exact
		cy, cm, cd := time.Date(y, m, 1-lead+i, 12, 0, 0, 0, loc).Date()
		d := startOfDay(cy, cm, cd, loc)
		cells = append(cells, DayCell{
			Date:     d,
			InMonth:  cm == m,
			IsToday:  slots.SameDay(d, today),
			Requests: byDay[dayKey{cy, cm, cd}],
		})
	}
	return cells
}

// startOfDay is the first instant of the date in loc. Where midnight is
// skipped by a DST change that is the first hour that exists.
func startOfDay(y int, m time.Month, d int, loc *time.Location) time.Time {
	for h := 0; h < 12; h++ {
		t := time.Date(y, m, d, h, 0, 0, 0, loc)
		if t.Day() == d && t.Hour() == h {
			return t
		}
	}
	return time.Date(y, m, d, 12, 0, 0, 0, loc)
}

// Day returns grid's slots for day, each with every request in that slot.
func Day(grid slots.Grid, day time.Time, reqs []domain.BookingRequest, filter domain.StatusFilter) []SlotCell {
	bySlot := map[slots.Key][]domain.BookingRequest{}
	for _, r := range committed(reqs, filter) {
		k := slots.KeyOf(*r.ScheduledAt)
		bySlot[k] = append(bySlot[k], r)
	}

	times := grid.ForDay(day)
	cells := make([]SlotCell, 0, len(times))
	for _, at := range times {
		cells = append(cells, SlotCell{At: at, Requests: bySlot[slots.KeyOf(at)]})
	}
	return cells
}

// CheckMonth rejects navigation to a month before today's.
func CheckMonth(month, today time.Time) error {
	if month.Year() < today.Year() || (month.Year() == today.Year() && month.Month() < today.Month()) {
		return ErrPastMonth
	}
	return nil
}

// committed keeps requests with a scheduled time that pass filter, sorted by
// scheduled time. The sort is stable so equal slots keep collection order.
func committed(reqs []domain.BookingRequest, filter domain.StatusFilter) []domain.BookingRequest {
	out := make([]domain.BookingRequest, 0, len(reqs))
	for _, r := range reqs {
		if r.ScheduledAt == nil || !filter.Match(r.Status) {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ScheduledAt.Before(*out[j].ScheduledAt)
	})
	return out
}

type dayKey struct {
	y int
	m time.Month
	d int
}

func keyOfDay(t time.Time) dayKey {
	y, m, d := t.Date()
	return dayKey{y, m, d}
}

func daysFromWeekStart(t time.Time) int {
	return (int(t.Weekday()) - int(WeekStart) + 7) % 7
}
