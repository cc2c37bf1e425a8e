package slots

import (
	"testing"
	"time"
)

func TestForDay_DefaultGrid(t *testing.T) {
	days := []time.Time{
		time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 29, 17, 45, 12, 0, time.UTC),
		time.Date(2025, 12, 31, 23, 59, 0, 0, time.Local),
	}

	for _, day := range days {
		got := Default.ForDay(day)
		if len(got) != 25 {
			t.Fatalf("%s: expected 25 slots, got %d", day, len(got))
		}
		if got[0].Hour() != 8 || got[0].Minute() != 0 {
			t.Fatalf("%s: first slot %s, want 08:00", day, got[0].Format("15:04"))
		}
		last := got[len(got)-1]
		if last.Hour() != 20 || last.Minute() != 0 {
			t.Fatalf("%s: last slot %s, want 20:00", day, last.Format("15:04"))
		}
		for i := 1; i < len(got); i++ {
			if got[i].Sub(got[i-1]) != 30*time.Minute {
				t.Fatalf("%s: slot %d not 30 minutes after previous", day, i)
			}
			if !SameDay(got[i], day) {
				t.Fatalf("%s: slot %d left the day", day, i)
			}
		}
	}
}

func TestForDay_CustomGrid(t *testing.T) {
	g := Grid{StartHour: 9, EndHour: 12}
	got := g.ForDay(time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC))
	if len(got) != 7 || g.Count() != 7 {
		t.Fatalf("expected 7 slots, got %d", len(got))
	}
}

func TestSame(t *testing.T) {
	at := func(h, m int) time.Time { return time.Date(2024, 3, 3, h, m, 0, 0, time.UTC) }
	scheduled := at(10, 15)

	cases := []struct {
		name string
		slot time.Time
		want bool
	}{
		{"same bucket", at(10, 0), true},
		{"reflexive", scheduled, true},
		{"previous half hour", at(9, 30), false},
		{"next half hour", at(10, 30), false},
		{"other day", time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC), false},
		{"other hour", at(11, 0), false},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			if got := Same(scheduled, tt.slot); got != tt.want {
				t.Fatalf("Same(10:15, %s)=%v, want %v", tt.slot.Format("Jan 2 15:04"), got, tt.want)
			}
		})
	}
}

func TestContains(t *testing.T) {
	at := func(h, m, s int) time.Time { return time.Date(2024, 3, 3, h, m, s, 0, time.UTC) }

	cases := []struct {
		t    time.Time
		want bool
	}{
		{at(8, 0, 0), true},
		{at(14, 30, 0), true},
		{at(20, 0, 0), true},
		{at(20, 30, 0), false},
		{at(7, 30, 0), false},
		{at(10, 15, 0), false},
		{at(10, 0, 5), false},
	}

	for _, tt := range cases {
		if got := Default.Contains(tt.t); got != tt.want {
			t.Fatalf("Contains(%s)=%v, want %v", tt.t.Format("15:04:05"), got, tt.want)
		}
	}
}
