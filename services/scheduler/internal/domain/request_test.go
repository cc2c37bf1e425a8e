package domain

import (
	"errors"
	"testing"
	"time"
)

func TestNewRequest(t *testing.T) {
	valid := IntakeInput{
		FullName:       "  Ana  Ruiz ",
		Email:          "Ana@Firm.Law",
		Phone:          "+1 (555) 010-2030",
		TeamSize:       "11-50",
		PreferredStart: date(2024, time.March, 1),
		PreferredEnd:   date(2024, time.March, 5),
	}

	r, err := NewRequest(valid)
	if err != nil {
		t.Fatalf("valid input rejected: %v", err)
	}
	if r.FullName != "Ana Ruiz" || r.Email != "ana@firm.law" || r.Phone != "+15550102030" {
		t.Fatalf("not normalized: %+v", r)
	}
	if r.Status != StatusPending || r.ScheduledAt != nil {
		t.Fatalf("new request must be pending and unscheduled: %+v", r)
	}

	tests := []struct {
		name  string
		edit  func(*IntakeInput)
		field string
	}{
		{"no name", func(in *IntakeInput) { in.FullName = " " }, "full_name"},
		{"bad email", func(in *IntakeInput) { in.Email = "ana" }, "email"},
		{"no phone", func(in *IntakeInput) { in.Phone = "" }, "phone"},
		{"no window", func(in *IntakeInput) { in.PreferredEnd = time.Time{} }, "preferred_window"},
		{"reversed window", func(in *IntakeInput) { in.PreferredEnd = date(2024, time.February, 28) }, "preferred_window"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.edit(&in)
			_, err := NewRequest(in)
			var verr *ValidationError
			if !errors.As(err, &verr) || verr.Field != tt.field {
				t.Fatalf("err = %v, want validation on %s", err, tt.field)
			}
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatal("validation error does not wrap ErrInvalidInput")
			}
		})
	}
}

func TestNewRequest_SingleDayWindow(t *testing.T) {
	in := IntakeInput{
		FullName:       "Ana",
		Email:          "ana@firm.law",
		Phone:          "5550102030",
		PreferredStart: time.Date(2024, time.March, 1, 18, 0, 0, 0, time.Local),
		PreferredEnd:   time.Date(2024, time.March, 1, 9, 0, 0, 0, time.Local),
	}
	r, err := NewRequest(in)
	if err != nil {
		t.Fatalf("same-day window rejected: %v", err)
	}
	if r.PreferredStart.Hour() != 0 || r.PreferredEnd.Hour() != 0 {
		t.Fatal("window not truncated to dates")
	}
}

func TestApplyDetails(t *testing.T) {
	at := time.Date(2024, time.March, 3, 14, 0, 0, 0, time.Local)
	r := pendingRequest()
	r.Status = StatusScheduled
	r.ScheduledAt = &at

	link := "https://meet.example.com/abc"
	name := "Ana Ruiz"
	next, changes, err := r.ApplyDetails(DetailsPatch{MeetingLink: &link, FullName: &name})
	if err != nil {
		t.Fatal(err)
	}
	if len(changes) != 1 || changes[0] != "meeting_link" {
		t.Fatalf("changes = %v", changes)
	}
	if next.Status != StatusScheduled || next.MeetingLink != link {
		t.Fatalf("unexpected: %+v", next)
	}

	bad := "meet.example.com"
	if _, _, err := r.ApplyDetails(DetailsPatch{MeetingLink: &bad}); !IsValidation(err) {
		t.Fatalf("bad link accepted: %v", err)
	}
}

func TestWindowWithin(t *testing.T) {
	from := date(2024, time.March, 1)
	to := date(2024, time.March, 31)

	in := pendingRequest()
	in.PreferredStart = date(2024, time.March, 5)
	in.PreferredEnd = date(2024, time.March, 10)
	if !in.WindowWithin(&from, &to) {
		t.Fatal("contained window excluded")
	}

	out := in
	out.PreferredEnd = date(2024, time.April, 2)
	if out.WindowWithin(&from, &to) {
		t.Fatal("overhanging window included")
	}
	if !out.WindowWithin(&from, nil) {
		t.Fatal("open upper bound excluded")
	}
}

func TestStatusFilter(t *testing.T) {
	all, ok := ParseStatusFilter("")
	if !ok || !all.Match(StatusCanceled) {
		t.Fatal("empty filter should match everything")
	}
	f, ok := ParseStatusFilter("scheduled")
	if !ok || !f.Match(StatusScheduled) || f.Match(StatusAttended) {
		t.Fatal("status filter mismatch")
	}
	if _, ok := ParseStatusFilter("archived"); ok {
		t.Fatal("unknown status accepted")
	}
}
