package domain

import (
	"fmt"
	"time"

	"github.com/diagnosis/demo-scheduler/internal/utils"
	"github.com/diagnosis/demo-scheduler/services/scheduler/internal/slots"
)

type RequestStatus string

const (
	StatusPending   RequestStatus = "pending"
	StatusScheduled RequestStatus = "scheduled"
	StatusAttended  RequestStatus = "attended"
	StatusCanceled  RequestStatus = "canceled"
)

var AllStatuses = []RequestStatus{StatusPending, StatusScheduled, StatusAttended, StatusCanceled}

func ParseRequestStatus(s string) (RequestStatus, bool) {
	switch RequestStatus(s) {
	case StatusPending, StatusScheduled, StatusAttended, StatusCanceled:
		return RequestStatus(s), true
	default:
		return "", false
	}
}

// Committed statuses carry a scheduled_at and render on the calendar.
func (s RequestStatus) Committed() bool {
	return s == StatusScheduled || s == StatusAttended
}

// StatusFilter is a status or "all".
type StatusFilter string

const FilterAll StatusFilter = "all"

func ParseStatusFilter(s string) (StatusFilter, bool) {
	if s == "" || s == string(FilterAll) {
		return FilterAll, true
	}
	if st, ok := ParseRequestStatus(s); ok {
		return StatusFilter(st), true
	}
	return "", false
}

func (f StatusFilter) Match(s RequestStatus) bool {
	return f == "" || f == FilterAll || RequestStatus(f) == s
}

// BookingRequest is a prospective customer's demo request.
type BookingRequest struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	TeamSize string `json:"team_size"`

	// Inclusive, date-only preference window.
	PreferredStart time.Time `json:"preferred_start"`
	PreferredEnd   time.Time `json:"preferred_end"`

	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	MeetingLink string     `json:"meeting_link,omitempty"`
	AttendedAt  *time.Time `json:"attended_at,omitempty"`

	Status    RequestStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// IntakeInput is what the public form submits.
type IntakeInput struct {
	FullName       string
	Email          string
	Phone          string
	TeamSize       string
	PreferredStart time.Time
	PreferredEnd   time.Time
}

// NewRequest validates intake input and builds a pending request. ID and
// timestamps are assigned by the store.
func NewRequest(in IntakeInput) (BookingRequest, error) {
	r := BookingRequest{
		FullName:       utils.NormalizeString(in.FullName),
		Email:          utils.NormalizeEmail(in.Email),
		Phone:          utils.NormalizePhone(in.Phone),
		TeamSize:       utils.NormalizeString(in.TeamSize),
		PreferredStart: slots.DateOf(in.PreferredStart),
		PreferredEnd:   slots.DateOf(in.PreferredEnd),
		Status:         StatusPending,
	}

	switch {
	case r.FullName == "":
		return BookingRequest{}, invalid("full_name", "is required")
	case r.Email == "":
		return BookingRequest{}, invalid("email", "is required")
	case !utils.IsValidEmail(r.Email):
		return BookingRequest{}, invalid("email", "is not a valid address")
	case r.Phone == "":
		return BookingRequest{}, invalid("phone", "is required")
	case !utils.IsValidPhone(r.Phone):
		return BookingRequest{}, invalid("phone", "is not a valid number")
	case in.PreferredStart.IsZero() || in.PreferredEnd.IsZero():
		return BookingRequest{}, invalid("preferred_window", "start and end are required")
	case slots.CompareDates(r.PreferredEnd, r.PreferredStart) < 0:
		return BookingRequest{}, invalid("preferred_window", "end is before start")
	}
	return r, nil
}

// DetailsPatch edits contact fields and the meeting link. Nil fields are
// left alone; an empty MeetingLink clears it.
type DetailsPatch struct {
	FullName    *string `json:"full_name,omitempty"`
	Email       *string `json:"email,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	TeamSize    *string `json:"team_size,omitempty"`
	MeetingLink *string `json:"meeting_link,omitempty"`
}

// ApplyDetails returns the edited copy and the names of fields that changed.
// Status never changes.
func (r BookingRequest) ApplyDetails(p DetailsPatch) (BookingRequest, []string, error) {
	next := r
	var changes []string

	if p.FullName != nil {
		v := utils.NormalizeString(*p.FullName)
		if v == "" {
			return r, nil, invalid("full_name", "is required")
		}
		if v != r.FullName {
			next.FullName = v
			changes = append(changes, "full_name")
		}
	}
	if p.Email != nil {
		v := utils.NormalizeEmail(*p.Email)
		if !utils.IsValidEmail(v) {
			return r, nil, invalid("email", "is not a valid address")
		}
		if v != r.Email {
			next.Email = v
			changes = append(changes, "email")
		}
	}
	if p.Phone != nil {
		v := utils.NormalizePhone(*p.Phone)
		if !utils.IsValidPhone(v) {
			return r, nil, invalid("phone", "is not a valid number")
		}
		if v != r.Phone {
			next.Phone = v
			changes = append(changes, "phone")
		}
	}
	if p.TeamSize != nil {
		v := utils.NormalizeString(*p.TeamSize)
		if v != r.TeamSize {
			next.TeamSize = v
			changes = append(changes, "team_size")
		}
	}
	if p.MeetingLink != nil {
		v := utils.NormalizeString(*p.MeetingLink)
		if v != "" && !utils.IsValidMeetingLink(v) {
			return r, nil, invalid("meeting_link", "must be an http(s) url")
		}
		if v != r.MeetingLink {
			next.MeetingLink = v
			changes = append(changes, "meeting_link")
		}
	}
	return next, changes, nil
}

// WindowWithin reports whether the preference window lies inside [from, to].
// A nil bound is open.
func (r BookingRequest) WindowWithin(from, to *time.Time) bool {
	if from != nil && slots.CompareDates(r.PreferredStart, *from) < 0 {
		return false
	}
	if to != nil && slots.CompareDates(r.PreferredEnd, *to) > 0 {
		return false
	}
	return true
}

func (r BookingRequest) String() string {
	return fmt.Sprintf("%s (%s, %s)", r.ID, r.FullName, r.Status)
}

// Clone copies the request including its optional timestamps.
func (r BookingRequest) Clone() BookingRequest {
	c := r
	if r.ScheduledAt != nil {
		t := *r.ScheduledAt
		c.ScheduledAt = &t
	}
	if r.AttendedAt != nil {
		t := *r.AttendedAt
		c.AttendedAt = &t
	}
	return c
}
