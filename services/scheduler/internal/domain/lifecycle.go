package domain

import (
	"fmt"
	"time"

	"github.com/diagnosis/demo-scheduler/services/scheduler/internal/slots"
)

type Action string

const (
	ActionSchedule     Action = "schedule"
	ActionMarkAttended Action = "mark_attended"
	ActionReschedule   Action = "reschedule"
	ActionCancel       Action = "cancel"
	ActionDelete       Action = "delete"
)

var transitionMap = map[Action][]RequestStatus{
	ActionSchedule:     {StatusPending},
	ActionMarkAttended: {StatusScheduled},
	ActionReschedule:   AllStatuses,
	ActionCancel:       AllStatuses,
	ActionDelete:       AllStatuses,
}

func ValidTransition(action Action, from RequestStatus) bool {
	allowed, ok := transitionMap[action]
	if !ok {
		return false
	}
	for _, status := range allowed {
		if status == from {
			return true
		}
	}
	return false
}

func checkTransition(action Action, from RequestStatus) error {
	if !ValidTransition(action, from) {
		return fmt.Errorf("%w: cannot %s a %s request", ErrInvalidTransition, action, from)
	}
	return nil
}

// Schedule commits the request to slot. The slot must be on the grid and
// not before now. Other requests in the same slot are not checked.
func (r BookingRequest) Schedule(slot time.Time, grid slots.Grid, now time.Time) (BookingRequest, error) {
	if slot.IsZero() {
		return r, Invalid("slot", ErrSlotRequired)
	}
	if err := checkTransition(ActionSchedule, r.Status); err != nil {
		return r, err
	}
	if !grid.Contains(slot) {
		return r, Invalid("slot", ErrSlotOutsideGrid)
	}
	if slot.Before(now) {
		return r, Invalid("slot", ErrSlotInPast)
	}

	next := r.Clone()
	at := slot
	next.ScheduledAt = &at
	next.AttendedAt = nil
	next.Status = StatusScheduled
	return next, nil
}

func (r BookingRequest) MarkAttended(now time.Time) (BookingRequest, error) {
	if err := checkTransition(ActionMarkAttended, r.Status); err != nil {
		return r, err
	}
	next := r.Clone()
	at := now
	next.AttendedAt = &at
	next.Status = StatusAttended
	return next, nil
}

// Reschedule is available from every status and returns the request to
// pending with both timestamps cleared.
func (r BookingRequest) Reschedule() (BookingRequest, error) {
	if err := checkTransition(ActionReschedule, r.Status); err != nil {
		return r, err
	}
	next := r.Clone()
	next.ScheduledAt = nil
	next.AttendedAt = nil
	next.Status = StatusPending
	return next, nil
}

// Cancel leaves timestamps untouched.
func (r BookingRequest) Cancel() (BookingRequest, error) {
	if err := checkTransition(ActionCancel, r.Status); err != nil {
		return r, err
	}
	next := r.Clone()
	next.Status = StatusCanceled
	return next, nil
}

// ActionForStatus maps a bulk status target onto its lifecycle action.
// Scheduling needs a slot and has no bulk form.
func ActionForStatus(target RequestStatus) (Action, bool) {
	switch target {
	case StatusPending:
		return ActionReschedule, true
	case StatusAttended:
		return ActionMarkAttended, true
	case StatusCanceled:
		return ActionCancel, true
	default:
		return "", false
	}
}

// Transition applies a slot-less action.
func (r BookingRequest) Transition(action Action, now time.Time) (BookingRequest, error) {
	switch action {
	case ActionMarkAttended:
		return r.MarkAttended(now)
	case ActionReschedule:
		return r.Reschedule()
	case ActionCancel:
		return r.Cancel()
	default:
		return r, fmt.Errorf("%w: %s is not a plain transition", ErrInvalidTransition, action)
	}
}
