package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/diagnosis/demo-scheduler/pkg/config"
	"github.com/diagnosis/demo-scheduler/pkg/events"
	"github.com/diagnosis/demo-scheduler/pkg/logger"
	"github.com/diagnosis/demo-scheduler/services/scheduler/internal/calendar"
	"github.com/diagnosis/demo-scheduler/services/scheduler/internal/domain"
	"github.com/diagnosis/demo-scheduler/services/scheduler/internal/invite"
	"github.com/diagnosis/demo-scheduler/services/scheduler/internal/leads"
	"github.com/diagnosis/demo-scheduler/services/scheduler/internal/mailer"
	"github.com/diagnosis/demo-scheduler/services/scheduler/internal/notice"
	"github.com/diagnosis/demo-scheduler/services/scheduler/internal/repository"
	"github.com/diagnosis/demo-scheduler/services/scheduler/internal/slots"
	"github.com/google/uuid"
)

type RequestService interface {
	Create(ctx context.Context, in domain.IntakeInput) (*domain.BookingRequest, error)
	Get(ctx context.Context, id string) (*domain.BookingRequest, error)
	List(q ListQuery) leads.Page
	UpdateDetails(ctx context.Context, id string, patch domain.DetailsPatch) (*domain.BookingRequest, error)
	PreviewSchedule(ctx context.Context, id string, slot time.Time) (*SchedulePreview, error)
	Schedule(ctx context.Context, id string, in ScheduleInput) (*ScheduleResult, error)
	MarkAttended(ctx context.Context, id string) (*domain.BookingRequest, error)
	Reschedule(ctx context.Context, id string) (*domain.BookingRequest, error)
	Cancel(ctx context.Context, id string) (*domain.BookingRequest, error)
	Delete(ctx context.Context, id string, confirm bool) error
	SendInvite(ctx context.Context, id string) (*domain.BookingRequest, error)
	MonthView(month time.Time, filter domain.StatusFilter) ([]calendar.DayCell, error)
	DayView(day time.Time, filter domain.StatusFilter) []calendar.SlotCell
	Slots(day time.Time) []time.Time
	Refresh(ctx context.Context) error
}

type ListQuery struct {
	Status   domain.StatusFilter
	From     *time.Time
	To       *time.Time
	Sort     leads.SortField
	Dir      leads.Direction
	Page     int
	PageSize int
}

type ScheduleInput struct {
	Slot       time.Time
	Confirm    bool
	SendInvite bool
}

// SchedulePreview is what the operator confirms before a booking commits.
// SharedWith lists requests already holding the slot.
type SchedulePreview struct {
	Request    domain.BookingRequest   `json:"request"`
	Slot       time.Time               `json:"slot"`
	SharedWith []domain.BookingRequest `json:"shared_with"`
}

type ScheduleResult struct {
	Preview    *SchedulePreview       `json:"preview,omitempty"`
	Request    *domain.BookingRequest `json:"request,omitempty"`
	InviteSent bool                   `json:"invite_sent"`
	InviteErr  error                  `json:"-"`
}

type Scheduler struct {
	repo     repository.RequestRepository
	board    *Board
	events   events.Publisher
	mailer   mailer.Service
	notices  notice.Emitter
	grid     slots.Grid
	pageSize int
	product  string
	origin   string
	now      func() time.Time
}

func NewScheduler(
	repo repository.RequestRepository,
	board *Board,
	eventBus events.Publisher,
	mail mailer.Service,
	notices notice.Emitter,
	cfg config.SchedulerConfig,
) *Scheduler {
	return &Scheduler{
		repo:     repo,
		board:    board,
		events:   eventBus,
		mailer:   mail,
		notices:  notices,
		grid:     slots.Grid{StartHour: cfg.DayStartHour, EndHour: cfg.DayEndHour},
		pageSize: cfg.PageSize,
		product:  cfg.ProductName,
		origin:   uuid.NewString(),
		now:      time.Now,
	}
}

var _ RequestService = (*Scheduler)(nil)

func (s *Scheduler) Create(ctx context.Context, in domain.IntakeInput) (*domain.BookingRequest, error) {
	r, err := domain.NewRequest(in)
	if err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, r)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to create demo request", "error", err, "email", r.Email)
		return nil, &domain.PersistenceError{Op: "create", Err: err}
	}

	s.board.Put(*created)
	s.publish(ctx, events.RequestCreated, *created, nil)
	s.notices.Emit(notice.Info, fmt.Sprintf("New demo request from %s", created.FullName), created.ID)
	return created, nil
}

func (s *Scheduler) Get(ctx context.Context, id string) (*domain.BookingRequest, error) {
	r, err := s.current(ctx, id)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// List pages through the board. A zero PageSize uses the configured default.
func (s *Scheduler) List(q ListQuery) leads.Page {
	size := q.PageSize
	if size <= 0 {
		size = s.pageSize
	}
	st := leads.NewListState(size)
	st.SetSort(q.Sort, q.Dir)
	st.SetStatus(q.Status)
	st.SetRange(q.From, q.To)
	st.SetPage(q.Page)
	return st.Apply(s.board.Snapshot())
}

func (s *Scheduler) UpdateDetails(ctx context.Context, id string, patch domain.DetailsPatch) (*domain.BookingRequest, error) {
	cur, err := s.current(ctx, id)
	if err != nil {
		return nil, s.report(ctx, id, "", err)
	}
	next, changes, err := cur.ApplyDetails(patch)
	if err != nil {
		return nil, s.report(ctx, id, "", err)
	}
	if len(changes) == 0 {
		return &cur, nil
	}

	updated, err := s.commit(ctx, next, changes)
	return updated, s.report(ctx, id, "Request details saved", err)
}

func (s *Scheduler) PreviewSchedule(ctx context.Context, id string, slot time.Time) (*SchedulePreview, error) {
	cur, err := s.current(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := cur.Schedule(slot, s.grid, s.now()); err != nil {
		return nil, err
	}
	return &SchedulePreview{Request: cur, Slot: slot, SharedWith: s.sharedSlot(id, slot)}, nil
}

// Schedule books the request into in.Slot. Without in.Confirm nothing is
// written and the preview comes back with ErrConfirmationRequired. An invite
// failure is reported on the result and never undoes the booking.
func (s *Scheduler) Schedule(ctx context.Context, id string, in ScheduleInput) (*ScheduleResult, error) {
	cur, err := s.current(ctx, id)
	if err != nil {
		return nil, s.report(ctx, id, "", err)
	}
	next, err := cur.Schedule(in.Slot, s.grid, s.now())
	if err != nil {
		return nil, s.report(ctx, id, "", err)
	}

	preview := &SchedulePreview{Request: cur, Slot: in.Slot, SharedWith: s.sharedSlot(id, in.Slot)}
	if !in.Confirm {
		return &ScheduleResult{Preview: preview}, domain.ErrConfirmationRequired
	}

	updated, err := s.commit(ctx, next, []string{"status", "scheduled_at"})
	if err != nil {
		return nil, s.report(ctx, id, "", err)
	}

	msg := fmt.Sprintf("Demo with %s scheduled for %s", updated.FullName, in.Slot.Format("Mon, Jan 2 15:04"))
	if n := len(preview.SharedWith); n > 0 {
		msg += fmt.Sprintf(" (slot shared with %d other request(s))", n)
	}
	s.notices.Emit(notice.Success, msg, id)

	res := &ScheduleResult{Preview: preview, Request: updated}
	if in.SendInvite {
		if err := s.dispatch(ctx, *updated); err != nil {
			res.InviteErr = err
		} else {
			res.InviteSent = true
		}
	}
	return res, nil
}

func (s *Scheduler) MarkAttended(ctx context.Context, id string) (*domain.BookingRequest, error) {
	r, err := s.transition(ctx, id, domain.ActionMarkAttended)
	return r, s.report(ctx, id, "Marked as attended", err)
}

func (s *Scheduler) Reschedule(ctx context.Context, id string) (*domain.BookingRequest, error) {
	r, err := s.transition(ctx, id, domain.ActionReschedule)
	return r, s.report(ctx, id, "Returned to pending for rescheduling", err)
}

func (s *Scheduler) Cancel(ctx context.Context, id string) (*domain.BookingRequest, error) {
	r, err := s.transition(ctx, id, domain.ActionCancel)
	return r, s.report(ctx, id, "Request canceled", err)
}

// Delete permanently removes the request. It refuses to run unconfirmed.
func (s *Scheduler) Delete(ctx context.Context, id string, confirm bool) error {
	if !confirm {
		return domain.ErrConfirmationRequired
	}
	return s.report(ctx, id, "Request deleted", s.remove(ctx, id))
}

func (s *Scheduler) SendInvite(ctx context.Context, id string) (*domain.BookingRequest, error) {
	cur, err := s.current(ctx, id)
	if err != nil {
		return nil, s.report(ctx, id, "", err)
	}
	// canceled requests keep scheduled_at but must not be told they are booked
	if !cur.Status.Committed() {
		return nil, s.report(ctx, id, "", domain.Invalid("status", domain.ErrNotBooked))
	}
	if err := s.dispatch(ctx, cur); err != nil {
		return nil, err
	}
	return &cur, nil
}

func (s *Scheduler) MonthView(month time.Time, filter domain.StatusFilter) ([]calendar.DayCell, error) {
	today := s.now()
	if err := calendar.CheckMonth(month, today); err != nil {
		return nil, err
	}
	return calendar.Month(month, today, s.board.Snapshot(), filter), nil
}

func (s *Scheduler) DayView(day time.Time, filter domain.StatusFilter) []calendar.SlotCell {
	return calendar.Day(s.grid, day, s.board.Snapshot(), filter)
}

func (s *Scheduler) Slots(day time.Time) []time.Time {
	return s.grid.ForDay(day)
}

// Refresh reloads the board from the store. On failure the board keeps its
// previous contents.
func (s *Scheduler) Refresh(ctx context.Context) error {
	reqs, err := s.repo.List(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to refresh demo requests", "error", err)
		return &domain.PersistenceError{Op: "read", Err: err}
	}
	s.board.Load(reqs)
	return nil
}

// current loads the request from the board, falling back to the store for
// rows this instance has not seen yet.
func (s *Scheduler) current(ctx context.Context, id string) (domain.BookingRequest, error) {
	if r, ok := s.board.Get(id); ok {
		return r, nil
	}
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.BookingRequest{}, &domain.PersistenceError{Op: "read", Err: err}
	}
	if r == nil {
		return domain.BookingRequest{}, domain.ErrNotFound
	}
	s.board.Put(*r)
	return *r, nil
}

func (s *Scheduler) transition(ctx context.Context, id string, action domain.Action) (*domain.BookingRequest, error) {
	cur, err := s.current(ctx, id)
	if err != nil {
		return nil, err
	}
	next, err := cur.Transition(action, s.now())
	if err != nil {
		return nil, err
	}
	return s.commit(ctx, next, []string{"status"})
}

// commit persists next and only then updates the board.
func (s *Scheduler) commit(ctx context.Context, next domain.BookingRequest, changes []string) (*domain.BookingRequest, error) {
	updated, err := s.repo.Update(ctx, next)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to update demo request", "error", err, "request_id", next.ID)
		return nil, &domain.PersistenceError{Op: "update", Err: err}
	}
	if updated == nil {
		s.board.Remove(next.ID)
		return nil, domain.ErrNotFound
	}

	s.board.Put(*updated)
	s.publish(ctx, events.RequestUpdated, *updated, changes)
	return updated, nil
}

func (s *Scheduler) remove(ctx context.Context, id string) error {
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to delete demo request", "error", err, "request_id", id)
		return &domain.PersistenceError{Op: "delete", Err: err}
	}
	s.board.Remove(id)
	if !ok {
		return domain.ErrNotFound
	}
	s.publish(ctx, events.RequestDeleted, domain.BookingRequest{ID: id}, nil)
	return nil
}

// dispatch renders and sends the invite, emitting its own notice so a send
// failure is never confused with a failed booking.
func (s *Scheduler) dispatch(ctx context.Context, r domain.BookingRequest) error {
	msg, err := invite.Render(r, s.product)
	if err != nil {
		s.notices.Emit(notice.Error, "Invite not sent: "+err.Error(), r.ID)
		return err
	}
	if err := s.mailer.SendInvite(ctx, msg); err != nil {
		logger.ErrorContext(ctx, "Failed to send demo invite", "error", err, "request_id", r.ID)
		derr := &domain.DispatchError{RequestID: r.ID, Err: err}
		s.notices.Emit(notice.Error, "Invite could not be sent; the booking is unchanged", r.ID)
		return derr
	}
	s.notices.Emit(notice.Success, "Invite sent to "+r.Email, r.ID)
	return nil
}

func (s *Scheduler) sharedSlot(id string, slot time.Time) []domain.BookingRequest {
	var out []domain.BookingRequest
	for _, r := range s.board.Snapshot() {
		if r.ID == id || r.ScheduledAt == nil || !r.Status.Committed() {
			continue
		}
		if slots.Same(*r.ScheduledAt, slot) {
			out = append(out, r)
		}
	}
	return out
}

func (s *Scheduler) publish(ctx context.Context, subject string, r domain.BookingRequest, changes []string) {
	event := events.RequestChangedEvent{
		RequestID:  r.ID,
		Origin:     s.origin,
		Status:     string(r.Status),
		Changes:    changes,
		OccurredAt: s.now(),
	}
	if err := s.events.Publish(ctx, subject, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish demo request event", "error", err, "subject", subject, "request_id", r.ID)
	}
}

// report emits a success or failure notice for an operator action and
// passes err through.
func (s *Scheduler) report(ctx context.Context, id, success string, err error) error {
	switch {
	case err == nil:
		if success != "" {
			s.notices.Emit(notice.Success, success, id)
		}
	case errors.Is(err, domain.ErrConfirmationRequired):
	default:
		logger.DebugContext(ctx, "Operator action failed", "error", err, "request_id", id)
		s.notices.Emit(notice.Error, err.Error(), id)
	}
	return err
}
