package service

import (
	"context"
	"fmt"

	"github.com/diagnosis/demo-scheduler/pkg/logger"
	"github.com/diagnosis/demo-scheduler/services/scheduler/internal/domain"
	"github.com/diagnosis/demo-scheduler/services/scheduler/internal/leads"
	"github.com/diagnosis/demo-scheduler/services/scheduler/internal/notice"
)

type BulkAction string

const (
	BulkSetStatus BulkAction = "status"
	BulkDelete    BulkAction = "delete"
)

type BulkRequest struct {
	Action BulkAction
	Status domain.RequestStatus
	// ConfirmCount must equal the selection size for deletes.
	ConfirmCount int
}

type ItemResult struct {
	ID    string `json:"id"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type BulkReport struct {
	Action       BulkAction           `json:"action"`
	Status       domain.RequestStatus `json:"status,omitempty"`
	Results      []ItemResult         `json:"results"`
	Succeeded    int                  `json:"succeeded"`
	Failed       int                  `json:"failed"`
	RefreshError string               `json:"refresh_error,omitempty"`
}

func (r *BulkReport) Partial() bool { return r.Failed > 0 && r.Succeeded > 0 }

// BulkCoordinator applies one action to every selected request. Items are
// written independently; a failure on one never stops the others.
type BulkCoordinator struct {
	sched *Scheduler
}

func NewBulkCoordinator(sched *Scheduler) *BulkCoordinator {
	return &BulkCoordinator{sched: sched}
}

// Run validates the batch, applies it item by item, clears sel and reloads
// the board. A batch rejected up front leaves sel untouched.
func (c *BulkCoordinator) Run(ctx context.Context, sel leads.Selection, req BulkRequest) (*BulkReport, error) {
	apply, err := c.plan(sel, req)
	if err != nil {
		return nil, err
	}

	report := &BulkReport{Action: req.Action, Status: req.Status}
	for _, id := range sel.IDs() {
		if err := apply(ctx, id); err != nil {
			report.Failed++
			report.Results = append(report.Results, ItemResult{ID: id, Error: err.Error()})
			continue
		}
		report.Succeeded++
		report.Results = append(report.Results, ItemResult{ID: id, OK: true})
	}
	sel.Clear()

	if err := c.sched.Refresh(ctx); err != nil {
		report.RefreshError = err.Error()
	}

	logger.InfoContext(ctx, "Bulk action finished",
		"action", req.Action, "status", req.Status,
		"succeeded", report.Succeeded, "failed", report.Failed,
	)
	c.notify(report)
	return report, nil
}

func (c *BulkCoordinator) plan(sel leads.Selection, req BulkRequest) (func(context.Context, string) error, error) {
	if sel.Len() == 0 {
		return nil, domain.Invalid("ids", fmt.Errorf("%w: no requests selected", domain.ErrInvalidInput))
	}

	switch req.Action {
	case BulkDelete:
		if req.ConfirmCount != sel.Len() {
			return nil, fmt.Errorf("%w: confirm deletion of %d request(s)", domain.ErrConfirmationRequired, sel.Len())
		}
		return c.sched.remove, nil

	case BulkSetStatus:
		action, ok := domain.ActionForStatus(req.Status)
		if !ok {
			return nil, domain.Invalid("status", fmt.Errorf("%w: %q cannot be applied in bulk", domain.ErrInvalidInput, req.Status))
		}
		return func(ctx context.Context, id string) error {
			_, err := c.sched.transition(ctx, id, action)
			return err
		}, nil

	default:
		return nil, domain.Invalid("action", fmt.Errorf("%w: unknown bulk action %q", domain.ErrInvalidInput, req.Action))
	}
}

func (c *BulkCoordinator) notify(r *BulkReport) {
	total := r.Succeeded + r.Failed
	verb := "Updated"
	if r.Action == BulkDelete {
		verb = "Deleted"
	}
	stale := ""
	if r.RefreshError != "" {
		stale = "; the list could not be reloaded and may be out of date"
	}
	if r.Failed == 0 && stale == "" {
		c.sched.notices.Emit(notice.Success, fmt.Sprintf("%s %d request(s)", verb, total), "")
		return
	}
	if r.Failed == 0 {
		c.sched.notices.Emit(notice.Error, fmt.Sprintf("%s %d request(s)%s", verb, total, stale), "")
		return
	}
	c.sched.notices.Emit(notice.Error, fmt.Sprintf("%s %d of %d request(s); %d failed%s", verb, r.Succeeded, total, r.Failed, stale), "")
}
