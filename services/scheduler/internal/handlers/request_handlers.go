package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/diagnosis/demo-scheduler/services/scheduler/internal/domain"
	"github.com/diagnosis/demo-scheduler/services/scheduler/internal/leads"
	"github.com/diagnosis/demo-scheduler/services/scheduler/internal/service"
	"github.com/go-chi/chi/v5"
)

type intakeRequest struct {
	FullName       string `json:"full_name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	TeamSize       string `json:"team_size"`
	PreferredStart string `json:"preferred_start"`
	PreferredEnd   string `json:"preferred_end"`
}

// CreateRequest is the public intake form.
func (h *Handlers) CreateRequest(w http.ResponseWriter, r *http.Request) {
	var req intakeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", CodeInvalidInput)
		return
	}

	start, err := parseOptionalDate(req.PreferredStart)
	if err != nil {
		writeErrorWithDetails(w, http.StatusBadRequest, err.Error(), CodeInvalidInput, "preferred_start")
		return
	}
	end, err := parseOptionalDate(req.PreferredEnd)
	if err != nil {
		writeErrorWithDetails(w, http.StatusBadRequest, err.Error(), CodeInvalidInput, "preferred_end")
		return
	}

	in := domain.IntakeInput{
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
		TeamSize: req.TeamSize,
	}
	if start != nil {
		in.PreferredStart = *start
	}
	if end != nil {
		in.PreferredEnd = *end
	}

	created, err := h.svc.Create(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handlers) ListRequests(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	status, ok := domain.ParseStatusFilter(q.Get("status"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid status parameter", CodeInvalidInput)
		return
	}
	field, ok := leads.ParseSortField(q.Get("sort"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid sort parameter", CodeInvalidInput)
		return
	}
	dir, ok := leads.ParseDirection(q.Get("dir"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid dir parameter", CodeInvalidInput)
		return
	}
	from, err := parseOptionalDate(q.Get("from"))
	if err != nil {
		writeErrorWithDetails(w, http.StatusBadRequest, err.Error(), CodeInvalidInput, "from")
		return
	}
	to, err := parseOptionalDate(q.Get("to"))
	if err != nil {
		writeErrorWithDetails(w, http.StatusBadRequest, err.Error(), CodeInvalidInput, "to")
		return
	}

	pageSize := queryInt(r, "page_size", 0)
	if pageSize > 100 {
		pageSize = 100
	}

	writeJSON(w, http.StatusOK, h.svc.List(service.ListQuery{
		Status:   status,
		From:     from,
		To:       to,
		Sort:     field,
		Dir:      dir,
		Page:     queryInt(r, "page", 1),
		PageSize: pageSize,
	}))
}

func (h *Handlers) GetRequest(w http.ResponseWriter, r *http.Request) {
	req, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (h *Handlers) UpdateRequest(w http.ResponseWriter, r *http.Request) {
	var patch domain.DetailsPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", CodeInvalidInput)
		return
	}

	updated, err := h.svc.UpdateDetails(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

type scheduleRequest struct {
	Slot       string `json:"slot"`
	Confirm    bool   `json:"confirm"`
	SendInvite bool   `json:"send_invite"`
}

type scheduleResponse struct {
	Request     *domain.BookingRequest   `json:"request"`
	SharedWith  []domain.BookingRequest  `json:"shared_with,omitempty"`
	InviteSent  bool                     `json:"invite_sent"`
	InviteError *ErrorResponse           `json:"invite_error,omitempty"`
	Preview     *service.SchedulePreview `json:"preview,omitempty"`
}

// Schedule answers an unconfirmed request with 428 and the preview the
// operator has to confirm.
func (h *Handlers) Schedule(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", CodeInvalidInput)
		return
	}
	slot, err := parseSlot(req.Slot)
	if err != nil {
		writeErrorWithDetails(w, http.StatusBadRequest, err.Error(), CodeInvalidInput, "slot")
		return
	}

	res, err := h.svc.Schedule(r.Context(), chi.URLParam(r, "id"), service.ScheduleInput{
		Slot:       slot,
		Confirm:    req.Confirm,
		SendInvite: req.SendInvite,
	})
	if errors.Is(err, domain.ErrConfirmationRequired) && res != nil {
		writeJSON(w, http.StatusPreconditionRequired, struct {
			ErrorResponse
			Preview *service.SchedulePreview `json:"preview"`
		}{
			ErrorResponse: ErrorResponse{Error: "Confirm the slot to schedule this request", Code: CodeConfirmationRequired},
			Preview:       res.Preview,
		})
		return
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := scheduleResponse{Request: res.Request, InviteSent: res.InviteSent}
	if res.Preview != nil {
		out.SharedWith = res.Preview.SharedWith
	}
	if res.InviteErr != nil {
		_, code := statusFor(res.InviteErr)
		out.InviteError = &ErrorResponse{Error: res.InviteErr.Error(), Code: code}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) MarkAttended(w http.ResponseWriter, r *http.Request) {
	h.writeTransition(w, r, h.svc.MarkAttended)
}

func (h *Handlers) Reschedule(w http.ResponseWriter, r *http.Request) {
	h.writeTransition(w, r, h.svc.Reschedule)
}

func (h *Handlers) Cancel(w http.ResponseWriter, r *http.Request) {
	h.writeTransition(w, r, h.svc.Cancel)
}

func (h *Handlers) writeTransition(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id string) (*domain.BookingRequest, error)) {
	updated, err := fn(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteRequest needs ?confirm=true; the delete cannot be undone.
func (h *Handlers) DeleteRequest(w http.ResponseWriter, r *http.Request) {
	confirm := r.URL.Query().Get("confirm") == "true"
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id"), confirm); err != nil {
		if errors.Is(err, domain.ErrConfirmationRequired) {
			writeErrorWithDetails(w, http.StatusPreconditionRequired, "Deleting a request is permanent", CodeConfirmationRequired, "repeat with ?confirm=true")
			return
		}
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) SendInvite(w http.ResponseWriter, r *http.Request) {
	req, err := h.svc.SendInvite(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"request": req, "invite_sent": true})
}

type bulkRequest struct {
	IDs          []string `json:"ids"`
	Action       string   `json:"action"`
	Status       string   `json:"status"`
	ConfirmCount int      `json:"confirm_count"`
}

func (h *Handlers) Bulk(w http.ResponseWriter, r *http.Request) {
	var req bulkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", CodeInvalidInput)
		return
	}

	sel := leads.NewSelection(req.IDs...)
	report, err := h.bulk.Run(r.Context(), sel, service.BulkRequest{
		Action:       service.BulkAction(req.Action),
		Status:       domain.RequestStatus(req.Status),
		ConfirmCount: req.ConfirmCount,
	})
	if err != nil {
		if errors.Is(err, domain.ErrConfirmationRequired) {
			writeErrorWithDetails(w, http.StatusPreconditionRequired, err.Error(), CodeConfirmationRequired,
				fmt.Sprintf("set confirm_count to %d", sel.Len()))
			return
		}
		writeServiceError(w, r, err)
		return
	}

	status := http.StatusOK
	if report.Failed > 0 {
		status = http.StatusMultiStatus
	}
	writeJSON(w, status, report)
}
