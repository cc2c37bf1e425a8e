package handlers

import (
	"net/http"
	"time"

	"github.com/diagnosis/demo-scheduler/services/scheduler/internal/calendar"
	"github.com/diagnosis/demo-scheduler/services/scheduler/internal/domain"
)

type monthResponse struct {
	Month string               `json:"month"`
	Weeks [][]calendar.DayCell `json:"weeks"`
}

type dayResponse struct {
	Date  string              `json:"date"`
	Slots []calendar.SlotCell `json:"slots"`
}

// MonthView defaults to the current month.
func (h *Handlers) MonthView(w http.ResponseWriter, r *http.Request) {
	filter, ok := domain.ParseStatusFilter(r.URL.Query().Get("status"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid status parameter", CodeInvalidInput)
		return
	}

	month := time.Now()
	if v := r.URL.Query().Get("month"); v != "" {
		m, err := parseMonth(v)
		if err != nil {
			writeErrorWithDetails(w, http.StatusBadRequest, err.Error(), CodeInvalidInput, "month")
			return
		}
		month = m
	}

	cells, err := h.svc.MonthView(month, filter)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	var weeks [][]calendar.DayCell
	for i := 0; i+7 <= len(cells); i += 7 {
		weeks = append(weeks, cells[i:i+7])
	}
	writeJSON(w, http.StatusOK, monthResponse{Month: month.Format("2006-01"), Weeks: weeks})
}

func (h *Handlers) DayView(w http.ResponseWriter, r *http.Request) {
	filter, ok := domain.ParseStatusFilter(r.URL.Query().Get("status"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid status parameter", CodeInvalidInput)
		return
	}
	day, ok := h.dayParam(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, dayResponse{Date: day.Format(dateLayout), Slots: h.svc.DayView(day, filter)})
}

// Slots lists the bookable instants of a day.
func (h *Handlers) Slots(w http.ResponseWriter, r *http.Request) {
	day, ok := h.dayParam(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"date":  day.Format(dateLayout),
		"slots": h.svc.Slots(day),
	})
}

func (h *Handlers) dayParam(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	v := r.URL.Query().Get("date")
	if v == "" {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local), true
	}
	day, err := parseDate(v)
	if err != nil {
		writeErrorWithDetails(w, http.StatusBadRequest, err.Error(), CodeInvalidInput, "date")
		return time.Time{}, false
	}
	return day, true
}
