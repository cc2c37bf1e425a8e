package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/diagnosis/demo-scheduler/pkg/auth"
	"github.com/diagnosis/demo-scheduler/pkg/logger"
	"github.com/diagnosis/demo-scheduler/services/scheduler/internal/notice"
	"github.com/diagnosis/demo-scheduler/services/scheduler/internal/service"
	"github.com/go-chi/chi/v5"
)

type Handlers struct {
	svc       service.RequestService
	bulk      *service.BulkCoordinator
	notices   *notice.Bus
	jwtSecret string
}

func New(svc service.RequestService, bulk *service.BulkCoordinator, notices *notice.Bus, jwtSecret string) *Handlers {
	return &Handlers{svc: svc, bulk: bulk, notices: notices, jwtSecret: jwtSecret}
}

// Routes mounts the public intake endpoint and the operator API. intake
// wraps only the public create route.
func (h *Handlers) Routes(r chi.Router, intake ...func(http.Handler) http.Handler) {
	r.Route("/v1", func(r chi.Router) {
		r.With(intake...).Post("/demo-requests", h.CreateRequest)

		r.Route("/admin", func(r chi.Router) {
			r.Use(h.RequireOperator)

			r.Route("/demo-requests", func(r chi.Router) {
				r.Get("/", h.ListRequests)
				r.Post("/bulk", h.Bulk)
				r.Get("/{id}", h.GetRequest)
				r.Patch("/{id}", h.UpdateRequest)
				r.Delete("/{id}", h.DeleteRequest)
				r.Post("/{id}/schedule", h.Schedule)
				r.Post("/{id}/attended", h.MarkAttended)
				r.Post("/{id}/reschedule", h.Reschedule)
				r.Post("/{id}/cancel", h.Cancel)
				r.Post("/{id}/invite", h.SendInvite)
			})

			r.Get("/calendar/month", h.MonthView)
			r.Get("/calendar/day", h.DayView)
			r.Get("/slots", h.Slots)
			r.Get("/notices", h.StreamNotices)
		})
	})
}

// RequireOperator admits bearer tokens with the operator or admin role.
func (h *Handlers) RequireOperator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "Missing or invalid authorization header", CodeUnauthorized)
			return
		}

		claims, err := auth.Parse(strings.TrimPrefix(authHeader, "Bearer "), h.jwtSecret)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid token", CodeUnauthorized)
			return
		}
		if !claims.CanOperate() {
			writeError(w, http.StatusForbidden, "Operator access required", CodeForbidden)
			return
		}

		ctx := context.WithValue(r.Context(), logger.OperatorIDKey, claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

const dateLayout = "2006-01-02"

var slotLayouts = []string{"2006-01-02T15:04", "2006-01-02T15:04:05", "2006-01-02 15:04"}

// parseDate reads a calendar date as local midnight.
func parseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, strings.TrimSpace(s), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected YYYY-MM-DD, got %q", s)
	}
	return t, nil
}

func parseOptionalDate(s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := parseDate(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// parseSlot reads a slot as a floating local time. An RFC 3339 offset is
// dropped, keeping the wall clock.
func parseSlot(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range slotLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.Local), nil
	}
	return time.Time{}, fmt.Errorf("expected YYYY-MM-DDTHH:MM, got %q", s)
}

func parseMonth(s string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01", strings.TrimSpace(s), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected YYYY-MM, got %q", s)
	}
	return t, nil
}

func queryInt(r *http.Request, key string, fallback int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
