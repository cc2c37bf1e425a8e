package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/diagnosis/demo-scheduler/pkg/auth"
	"github.com/diagnosis/demo-scheduler/pkg/cache"
	"github.com/diagnosis/demo-scheduler/pkg/config"
	"github.com/diagnosis/demo-scheduler/pkg/events"
	mw "github.com/diagnosis/demo-scheduler/pkg/middleware"
	"github.com/diagnosis/demo-scheduler/services/scheduler/internal/domain"
	"github.com/diagnosis/demo-scheduler/services/scheduler/internal/handlers"
	"github.com/diagnosis/demo-scheduler/services/scheduler/internal/invite"
	"github.com/diagnosis/demo-scheduler/services/scheduler/internal/notice"
	"github.com/diagnosis/demo-scheduler/services/scheduler/internal/service"
)

const secret = "test-secret"

// ---------- Mocks ----------

type memRepo struct {
	mu   sync.Mutex
	seq  int
	rows map[string]domain.BookingRequest
}

func (m *memRepo) Create(_ context.Context, r domain.BookingRequest) (*domain.BookingRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	r.ID = fmt.Sprintf("req-%d", m.seq)
	r.CreatedAt = time.Now()
	m.rows[r.ID] = r
	return &r, nil
}

func (m *memRepo) GetByID(_ context.Context, id string) (*domain.BookingRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rows[id]; ok {
		return &r, nil
	}
	return nil, nil
}

func (m *memRepo) List(_ context.Context) ([]domain.BookingRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.BookingRequest
	for _, r := range m.rows {
		out = append(out, r)
	}
	return out, nil
}

func (m *memRepo) Update(_ context.Context, r domain.BookingRequest) (*domain.BookingRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[r.ID]; !ok {
		return nil, nil
	}
	m.rows[r.ID] = r
	return &r, nil
}

func (m *memRepo) Delete(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.rows[id]
	delete(m.rows, id)
	return ok, nil
}

type nopMailer struct{ sent int }

func (n *nopMailer) SendInvite(context.Context, invite.Message) error {
	n.sent++
	return nil
}

// ---------- Setup ----------

func setupServer(t *testing.T) (*httptest.Server, *memRepo) {
	t.Helper()
	repo := &memRepo{rows: map[string]domain.BookingRequest{}}
	bus := notice.NewBus(8)
	sched := service.NewScheduler(repo, service.NewBoard(), events.NewMemoryEventBus(), &nopMailer{}, bus,
		config.SchedulerConfig{DayStartHour: 8, DayEndHour: 20, PageSize: 10, ProductName: "LexDesk"})
	h := handlers.New(sched, service.NewBulkCoordinator(sched), bus, secret)

	r := chi.NewRouter()
	h.Routes(r, mw.IdempotencyMiddleware(cache.NewMemoryIdempotencyStore(), time.Hour))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, repo
}

func token(t *testing.T, role string) string {
	t.Helper()
	tok, err := auth.NewOperatorToken("op-1", "op@lexdesk.local", role, secret, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	return tok
}

func do(t *testing.T, srv *httptest.Server, method, path, bearer string, body interface{}, headers ...string) (*http.Response, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var out map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func intake(name string) map[string]string {
	from := time.Now().AddDate(0, 0, 1)
	return map[string]string{
		"full_name":       name,
		"email":           strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@firm.law",
		"phone":           "+1 555 010 2030",
		"team_size":       "11-50",
		"preferred_start": from.Format("2006-01-02"),
		"preferred_end":   from.AddDate(0, 0, 4).Format("2006-01-02"),
	}
}

func createRequest(t *testing.T, srv *httptest.Server, name string) string {
	t.Helper()
	resp, body := do(t, srv, http.MethodPost, "/v1/demo-requests", "", intake(name))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: %d %v", resp.StatusCode, body)
	}
	return body["id"].(string)
}

func futureSlot() string {
	d := time.Now().AddDate(0, 0, 7)
	return time.Date(d.Year(), d.Month(), d.Day(), 14, 0, 0, 0, time.Local).Format("2006-01-02T15:04")
}

// ---------- Tests ----------

func TestCreateRequest(t *testing.T) {
	srv, _ := setupServer(t)

	t.Run("valid", func(t *testing.T) {
		resp, body := do(t, srv, http.MethodPost, "/v1/demo-requests", "", intake("Ana Ruiz"))
		if resp.StatusCode != http.StatusCreated || body["status"] != "pending" {
			t.Fatalf("got %d %v", resp.StatusCode, body)
		}
	})

	t.Run("invalid email", func(t *testing.T) {
		in := intake("Ana Ruiz")
		in["email"] = "ana"
		resp, body := do(t, srv, http.MethodPost, "/v1/demo-requests", "", in)
		if resp.StatusCode != http.StatusBadRequest || body["code"] != handlers.CodeInvalidInput || body["details"] != "email" {
			t.Fatalf("got %d %v", resp.StatusCode, body)
		}
	})

	t.Run("reversed window", func(t *testing.T) {
		in := intake("Ana Ruiz")
		in["preferred_start"], in["preferred_end"] = in["preferred_end"], in["preferred_start"]
		resp, _ := do(t, srv, http.MethodPost, "/v1/demo-requests", "", in)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("got %d", resp.StatusCode)
		}
	})

	t.Run("idempotent replay", func(t *testing.T) {
		first, a := do(t, srv, http.MethodPost, "/v1/demo-requests", "", intake("Bo Li"), "Idempotency-Key", "k-1")
		second, b := do(t, srv, http.MethodPost, "/v1/demo-requests", "", intake("Bo Li"), "Idempotency-Key", "k-1")
		if first.StatusCode != http.StatusCreated || second.Header.Get("Idempotent-Replayed") != "true" || a["id"] != b["id"] {
			t.Fatalf("replay failed: %v / %v", a, b)
		}
	})
}

func TestAdminAuth(t *testing.T) {
	srv, _ := setupServer(t)

	if resp, _ := do(t, srv, http.MethodGet, "/v1/admin/demo-requests", "", nil); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("no token: %d", resp.StatusCode)
	}
	if resp, _ := do(t, srv, http.MethodGet, "/v1/admin/demo-requests", "garbage", nil); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad token: %d", resp.StatusCode)
	}
	if resp, _ := do(t, srv, http.MethodGet, "/v1/admin/demo-requests", token(t, "rider"), nil); resp.StatusCode != http.StatusForbidden {
		t.Fatalf("wrong role: %d", resp.StatusCode)
	}
	if resp, _ := do(t, srv, http.MethodGet, "/v1/admin/demo-requests", token(t, auth.RoleAdmin), nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("admin: %d", resp.StatusCode)
	}
}

func TestScheduleFlow(t *testing.T) {
	srv, repo := setupServer(t)
	op := token(t, auth.RoleOperator)
	id := createRequest(t, srv, "Ana Ruiz")
	path := "/v1/admin/demo-requests/" + id

	resp, body := do(t, srv, http.MethodPost, path+"/schedule", op, map[string]interface{}{"slot": futureSlot()})
	if resp.StatusCode != http.StatusPreconditionRequired || body["preview"] == nil {
		t.Fatalf("unconfirmed: %d %v", resp.StatusCode, body)
	}
	if repo.rows[id].Status != domain.StatusPending {
		t.Fatal("unconfirmed schedule was written")
	}

	resp, body = do(t, srv, http.MethodPost, path+"/schedule", op, map[string]interface{}{"slot": futureSlot(), "confirm": true})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("confirmed: %d %v", resp.StatusCode, body)
	}
	if repo.rows[id].Status != domain.StatusScheduled {
		t.Fatal("schedule not persisted")
	}

	resp, body = do(t, srv, http.MethodPost, path+"/schedule", op, map[string]interface{}{"slot": futureSlot(), "confirm": true})
	if resp.StatusCode != http.StatusConflict || body["code"] != handlers.CodeInvalidTransition {
		t.Fatalf("second schedule: %d %v", resp.StatusCode, body)
	}

	resp, body = do(t, srv, http.MethodPost, path+"/invite", op, nil)
	if resp.StatusCode != http.StatusBadRequest || body["details"] != "meeting_link" {
		t.Fatalf("invite without link: %d %v", resp.StatusCode, body)
	}

	resp, _ = do(t, srv, http.MethodPatch, path, op, map[string]string{"meeting_link": "https://meet.example.com/x"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("patch: %d", resp.StatusCode)
	}
	resp, body = do(t, srv, http.MethodPost, path+"/invite", op, nil)
	if resp.StatusCode != http.StatusOK || body["invite_sent"] != true {
		t.Fatalf("invite: %d %v", resp.StatusCode, body)
	}

	resp, body = do(t, srv, http.MethodPost, path+"/attended", op, nil)
	if resp.StatusCode != http.StatusOK || body["status"] != "attended" {
		t.Fatalf("attended: %d %v", resp.StatusCode, body)
	}
	resp, body = do(t, srv, http.MethodPost, path+"/reschedule", op, nil)
	if resp.StatusCode != http.StatusOK || body["status"] != "pending" || body["scheduled_at"] != nil {
		t.Fatalf("reschedule: %d %v", resp.StatusCode, body)
	}
}

func TestSchedule_RejectsBadSlots(t *testing.T) {
	srv, _ := setupServer(t)
	op := token(t, auth.RoleOperator)
	id := createRequest(t, srv, "Ana Ruiz")

	tests := []struct {
		name string
		slot string
	}{
		{"missing", ""},
		{"garbage", "next tuesday"},
		{"past", "2020-01-06T10:00"},
		{"off grid", strings.Replace(futureSlot(), "14:00", "14:10", 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, srv, http.MethodPost, "/v1/admin/demo-requests/"+id+"/schedule", op,
				map[string]interface{}{"slot": tt.slot, "confirm": true})
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("got %d %v", resp.StatusCode, body)
			}
		})
	}
}

func TestDeleteRequest(t *testing.T) {
	srv, repo := setupServer(t)
	op := token(t, auth.RoleOperator)
	id := createRequest(t, srv, "Ana Ruiz")

	if resp, _ := do(t, srv, http.MethodDelete, "/v1/admin/demo-requests/"+id, op, nil); resp.StatusCode != http.StatusPreconditionRequired {
		t.Fatalf("unconfirmed delete: %d", resp.StatusCode)
	}
	if resp, _ := do(t, srv, http.MethodDelete, "/v1/admin/demo-requests/"+id+"?confirm=true", op, nil); resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete: %d", resp.StatusCode)
	}
	if _, ok := repo.rows[id]; ok {
		t.Fatal("row still present")
	}
	if resp, _ := do(t, srv, http.MethodGet, "/v1/admin/demo-requests/"+id, op, nil); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("get deleted: %d", resp.StatusCode)
	}
}

func TestBulk(t *testing.T) {
	srv, repo := setupServer(t)
	op := token(t, auth.RoleOperator)
	ids := []string{createRequest(t, srv, "Ana Ruiz"), createRequest(t, srv, "Bo Li"), createRequest(t, srv, "Cy Ode")}

	resp, body := do(t, srv, http.MethodPost, "/v1/admin/demo-requests/bulk", op, map[string]interface{}{
		"ids": ids, "action": "delete", "confirm_count": 2,
	})
	if resp.StatusCode != http.StatusPreconditionRequired || body["details"] != "set confirm_count to 3" {
		t.Fatalf("count mismatch: %d %v", resp.StatusCode, body)
	}

	resp, body = do(t, srv, http.MethodPost, "/v1/admin/demo-requests/bulk", op, map[string]interface{}{
		"ids": ids[:2], "action": "status", "status": "attended",
	})
	if resp.StatusCode != http.StatusMultiStatus || body["failed"].(float64) != 2 {
		t.Fatalf("attend pending: %d %v", resp.StatusCode, body)
	}

	resp, body = do(t, srv, http.MethodPost, "/v1/admin/demo-requests/bulk", op, map[string]interface{}{
		"ids": ids, "action": "delete", "confirm_count": 3,
	})
	if resp.StatusCode != http.StatusOK || body["succeeded"].(float64) != 3 {
		t.Fatalf("delete: %d %v", resp.StatusCode, body)
	}
	if len(repo.rows) != 0 {
		t.Fatalf("%d rows left", len(repo.rows))
	}
}

func TestListRequests(t *testing.T) {
	srv, _ := setupServer(t)
	op := token(t, auth.RoleOperator)
	createRequest(t, srv, "Cy Ode")
	createRequest(t, srv, "Ana Ruiz")

	resp, body := do(t, srv, http.MethodGet, "/v1/admin/demo-requests?status=pending&sort=name&dir=asc&page_size=1", op, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list: %d", resp.StatusCode)
	}
	items := body["items"].([]interface{})
	if len(items) != 1 || items[0].(map[string]interface{})["full_name"] != "Ana Ruiz" || body["total_pages"].(float64) != 2 {
		t.Fatalf("body = %v", body)
	}

	if resp, _ := do(t, srv, http.MethodGet, "/v1/admin/demo-requests?status=archived", op, nil); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad status: %d", resp.StatusCode)
	}

	resp, body = do(t, srv, http.MethodGet, "/v1/admin/demo-requests?page=9223372036854775807", op, nil)
	if resp.StatusCode != http.StatusOK || len(body["items"].([]interface{})) != 0 {
		t.Fatalf("huge page: %d %v", resp.StatusCode, body)
	}
}

func TestCalendarViews(t *testing.T) {
	srv, _ := setupServer(t)
	op := token(t, auth.RoleOperator)

	resp, body := do(t, srv, http.MethodGet, "/v1/admin/calendar/month", op, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("month: %d", resp.StatusCode)
	}
	for _, week := range body["weeks"].([]interface{}) {
		if len(week.([]interface{})) != 7 {
			t.Fatal("incomplete week")
		}
	}

	now := time.Now()
	past := time.Date(now.Year(), now.Month()-1, 1, 0, 0, 0, 0, time.Local).Format("2006-01")
	resp, body = do(t, srv, http.MethodGet, "/v1/admin/calendar/month?month="+past, op, nil)
	if resp.StatusCode != http.StatusBadRequest || body["code"] != handlers.CodePastMonth {
		t.Fatalf("past month: %d %v", resp.StatusCode, body)
	}

	resp, body = do(t, srv, http.MethodGet, "/v1/admin/calendar/day?date=2030-03-04", op, nil)
	if resp.StatusCode != http.StatusOK || len(body["slots"].([]interface{})) != 25 {
		t.Fatalf("day: %d %v", resp.StatusCode, body)
	}

	resp, body = do(t, srv, http.MethodGet, "/v1/admin/slots?date=2030-03-04", op, nil)
	if resp.StatusCode != http.StatusOK || len(body["slots"].([]interface{})) != 25 {
		t.Fatalf("slots: %d %v", resp.StatusCode, body)
	}

	if resp, _ := do(t, srv, http.MethodGet, "/v1/admin/calendar/day?date=03/04/2030", op, nil); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad date: %d", resp.StatusCode)
	}
}
