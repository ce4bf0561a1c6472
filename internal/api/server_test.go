package api

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

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"washdesk/internal/backend"
	"washdesk/internal/config"
	"washdesk/internal/models"
	"washdesk/internal/poller"
	"washdesk/internal/session"
)

// fakeBackend speaks the envelope protocol of the real car-wash REST API.
type fakeBackend struct {
	mu       sync.Mutex
	srv      *httptest.Server
	bookings []map[string]any
	updates  []string
	assigns  []string
	deletes  []string

	rejectRemark  string
	rejectMessage string
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()

	fb := &fakeBackend{
		bookings: []map[string]any{
			{"id": 1, "customer_id": 7, "customerName": "Alice Moore", "serviceName": "Premium Wash",
				"washDate": "2026-03-02", "washTime": "10:00", "vehicleType": "SUV",
				"paymentType": "Cash", "price": 49.99, "status": "pending"},
			{"id": 2, "customer_id": 7, "customerName": "Alice Moore", "serviceName": "Standard Wash",
				"washDate": "2026-03-01", "washTime": "09:30", "vehicleType": "Sedan",
				"paymentType": "Cash", "price": 24.99, "status": "approved"},
			{"id": 3, "customer_id": 8, "customerName": "Bob Reyes", "serviceName": "Detailing",
				"washDate": "2026-02-20", "washTime": "14:00", "vehicleType": "Truck",
				"paymentType": "Online", "price": 89.99, "status": "pending"},
		},
	}

	mux := http.NewServeMux()
	loginHandler := func(role, email, password string, account map[string]any) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["email"] != email || body["password"] != password {
				writeRemark(w, "failed", "Invalid email or password")
				return
			}
			writeEnvelope(w, map[string]any{"token": "backend-token", role: account})
		}
	}
	mux.HandleFunc("/login_admin", loginHandler("admin", "root@wash.test", "rootpass",
		map[string]any{"id": 1, "fullname": "Admin", "email": "root@wash.test"}))
	mux.HandleFunc("/login_employee", loginHandler("employee", "dan@wash.test", "danpass",
		map[string]any{"id": 2, "first_name": "Dan", "last_name": "Lee", "email": "dan@wash.test"}))
	mux.HandleFunc("/login_customer", loginHandler("customer", "alice@wash.test", "hunter2",
		map[string]any{"id": "7", "first_name": "Alice", "last_name": "Moore", "email": "alice@wash.test"}))
	mux.HandleFunc("/get_all_bookings", func(w http.ResponseWriter, r *http.Request) {
		fb.mu.Lock()
		defer fb.mu.Unlock()
		writeEnvelope(w, map[string]any{"bookings": fb.bookings})
	})
	mux.HandleFunc("/get_bookings_by_customer", func(w http.ResponseWriter, r *http.Request) {
		fb.mu.Lock()
		defer fb.mu.Unlock()
		want := r.URL.Query().Get("customer_id")
		var out []map[string]any
		for _, b := range fb.bookings {
			if fmt.Sprint(b["customer_id"]) == want {
				out = append(out, b)
			}
		}
		writeEnvelope(w, map[string]any{"bookings": out})
	})
	mux.HandleFunc("/get_all_employees", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, map[string]any{"employees": []map[string]any{
			{"id": 2, "employee_id": "EMP-002", "first_name": "Dan", "last_name": "Lee", "position": "Detailer"},
		}})
	})
	mux.HandleFunc("/update_booking_status", func(w http.ResponseWriter, r *http.Request) {
		fb.mu.Lock()
		defer fb.mu.Unlock()
		if fb.rejectRemark != "" {
			writeRemark(w, fb.rejectRemark, fb.rejectMessage)
			return
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		fb.updates = append(fb.updates, fmt.Sprintf("%v=%v", body["id"], body["status"]))
		writeEnvelope(w, map[string]any{})
	})
	mux.HandleFunc("/assign_employee_to_booking", func(w http.ResponseWriter, r *http.Request) {
		fb.mu.Lock()
		defer fb.mu.Unlock()
		if fb.rejectRemark != "" {
			writeRemark(w, fb.rejectRemark, fb.rejectMessage)
			return
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		fb.assigns = append(fb.assigns, fmt.Sprintf("%v->%v", body["employee_id"], body["booking_id"]))
		// Побочный эффект бекенда: назначение сразу переводит запись в approved.
		for _, b := range fb.bookings {
			if fmt.Sprint(b["id"]) == fmt.Sprint(body["booking_id"]) {
				b["status"] = "approved"
				b["assigned_employee_id"] = body["employee_id"]
				b["employee_first_name"] = "Dan"
				b["employee_last_name"] = "Lee"
				b["employee_position"] = "Detailer"
			}
		}
		writeEnvelope(w, map[string]any{})
	})
	mux.HandleFunc("/create_booking", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, map[string]any{"id": "41"})
	})
	mux.HandleFunc("/bookings/", func(w http.ResponseWriter, r *http.Request) {
		fb.mu.Lock()
		defer fb.mu.Unlock()
		fb.deletes = append(fb.deletes, strings.TrimPrefix(r.URL.Path, "/bookings/"))
		writeEnvelope(w, map[string]any{})
	})
	mux.HandleFunc("/get_all_services", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, map[string]any{"services": []map[string]any{
			{"id": 1, "name": "Premium Wash", "price": 49.99, "active": true},
		}})
	})

	fb.srv = httptest.NewServer(mux)
	t.Cleanup(fb.srv.Close)
	return fb
}

func (fb *fakeBackend) failNextMutation(remarks, message string) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.rejectRemark = remarks
	fb.rejectMessage = message
}

func (fb *fakeBackend) healNow() {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.rejectRemark = ""
	fb.rejectMessage = ""
}

func writeEnvelope(w http.ResponseWriter, payload any) {
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":  map[string]string{"remarks": "success", "message": "ok"},
		"payload": payload,
	})
}

func writeRemark(w http.ResponseWriter, remarks, message string) {
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status": map[string]string{"remarks": remarks, "message": message},
	})
}

type testEnv struct {
	server   *Server
	backend  *fakeBackend
	sessions *session.MemoryStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	fb := newFakeBackend(t)
	logger := zerolog.Nop()
	gw := backend.NewClient(config.BackendConfig{
		BaseURL:          fb.srv.URL,
		TimeoutSeconds:   2,
		BreakerThreshold: 100,
	}, &logger)

	sessions := session.NewMemoryStore(time.Hour)
	s := NewServer(
		config.APIConfig{Port: 0},
		config.SessionConfig{TTLHours: 1, LoginRateAttempts: 3, LoginRateWindow: 60},
		Deps{Gateway: gw, Sessions: sessions},
		&logger,
	)
	return &testEnv{server: s, backend: fb, sessions: sessions}
}

func (e *testEnv) login(t *testing.T, role string, userID int64, name string) string {
	t.Helper()
	sess := session.New(userID, role, name, "", time.Hour)
	require.NoError(t, e.sessions.Put(context.Background(), sess))
	return sess.Token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestLogin(t *testing.T) {
	// Each subtest gets its own env so the login rate limiter
	// (LoginRateAttempts: 3) never carries over between subtests.
	t.Run("mints a session for backend-verified identity", func(t *testing.T) {
		env := newTestEnv(t)
		rec := env.do(t, http.MethodPost, "/api/v1/login", "",
			map[string]any{"role": "customer", "email": "alice@wash.test", "password": "hunter2"})
		require.Equal(t, http.StatusOK, rec.Code)

		body := decodeBody(t, rec)
		token, _ := body["token"].(string)
		require.NotEmpty(t, token)
		assert.Equal(t, "customer", body["role"])

		// Identity comes from the backend's login payload, not the request.
		sess, err := env.sessions.Get(context.Background(), token)
		require.NoError(t, err)
		require.NotNil(t, sess)
		assert.Equal(t, int64(7), sess.UserID)
		assert.Equal(t, "Alice Moore", sess.Name)
	})

	t.Run("rejects bad credentials", func(t *testing.T) {
		env := newTestEnv(t)
		rec := env.do(t, http.MethodPost, "/api/v1/login", "",
			map[string]any{"role": "customer", "email": "alice@wash.test", "password": "wrong"})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Invalid email or password", decodeBody(t, rec)["error"])

		rec = env.do(t, http.MethodPost, "/api/v1/login", "",
			map[string]any{"role": "admin", "email": "alice@wash.test", "password": "hunter2"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "customer credentials cannot mint an admin session")
	})

	t.Run("rejects unknown role", func(t *testing.T) {
		env := newTestEnv(t)
		rec := env.do(t, http.MethodPost, "/api/v1/login", "",
			map[string]any{"role": "superuser", "email": "alice@wash.test", "password": "hunter2"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects missing credentials", func(t *testing.T) {
		env := newTestEnv(t)
		rec := env.do(t, http.MethodPost, "/api/v1/login", "",
			map[string]any{"role": "customer", "email": "alice@wash.test"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestLoginRateLimit(t *testing.T) {
	env := newTestEnv(t)

	// LoginRateAttempts is 3; every attempt counts, good or bad.
	codes := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		rec := env.do(t, http.MethodPost, "/api/v1/login", "",
			map[string]any{"role": "customer", "email": "alice@wash.test", "password": "hunter2"})
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{200, 200, 200, 429}, codes)
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t)

	t.Run("missing token", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/v1/bookings", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown token", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/v1/bookings", "not-a-session", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("customer cannot read the staff list", func(t *testing.T) {
		token := env.login(t, models.RoleCustomer, 7, "Alice Moore")
		rec := env.do(t, http.MethodGet, "/api/v1/bookings", token, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("employee cannot delete", func(t *testing.T) {
		token := env.login(t, models.RoleEmployee, 2, "Dan Lee")
		rec := env.do(t, http.MethodDelete, "/api/v1/bookings/1", token, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestStaffList(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, models.RoleAdmin, 1, "Admin")

	rec := env.do(t, http.MethodGet, "/api/v1/bookings", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Bookings []models.Booking `json:"bookings"`
		Counts   map[string]int   `json:"counts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Bookings, 3)
	assert.Equal(t, 3, resp.Counts["All"])
	assert.Equal(t, 2, resp.Counts["Pending"])
	assert.Equal(t, 1, resp.Counts["Approved"])

	t.Run("filter narrows the list", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/v1/bookings?filter=Approved", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Bookings, 1)
		assert.EqualValues(t, 2, resp.Bookings[0].ID)
	})
}

func TestApproveFlow(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, models.RoleAdmin, 1, "Admin")

	t.Run("requires an employee", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/bookings/1/approve", token,
			map[string]any{"employee_id": 0})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("assigns and approves", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/bookings/1/approve", token,
			map[string]any{"employee_id": 2})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Booking *models.Booking `json:"booking"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.NotNil(t, resp.Booking)
		assert.Equal(t, "Approved", string(resp.Booking.Status))
		assert.Equal(t, "Dan Lee", resp.Booking.AssignedEmployeeName)

		env.backend.mu.Lock()
		defer env.backend.mu.Unlock()
		assert.Equal(t, []string{"2->1"}, env.backend.assigns)
	})

	t.Run("rejects an illegal transition", func(t *testing.T) {
		// Reject booking 3, then try to approve it from the terminal state.
		rec := env.do(t, http.MethodPost, "/api/v1/bookings/3/reject", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = env.do(t, http.MethodPost, "/api/v1/bookings/3/approve", token,
			map[string]any{"employee_id": 2})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestMutationRollback(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, models.RoleAdmin, 1, "Admin")

	// Warm the board, then break the backend.
	rec := env.do(t, http.MethodGet, "/api/v1/bookings", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	env.backend.failNextMutation("failed", "Booking is locked by another terminal")

	rec = env.do(t, http.MethodPost, "/api/v1/bookings/1/reject", token, nil)
	require.Equal(t, http.StatusBadGateway, rec.Code)

	body := decodeBody(t, rec)
	notes, _ := body["notifications"].([]any)
	require.NotEmpty(t, notes)
	first := notes[0].(map[string]any)
	assert.Equal(t, "Booking is locked by another terminal", first["message"])

	// The optimistic flip was reverted.
	env.backend.healNow()
	rec = env.do(t, http.MethodGet, "/api/v1/bookings?filter=Pending", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Bookings []models.Booking `json:"bookings"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	ids := make([]int64, 0, len(resp.Bookings))
	for _, b := range resp.Bookings {
		ids = append(ids, b.ID)
	}
	assert.Contains(t, ids, int64(1))
}

func TestCustomerCancel(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, models.RoleCustomer, 7, "Alice Moore")

	t.Run("cancels a pending booking", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/bookings/1/cancel", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		env.backend.mu.Lock()
		defer env.backend.mu.Unlock()
		assert.Contains(t, env.backend.updates, "1=Cancelled")
	})

	t.Run("approved booking is past the cancellation window", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/bookings/2/cancel", token, nil)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("cannot touch another customer's booking", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/bookings/3/cancel", token, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestCustomerList(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, models.RoleCustomer, 7, "Alice Moore")

	rec := env.do(t, http.MethodGet, "/api/v1/bookings/customer", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Bookings []models.Booking `json:"bookings"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Bookings, 2)
	// Newest wash date first.
	assert.EqualValues(t, 1, resp.Bookings[0].ID)
	assert.EqualValues(t, 2, resp.Bookings[1].ID)
}

func TestCreateBooking(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, models.RoleCustomer, 7, "Alice Moore")

	t.Run("creates", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/bookings", token, map[string]any{
			"service_name": "Premium Wash",
			"wash_date":    "2026-03-10",
			"wash_time":    "11:00",
			"vehicle_type": "SUV",
			"price":        49.99,
		})
		require.Equal(t, http.StatusCreated, rec.Code)
		body := decodeBody(t, rec)
		assert.EqualValues(t, 41, body["id"])
	})

	t.Run("requires the core fields", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/bookings", token,
			map[string]any{"service_name": "Premium Wash"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestDeleteBooking(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, models.RoleAdmin, 1, "Admin")

	rec := env.do(t, http.MethodDelete, "/api/v1/bookings/3", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	env.backend.mu.Lock()
	deletes := env.backend.deletes
	env.backend.mu.Unlock()
	assert.Equal(t, []string{"3"}, deletes)

	rec = env.do(t, http.MethodGet, "/api/v1/bookings", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Bookings []models.Booking `json:"bookings"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	for _, b := range resp.Bookings {
		assert.NotEqualValues(t, 3, b.ID)
	}
}

func TestDashboard(t *testing.T) {
	fb := newFakeBackend(t)
	logger := zerolog.Nop()
	gw := backend.NewClient(config.BackendConfig{
		BaseURL: fb.srv.URL, TimeoutSeconds: 2, BreakerThreshold: 100,
	}, &logger)

	fetched := false
	p := poller.New(func(ctx context.Context) (*models.DashboardSummary, error) {
		fetched = true
		return &models.DashboardSummary{TotalBookings: 12, TotalRevenue: 640.5}, nil
	}, time.Hour, &logger)

	sessions := session.NewMemoryStore(time.Hour)
	s := NewServer(config.APIConfig{}, config.SessionConfig{TTLHours: 1}, Deps{
		Gateway: gw, Sessions: sessions, Poller: p,
	}, &logger)
	env := &testEnv{server: s, backend: fb, sessions: sessions}
	token := env.login(t, models.RoleEmployee, 2, "Dan Lee")

	t.Run("not ready before the first tick", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/v1/dashboard", token, nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.False(t, fetched)
	})

	t.Run("refresh forces a fetch", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/v1/dashboard?refresh=true", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var summary models.DashboardSummary
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
		assert.EqualValues(t, 12, summary.TotalBookings)
	})
}

func TestServicesAccess(t *testing.T) {
	env := newTestEnv(t)

	t.Run("customers can read the catalog", func(t *testing.T) {
		token := env.login(t, models.RoleCustomer, 7, "Alice Moore")
		rec := env.do(t, http.MethodGet, "/api/v1/services", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Services []models.Service `json:"services"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Services, 1)
		assert.Equal(t, "Premium Wash", resp.Services[0].Name)
	})

	t.Run("only admins create services", func(t *testing.T) {
		token := env.login(t, models.RoleEmployee, 2, "Dan Lee")
		rec := env.do(t, http.MethodPost, "/api/v1/services", token,
			map[string]any{"name": "Wax", "price": 19.99})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
