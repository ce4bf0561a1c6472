// Package api exposes the JSON/HTTP surface the admin, employee and
// customer web clients talk to. It owns no booking state of its own: lists
// live in per-scope view boards, truth lives in the backend.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"washdesk/internal/backend"
	"washdesk/internal/config"
	"washdesk/internal/events"
	"washdesk/internal/exporter"
	"washdesk/internal/metrics"
	"washdesk/internal/models"
	"washdesk/internal/poller"
	"washdesk/internal/reports"
	"washdesk/internal/session"
	"washdesk/internal/view"
)

// Server wires the view boards, session store and backend gateway into an
// HTTP API.
type Server struct {
	cfg      config.APIConfig
	sessCfg  config.SessionConfig
	gw       *backend.Client
	sessions session.Store
	poller   *poller.Poller
	reports  *reports.Exporter
	exports  *exporter.Worker
	bus      *events.EventBus
	logger   zerolog.Logger
	server   *http.Server
	limiter  *rateLimiter

	staffMu   sync.Mutex
	staff     *view.Board
	staffLog  *view.NotificationLog
	historyMu sync.Mutex
	histories map[int64]*historyEntry
}

type historyEntry struct {
	history *view.History
	log     *view.NotificationLog
}

// Deps carries the server's collaborators; Exports and Bus may be nil.
type Deps struct {
	Gateway  *backend.Client
	Sessions session.Store
	Poller   *poller.Poller
	Reports  *reports.Exporter
	Exports  *exporter.Worker
	Bus      *events.EventBus
}

func NewServer(cfg config.APIConfig, sessCfg config.SessionConfig, deps Deps, logger *zerolog.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		sessCfg:  sessCfg,
		gw:       deps.Gateway,
		sessions: deps.Sessions,
		poller:   deps.Poller,
		reports:  deps.Reports,
		exports:  deps.Exports,
		bus:      deps.Bus,
		logger:   logger.With().Str("component", "api").Logger(),
		limiter:  newRateLimiter(cfg.RateLimit),

		histories: make(map[int64]*historyEntry),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/login", s.handleLogin)
	mux.HandleFunc("/api/v1/logout", s.withSession(s.handleLogout))
	mux.HandleFunc("/api/v1/bookings", s.withSession(s.handleBookings))
	mux.HandleFunc("/api/v1/bookings/", s.withSession(s.handleBookingByID))
	mux.HandleFunc("/api/v1/employees", s.withSession(s.handleEmployees))
	mux.HandleFunc("/api/v1/services", s.withSession(s.handleServices))
	mux.HandleFunc("/api/v1/services/", s.withSession(s.handleServiceByID))
	mux.HandleFunc("/api/v1/inventory", s.withSession(s.handleInventory))
	mux.HandleFunc("/api/v1/inventory/", s.withSession(s.handleInventoryByID))
	mux.HandleFunc("/api/v1/dashboard", s.withSession(s.handleDashboard))
	mux.HandleFunc("/api/v1/reports/bookings.xlsx", s.withSession(s.handleBookingsReport))
	mux.HandleFunc("/healthz", s.handleHealth)

	handler := s.loggingMiddleware(s.rateLimitMiddleware(mux))

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	return s
}

// Handler returns the root handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// staffBoard is the shared all-bookings list the admin and employee screens
// mutate. Lazily loaded on first use; the in-flight guard state survives
// across requests.
func (s *Server) staffBoard(ctx context.Context) (*view.Board, *view.NotificationLog, error) {
	s.staffMu.Lock()
	defer s.staffMu.Unlock()

	if s.staff == nil {
		log := view.NewNotificationLog(50)
		board := view.NewBoard("staff", func(ctx context.Context) ([]models.Booking, error) {
			return s.gw.GetAllBookings(ctx)
		}, s.gw, log, &s.logger, view.RefreshNever)
		if err := board.Load(ctx); err != nil {
			return nil, nil, err
		}
		s.staff = board
		s.staffLog = log
	}
	return s.staff, s.staffLog, nil
}

func (s *Server) customerHistory(ctx context.Context, customerID int64) (*view.History, *view.NotificationLog, error) {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()

	if entry, ok := s.histories[customerID]; ok {
		return entry.history, entry.log, nil
	}

	log := view.NewNotificationLog(50)
	h := view.NewHistory(customerID, s.gw.GetBookingsByCustomer, s.gw, log, &s.logger)
	if err := h.Load(ctx); err != nil {
		return nil, nil, err
	}
	s.histories[customerID] = &historyEntry{history: h, log: log}
	return h, log, nil
}

func (s *Server) publishStatusEvent(bookingID int64, from, to string, sess *session.Session) {
	if s.bus == nil {
		return
	}
	eventType := events.EventForStatus(to)
	if eventType == "" {
		return
	}
	_ = s.bus.PublishJSON(eventType, events.BookingEventPayload{
		BookingID:   bookingID,
		FromStatus:  from,
		ToStatus:    to,
		ChangedBy:   sess.Name,
		ChangedByID: sess.UserID,
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		metrics.IncHTTP(r.URL.Path)
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.RateLimit.RPS > 0 {
			if !s.limiter.getLimiter(clientKey(r)).Allow() {
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// clientKey prefers the session token so one noisy client cannot starve the
// rest of a NAT.
func clientKey(r *http.Request) string {
	if token := bearerToken(r); token != "" {
		return token
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return "unknown"
}

func bearerToken(r *http.Request) string {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(auth) > 7 && strings.EqualFold(auth[:7], "Bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
