package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"washdesk/internal/backend"
	"washdesk/internal/events"
	"washdesk/internal/exporter"
	"washdesk/internal/models"
	"washdesk/internal/session"
	"washdesk/internal/status"
	"washdesk/internal/view"
)

// bookingFilters are the filter-bar tabs the lists render.
var bookingFilters = []string{view.FilterAll, "Pending", "Approved", "Rejected", "Completed", "Cancelled"}

type listResponse struct {
	Bookings      []models.Booking    `json:"bookings"`
	Counts        map[string]int      `json:"counts"`
	Notifications []view.Notification `json:"notifications,omitempty"`
}

type mutationResponse struct {
	Booking       *models.Booking     `json:"booking,omitempty"`
	Notifications []view.Notification `json:"notifications"`
}

// handleBookings serves the staff list (GET) and booking creation (POST).
func (s *Server) handleBookings(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)

	switch r.Method {
	case http.MethodGet:
		if !requireRole(w, sess, models.RoleAdmin, models.RoleEmployee) {
			return
		}
		board, log, err := s.staffBoard(r.Context())
		if err != nil {
			writeError(w, http.StatusBadGateway, "failed to load bookings")
			return
		}
		if r.URL.Query().Get("refresh") == "true" {
			if err := board.Load(r.Context()); err != nil {
				writeError(w, http.StatusBadGateway, "failed to refresh bookings")
				return
			}
		}
		filter := r.URL.Query().Get("filter")
		if filter == "" {
			filter = view.FilterAll
		}
		writeJSON(w, http.StatusOK, listResponse{
			Bookings:      board.Filtered(filter),
			Counts:        board.Counts(bookingFilters),
			Notifications: log.Drain(),
		})

	case http.MethodPost:
		var b models.Booking
		if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if sess.Role == models.RoleCustomer {
			// Customers book for themselves only.
			b.CustomerID = sess.UserID
		}
		if b.ServiceName == "" || b.WashDate == "" || b.WashTime == "" {
			writeError(w, http.StatusBadRequest, "service_name, wash_date and wash_time are required")
			return
		}

		id, err := s.gw.CreateBooking(r.Context(), &b)
		if err != nil {
			s.writeBackendError(w, err, "failed to create booking")
			return
		}
		b.ID = id
		b.Status = status.Pending

		if s.exports != nil {
			_ = s.exports.Enqueue(r.Context(), exporter.Task{Type: exporter.TaskUpsert, Booking: &b})
		}
		writeJSON(w, http.StatusCreated, map[string]any{"id": id})

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleBookingByID dispatches /api/v1/bookings/{...} subroutes: the
// customer and employee lists, per-booking actions, and deletion.
func (s *Server) handleBookingByID(w http.ResponseWriter, r *http.Request) {
	const prefix = "/api/v1/bookings/"
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, prefix), "/")

	switch rest {
	case "customer":
		s.handleCustomerBookings(w, r)
		return
	case "employee":
		s.handleEmployeeBookings(w, r)
		return
	}

	parts := strings.Split(rest, "/")
	bookingID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || bookingID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid booking id")
		return
	}

	switch {
	case len(parts) == 1 && r.Method == http.MethodDelete:
		s.handleDeleteBooking(w, r, bookingID)
	case len(parts) == 2:
		s.handleBookingAction(w, r, bookingID, parts[1])
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *Server) handleCustomerBookings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	sess := sessionFrom(r)

	customerID := sess.UserID
	if isStaff(sess) {
		// Staff may inspect a specific customer's history.
		customerID, _ = strconv.ParseInt(r.URL.Query().Get("customer_id"), 10, 64)
		if customerID <= 0 {
			writeError(w, http.StatusBadRequest, "customer_id is required")
			return
		}
	}

	h, log, err := s.customerHistory(r.Context(), customerID)
	if err != nil {
		writeError(w, http.StatusBadGateway, "failed to load bookings")
		return
	}
	if r.URL.Query().Get("refresh") == "true" {
		if err := h.Load(r.Context()); err != nil {
			writeError(w, http.StatusBadGateway, "failed to refresh bookings")
			return
		}
	}
	filter := r.URL.Query().Get("filter")
	if filter == "" {
		filter = view.FilterAll
	}
	writeJSON(w, http.StatusOK, listResponse{
		Bookings:      h.Filtered(filter),
		Counts:        h.Counts(bookingFilters),
		Notifications: log.Drain(),
	})
}

// handleEmployeeBookings serves an employee's assigned list. It is a fresh
// fetch every time: assignment happens on the staff board, so this list has
// no optimistic state of its own.
func (s *Server) handleEmployeeBookings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	sess := sessionFrom(r)
	if !requireRole(w, sess, models.RoleAdmin, models.RoleEmployee) {
		return
	}

	employeeID := sess.UserID
	if sess.Role == models.RoleAdmin {
		employeeID, _ = strconv.ParseInt(r.URL.Query().Get("employee_id"), 10, 64)
		if employeeID <= 0 {
			writeError(w, http.StatusBadRequest, "employee_id is required")
			return
		}
	}

	bookings, err := s.gw.GetBookingsByEmployee(r.Context(), employeeID)
	if err != nil {
		s.writeBackendError(w, err, "failed to load bookings")
		return
	}
	filter := r.URL.Query().Get("filter")
	if filter == "" {
		filter = view.FilterAll
	}
	writeJSON(w, http.StatusOK, listResponse{
		Bookings: view.Filter(bookings, filter),
		Counts:   view.CountByFilter(bookings, bookingFilters),
	})
}

func (s *Server) handleBookingAction(w http.ResponseWriter, r *http.Request, bookingID int64, action string) {
	sess := sessionFrom(r)

	if action == "status" {
		if r.Method != http.MethodPut {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
	} else if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	switch action {
	case "approve":
		if !requireRole(w, sess, models.RoleAdmin, models.RoleEmployee) {
			return
		}
		var req struct {
			EmployeeID int64 `json:"employee_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		board, log, err := s.staffBoard(r.Context())
		if err != nil {
			writeError(w, http.StatusBadGateway, "failed to load bookings")
			return
		}
		s.finishMutation(w, r, board, log, bookingID, string(status.Approved),
			board.Approve(r.Context(), bookingID, req.EmployeeID))

	case "reject":
		if !requireRole(w, sess, models.RoleAdmin, models.RoleEmployee) {
			return
		}
		board, log, err := s.staffBoard(r.Context())
		if err != nil {
			writeError(w, http.StatusBadGateway, "failed to load bookings")
			return
		}
		s.finishMutation(w, r, board, log, bookingID, string(status.Rejected),
			board.Reject(r.Context(), bookingID))

	case "complete":
		if !requireRole(w, sess, models.RoleAdmin, models.RoleEmployee) {
			return
		}
		board, log, err := s.staffBoard(r.Context())
		if err != nil {
			writeError(w, http.StatusBadGateway, "failed to load bookings")
			return
		}
		s.finishMutation(w, r, board, log, bookingID, string(status.Completed),
			board.Complete(r.Context(), bookingID))

	case "cancel":
		s.handleCancel(w, r, bookingID)

	case "status":
		if !requireRole(w, sess, models.RoleAdmin, models.RoleEmployee) {
			return
		}
		var req struct {
			Status string `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		target := status.Canonical(req.Status)
		if !status.Known(req.Status) {
			writeError(w, http.StatusBadRequest, "unknown status")
			return
		}
		board, log, err := s.staffBoard(r.Context())
		if err != nil {
			writeError(w, http.StatusBadGateway, "failed to load bookings")
			return
		}
		s.finishMutation(w, r, board, log, bookingID, string(target),
			board.SetStatus(r.Context(), bookingID, target))

	default:
		writeError(w, http.StatusNotFound, "unknown action")
	}
}

// handleCancel routes a customer's cancel to their own history and a staff
// cancel to the shared board.
func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request, bookingID int64) {
	sess := sessionFrom(r)

	if sess.Role == models.RoleCustomer {
		h, log, err := s.customerHistory(r.Context(), sess.UserID)
		if err != nil {
			writeError(w, http.StatusBadGateway, "failed to load bookings")
			return
		}
		err = h.Cancel(r.Context(), bookingID)
		if err == nil {
			s.afterCommit(r, bookingID, string(status.Cancelled), sess)
		}
		s.writeMutationResult(w, log, nil, err)
		return
	}

	board, log, err := s.staffBoard(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "failed to load bookings")
		return
	}
	s.finishMutation(w, r, board, log, bookingID, string(status.Cancelled),
		board.Cancel(r.Context(), bookingID))
}

func (s *Server) handleDeleteBooking(w http.ResponseWriter, r *http.Request, bookingID int64) {
	sess := sessionFrom(r)
	if !requireRole(w, sess, models.RoleAdmin) {
		return
	}

	if err := s.gw.DeleteBooking(r.Context(), bookingID); err != nil {
		s.writeBackendError(w, err, "failed to delete booking")
		return
	}

	if board, _, err := s.staffBoard(r.Context()); err == nil {
		board.Remove(bookingID)
	}
	if s.bus != nil {
		_ = s.bus.PublishJSON(events.EventBookingDeleted, events.BookingEventPayload{
			BookingID: bookingID, ToStatus: "", ChangedBy: sess.Name, ChangedByID: sess.UserID,
		})
	}
	if s.exports != nil {
		_ = s.exports.Enqueue(r.Context(), exporter.Task{Type: exporter.TaskDelete, BookingID: bookingID})
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// finishMutation translates a board mutation outcome into an HTTP response
// and fans out the side effects of a commit.
func (s *Server) finishMutation(w http.ResponseWriter, r *http.Request, board *view.Board, log *view.NotificationLog, bookingID int64, target string, err error) {
	if err == nil {
		s.afterCommit(r, bookingID, target, sessionFrom(r))
	}

	var b *models.Booking
	if got, ok := board.Get(bookingID); ok {
		b = &got
	}
	s.writeMutationResult(w, log, b, err)
}

// afterCommit publishes the domain event and schedules the spreadsheet sync
// for a status change the backend accepted.
func (s *Server) afterCommit(r *http.Request, bookingID int64, target string, sess *session.Session) {
	s.publishStatusEvent(bookingID, "", target, sess)
	if s.exports != nil {
		_ = s.exports.Enqueue(r.Context(), exporter.Task{
			Type:      exporter.TaskUpdateStatus,
			BookingID: bookingID,
			Status:    target,
		})
	}
}

func (s *Server) writeMutationResult(w http.ResponseWriter, log *view.NotificationLog, b *models.Booking, err error) {
	resp := mutationResponse{Booking: b, Notifications: log.Drain()}

	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, resp)
	case errors.Is(err, view.ErrBookingNotFound):
		writeError(w, http.StatusNotFound, "booking not found")
	case errors.Is(err, view.ErrNoEmployeeSelected):
		writeError(w, http.StatusBadRequest, "employee_id is required")
	case errors.Is(err, view.ErrMutationInFlight),
		errors.Is(err, view.ErrIllegalTransition),
		errors.Is(err, view.ErrCancellationClosed):
		writeJSON(w, http.StatusConflict, map[string]any{"error": err.Error()})
	default:
		// Backend rejected or unreachable; the rollback already happened and
		// the notification carries the user-facing message.
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"error":         "backend rejected the change",
			"booking":       b,
			"notifications": resp.Notifications,
		})
	}
}

func (s *Server) writeBackendError(w http.ResponseWriter, err error, fallback string) {
	if re, ok := backend.AsRemarkError(err); ok && re.Message != "" {
		writeError(w, http.StatusBadGateway, re.Message)
		return
	}
	s.logger.Error().Err(err).Msg(fallback)
	writeError(w, http.StatusBadGateway, fallback)
}
