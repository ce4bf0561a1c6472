package api

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"washdesk/internal/models"
)

func (s *Server) handleEmployees(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if !requireRole(w, sessionFrom(r), models.RoleAdmin, models.RoleEmployee) {
		return
	}

	employees, err := s.gw.GetAllEmployees(r.Context())
	if err != nil {
		s.writeBackendError(w, err, "failed to load employees")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"employees": employees})
}

// handleServices serves the catalog. Reads are open to every signed-in role
// so customers can pick a service; writes are admin only.
func (s *Server) handleServices(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		services, err := s.gw.GetAllServices(r.Context())
		if err != nil {
			s.writeBackendError(w, err, "failed to load services")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"services": services})

	case http.MethodPost:
		if !requireRole(w, sessionFrom(r), models.RoleAdmin) {
			return
		}
		var svc models.Service
		if err := json.NewDecoder(r.Body).Decode(&svc); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if svc.Name == "" || svc.Price <= 0 {
			writeError(w, http.StatusBadRequest, "name and a positive price are required")
			return
		}
		id, err := s.gw.CreateService(r.Context(), &svc)
		if err != nil {
			s.writeBackendError(w, err, "failed to create service")
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"id": id})

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleServiceByID(w http.ResponseWriter, r *http.Request) {
	serviceID, ok := trailingID(w, r, "/api/v1/services/")
	if !ok {
		return
	}
	if !requireRole(w, sessionFrom(r), models.RoleAdmin) {
		return
	}

	switch r.Method {
	case http.MethodPut:
		var svc models.Service
		if err := json.NewDecoder(r.Body).Decode(&svc); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		svc.ID = serviceID
		if err := s.gw.UpdateService(r.Context(), &svc); err != nil {
			s.writeBackendError(w, err, "failed to update service")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})

	case http.MethodDelete:
		if err := s.gw.DeleteService(r.Context(), serviceID); err != nil {
			s.writeBackendError(w, err, "failed to delete service")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleInventory(w http.ResponseWriter, r *http.Request) {
	if !requireRole(w, sessionFrom(r), models.RoleAdmin, models.RoleEmployee) {
		return
	}

	switch r.Method {
	case http.MethodGet:
		items, err := s.gw.GetInventory(r.Context())
		if err != nil {
			s.writeBackendError(w, err, "failed to load inventory")
			return
		}
		low := 0
		for i := range items {
			if items[i].LowStock() {
				low++
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items, "low_stock": low})

	case http.MethodPost:
		var item models.InventoryItem
		if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if item.Name == "" {
			writeError(w, http.StatusBadRequest, "name is required")
			return
		}
		id, err := s.gw.CreateInventoryItem(r.Context(), &item)
		if err != nil {
			s.writeBackendError(w, err, "failed to create inventory item")
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"id": id})

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleInventoryByID(w http.ResponseWriter, r *http.Request) {
	itemID, ok := trailingID(w, r, "/api/v1/inventory/")
	if !ok {
		return
	}
	if !requireRole(w, sessionFrom(r), models.RoleAdmin, models.RoleEmployee) {
		return
	}

	switch r.Method {
	case http.MethodPut:
		var item models.InventoryItem
		if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		item.ID = itemID
		if err := s.gw.UpdateInventoryItem(r.Context(), &item); err != nil {
			s.writeBackendError(w, err, "failed to update inventory item")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})

	case http.MethodDelete:
		if !requireRole(w, sessionFrom(r), models.RoleAdmin) {
			return
		}
		if err := s.gw.DeleteInventoryItem(r.Context(), itemID); err != nil {
			s.writeBackendError(w, err, "failed to delete inventory item")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleDashboard serves the poller's last good snapshot. ?refresh=true forces
// a fetch outside the timer; a tick already in flight is not doubled.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if !requireRole(w, sessionFrom(r), models.RoleAdmin, models.RoleEmployee) {
		return
	}
	if s.poller == nil {
		writeError(w, http.StatusServiceUnavailable, "dashboard is not enabled")
		return
	}

	if r.URL.Query().Get("refresh") == "true" {
		s.poller.Refresh(r.Context())
	}

	summary := s.poller.Snapshot()
	if summary == nil {
		writeError(w, http.StatusServiceUnavailable, "dashboard data is not ready yet")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleBookingsReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if !requireRole(w, sessionFrom(r), models.RoleAdmin, models.RoleEmployee) {
		return
	}
	if s.reports == nil {
		writeError(w, http.StatusServiceUnavailable, "reports are not enabled")
		return
	}

	bookings, err := s.gw.GetAllBookings(r.Context())
	if err != nil {
		s.writeBackendError(w, err, "failed to load bookings")
		return
	}

	path, err := s.reports.BookingsToExcel(bookings)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to build bookings report")
		writeError(w, http.StatusInternalServerError, "failed to build report")
		return
	}

	w.Header().Set("Content-Disposition", "attachment; filename=\""+filepath.Base(path)+"\"")
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	http.ServeFile(w, r, path)
}

func trailingID(w http.ResponseWriter, r *http.Request, prefix string) (int64, bool) {
	raw := strings.Trim(strings.TrimPrefix(r.URL.Path, prefix), "/")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}
