package api

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"time"

	"washdesk/internal/backend"
	"washdesk/internal/models"
	"washdesk/internal/session"
)

type contextKey string

const sessionContextKey contextKey = "session"

// withSession resolves the bearer token into a session and rejects requests
// without one. Role and identity always come from the store, never from the
// request body.
func (s *Server) withSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		sess, err := s.sessions.Get(r.Context(), token)
		if err != nil {
			s.logger.Error().Err(err).Msg("session lookup failed")
			writeError(w, http.StatusInternalServerError, "session lookup failed")
			return
		}
		if sess == nil || sess.Expired() {
			writeError(w, http.StatusUnauthorized, "session expired or unknown")
			return
		}

		next(w, r.WithContext(context.WithValue(r.Context(), sessionContextKey, sess)))
	}
}

func sessionFrom(r *http.Request) *session.Session {
	sess, _ := r.Context().Value(sessionContextKey).(*session.Session)
	return sess
}

func isStaff(sess *session.Session) bool {
	return sess.Role == models.RoleAdmin || sess.Role == models.RoleEmployee
}

func requireRole(w http.ResponseWriter, sess *session.Session, roles ...string) bool {
	for _, role := range roles {
		if sess.Role == role {
			return true
		}
	}
	writeError(w, http.StatusForbidden, "insufficient role")
	return false
}

type loginRequest struct {
	Role     string `json:"role"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	Role      string    `json:"role"`
	UserID    int64     `json:"user_id"`
	Name      string    `json:"name"`
	ExpiresAt time.Time `json:"expires_at"`
}

// handleLogin relays the credentials to the backend's per-role login
// endpoint and mints a session only for the identity the backend vouched
// for. Role and user id never come from the request body.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	limitKey := s.loginLimitKey(r)
	allowed, err := s.sessions.CheckRateLimit(r.Context(), limitKey,
		s.sessCfg.LoginRateAttempts, time.Duration(s.sessCfg.LoginRateWindow)*time.Second)
	if err != nil {
		s.logger.Error().Err(err).Msg("login rate limit check failed")
	} else if !allowed {
		writeError(w, http.StatusTooManyRequests, "too many login attempts")
		return
	}

	var req loginRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	switch req.Role {
	case models.RoleAdmin, models.RoleEmployee, models.RoleCustomer:
	default:
		writeError(w, http.StatusBadRequest, "unknown role")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	account, err := s.gw.Login(r.Context(), req.Role, req.Email, req.Password)
	if err != nil {
		if re, ok := backend.AsRemarkError(err); ok {
			writeError(w, http.StatusUnauthorized, re.Message)
			return
		}
		s.logger.Error().Err(err).Str("role", req.Role).Msg("backend login failed")
		writeError(w, http.StatusBadGateway, "login is unavailable")
		return
	}

	ttl := time.Duration(s.sessCfg.TTLHours) * time.Hour
	sess := session.New(account.UserID, account.Role, account.Name, account.Email, ttl)
	if err := s.sessions.Put(r.Context(), sess); err != nil {
		s.logger.Error().Err(err).Msg("failed to store session")
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	s.logger.Info().Str("role", sess.Role).Int64("user_id", sess.UserID).Msg("session created")
	writeJSON(w, http.StatusOK, loginResponse{
		Token:     sess.Token,
		Role:      sess.Role,
		UserID:    sess.UserID,
		Name:      sess.Name,
		ExpiresAt: sess.ExpiresAt,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	token := bearerToken(r)
	if err := s.sessions.Delete(r.Context(), token); err != nil {
		s.logger.Error().Err(err).Msg("failed to delete session")
		writeError(w, http.StatusInternalServerError, "failed to delete session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

func (s *Server) loginLimitKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil || host == "" {
		host = strings.TrimSpace(r.RemoteAddr)
	}
	if host == "" {
		host = "unknown"
	}
	return host
}
