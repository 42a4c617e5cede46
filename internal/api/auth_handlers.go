package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"storehours/internal/auth"
	"storehours/internal/metrics"
	"storehours/internal/slots"
)

// LoginRequest is the body for POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionResponse describes the active session.
type SessionResponse struct {
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

func sessionResponse(session *auth.Session) SessionResponse {
	return SessionResponse{
		Email:     session.User.Email,
		Name:      session.User.Name,
		Source:    session.Source,
		CreatedAt: session.CreatedAt,
	}
}

// handleLogin signs in with email and password.
// POST /api/auth/login
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("auth_login")

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use POST")
		return
	}

	var req LoginRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	session, err := s.auth.SignInWithEmail(r.Context(), req.Email, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("email sign-in failed")
		writeError(w, http.StatusBadGateway, "sign-in failed")
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse(session))
}

// GoogleLoginRequest carries the OAuth authorization code.
type GoogleLoginRequest struct {
	Code string `json:"code"`
}

// handleGoogleLogin signs in with a Google authorization code.
// POST /api/auth/google
func (s *Server) handleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("auth_google")

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use POST")
		return
	}

	var req GoogleLoginRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil || req.Code == "" {
		writeError(w, http.StatusBadRequest, "code is required")
		return
	}

	session, err := s.auth.SignInWithGoogle(r.Context(), req.Code)
	if err != nil {
		s.logger.Error().Err(err).Msg("google sign-in failed")
		writeError(w, http.StatusUnauthorized, "google sign-in failed")
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse(session))
}

// handleSession returns the active session, if any.
// GET /api/auth/session
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("auth_session")

	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use GET")
		return
	}

	session, err := s.auth.CurrentSession(r.Context())
	if errors.Is(err, auth.ErrNoSession) {
		writeError(w, http.StatusUnauthorized, "not signed in")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "load session failed")
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse(session))
}

// handleLogout discards the active session.
// POST /api/auth/logout
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("auth_logout")

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use POST")
		return
	}

	if err := s.auth.SignOut(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "sign out failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"signed_out": true})
}

// handleReport streams the rolling-window workbook.
// GET /api/store/report
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("report")

	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use GET")
		return
	}

	now := time.Now().In(s.timezone)
	var buf bytes.Buffer
	if err := s.report.WriteWorkbook(r.Context(), &buf, now, slots.DefaultWindowDays); err != nil {
		s.logger.Error().Err(err).Msg("report generation failed")
		writeError(w, http.StatusBadGateway, "report generation failed")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="store-hours.xlsx"`)
	_, _ = w.Write(buf.Bytes())
}
