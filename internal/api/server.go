// Package api exposes the store-hours JSON API consumed by the mobile
// client.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"storehours/internal/auth"
	"storehours/internal/hours"
	"storehours/internal/report"
	"storehours/internal/selection"
	"storehours/internal/storeapi"
)

// StoreData supplies schedule and override snapshots.
type StoreData interface {
	StoreTimes(ctx context.Context) ([]hours.WeeklyEntry, storeapi.Source, error)
	Overrides(ctx context.Context, month, day int) ([]hours.Override, storeapi.Source, error)
}

// Server is the HTTP API server.
type Server struct {
	resolver  *hours.Resolver
	data      StoreData
	selection *selection.Service
	logger    *zerolog.Logger
	limiter   *rate.Limiter
	timezone  *time.Location
	auth      *auth.Client
	report    *report.Generator
}

// Config holds server construction parameters.
type Config struct {
	// RequestsPerSecond caps the request rate; 0 disables limiting.
	RequestsPerSecond float64
	// Burst is the rate limiter burst size.
	Burst int
	// Timezone anchors "now" for next-opening queries.
	Timezone *time.Location
}

// NewServer constructs the API server.
func NewServer(cfg Config, resolver *hours.Resolver, data StoreData, sel *selection.Service, logger *zerolog.Logger) *Server {
	s := &Server{
		resolver:  resolver,
		data:      data,
		selection: sel,
		logger:    logger,
		timezone:  cfg.Timezone,
	}
	if s.timezone == nil {
		s.timezone = time.Local
	}
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = int(cfg.RequestsPerSecond)
		}
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return s
}

// UseAuth enables the sign-in endpoints.
func (s *Server) UseAuth(client *auth.Client) {
	s.auth = client
}

// UseReport enables the Excel export endpoint.
func (s *Server) UseReport(gen *report.Generator) {
	s.report = gen
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/store/open", s.handleOpen)
	mux.HandleFunc("/api/store/next-opening", s.handleNextOpening)
	mux.HandleFunc("/api/store/calendar", s.handleCalendar)
	mux.HandleFunc("/api/store/slots", s.handleSlots)
	mux.HandleFunc("/api/store/selection", s.handleSelection)
	if s.auth != nil {
		mux.HandleFunc("/api/auth/login", s.handleLogin)
		mux.HandleFunc("/api/auth/google", s.handleGoogleLogin)
		mux.HandleFunc("/api/auth/session", s.handleSession)
		mux.HandleFunc("/api/auth/logout", s.handleLogout)
	}
	if s.report != nil {
		mux.HandleFunc("/api/store/report", s.handleReport)
	}
	return s.middleware(mux)
}

func (s *Server) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		w.Header().Set("X-Request-Id", requestID)

		if s.limiter != nil && !s.limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, "too many requests")
			return
		}

		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("api request")
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
