// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/folajindayo/builder-score-app-sub000/internal/adapters/mq/queue"
	service "github.com/folajindayo/builder-score-app-sub000/internal/app"
	"github.com/folajindayo/builder-score-app-sub000/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	SessionDependencies
	LeaderboardDependencies
}

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = types.Entry

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	sessionHandler     *SessionHandler
	leaderboardHandler *LeaderboardHandler
}

// Option applies a configuration option to the Server.
type Option func(*serverConfig)

type serverConfig struct {
	defaultSponsors []string
	maxLimit        int
}

// WithDefaultSponsors sets the sponsors used when a session is created
// without any.
func WithDefaultSponsors(sponsors []string) Option {
	return func(c *serverConfig) {
		c.defaultSponsors = append([]string(nil), sponsors...)
	}
}

// WithMaxLimit caps the leaderboard window size.
func WithMaxLimit(n int) Option {
	return func(c *serverConfig) {
		if n > 0 {
			c.maxLimit = n
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	cfg := serverConfig{maxLimit: defaultMaxLimit}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		sessionHandler:     NewSessionHandler(deps, cfg.defaultSponsors),
		leaderboardHandler: NewLeaderboardHandler(deps, cfg.maxLimit),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /metrics", MetricsMiddleware(s.healthHandler.HandleHealth, "metrics"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("POST /sessions", MetricsMiddleware(s.sessionHandler.HandleCreate, "sessions_create"))
	mux.HandleFunc("DELETE /sessions/{id}", MetricsMiddleware(s.sessionHandler.HandleDelete, "sessions_delete"))
	mux.HandleFunc("PUT /sessions/{id}/filters", MetricsMiddleware(s.sessionHandler.HandleSetFilters, "sessions_filters"))
	mux.HandleFunc("POST /sessions/{id}/rounds", MetricsMiddleware(s.sessionHandler.HandleLoadRound, "sessions_rounds"))

	mux.HandleFunc("GET /sessions/{id}/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("GET /sessions/{id}/builders/{key}", MetricsMiddleware(s.leaderboardHandler.HandleGetBuilder, "builder"))
	mux.HandleFunc("GET /sessions/{id}/export.csv", MetricsMiddleware(s.leaderboardHandler.HandleExportCSV, "export"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError translates service errors into HTTP responses.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound), errors.Is(err, service.ErrBuilderNotFound):
		writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrNotFound, err))
	case errors.Is(err, service.ErrNoSponsors), errors.Is(err, ErrBadRequest):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
	case errors.Is(err, service.ErrBackpressure), errors.Is(err, queue.ErrFull):
		writeError(w, http.StatusTooManyRequests, "backpressure", WrapKind(op, ErrBackpressure, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}
