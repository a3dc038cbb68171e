package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	service "github.com/folajindayo/builder-score-app-sub000/internal/app"
	"github.com/folajindayo/builder-score-app-sub000/internal/domain/types"
)

const defaultMaxLimit = 500

// LeaderboardDependencies defines the read-only leaderboard operations.
type LeaderboardDependencies interface {
	View(ctx context.Context, id string, opts service.ViewOptions) (service.View, error)
	Builder(ctx context.Context, id, identityKey string) (Entry, error)
	Export(ctx context.Context, id, query string) ([]Entry, error)
}

// LeaderboardHandler handles leaderboard requests.
type LeaderboardHandler struct {
	deps     LeaderboardDependencies
	maxLimit int
}

// NewLeaderboardHandler creates a new leaderboard handler.
func NewLeaderboardHandler(deps LeaderboardDependencies, maxLimit int) *LeaderboardHandler {
	if maxLimit < 1 {
		maxLimit = defaultMaxLimit
	}
	return &LeaderboardHandler{
		deps:     deps,
		maxLimit: maxLimit,
	}
}

// HandleGetLeaderboard handles GET /sessions/{id}/leaderboard?q=&offset=&limit= requests.
func (h *LeaderboardHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_leaderboard"
	q := r.URL.Query()

	offset, err := optionalInt(q.Get("offset"))
	if err != nil || offset < 0 {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, fmt.Errorf("offset: %q", q.Get("offset"))))
		return
	}
	limit, err := optionalInt(q.Get("limit"))
	if err != nil || limit < 0 {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, fmt.Errorf("limit: %q", q.Get("limit"))))
		return
	}
	if limit > h.maxLimit {
		writeError(w, http.StatusBadRequest, "limit_exceeded", NewKind(op, ErrBadRequest))
		return
	}

	view, err := h.deps.View(r.Context(), r.PathValue("id"), service.ViewOptions{
		Query:  q.Get("q"),
		Offset: offset,
		Limit:  limit,
	})
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleGetBuilder handles GET /sessions/{id}/builders/{key} requests.
func (h *LeaderboardHandler) HandleGetBuilder(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_builder"
	entry, err := h.deps.Builder(r.Context(), r.PathValue("id"), r.PathValue("key"))
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// HandleExportCSV handles GET /sessions/{id}/export.csv?q= requests.
func (h *LeaderboardHandler) HandleExportCSV(w http.ResponseWriter, r *http.Request) {
	const op = "api.export_csv"
	id := r.PathValue("id")
	entries, err := h.deps.Export(r.Context(), id, r.URL.Query().Get("q"))
	if err != nil {
		writeServiceError(w, op, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "leaderboard-"+id+".csv"))
	w.WriteHeader(http.StatusOK)
	_ = types.WriteCSV(w, entries)
}

// optionalInt parses s, treating an empty string as zero.
func optionalInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
