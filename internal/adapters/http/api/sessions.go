package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	service "github.com/folajindayo/builder-score-app-sub000/internal/app"
)

// SessionDependencies defines the session lifecycle operations.
type SessionDependencies interface {
	StartSession(ctx context.Context, opts service.StartOptions) (service.Handle, error)
	EndSession(ctx context.Context, id string) error
	SetFilters(ctx context.Context, id string, opts service.FilterOptions) error
	LoadNextRound(ctx context.Context, id string, opts service.RoundOptions) (service.RoundResult, error)
}

// SessionHandler handles session lifecycle requests.
type SessionHandler struct {
	deps            SessionDependencies
	defaultSponsors []string
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(deps SessionDependencies, defaultSponsors []string) *SessionHandler {
	return &SessionHandler{deps: deps, defaultSponsors: defaultSponsors}
}

// sessionRequest mirrors the body of POST /sessions and PUT /sessions/{id}/filters.
type sessionRequest struct {
	Sponsors   []string `json:"sponsors"`
	TimeWindow string   `json:"time_window"`
}

type statusResponse struct {
	Status string `json:"status"`
}

// decodeSessionRequest accepts an empty body as an empty request.
func decodeSessionRequest(r *http.Request) (sessionRequest, error) {
	var req sessionRequest
	if r.Body == nil {
		return req, nil
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return req, err
	}
	return req, nil
}

// HandleCreate handles POST /sessions requests.
func (h *SessionHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_session"
	req, err := decodeSessionRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if len(req.Sponsors) == 0 {
		req.Sponsors = h.defaultSponsors
	}

	handle, err := h.deps.StartSession(r.Context(), service.StartOptions{Sponsors: req.Sponsors, TimeWindow: req.TimeWindow})
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, handle)
}

// HandleDelete handles DELETE /sessions/{id} requests.
func (h *SessionHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_session"
	if err := h.deps.EndSession(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, op, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleSetFilters handles PUT /sessions/{id}/filters requests.
func (h *SessionHandler) HandleSetFilters(w http.ResponseWriter, r *http.Request) {
	const op = "api.set_filters"
	req, err := decodeSessionRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	opts := service.FilterOptions{Sponsors: req.Sponsors, TimeWindow: req.TimeWindow}
	if err := h.deps.SetFilters(r.Context(), r.PathValue("id"), opts); err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "reset"})
}

// HandleLoadRound handles POST /sessions/{id}/rounds?q= requests.
func (h *SessionHandler) HandleLoadRound(w http.ResponseWriter, r *http.Request) {
	const op = "api.load_round"
	res, err := h.deps.LoadNextRound(r.Context(), r.PathValue("id"), service.RoundOptions{Query: r.URL.Query().Get("q")})
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
