package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/starford/mdnotion/internal/apperr"
	"github.com/starford/mdnotion/internal/ledger"
	"github.com/starford/mdnotion/internal/reconcile"
	"github.com/starford/mdnotion/internal/syncservice"
)

// SyncService is the part of syncservice.Service the API drives.
type SyncService interface {
	Plan(ctx context.Context) (reconcile.Plan, error)
	Sync(ctx context.Context, trigger string) (*syncservice.RunResult, error)
	Runs(ctx context.Context, limit int) ([]ledger.RunRow, error)
	Running() bool
	Latest() *syncservice.RunResult
}

// Handler holds API route handlers.
type Handler struct {
	svc SyncService
}

// NewHandler creates a new Handler.
func NewHandler(svc SyncService) *Handler {
	return &Handler{svc: svc}
}

type readyResponse struct {
	Status  string                 `json:"status"`
	Running bool                   `json:"running"`
	Latest  *syncservice.RunResult `json:"latest,omitempty"`
}

// Live handles GET /health/live.
func (h *Handler) Live(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready handles GET /health/ready. It also reports whether a run is active
// and the last successful run of this process.
func (h *Handler) Ready(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, readyResponse{
		Status:  "ok",
		Running: h.svc.Running(),
		Latest:  h.svc.Latest(),
	})
}

// Plan handles GET /api/plan: the diff a sync would apply right now.
func (h *Handler) Plan(w http.ResponseWriter, r *http.Request) {
	plan, err := h.svc.Plan(r.Context())
	if err != nil {
		h.fail(w, "plan failed", err)
		return
	}
	writeJSON(w, http.StatusOK, plan.Summary())
}

// Sync handles POST /api/sync. It runs a reconciliation and returns its
// result; 409 when a run is already active.
func (h *Handler) Sync(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Sync(r.Context(), syncservice.TriggerAPI)
	if errors.Is(err, apperr.ErrRunInProgress) {
		writeJSON(w, http.StatusConflict, errorBody(err.Error()))
		return
	}
	if err != nil {
		slog.Error("sync failed", slog.String("error", err.Error()))
		status := statusFor(err)
		if res == nil {
			writeJSON(w, status, errorBody(err.Error()))
			return
		}
		writeJSON(w, status, map[string]any{
			"error":  err.Error(),
			"result": res,
		})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Runs handles GET /api/runs?limit=N.
func (h *Handler) Runs(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, errorBody("limit must be a non-negative integer"))
			return
		}
		limit = n
	}

	runs, err := h.svc.Runs(r.Context(), limit)
	if err != nil {
		h.fail(w, "list runs failed", err)
		return
	}
	if runs == nil {
		runs = []ledger.RunRow{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (h *Handler) fail(w http.ResponseWriter, msg string, err error) {
	slog.Error(msg, slog.String("error", err.Error()))
	writeJSON(w, statusFor(err), errorBody(err.Error()))
}

// statusFor maps the error taxonomy to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrMalformedFrontMatter), errors.Is(err, apperr.ErrIdentityCollision):
		return http.StatusUnprocessableEntity
	case errors.Is(err, apperr.ErrRemoteStore):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
