package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"dirsync/internal/deltastate"
	"dirsync/internal/platform/middleware"
	"dirsync/internal/sync/models"
	"dirsync/internal/sync/service"
	"dirsync/internal/synclog"
)

// SyncAPI is the audited sync surface the handlers delegate to.
type SyncAPI interface {
	service.Syncer
	History(ctx context.Context, count int) ([]synclog.Entry, error)
}

// DeltaAdmin covers delta watermark introspection and recovery.
type DeltaAdmin interface {
	DeltaStatus(ctx context.Context) (deltastate.Status, error)
	ResetDelta(ctx context.Context) error
}

// Handler is the thin HTTP layer over the sync engine. It delegates to the
// audited service so transport concerns remain isolated.
type Handler struct {
	sync      SyncAPI
	delta     DeltaAdmin
	logger    *slog.Logger
	validator middleware.TokenValidator
}

func NewHandler(sync SyncAPI, delta DeltaAdmin, validator middleware.TokenValidator, logger *slog.Logger) *Handler {
	return &Handler{
		sync:      sync,
		delta:     delta,
		logger:    logger,
		validator: validator,
	}
}

// Register mounts the operator endpoints. Everything here mutates or
// inspects the employee store, so the whole group requires a bearer token.
func (h *Handler) Register(r chi.Router) {
	syncRouter := chi.NewRouter()
	syncRouter.Use(middleware.RequestID)
	syncRouter.Use(middleware.Recovery(h.logger))
	syncRouter.Use(middleware.Logger(h.logger))
	syncRouter.Use(middleware.RequireAuth(h.validator, h.logger))

	syncRouter.Post("/full", h.handleSyncFull)
	syncRouter.Post("/users/{identifier}", h.handleSyncUser)
	syncRouter.Post("/groups/{groupID}", h.handleSyncGroup)
	syncRouter.Post("/delta", h.handleSyncDelta)
	syncRouter.Get("/history", h.handleHistory)
	syncRouter.Get("/delta/status", h.handleDeltaStatus)
	syncRouter.Post("/delta/reset", h.handleDeltaReset)

	r.Mount("/sync", syncRouter)
}

func (h *Handler) handleSyncFull(w http.ResponseWriter, r *http.Request) {
	summary, err := h.sync.SyncAllUsers(r.Context())
	h.writeRun(w, r, summary, err)
}

func (h *Handler) handleSyncUser(w http.ResponseWriter, r *http.Request) {
	identifier := chi.URLParam(r, "identifier")
	if identifier == "" {
		writeError(w, http.StatusBadRequest, "identifier is required")
		return
	}
	summary, err := h.sync.SyncSingleUser(r.Context(), identifier)
	h.writeRun(w, r, summary, err)
}

func (h *Handler) handleSyncGroup(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupID")
	if groupID == "" {
		writeError(w, http.StatusBadRequest, "group id is required")
		return
	}
	summary, err := h.sync.SyncUsersFromGroup(r.Context(), groupID)
	h.writeRun(w, r, summary, err)
}

func (h *Handler) handleSyncDelta(w http.ResponseWriter, r *http.Request) {
	summary, err := h.sync.SyncDelta(r.Context())
	if err != nil && errors.Is(err, service.ErrFullSyncRecommended) {
		// Surface the fallback hint so schedulers can react.
		w.Header().Set("X-Dirsync-Fallback", "full")
	}
	h.writeRun(w, r, summary, err)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	count := 20
	if raw := r.URL.Query().Get("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "count must be a positive integer")
			return
		}
		count = n
	}
	entries, err := h.sync.History(r.Context(), count)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "history read failed", "error", err)
		writeError(w, http.StatusInternalServerError, "history unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (h *Handler) handleDeltaStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.delta.DeltaStatus(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "delta status read failed", "error", err)
		writeError(w, http.StatusInternalServerError, "delta state unavailable")
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *Handler) handleDeltaReset(w http.ResponseWriter, r *http.Request) {
	if err := h.delta.ResetDelta(r.Context()); err != nil {
		h.logger.ErrorContext(r.Context(), "delta reset failed", "error", err)
		writeError(w, http.StatusInternalServerError, "delta reset failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// writeRun renders a run summary. A Failed run returns 502 with the summary
// attached, so callers always see the computed totals.
func (h *Handler) writeRun(w http.ResponseWriter, r *http.Request, summary *models.RunSummary, err error) {
	if err != nil {
		h.logger.ErrorContext(r.Context(), "sync run failed",
			"error", err,
			"request_id", middleware.GetRequestID(r.Context()),
		)
		writeJSON(w, http.StatusBadGateway, summary)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
