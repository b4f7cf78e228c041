package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/user/steam-claimer/internal/delivery/http/request"
	"github.com/user/steam-claimer/internal/delivery/http/response"
	"github.com/user/steam-claimer/internal/entity"
	"github.com/user/steam-claimer/internal/repository"
)

const healthTimeout = 2 * time.Second

type Handler struct {
	store  repository.LedgerStore
	logger *zap.Logger
}

func NewHandler(store repository.LedgerStore, logger *zap.Logger) *Handler {
	return &Handler{
		store:  store,
		logger: logger,
	}
}

// HandleHealthCheck reports whether the ledger backend can be read.
func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	if _, err := h.store.Load(ctx); err != nil {
		h.logger.Error("health check failed for ledger", zap.Error(err))
		h.writeJSON(w, http.StatusServiceUnavailable, response.HealthResponse{Status: "degraded", Ledger: "unhealthy"})
		return
	}
	h.writeJSON(w, http.StatusOK, response.HealthResponse{Status: "ok", Ledger: "healthy"})
}

// HandleGetLedger returns one user's ledger entries.
func (h *Handler) HandleGetLedger(w http.ResponseWriter, r *http.Request) {
	user := chi.URLParam(r, "user")
	if user == "" {
		h.writeJSONError(w, "user is required", http.StatusBadRequest)
		return
	}

	query, err := request.ParseLedgerQuery(r)
	if err != nil {
		h.writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	doc, err := h.store.Load(r.Context())
	if err != nil {
		h.logger.Error("failed to load ledger", zap.String("user", user), zap.Error(err))
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	entries, ok := doc[user]
	if !ok {
		h.writeJSONError(w, "no ledger for user "+user, http.StatusNotFound)
		return
	}

	matched := make([]*entity.LedgerEntry, 0, len(entries))
	for id, e := range entries {
		if e == nil {
			continue
		}
		e.ID = id
		if query.Match(e) {
			matched = append(matched, e)
		}
	}

	h.writeJSON(w, http.StatusOK, response.LedgerResponse{
		User:    user,
		Count:   len(matched),
		Entries: response.NewLedgerEntries(matched),
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}

func (h *Handler) writeJSONError(w http.ResponseWriter, message string, status int) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
