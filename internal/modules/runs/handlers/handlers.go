// Package handlers provides HTTP handlers for the run archive.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/qlens/qlens/internal/modules/quantum"
	"github.com/qlens/qlens/internal/modules/runs"
)

// Handler handles run archive HTTP requests
type Handler struct {
	repo *runs.Repository
	log  zerolog.Logger
}

// NewHandler creates a new run archive handler
func NewHandler(repo *runs.Repository, log zerolog.Logger) *Handler {
	return &Handler{
		repo: repo,
		log:  log.With().Str("handler", "runs").Logger(),
	}
}

// HandleListRuns handles GET /api/runs
func (h *Handler) HandleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50 // default
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 {
			limit = parsedLimit
		}
	}

	summaries, err := h.repo.List(limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list runs")
		http.Error(w, "Failed to list runs", http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"runs":  summaries,
			"count": len(summaries),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleGetRun handles GET /api/runs/{id}
func (h *Handler) HandleGetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rec, err := h.repo.Get(id)
	if err != nil {
		if errors.Is(err, runs.ErrNotFound) {
			http.Error(w, "Run not found", http.StatusNotFound)
			return
		}
		h.log.Error().Err(err).Str("run_id", id).Msg("Failed to load run")
		http.Error(w, "Failed to load run", http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"data": rec,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleExportQASM handles GET /api/circuits/{id}/qasm
//
// Exports the archived circuit as OpenQASM 2.0 text. Circuits with
// custom matrix overrides have no qelib1 equivalent and return 422.
func (h *Handler) HandleExportQASM(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rec, err := h.repo.Get(id)
	if err != nil {
		if errors.Is(err, runs.ErrNotFound) {
			http.Error(w, "Run not found", http.StatusNotFound)
			return
		}
		h.log.Error().Err(err).Str("run_id", id).Msg("Failed to load run for QASM export")
		http.Error(w, "Failed to load run", http.StatusInternalServerError)
		return
	}

	qasm, err := quantum.ToQASM(rec.Circuit)
	if err != nil {
		h.log.Warn().Err(err).Str("run_id", id).Msg("Circuit not expressible as QASM")
		http.Error(w, "Circuit not expressible as OpenQASM 2.0: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(qasm)); err != nil {
		h.log.Error().Err(err).Msg("Failed to write QASM response")
	}
}

// writeJSON writes a JSON response with proper headers
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
