// Package handlers provides HTTP handlers for circuit execution and
// state analysis.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/qlens/qlens/internal/backends"
	"github.com/qlens/qlens/internal/events"
	"github.com/qlens/qlens/internal/modules/quantum"
	"github.com/qlens/qlens/internal/modules/runs"
	"github.com/qlens/qlens/internal/modules/state"
)

// Handler handles circuit and state HTTP requests
type Handler struct {
	registry     *backends.Registry
	repo         *runs.Repository
	eventManager *events.Manager
	maxQubits    int
	maxShots     int
	log          zerolog.Logger
}

// NewHandler creates a new circuit/state handler
func NewHandler(
	registry *backends.Registry,
	repo *runs.Repository,
	eventManager *events.Manager,
	maxQubits int,
	maxShots int,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		registry:     registry,
		repo:         repo,
		eventManager: eventManager,
		maxQubits:    maxQubits,
		maxShots:     maxShots,
		log:          log.With().Str("handler", "quantum").Logger(),
	}
}

// InitialStateSpec selects a parsed initial state for a run.
type InitialStateSpec struct {
	Notation state.Notation `json:"notation"`
	Text     string         `json:"text"`
}

// RunRequest represents a request to execute a circuit
type RunRequest struct {
	Circuit      quantum.Circuit   `json:"circuit"`
	InitialState *InitialStateSpec `json:"initial_state,omitempty"`
	Backend      string            `json:"backend,omitempty"`
	Shots        int               `json:"shots,omitempty"`
	Seed         int64             `json:"seed,omitempty"`
	Density      bool              `json:"density,omitempty"`
}

// ValidateRequest represents a request to validate a circuit
type ValidateRequest struct {
	Circuit quantum.Circuit `json:"circuit"`
}

// ParseStateRequest represents a request to parse a state literal
type ParseStateRequest struct {
	Notation state.Notation `json:"notation"`
	Text     string         `json:"text"`
	Qubits   int            `json:"qubits,omitempty"`
}

// AnalyzeStateRequest represents a request to analyze a state given
// either as an amplitude vector or a full density matrix.
type AnalyzeStateRequest struct {
	Vector  []quantum.Amplitude   `json:"vector,omitempty"`
	Density [][]quantum.Amplitude `json:"density,omitempty"`
}

// HandleRunCircuit handles POST /api/circuits/run
func (h *Handler) HandleRunCircuit(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode run request")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	req.Circuit.ResolveMatrices()

	if req.Circuit.Qubits > h.maxQubits {
		http.Error(w, "Circuit exceeds the configured qubit limit", http.StatusBadRequest)
		return
	}
	if req.Shots < 0 || req.Shots > h.maxShots {
		http.Error(w, "Shot count outside the configured limit", http.StatusBadRequest)
		return
	}

	if err := req.Circuit.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	execReq := backends.Request{
		Circuit: req.Circuit,
		Shots:   req.Shots,
		Seed:    req.Seed,
		Density: req.Density,
	}

	if req.InitialState != nil {
		vec, err := state.ParseQubits(req.InitialState.Notation, req.InitialState.Text, req.Circuit.Qubits)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := vec.Validate(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		execReq.InitialState = quantum.Amplitudes(vec)
	}

	fingerprint, err := quantum.Fingerprint(req.Circuit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to fingerprint circuit")
		http.Error(w, "Failed to process circuit", http.StatusInternalServerError)
		return
	}

	backend, err := h.registry.Get(req.Backend)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	runID := ""
	if h.eventManager != nil {
		h.eventManager.EmitTyped("quantum", &events.RunStartedData{
			Fingerprint: fingerprint,
			Backend:     backend.Name(),
			Qubits:      req.Circuit.Qubits,
			Gates:       len(req.Circuit.Gates),
			Shots:       req.Shots,
		})
	}

	result, err := backend.Execute(r.Context(), execReq)
	if err != nil {
		runID = h.archive(req.Circuit, fingerprint, backend.Name(), req.Shots, nil, err)
		if h.eventManager != nil {
			h.eventManager.EmitTyped("quantum", &events.RunFailedData{
				RunID:   runID,
				Backend: backend.Name(),
				Error:   err.Error(),
			})
		}
		h.writeExecError(w, err)
		return
	}

	runID = h.archive(req.Circuit, fingerprint, backend.Name(), req.Shots, result, nil)
	if h.eventManager != nil {
		h.eventManager.EmitTyped("quantum", &events.RunCompletedData{
			RunID:      runID,
			Backend:    backend.Name(),
			DurationMs: result.DurationMs,
			Entangled:  anyEntangled(result),
		})
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"run_id":      runID,
			"fingerprint": fingerprint,
			"result":      result,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// archive stores the run outcome; archive failures are logged, never
// surfaced, so execution results still reach the caller.
func (h *Handler) archive(
	circuit quantum.Circuit,
	fingerprint, backendName string,
	shots int,
	result *backends.Result,
	execErr error,
) string {
	if h.repo == nil {
		return ""
	}

	rec := runs.Record{
		Fingerprint: fingerprint,
		Backend:     backendName,
		Qubits:      circuit.Qubits,
		Gates:       len(circuit.Gates),
		Shots:       shots,
		Circuit:     circuit,
	}
	if execErr != nil {
		rec.Status = runs.StatusFailed
		rec.Error = execErr.Error()
	} else {
		rec.Status = runs.StatusCompleted
		rec.Result = result
		rec.DurationMs = result.DurationMs
	}

	id, err := h.repo.Save(rec)
	if err != nil {
		h.log.Error().Err(err).Str("fingerprint", fingerprint).Msg("Failed to archive run")
		return ""
	}
	return id
}

// HandleValidateCircuit handles POST /api/circuits/validate
func (h *Handler) HandleValidateCircuit(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode validate request")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	req.Circuit.ResolveMatrices()

	data := map[string]interface{}{
		"valid":  true,
		"qubits": req.Circuit.Qubits,
		"gates":  len(req.Circuit.Gates),
	}
	if err := req.Circuit.Validate(); err != nil {
		data["valid"] = false
		data["error"] = err.Error()
	}

	response := map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleParseState handles POST /api/states/parse
func (h *Handler) HandleParseState(w http.ResponseWriter, r *http.Request) {
	var req ParseStateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode parse request")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var vec state.Vector
	var err error
	if req.Qubits > 0 {
		vec, err = state.ParseQubits(req.Notation, req.Text, req.Qubits)
	} else {
		vec, err = state.Parse(req.Notation, req.Text)
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	qubits, _ := vec.QubitCount()
	data := map[string]interface{}{
		"vector":        quantum.Amplitudes(vec),
		"probabilities": vec.Probabilities(),
		"qubits":        qubits,
		"norm":          vec.Norm(),
		"valid":         vec.Valid(),
	}

	response := map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleAnalyzeState handles POST /api/states/analyze
func (h *Handler) HandleAnalyzeState(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeStateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode analyze request")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var result *quantum.Result
	var err error

	switch {
	case len(req.Vector) > 0 && len(req.Density) > 0:
		http.Error(w, "Provide either a vector or a density matrix, not both", http.StatusBadRequest)
		return
	case len(req.Vector) > 0:
		vec := make(state.Vector, len(req.Vector))
		for i, a := range req.Vector {
			vec[i] = a.Complex()
		}
		result, err = quantum.Analyze(vec)
	case len(req.Density) > 0:
		rows := make([][]complex128, len(req.Density))
		for i, row := range req.Density {
			rows[i] = make([]complex128, len(row))
			for j, a := range row {
				rows[i][j] = a.Complex()
			}
		}
		var d *quantum.Density
		d, err = quantum.NewDensity(rows)
		if err == nil {
			result, err = quantum.AnalyzeDensity(d)
		}
	default:
		http.Error(w, "Provide a vector or a density matrix", http.StatusBadRequest)
		return
	}

	if err != nil {
		if errors.Is(err, quantum.ErrInternal) {
			h.log.Error().Err(err).Msg("State analysis failed")
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	response := map[string]interface{}{
		"data": result,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleGetGates handles GET /api/gates
func (h *Handler) HandleGetGates(w http.ResponseWriter, r *http.Request) {
	gates := quantum.Catalog()

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"gates": gates,
			"count": len(gates),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleGetBackends handles GET /api/backends
func (h *Handler) HandleGetBackends(w http.ResponseWriter, r *http.Request) {
	infos := h.registry.List(r.Context())

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"backends": infos,
			"count":    len(infos),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// writeExecError maps execution failures to HTTP statuses: caller
// mistakes surface as 4xx, engine faults as 500.
func (h *Handler) writeExecError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, backends.ErrUnsupported):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, quantum.ErrValidation),
		errors.Is(err, state.ErrValidation),
		errors.Is(err, state.ErrParse),
		errors.Is(err, backends.ErrUnknownBackend):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		h.log.Error().Err(err).Msg("Circuit execution failed")
		http.Error(w, "Circuit execution failed", http.StatusInternalServerError)
	}
}

// anyEntangled reports whether any qubit in the bundle crossed the
// entanglement witness threshold.
func anyEntangled(result *backends.Result) bool {
	for _, report := range result.QubitReports {
		if report.Entanglement.IsEntangled {
			return true
		}
	}
	return false
}

// writeJSON writes a JSON response with proper headers
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
