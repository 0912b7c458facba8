// Package backends defines the execution-backend boundary: an
// in-process statevector simulator and a remote HTTP service expose the
// same interface and return structurally identical result bundles, so
// callers can switch between them per request.
package backends

import (
	"context"
	"errors"

	"github.com/qlens/qlens/internal/modules/quantum"
)

var (
	// ErrUnknownBackend signals a selector that matches no registered
	// backend.
	ErrUnknownBackend = errors.New("unknown backend")

	// ErrUnsupported signals a request feature the selected backend
	// cannot serve, such as shot sampling on the density path.
	ErrUnsupported = errors.New("backend does not support request")
)

// Request is a serialized circuit execution: the circuit, an optional
// initial state (|0...0> when absent), an optional shot count with its
// seed, and whether to evolve a density matrix instead of a vector.
type Request struct {
	Circuit      quantum.Circuit     `json:"circuit"`
	InitialState []quantum.Amplitude `json:"initial_state,omitempty"`
	Shots        int                 `json:"shots,omitempty"`
	Seed         int64               `json:"seed,omitempty"`
	Density      bool                `json:"density,omitempty"`
}

// Result is the execution bundle. Its shape matches the in-process
// analyzer output so local and remote execution stay interchangeable.
type Result struct {
	Backend            string                `json:"backend"`
	Qubits             int                   `json:"qubits"`
	StateVector        []quantum.Amplitude   `json:"state_vector,omitempty"`
	DensityMatrix      [][]quantum.Amplitude `json:"density_matrix,omitempty"`
	BasisProbabilities []float64             `json:"basis_probabilities"`
	QubitReports       []quantum.QubitReport `json:"qubit_reports"`
	Counts             map[string]int        `json:"counts,omitempty"`
	DurationMs         float64               `json:"duration_ms"`
}

// Capabilities reports what a backend can serve.
type Capabilities struct {
	MaxQubits       int  `json:"max_qubits"`
	SupportsShots   bool `json:"supports_shots"`
	SupportsDensity bool `json:"supports_density"`
	Simulator       bool `json:"simulator"`
}

// Backend executes circuits. Implementations must be safe for
// concurrent use; each Execute call is independent.
type Backend interface {
	Name() string
	Capabilities() Capabilities
	Available(ctx context.Context) bool
	Execute(ctx context.Context, req Request) (*Result, error)
}
