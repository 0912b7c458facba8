package quantum

import (
	"fmt"

	"github.com/qlens/qlens/internal/modules/state"
)

// QubitReport bundles the per-qubit diagnostics derived from a terminal
// state: the marginal probability of measuring |1>, the Bloch vector of
// the reduced matrix, and the entanglement metrics.
type QubitReport struct {
	Index          int     `json:"index"`
	ProbabilityOne float64 `json:"probability_one"`
	Bloch          Bloch   `json:"bloch"`
	Entanglement   Metrics `json:"entanglement"`
}

// Result is the analysis bundle handed to transport and persistence
// collaborators. Everything in it is derived read-only from the
// terminal state and never mutated afterward.
type Result struct {
	Qubits             int           `json:"qubits"`
	StateVector        []Amplitude   `json:"state_vector,omitempty"`
	BasisProbabilities []float64     `json:"basis_probabilities"`
	QubitReports       []QubitReport `json:"qubit_reports"`
}

// Analyze derives the full per-qubit bundle from a terminal state
// vector. The vector must be a valid normalized state.
func Analyze(v state.Vector) (*Result, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}
	qubits, _ := v.QubitCount()

	qubitProbs, err := v.QubitProbabilities()
	if err != nil {
		return nil, err
	}

	res := &Result{
		Qubits:             qubits,
		StateVector:        Amplitudes(v),
		BasisProbabilities: v.Probabilities(),
		QubitReports:       make([]QubitReport, qubits),
	}

	for q := 0; q < qubits; q++ {
		reduced, err := ReduceVector(v, q)
		if err != nil {
			return nil, fmt.Errorf("qubit %d: %w", q, err)
		}
		metrics, err := AnalyzeReduced(reduced, qubits)
		if err != nil {
			return nil, fmt.Errorf("qubit %d: %w", q, err)
		}
		res.QubitReports[q] = QubitReport{
			Index:          q,
			ProbabilityOne: qubitProbs[q],
			Bloch:          BlochFromReduced(reduced),
			Entanglement:   metrics,
		}
	}
	return res, nil
}

// AnalyzeDensity derives the bundle from a density matrix. The state
// vector field stays empty; a mixed state has none. The entanglement
// formulas hold only for a pure global state, so when Tr(rho^2) falls
// below 1 the metrics carry the not-applicable marker instead of
// numbers that would misread classical mixing as entanglement.
func AnalyzeDensity(d *Density) (*Result, error) {
	qubits := d.Qubits()
	dim := d.Dim()
	pure := d.Purity() >= 1-ConsistencyTolerance

	res := &Result{
		Qubits:             qubits,
		BasisProbabilities: make([]float64, dim),
		QubitReports:       make([]QubitReport, qubits),
	}
	for i := 0; i < dim; i++ {
		res.BasisProbabilities[i] = real(d.At(i, i))
	}

	for q := 0; q < qubits; q++ {
		reduced, err := d.Reduce(q)
		if err != nil {
			return nil, fmt.Errorf("qubit %d: %w", q, err)
		}
		metrics := NotApplicable()
		if pure {
			metrics, err = AnalyzeReduced(reduced, qubits)
			if err != nil {
				return nil, fmt.Errorf("qubit %d: %w", q, err)
			}
		}
		res.QubitReports[q] = QubitReport{
			Index:          q,
			ProbabilityOne: real(reduced[1][1]),
			Bloch:          BlochFromReduced(reduced),
			Entanglement:   metrics,
		}
	}
	return res, nil
}
