package backends

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/qlens/qlens/internal/modules/quantum"
	"github.com/qlens/qlens/internal/modules/state"
)

// StatevectorName is the registry name of the in-process simulator.
const StatevectorName = "statevector"

// Statevector is the in-process backend. It runs the deterministic
// evaluation core directly; the qubit cap bounds memory, since the
// state grows as 2^n amplitudes (4^n on the density path).
type Statevector struct {
	maxQubits int
	log       zerolog.Logger
}

// NewStatevector creates the local simulator backend.
func NewStatevector(maxQubits int, log zerolog.Logger) *Statevector {
	return &Statevector{
		maxQubits: maxQubits,
		log:       log.With().Str("component", "statevector_backend").Logger(),
	}
}

// Name implements Backend.
func (s *Statevector) Name() string {
	return StatevectorName
}

// Capabilities implements Backend.
func (s *Statevector) Capabilities() Capabilities {
	return Capabilities{
		MaxQubits:       s.maxQubits,
		SupportsShots:   true,
		SupportsDensity: true,
		Simulator:       true,
	}
}

// Available implements Backend. The in-process simulator is always
// reachable.
func (s *Statevector) Available(context.Context) bool {
	return true
}

// Execute implements Backend.
func (s *Statevector) Execute(_ context.Context, req Request) (*Result, error) {
	start := time.Now()

	if req.Circuit.Qubits > s.maxQubits {
		return nil, fmt.Errorf("%w: circuit has %d qubits, backend cap is %d",
			ErrUnsupported, req.Circuit.Qubits, s.maxQubits)
	}
	if req.Density && req.Shots > 0 {
		return nil, fmt.Errorf("%w: shot sampling is a statevector operation, not available on the density path", ErrUnsupported)
	}

	initial, err := s.initialState(req)
	if err != nil {
		return nil, err
	}

	var res *Result
	if req.Density {
		res, err = s.runDensity(req, initial)
	} else {
		res, err = s.runVector(req, initial)
	}
	if err != nil {
		return nil, err
	}

	res.Backend = StatevectorName
	res.DurationMs = float64(time.Since(start).Microseconds()) / 1000

	s.log.Debug().
		Str("circuit", req.Circuit.String()).
		Int("shots", req.Shots).
		Float64("duration_ms", res.DurationMs).
		Msg("Circuit executed")
	return res, nil
}

func (s *Statevector) initialState(req Request) (state.Vector, error) {
	if req.InitialState == nil {
		if req.Circuit.Qubits < 1 {
			return nil, fmt.Errorf("%w: qubit count must be at least 1", quantum.ErrValidation)
		}
		return state.Zero(req.Circuit.Qubits), nil
	}
	v := make(state.Vector, len(req.InitialState))
	for i, a := range req.InitialState {
		v[i] = a.Complex()
	}
	if err := v.Validate(); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *Statevector) runVector(req Request, initial state.Vector) (*Result, error) {
	terminal, err := quantum.Evolve(req.Circuit, initial)
	if err != nil {
		return nil, err
	}
	analysis, err := quantum.Analyze(terminal)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Qubits:             analysis.Qubits,
		StateVector:        analysis.StateVector,
		BasisProbabilities: analysis.BasisProbabilities,
		QubitReports:       analysis.QubitReports,
	}
	if req.Shots > 0 {
		counts, err := quantum.Sample(terminal, req.Shots, req.Seed)
		if err != nil {
			return nil, err
		}
		res.Counts = counts
	}
	return res, nil
}

func (s *Statevector) runDensity(req Request, initial state.Vector) (*Result, error) {
	rho, err := quantum.NewDensityFromVector(initial)
	if err != nil {
		return nil, err
	}
	terminal, err := quantum.EvolveDensity(req.Circuit, rho)
	if err != nil {
		return nil, err
	}
	analysis, err := quantum.AnalyzeDensity(terminal)
	if err != nil {
		return nil, err
	}

	rows := terminal.Rows()
	wire := make([][]quantum.Amplitude, len(rows))
	for r, row := range rows {
		wire[r] = quantum.Amplitudes(row)
	}

	return &Result{
		Qubits:             analysis.Qubits,
		DensityMatrix:      wire,
		BasisProbabilities: analysis.BasisProbabilities,
		QubitReports:       analysis.QubitReports,
	}, nil
}
