// Package state provides the canonical complex-amplitude representation of
// a quantum state, the notation parsers that produce it, and normalization
// and validation over it. Everything in this package is a pure function:
// inputs are never mutated and no package-level state exists.
package state

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
	"math/cmplx"
)

// NormTolerance bounds how far the L2 norm of a valid state may drift
// from 1 before validation fails.
const NormTolerance = 1e-6

var (
	// ErrParse signals malformed or unrecognizable state notation. The
	// parser never substitutes a default state for bad input.
	ErrParse = errors.New("state notation parse failure")

	// ErrValidation signals a structurally invalid state: empty, a
	// non-power-of-2 dimension, or a norm off 1 beyond tolerance.
	ErrValidation = errors.New("state validation failure")
)

// Vector is an ordered sequence of complex amplitudes. A well-formed
// vector for n qubits has length 2^n and unit L2 norm; basis index bit q
// corresponds to qubit q, with qubit 0 the least-significant bit.
type Vector []complex128

// Zero returns the |0...0> state for the given qubit count.
func Zero(qubits int) Vector {
	v := make(Vector, 1<<uint(qubits))
	v[0] = 1
	return v
}

// Clone returns an independent copy of the vector.
func (v Vector) Clone() Vector {
	out := make(Vector, len(v))
	copy(out, v)
	return out
}

// Norm returns the L2 norm over all real and imaginary components.
func (v Vector) Norm() float64 {
	var sum float64
	for _, a := range v {
		sum += real(a)*real(a) + imag(a)*imag(a)
	}
	return math.Sqrt(sum)
}

// Normalize returns a copy rescaled by 1/‖v‖. A zero vector is returned
// unchanged: there is no direction to normalize toward, and fabricating
// one would mask upstream failures.
func (v Vector) Normalize() Vector {
	n := v.Norm()
	if n == 0 {
		return v.Clone()
	}
	out := make(Vector, len(v))
	inv := complex(1/n, 0)
	for i, a := range v {
		out[i] = a * inv
	}
	return out
}

// QubitCount returns the number of qubits the vector describes, or false
// when the dimension is not a power of two.
func (v Vector) QubitCount() (int, bool) {
	n := len(v)
	if n == 0 || n&(n-1) != 0 {
		return 0, false
	}
	return bits.TrailingZeros(uint(n)), true
}

// Valid reports whether the vector is non-empty, has power-of-2
// dimension, and has norm within tolerance of 1.
func (v Vector) Valid() bool {
	return v.Validate() == nil
}

// Validate returns a descriptive ErrValidation when the vector is not a
// well-formed quantum state.
func (v Vector) Validate() error {
	if len(v) == 0 {
		return fmt.Errorf("%w: empty vector", ErrValidation)
	}
	if _, ok := v.QubitCount(); !ok {
		return fmt.Errorf("%w: dimension %d is not a power of 2", ErrValidation, len(v))
	}
	if n := v.Norm(); math.Abs(n-1) > NormTolerance {
		return fmt.Errorf("%w: norm %.9f deviates from 1", ErrValidation, n)
	}
	return nil
}

// Probabilities returns the Born-rule probability of each basis state.
func (v Vector) Probabilities() []float64 {
	probs := make([]float64, len(v))
	for i, a := range v {
		probs[i] = real(a)*real(a) + imag(a)*imag(a)
	}
	return probs
}

// QubitProbabilities returns, per qubit, the marginal probability of
// measuring that qubit as |1>.
func (v Vector) QubitProbabilities() ([]float64, error) {
	qubits, ok := v.QubitCount()
	if !ok {
		return nil, fmt.Errorf("%w: dimension %d is not a power of 2", ErrValidation, len(v))
	}

	probs := make([]float64, qubits)
	for i, a := range v {
		p := real(a)*real(a) + imag(a)*imag(a)
		for q := 0; q < qubits; q++ {
			if i&(1<<uint(q)) != 0 {
				probs[q] += p
			}
		}
	}
	return probs, nil
}

// Fidelity returns |<a|b>|^2 for two vectors of equal dimension. It is
// phase-insensitive, which makes it the right equality notion for states
// that differ only by a global phase.
func Fidelity(a, b Vector) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: dimension mismatch %d vs %d", ErrValidation, len(a), len(b))
	}
	var inner complex128
	for i := range a {
		inner += cmplx.Conj(a[i]) * b[i]
	}
	m := cmplx.Abs(inner)
	return m * m, nil
}
