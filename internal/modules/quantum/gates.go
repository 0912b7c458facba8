// Package quantum implements the circuit simulation core: the gate
// library, the evolution engine over state vectors and density matrices,
// partial-trace reduction, Bloch vector extraction, and entanglement
// analysis. Every operation is a pure function over explicit inputs;
// the package holds no mutable state.
package quantum

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
)

var (
	// ErrValidation signals a structurally invalid circuit or gate: an
	// out-of-range qubit index, a missing or non-finite angle, or a
	// malformed override matrix.
	ErrValidation = errors.New("circuit validation failure")

	// ErrInternal signals a violated internal invariant, such as a
	// reduced density matrix whose trace drifts from 1. It should be
	// unreachable for validated input and halts the evaluation.
	ErrInternal = errors.New("internal consistency failure")
)

// Kind identifies a gate from the closed supported set.
type Kind string

const (
	KindI    Kind = "i"
	KindX    Kind = "x"
	KindY    Kind = "y"
	KindZ    Kind = "z"
	KindH    Kind = "h"
	KindS    Kind = "s"
	KindSdg  Kind = "sdg"
	KindT    Kind = "t"
	KindTdg  Kind = "tdg"
	KindRX   Kind = "rx"
	KindRY   Kind = "ry"
	KindRZ   Kind = "rz"
	KindP    Kind = "p"
	KindCX   Kind = "cx"
	KindCZ   Kind = "cz"
	KindSwap Kind = "swap"
)

// Spec describes one gate kind: how many target qubits it acts on and
// whether it takes an angle parameter. The closed catalog replaces ad
// hoc shape checking on loosely typed gate payloads.
type Spec struct {
	Kind        Kind   `json:"kind"`
	Description string `json:"description"`
	Targets     int    `json:"targets"`
	NeedsAngle  bool   `json:"needs_angle"`
}

var catalog = []Spec{
	{KindI, "identity", 1, false},
	{KindX, "Pauli X", 1, false},
	{KindY, "Pauli Y", 1, false},
	{KindZ, "Pauli Z", 1, false},
	{KindH, "Hadamard", 1, false},
	{KindS, "phase S = P(pi/2)", 1, false},
	{KindSdg, "S dagger", 1, false},
	{KindT, "phase T = P(pi/4)", 1, false},
	{KindTdg, "T dagger", 1, false},
	{KindRX, "rotation about X", 1, true},
	{KindRY, "rotation about Y", 1, true},
	{KindRZ, "rotation about Z", 1, true},
	{KindP, "phase shift P(theta)", 1, true},
	{KindCX, "controlled NOT", 2, false},
	{KindCZ, "controlled Z", 2, false},
	{KindSwap, "swap two qubits", 2, false},
}

var catalogByKind = func() map[Kind]Spec {
	m := make(map[Kind]Spec, len(catalog))
	for _, s := range catalog {
		m[s.Kind] = s
	}
	return m
}()

// Catalog returns the closed set of supported gate kinds.
func Catalog() []Spec {
	out := make([]Spec, len(catalog))
	copy(out, catalog)
	return out
}

// LookupKind returns the spec for a kind, or false for an unknown kind.
func LookupKind(k Kind) (Spec, bool) {
	s, ok := catalogByKind[k]
	return s, ok
}

const invSqrt2 = 1 / math.Sqrt2

// Matrix returns the 2x2 unitary for a single-target kind, or the 4x4
// unitary for the two-qubit kinds, generated from the angle where the
// kind is parametrized. Rotations follow cos(theta/2)*I -
// i*sin(theta/2)*generator.
func Matrix(k Kind, theta float64) ([][]complex128, error) {
	c := complex(math.Cos(theta/2), 0)
	js := complex(0, -math.Sin(theta/2))

	switch k {
	case KindI:
		return [][]complex128{{1, 0}, {0, 1}}, nil
	case KindX:
		return [][]complex128{{0, 1}, {1, 0}}, nil
	case KindY:
		return [][]complex128{{0, -1i}, {1i, 0}}, nil
	case KindZ:
		return [][]complex128{{1, 0}, {0, -1}}, nil
	case KindH:
		h := complex(invSqrt2, 0)
		return [][]complex128{{h, h}, {h, -h}}, nil
	case KindS:
		return [][]complex128{{1, 0}, {0, 1i}}, nil
	case KindSdg:
		return [][]complex128{{1, 0}, {0, -1i}}, nil
	case KindT:
		return [][]complex128{{1, 0}, {0, cmplx.Exp(complex(0, math.Pi/4))}}, nil
	case KindTdg:
		return [][]complex128{{1, 0}, {0, cmplx.Exp(complex(0, -math.Pi/4))}}, nil
	case KindRX:
		return [][]complex128{{c, js}, {js, c}}, nil
	case KindRY:
		s := complex(math.Sin(theta/2), 0)
		return [][]complex128{{c, -s}, {s, c}}, nil
	case KindRZ:
		p := cmplx.Exp(complex(0, theta/2))
		return [][]complex128{{cmplx.Conj(p), 0}, {0, p}}, nil
	case KindP:
		return [][]complex128{{1, 0}, {0, cmplx.Exp(complex(0, theta))}}, nil
	case KindCX:
		return [][]complex128{
			{1, 0, 0, 0},
			{0, 0, 0, 1},
			{0, 0, 1, 0},
			{0, 1, 0, 0},
		}, nil
	case KindCZ:
		return [][]complex128{
			{1, 0, 0, 0},
			{0, 1, 0, 0},
			{0, 0, 1, 0},
			{0, 0, 0, -1},
		}, nil
	case KindSwap:
		return [][]complex128{
			{1, 0, 0, 0},
			{0, 0, 1, 0},
			{0, 1, 0, 0},
			{0, 0, 0, 1},
		}, nil
	}
	return nil, fmt.Errorf("%w: unknown gate kind %q", ErrValidation, k)
}
