package quantum

import (
	"fmt"
	"math"
)

// Amplitude is the wire representation of one complex amplitude. The
// engine works on complex128 internally; this form survives JSON and
// msgpack round trips.
type Amplitude struct {
	Re float64 `json:"re"`
	Im float64 `json:"im"`
}

// Complex returns the amplitude as a complex128.
func (a Amplitude) Complex() complex128 {
	return complex(a.Re, a.Im)
}

// Amplitudes converts a slice of complex values to wire form.
func Amplitudes(v []complex128) []Amplitude {
	out := make([]Amplitude, len(v))
	for i, c := range v {
		out[i] = Amplitude{Re: real(c), Im: imag(c)}
	}
	return out
}

// Gate is one step of a circuit. Qubits are the ordered target indices;
// Controls are additional control indices on top of any the kind itself
// implies (cx and cz treat Qubits[0] as control, Qubits[1] as target).
// Angle must be present exactly when the kind is parametrized. Matrix,
// when set, overrides the kind-based unitary: it must be 2^k x 2^k for
// k = len(Qubits), with sub-space bit t corresponding to Qubits[t].
type Gate struct {
	Kind     Kind             `json:"kind"`
	Qubits   []int            `json:"qubits"`
	Controls []int            `json:"controls,omitempty"`
	Angle    *float64         `json:"angle,omitempty"`
	Matrix   [][]complex128   `json:"-"`
	MatrixW  [][]Amplitude    `json:"matrix,omitempty"`
}

// Circuit is a qubit count plus an ordered gate sequence. Order is
// semantically significant; the engine never reorders.
type Circuit struct {
	Qubits int    `json:"qubits"`
	Gates  []Gate `json:"gates"`
}

// ResolveMatrices copies any wire-form override matrices into their
// complex form. Handlers call this after decoding a circuit from JSON.
func (c *Circuit) ResolveMatrices() {
	for i := range c.Gates {
		g := &c.Gates[i]
		if g.Matrix != nil || g.MatrixW == nil {
			continue
		}
		m := make([][]complex128, len(g.MatrixW))
		for r, row := range g.MatrixW {
			m[r] = make([]complex128, len(row))
			for cIdx, a := range row {
				m[r][cIdx] = a.Complex()
			}
		}
		g.Matrix = m
	}
}

// Validate checks the circuit against the closed gate catalog: qubit
// count at least 1, every referenced index in range, angles present and
// finite exactly where the kind demands, override matrices square with
// the right power-of-2 dimension, and controls disjoint from targets.
func (c *Circuit) Validate() error {
	if c.Qubits < 1 {
		return fmt.Errorf("%w: qubit count must be at least 1, got %d", ErrValidation, c.Qubits)
	}
	for i := range c.Gates {
		if err := c.validateGate(i); err != nil {
			return err
		}
	}
	return nil
}

func (c *Circuit) validateGate(i int) error {
	g := &c.Gates[i]
	spec, ok := LookupKind(g.Kind)
	if !ok {
		return fmt.Errorf("%w: gate %d has unknown kind %q", ErrValidation, i, g.Kind)
	}

	if len(g.Qubits) != spec.Targets {
		return fmt.Errorf("%w: gate %d (%s) needs %d target qubit(s), got %d",
			ErrValidation, i, g.Kind, spec.Targets, len(g.Qubits))
	}

	seen := make(map[int]bool, len(g.Qubits)+len(g.Controls))
	for _, q := range g.Qubits {
		if q < 0 || q >= c.Qubits {
			return fmt.Errorf("%w: gate %d (%s) references qubit %d outside [0,%d)",
				ErrValidation, i, g.Kind, q, c.Qubits)
		}
		if seen[q] {
			return fmt.Errorf("%w: gate %d (%s) repeats qubit %d", ErrValidation, i, g.Kind, q)
		}
		seen[q] = true
	}
	for _, q := range g.Controls {
		if q < 0 || q >= c.Qubits {
			return fmt.Errorf("%w: gate %d (%s) control qubit %d outside [0,%d)",
				ErrValidation, i, g.Kind, q, c.Qubits)
		}
		if seen[q] {
			return fmt.Errorf("%w: gate %d (%s) control qubit %d overlaps a target",
				ErrValidation, i, g.Kind, q)
		}
		seen[q] = true
	}

	if spec.NeedsAngle {
		if g.Angle == nil {
			return fmt.Errorf("%w: gate %d (%s) requires an angle", ErrValidation, i, g.Kind)
		}
		if math.IsNaN(*g.Angle) || math.IsInf(*g.Angle, 0) {
			return fmt.Errorf("%w: gate %d (%s) angle is not finite", ErrValidation, i, g.Kind)
		}
	} else if g.Angle != nil {
		return fmt.Errorf("%w: gate %d (%s) does not take an angle", ErrValidation, i, g.Kind)
	}

	if g.Matrix != nil {
		want := 1 << uint(len(g.Qubits))
		if len(g.Matrix) != want {
			return fmt.Errorf("%w: gate %d override matrix has %d rows, want %d",
				ErrValidation, i, len(g.Matrix), want)
		}
		for r, row := range g.Matrix {
			if len(row) != want {
				return fmt.Errorf("%w: gate %d override matrix row %d has %d columns, want %d",
					ErrValidation, i, r, len(row), want)
			}
		}
	}
	return nil
}

// angle returns the gate's angle or 0 for fixed kinds.
func (g *Gate) angle() float64 {
	if g.Angle == nil {
		return 0
	}
	return *g.Angle
}
