package quantum

import (
	"fmt"

	"github.com/qlens/qlens/internal/modules/state"
)

// Evolve applies the circuit's gates, strictly in sequence, to the
// initial state vector and returns the terminal state. The input vector
// is never mutated. Each gate acts by basis-index arithmetic on the
// amplitudes it touches; the full 2^n x 2^n unitary is never
// materialized on this path.
func Evolve(c Circuit, in state.Vector) (state.Vector, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if want := 1 << uint(c.Qubits); len(in) != want {
		return nil, fmt.Errorf("%w: state has %d amplitudes, %d qubits need %d",
			ErrValidation, len(in), c.Qubits, want)
	}

	v := in.Clone()
	for i := range c.Gates {
		next, err := applyGate(v, &c.Gates[i])
		if err != nil {
			return nil, fmt.Errorf("gate %d: %w", i, err)
		}
		v = next
	}
	return v, nil
}

// EvolveFromZero runs the circuit on |0...0>.
func EvolveFromZero(c Circuit) (state.Vector, error) {
	if c.Qubits < 1 {
		return nil, fmt.Errorf("%w: qubit count must be at least 1, got %d", ErrValidation, c.Qubits)
	}
	return Evolve(c, state.Zero(c.Qubits))
}

// controlMask folds control indices into a basis-index bit mask.
func controlMask(controls []int) int {
	mask := 0
	for _, q := range controls {
		mask |= 1 << uint(q)
	}
	return mask
}

// applyGate returns the state after one gate. Control semantics: the
// sub-unitary acts only on basis states whose control bits all read 1;
// every other amplitude passes through unchanged.
func applyGate(v state.Vector, g *Gate) (state.Vector, error) {
	mask := controlMask(g.Controls)

	if g.Matrix != nil {
		return applyMatrix(v, g.Matrix, g.Qubits, mask), nil
	}

	switch g.Kind {
	case KindI:
		return v, nil
	case KindCX:
		u, _ := Matrix(KindX, 0)
		return applyOne(v, u, g.Qubits[1], mask|1<<uint(g.Qubits[0])), nil
	case KindCZ:
		return applyCZ(v, g.Qubits[0], g.Qubits[1], mask), nil
	case KindSwap:
		return applySwap(v, g.Qubits[0], g.Qubits[1], mask), nil
	}

	u, err := Matrix(g.Kind, g.angle())
	if err != nil {
		return nil, err
	}
	return applyOne(v, u, g.Qubits[0], mask), nil
}

// applyOne applies a 2x2 unitary to one target qubit. Basis indices are
// visited in bit-cleared/bit-set pairs (i, i|bit); control bits sit
// outside the target bit so both members of a pair share them.
func applyOne(v state.Vector, u [][]complex128, target, mask int) state.Vector {
	bit := 1 << uint(target)
	out := v.Clone()
	for i := range v {
		if i&bit != 0 || i&mask != mask {
			continue
		}
		j := i | bit
		a, b := v[i], v[j]
		out[i] = u[0][0]*a + u[0][1]*b
		out[j] = u[1][0]*a + u[1][1]*b
	}
	return out
}

func applyCZ(v state.Vector, q1, q2, mask int) state.Vector {
	want := mask | 1<<uint(q1) | 1<<uint(q2)
	out := v.Clone()
	for i := range v {
		if i&want == want {
			out[i] = -v[i]
		}
	}
	return out
}

func applySwap(v state.Vector, q1, q2, mask int) state.Vector {
	bit1 := 1 << uint(q1)
	bit2 := 1 << uint(q2)
	out := v.Clone()
	for i := range v {
		if i&mask != mask || i&bit1 == 0 || i&bit2 != 0 {
			continue
		}
		j := (i &^ bit1) | bit2
		out[i], out[j] = v[j], v[i]
	}
	return out
}

// applyMatrix embeds a 2^k x 2^k unitary across the ordered target
// qubits. Sub-space bit t corresponds to targets[t], so targets[0] is
// the least-significant bit of the sub-index.
func applyMatrix(v state.Vector, m [][]complex128, targets []int, mask int) state.Vector {
	dim := 1 << uint(len(targets))
	tmask := controlMask(targets)

	out := v.Clone()
	sub := make([]complex128, dim)
	for base := range v {
		if base&tmask != 0 || base&mask != mask {
			continue
		}
		for s := 0; s < dim; s++ {
			sub[s] = v[base|spreadIndex(s, targets)]
		}
		for s := 0; s < dim; s++ {
			var acc complex128
			for s2 := 0; s2 < dim; s2++ {
				acc += m[s][s2] * sub[s2]
			}
			out[base|spreadIndex(s, targets)] = acc
		}
	}
	return out
}

// spreadIndex maps a sub-space index onto full-space bits.
func spreadIndex(s int, targets []int) int {
	idx := 0
	for t, q := range targets {
		if s&(1<<uint(t)) != 0 {
			idx |= 1 << uint(q)
		}
	}
	return idx
}

// BuildUnitary materializes the full-space unitary of a single gate by
// applying it to each basis vector in turn. The density path uses it
// for the U rho U-dagger step; the vector path never needs it.
func BuildUnitary(g *Gate, qubits int) ([]complex128, error) {
	dim := 1 << uint(qubits)
	u := make([]complex128, dim*dim)
	basis := make(state.Vector, dim)
	for col := 0; col < dim; col++ {
		for i := range basis {
			basis[i] = 0
		}
		basis[col] = 1
		res, err := applyGate(basis, g)
		if err != nil {
			return nil, err
		}
		for row := 0; row < dim; row++ {
			u[row*dim+col] = res[row]
		}
	}
	return u, nil
}
