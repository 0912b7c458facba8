package quantum

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/qlens/qlens/internal/modules/state"
)

// Sample draws shots from the Born-rule distribution of a terminal
// state and returns counts keyed by bitstring, qubit n-1 leftmost and
// qubit 0 rightmost. The same seed always produces the same counts, so
// backends stay deterministic under test.
func Sample(v state.Vector, shots int, seed int64) (map[string]int, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}
	if shots < 1 {
		return nil, fmt.Errorf("%w: shot count must be positive, got %d", ErrValidation, shots)
	}
	qubits, _ := v.QubitCount()
	probs := v.Probabilities()

	cumulative := make([]float64, len(probs))
	sum := 0.0
	for i, p := range probs {
		sum += p
		cumulative[i] = sum
	}

	rng := rand.New(rand.NewSource(seed))
	counts := make(map[string]int)
	for s := 0; s < shots; s++ {
		r := rng.Float64() * sum
		idx := len(cumulative) - 1
		for i, c := range cumulative {
			if r < c {
				idx = i
				break
			}
		}
		counts[Bitstring(idx, qubits)]++
	}
	return counts, nil
}

// Bitstring renders a basis index as a measurement outcome label.
func Bitstring(index, qubits int) string {
	var b strings.Builder
	for q := qubits - 1; q >= 0; q-- {
		if index&(1<<uint(q)) != 0 {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}
