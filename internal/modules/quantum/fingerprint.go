package quantum

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// Fingerprint returns a deterministic key for a circuit, used by the
// run archive to group repeated executions of the same circuit. It
// hashes a canonical serialization: fixed field order, targets and
// controls as written (order is semantic, so it is preserved), and the
// override matrix in wire form.
func Fingerprint(c Circuit) (string, error) {
	type canonGate struct {
		Kind     Kind           `json:"kind"`
		Qubits   []int          `json:"qubits"`
		Controls []int          `json:"controls,omitempty"`
		Angle    *float64       `json:"angle,omitempty"`
		Matrix   [][][2]float64 `json:"matrix,omitempty"`
	}
	type canonCircuit struct {
		Qubits int         `json:"qubits"`
		Gates  []canonGate `json:"gates"`
	}

	canon := canonCircuit{Qubits: c.Qubits, Gates: make([]canonGate, len(c.Gates))}
	for i, g := range c.Gates {
		cg := canonGate{Kind: g.Kind, Qubits: g.Qubits, Controls: g.Controls, Angle: g.Angle}
		if g.Matrix != nil {
			cg.Matrix = make([][][2]float64, len(g.Matrix))
			for r, row := range g.Matrix {
				cg.Matrix[r] = make([][2]float64, len(row))
				for cIdx, a := range row {
					cg.Matrix[r][cIdx] = [2]float64{real(a), imag(a)}
				}
			}
		}
		canon.Gates[i] = cg
	}

	data, err := json.Marshal(canon)
	if err != nil {
		return "", fmt.Errorf("failed to serialize circuit for fingerprint: %w", err)
	}
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:16]), nil
}

// String gives a compact human-readable rendering of the circuit, used
// in log fields.
func (c Circuit) String() string {
	parts := make([]string, len(c.Gates))
	for i, g := range c.Gates {
		parts[i] = string(g.Kind)
	}
	return fmt.Sprintf("%dq[%s]", c.Qubits, strings.Join(parts, " "))
}
