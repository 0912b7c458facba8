package quantum

import (
	"fmt"
	"strconv"
	"strings"
)

// qasmNames maps gate kinds onto their qelib1.inc spellings.
var qasmNames = map[Kind]string{
	KindI:   "id",
	KindX:   "x",
	KindY:   "y",
	KindZ:   "z",
	KindH:   "h",
	KindS:   "s",
	KindSdg: "sdg",
	KindT:   "t",
	KindTdg: "tdg",
	KindRX:  "rx",
	KindRY:  "ry",
	KindRZ:  "rz",
	KindP:   "u1",
}

// ToQASM renders the circuit as OpenQASM 2.0. Gates carrying override
// matrices or extra control qubits have no qelib1 spelling and fail
// with a validation error rather than emitting an unfaithful program.
func ToQASM(c Circuit) (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("OPENQASM 2.0;\n")
	sb.WriteString("include \"qelib1.inc\";\n\n")
	fmt.Fprintf(&sb, "qreg q[%d];\n\n", c.Qubits)

	for i, g := range c.Gates {
		if g.Matrix != nil {
			return "", fmt.Errorf("%w: gate %d carries an override matrix, not representable in QASM", ErrValidation, i)
		}
		if len(g.Controls) > 0 {
			return "", fmt.Errorf("%w: gate %d (%s) carries extra controls, not representable in QASM", ErrValidation, i, g.Kind)
		}

		switch g.Kind {
		case KindCX:
			fmt.Fprintf(&sb, "cx q[%d],q[%d];\n", g.Qubits[0], g.Qubits[1])
		case KindCZ:
			fmt.Fprintf(&sb, "cz q[%d],q[%d];\n", g.Qubits[0], g.Qubits[1])
		case KindSwap:
			fmt.Fprintf(&sb, "swap q[%d],q[%d];\n", g.Qubits[0], g.Qubits[1])
		case KindRX, KindRY, KindRZ, KindP:
			fmt.Fprintf(&sb, "%s(%s) q[%d];\n", qasmNames[g.Kind], formatAngle(g.angle()), g.Qubits[0])
		default:
			fmt.Fprintf(&sb, "%s q[%d];\n", qasmNames[g.Kind], g.Qubits[0])
		}
	}
	return sb.String(), nil
}

// formatAngle prints an angle without trailing zero noise.
func formatAngle(theta float64) string {
	return strconv.FormatFloat(theta, 'g', -1, 64)
}
