package quantum

import "math"

// Bloch is the 3-component real representation of a single-qubit state.
// For a pure state it lies on the unit sphere; mixing pulls it inside.
type Bloch struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// BlochFromReduced maps a reduced density matrix to its Bloch vector:
// x = 2 Re(rho01), y = -2 Im(rho01), z = Re(rho00 - rho11). The sign of
// y is the one fixed convention applied to every gate; it puts
// RX(pi/2)|0> at (0,-1,0) and RY(pi/2)|0> at (1,0,0). The vector is
// clamped to the unit ball only on marginal floating-point drift.
func BlochFromReduced(r Reduced) Bloch {
	b := Bloch{
		X: 2 * real(r[0][1]),
		Y: -2 * imag(r[0][1]),
		Z: real(r[0][0] - r[1][1]),
	}
	if radius := b.Radius(); radius > 1 && radius <= 1+ConsistencyTolerance {
		inv := 1 / radius
		b.X *= inv
		b.Y *= inv
		b.Z *= inv
	}
	return b
}

// Radius returns the Euclidean norm, 1 exactly for pure states.
func (b Bloch) Radius() float64 {
	return math.Sqrt(b.X*b.X + b.Y*b.Y + b.Z*b.Z)
}
