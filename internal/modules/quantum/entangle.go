package quantum

import "math"

// concurrenceFloor absorbs negative rounding residue under the square
// root before it can turn into NaN or a spurious entanglement signal.
const concurrenceFloor = 1e-9

// Metrics is the entanglement diagnostics bundle for one qubit of a
// multi-qubit system. Applicable is false for single-qubit systems,
// where "no entanglement partner exists" must stay distinguishable from
// a measured separable state, and for mixed global densities, where the
// pure-state formulas do not hold; the numeric fields are meaningless
// then.
type Metrics struct {
	Applicable        bool    `json:"applicable"`
	Concurrence       float64 `json:"concurrence"`
	VonNeumannEntropy float64 `json:"von_neumann_entropy"`
	Purity            float64 `json:"purity"`
	WitnessValue      float64 `json:"witness_value"`
	IsEntangled       bool    `json:"is_entangled"`
	ReducedRadius     float64 `json:"reduced_radius"`
}

// NotApplicable is the explicit marker for single-qubit systems.
func NotApplicable() Metrics {
	return Metrics{Applicable: false}
}

// AnalyzeReduced derives the entanglement metrics of one qubit from its
// reduced density matrix. systemQubits is the width of the full system;
// a width of 1 yields the not-applicable marker.
//
//   - purity = Tr(rho^2), in (0,1], 1 iff the reduction is pure.
//   - vonNeumannEntropy = -sum lambda_i log2(lambda_i); for a 2x2
//     reduction the eigenvalues are (1 +/- r)/2 with r the Bloch radius.
//   - concurrence = sqrt(2 (1 - purity)) for pure global states,
//     clamped to 0 when rounding drives the radicand negative.
//   - witnessValue = purity - 1 = -concurrence^2/2: negative certifies
//     entanglement, so isEntangled = (witnessValue < 0) agrees with the
//     concurrence threshold by construction.
func AnalyzeReduced(r Reduced, systemQubits int) (Metrics, error) {
	if err := r.Validate(); err != nil {
		return Metrics{}, err
	}
	if systemQubits < 2 {
		return NotApplicable(), nil
	}

	purity := r.Purity()
	radius := BlochFromReduced(r).Radius()

	radicand := 2 * (1 - purity)
	if radicand < 0 {
		radicand = 0
	}
	concurrence := math.Sqrt(radicand)
	if concurrence < concurrenceFloor {
		concurrence = 0
	}

	witness := -concurrence * concurrence / 2

	return Metrics{
		Applicable:        true,
		Concurrence:       concurrence,
		VonNeumannEntropy: binaryEntropy((1 + radius) / 2),
		Purity:            purity,
		WitnessValue:      witness,
		IsEntangled:       witness < 0,
		ReducedRadius:     radius,
	}, nil
}

// binaryEntropy returns -p log2(p) - (1-p) log2(1-p) with the 0 log 0
// terms defined as 0.
func binaryEntropy(p float64) float64 {
	var h float64
	if p > 0 {
		h -= p * math.Log2(p)
	}
	if q := 1 - p; q > 0 {
		h -= q * math.Log2(q)
	}
	return h
}
