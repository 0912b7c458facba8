package quantum

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qlens/qlens/internal/modules/state"
)

func TestSingleQubitMetricsNotApplicable(t *testing.T) {
	out, err := EvolveFromZero(Circuit{Qubits: 1, Gates: []Gate{{Kind: KindH, Qubits: []int{0}}}})
	require.NoError(t, err)

	res, err := Analyze(out)
	require.NoError(t, err)
	require.Len(t, res.QubitReports, 1)

	metrics := res.QubitReports[0].Entanglement
	assert.False(t, metrics.Applicable)
	assert.False(t, metrics.IsEntangled)
}

func TestSeparableTwoQubitState(t *testing.T) {
	c := Circuit{Qubits: 2, Gates: []Gate{
		{Kind: KindH, Qubits: []int{0}},
		{Kind: KindX, Qubits: []int{1}},
	}}
	out, err := EvolveFromZero(c)
	require.NoError(t, err)

	res, err := Analyze(out)
	require.NoError(t, err)
	for _, report := range res.QubitReports {
		metrics := report.Entanglement
		require.True(t, metrics.Applicable)
		assert.InDelta(t, 0, metrics.Concurrence, 1e-8)
		assert.False(t, metrics.IsEntangled)
		assert.GreaterOrEqual(t, metrics.WitnessValue, 0.0)
		assert.InDelta(t, 1, metrics.Purity, 1e-8)
		assert.InDelta(t, 0, metrics.VonNeumannEntropy, 1e-6)
		assert.InDelta(t, 1, metrics.ReducedRadius, 1e-8)
	}
}

func TestMaximallyEntangledMetrics(t *testing.T) {
	reduced := Reduced{{complex(0.5, 0), 0}, {0, complex(0.5, 0)}}
	metrics, err := AnalyzeReduced(reduced, 2)
	require.NoError(t, err)

	assert.True(t, metrics.Applicable)
	assert.InDelta(t, 1, metrics.Concurrence, testDelta)
	assert.InDelta(t, 0.5, metrics.Purity, testDelta)
	assert.InDelta(t, 1, metrics.VonNeumannEntropy, testDelta)
	assert.InDelta(t, -0.5, metrics.WitnessValue, testDelta)
	assert.True(t, metrics.IsEntangled)
	assert.InDelta(t, 0, metrics.ReducedRadius, testDelta)
}

func TestPartiallyEntangledMetrics(t *testing.T) {
	// RY(theta) then CX entangles partially; concurrence = sin(theta).
	theta := math.Pi / 3
	c := Circuit{Qubits: 2, Gates: []Gate{
		{Kind: KindRY, Qubits: []int{0}, Angle: angle(theta)},
		{Kind: KindCX, Qubits: []int{0, 1}},
	}}
	out, err := EvolveFromZero(c)
	require.NoError(t, err)

	res, err := Analyze(out)
	require.NoError(t, err)
	metrics := res.QubitReports[0].Entanglement
	assert.InDelta(t, math.Sin(theta), metrics.Concurrence, 1e-9)
	assert.True(t, metrics.IsEntangled)
	assert.Less(t, metrics.WitnessValue, 0.0)

	// Witness stays consistent with concurrence: -C^2/2.
	assert.InDelta(t, -metrics.Concurrence*metrics.Concurrence/2, metrics.WitnessValue, testDelta)
}

func TestWitnessSignAgreement(t *testing.T) {
	// Sweep circuits; isEntangled must track witness < 0 and the
	// concurrence threshold everywhere.
	for _, theta := range []float64{0, 0.2, math.Pi / 4, math.Pi / 2, 2.5, math.Pi} {
		c := Circuit{Qubits: 2, Gates: []Gate{
			{Kind: KindRY, Qubits: []int{0}, Angle: angle(theta)},
			{Kind: KindCX, Qubits: []int{0, 1}},
		}}
		out, err := EvolveFromZero(c)
		require.NoError(t, err)
		res, err := Analyze(out)
		require.NoError(t, err)

		metrics := res.QubitReports[0].Entanglement
		assert.Equal(t, metrics.WitnessValue < 0, metrics.IsEntangled, "theta=%v", theta)
		assert.Equal(t, metrics.Concurrence > 0, metrics.IsEntangled, "theta=%v", theta)
	}
}

func TestAnalyzeRejectsInvalidState(t *testing.T) {
	_, err := Analyze(state.Vector{1, 1, 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, state.ErrValidation)
}

func TestBinaryEntropyEdges(t *testing.T) {
	assert.InDelta(t, 0, binaryEntropy(0), testDelta)
	assert.InDelta(t, 0, binaryEntropy(1), testDelta)
	assert.InDelta(t, 1, binaryEntropy(0.5), testDelta)
}

func TestBlochClampOnMarginalDrift(t *testing.T) {
	// A reduction whose off-diagonal drifts marginally past purity must
	// clamp back onto the unit ball instead of reporting radius > 1.
	drift := 2e-7
	r := Reduced{
		{complex(0.5+drift, 0), complex(0.5+drift, 0)},
		{complex(0.5+drift, 0), complex(0.5-drift, 0)},
	}
	b := BlochFromReduced(r)
	assert.LessOrEqual(t, b.Radius(), 1.0+testDelta)
}
