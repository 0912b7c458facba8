package backends

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qlens/qlens/internal/modules/quantum"
)

const testDelta = 1e-10

func testLog() zerolog.Logger {
	return zerolog.New(nil).Level(zerolog.Disabled)
}

func bellRequest() Request {
	return Request{
		Circuit: quantum.Circuit{
			Qubits: 2,
			Gates: []quantum.Gate{
				{Kind: quantum.KindH, Qubits: []int{0}},
				{Kind: quantum.KindCX, Qubits: []int{0, 1}},
			},
		},
	}
}

func TestStatevectorExecute(t *testing.T) {
	backend := NewStatevector(8, testLog())
	res, err := backend.Execute(context.Background(), bellRequest())
	require.NoError(t, err)

	assert.Equal(t, StatevectorName, res.Backend)
	assert.Equal(t, 2, res.Qubits)
	require.Len(t, res.StateVector, 4)
	require.Len(t, res.QubitReports, 2)
	assert.InDelta(t, 0.5, res.BasisProbabilities[0], testDelta)
	assert.InDelta(t, 0.5, res.BasisProbabilities[3], testDelta)
	assert.True(t, res.QubitReports[0].Entanglement.IsEntangled)
	assert.Nil(t, res.Counts)
	assert.GreaterOrEqual(t, res.DurationMs, 0.0)
}

func TestStatevectorExecuteWithShots(t *testing.T) {
	backend := NewStatevector(8, testLog())
	req := bellRequest()
	req.Shots = 256
	req.Seed = 11

	res, err := backend.Execute(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, res.Counts)

	total := 0
	for _, c := range res.Counts {
		total += c
	}
	assert.Equal(t, 256, total)

	// Same seed, same counts.
	again, err := backend.Execute(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, res.Counts, again.Counts)
}

func TestStatevectorExecuteDensity(t *testing.T) {
	backend := NewStatevector(8, testLog())
	req := bellRequest()
	req.Density = true

	res, err := backend.Execute(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, res.StateVector)
	require.Len(t, res.DensityMatrix, 4)
	assert.InDelta(t, 0.5, res.DensityMatrix[0][0].Re, testDelta)
	assert.InDelta(t, 0.5, res.DensityMatrix[3][3].Re, testDelta)
	assert.True(t, res.QubitReports[1].Entanglement.IsEntangled)
}

func TestStatevectorDensityRejectsShots(t *testing.T) {
	backend := NewStatevector(8, testLog())
	req := bellRequest()
	req.Density = true
	req.Shots = 16

	_, err := backend.Execute(context.Background(), req)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestStatevectorEnforcesQubitCap(t *testing.T) {
	backend := NewStatevector(2, testLog())
	req := Request{Circuit: quantum.Circuit{Qubits: 3, Gates: []quantum.Gate{
		{Kind: quantum.KindH, Qubits: []int{0}},
	}}}

	_, err := backend.Execute(context.Background(), req)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestStatevectorCustomInitialState(t *testing.T) {
	backend := NewStatevector(8, testLog())
	req := Request{
		Circuit:      quantum.Circuit{Qubits: 1, Gates: []quantum.Gate{{Kind: quantum.KindX, Qubits: []int{0}}}},
		InitialState: []quantum.Amplitude{{Re: 0, Im: 0}, {Re: 1, Im: 0}},
	}
	res, err := backend.Execute(context.Background(), req)
	require.NoError(t, err)
	assert.InDelta(t, 1, res.BasisProbabilities[0], testDelta)
}

func TestStatevectorRejectsInvalidInitialState(t *testing.T) {
	backend := NewStatevector(8, testLog())
	req := Request{
		Circuit:      quantum.Circuit{Qubits: 1, Gates: []quantum.Gate{{Kind: quantum.KindX, Qubits: []int{0}}}},
		InitialState: []quantum.Amplitude{{Re: 1, Im: 0}, {Re: 1, Im: 0}},
	}
	_, err := backend.Execute(context.Background(), req)
	require.Error(t, err)
}

func TestStatevectorPropagatesValidationErrors(t *testing.T) {
	backend := NewStatevector(8, testLog())
	req := Request{Circuit: quantum.Circuit{Qubits: 1, Gates: []quantum.Gate{
		{Kind: quantum.KindRX, Qubits: []int{0}},
	}}}
	_, err := backend.Execute(context.Background(), req)
	require.Error(t, err)
	assert.ErrorIs(t, err, quantum.ErrValidation)
}
