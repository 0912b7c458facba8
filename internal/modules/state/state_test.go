package state

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDelta = 1e-10

func assertAmplitude(t *testing.T, want, got complex128) {
	t.Helper()
	assert.InDelta(t, real(want), real(got), testDelta)
	assert.InDelta(t, imag(want), imag(got), testDelta)
}

func TestZero(t *testing.T) {
	v := Zero(3)
	require.Len(t, v, 8)
	assertAmplitude(t, 1, v[0])
	for i := 1; i < len(v); i++ {
		assertAmplitude(t, 0, v[i])
	}
	assert.True(t, v.Valid())
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input Vector
		want  Vector
	}{
		{
			name:  "already normalized",
			input: Vector{1, 0},
			want:  Vector{1, 0},
		},
		{
			name:  "real rescale",
			input: Vector{3, 4},
			want:  Vector{0.6, 0.8},
		},
		{
			name:  "complex components count toward the norm",
			input: Vector{complex(1, 1), complex(1, 1)},
			want:  Vector{complex(0.5, 0.5), complex(0.5, 0.5)},
		},
		{
			name:  "zero vector unchanged",
			input: Vector{0, 0, 0, 0},
			want:  Vector{0, 0, 0, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.input.Normalize()
			require.Len(t, got, len(tt.want))
			for i := range tt.want {
				assertAmplitude(t, tt.want[i], got[i])
			}
		})
	}
}

func TestNormalizeDoesNotMutateInput(t *testing.T) {
	input := Vector{3, 4}
	_ = input.Normalize()
	assertAmplitude(t, 3, input[0])
	assertAmplitude(t, 4, input[1])
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		input Vector
		valid bool
	}{
		{"normalized single qubit", Vector{1, 0}, true},
		{"normalized two qubits", Vector{0.5, 0.5, 0.5, 0.5}, true},
		{"normalize output is always valid", Vector{2, 1, 0, 3}.Normalize(), true},
		{"empty", Vector{}, false},
		{"length three", Vector{1, 0, 0}, false},
		{"unnormalized", Vector{1, 1}, false},
		{"zero vector", Vector{0, 0}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.input.Valid())
			if tt.valid {
				assert.NoError(t, tt.input.Validate())
			} else {
				assert.ErrorIs(t, tt.input.Validate(), ErrValidation)
			}
		})
	}
}

func TestProbabilities(t *testing.T) {
	v := Vector{complex(invSqrt2, 0), complex(0, -invSqrt2)}
	probs := v.Probabilities()
	require.Len(t, probs, 2)
	assert.InDelta(t, 0.5, probs[0], testDelta)
	assert.InDelta(t, 0.5, probs[1], testDelta)
}

func TestQubitProbabilities(t *testing.T) {
	tests := []struct {
		name  string
		input Vector
		want  []float64
	}{
		{
			name:  "ground state",
			input: Zero(2),
			want:  []float64{0, 0},
		},
		{
			name:  "qubit zero in equal superposition",
			input: Vector{complex(invSqrt2, 0), complex(invSqrt2, 0), 0, 0},
			want:  []float64{0.5, 0},
		},
		{
			name:  "bell state",
			input: Vector{complex(invSqrt2, 0), 0, 0, complex(invSqrt2, 0)},
			want:  []float64{0.5, 0.5},
		},
		{
			name:  "basis three",
			input: Vector{0, 0, 0, 1},
			want:  []float64{1, 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.input.QubitProbabilities()
			require.NoError(t, err)
			require.Len(t, got, len(tt.want))
			for q := range tt.want {
				assert.InDelta(t, tt.want[q], got[q], testDelta)
			}
		})
	}
}

func TestQubitProbabilitiesRejectsBadDimension(t *testing.T) {
	_, err := Vector{1, 0, 0}.QubitProbabilities()
	assert.ErrorIs(t, err, ErrValidation)
}

func TestFidelity(t *testing.T) {
	plus := Vector{complex(invSqrt2, 0), complex(invSqrt2, 0)}
	minus := Vector{complex(invSqrt2, 0), complex(-invSqrt2, 0)}

	t.Run("identical states", func(t *testing.T) {
		f, err := Fidelity(plus, plus)
		require.NoError(t, err)
		assert.InDelta(t, 1, f, testDelta)
	})

	t.Run("orthogonal states", func(t *testing.T) {
		f, err := Fidelity(plus, minus)
		require.NoError(t, err)
		assert.InDelta(t, 0, f, testDelta)
	})

	t.Run("global phase is invisible", func(t *testing.T) {
		phased := Vector{complex(0, invSqrt2), complex(0, invSqrt2)}
		f, err := Fidelity(plus, phased)
		require.NoError(t, err)
		assert.InDelta(t, 1, f, testDelta)
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		_, err := Fidelity(plus, Zero(2))
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestNormAgainstMath(t *testing.T) {
	v := Vector{complex(1, 2), complex(3, -4)}
	assert.InDelta(t, math.Sqrt(1+4+9+16), v.Norm(), testDelta)
}
