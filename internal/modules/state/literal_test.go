package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVector(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Vector
	}{
		{
			name:  "plain numbers",
			input: `[0.6, 0.8]`,
			want:  Vector{0.6, 0.8},
		},
		{
			name:  "decimal strings",
			input: `["0.5", "-0.5"]`,
			want:  Vector{0.5, -0.5},
		},
		{
			name:  "imaginary strings",
			input: `["0.5i", "-i", "i"]`,
			want:  Vector{complex(0, 0.5), complex(0, -1), complex(0, 1)},
		},
		{
			name:  "re im objects",
			input: `[{"re": 0.5, "im": -0.5}, {"re": 1}, {"im": 1}]`,
			want:  Vector{complex(0.5, -0.5), 1, complex(0, 1)},
		},
		{
			name:  "mixed entry forms",
			input: `[0.5, "0.5i", {"re": 0.5, "im": 0.5}]`,
			want:  Vector{0.5, complex(0, 0.5), complex(0.5, 0.5)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseVector(tt.input)
			require.NoError(t, err)
			require.Len(t, got, len(tt.want))
			for i := range tt.want {
				assertAmplitude(t, tt.want[i], got[i])
			}
		})
	}
}

func TestParseVectorFailures(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"not JSON", "not json"},
		{"object instead of array", `{"re": 1}`},
		{"bare number", `0.5`},
		{"empty array", `[]`},
		{"boolean entry", `[true, false]`},
		{"unparseable string entry", `["xyz"]`},
		{"empty string entry", `[""]`},
		{"object without components", `[{}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseVector(tt.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrParse)
		})
	}
}

func TestParsePolar(t *testing.T) {
	t.Run("magnitude and phase map to re im", func(t *testing.T) {
		got, err := ParsePolar(`[{"magnitude": 1, "phase": 0}, {"magnitude": 1, "phase": 1.5707963267948966}]`)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assertAmplitude(t, 1, got[0])
		assertAmplitude(t, complex(0, 1), got[1])
	})

	t.Run("negative phase", func(t *testing.T) {
		got, err := ParsePolar(`[{"magnitude": 2, "phase": -3.141592653589793}]`)
		require.NoError(t, err)
		assertAmplitude(t, -2, got[0])
	})

	t.Run("malformed entry maps to zero amplitude", func(t *testing.T) {
		got, err := ParsePolar(`[{"magnitude": 1}, {"magnitude": 1, "phase": 0}, "junk"]`)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assertAmplitude(t, 0, got[0])
		assertAmplitude(t, 1, got[1])
		assertAmplitude(t, 0, got[2])
	})

	t.Run("non-array input fails", func(t *testing.T) {
		_, err := ParsePolar(`{"magnitude": 1, "phase": 0}`)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrParse)
	})

	t.Run("empty array fails", func(t *testing.T) {
		_, err := ParsePolar(`[]`)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrParse)
	})
}

func TestParseDispatch(t *testing.T) {
	braket, err := Parse(NotationBraKet, "|1⟩")
	require.NoError(t, err)
	assertAmplitude(t, 1, braket[1])

	vector, err := Parse(NotationVector, `[1, 0]`)
	require.NoError(t, err)
	assertAmplitude(t, 1, vector[0])

	polar, err := Parse(NotationPolar, `[{"magnitude": 1, "phase": 0}, {"magnitude": 0, "phase": 0}]`)
	require.NoError(t, err)
	assertAmplitude(t, 1, polar[0])

	_, err = Parse(Notation("spherical"), "[1]")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrParse)
}

func TestParseQubitsLiteralDimension(t *testing.T) {
	t.Run("matching dimension", func(t *testing.T) {
		got, err := ParseQubits(NotationVector, `[0, 1, 0, 0]`, 2)
		require.NoError(t, err)
		require.Len(t, got, 4)
		assertAmplitude(t, 1, got[1])
	})

	t.Run("dimension mismatch fails", func(t *testing.T) {
		_, err := ParseQubits(NotationVector, `[1, 0]`, 2)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("polar obeys the declared width too", func(t *testing.T) {
		_, err := ParseQubits(NotationPolar, `[{"magnitude": 1, "phase": 0}]`, 1)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestParseVectorRoundTripNorm(t *testing.T) {
	got, err := ParseVector(`["0.5", "0.5i", {"re": -0.5}, {"im": -0.5}]`)
	require.NoError(t, err)
	assert.InDelta(t, 1, got.Norm(), testDelta)
	assert.True(t, got.Valid())
}
