package state

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Notation identifies a textual state encoding.
type Notation string

const (
	NotationBraKet Notation = "braket"
	NotationVector Notation = "vector"
	NotationPolar  Notation = "polar"
)

// Parse converts text in the given notation into a state vector. Bra-ket
// output is renormalized by construction; vector and polar literals are
// returned as written so callers can decide when to normalize.
func Parse(kind Notation, input string) (Vector, error) {
	switch kind {
	case NotationBraKet:
		return ParseBraKet(input)
	case NotationVector:
		return ParseVector(input)
	case NotationPolar:
		return ParsePolar(input)
	}
	return nil, fmt.Errorf("%w: unknown notation %q", ErrParse, kind)
}

// ParseQubits is Parse with a declared qubit count: bra-ket terms outside
// the basis range are dropped, and literal notations must match the
// dimension exactly.
func ParseQubits(kind Notation, input string, qubits int) (Vector, error) {
	if kind == NotationBraKet {
		return ParseBraKetQubits(input, qubits)
	}

	v, err := Parse(kind, input)
	if err != nil {
		return nil, err
	}
	if want := 1 << uint(qubits); len(v) != want {
		return nil, fmt.Errorf("%w: literal has %d amplitudes, %d qubits need %d", ErrValidation, len(v), qubits, want)
	}
	return v, nil
}

// ParseVector parses a JSON array of amplitudes. Each entry may be a
// number, a numeric string, a string ending in "i" (pure imaginary), or
// an {re, im} object. Non-array or otherwise unparseable input is an
// explicit failure, never an empty default state.
func ParseVector(input string) (Vector, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(input), &raw); err != nil {
		return nil, fmt.Errorf("%w: vector literal is not a JSON array: %v", ErrParse, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: vector literal is empty", ErrParse)
	}

	v := make(Vector, len(raw))
	for i, entry := range raw {
		amp, err := parseAmplitude(entry)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		v[i] = amp
	}
	return v, nil
}

func parseAmplitude(entry json.RawMessage) (complex128, error) {
	var num float64
	if err := json.Unmarshal(entry, &num); err == nil {
		return complex(num, 0), nil
	}

	var s string
	if err := json.Unmarshal(entry, &s); err == nil {
		return parseAmplitudeString(s)
	}

	var obj struct {
		Re *float64 `json:"re"`
		Im *float64 `json:"im"`
	}
	if err := json.Unmarshal(entry, &obj); err == nil && (obj.Re != nil || obj.Im != nil) {
		var re, im float64
		if obj.Re != nil {
			re = *obj.Re
		}
		if obj.Im != nil {
			im = *obj.Im
		}
		return complex(re, im), nil
	}

	return 0, fmt.Errorf("%w: amplitude %s is not a number, imaginary string, or {re, im} object", ErrParse, string(entry))
}

func parseAmplitudeString(s string) (complex128, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, fmt.Errorf("%w: empty amplitude string", ErrParse)
	}

	if strings.HasSuffix(trimmed, "i") {
		magText := strings.TrimSpace(strings.TrimSuffix(trimmed, "i"))
		switch magText {
		case "", "+":
			return complex(0, 1), nil
		case "-":
			return complex(0, -1), nil
		}
		mag, err := strconv.ParseFloat(magText, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: bad imaginary amplitude %q", ErrParse, s)
		}
		return complex(0, mag), nil
	}

	re, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad amplitude string %q", ErrParse, s)
	}
	return complex(re, 0), nil
}

// ParsePolar parses a JSON array of {magnitude, phase} objects via
// re = m·cos(φ), im = m·sin(φ). A malformed entry contributes a zero
// amplitude; input that is not a JSON array fails outright.
func ParsePolar(input string) (Vector, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(input), &raw); err != nil {
		return nil, fmt.Errorf("%w: polar literal is not a JSON array: %v", ErrParse, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: polar literal is empty", ErrParse)
	}

	v := make(Vector, len(raw))
	for i, entry := range raw {
		var obj struct {
			Magnitude *float64 `json:"magnitude"`
			Phase     *float64 `json:"phase"`
		}
		if err := json.Unmarshal(entry, &obj); err != nil || obj.Magnitude == nil || obj.Phase == nil {
			continue // malformed entry maps to zero amplitude
		}
		v[i] = complex(*obj.Magnitude*math.Cos(*obj.Phase), *obj.Magnitude*math.Sin(*obj.Phase))
	}
	return v, nil
}
