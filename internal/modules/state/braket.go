package state

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

const invSqrt2 = 1 / math.Sqrt2

// namedKets are the shorthand single-qubit states that resolve directly,
// bypassing term parsing. Keys are canonicalized to the unicode closer.
var namedKets = map[string]Vector{
	"|0⟩":  {1, 0},
	"|1⟩":  {0, 1},
	"|+⟩":  {complex(invSqrt2, 0), complex(invSqrt2, 0)},
	"|-⟩":  {complex(invSqrt2, 0), complex(-invSqrt2, 0)},
	"|i⟩":  {complex(invSqrt2, 0), complex(0, invSqrt2)},
	"|-i⟩": {complex(invSqrt2, 0), complex(0, -invSqrt2)},
}

// ParseBraKet parses a bra-ket expression such as
// "1/sqrt(2)|0⟩ - i/sqrt(2)|3⟩" into a normalized state vector. The
// dimension is inferred from the largest basis index: 2^k with
// k = ceil(log2(maxBasis+1)), at least one qubit. ASCII "|basis>" closers
// are accepted alongside "|basis⟩".
func ParseBraKet(input string) (Vector, error) {
	return parseBraKet(input, 0)
}

// ParseBraKetQubits parses a bra-ket expression against a declared qubit
// count. Terms whose basis index does not fit the declared dimension are
// dropped; if every term is dropped the parse fails rather than
// fabricating a zero state.
func ParseBraKetQubits(input string, qubits int) (Vector, error) {
	if qubits < 1 {
		return nil, fmt.Errorf("%w: qubit count must be at least 1, got %d", ErrValidation, qubits)
	}
	return parseBraKet(input, qubits)
}

// parseBraKet implements both entry points; qubits == 0 means infer the
// dimension from the terms.
func parseBraKet(input string, qubits int) (Vector, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty bra-ket expression", ErrParse)
	}

	if v, ok := namedKets[canonicalKet(trimmed)]; ok {
		if qubits > 1 {
			return nil, fmt.Errorf("%w: named ket %q is single-qubit but %d qubits declared", ErrValidation, trimmed, qubits)
		}
		return v.Clone(), nil
	}

	chunks, err := splitKetTerms([]rune(trimmed))
	if err != nil {
		return nil, err
	}

	amps := make(map[int]complex128, len(chunks))
	maxBasis := 0
	for _, chunk := range chunks {
		basis, amp, err := parseKetTerm(chunk)
		if err != nil {
			return nil, err
		}
		amps[basis] += amp
		if basis > maxBasis {
			maxBasis = basis
		}
	}

	dim := 0
	if qubits > 0 {
		dim = 1 << uint(qubits)
		for basis := range amps {
			if basis >= dim {
				delete(amps, basis)
			}
		}
		if len(amps) == 0 {
			return nil, fmt.Errorf("%w: every term exceeds the %d-qubit basis range", ErrParse, qubits)
		}
	} else {
		k := 1
		for maxBasis >= 1<<uint(k) {
			k++
		}
		dim = 1 << uint(k)
	}

	v := make(Vector, dim)
	for basis, amp := range amps {
		v[basis] = amp
	}
	if v.Norm() == 0 {
		return nil, fmt.Errorf("%w: bra-ket expression has zero norm", ErrParse)
	}
	return v.Normalize(), nil
}

// canonicalKet strips whitespace and maps the ASCII closer onto the
// unicode one so both spellings hit the shorthand table.
func canonicalKet(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
		case r == '>':
			b.WriteRune('⟩')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// splitKetTerms cuts the expression after each ket closer, yielding one
// chunk per term with its sign and coefficient still attached.
func splitKetTerms(rs []rune) ([][]rune, error) {
	var chunks [][]rune
	start := 0
	for i, r := range rs {
		if r == '⟩' || r == '>' {
			chunks = append(chunks, rs[start:i+1])
			start = i + 1
		}
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: no ket terms found", ErrParse)
	}
	if rest := strings.TrimSpace(string(rs[start:])); rest != "" {
		return nil, fmt.Errorf("%w: trailing input %q after last ket", ErrParse, rest)
	}
	return chunks, nil
}

// parseKetTerm decodes one "[sign][coeff]|basis⟩" chunk.
func parseKetTerm(chunk []rune) (int, complex128, error) {
	i := 0
	for i < len(chunk) && unicode.IsSpace(chunk[i]) {
		i++
	}

	sign := complex128(1)
	if i < len(chunk) {
		switch chunk[i] {
		case '+':
			i++
		case '-':
			sign = -1
			i++
		}
	}

	pipe := -1
	for j := i; j < len(chunk); j++ {
		if chunk[j] == '|' {
			pipe = j
			break
		}
	}
	if pipe < 0 {
		return 0, 0, fmt.Errorf("%w: term %q has no ket", ErrParse, strings.TrimSpace(string(chunk)))
	}

	basisText := strings.TrimSpace(string(chunk[pipe+1 : len(chunk)-1]))
	if basisText == "" {
		return 0, 0, fmt.Errorf("%w: empty basis label", ErrParse)
	}
	basis, err := strconv.Atoi(basisText)
	if err != nil || basis < 0 {
		return 0, 0, fmt.Errorf("%w: basis label %q is not a non-negative integer", ErrParse, basisText)
	}

	coeffText := strings.TrimSpace(string(chunk[i:pipe]))
	if coeffText == "" {
		return basis, sign, nil
	}
	coeff, err := EvalCoefficient(coeffText)
	if err != nil {
		return 0, 0, err
	}
	return basis, sign * coeff, nil
}
