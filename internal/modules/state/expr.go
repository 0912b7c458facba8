package state

import (
	"fmt"
	"math"
	"strconv"
	"unicode"
)

// Coefficient expressions form a small closed grammar: decimal numbers,
// the constants pi (also π), e and i, sqrt(...), parentheses, the four
// operators, and implicit multiplication ("2pi", "sqrt(2)i"). The
// evaluator is a recursive-descent walk over that grammar; there is no
// dynamic evaluation and every input terminates.
//
//	expression := term (('+'|'-') term)*
//	term       := unary (('*'|'/')? unary)*
//	unary      := ('+'|'-') unary | primary
//	primary    := number | 'pi' | 'e' | 'i' | 'sqrt' '(' expression ')'
//	            | '(' expression ')'

// EvalCoefficient evaluates a coefficient expression to a complex value.
func EvalCoefficient(input string) (complex128, error) {
	p := &exprParser{input: []rune(input)}
	p.skipSpace()
	if p.eof() {
		return 0, fmt.Errorf("%w: empty coefficient expression", ErrParse)
	}
	v, err := p.expression()
	if err != nil {
		return 0, err
	}
	p.skipSpace()
	if !p.eof() {
		return 0, fmt.Errorf("%w: unexpected %q at position %d", ErrParse, string(p.peek()), p.pos)
	}
	return v, nil
}

type exprParser struct {
	input []rune
	pos   int
}

func (p *exprParser) eof() bool {
	return p.pos >= len(p.input)
}

func (p *exprParser) peek() rune {
	if p.eof() {
		return 0
	}
	return p.input[p.pos]
}

func (p *exprParser) skipSpace() {
	for !p.eof() && unicode.IsSpace(p.input[p.pos]) {
		p.pos++
	}
}

func (p *exprParser) expression() (complex128, error) {
	v, err := p.term()
	if err != nil {
		return 0, err
	}
	for {
		p.skipSpace()
		op := p.peek()
		if op != '+' && op != '-' {
			return v, nil
		}
		p.pos++
		rhs, err := p.term()
		if err != nil {
			return 0, err
		}
		if op == '+' {
			v += rhs
		} else {
			v -= rhs
		}
	}
}

func (p *exprParser) term() (complex128, error) {
	v, err := p.unary()
	if err != nil {
		return 0, err
	}
	for {
		p.skipSpace()
		switch {
		case p.peek() == '*':
			p.pos++
			rhs, err := p.unary()
			if err != nil {
				return 0, err
			}
			v *= rhs
		case p.peek() == '/':
			p.pos++
			rhs, err := p.unary()
			if err != nil {
				return 0, err
			}
			if rhs == 0 {
				return 0, fmt.Errorf("%w: division by zero in coefficient", ErrParse)
			}
			v /= rhs
		case p.startsPrimary():
			// Implicit multiplication: "2pi", "3sqrt(2)", "sqrt(2)i".
			rhs, err := p.unary()
			if err != nil {
				return 0, err
			}
			v *= rhs
		default:
			return v, nil
		}
	}
}

// startsPrimary reports whether the upcoming rune begins a primary,
// which is what makes adjacency mean multiplication.
func (p *exprParser) startsPrimary() bool {
	c := p.peek()
	return c == '(' || c == 'π' || unicode.IsDigit(c) || c == '.' || unicode.IsLetter(c)
}

func (p *exprParser) unary() (complex128, error) {
	p.skipSpace()
	switch p.peek() {
	case '+':
		p.pos++
		return p.unary()
	case '-':
		p.pos++
		v, err := p.unary()
		return -v, err
	}
	return p.primary()
}

func (p *exprParser) primary() (complex128, error) {
	p.skipSpace()
	if p.eof() {
		return 0, fmt.Errorf("%w: unexpected end of coefficient expression", ErrParse)
	}

	c := p.peek()
	switch {
	case c == '(':
		p.pos++
		v, err := p.expression()
		if err != nil {
			return 0, err
		}
		if err := p.expect(')'); err != nil {
			return 0, err
		}
		return v, nil

	case c == 'π':
		p.pos++
		return complex(math.Pi, 0), nil

	case unicode.IsDigit(c) || c == '.':
		return p.number()

	case unicode.IsLetter(c):
		return p.identifier()
	}

	return 0, fmt.Errorf("%w: unexpected %q at position %d", ErrParse, string(c), p.pos)
}

func (p *exprParser) number() (complex128, error) {
	start := p.pos
	for !p.eof() && (unicode.IsDigit(p.input[p.pos]) || p.input[p.pos] == '.') {
		p.pos++
	}
	text := string(p.input[start:p.pos])
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad number %q", ErrParse, text)
	}
	return complex(f, 0), nil
}

func (p *exprParser) identifier() (complex128, error) {
	start := p.pos
	for !p.eof() && unicode.IsLetter(p.input[p.pos]) {
		p.pos++
	}
	name := string(p.input[start:p.pos])

	switch name {
	case "pi":
		return complex(math.Pi, 0), nil
	case "e":
		return complex(math.E, 0), nil
	case "i":
		return complex(0, 1), nil
	case "sqrt":
		if err := p.expect('('); err != nil {
			return 0, err
		}
		arg, err := p.expression()
		if err != nil {
			return 0, err
		}
		if err := p.expect(')'); err != nil {
			return 0, err
		}
		if imag(arg) != 0 || real(arg) < 0 {
			return 0, fmt.Errorf("%w: sqrt argument must be a non-negative real", ErrParse)
		}
		return complex(math.Sqrt(real(arg)), 0), nil
	}

	// Greedy identifier scanning can swallow a trailing imaginary
	// marker, as in "pii" never occurring but "ei" or a future unit
	// might; reject anything unknown outright.
	return 0, fmt.Errorf("%w: unknown identifier %q", ErrParse, name)
}

func (p *exprParser) expect(want rune) error {
	p.skipSpace()
	if p.peek() != want {
		return fmt.Errorf("%w: expected %q at position %d", ErrParse, string(want), p.pos)
	}
	p.pos++
	return nil
}
