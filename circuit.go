package goocclusion

import (
	"fmt"
	"math"
	"math/cmplx"
	"strings"
)

type mode int

const (
	SERIES mode = iota
	PARALLEL
)

// CircuitImpedance evaluates a lumped circuit given in Boukamp's circuit
// description code. Elements are R (resistance), C (compliance/capacitance),
// L (inertance/inductance), W (infinite Warburg) and Q (constant phase
// element, two parameters Y0 and n). Elements are combined in series at the
// top level and every parenthesis toggles between series and parallel:
// "R(CR)" is R in series with C parallel to R. values holds the element
// parameters in the order they appear in code.
func CircuitImpedance(code string, freqs []float64, values []float64) (Series, error) {
	code = strings.ToLower(code)
	if n, err := circuitParams(code); err != nil {
		return Series{}, err
	} else if n != len(values) {
		return Series{}, fmt.Errorf("%w: %q needs %d values, got %d", ErrInvalidCircuit, code, n, len(values))
	}
	if err := checkAxis(freqs); err != nil {
		return Series{}, err
	}

	res := make([]complex128, len(freqs))
	for fi, freq := range freqs {
		var (
			m     = SERIES
			stack []complex128
			tmp   complex128
			i     int
			jw    = complex(0, 2*math.Pi*freq)
		)
		for _, char := range code {
			switch char {
			case '(':
				stack = append(stack, tmp)
				tmp = 0
				m = m.toggle()
				continue
			case ')':
				fromStack := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				m = m.toggle()
				tmp = combine(tmp, fromStack, m)
				continue
			case 'r':
				tmp = combine(tmp, complex(values[i], 0), m)
			case 'c':
				tmp = combine(tmp, 1/(jw*complex(values[i], 0)), m)
			case 'l':
				tmp = combine(tmp, jw*complex(values[i], 0), m)
			case 'w':
				tmp = combine(tmp, 1/(cmplx.Sqrt(jw)*complex(values[i], 0)), m)
			case 'q':
				tmp = combine(tmp, 1/(cmplx.Pow(jw, complex(values[i+1], 0))*complex(values[i], 0)), m)
				i++
			}
			i++
		}
		res[fi] = tmp
	}
	return series(cloneFloats(freqs), res), nil
}

// circuitParams validates code and returns the number of parameters it takes.
func circuitParams(code string) (int, error) {
	depth, n := 0, 0
	for pos, char := range code {
		switch char {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return 0, fmt.Errorf("%w: unbalanced ')' at %d in %q", ErrInvalidCircuit, pos, code)
			}
		case 'r', 'c', 'l', 'w':
			n++
		case 'q':
			n += 2
		default:
			return 0, fmt.Errorf("%w: unknown element %q in %q", ErrInvalidCircuit, char, code)
		}
	}
	if depth != 0 {
		return 0, fmt.Errorf("%w: unbalanced '(' in %q", ErrInvalidCircuit, code)
	}
	return n, nil
}

func (m mode) toggle() mode {
	if m == SERIES {
		return PARALLEL
	}
	return SERIES
}

// combine adds z2 to z1 in series or in parallel. A zero operand is treated as
// an empty branch when combining in parallel.
func combine(z1, z2 complex128, m mode) complex128 {
	if m == SERIES {
		return z1 + z2
	}
	var s1, s2 complex128
	if z1 != 0 {
		s1 = 1 / z1
	}
	if z2 != 0 {
		s2 = 1 / z2
	}
	return 1 / (s1 + s2)
}
