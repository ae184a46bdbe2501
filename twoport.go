package goocclusion

import (
	"fmt"
	"math/cmplx"
)

// TwoPort is a frequency-dependent ABCD (transmission) matrix relating
// pressure and volume velocity at the input to those at the output:
//
//	[p1]   [A B] [p2]
//	[q1] = [C D] [q2]
type TwoPort struct {
	freqs      []float64
	a, b, c, d []complex128
}

// Quantity indices of a port: 0 is pressure, 1 is volume velocity.
const (
	Pressure = 0
	Velocity = 1
)

// Ports selects the output and input quantity of TransferFunction.
type Ports struct {
	Out, In int
}

var (
	// PressurePorts is the (0, 0) selection: output over input pressure.
	PressurePorts = Ports{Out: Pressure, In: Pressure}
	// VelocityPorts is the (1, 1) selection: output over input volume velocity.
	VelocityPorts = Ports{Out: Velocity, In: Velocity}
)

// NewTwoPort validates and copies the coefficient slices.
func NewTwoPort(freqs []float64, a, b, c, d []complex128) (TwoPort, error) {
	n := len(freqs)
	if len(a) != n || len(b) != n || len(c) != n || len(d) != n {
		return TwoPort{}, fmt.Errorf("%w: axis has %d bins, coefficients %d/%d/%d/%d",
			ErrLengthMismatch, n, len(a), len(b), len(c), len(d))
	}
	if err := checkAxis(freqs); err != nil {
		return TwoPort{}, err
	}
	return TwoPort{
		freqs: cloneFloats(freqs),
		a:     cloneComplex(a),
		b:     cloneComplex(b),
		c:     cloneComplex(c),
		d:     cloneComplex(d),
	}, nil
}

func newTwoPort(freqs []float64) TwoPort {
	n := len(freqs)
	return TwoPort{
		freqs: freqs,
		a:     make([]complex128, n),
		b:     make([]complex128, n),
		c:     make([]complex128, n),
		d:     make([]complex128, n),
	}
}

// Identity returns the two-port of a null segment (A = D = 1, B = C = 0).
func Identity(freqs []float64) (TwoPort, error) {
	if err := checkAxis(freqs); err != nil {
		return TwoPort{}, err
	}
	p := newTwoPort(cloneFloats(freqs))
	for i := range p.freqs {
		p.a[i], p.d[i] = 1, 1
	}
	return p, nil
}

// ShuntAdmittance returns the two-port of an ideal shunt admittance y
// (A = 1, B = 0, C = y, D = 1), a side branch inserted into a cascade.
func ShuntAdmittance(y Series) TwoPort {
	p := newTwoPort(y.freqs)
	for i, v := range y.values {
		p.a[i], p.c[i], p.d[i] = 1, v, 1
	}
	return p
}

// Len returns the number of frequency bins.
func (p TwoPort) Len() int { return len(p.freqs) }

// Frequencies returns a copy of the frequency axis.
func (p TwoPort) Frequencies() []float64 { return cloneFloats(p.freqs) }

// ABCD returns the coefficients of bin i.
func (p TwoPort) ABCD(i int) (a, b, c, d complex128) {
	return p.a[i], p.b[i], p.c[i], p.d[i]
}

// A returns the A coefficient as a series.
func (p TwoPort) A() Series { return series(p.freqs, cloneComplex(p.a)) }

// B returns the B coefficient as a series.
func (p TwoPort) B() Series { return series(p.freqs, cloneComplex(p.b)) }

// C returns the C coefficient as a series.
func (p TwoPort) C() Series { return series(p.freqs, cloneComplex(p.c)) }

// D returns the D coefficient as a series.
func (p TwoPort) D() Series { return series(p.freqs, cloneComplex(p.d)) }

// Determinant returns AD - BC per bin. Reciprocal two-ports give 1.
func (p TwoPort) Determinant() Series {
	out := make([]complex128, len(p.freqs))
	for i := range out {
		out[i] = p.a[i]*p.d[i] - p.b[i]*p.c[i]
	}
	return series(p.freqs, out)
}

// Cascade returns the two-port of p followed by q: the output of p feeds the
// input of q. Order matters.
func Cascade(p, q TwoPort) (TwoPort, error) {
	if !sameAxis(p.freqs, q.freqs) {
		return TwoPort{}, fmt.Errorf("cascade: %w: %d vs %d bins", ErrAxisMismatch, len(p.freqs), len(q.freqs))
	}
	r := newTwoPort(p.freqs)
	for i := range r.freqs {
		r.a[i] = p.a[i]*q.a[i] + p.b[i]*q.c[i]
		r.b[i] = p.a[i]*q.b[i] + p.b[i]*q.d[i]
		r.c[i] = p.c[i]*q.a[i] + p.d[i]*q.c[i]
		r.d[i] = p.c[i]*q.b[i] + p.d[i]*q.d[i]
	}
	return r, nil
}

// Chain cascades ports in signal-flow order.
func Chain(first TwoPort, rest ...TwoPort) (TwoPort, error) {
	out := first
	for i, q := range rest {
		var err error
		if out, err = Cascade(out, q); err != nil {
			return TwoPort{}, fmt.Errorf("chain element %d: %w", i+1, err)
		}
	}
	return out, nil
}

// InputImpedance returns the impedance seen at the input of p when its output
// is terminated by load: (A*Z + B) / (C*Z + D), or A/C for an open circuit.
// Where C is zero the open-circuit impedance is complex infinity.
func (p TwoPort) InputImpedance(load Load) (Series, error) {
	out := make([]complex128, len(p.freqs))
	if load.IsOpen() {
		for i := range out {
			out[i] = quotient(p.a[i], p.c[i])
		}
		return series(p.freqs, out), nil
	}
	z := load.z
	if !sameAxis(p.freqs, z.freqs) {
		return Series{}, fmt.Errorf("input impedance: %w: %d vs %d bins", ErrAxisMismatch, len(p.freqs), len(z.freqs))
	}
	for i, zl := range z.values {
		out[i] = (p.a[i]*zl + p.b[i]) / (p.c[i]*zl + p.d[i])
	}
	return series(p.freqs, out), nil
}

// TransferFunction returns the ratio of the output quantity to the input
// quantity of p terminated by load:
//
//	(0, 0)  p2/p1 = 1 / (A + B/Z)   open: 1/A
//	(1, 1)  q2/q1 = 1 / (C*Z + D)   open: 0
//	(0, 1)  p2/q1 = Z / (C*Z + D)   open: 1/C
//	(1, 0)  q2/p1 = 1 / (A*Z + B)   open: 0
func (p TwoPort) TransferFunction(ports Ports, load Load) (Series, error) {
	var fn func(i int, z complex128) complex128
	switch ports {
	case PressurePorts:
		fn = func(i int, z complex128) complex128 { return 1 / (p.a[i] + p.b[i]/z) }
	case VelocityPorts:
		fn = func(i int, z complex128) complex128 { return 1 / (p.c[i]*z + p.d[i]) }
	case Ports{Out: Pressure, In: Velocity}:
		fn = func(i int, z complex128) complex128 { return z / (p.c[i]*z + p.d[i]) }
	case Ports{Out: Velocity, In: Pressure}:
		fn = func(i int, z complex128) complex128 { return 1 / (p.a[i]*z + p.b[i]) }
	default:
		return Series{}, fmt.Errorf("%w: got (%d, %d)", ErrUnsupportedPorts, ports.Out, ports.In)
	}

	out := make([]complex128, len(p.freqs))
	if load.IsOpen() {
		for i := range out {
			switch ports {
			case PressurePorts:
				out[i] = quotient(1, p.a[i])
			case Ports{Out: Pressure, In: Velocity}:
				out[i] = quotient(1, p.c[i])
			}
		}
		return series(p.freqs, out), nil
	}
	z := load.z
	if !sameAxis(p.freqs, z.freqs) {
		return Series{}, fmt.Errorf("transfer function: %w: %d vs %d bins", ErrAxisMismatch, len(p.freqs), len(z.freqs))
	}
	for i, zl := range z.values {
		out[i] = fn(i, zl)
	}
	return series(p.freqs, out), nil
}

// quotient returns num/den, or cmplx.Inf() when den is zero.
func quotient(num, den complex128) complex128 {
	if den == 0 {
		return cmplx.Inf()
	}
	return num / den
}
