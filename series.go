package goocclusion

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"
)

// Series is a complex-valued quantity sampled on a strictly increasing
// frequency axis. A Series is immutable: constructors copy their inputs and
// accessors return copies.
type Series struct {
	freqs  []float64
	values []complex128
}

// NewSeries validates and copies freqs and values into a new Series.
func NewSeries(freqs []float64, values []complex128) (Series, error) {
	if len(freqs) != len(values) {
		return Series{}, fmt.Errorf("%w: %d frequencies, %d samples", ErrLengthMismatch, len(freqs), len(values))
	}
	if err := checkAxis(freqs); err != nil {
		return Series{}, err
	}
	return Series{freqs: cloneFloats(freqs), values: cloneComplex(values)}, nil
}

// MustSeries is like NewSeries but panics on invalid input. Intended for
// literals and tests.
func MustSeries(freqs []float64, values []complex128) Series {
	s, err := NewSeries(freqs, values)
	if err != nil {
		panic(err)
	}
	return s
}

// ConstantSeries returns a series holding v at every frequency.
func ConstantSeries(freqs []float64, v complex128) (Series, error) {
	values := make([]complex128, len(freqs))
	for i := range values {
		values[i] = v
	}
	return NewSeries(freqs, values)
}

// RealSeries builds a series from purely real samples.
func RealSeries(freqs []float64, values []float64) (Series, error) {
	c := make([]complex128, len(values))
	for i, v := range values {
		c[i] = complex(v, 0)
	}
	return NewSeries(freqs, c)
}

// series wraps already validated slices without copying.
func series(freqs []float64, values []complex128) Series {
	return Series{freqs: freqs, values: values}
}

func checkAxis(freqs []float64) error {
	for i := 1; i < len(freqs); i++ {
		if !(freqs[i] > freqs[i-1]) {
			return fmt.Errorf("%w: f[%d]=%g, f[%d]=%g", ErrInvalidAxis, i-1, freqs[i-1], i, freqs[i])
		}
	}
	return nil
}

// Len returns the number of frequency bins.
func (s Series) Len() int { return len(s.freqs) }

// Frequencies returns a copy of the frequency axis.
func (s Series) Frequencies() []float64 { return cloneFloats(s.freqs) }

// Values returns a copy of the complex samples.
func (s Series) Values() []complex128 { return cloneComplex(s.values) }

// At returns the frequency and sample of bin i.
func (s Series) At(i int) (float64, complex128) { return s.freqs[i], s.values[i] }

// SameAxis reports whether s and o are sampled on identical frequencies.
func (s Series) SameAxis(o Series) bool {
	return sameAxis(s.freqs, o.freqs)
}

func sameAxis(a, b []float64) bool {
	return len(a) == len(b) && floats.Equal(a, b)
}

func (s Series) checkAxis(o Series) error {
	if !s.SameAxis(o) {
		return fmt.Errorf("%w: %d vs %d bins", ErrAxisMismatch, len(s.freqs), len(o.freqs))
	}
	return nil
}

func (s Series) zip(o Series, fn func(a, b complex128) complex128) (Series, error) {
	if err := s.checkAxis(o); err != nil {
		return Series{}, err
	}
	out := make([]complex128, len(s.values))
	for i := range out {
		out[i] = fn(s.values[i], o.values[i])
	}
	return series(s.freqs, out), nil
}

// Map applies fn to every sample and returns the result on the same axis.
func (s Series) Map(fn func(f float64, v complex128) complex128) Series {
	out := make([]complex128, len(s.values))
	for i, v := range s.values {
		out[i] = fn(s.freqs[i], v)
	}
	return series(s.freqs, out)
}

// Add returns s + o.
func (s Series) Add(o Series) (Series, error) {
	return s.zip(o, func(a, b complex128) complex128 { return a + b })
}

// Sub returns s - o.
func (s Series) Sub(o Series) (Series, error) {
	return s.zip(o, func(a, b complex128) complex128 { return a - b })
}

// Mul returns s * o.
func (s Series) Mul(o Series) (Series, error) {
	return s.zip(o, func(a, b complex128) complex128 { return a * b })
}

// Div returns s / o.
func (s Series) Div(o Series) (Series, error) {
	return s.zip(o, func(a, b complex128) complex128 { return a / b })
}

// Scale multiplies every sample by k.
func (s Series) Scale(k complex128) Series {
	return s.Map(func(_ float64, v complex128) complex128 { return v * k })
}

// Inv returns 1/s.
func (s Series) Inv() Series {
	return s.Map(func(_ float64, v complex128) complex128 { return 1 / v })
}

// Abs returns |s| as a series with zero imaginary part.
func (s Series) Abs() Series {
	return s.Map(func(_ float64, v complex128) complex128 { return complex(cmplx.Abs(v), 0) })
}

// Magnitudes returns |s| per bin.
func (s Series) Magnitudes() []float64 {
	out := make([]float64, len(s.values))
	for i, v := range s.values {
		out[i] = cmplx.Abs(v)
	}
	return out
}

// Phases returns arg(s) per bin in radians.
func (s Series) Phases() []float64 {
	out := make([]float64, len(s.values))
	for i, v := range s.values {
		out[i] = cmplx.Phase(v)
	}
	return out
}

// DB returns 20*log10|s| per bin.
func (s Series) DB() []float64 {
	out := make([]float64, len(s.values))
	for i, v := range s.values {
		out[i] = ToDB(cmplx.Abs(v))
	}
	return out
}

// ToDB converts a linear magnitude to decibels. Returns -Inf for zero values.
func ToDB(v float64) float64 {
	if v <= 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(v)
}

// FromDB converts a decibel magnitude to a linear one.
func FromDB(db float64) float64 {
	return math.Pow(10, db/20)
}

// Mask returns the bins with lo <= f <= hi.
func (s Series) Mask(lo, hi float64) Series {
	var (
		freqs  []float64
		values []complex128
	)
	for i, f := range s.freqs {
		if f >= lo && f <= hi {
			freqs = append(freqs, f)
			values = append(values, s.values[i])
		}
	}
	return series(freqs, values)
}

// Resample linearly interpolates the real and imaginary parts of s onto
// axis. Outside the original range the first/last sample is held.
func (s Series) Resample(axis []float64) (Series, error) {
	if err := checkAxis(axis); err != nil {
		return Series{}, err
	}
	if sameAxis(s.freqs, axis) {
		return s, nil
	}
	if len(s.freqs) == 0 {
		return Series{}, fmt.Errorf("%w: cannot resample an empty series", ErrLengthMismatch)
	}
	out := make([]complex128, len(axis))
	if len(s.freqs) == 1 {
		for i := range out {
			out[i] = s.values[0]
		}
		return series(cloneFloats(axis), out), nil
	}

	re := make([]float64, len(s.values))
	im := make([]float64, len(s.values))
	for i, v := range s.values {
		re[i], im[i] = real(v), imag(v)
	}
	var pr, pi interp.PiecewiseLinear
	if err := pr.Fit(s.freqs, re); err != nil {
		return Series{}, fmt.Errorf("resample real part: %w", err)
	}
	if err := pi.Fit(s.freqs, im); err != nil {
		return Series{}, fmt.Errorf("resample imaginary part: %w", err)
	}

	lo, hi := s.freqs[0], s.freqs[len(s.freqs)-1]
	for i, f := range axis {
		switch {
		case f <= lo:
			out[i] = s.values[0]
		case f >= hi:
			out[i] = s.values[len(s.values)-1]
		default:
			out[i] = complex(pr.Predict(f), pi.Predict(f))
		}
	}
	return series(cloneFloats(axis), out), nil
}

func cloneFloats(a []float64) []float64 {
	if a == nil {
		return nil
	}
	out := make([]float64, len(a))
	copy(out, a)
	return out
}

func cloneComplex(a []complex128) []complex128 {
	if a == nil {
		return nil
	}
	out := make([]complex128, len(a))
	copy(out, a)
	return out
}
