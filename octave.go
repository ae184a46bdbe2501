package goocclusion

import (
	"fmt"
	"iter"
	"math"
	"math/cmplx"
)

// Band is one fractional-octave band and the RMS level of a spectrum in it.
type Band struct {
	Center float64
	Lower  float64
	Upper  float64
	Level  float64
}

const octaveReference = 1000.0

// FractionalOctaveFrequencies returns the exact base-2 center frequencies of
// the bands with num bands per octave whose centers lie within [lo, hi],
// together with their lower and upper cutoff frequencies.
func FractionalOctaveFrequencies(num int, lo, hi float64) (centers, lower, upper []float64, err error) {
	if num < 1 {
		return nil, nil, nil, fmt.Errorf("fractional octave: bands per octave must be >= 1, got %d", num)
	}
	if !(lo > 0) || !(hi > lo) {
		return nil, nil, nil, fmt.Errorf("fractional octave: invalid range [%g, %g]", lo, hi)
	}
	b := float64(num)
	nMax := math.Round(b * math.Log2(hi/octaveReference))
	nMin := math.Round(b * math.Log2(octaveReference/lo))
	if num%2 == 0 {
		// Even fractions are offset by half a band around the reference.
		nMax--
	}
	half := math.Pow(2, 1/(2*b))
	for n := -nMin; n <= nMax; n++ {
		var fc float64
		if num%2 == 1 {
			fc = octaveReference * math.Pow(2, n/b)
		} else {
			fc = octaveReference * math.Pow(2, (2*n+1)/(2*b))
		}
		centers = append(centers, fc)
		lower = append(lower, fc/half)
		upper = append(upper, fc*half)
	}
	return centers, lower, upper, nil
}

// FractionalOctaveBands interprets s as a sampled power density spectrum and
// yields its RMS level in every fractional-octave band covered by the axis.
// Each bin contributes |x|^2/2 weighted by its bandwidth, taken from the
// geometric means of neighbouring frequencies (zero for the outermost bins).
// The sequence is evaluated lazily and can be ranged over repeatedly.
func FractionalOctaveBands(s Series, num int) (iter.Seq[Band], error) {
	if s.Len() < 2 {
		return nil, fmt.Errorf("fractional octave: need at least 2 bins, got %d", s.Len())
	}
	freqs := s.freqs
	lo := math.Floor(freqs[0] * math.Pow(2, 1/(2*float64(num))))
	hi := math.Ceil(freqs[len(freqs)-1])
	centers, lower, upper, err := FractionalOctaveFrequencies(num, lo, hi)
	if err != nil {
		return nil, err
	}

	df := binWidths(freqs)
	return func(yield func(Band) bool) {
		for i, fc := range centers {
			var energy float64
			for j, f := range freqs {
				if f >= lower[i] && f < upper[i] {
					a := cmplx.Abs(s.values[j])
					energy += a * a / 2 * df[j]
				}
			}
			if !yield(Band{Center: fc, Lower: lower[i], Upper: upper[i], Level: math.Sqrt(energy)}) {
				return
			}
		}
	}, nil
}

// binWidths returns the width of every bin between the geometric means of its
// neighbours. The first and last bins get zero width.
func binWidths(freqs []float64) []float64 {
	n := len(freqs)
	df := make([]float64, n)
	if n < 3 {
		return df
	}
	edges := make([]float64, n-1)
	for i := range edges {
		edges[i] = math.Sqrt(freqs[i] * freqs[i+1])
	}
	for i := 1; i < n-1; i++ {
		df[i] = edges[i] - edges[i-1]
	}
	return df
}

// FractionalOctaveAverage collects FractionalOctaveBands into a real-valued
// series on the band center frequencies.
func FractionalOctaveAverage(s Series, num int) (Series, error) {
	bands, err := FractionalOctaveBands(s, num)
	if err != nil {
		return Series{}, err
	}
	var (
		freqs  []float64
		levels []complex128
	)
	for b := range bands {
		freqs = append(freqs, b.Center)
		levels = append(levels, complex(b.Level, 0))
	}
	return NewSeries(freqs, levels)
}
