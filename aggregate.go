package goocclusion

import (
	"fmt"
	"math/cmplx"

	"gonum.org/v1/gonum/stat"
)

// MagnitudeMeanStd returns the per-bin mean and population standard
// deviation of |s| across ss. All series must share one axis.
func MagnitudeMeanStd(ss []Series) (mean, std Series, err error) {
	if len(ss) == 0 {
		return Series{}, Series{}, ErrEmptyCollection
	}
	first := ss[0]
	for i, s := range ss[1:] {
		if !first.SameAxis(s) {
			return Series{}, Series{}, fmt.Errorf("series %d: %w", i+1, ErrAxisMismatch)
		}
	}

	n := first.Len()
	m := make([]complex128, n)
	sd := make([]complex128, n)
	bin := make([]float64, len(ss))
	for i := 0; i < n; i++ {
		for j, s := range ss {
			bin[j] = cmplx.Abs(s.values[i])
		}
		mu, sigma := stat.PopMeanStdDev(bin, nil)
		m[i], sd[i] = complex(mu, 0), complex(sigma, 0)
	}
	return series(first.freqs, m), series(first.freqs, sd), nil
}
