package goocclusion

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/require"
)

const tolerance = 1e-9

// logAxis returns n logarithmically spaced frequencies between lo and hi.
func logAxis(n int, lo, hi float64) []float64 {
	f := make([]float64, n)
	for i := range f {
		f[i] = lo * math.Pow(hi/lo, float64(i)/float64(n-1))
	}
	return f
}

// linAxis returns n linearly spaced frequencies between lo and hi.
func linAxis(n int, lo, hi float64) []float64 {
	f := make([]float64, n)
	for i := range f {
		f[i] = lo + (hi-lo)*float64(i)/float64(n-1)
	}
	return f
}

func requireComplexNear(t *testing.T, want, got complex128, tol float64, msgAndArgs ...interface{}) {
	t.Helper()
	scale := math.Max(1, cmplx.Abs(want))
	require.LessOrEqual(t, cmplx.Abs(want-got)/scale, tol, msgAndArgs...)
}

func requireSeriesNear(t *testing.T, want, got Series, tol float64) {
	t.Helper()
	require.True(t, want.SameAxis(got), "axis mismatch")
	for i := 0; i < want.Len(); i++ {
		f, w := want.At(i)
		_, g := got.At(i)
		requireComplexNear(t, w, g, tol, "bin %d (%g Hz): want %v, got %v", i, f, w, g)
	}
}

func requireTwoPortNear(t *testing.T, want, got TwoPort, tol float64) {
	t.Helper()
	require.Equal(t, want.Len(), got.Len())
	for i := 0; i < want.Len(); i++ {
		wa, wb, wc, wd := want.ABCD(i)
		ga, gb, gc, gd := got.ABCD(i)
		requireComplexNear(t, wa, ga, tol, "A[%d]", i)
		requireComplexNear(t, wb, gb, tol, "B[%d]", i)
		requireComplexNear(t, wc, gc, tol, "C[%d]", i)
		requireComplexNear(t, wd, gd, tol, "D[%d]", i)
	}
}

// testContext returns an average canal on axis, radiating into a reference
// load of rho*c/S.
func testContext(t *testing.T, axis []float64) SimulationContext {
	t.Helper()
	m := Air()
	canal := AverageEarCanal()
	ref, err := ConstantSeries(axis, complex(m.Impedance()/canal.Area(), 0))
	require.NoError(t, err)
	return SimulationContext{
		Frequencies: axis,
		Medium:      m,
		Canal:       canal,
		Reference:   ref,
	}
}

func newTestSimulator(t *testing.T, axis []float64) *Simulator {
	t.Helper()
	sim, err := NewSimulator(testContext(t, axis), JCA{Material: MelamineFoam(), Fluid: AirFluid(Air())})
	require.NoError(t, err)
	return sim
}
