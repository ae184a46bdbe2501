package goocclusion

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// measuredFor returns entrance load impedances that reproduce the simulated
// plug-plane impedance of g, i.e. the inverse of the upstream segment.
func measuredFor(t *testing.T, sim *Simulator, g GeometryConfiguration) Series {
	t.Helper()
	r, err := sim.Earmuff(g)
	require.NoError(t, err)
	up := sim.Upstream()
	out := make([]complex128, up.Len())
	for i := range out {
		a, b, c, d := up.ABCD(i)
		_, zu := r.UpstreamImpedance.At(i)
		out[i] = (d*zu - b) / (a - c*zu)
	}
	z, err := NewSeries(sim.Frequencies(), out)
	require.NoError(t, err)
	return z
}

func TestChiSq(t *testing.T) {
	obs := []complex128{1, 2i}
	assert.Zero(t, ChiSq(obs, obs, MODULUS))
	assert.InDelta(t, 0.5, ChiSq(obs, []complex128{0, 2i}, UNITY), tolerance)
	assert.InDelta(t, (1.0/4+0)/2, ChiSq([]complex128{2, 2i}, []complex128{1, 2i}, MODULUS), tolerance)
	assert.Zero(t, ChiSq(nil, nil, UNITY))
	assert.Panics(t, func() { ChiSq(obs, obs[:1], UNITY) })
}

func TestSolverRecoversGeometry(t *testing.T) {
	sim := newTestSimulator(t, logAxis(40, 100, 1500))
	truth := DefaultGeometries()[0]
	measured := measuredFor(t, sim, truth)

	initial := truth
	initial.CupLength = 0.09
	initial.AbsorberLength = 0.055

	s, err := NewSolver(sim, initial, []Series{measured, measured})
	require.NoError(t, err)
	x0 := []float64{math.Log(initial.CupLength), math.Log(initial.AbsorberLength)}
	start := s.problem(x0)
	require.Greater(t, start, 0.0)

	res := s.Solve()
	require.Equal(t, OK, res.Status)
	assert.Equal(t, NelderMead, res.Method)
	assert.Equal(t, "ChiSq", res.MinUnit)
	assert.Less(t, res.Min, start)
	assert.InEpsilon(t, truth.CupLength, res.Geometry.CupLength, 0.05)
	assert.InEpsilon(t, truth.AbsorberLength, res.Geometry.AbsorberLength, 0.05)
	assert.Equal(t, []float64{res.Geometry.CupLength, res.Geometry.AbsorberLength}, res.Params)
	assert.Equal(t, truth.Name, res.Geometry.Name)
}

func TestSolverMethodsImprove(t *testing.T) {
	sim := newTestSimulator(t, logAxis(24, 100, 1500))
	truth := DefaultGeometries()[2]
	measured := measuredFor(t, sim, truth)
	initial := truth
	initial.CupLength = 0.055
	initial.AbsorberLength = 0.09

	for _, method := range []string{LBFGS, LM} {
		t.Run(method, func(t *testing.T) {
			s, err := NewSolver(sim, initial, []Series{measured})
			require.NoError(t, err)
			s.Method = method
			s.MaxIterations = 200
			start := s.problem([]float64{math.Log(initial.CupLength), math.Log(initial.AbsorberLength)})

			res := s.Solve()
			assert.Equal(t, method, res.Method)
			if res.Status == OK {
				assert.LessOrEqual(t, res.Min, start)
			} else {
				assert.Equal(t, initial, res.Geometry)
			}
		})
	}
}

func TestNewSolverValidation(t *testing.T) {
	sim := newTestSimulator(t, logAxis(8, 100, 1500))
	g := DefaultGeometries()[0]

	_, err := NewSolver(sim, g, nil)
	assert.ErrorIs(t, err, ErrEmptyCollection)

	zero := g
	zero.CupLength = 0
	_, err = NewSolver(sim, zero, []Series{sim.Context().Reference})
	assert.ErrorIs(t, err, ErrNegativeLength)

	_, err = NewSolver(sim, g, []Series{MustSeries([]float64{1}, []complex128{1})})
	assert.ErrorIs(t, err, ErrAxisMismatch)
}
