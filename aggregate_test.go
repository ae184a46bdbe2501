package goocclusion

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMagnitudeMeanStdSingle(t *testing.T) {
	s := MustSeries([]float64{100, 200}, []complex128{3 + 4i, -2})
	mean, std, err := MagnitudeMeanStd([]Series{s})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{5, 2}, mean.Magnitudes(), tolerance)
	assert.InDeltaSlice(t, []float64{0, 0}, std.Magnitudes(), tolerance)
	assert.Equal(t, s.Frequencies(), mean.Frequencies())
}

func TestMagnitudeMeanStdPopulation(t *testing.T) {
	axis := []float64{100}
	ss := []Series{
		MustSeries(axis, []complex128{1}),
		MustSeries(axis, []complex128{3i}),
		MustSeries(axis, []complex128{-2}),
		MustSeries(axis, []complex128{2}),
	}
	mean, std, err := MagnitudeMeanStd(ss)
	require.NoError(t, err)
	_, m := mean.At(0)
	_, sd := std.At(0)
	assert.InDelta(t, 2, real(m), tolerance)
	assert.InDelta(t, math.Sqrt(0.5), real(sd), tolerance)
}

func TestMagnitudeMeanStdErrors(t *testing.T) {
	_, _, err := MagnitudeMeanStd(nil)
	assert.ErrorIs(t, err, ErrEmptyCollection)

	_, _, err = MagnitudeMeanStd([]Series{
		MustSeries([]float64{100}, []complex128{1}),
		MustSeries([]float64{200}, []complex128{1}),
	})
	assert.ErrorIs(t, err, ErrAxisMismatch)
}
