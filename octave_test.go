package goocclusion

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFractionalOctaveFrequencies(t *testing.T) {
	centers, lower, upper, err := FractionalOctaveFrequencies(1, 100, 1500)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{125, 250, 500, 1000, 2000}, centers, 1e-9)
	for i := range centers {
		assert.InDelta(t, 2, upper[i]/lower[i], 1e-12)
		assert.InDelta(t, centers[i], math.Sqrt(lower[i]*upper[i]), 1e-9)
	}

	centers, lower, upper, err = FractionalOctaveFrequencies(3, 100, 1500)
	require.NoError(t, err)
	require.Len(t, centers, 13)
	assert.InDelta(t, 1000*math.Pow(2, -10.0/3), centers[0], 1e-9)
	assert.InDelta(t, 1000*math.Pow(2, 2.0/3), centers[12], 1e-9)
	assert.InDelta(t, math.Pow(2, 1.0/3), upper[5]/lower[5], 1e-12)

	centers, _, _, err = FractionalOctaveFrequencies(2, 100, 1500)
	require.NoError(t, err)
	require.Len(t, centers, 8)
	assert.InDelta(t, 1000*math.Pow(2, 0.25), centers[7], 1e-9)
}

func TestFractionalOctaveFrequenciesErrors(t *testing.T) {
	_, _, _, err := FractionalOctaveFrequencies(0, 100, 1500)
	assert.Error(t, err)
	_, _, _, err = FractionalOctaveFrequencies(3, 0, 1500)
	assert.Error(t, err)
	_, _, _, err = FractionalOctaveFrequencies(3, 1500, 100)
	assert.Error(t, err)
}

func TestFractionalOctaveBandsOfFlatSpectrum(t *testing.T) {
	axis := logAxis(2000, 20, 20000)
	s, err := ConstantSeries(axis, complex(math.Sqrt2, 0))
	require.NoError(t, err)

	bands, err := FractionalOctaveBands(s, 1)
	require.NoError(t, err)
	var found bool
	for b := range bands {
		if b.Center != 1000 {
			continue
		}
		found = true
		assert.InEpsilon(t, math.Sqrt(b.Upper-b.Lower), b.Level, 0.02)
	}
	assert.True(t, found, "no 1 kHz band")
}

func TestFractionalOctaveBandsStopsEarly(t *testing.T) {
	axis := logAxis(200, 20, 20000)
	s, err := ConstantSeries(axis, 1)
	require.NoError(t, err)
	bands, err := FractionalOctaveBands(s, 3)
	require.NoError(t, err)

	n := 0
	for range bands {
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}

func TestFractionalOctaveAverage(t *testing.T) {
	axis := logAxis(400, 50, 5000)
	s, err := ConstantSeries(axis, 1)
	require.NoError(t, err)
	avg, err := FractionalOctaveAverage(s, 3)
	require.NoError(t, err)
	require.Greater(t, avg.Len(), 10)
	for _, f := range avg.Frequencies() {
		n := 3 * math.Log2(f/1000)
		assert.InDelta(t, math.Round(n), n, 1e-9, "%g Hz is not a third-octave center", f)
	}

	_, err = FractionalOctaveAverage(MustSeries([]float64{100}, []complex128{1}), 3)
	assert.Error(t, err)
}
