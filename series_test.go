package goocclusion

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSeriesValidation(t *testing.T) {
	tests := []struct {
		name    string
		freqs   []float64
		values  []complex128
		wantErr error
	}{
		{"valid", []float64{100, 200}, []complex128{1, 2}, nil},
		{"empty", nil, nil, nil},
		{"length mismatch", []float64{100, 200}, []complex128{1}, ErrLengthMismatch},
		{"not increasing", []float64{200, 100}, []complex128{1, 2}, ErrInvalidAxis},
		{"duplicate", []float64{100, 100}, []complex128{1, 2}, ErrInvalidAxis},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSeries(tt.freqs, tt.values)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSeriesIsImmutable(t *testing.T) {
	freqs := []float64{100, 200}
	values := []complex128{1, 2}
	s := MustSeries(freqs, values)

	freqs[0], values[0] = 1, 42
	f, v := s.At(0)
	assert.Equal(t, 100.0, f)
	assert.Equal(t, complex128(1), v)

	out := s.Values()
	out[1] = 99
	_, v = s.At(1)
	assert.Equal(t, complex128(2), v)
}

func TestSeriesArithmetic(t *testing.T) {
	a := MustSeries([]float64{100, 200}, []complex128{1 + 1i, 2})
	b := MustSeries([]float64{100, 200}, []complex128{1i, 4})

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, []complex128{1 + 2i, 6}, sum.Values())

	diff, err := a.Sub(b)
	require.NoError(t, err)
	assert.Equal(t, []complex128{1, -2}, diff.Values())

	prod, err := a.Mul(b)
	require.NoError(t, err)
	assert.Equal(t, []complex128{-1 + 1i, 8}, prod.Values())

	quot, err := a.Div(b)
	require.NoError(t, err)
	requireComplexNear(t, 1-1i, quot.Values()[0], tolerance)
	requireComplexNear(t, 0.5, quot.Values()[1], tolerance)

	assert.InDeltaSlice(t, []float64{math.Sqrt2, 2}, a.Magnitudes(), tolerance)
	requireComplexNear(t, complex(math.Sqrt2, 0), a.Abs().Values()[0], tolerance)
}

func TestSeriesAxisMismatch(t *testing.T) {
	a := MustSeries([]float64{100, 200}, []complex128{1, 2})
	b := MustSeries([]float64{100, 300}, []complex128{1, 2})
	c := MustSeries([]float64{100}, []complex128{1})

	_, err := a.Add(b)
	assert.ErrorIs(t, err, ErrAxisMismatch)
	_, err = a.Div(c)
	assert.ErrorIs(t, err, ErrAxisMismatch)
}

func TestSeriesSelfRatio(t *testing.T) {
	freqs := logAxis(64, 100, 1500)
	base, err := ConstantSeries(freqs, 0)
	require.NoError(t, err)
	s := base.Map(func(f float64, _ complex128) complex128 {
		return complex(math.Cos(f/100), math.Sin(f/37)+2)
	})
	r, err := s.Div(s)
	require.NoError(t, err)
	for i, v := range r.Magnitudes() {
		assert.InDelta(t, 1, v, tolerance, "magnitude bin %d", i)
	}
	for i, p := range r.Phases() {
		assert.InDelta(t, 0, p, tolerance, "phase bin %d", i)
	}
}

func TestSeriesMask(t *testing.T) {
	s := MustSeries([]float64{50, 100, 1000, 1500, 2000}, []complex128{1, 2, 3, 4, 5})
	m := s.Mask(100, 1500)
	assert.Equal(t, []float64{100, 1000, 1500}, m.Frequencies())
	assert.Equal(t, []complex128{2, 3, 4}, m.Values())
}

func TestSeriesResample(t *testing.T) {
	s := MustSeries([]float64{100, 200, 400}, []complex128{0, 10 + 10i, 30 - 10i})

	r, err := s.Resample([]float64{50, 150, 300, 500})
	require.NoError(t, err)
	assert.Equal(t, []float64{50, 150, 300, 500}, r.Frequencies())
	want := []complex128{0, 5 + 5i, 20, 30 - 10i}
	for i, w := range want {
		requireComplexNear(t, w, r.Values()[i], tolerance, "bin %d", i)
	}

	same, err := s.Resample(s.Frequencies())
	require.NoError(t, err)
	assert.Equal(t, s.Values(), same.Values())
}

func TestDBConversions(t *testing.T) {
	assert.InDelta(t, 0.501187, FromDB(-6), 1e-6)
	assert.InDelta(t, -6, ToDB(FromDB(-6)), tolerance)
	assert.True(t, math.IsInf(ToDB(0), -1))
}
