package goocclusion

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJCASignConvention(t *testing.T) {
	axis := logAxis(64, 20, 20000)
	model := JCA{Material: MelamineFoam(), Fluid: AirFluid(Air())}
	zc, k, err := model.Characteristic(axis)
	require.NoError(t, err)
	require.True(t, zc.SameAxis(k))

	for i, v := range k.Values() {
		assert.Greater(t, real(v), 0.0, "Re k bin %d", i)
		assert.Less(t, imag(v), 0.0, "Im k bin %d", i)
	}
	for i, v := range zc.Values() {
		assert.Greater(t, real(v), 0.0, "Re zc bin %d", i)
	}
}

func TestJCAIsSlowerThanAir(t *testing.T) {
	axis := logAxis(16, 100, 10000)
	m := Air()
	_, k, err := JCA{Material: MelamineFoam(), Fluid: AirFluid(m)}.Characteristic(axis)
	require.NoError(t, err)
	for i, f := range axis {
		_, v := k.At(i)
		// Tortuosity and viscous drag slow the wave down.
		assert.Greater(t, real(v), 2*math.Pi*f/m.SpeedOfSound*math.Sqrt(MelamineFoam().Tortuosity)*0.99)
	}
}

func TestJCAHighPorosityLimit(t *testing.T) {
	// A nearly transparent material approaches the saturating fluid.
	mat := PorousMaterial{
		FlowResistivity: 1e-3,
		Porosity:        1,
		Tortuosity:      1,
		ViscousLength:   1,
		ThermalLength:   1,
	}
	fluid := AirFluid(Air())
	axis := []float64{1000}
	zc, k, err := JCA{Material: mat, Fluid: fluid}.Characteristic(axis)
	require.NoError(t, err)

	c0 := math.Sqrt(fluid.HeatRatio * fluid.Pressure / fluid.Density)
	_, kv := k.At(0)
	_, zv := zc.At(0)
	assert.InEpsilon(t, 2*math.Pi*1000/c0, real(kv), 1e-3)
	assert.InEpsilon(t, fluid.Density*c0, cmplx.Abs(zv), 1e-3)
}

func TestJCAValidation(t *testing.T) {
	bad := MelamineFoam()
	bad.Porosity = 1.2
	_, _, err := JCA{Material: bad, Fluid: AirFluid(Air())}.Characteristic([]float64{100})
	assert.Error(t, err)

	_, _, err = JCA{Material: MelamineFoam(), Fluid: AirFluid(Air())}.Characteristic([]float64{0, 100})
	assert.ErrorIs(t, err, ErrNonPositiveFrequency)
}
