package goocclusion

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZeroLengthCanalIsTransparent(t *testing.T) {
	axis := logAxis(32, 100, 1500)
	ctx := testContext(t, axis)
	ctx.Canal = EarCanal{Length: 0, Radius: 3.85e-3, PlugDepth: 0}
	ref, err := ctx.Medium.ImpedanceSeries(axis)
	require.NoError(t, err)
	ctx.Reference = ref

	sim, err := NewSimulator(ctx, nil)
	require.NoError(t, err)

	// Without duct segments the wall velocity splits between the reference
	// load and the eardrum only.
	want := sim.Eardrum().Map(func(_ float64, zt complex128) complex128 {
		_, zref := ref.At(0)
		return 1 / (1 + zt/zref)
	})
	requireSeriesNear(t, want, sim.OpenEar(), tolerance)

	id, err := Identity(axis)
	require.NoError(t, err)
	direct, err := Cascade(ShuntAdmittance(ref.Inv()), id)
	require.NoError(t, err)
	tf, err := direct.TransferFunction(VelocityPorts, Finite(sim.Eardrum()))
	require.NoError(t, err)
	requireSeriesNear(t, tf, sim.OpenEar(), tolerance)
}

func TestRigidPlugAtEntrance(t *testing.T) {
	axis := logAxis(16, 100, 1500)
	ctx := testContext(t, axis)
	ctx.Canal.PlugDepth = 0
	sim, err := NewSimulator(ctx, nil)
	require.NoError(t, err)

	zu, err := sim.UpstreamImpedance(OpenCircuit())
	require.NoError(t, err)
	requireInfinite(t, zu)

	occluded, err := sim.PerfectlyOccluded()
	require.NoError(t, err)
	want, err := sim.Downstream().TransferFunction(VelocityPorts, Finite(sim.Eardrum()))
	require.NoError(t, err)
	requireSeriesNear(t, want, occluded, tolerance)
}

func TestOcclusionEffectOfOpenEarIsUnity(t *testing.T) {
	axis := logAxis(32, 100, 1500)
	sim := newTestSimulator(t, axis)
	oe, err := sim.OcclusionEffect(sim.OpenEar())
	require.NoError(t, err)
	for i, v := range oe.Values() {
		requireComplexNear(t, 1, v, tolerance, "bin %d", i)
	}
}

func TestPerfectlyOccludedIsLimitOfLargeLoad(t *testing.T) {
	axis := logAxis(32, 100, 1500)
	sim := newTestSimulator(t, axis)

	occluded, err := sim.PerfectlyOccluded()
	require.NoError(t, err)
	huge, err := ConstantSeries(axis, 1e20)
	require.NoError(t, err)
	measured, err := sim.Measurement(huge)
	require.NoError(t, err)
	requireSeriesNear(t, occluded, measured, 1e-6)
}

func TestOcclusionRaisesLowFrequencyLevel(t *testing.T) {
	axis := logAxis(32, 100, 1500)
	sim := newTestSimulator(t, axis)
	occluded, err := sim.PerfectlyOccluded()
	require.NoError(t, err)
	oe, err := sim.OcclusionEffect(occluded)
	require.NoError(t, err)

	db := oe.DB()
	assert.Greater(t, db[0], 0.0, "occlusion effect at %g Hz", axis[0])
	for i, v := range db {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "bin %d", i)
	}
}

func TestUpstreamImpedanceMovesLoad(t *testing.T) {
	axis := logAxis(8, 100, 1500)
	sim := newTestSimulator(t, axis)
	ref := sim.Context().Reference
	zu, err := sim.UpstreamImpedance(Finite(ref))
	require.NoError(t, err)
	// A line terminated by its own characteristic impedance is matched.
	requireSeriesNear(t, ref, zu, 1e-9)
}

func TestNewSimulatorValidation(t *testing.T) {
	axis := logAxis(8, 100, 1500)

	ctx := testContext(t, axis)
	ctx.Reference = MustSeries([]float64{1}, []complex128{1})
	_, err := NewSimulator(ctx, nil)
	assert.ErrorIs(t, err, ErrAxisMismatch)

	ctx = testContext(t, axis)
	ctx.Canal.PlugDepth = 1
	_, err = NewSimulator(ctx, nil)
	assert.ErrorIs(t, err, ErrNegativeLength)

	ctx = testContext(t, axis)
	ctx.Frequencies = nil
	_, err = NewSimulator(ctx, nil)
	assert.Error(t, err)
}

func TestEarmuffs(t *testing.T) {
	axis := logAxis(32, 100, 1500)
	sim := newTestSimulator(t, axis)
	geoms := DefaultGeometries()

	results, err := sim.Earmuffs(geoms)
	require.NoError(t, err)
	require.Len(t, results, len(geoms))
	for i, r := range results {
		assert.Equal(t, geoms[i].Name, r.Geometry.Name)
		require.Equal(t, len(axis), r.Transfer.Len())
		for j, v := range r.Transfer.Values() {
			assert.False(t, cmplx.IsNaN(v) || cmplx.IsInf(v), "%s bin %d", r.Geometry.Name, j)
		}
	}

	r := results[0]
	plain, err := sim.UpstreamImpedance(Finite(r.LoadImpedance))
	require.NoError(t, err)
	requireSeriesNear(t, plain.Scale(complex(PinnaOffset(), 0)), r.UpstreamImpedance, tolerance)
}

func TestEarmuffRequiresAbsorber(t *testing.T) {
	axis := logAxis(8, 100, 1500)
	sim, err := NewSimulator(testContext(t, axis), nil)
	require.NoError(t, err)
	_, err = sim.Earmuff(DefaultGeometries()[0])
	assert.Error(t, err)

	sim = newTestSimulator(t, axis)
	g := DefaultGeometries()[0]
	g.CupArea = 0
	_, err = sim.Earmuff(g)
	assert.ErrorIs(t, err, ErrNonPositiveArea)
}

func TestPinnaOffset(t *testing.T) {
	assert.InDelta(t, 2.2387, PinnaOffset(), 1e-4)
	assert.InDelta(t, PinnaOffsetDB, ToDB(PinnaOffset()), tolerance)
}

func TestFindGeometry(t *testing.T) {
	geoms := DefaultGeometries()
	require.Len(t, geoms, 6)
	g, ok := FindGeometry(geoms, "l_ext = 15cm, l_foam = 15cm")
	require.True(t, ok)
	assert.Equal(t, 0.15, g.CupLength)
	assert.Equal(t, 0.15, g.AbsorberLength)
	assert.Equal(t, "--", g.Style.LineStyle)

	_, ok = FindGeometry(geoms, "missing")
	assert.False(t, ok)
}
