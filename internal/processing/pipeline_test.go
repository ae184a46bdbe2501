package processing

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/kacperjurak/goocclusion"
	"github.com/kacperjurak/goocclusion/pkg/config"
	"github.com/kacperjurak/goocclusion/pkg/dataset"
	"github.com/kacperjurak/goocclusion/pkg/models"
)

func testAxis() []float64 {
	var axis []float64
	for f := 100.0; f <= 1500; f += 10 {
		axis = append(axis, f)
	}
	return axis
}

func testReference(t *testing.T) goocclusion.Series {
	t.Helper()
	z := goocclusion.Air().Impedance() / goocclusion.AverageEarCanal().Area()
	ref, err := goocclusion.ConstantSeries(testAxis(), complex(z, 0))
	require.NoError(t, err)
	return ref
}

func testCampaign(t *testing.T, name string, factors ...float64) models.Campaign {
	t.Helper()
	ref := testReference(t)
	c := models.Campaign{Name: name, Style: goocclusion.Style{Color: "#00549f", LineStyle: "-"}}
	for i, k := range factors {
		c.Samples = append(c.Samples, models.Sample{
			Label:     fmt.Sprintf("%s_%d", name, i+1),
			Impedance: ref.Scale(complex(k, k)),
		})
	}
	return c
}

func newTestPipeline(t *testing.T, opts Options) *Pipeline {
	t.Helper()
	sim, err := NewSimulator(testReference(t))
	require.NoError(t, err)
	opts.Logger = zaptest.NewLogger(t)
	return New(sim, opts)
}

func TestRun(t *testing.T) {
	p := newTestPipeline(t, Options{Workers: 2})
	in := Inputs{
		ReferenceName: "ref.csv",
		Reference:     testReference(t),
		Campaigns: []models.Campaign{
			testCampaign(t, "plugs", 10, 20, 40),
			{Name: "empty"},
			testCampaign(t, "domes", 2),
		},
	}

	res, err := p.Run(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "ref.csv", res.ReferenceName)
	assert.Len(t, res.Earmuffs, len(goocclusion.DefaultGeometries()))
	require.Len(t, res.Campaigns, 3)

	plugs := res.Campaigns[0]
	require.NoError(t, plugs.Err)
	assert.Equal(t, "plugs", plugs.Campaign.Name)
	assert.Len(t, plugs.Transfers, 3)
	assert.Len(t, plugs.Upstream, 3)
	assert.Equal(t, testAxis(), plugs.TransferMean.Frequencies())

	assert.ErrorIs(t, res.Campaigns[1].Err, goocclusion.ErrEmptyCollection)

	domes := res.Campaigns[2]
	require.NoError(t, domes.Err)
	for _, sd := range domes.TransferStd.Magnitudes() {
		assert.InDelta(t, 0, sd, 1e-12)
	}
}

func TestRunCancelled(t *testing.T) {
	p := newTestPipeline(t, Options{Workers: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Run(ctx, Inputs{Reference: testReference(t), Campaigns: []models.Campaign{testCampaign(t, "plugs", 10)}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSimulateLoad(t *testing.T) {
	p := newTestPipeline(t, Options{})
	ref := testReference(t)

	res := p.SimulateLoad(context.Background(), models.WorkItem{ID: 3, RequestID: "r", Label: "open", Load: ref})
	require.NoError(t, res.Err)
	assert.Equal(t, 3, res.ID)
	assert.Equal(t, "open", res.Label)
	for _, db := range res.OcclusionEffect.DB() {
		assert.InDelta(t, 0, db, 1e-9)
	}

	short, err := goocclusion.ConstantSeries([]float64{100, 200}, 1)
	require.NoError(t, err)
	res = p.SimulateLoad(context.Background(), models.WorkItem{Load: short})
	assert.ErrorIs(t, res.Err, goocclusion.ErrAxisMismatch)
}

func TestFigures(t *testing.T) {
	p := newTestPipeline(t, Options{Fractions: 3})
	mean, err := goocclusion.ConstantSeries(testAxis(), complex(goocclusion.FromDB(10), 0))
	require.NoError(t, err)
	std, err := goocclusion.ConstantSeries(testAxis(), complex(goocclusion.FromDB(10)/2, 0))
	require.NoError(t, err)

	res, err := p.Run(context.Background(), Inputs{
		Reference: testReference(t),
		Campaigns: []models.Campaign{testCampaign(t, "plugs", 10, 20)},
		Occlusion: []models.OcclusionDataset{{Name: "published", Style: goocclusion.Style{Color: "black"}, Mean: mean, Std: std}},
	})
	require.NoError(t, err)

	figs := config.DefaultFigures()
	fig2 := figs["fig2"]
	fig2.Show = false
	figs["fig2"] = fig2

	out, err := p.Figures(res, figs)
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, "fig1", out[0].Name)
	assert.Equal(t, "fig3", out[1].Name)
	assert.Equal(t, "fig4", out[2].Name)
	for _, f := range out {
		assert.NotEmpty(t, f.ID)
		assert.Equal(t, figs[f.Name].Ylim, f.Ylim)
	}

	// open ear, perfectly occluded, six geometries, two samples
	assert.Len(t, out[0].Curves, 10)

	fig3 := out[1]
	labels := make([]string, len(fig3.Curves))
	for i, c := range fig3.Curves {
		labels[i] = c.Label
	}
	assert.Equal(t, []string{
		"Reference: Open ear canal (no occlusion)",
		"Perfectly occluded (Z = inf)",
		"Mean (bold) and std (shade) of plugs",
		"plugs (1/3 octave)",
		"published mean",
	}, labels)
	for _, db := range fig3.Curves[0].Magnitude {
		assert.InDelta(t, 0, db, 1e-9)
	}
	published := fig3.Curves[4]
	assert.InDelta(t, 10, published.Magnitude[0], 1e-9)
	assert.InDelta(t, 10+20*math.Log10(1.5), published.Upper[0], 1e-9)
	assert.InDelta(t, 10-20*math.Log10(2), published.Lower[0], 1e-9)
	band := fig3.Curves[3]
	assert.NotEmpty(t, band.Frequencies)
	assert.Len(t, band.Magnitude, len(band.Frequencies))

	fig4 := out[2]
	assert.Equal(t, []models.LegendEntry{{Label: "Simulations", Color: "lightgray"}}, fig4.Patches)
	var anonymous int
	for _, c := range fig4.Curves {
		if c.Anonymous {
			anonymous++
			assert.Equal(t, "lightgray", c.Color)
		}
	}
	assert.Equal(t, 6, anonymous)
}

func TestFit(t *testing.T) {
	p := newTestPipeline(t, Options{Workers: 2})
	target, ok := goocclusion.FindGeometry(goocclusion.DefaultGeometries(), "l_ext = 10cm, l_foam = 5cm")
	require.True(t, ok)
	sim := p.Simulator()
	r, err := sim.Earmuff(target)
	require.NoError(t, err)
	// Move the simulated plug-plane impedance back to the canal entrance.
	up := sim.Upstream()
	values := make([]complex128, up.Len())
	for i := range values {
		a, b, c, d := up.ABCD(i)
		_, zu := r.UpstreamImpedance.At(i)
		values[i] = (d*zu - b) / (a - c*zu)
	}
	measured, err := goocclusion.NewSeries(sim.Frequencies(), values)
	require.NoError(t, err)
	campaign := models.Campaign{Name: "box1", Samples: []models.Sample{{Label: "box1", Impedance: measured}}}

	initial := target
	initial.CupLength, initial.AbsorberLength = 0.09, 0.055
	out, err := p.Fit(context.Background(), []models.Campaign{campaign, {Name: "empty"}}, goocclusion.NelderMead, initial)
	require.NoError(t, err)
	require.Len(t, out, 2)

	require.NoError(t, out[0].Err)
	assert.Equal(t, "box1", out[0].Campaign)
	assert.Equal(t, goocclusion.OK, out[0].Result.Status)
	assert.InEpsilon(t, 0.1, out[0].Result.Geometry.CupLength, 0.05)
	assert.InEpsilon(t, 0.05, out[0].Result.Geometry.AbsorberLength, 0.05)

	assert.ErrorIs(t, out[1].Err, goocclusion.ErrEmptyCollection)
}

func TestLoad(t *testing.T) {
	root := t.TempDir()
	write := func(path, content string) {
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	var sb strings.Builder
	for _, f := range testAxis() {
		fmt.Fprintf(&sb, "%g+0i,400+10i\n", f)
	}
	write(filepath.Join(root, "reference", "ref.csv"), sb.String())
	write(filepath.Join(root, "measurements", "plugs", "a.csv"), sb.String())
	write(filepath.Join(root, "measurements", "plugs", "broken.csv"), "100+0i\n")

	repo := dataset.New(root, zaptest.NewLogger(t))
	in, warnings, err := Load(repo, dataset.Selection{})
	require.NoError(t, err)
	assert.Equal(t, "ref.csv", in.ReferenceName)
	require.Len(t, in.Campaigns, 1)
	assert.Len(t, in.Campaigns[0].Samples, 1)
	assert.Len(t, warnings, 1)

	_, _, err = Load(dataset.New(t.TempDir(), nil), dataset.Selection{})
	assert.ErrorIs(t, err, dataset.ErrMissingDirectory)
}
