package processing

import (
	"fmt"
	"math/cmplx"

	"go.uber.org/zap"

	"github.com/kacperjurak/goocclusion"
	"github.com/kacperjurak/goocclusion/internal/utils"
	"github.com/kacperjurak/goocclusion/pkg/config"
	"github.com/kacperjurak/goocclusion/pkg/models"
)

const (
	openEarColor     = "#f6a800"
	openEarLine      = ":"
	occludedColor    = "#4f9d69"
	occludedLine     = "-."
	simulationColor  = "lightgray"
	magnitudeLabel   = "Magnitude in dB"
	impedanceYLabel  = "Impedance magnitude in dB"
	openEarTFLabel   = "Open ear (reference measurement)"
	occludedTFLabel  = "Perfectly occluded (Z=inf)"
	openEarOELabel   = "Reference: Open ear canal (no occlusion)"
	occludedOELabel  = "Perfectly occluded (Z = inf)"
	simulationsLabel = "Simulations"
)

// Figures builds every figure that figs shows, in fig1..fig4 order.
func (p *Pipeline) Figures(res Results, figs config.FiguresConfig) ([]models.Figure, error) {
	var out []models.Figure
	for _, name := range config.FigureNames {
		fc, ok := figs[name]
		if !ok || !fc.Show {
			continue
		}
		var (
			fig models.Figure
			err error
		)
		switch name {
		case "fig1":
			fig, err = p.transferFigure(res, fc)
		case "fig2":
			fig, err = p.occlusionEffectFigure(res, fc)
		case "fig3":
			fig, err = p.occlusionGainFigure(res, fc)
		case "fig4":
			fig, err = p.loadImpedanceFigure(res, fc)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		fig.ID = utils.GenerateID()
		fig.Name = name
		fig.Ylim = fc.Ylim
		fig.Legend = fc.LocLegend
		out = append(out, fig)
	}
	return out, nil
}

func curve(label string, style goocclusion.Style, s goocclusion.Series) models.Curve {
	return models.Curve{
		Label:       label,
		Color:       style.Color,
		LineStyle:   style.LineStyle,
		Frequencies: s.Frequencies(),
		Magnitude:   s.DB(),
	}
}

// shaded returns a curve of mean with a band of mean ± std. Both are
// magnitudes, scale is applied to all three.
func shaded(label string, style goocclusion.Style, mean, std goocclusion.Series, scale []float64) models.Curve {
	freqs := mean.Frequencies()
	m, sd := mean.Magnitudes(), std.Magnitudes()
	c := models.Curve{
		Label:       label,
		Color:       style.Color,
		LineStyle:   style.LineStyle,
		Frequencies: freqs,
		Magnitude:   make([]float64, len(freqs)),
		Lower:       make([]float64, len(freqs)),
		Upper:       make([]float64, len(freqs)),
	}
	for i := range freqs {
		k := 1.0
		if scale != nil {
			k = scale[i]
		}
		c.Magnitude[i] = goocclusion.ToDB(m[i] * k)
		c.Lower[i] = goocclusion.ToDB((m[i] - sd[i]) * k)
		c.Upper[i] = goocclusion.ToDB((m[i] + sd[i]) * k)
	}
	return c
}

// inverseMagnitude returns 1/|s| per bin.
func inverseMagnitude(s goocclusion.Series) []float64 {
	out := make([]float64, s.Len())
	for i := range out {
		_, v := s.At(i)
		out[i] = 1 / cmplx.Abs(v)
	}
	return out
}

func (p *Pipeline) referenceCurves(res Results, fc config.FigureConfig, effect bool) ([]models.Curve, error) {
	var out []models.Curve
	if fc.IncludeOpenEar {
		s, label := res.OpenEar, openEarTFLabel
		if effect {
			oe, err := p.sim.OcclusionEffect(res.OpenEar)
			if err != nil {
				return nil, err
			}
			s, label = oe, openEarOELabel
		}
		out = append(out, curve(label, goocclusion.Style{Color: openEarColor, LineStyle: openEarLine}, s))
	}
	if fc.IncludePerfOccl {
		s, label := res.PerfectlyOccluded, occludedTFLabel
		if effect {
			oe, err := p.sim.OcclusionEffect(res.PerfectlyOccluded)
			if err != nil {
				return nil, err
			}
			s, label = oe, occludedOELabel
		}
		out = append(out, curve(label, goocclusion.Style{Color: occludedColor, LineStyle: occludedLine}, s))
	}
	return out, nil
}

func (p *Pipeline) transferFigure(res Results, fc config.FigureConfig) (models.Figure, error) {
	fig := models.Figure{Title: "Transfer functions between EC wall and TM", YLabel: magnitudeLabel}
	curves, err := p.referenceCurves(res, fc, false)
	if err != nil {
		return fig, err
	}
	for _, e := range res.Earmuffs {
		curves = append(curves, curve(e.Geometry.Name, e.Geometry.Style, e.Transfer))
	}
	for _, c := range res.Campaigns {
		for i, t := range c.Transfers {
			curves = append(curves, curve(c.Campaign.Samples[i].Label, c.Campaign.Style, t))
		}
	}
	fig.Curves = curves
	return fig, nil
}

func (p *Pipeline) occlusionEffectFigure(res Results, fc config.FigureConfig) (models.Figure, error) {
	fig := models.Figure{Title: "Estimated occlusion effect (vs reference measurement)", YLabel: magnitudeLabel}
	curves, err := p.referenceCurves(res, fc, true)
	if err != nil {
		return fig, err
	}
	for _, c := range res.Campaigns {
		for i, t := range c.Transfers {
			oe, err := p.sim.OcclusionEffect(t)
			if err != nil {
				return fig, err
			}
			curves = append(curves, curve(c.Campaign.Samples[i].Label, c.Campaign.Style, oe))
		}
	}
	for _, d := range res.Occlusion {
		curves = append(curves, shaded(d.Name, d.Style, d.Mean, d.Std, nil))
	}
	fig.Curves = curves
	return fig, nil
}

func (p *Pipeline) occlusionGainFigure(res Results, fc config.FigureConfig) (models.Figure, error) {
	fig := models.Figure{Title: "Estimated Occlusion Gain", YLabel: magnitudeLabel}
	curves, err := p.referenceCurves(res, fc, true)
	if err != nil {
		return fig, err
	}
	ref := inverseMagnitude(res.OpenEar)
	for _, c := range res.Campaigns {
		if c.Err != nil {
			continue
		}
		label := "Mean (bold) and std (shade) of " + c.Campaign.Name
		curves = append(curves, shaded(label, c.Campaign.Style, c.TransferMean, c.TransferStd, ref))
		if p.opts.Fractions > 0 {
			band, err := p.bandGain(c)
			if err != nil {
				p.logger.Warn("skipping band average", zap.String("campaign", c.Campaign.Name), zap.Error(err))
				continue
			}
			curves = append(curves, band)
		}
	}
	for _, d := range res.Occlusion {
		curves = append(curves, shaded(d.Name+" mean", d.Style, d.Mean, d.Std, nil))
	}
	fig.Curves = curves
	return fig, nil
}

// bandGain averages the mean occlusion gain of c in fractional-octave bands,
// normalized by the bands of a flat unit spectrum.
func (p *Pipeline) bandGain(c CampaignResult) (models.Curve, error) {
	gain, err := c.TransferMean.Div(p.sim.OpenEar())
	if err != nil {
		return models.Curve{}, err
	}
	flat, err := goocclusion.ConstantSeries(gain.Frequencies(), 1)
	if err != nil {
		return models.Curve{}, err
	}
	num, err := goocclusion.FractionalOctaveBands(gain, p.opts.Fractions)
	if err != nil {
		return models.Curve{}, err
	}
	den, err := goocclusion.FractionalOctaveAverage(flat, p.opts.Fractions)
	if err != nil {
		return models.Curve{}, err
	}

	out := models.Curve{
		Label:     fmt.Sprintf("%s (1/%d octave)", c.Campaign.Name, p.opts.Fractions),
		Color:     c.Campaign.Style.Color,
		LineStyle: "-.",
	}
	i := 0
	for b := range num {
		if i >= den.Len() {
			break
		}
		_, norm := den.At(i)
		i++
		if real(norm) <= 0 {
			continue
		}
		out.Frequencies = append(out.Frequencies, b.Center)
		out.Magnitude = append(out.Magnitude, goocclusion.ToDB(b.Level/real(norm)))
	}
	if len(out.Frequencies) == 0 {
		return models.Curve{}, fmt.Errorf("no populated bands for 1/%d octave", p.opts.Fractions)
	}
	return out, nil
}

func (p *Pipeline) loadImpedanceFigure(res Results, fc config.FigureConfig) (models.Figure, error) {
	fig := models.Figure{
		Title:   "Simulated Load Impedances",
		YLabel:  impedanceYLabel,
		Patches: []models.LegendEntry{{Label: simulationsLabel, Color: simulationColor}},
	}
	if fc.IncludeOpenEar {
		fig.Curves = append(fig.Curves, curve("open ear", goocclusion.Style{Color: openEarColor, LineStyle: openEarLine}, res.OpenEarUpstream))
	}
	for _, e := range res.Earmuffs {
		c := curve(e.Geometry.Name, goocclusion.Style{Color: simulationColor, LineStyle: e.Geometry.Style.LineStyle}, e.UpstreamImpedance)
		c.Anonymous = true
		fig.Curves = append(fig.Curves, c)
	}
	for _, c := range res.Campaigns {
		if c.Err != nil {
			continue
		}
		label := "Mean (bold) and std (shade) of " + c.Campaign.Name
		fig.Curves = append(fig.Curves, shaded(label, c.Campaign.Style, c.UpstreamMean, c.UpstreamStd, nil))
	}
	return fig, nil
}
