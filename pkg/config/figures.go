package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/kacperjurak/goocclusion"
)

// Legend placements.
const (
	LegendInner = "inner"
	LegendOuter = "outer"
)

// FigureNames are the figures the simulate command can produce, in order.
var FigureNames = []string{"fig1", "fig2", "fig3", "fig4"}

// FigureConfig is the per-figure entry of figures.json.
type FigureConfig struct {
	Show            bool       `json:"show"`
	IncludeOpenEar  bool       `json:"include_open_ear"`
	IncludePerfOccl bool       `json:"include_perf_occl"`
	Ylim            [2]float64 `json:"ylim"`
	LocLegend       string     `json:"loc_legend"`
}

// FiguresConfig maps figure names to their settings.
type FiguresConfig map[string]FigureConfig

// DefaultFigures shows every figure with both reference curves.
func DefaultFigures() FiguresConfig {
	return FiguresConfig{
		"fig1": {Show: true, IncludeOpenEar: true, IncludePerfOccl: true, Ylim: [2]float64{-40, 10}, LocLegend: LegendInner},
		"fig2": {Show: true, IncludeOpenEar: true, IncludePerfOccl: true, Ylim: [2]float64{-10, 40}, LocLegend: LegendInner},
		"fig3": {Show: true, IncludeOpenEar: true, IncludePerfOccl: true, Ylim: [2]float64{-10, 40}, LocLegend: LegendInner},
		"fig4": {Show: true, IncludeOpenEar: true, Ylim: [2]float64{120, 220}, LocLegend: LegendInner},
	}
}

// Validate checks the legend placement and axis limits of every figure.
func (f FiguresConfig) Validate() error {
	names := make([]string, 0, len(f))
	for name := range f {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fc := f[name]
		switch fc.LocLegend {
		case LegendInner, LegendOuter, "":
		default:
			return fmt.Errorf("figures: %s: unknown loc_legend %q", name, fc.LocLegend)
		}
		if fc.Show && !(fc.Ylim[0] < fc.Ylim[1]) {
			return fmt.Errorf("figures: %s: invalid ylim %v", name, fc.Ylim)
		}
	}
	return nil
}

// LoadFigures reads and validates a figures.json file.
func LoadFigures(path string) (FiguresConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var figs FiguresConfig
	if err := json.Unmarshal(data, &figs); err != nil {
		return nil, fmt.Errorf("figures: %s: %w", path, err)
	}
	if err := figs.Validate(); err != nil {
		return nil, err
	}
	return figs, nil
}

// LoadStyle reads the display style of a campaign or dataset from its
// config.json.
func LoadStyle(path string) (goocclusion.Style, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return goocclusion.Style{}, err
	}
	var style goocclusion.Style
	if err := json.Unmarshal(data, &style); err != nil {
		return goocclusion.Style{}, fmt.Errorf("style: %s: %w", path, err)
	}
	return style, nil
}
