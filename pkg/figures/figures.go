// Package figures renders figure descriptions to image files with gonum/plot.
package figures

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/kacperjurak/goocclusion/pkg/config"
	"github.com/kacperjurak/goocclusion/pkg/models"
)

// Output formats.
const (
	PNG = "png"
	SVG = "svg"
)

var (
	// ErrUnknownColor is returned for color specs that are neither hex nor a
	// known color name.
	ErrUnknownColor = errors.New("figures: unknown color")
	// ErrUnknownFormat is returned for output formats other than png and svg.
	ErrUnknownFormat = errors.New("figures: unknown output format")
)

var (
	width  = 16 * vg.Centimeter
	height = 10 * vg.Centimeter
)

// shadeAlpha is the opacity of standard deviation bands.
const shadeAlpha = 0.2

// ParseColor accepts "#rgb", "#rrggbb" or a CSS color name.
func ParseColor(spec string) (color.Color, error) {
	spec = strings.ToLower(strings.TrimSpace(spec))
	if !strings.HasPrefix(spec, "#") {
		c, ok := colornames.Map[spec]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownColor, spec)
		}
		return c, nil
	}
	hex := spec[1:]
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColor, spec)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColor, spec)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

// Dashes maps a line style to a dash pattern. Solid and unknown styles
// return nil.
func Dashes(style string) []vg.Length {
	switch style {
	case "--":
		return []vg.Length{vg.Points(6), vg.Points(3)}
	case ":":
		return []vg.Length{vg.Points(1), vg.Points(2)}
	case "-.":
		return []vg.Length{vg.Points(6), vg.Points(2), vg.Points(1), vg.Points(2)}
	default:
		return nil
	}
}

// Render builds a plot of fig: a logarithmic frequency axis and dB
// magnitudes limited to fig.Ylim.
func Render(fig models.Figure) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = fig.Title
	p.X.Label.Text = "Frequency in Hz"
	p.Y.Label.Text = fig.YLabel
	p.X.Scale = plot.LogScale{}
	p.X.Tick.Marker = plot.LogTicks{Prec: -1}
	if fig.Ylim[0] < fig.Ylim[1] {
		p.Y.Min, p.Y.Max = fig.Ylim[0], fig.Ylim[1]
	}
	p.Add(plotter.NewGrid())

	switch fig.Legend {
	case config.LegendOuter:
		// gonum/plot cannot place a legend outside the data area.
		p.Legend.Top, p.Legend.Left = true, true
	default:
		p.Legend.Top, p.Legend.Left = false, false
	}

	for i, c := range fig.Curves {
		col := plotutil.Color(i)
		if c.Color != "" {
			var err error
			if col, err = ParseColor(c.Color); err != nil {
				return nil, fmt.Errorf("figure %s: curve %q: %w", fig.Name, c.Label, err)
			}
		}

		if c.Lower != nil && c.Upper != nil {
			band, err := shade(c, col, fig.Ylim)
			if err != nil {
				return nil, fmt.Errorf("figure %s: curve %q: %w", fig.Name, c.Label, err)
			}
			if band != nil {
				p.Add(band)
			}
		}

		pts := points(c.Frequencies, c.Magnitude, fig.Ylim)
		if len(pts) == 0 {
			continue
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("figure %s: curve %q: %w", fig.Name, c.Label, err)
		}
		line.Color = col
		line.Width = vg.Points(1.5)
		line.Dashes = Dashes(c.LineStyle)
		p.Add(line)
		if !c.Anonymous && c.Label != "" {
			p.Legend.Add(c.Label, line)
		}
	}

	for _, e := range fig.Patches {
		col, err := ParseColor(e.Color)
		if err != nil {
			return nil, fmt.Errorf("figure %s: patch %q: %w", fig.Name, e.Label, err)
		}
		p.Legend.Add(e.Label, patch{col})
	}
	return p, nil
}

// Save renders fig to dir/<name>.<format> and returns the written path.
func Save(fig models.Figure, dir, format string) (string, error) {
	format = strings.ToLower(format)
	if format != PNG && format != SVG {
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	p, err := Render(fig)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, fig.Name+"."+format)
	if err := p.Save(width, height, path); err != nil {
		return "", fmt.Errorf("figure %s: %w", fig.Name, err)
	}
	return path, nil
}

// points pairs frequencies with values. NaN and non-positive frequencies are
// dropped and infinities pinned to the axis limits.
func points(freqs, values []float64, ylim [2]float64) plotter.XYs {
	n := min(len(freqs), len(values))
	pts := make(plotter.XYs, 0, n)
	for i := 0; i < n; i++ {
		x, y := freqs[i], values[i]
		if !(x > 0) || math.IsNaN(y) || math.IsInf(x, 0) {
			continue
		}
		if math.IsInf(y, 0) {
			y = clampInf(y, ylim)
		}
		pts = append(pts, plotter.XY{X: x, Y: y})
	}
	return pts
}

func clampInf(y float64, ylim [2]float64) float64 {
	if ylim[0] < ylim[1] {
		if y < 0 {
			return ylim[0]
		}
		return ylim[1]
	}
	if y < 0 {
		return -math.MaxFloat32
	}
	return math.MaxFloat32
}

// shade returns the filled area between the lower and upper bound of c.
func shade(c models.Curve, col color.Color, ylim [2]float64) (*plotter.Polygon, error) {
	lower := points(c.Frequencies, c.Lower, ylim)
	upper := points(c.Frequencies, c.Upper, ylim)
	if len(lower) == 0 || len(upper) == 0 {
		return nil, nil
	}
	ring := make(plotter.XYs, 0, len(lower)+len(upper))
	ring = append(ring, lower...)
	for i := len(upper) - 1; i >= 0; i-- {
		ring = append(ring, upper[i])
	}
	poly, err := plotter.NewPolygon(ring)
	if err != nil {
		return nil, err
	}
	r, g, b, _ := col.RGBA()
	poly.Color = color.NRGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: uint8(shadeAlpha * 255)}
	poly.LineStyle.Width = 0
	return poly, nil
}

// patch is a legend entry drawn as a filled box.
type patch struct {
	color color.Color
}

func (p patch) Thumbnail(c *draw.Canvas) {
	c.FillPolygon(p.color, []vg.Point{
		{X: c.Min.X, Y: c.Min.Y},
		{X: c.Min.X, Y: c.Max.Y},
		{X: c.Max.X, Y: c.Max.Y},
		{X: c.Max.X, Y: c.Min.Y},
	})
}
