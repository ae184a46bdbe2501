package goocclusion

import "fmt"

// Style is the display style of a curve: a color spec ("#cc071e", "lightgray")
// and a line style ("-", "--", ":", "-.").
type Style struct {
	Color     string `json:"color"`
	LineStyle string `json:"linestyle"`
}

// GeometryConfiguration is a simulated earmuff/earplug cup: an air volume of
// CupLength behind the canal entrance followed by an absorber of
// AbsorberLength, closed by a rigid wall.
type GeometryConfiguration struct {
	Name           string  `json:"name"`
	CupLength      float64 `json:"cup_length"`
	AbsorberLength float64 `json:"absorber_length"`
	CupArea        float64 `json:"cup_area"`
	AbsorberArea   float64 `json:"absorber_area"`
	Style          Style   `json:"style"`
}

// Validate checks the dimensions of g.
func (g GeometryConfiguration) Validate() error {
	if g.CupArea <= 0 || g.AbsorberArea <= 0 {
		return fmt.Errorf("geometry %q: %w", g.Name, ErrNonPositiveArea)
	}
	if g.CupLength < 0 || g.AbsorberLength < 0 {
		return fmt.Errorf("geometry %q: %w", g.Name, ErrNegativeLength)
	}
	return nil
}

const (
	defaultCupArea      = 0.0027
	defaultAbsorberArea = 3.5e-3
)

// DefaultGeometries returns the six box configurations compared in the study.
func DefaultGeometries() []GeometryConfiguration {
	box := func(name string, cup, abs float64, color, ls string) GeometryConfiguration {
		return GeometryConfiguration{
			Name:           name,
			CupLength:      cup,
			AbsorberLength: abs,
			CupArea:        defaultCupArea,
			AbsorberArea:   defaultAbsorberArea,
			Style:          Style{Color: color, LineStyle: ls},
		}
	}
	return []GeometryConfiguration{
		box("l_ext = 10cm, l_foam = 5cm", 0.1, 0.05, "#cc071e", "-"),
		box("l_ext = 7.5cm, l_foam = 7.5cm", 0.075, 0.075, "#57ab27", "-"),
		box("l_ext = 5cm, l_foam = 10cm", 0.05, 0.1, "#00549f", "-"),
		box("l_ext = 15cm, l_foam = 15cm", 0.15, 0.15, "#cc071e", "--"),
		box("l_ext = 10cm, l_foam = 10cm", 0.1, 0.1, "#57ab27", "--"),
		box("l_ext = 5cm, l_foam = 15cm", 0.05, 0.15, "#00549f", "--"),
	}
}

// FindGeometry returns the configuration called name.
func FindGeometry(geoms []GeometryConfiguration, name string) (GeometryConfiguration, bool) {
	for _, g := range geoms {
		if g.Name == name {
			return g, true
		}
	}
	return GeometryConfiguration{}, false
}
