package goocclusion

import (
	"fmt"
	"math"
)

// Medium describes the fluid sound travels through.
type Medium struct {
	Density      float64 // kg/m^3
	SpeedOfSound float64 // m/s
	Temperature  float64 // degrees Celsius
	Humidity     float64 // percent
	Pressure     float64 // Pa
}

// Air returns room-condition air as used for the ear canal measurements.
func Air() Medium {
	return Medium{
		Density:      1.2,
		SpeedOfSound: 343,
		Temperature:  23,
		Humidity:     37,
		Pressure:     101320,
	}
}

// Impedance returns the characteristic impedance rho*c.
func (m Medium) Impedance() float64 {
	return m.Density * m.SpeedOfSound
}

// ImpedanceSeries returns rho*c at every frequency of freqs.
func (m Medium) ImpedanceSeries(freqs []float64) (Series, error) {
	return ConstantSeries(freqs, complex(m.Impedance(), 0))
}

// Wavenumber returns the lossless wavenumber k = 2*pi*f/c.
func (m Medium) Wavenumber(freqs []float64) (Series, error) {
	if err := checkAxis(freqs); err != nil {
		return Series{}, err
	}
	k := make([]complex128, len(freqs))
	for i, f := range freqs {
		k[i] = complex(2*math.Pi*f/m.SpeedOfSound, 0)
	}
	return series(cloneFloats(freqs), k), nil
}

// viscousLoss is the empirical boundary-layer loss factor of a rigid cup.
const viscousLoss = 6e-2

// LossyWavenumber returns k - j*0.06*sqrt(f / (c*r)) with r = area/pi, the
// wavenumber of a narrow duct with frequency-dependent viscous losses.
func (m Medium) LossyWavenumber(freqs []float64, area float64) (Series, error) {
	if area <= 0 {
		return Series{}, fmt.Errorf("%w: %g", ErrNonPositiveArea, area)
	}
	k, err := m.Wavenumber(freqs)
	if err != nil {
		return Series{}, err
	}
	return k.Map(func(f float64, v complex128) complex128 {
		return v - complex(0, viscousLoss*math.Sqrt(f/(m.SpeedOfSound*(area/math.Pi))))
	}), nil
}

// EarCanal holds the anthropometric dimensions of the modelled canal.
type EarCanal struct {
	Length    float64 // entrance to tympanic membrane, m
	Radius    float64 // m
	PlugDepth float64 // entrance to the measurement/plug plane, m
}

// AverageEarCanal returns the dimensions of an average adult ear canal.
func AverageEarCanal() EarCanal {
	return EarCanal{
		Length:    27.7e-3,
		Radius:    3.85e-3,
		PlugDepth: 8e-3,
	}
}

// Area returns the cross-sectional area of the canal.
func (e EarCanal) Area() float64 {
	return math.Pi * e.Radius * e.Radius
}

// Upstream returns the length between the plug plane and the entrance.
func (e EarCanal) Upstream() float64 { return e.PlugDepth }

// Downstream returns the length between the plug plane and the eardrum.
func (e EarCanal) Downstream() float64 { return e.Length - e.PlugDepth }

// Validate checks that the dimensions describe a physical canal.
func (e EarCanal) Validate() error {
	if e.Radius <= 0 {
		return fmt.Errorf("ear canal: %w: radius %g", ErrNonPositiveArea, e.Radius)
	}
	if e.PlugDepth < 0 || e.Downstream() < 0 {
		return fmt.Errorf("ear canal: %w: length %g, plug depth %g", ErrNegativeLength, e.Length, e.PlugDepth)
	}
	return nil
}
