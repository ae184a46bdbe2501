package goocclusion

import (
	"fmt"
	"math"
	"math/cmplx"
)

// AbsorberModel yields the characteristic impedance and the complex
// wavenumber of an absorbing medium on a frequency axis.
type AbsorberModel interface {
	Characteristic(freqs []float64) (zc, k Series, err error)
}

// PorousMaterial holds the macroscopic parameters of a rigid-frame porous
// absorber.
type PorousMaterial struct {
	FlowResistivity float64 // sigma, N s/m^4
	Porosity        float64 // phi
	Tortuosity      float64 // alpha_inf
	ViscousLength   float64 // Lambda, m
	ThermalLength   float64 // Lambda', m
}

// Fluid holds the properties of the saturating fluid.
type Fluid struct {
	Density   float64 // kg/m^3
	Pressure  float64 // Pa
	HeatRatio float64 // gamma
	Prandtl   float64
	Viscosity float64 // dynamic viscosity, Pa s
}

// MelamineFoam returns the foam characterised by Carillo et al. (2022) for
// broadband absorbing earplug cavities.
func MelamineFoam() PorousMaterial {
	return PorousMaterial{
		FlowResistivity: 26000,
		Porosity:        0.9,
		Tortuosity:      1.1,
		ViscousLength:   8.7e-5,
		ThermalLength:   1.63e-4,
	}
}

// AirFluid returns air at the density and pressure of m.
func AirFluid(m Medium) Fluid {
	return Fluid{
		Density:   m.Density,
		Pressure:  m.Pressure,
		HeatRatio: 1.4,
		Prandtl:   0.707,
		Viscosity: 1.83e-5,
	}
}

// JCA is the Johnson-Champoux-Allard equivalent fluid model (e^{jwt}
// convention, lossy wavenumbers have negative imaginary parts).
type JCA struct {
	Material PorousMaterial
	Fluid    Fluid
}

// Validate checks that every parameter is physical.
func (j JCA) Validate() error {
	m, f := j.Material, j.Fluid
	switch {
	case m.FlowResistivity <= 0, m.Porosity <= 0, m.Porosity > 1, m.Tortuosity < 1,
		m.ViscousLength <= 0, m.ThermalLength <= 0:
		return fmt.Errorf("jca: invalid material %+v", m)
	case f.Density <= 0, f.Pressure <= 0, f.HeatRatio <= 1, f.Prandtl <= 0, f.Viscosity <= 0:
		return fmt.Errorf("jca: invalid fluid %+v", f)
	}
	return nil
}

// Characteristic implements AbsorberModel.
func (j JCA) Characteristic(freqs []float64) (Series, Series, error) {
	if err := j.Validate(); err != nil {
		return Series{}, Series{}, err
	}
	if err := checkAxis(freqs); err != nil {
		return Series{}, Series{}, err
	}

	var (
		m     = j.Material
		f     = j.Fluid
		sigma = m.FlowResistivity
		phi   = m.Porosity
		alpha = m.Tortuosity
		eta   = f.Viscosity
		rho0  = f.Density
		gamma = f.HeatRatio
		pr    = f.Prandtl
		lv    = m.ViscousLength
		lt    = m.ThermalLength
	)

	zc := make([]complex128, len(freqs))
	k := make([]complex128, len(freqs))
	for i, freq := range freqs {
		if freq <= 0 {
			return Series{}, Series{}, fmt.Errorf("jca: %w: f[%d]=%g", ErrNonPositiveFrequency, i, freq)
		}
		w := 2 * math.Pi * freq
		jw := complex(0, w)

		// Dynamic density (Johnson et al.).
		gv := cmplx.Sqrt(1 + complex(0, 4*alpha*alpha*eta*rho0*w/(sigma*sigma*lv*lv*phi*phi)))
		rho := complex(alpha*rho0, 0) * (1 + complex(sigma*phi, 0)/(jw*complex(rho0*alpha, 0))*gv)

		// Dynamic bulk modulus (Champoux & Allard).
		gt := cmplx.Sqrt(1 + complex(0, rho0*w*pr*lt*lt/(16*eta)))
		inner := 1 + complex(8*eta, 0)/(jw*complex(lt*lt*pr*rho0, 0))*gt
		bulk := complex(gamma*f.Pressure, 0) / (complex(gamma, 0) - complex(gamma-1, 0)/inner)

		// Equivalent fluid.
		rhoEq := rho / complex(phi, 0)
		kEq := bulk / complex(phi, 0)
		zc[i] = cmplx.Sqrt(rhoEq * kEq)
		k[i] = complex(w, 0) * cmplx.Sqrt(rhoEq/kEq)
	}
	axis := cloneFloats(freqs)
	return series(axis, zc), series(axis, k), nil
}
