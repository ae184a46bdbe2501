package goocclusion

import "fmt"

// EardrumParams are the component values of the lumped middle-ear network
// after Shaw & Stinson (1983), as given in Fig. 7 of Schroeter & Poesselt
// (1986). Values are in acoustic SI units (kg/m^4, kg/(m^4 s), m^5/N).
type EardrumParams struct {
	K float64 // ossicular transformer ratio

	La, Ra, Cp float64 // tympanic cavity aperture
	Ct, Rm     float64 // tympanic cavity
	Cdo, Rdo   float64 // drum, outer coupling
	Ld, Cd, Rd float64 // drum
	Lo, Co, Ro float64 // ossicles
	Cs, Rs     float64 // stapes
	Lc, Cc, Rc float64 // cochlea
}

// DefaultEardrumParams returns the published parameter set.
func DefaultEardrumParams() EardrumParams {
	return EardrumParams{
		K:   9,
		La:  2e3,
		Ra:  1e6,
		Cp:  5.1e-11,
		Ct:  3.5e-12,
		Rm:  2e7,
		Cdo: 2e-12,
		Rdo: 1.7e7,
		Ld:  1.2e3,
		Cd:  3e-11,
		Rd:  1e6,
		Lo:  3e5,
		Co:  1.5e-13,
		Ro:  9e8,
		Cs:  2.7e-14,
		Rs:  3e10,
		Lc:  2e5,
		Cc:  5e-14,
		Rc:  6e9,
	}
}

// EardrumImpedance evaluates the tympanic membrane impedance with the
// default parameters.
func EardrumImpedance(freqs []float64) (Series, error) {
	return DefaultEardrumParams().Impedance(freqs)
}

// Impedance evaluates the network at freqs. All frequencies must be
// positive: the compliances are singular at 0 Hz.
func (p EardrumParams) Impedance(freqs []float64) (Series, error) {
	for i, f := range freqs {
		if f <= 0 {
			return Series{}, fmt.Errorf("eardrum impedance: %w: f[%d]=%g", ErrNonPositiveFrequency, i, f)
		}
	}

	// Cavity: aperture branch in parallel with the cavity compliance and loss.
	cav, err := CircuitImpedance("((clr)cr)", freqs, []float64{p.Cp, p.La, p.Ra, p.Ct, p.Rm})
	if err != nil {
		return Series{}, err
	}
	do, err := CircuitImpedance("rc", freqs, []float64{p.Rdo, p.Cdo})
	if err != nil {
		return Series{}, err
	}
	d, err := CircuitImpedance("rlc", freqs, []float64{p.Rd, p.Ld, p.Cd})
	if err != nil {
		return Series{}, err
	}
	// Ossicles in series with stapes parallel to cochlea.
	o, err := CircuitImpedance("rlc((rc)(rlc))", freqs, []float64{p.Ro, p.Lo, p.Co, p.Rs, p.Cs, p.Rc, p.Lc, p.Cc})
	if err != nil {
		return Series{}, err
	}

	k := complex(p.K, 0)
	k1 := complex((1+p.K)*(1+p.K), 0)
	out := make([]complex128, len(freqs))
	for i := range out {
		zo, zd, zdo := o.values[i], d.values[i], do.values[i]
		zk := (zo*zdo + zo*zd + k*k*zdo*zd) / (zo + zd + k1*zdo)
		out[i] = cav.values[i] + zk
	}
	return series(cloneFloats(freqs), out), nil
}
