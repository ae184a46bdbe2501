package goocclusion

import (
	"fmt"
	"math/cmplx"
)

// TransmissionLine returns the two-port of a uniform duct segment in terms of
// pressure and volume velocity. k is the (possibly complex, lossy) wavenumber
// and zc the characteristic impedance of the medium filling the duct; both
// must share one frequency axis.
func TransmissionLine(k Series, length, area float64, zc Series) (TwoPort, error) {
	if area <= 0 {
		return TwoPort{}, fmt.Errorf("transmission line: %w: %g", ErrNonPositiveArea, area)
	}
	if length < 0 {
		return TwoPort{}, fmt.Errorf("transmission line: %w: %g", ErrNegativeLength, length)
	}
	if err := k.checkAxis(zc); err != nil {
		return TwoPort{}, fmt.Errorf("transmission line: %w", err)
	}

	p := newTwoPort(k.freqs)
	l := complex(length, 0)
	s := complex(area, 0)
	for i := range p.freqs {
		kl := k.values[i] * l
		z := zc.values[i] / s
		sin, cos := cmplx.Sin(kl), cmplx.Cos(kl)
		p.a[i] = cos
		p.b[i] = 1i * z * sin
		p.c[i] = 1i * sin / z
		p.d[i] = cos
	}
	return p, nil
}

// BulkLine is TransmissionLine filled with the medium m itself (zc = rho*c).
func BulkLine(k Series, length, area float64, m Medium) (TwoPort, error) {
	zc, err := m.ImpedanceSeries(k.freqs)
	if err != nil {
		return TwoPort{}, err
	}
	return TransmissionLine(k, length, area, zc)
}
