package goocclusion

// Load is the termination of a two-port: either a finite impedance series
// or an open circuit (infinite impedance, e.g. a perfectly occluding plug).
type Load struct {
	z    Series
	open bool
}

// Finite returns a load terminated by the impedance z.
func Finite(z Series) Load {
	return Load{z: z}
}

// OpenCircuit returns an infinite-impedance load.
func OpenCircuit() Load {
	return Load{open: true}
}

// IsOpen reports whether l is an open circuit.
func (l Load) IsOpen() bool { return l.open }

// Impedance returns the finite impedance of l and false for open circuits.
func (l Load) Impedance() (Series, bool) {
	if l.open {
		return Series{}, false
	}
	return l.z, true
}
