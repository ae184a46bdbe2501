package goocclusion

import (
	"fmt"
	"math"
)

// PinnaOffsetDB is the level offset of a pinna relative to an open tube end.
const PinnaOffsetDB = 7.0

const (
	pinnaLength = 0.01
	pinnaWidth  = 0.02
)

// SimulationContext carries the immutable inputs shared by every simulation:
// the canonical frequency axis, the medium, the canal geometry and the
// specific acoustic impedance measured at the open ear (reference).
type SimulationContext struct {
	Frequencies []float64
	Medium      Medium
	Canal       EarCanal
	Reference   Series
}

// Simulator computes canal transfer functions between the canal wall at the
// plug plane and the tympanic membrane. It is immutable after construction.
type Simulator struct {
	ctx      SimulationContext
	k        Series
	upstream TwoPort // plug plane to canal entrance
	down     TwoPort // plug plane to eardrum
	eardrum  Series
	absorber AbsorberModel
	absZc    Series
	absK     Series
	openEar  Series
}

// NewSimulator builds the canal segments and the eardrum impedance for ctx.
// absorber may be nil when no earmuff simulations are needed.
func NewSimulator(ctx SimulationContext, absorber AbsorberModel) (*Simulator, error) {
	if len(ctx.Frequencies) == 0 {
		return nil, fmt.Errorf("simulator: empty frequency axis")
	}
	if err := ctx.Canal.Validate(); err != nil {
		return nil, fmt.Errorf("simulator: %w", err)
	}
	if !sameAxis(ctx.Frequencies, ctx.Reference.freqs) {
		return nil, fmt.Errorf("simulator: reference impedance: %w", ErrAxisMismatch)
	}

	s := &Simulator{ctx: ctx, absorber: absorber}
	s.ctx.Frequencies = cloneFloats(ctx.Frequencies)

	var err error
	if s.k, err = ctx.Medium.Wavenumber(s.ctx.Frequencies); err != nil {
		return nil, err
	}
	area := ctx.Canal.Area()
	if s.upstream, err = BulkLine(s.k, ctx.Canal.Upstream(), area, ctx.Medium); err != nil {
		return nil, fmt.Errorf("simulator: upstream segment: %w", err)
	}
	if s.down, err = BulkLine(s.k, ctx.Canal.Downstream(), area, ctx.Medium); err != nil {
		return nil, fmt.Errorf("simulator: downstream segment: %w", err)
	}
	if s.eardrum, err = EardrumImpedance(s.ctx.Frequencies); err != nil {
		return nil, fmt.Errorf("simulator: %w", err)
	}
	if absorber != nil {
		if s.absZc, s.absK, err = absorber.Characteristic(s.ctx.Frequencies); err != nil {
			return nil, fmt.Errorf("simulator: absorber: %w", err)
		}
	}
	if s.openEar, err = s.CanalTransfer(Finite(ctx.Reference)); err != nil {
		return nil, fmt.Errorf("simulator: open ear: %w", err)
	}
	return s, nil
}

// Frequencies returns a copy of the canonical axis.
func (s *Simulator) Frequencies() []float64 { return cloneFloats(s.ctx.Frequencies) }

// Context returns the simulation context.
func (s *Simulator) Context() SimulationContext { return s.ctx }

// Eardrum returns the tympanic membrane impedance.
func (s *Simulator) Eardrum() Series { return s.eardrum }

// Upstream returns the segment between plug plane and canal entrance.
func (s *Simulator) Upstream() TwoPort { return s.upstream }

// Downstream returns the segment between plug plane and eardrum.
func (s *Simulator) Downstream() TwoPort { return s.down }

// UpstreamImpedance returns the impedance seen from the plug plane towards a
// canal entrance terminated by load.
func (s *Simulator) UpstreamImpedance(load Load) (Series, error) {
	return s.upstream.InputImpedance(load)
}

// CanalTransfer returns the transfer function from the canal wall to the
// eardrum for a canal entrance terminated by load: the volume velocity
// reaching the eardrum over the volume velocity injected by the wall at the
// plug plane. The upstream part acts as a shunt (leak) admittance in front of
// the downstream segment.
func (s *Simulator) CanalTransfer(load Load) (Series, error) {
	zu, err := s.upstream.InputImpedance(load)
	if err != nil {
		return Series{}, err
	}
	return s.transferFromUpstream(zu)
}

func (s *Simulator) transferFromUpstream(zu Series) (Series, error) {
	chain, err := Cascade(ShuntAdmittance(zu.Inv()), s.down)
	if err != nil {
		return Series{}, err
	}
	return chain.TransferFunction(VelocityPorts, Finite(s.eardrum))
}

// OpenEar returns the transfer function with the measured open-ear reference
// impedance at the entrance.
func (s *Simulator) OpenEar() Series { return s.openEar }

// PerfectlyOccluded returns the transfer function for a rigid (infinite
// impedance) plug.
func (s *Simulator) PerfectlyOccluded() (Series, error) {
	return s.CanalTransfer(OpenCircuit())
}

// Measurement returns the transfer function for a measured load impedance.
func (s *Simulator) Measurement(z Series) (Series, error) {
	return s.CanalTransfer(Finite(z))
}

// OcclusionEffect returns t relative to the open-ear transfer function.
func (s *Simulator) OcclusionEffect(t Series) (Series, error) {
	return t.Div(s.openEar)
}

// EarmuffResult is the outcome of simulating one geometry.
type EarmuffResult struct {
	Geometry GeometryConfiguration
	// LoadImpedance is the impedance of pinna, cup and absorber seen from
	// the canal entrance.
	LoadImpedance Series
	// UpstreamImpedance is LoadImpedance moved to the plug plane and
	// corrected by the pinna offset.
	UpstreamImpedance Series
	Transfer          Series
}

// PinnaOffset returns the linear pinna gain 10^(7/20).
func PinnaOffset() float64 {
	return math.Pow(10, PinnaOffsetDB/20)
}

// EarmuffLoad returns the load impedance of geometry g at the canal entrance:
// a pinna segment, a lossy air cup and an absorber closed by a rigid wall.
func (s *Simulator) EarmuffLoad(g GeometryConfiguration) (Series, error) {
	if s.absorber == nil {
		return Series{}, fmt.Errorf("earmuff %q: no absorber model configured", g.Name)
	}
	if err := g.Validate(); err != nil {
		return Series{}, err
	}
	m := s.ctx.Medium
	kCup, err := m.LossyWavenumber(s.ctx.Frequencies, g.CupArea)
	if err != nil {
		return Series{}, err
	}
	cup, err := BulkLine(kCup, g.CupLength, g.CupArea, m)
	if err != nil {
		return Series{}, fmt.Errorf("earmuff %q: cup: %w", g.Name, err)
	}
	abs, err := TransmissionLine(s.absK, g.AbsorberLength, g.AbsorberArea, s.absZc)
	if err != nil {
		return Series{}, fmt.Errorf("earmuff %q: absorber: %w", g.Name, err)
	}
	pinna, err := BulkLine(s.k, pinnaLength, pinnaWidth*pinnaWidth, m)
	if err != nil {
		return Series{}, fmt.Errorf("earmuff %q: pinna: %w", g.Name, err)
	}
	chain, err := Chain(pinna, cup, abs)
	if err != nil {
		return Series{}, fmt.Errorf("earmuff %q: %w", g.Name, err)
	}
	return chain.InputImpedance(OpenCircuit())
}

// Earmuff simulates geometry g.
func (s *Simulator) Earmuff(g GeometryConfiguration) (EarmuffResult, error) {
	zl, err := s.EarmuffLoad(g)
	if err != nil {
		return EarmuffResult{}, err
	}
	zu, err := s.upstream.InputImpedance(Finite(zl))
	if err != nil {
		return EarmuffResult{}, err
	}
	zu = zu.Scale(complex(PinnaOffset(), 0))
	t, err := s.transferFromUpstream(zu)
	if err != nil {
		return EarmuffResult{}, fmt.Errorf("earmuff %q: %w", g.Name, err)
	}
	return EarmuffResult{
		Geometry:          g,
		LoadImpedance:     zl,
		UpstreamImpedance: zu,
		Transfer:          t,
	}, nil
}

// Earmuffs simulates every geometry in order.
func (s *Simulator) Earmuffs(geoms []GeometryConfiguration) ([]EarmuffResult, error) {
	out := make([]EarmuffResult, 0, len(geoms))
	for _, g := range geoms {
		r, err := s.Earmuff(g)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}
