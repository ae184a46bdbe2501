package goocclusion

import (
	"fmt"
	"math"
	"math/cmplx"
	"time"

	"github.com/maorshutman/lm"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/optimize"
)

type Weighting int

const (
	MODULUS Weighting = iota
	UNITY
)

// Solver status values.
const (
	OK    = "OK"
	ERROR = "ERROR"
)

// Fit methods.
const (
	NelderMead = "nelder-mead"
	LM         = "lm"
	LBFGS      = "lbfgs"
)

// Methods lists the supported fit methods.
var Methods = []string{NelderMead, LM, LBFGS}

// Result is the outcome of a geometry fit.
type Result struct {
	Geometry GeometryConfiguration
	Params   []float64 // cup length, absorber length in m
	Min      float64
	MinUnit  string
	Status   string
	Method   string
	Iters    int
	FuncEval int
	Runtime  time.Duration
}

// Solver fits the cup and absorber lengths of a geometry so that its
// simulated impedance at the plug plane matches measured load impedances.
type Solver struct {
	sim      *Simulator
	observed [][]complex128
	initial  GeometryConfiguration

	Method        string
	Weighting     Weighting
	MaxIterations int
	Logger        *zap.Logger
}

// NewSolver prepares a fit of initial against the measured entrance load
// impedances of one campaign.
func NewSolver(sim *Simulator, initial GeometryConfiguration, measured []Series) (*Solver, error) {
	if len(measured) == 0 {
		return nil, ErrEmptyCollection
	}
	if err := initial.Validate(); err != nil {
		return nil, err
	}
	if initial.CupLength <= 0 || initial.AbsorberLength <= 0 {
		return nil, fmt.Errorf("solver: initial lengths must be positive: %w", ErrNegativeLength)
	}
	observed := make([][]complex128, len(measured))
	for i, z := range measured {
		zu, err := sim.UpstreamImpedance(Finite(z))
		if err != nil {
			return nil, fmt.Errorf("solver: sample %d: %w", i, err)
		}
		observed[i] = zu.values
	}
	return &Solver{
		sim:           sim,
		observed:      observed,
		initial:       initial,
		Method:        NelderMead,
		Weighting:     MODULUS,
		MaxIterations: 500,
	}, nil
}

func (s *Solver) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

// geometry maps log-space parameters back to a configuration.
func (s *Solver) geometry(x []float64) GeometryConfiguration {
	g := s.initial
	g.CupLength = math.Exp(x[0])
	g.AbsorberLength = math.Exp(x[1])
	return g
}

func (s *Solver) calculate(x []float64) ([]complex128, error) {
	r, err := s.sim.Earmuff(s.geometry(x))
	if err != nil {
		return nil, err
	}
	return r.UpstreamImpedance.values, nil
}

func (s *Solver) problem(x []float64) float64 {
	calculated, err := s.calculate(x)
	if err != nil {
		return math.Inf(1)
	}
	var sum float64
	for _, o := range s.observed {
		sum += ChiSq(o, calculated, s.Weighting)
	}
	return sum / float64(len(s.observed))
}

// Solve runs the configured method.
func (s *Solver) Solve() Result {
	start := time.Now()
	x0 := []float64{math.Log(s.initial.CupLength), math.Log(s.initial.AbsorberLength)}

	var res Result
	switch s.Method {
	case LM:
		res = s.lmSolve(x0)
	case LBFGS:
		res = s.gradientSolve(x0, &optimize.LBFGS{})
	case NelderMead, "":
		res = s.gradientSolve(x0, &optimize.NelderMead{})
	default:
		s.logger().Warn("unknown fit method, using nelder-mead", zap.String("method", s.Method))
		res = s.gradientSolve(x0, &optimize.NelderMead{})
	}
	res.Runtime = time.Since(start)
	res.MinUnit = "ChiSq"
	if res.Status == OK {
		res.Geometry = s.geometry(res.Params)
		res.Params = []float64{res.Geometry.CupLength, res.Geometry.AbsorberLength}
	} else {
		res.Geometry = s.initial
	}
	s.logger().Info("geometry fit finished",
		zap.String("method", res.Method),
		zap.String("status", res.Status),
		zap.Float64("chi_sq", res.Min),
		zap.Float64s("params", res.Params),
		zap.Duration("runtime", res.Runtime))
	return res
}

// gradientSolve runs a gonum optimizer. Gradient based methods get a
// finite-difference gradient.
func (s *Solver) gradientSolve(x0 []float64, method optimize.Method) Result {
	name := NelderMead
	problem := optimize.Problem{Func: s.problem}
	if _, ok := method.(*optimize.LBFGS); ok {
		name = LBFGS
		problem.Grad = func(grad, x []float64) {
			fd.Gradient(grad, s.problem, x, nil)
		}
	}
	s.logger().Debug("starting geometry fit", zap.String("method", name), zap.Float64s("x0", x0))

	settings := &optimize.Settings{MajorIterations: s.MaxIterations}
	res, err := optimize.Minimize(problem, x0, settings, method)
	if err != nil {
		s.logger().Warn("optimization stopped", zap.String("method", name), zap.Error(err))
		if res == nil {
			return Result{Method: name, Status: ERROR, Min: math.Inf(1)}
		}
	}
	if math.IsInf(res.F, 0) || math.IsNaN(res.F) {
		return Result{Method: name, Status: ERROR, Min: math.Inf(1)}
	}
	return Result{
		Method:   name,
		Params:   res.X,
		Min:      res.F,
		Iters:    res.MajorIterations,
		FuncEval: res.FuncEvaluations,
		Status:   OK,
	}
}

// lmSolve runs Levenberg-Marquardt on real and imaginary residuals.
func (s *Solver) lmSolve(x0 []float64) (out Result) {
	n := len(s.observed[0])
	fnc := func(dst, x []float64) {
		calculated, err := s.calculate(x)
		if err != nil {
			for i := range dst {
				dst[i] = 1e6
			}
			return
		}
		k := 0
		for _, o := range s.observed {
			for i, c := range calculated {
				w := 1.0
				if s.Weighting == MODULUS {
					if a := cmplx.Abs(o[i]); a > 0 {
						w = a
					}
				}
				d := (o[i] - c) / complex(w, 0)
				dst[k], dst[k+1] = real(d), imag(d)
				k += 2
			}
		}
	}

	jac := lm.NumJac{Func: fnc}
	problem := lm.LMProblem{
		Dim:        len(x0),
		Size:       2 * n * len(s.observed),
		Func:       fnc,
		Jac:        jac.Jac,
		InitParams: x0,
		Tau:        1e-6,
		Eps1:       1e-8,
		Eps2:       1e-8,
	}

	// lm panics on singular normal equations.
	defer func() {
		if r := recover(); r != nil {
			s.logger().Warn("LM optimization panicked", zap.Any("panic", r))
			out = Result{Method: LM, Status: ERROR, Min: math.Inf(1)}
		}
	}()

	res, err := lm.LM(problem, &lm.Settings{Iterations: s.MaxIterations, ObjectiveTol: 1e-16})
	if err != nil {
		s.logger().Warn("LM optimization failed", zap.Error(err))
		return Result{Method: LM, Status: ERROR, Min: math.Inf(1)}
	}
	return Result{
		Method: LM,
		Params: res.X,
		Min:    s.problem(res.X),
		Status: OK,
	}
}

// ChiSq returns the mean squared distance between observed and calculated,
// relative to |observed| for MODULUS weighting.
func ChiSq(observed, calculated []complex128, weighting Weighting) float64 {
	if len(observed) != len(calculated) {
		panic("solver chiSq: slice length mismatch")
	}
	if len(observed) == 0 {
		return 0
	}
	chiSq := 0.0
	for i, o := range observed {
		d := o - calculated[i]
		d2 := real(d)*real(d) + imag(d)*imag(d)
		if weighting == MODULUS {
			if w := cmplx.Abs(o); w > 0 {
				d2 /= w * w
			}
		}
		chiSq += d2
	}
	return chiSq / float64(len(observed))
}
