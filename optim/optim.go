// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package optim minimizes dual-number objectives with the gonum optimize methods.
//
// The objective is written once with dual arithmetic. Its gradient and Hessian are
// taken from the same evaluation, so a method asking for 𝒇, ∇𝒇 and ∇²𝒇 at one point
// pays for a single forward pass.
//
// Problems with constraints or bounds are handed to the SLSQP solver, which reads the
// constraint normals from the same dual evaluation.
package optim

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/curioloop/autodiff/dual"
	"github.com/curioloop/autodiff/slsqp"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

// Objective evaluates the scalar function 𝒇(𝐱) : ℝⁿ → ℝ.
type Objective func(x *dual.Vector) (*dual.Scalar, error)

const (
	BFGS            = "bfgs"
	LBFGS           = "lbfgs"
	Newton          = "newton"
	GradientDescent = "gradient-descent"
	NelderMead      = "nelder-mead"
	SLSQP           = "slsqp"
)

// Methods lists the accepted values of Problem.Method.
var Methods = []string{BFGS, LBFGS, Newton, GradientDescent, NelderMead, SLSQP}

// Bound limits one variable to [Lower, Upper]. NaN or an infinite value leaves that side open.
type Bound = slsqp.Bound

// Termination specifies the stopping criteria passed to gonum.
type Termination struct {
	// The iteration stop when ‖∇𝒇(𝐱ₖ)‖∞ < 𝚐𝚝𝚘𝚕. Zero selects 1e-8.
	// SLSQP uses it as the accuracy of its KKT test.
	GradientThreshold float64 `validate:"gte=0"`
	// The iteration stop when the number of major iterations exceeds limit.
	// Zero means no limit, or 100 iterations for SLSQP.
	MaxIterations int `validate:"gte=0"`
	// The iteration stop when the number of objective evaluations exceeds limit. Zero means no limit.
	// Ignored by SLSQP.
	MaxEvaluations int `validate:"gte=0"`
	// The iteration stop when the wall time exceeds limit. Zero means no limit.
	// Ignored by SLSQP.
	Runtime time.Duration `validate:"gte=0"`
}

// Problem specifies a minimization problem.
type Problem struct {
	// The problem dimension.
	N int `validate:"gt=0"`
	// Function to minimize.
	Objective Objective `validate:"required"`
	// One of Methods. Defaults to BFGS.
	Method string `validate:"omitempty,oneof=bfgs lbfgs newton gradient-descent nelder-mead slsqp"`
	// Stop condition.
	Stop Termination
	// Equality constraints 𝒄(𝐱) = 0. Only SLSQP accepts constraints.
	EqCons []Objective `validate:"dive,required"`
	// Inequality constraints 𝒄(𝐱) ≥ 0. Only SLSQP accepts constraints.
	NeqCons []Objective `validate:"dive,required"`
	// Optional bounds, one per variable. Only SLSQP accepts bounds.
	Bounds []Bound
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// New creates an Optimizer for the given problem. A nil logger disables logging.
func (p *Problem) New(logger *zerolog.Logger) (*Optimizer, error) {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if err := validate.Struct(p); err != nil {
		return nil, fmt.Errorf("optim: invalid problem: %w", err)
	}
	o := &Optimizer{Problem: *p, logger: logger.With().Str("solver", "optim").Logger()}
	if o.Method == "" {
		o.Method = BFGS
	}
	if o.Stop.GradientThreshold == 0 {
		o.Stop.GradientThreshold = 1e-8
	}

	constrained := len(o.EqCons) > 0 || len(o.NeqCons) > 0 || o.Bounds != nil
	if constrained && o.Method != SLSQP {
		return nil, fmt.Errorf("optim: %s does not support constraints or bounds, use %s", o.Method, SLSQP)
	}
	if o.Method == SLSQP {
		sp := slsqp.Problem{
			N:       o.N,
			Object:  slsqp.Function(o.Objective),
			EqCons:  functions(o.EqCons),
			NeqCons: functions(o.NeqCons),
			Bounds:  o.Bounds,
			Stop: slsqp.Termination{
				Accuracy:      o.Stop.GradientThreshold,
				MaxIterations: o.Stop.MaxIterations,
			},
		}
		if sp.Stop.MaxIterations == 0 {
			sp.Stop.MaxIterations = 100
		}
		var err error
		if o.sqp, err = sp.New(logger); err != nil {
			return nil, fmt.Errorf("optim: %w", err)
		}
	}
	return o, nil
}

func functions(fs []Objective) []slsqp.Function {
	if len(fs) == 0 {
		return nil
	}
	out := make([]slsqp.Function, len(fs))
	for i, f := range fs {
		out[i] = slsqp.Function(f)
	}
	return out
}

// Optimizer runs gonum methods against a validated Problem.
// An Optimizer holds no iteration state and may be shared by goroutines.
type Optimizer struct {
	Problem
	sqp    *slsqp.Optimizer
	logger zerolog.Logger
}

// Result contains the final result of the minimization.
type Result struct {
	OK      bool      // Whether a minimum was found.
	F       float64   // Final function value.
	X, G    []float64 // Final solution and gradient.
	Summary           // Minimization summary.
}

// Summary contains a summary of the minimization.
type Summary struct {
	Status  optimize.Status // Final status reported by gonum.
	NumIter int             // Number of major iterations.
	NumEval int             // Number of objective evaluations.
	Runtime time.Duration   // Wall time spent.
}

func (o *Optimizer) method() optimize.Method {
	switch o.Method {
	case LBFGS:
		return &optimize.LBFGS{}
	case Newton:
		return &optimize.Newton{}
	case GradientDescent:
		return &optimize.GradientDescent{}
	case NelderMead:
		return &optimize.NelderMead{}
	}
	return &optimize.BFGS{}
}

// Minimize searches a minimum of the objective starting at x0.
// An error returned by the objective aborts the search and is returned wrapped.
func (o *Optimizer) Minimize(x0 []float64) (*Result, error) {

	if len(x0) != o.N {
		panic("initial x dimension does not match the problem")
	}

	if o.sqp != nil {
		return o.constrained(x0)
	}

	e := &evaluator{objective: o.Objective}
	prob := optimize.Problem{
		Func: e.function,
		Grad: e.gradient,
		Hess: e.hessian,
		Status: func() (optimize.Status, error) {
			if e.err != nil {
				return optimize.Failure, e.err
			}
			return optimize.NotTerminated, nil
		},
	}
	settings := &optimize.Settings{
		GradientThreshold: o.Stop.GradientThreshold,
		MajorIterations:   o.Stop.MaxIterations,
		FuncEvaluations:   o.Stop.MaxEvaluations,
		Runtime:           o.Stop.Runtime,
		Recorder:          recorder{o.logger},
	}

	res, err := optimize.Minimize(prob, x0, settings, o.method())
	if e.err != nil {
		return nil, fmt.Errorf("optim: %s: %w", o.Method, e.err)
	}
	if err != nil {
		return nil, fmt.Errorf("optim: %s: %w", o.Method, err)
	}

	r := &Result{
		OK: !res.Status.Early(),
		F:  res.F,
		X:  res.X,
		G:  res.Gradient,
		Summary: Summary{
			Status:  res.Status,
			NumIter: res.MajorIterations,
			NumEval: res.FuncEvaluations,
			Runtime: res.Runtime,
		},
	}
	o.finished(r)
	return r, nil
}

// constrained runs SLSQP and reports its outcome with the gonum statuses.
func (o *Optimizer) constrained(x0 []float64) (*Result, error) {
	start := time.Now()
	res, err := o.sqp.Minimize(x0)
	if err != nil {
		return nil, fmt.Errorf("optim: %s: %w", o.Method, err)
	}

	status := optimize.Failure
	switch res.Status {
	case slsqp.OK:
		status = optimize.MethodConverge
	case slsqp.SQPExceedMaxIter:
		status = optimize.IterationLimit
	}
	if res.Status != slsqp.OK {
		o.logger.Warn().Stringer("slsqp", res.Status).Msg("slsqp stopped early")
	}

	r := &Result{
		OK: res.OK,
		F:  res.F,
		X:  res.X,
		G:  res.G,
		Summary: Summary{
			Status:  status,
			NumIter: res.NumIter,
			NumEval: res.NumEval,
			Runtime: time.Since(start),
		},
	}
	o.finished(r)
	return r, nil
}

func (o *Optimizer) finished(r *Result) {
	o.logger.Info().
		Bool("ok", r.OK).
		Str("method", o.Method).
		Stringer("status", r.Status).
		Int("iter", r.NumIter).
		Floats64("x", r.X).
		Float64("f", r.F).
		Msg("optim finished")
}

// evaluator keeps the last dual evaluation so Func, Grad and Hess at one point share it.
type evaluator struct {
	objective Objective
	x         []float64
	s         *dual.Scalar
	err       error
}

func (e *evaluator) at(x []float64) *dual.Scalar {
	if e.s != nil && floats.Equal(e.x, x) {
		return e.s
	}
	e.s = nil
	v, err := dual.NewVector(x)
	if err == nil {
		e.s, err = e.objective(v)
	}
	if err == nil && e.s == nil {
		err = errors.New("objective returned nil")
	}
	if err != nil {
		if e.err == nil {
			e.err = err
		}
		e.s = nil
		return nil
	}
	e.x = append(e.x[:0], x...)
	return e.s
}

func (e *evaluator) function(x []float64) float64 {
	s := e.at(x)
	if s == nil {
		return math.NaN()
	}
	return s.Value()
}

func (e *evaluator) gradient(grad, x []float64) {
	s := e.at(x)
	if s == nil {
		for i := range grad {
			grad[i] = math.NaN()
		}
		return
	}
	copy(grad, s.Gradient())
}

func (e *evaluator) hessian(hess *mat.SymDense, x []float64) {
	s := e.at(x)
	n := len(x)
	if s == nil {
		for i := range n {
			for j := i; j < n; j++ {
				hess.SetSym(i, j, math.NaN())
			}
		}
		return
	}
	h := s.Hessian()
	r, _ := h.Dims()
	for i := range n {
		for j := i; j < n; j++ {
			v := 0.0
			if i < r && j < r {
				v = h.At(i, j)
			}
			hess.SetSym(i, j, v)
		}
	}
}

// recorder logs major iterations at debug level.
type recorder struct {
	logger zerolog.Logger
}

func (recorder) Init() error { return nil }

func (r recorder) Record(loc *optimize.Location, op optimize.Operation, stats *optimize.Stats) error {
	if op != optimize.MajorIteration {
		return nil
	}
	r.logger.Debug().
		Int("iter", stats.MajorIterations).
		Int("eval", stats.FuncEvaluations).
		Floats64("x", loc.X).
		Float64("f", loc.F).
		Msg("optim iteration")
	return nil
}
