// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package slsqp

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/curioloop/autodiff/dual"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// Bound represents the bounds for an optimization variable.
type Bound struct {
	Lower, Upper float64
}

// Function evaluates 𝒇(𝐱) : ℝⁿ → ℝ with dual arithmetic.
// The objective and every constraint are a Function; their gradients and the
// constraint normals 𝒄′(𝐱) : ℝⁿ → ℝᵐˣⁿ are read from the dual result.
type Function func(x *dual.Vector) (*dual.Scalar, error)

// Termination specifies the stopping criteria for the optimization algorithm.
type Termination struct {
	// The norm accuracy that determines the final solution.
	Accuracy float64 `validate:"gt=0"`
	// The iteration stop when the number of iteration exceeds limit.
	MaxIterations int `validate:"gt=0"`
	// The maximum number of iterations in the NNLS problem, 3n when zero.
	NNLSIterations int `validate:"gte=0"`
	// The iteration will stop when |𝒇ₖ| < 𝚏𝚝𝚘𝚕
	FEvalTolerance float64
	// The iteration will stop when |𝒇ₖ₊₁ - 𝒇ₖ| < 𝚍𝚏𝚝𝚘𝚕
	FDiffTolerance float64
	// The iteration will stop when |𝐱ₖ₊₁ - 𝐱ₖ| < 𝚍𝚡𝚝𝚘𝚕
	XDiffTolerance float64
}

// LineSearch specifies the options for the line-search.
type LineSearch struct {
	// if Exact is true then an exact line-search is performed,
	// otherwise an armijo-type line-search is used
	Exact bool
	// The step range for line-search: 0 < Alpha[Lower] < Alpha[Upper] ≤ 1
	Alpha *Bound
}

// Problem specifies the problem for SLSQP optimizer.
type Problem struct {
	N       int         `validate:"gt=0"`   // The problem dimension
	Stop    Termination // Stop condition
	Line    LineSearch  // LineSearch option
	Object  Function    `validate:"required"` // Objective function 𝒇(𝐱)
	EqCons  []Function  // Equality constraints 𝒄(𝐱) = 0
	NeqCons []Function  // Inequality constraints 𝒄(𝐱) ≥ 0
	Bounds  []Bound     // Optional bounds
	// Infinity for bounds:
	//  - lower bounds are considered not exist when 𝒍ᵢ ≤ - BndInf
	//  - upper bounds are considered not exist when 𝒖ᵢ ≥ BndInf
	BndInf float64
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// New creates a new SLSQP optimizer for given problem. A nil logger disables logging.
func (p *Problem) New(logger *zerolog.Logger) (optimizer *Optimizer, err error) {

	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	if err = validate.Struct(p); err != nil {
		return nil, fmt.Errorf("slsqp: invalid problem: %w", err)
	}

	obj, eq, neq, stop, line := p.Object, p.EqCons, p.NeqCons, p.Stop, p.Line
	n, m, meq := p.N, len(eq)+len(neq), len(eq)

	inf := math.Abs(p.BndInf)
	bnd := p.Bounds

	if bnd == nil {
		bnd = make([]Bound, n)
		for i := range bnd {
			bnd[i].Upper = math.Inf(1)
			bnd[i].Lower = math.Inf(-1)
		}
	}

	if p.BndInf == zero {
		inf = math.MaxFloat64
	}

	const alfmin = 0.1
	if line.Alpha == nil {
		line.Alpha = &Bound{alfmin, one}
	} else {
		alpha := *line.Alpha
		if math.IsNaN(alpha.Lower) {
			alpha.Lower = alfmin
		}
		if math.IsNaN(alpha.Upper) {
			alpha.Upper = one
		}
		line.Alpha = &alpha
	}

	switch {
	case meq > n:
		err = errors.New("slsqp: equality constrains number must not greater than n")
	case stop.FEvalTolerance < zero:
		err = errors.New("slsqp: function eval tolerance must not less than 0")
	case stop.FDiffTolerance < zero:
		err = errors.New("slsqp: function diff tolerance must not less than 0")
	case stop.XDiffTolerance < zero:
		err = errors.New("slsqp: location diff tolerance must not less than 0")
	case line.Alpha.Lower < zero || line.Alpha.Upper > one || line.Alpha.Upper < line.Alpha.Lower:
		err = errors.New("slsqp: line search alpha error")
	case len(bnd) != n:
		err = errors.New("slsqp: bound size must equal to n")
	}

	for k, c := range eq {
		if c == nil {
			err = fmt.Errorf("slsqp: equality constraint error at %d", k)
			break
		}
	}
	for k, c := range neq {
		if c == nil {
			err = fmt.Errorf("slsqp: inequality constraint error at %d", k)
			break
		}
	}

	bnd = slices.Clone(bnd)
	for k, b := range bnd {
		if math.IsInf(b.Lower, 0) {
			b.Lower = math.NaN()
		}
		if math.IsInf(b.Upper, 0) {
			b.Upper = math.NaN()
		}
		bnd[k] = b
		l, u := !math.IsNaN(b.Lower), !math.IsNaN(b.Upper)
		if l && u && b.Lower > b.Upper {
			err = fmt.Errorf("slsqp: bound error at %d", k)
			break
		}
	}

	if err != nil {
		return
	}

	optimizer = &Optimizer{
		sqpSpec: sqpSpec{
			n: n, m: m, meq: meq,
			Problem: Problem{
				N:       n,
				Stop:    stop,
				Line:    line,
				Object:  obj,
				EqCons:  slices.Clone(eq),
				NeqCons: slices.Clone(neq),
				Bounds:  bnd,
				BndInf:  inf,
			},
		},
		logger: logger.With().Str("solver", "slsqp").Logger(),
	}

	return
}

// Optimizer implemented using the SLSQP algorithm.
// An Optimizer may be shared by goroutines as long as each one uses its own Workspace.
type Optimizer struct {
	sqpSpec
	logger zerolog.Logger
}

// Workspace contains the state and context of the optimization process.
// Given problem dimension n and corrections number m,
// total work space is approximately float64[2×mn + 11×m² + 5×n + 8×m].
type Workspace struct {
	n, m, meq int
	sqpCtx
}

// Result contains the final result of the optimization process.
type Result struct {
	OK      bool      // Whether the optimization was converged.
	F       float64   // Final function value.
	X, G    []float64 // Final solution and gradient.
	Summary           // Optimization summary.
}

// Summary contains a summary of the optimization process.
type Summary struct {
	Status  Status // Final task status after optimization.
	NumIter int    // Number of iterations performed.
	NumEval int    // Number of dual evaluations of the objective and constraints.
}

// Init allocate the workspace for SLSQP optimizer.
// To avoid race conditions, separate workspaces need to be created for each goroutine.
// But multiple workspaces could share one optimizer.
func (o *Optimizer) Init() *Workspace {
	w := new(Workspace)
	w.n, w.m, w.meq = o.n, o.m, o.meq

	n, m, meq, n1 := w.n, w.m, w.meq, w.n+1
	mineq := (m - meq) + 2*n1
	totwk := /*LSQ*/ n1*(n1+1) + meq*(n1+1) + mineq*(n1+1) +
		/*LSI*/ (n1-meq+1)*(mineq+2) + 2*mineq +
		/*LSEI*/ (n1+mineq)*(n1-meq) + 2*meq + n1 +
		/*SLSQP*/ n1*n/2 + 2*m + 3*n + 3*n1 + 1
	wrk := make([]float64, totwk)

	la := max(1, m)
	ll := (n + 1) * (n + 2) / 2
	lr := n + n + m + 2

	im := 0
	il := im + la
	ix := il + n1*n/2 + 1
	ir := ix + n
	is := ir + n + n + la

	w.sqpCtx = sqpCtx{
		r:  wrk[ir : ir+lr], // r overlaps s  : (m + 2) - max(1, m)
		l:  wrk[il : il+ll], // l overlaps x0 : n
		x0: wrk[ix : ix+n],
		mu: wrk[im : im+la],
		s:  wrk[is : is+n1*1],
		u:  wrk[is+n1*1 : is+n1*2],
		v:  wrk[is+n1*2 : is+n1*3],
		w:  wrk[is+n1*3:],
		jw: make([]int, max(mineq, n1-mineq)),
	}

	return w
}

// Fit runs the optimization process using the initial guess x and workspace w.
// A failing objective or constraint stops the iteration and its error is returned wrapped.
func (o *Optimizer) Fit(x []float64, w *Workspace) (*Result, error) {

	if len(x) != o.n {
		panic("initial x dimension does not match the problem")
	}

	if w.n != o.n || w.m != o.m || w.meq != o.meq {
		panic("workspace dimension does not match the problem")
	}

	la := max(1, o.m)
	loc := sqpLoc{
		x:    slices.Clone(x),
		g:    make([]float64, o.n+1),
		c:    make([]float64, la),
		a:    make([]float64, la*(o.n+1)),
		cons: make([]*dual.Scalar, o.m),
	}

	solver := sqpSolver{
		optimizer: o,
		workspace: w,
		location:  &loc,
	}

	res := solver.mainLoop()
	if loc.err == nil && res != BadArgument {
		// the iteration may stop before the gradient at the final x was requested
		solver.evalLoc(evalGrad)
	}
	if loc.err != nil {
		o.logger.Error().Err(loc.err).Int("iter", w.iter).Msg("slsqp evaluation failed")
		return nil, fmt.Errorf("slsqp: iteration %d: %w", w.iter, loc.err)
	}

	r := &Result{
		OK: res == OK,
		X:  loc.x, F: loc.f, G: loc.g[:o.n],
		Summary: Summary{
			Status:  res,
			NumIter: w.iter,
			NumEval: loc.eval,
		},
	}
	o.logger.Info().
		Bool("ok", r.OK).
		Stringer("status", r.Status).
		Int("iter", r.NumIter).
		Floats64("x", r.X).
		Float64("f", r.F).
		Msg("slsqp finished")
	return r, nil
}

// Minimize allocates a fresh Workspace and runs Fit from x0.
func (o *Optimizer) Minimize(x0 []float64) (*Result, error) {
	return o.Fit(x0, o.Init())
}
