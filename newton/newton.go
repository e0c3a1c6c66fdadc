// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package newton implements Newton's method on top of forward-mode derivatives.
//
// A Problem either minimizes a scalar objective 𝒇(𝐱), stepping with ∇²𝒇(𝐱ₖ)·𝐬ₖ = -∇𝒇(𝐱ₖ),
// or finds a root of a system 𝐅(𝐱) = 0, stepping with 𝐉(𝐱ₖ)·𝐬ₖ = -𝐅(𝐱ₖ).
// Gradients, Hessians and Jacobians come from the dual package, so the objective
// only needs to be written once with dual arithmetic.
package newton

import (
	"errors"
	"fmt"
	"math"

	"github.com/curioloop/autodiff/dual"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Objective evaluates the scalar function 𝒇(𝐱) : ℝⁿ → ℝ.
type Objective func(x *dual.Vector) (*dual.Scalar, error)

// System evaluates the residual 𝐅(𝐱) : ℝⁿ → ℝⁿ.
type System func(x *dual.Vector) (*dual.Vector, error)

// Termination specifies the stopping criteria of the iteration.
type Termination struct {
	// The iteration stop when the number of iteration exceeds limit.
	MaxIterations int `validate:"gt=0"`
	// The iteration stop when ‖𝐬ₖ‖₂ ≤ 𝚜𝚝𝚎𝚙𝚝𝚘𝚕
	StepTolerance float64 `validate:"gte=0"`
	// The iteration stop when ‖∇𝒇(𝐱ₖ)‖∞ ≤ 𝚛𝚝𝚘𝚕 (minimize) or ‖𝐅(𝐱ₖ)‖∞ ≤ 𝚛𝚝𝚘𝚕 (solve).
	// Zero disables the test.
	ResidualTolerance float64 `validate:"gte=0"`
}

// Problem specifies the problem for Newton's method.
type Problem struct {
	N         int         `validate:"gt=0"` // The problem dimension
	Objective Objective   // Function to minimize
	System    System      // Function to find a root of
	Stop      Termination // Stop condition
	KeepPath  bool        // Record every iterate in Result.Path
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// New creates a Solver for the given problem. A nil logger disables logging.
func (p *Problem) New(logger *zerolog.Logger) (solver *Solver, err error) {

	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	if err = validate.Struct(p); err != nil {
		return nil, fmt.Errorf("newton: invalid problem: %w", err)
	}

	switch {
	case p.Objective == nil && p.System == nil:
		err = errors.New("newton: objective or system is required")
	case p.Stop.StepTolerance == 0 && p.Stop.ResidualTolerance == 0:
		err = errors.New("newton: at least one tolerance must be positive")
	}
	if err != nil {
		return
	}

	solver = &Solver{Problem: *p, logger: logger.With().Str("solver", "newton").Logger()}
	return
}

// Solver runs Newton iterations for a validated Problem.
// A Solver holds no iteration state and may be shared by goroutines.
type Solver struct {
	Problem
	logger zerolog.Logger
}

// Status reports why the iteration stopped.
type Status int

const (
	// Running is never returned.
	Running Status = iota
	// StepConverged the Newton step fell below StepTolerance.
	StepConverged
	// ResidualConverged the gradient or residual fell below ResidualTolerance.
	ResidualConverged
	// ExceedMaxIter more than MaxIterations steps were taken.
	ExceedMaxIter
	// Singular the Hessian or Jacobian could not be solved against.
	Singular
	// NotFinite the function produced a NaN or infinite value.
	NotFinite
)

func (s Status) String() string {
	switch s {
	case StepConverged:
		return "step converged"
	case ResidualConverged:
		return "residual converged"
	case ExceedMaxIter:
		return "exceed max iterations"
	case Singular:
		return "singular linear system"
	case NotFinite:
		return "non-finite evaluation"
	}
	return "running"
}

// Result contains the final result of the iteration.
type Result struct {
	OK      bool        // Whether the iteration converged.
	F       []float64   // Final objective value (length 1) or residual (length n).
	X       []float64   // Final solution.
	G       []float64   // Final gradient of the objective. Nil when solving a system.
	Path    [][]float64 // Iterates 𝐱₀ … 𝐱ₖ when KeepPath is set.
	Summary             // Iteration summary.
}

// Summary contains a summary of the iteration.
type Summary struct {
	Status   Status  // Final status.
	NumIter  int     // Number of Newton steps taken.
	StepNorm float64 // ‖𝐬ₖ‖₂ of the last step.
}

// linearization is 𝐛 and 𝐀 of the Newton system 𝐀·𝐬 = -𝐛 at one iterate.
type linearization func(x *dual.Vector) (f, b []float64, a *mat.Dense, err error)

// Minimize searches a stationary point of the objective starting at x0.
func (s *Solver) Minimize(x0 []float64) (*Result, error) {
	if s.Objective == nil {
		return nil, errors.New("newton: problem has no objective")
	}
	res, err := s.iterate(x0, func(x *dual.Vector) ([]float64, []float64, *mat.Dense, error) {
		f, err := s.Objective(x)
		if err != nil {
			return nil, nil, nil, err
		}
		if f == nil {
			return nil, nil, nil, errors.New("newton: objective returned nil")
		}
		return []float64{f.Value()}, f.Gradient(), padded(f.Hessian(), s.N, s.N), nil
	})
	if res != nil {
		res.G = res.b
	}
	return res.result(), err
}

// Solve searches a root of the system starting at x0.
func (s *Solver) Solve(x0 []float64) (*Result, error) {
	if s.System == nil {
		return nil, errors.New("newton: problem has no system")
	}
	res, err := s.iterate(x0, func(x *dual.Vector) ([]float64, []float64, *mat.Dense, error) {
		f, err := s.System(x)
		if err != nil {
			return nil, nil, nil, err
		}
		if f == nil || f.Len() != s.N {
			return nil, nil, nil, errors.New("newton: system must return n residuals")
		}
		v := f.Values()
		return v, v, padded(f.Jacobian(), s.N, s.N), nil
	})
	return res.result(), err
}

// padded widens m to r×c. Outputs that ignore trailing variables have fewer columns.
func padded(m *mat.Dense, r, c int) *mat.Dense {
	if mr, mc := m.Dims(); mr == r && mc == c {
		return m
	}
	p := mat.NewDense(r, c, nil)
	p.Copy(m)
	return p
}

type state struct {
	Result
	b []float64
}

func (st *state) result() *Result {
	if st == nil {
		return nil
	}
	return &st.Result
}

func (s *Solver) iterate(x0 []float64, linearize linearization) (*state, error) {

	if len(x0) != s.N {
		panic("initial x dimension does not match the problem")
	}

	n, stop := s.N, s.Stop
	st := &state{}
	st.X = append([]float64(nil), x0...)
	if s.KeepPath {
		st.Path = append(st.Path, append([]float64(nil), x0...))
	}

	rhs := mat.NewVecDense(n, nil)
	var step mat.VecDense
	for {
		x, err := dual.NewVector(st.X)
		if err != nil {
			return nil, err
		}
		f, b, a, err := linearize(x)
		if err != nil {
			return nil, fmt.Errorf("newton: iteration %d: %w", st.NumIter, err)
		}
		st.F, st.b = f, b

		switch {
		case !finite(f) || !finite(b) || !finite(a.RawMatrix().Data):
			st.Status = NotFinite
		case stop.ResidualTolerance > 0 && floats.Norm(b, math.Inf(1)) <= stop.ResidualTolerance:
			st.Status = ResidualConverged
		case st.NumIter >= stop.MaxIterations:
			st.Status = ExceedMaxIter
		}
		if st.Status != Running {
			break
		}

		for i, v := range b {
			rhs.SetVec(i, -v)
		}
		if err := step.SolveVec(a, rhs); err != nil {
			s.logger.Debug().Err(err).Int("iter", st.NumIter).Msg("newton system not solvable")
			st.Status = Singular
			break
		}

		floats.Add(st.X, step.RawVector().Data)
		st.NumIter++
		st.StepNorm = mat.Norm(&step, 2)
		if s.KeepPath {
			st.Path = append(st.Path, append([]float64(nil), st.X...))
		}

		s.logger.Debug().
			Int("iter", st.NumIter).
			Floats64("x", st.X).
			Floats64("f", f).
			Float64("step", st.StepNorm).
			Msg("newton step")

		if st.StepNorm <= stop.StepTolerance {
			// refresh F and G at the accepted iterate
			x, err := dual.NewVector(st.X)
			if err != nil {
				return nil, err
			}
			if st.F, st.b, _, err = linearize(x); err != nil {
				return nil, fmt.Errorf("newton: iteration %d: %w", st.NumIter, err)
			}
			st.Status = StepConverged
			break
		}
	}

	st.OK = st.Status == StepConverged || st.Status == ResidualConverged
	s.logger.Info().
		Bool("ok", st.OK).
		Stringer("status", st.Status).
		Int("iter", st.NumIter).
		Floats64("x", st.X).
		Msg("newton finished")
	return st, nil
}

func finite(s []float64) bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
