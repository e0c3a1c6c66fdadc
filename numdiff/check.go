package numdiff

import (
	"errors"
	"math"
	"slices"

	"github.com/curioloop/autodiff/dual"
	"gonum.org/v1/gonum/mat"
)

// Function is a vector valued function written with dual numbers.
type Function func(x *dual.Vector) (*dual.Vector, error)

// Objective is a scalar valued function written with dual numbers.
type Objective func(x *dual.Vector) (*dual.Scalar, error)

// Report compares the forward-mode Jacobian of a function against its finite difference estimate.
type Report struct {
	Analytic *mat.Dense
	Numeric  *mat.Dense
	// Largest absolute difference between the two estimates.
	MaxAbsErr float64
	// Largest difference scaled by max(1, |analytic|).
	MaxRelErr float64
	// Whether MaxRelErr stays within the tolerance.
	OK bool
}

// Check cross-checks derivatives produced by the dual package.
type Check struct {
	Method Method
	Bounds []Bound
	// Accepted MaxRelErr. Zero selects 1e-5 for Forward and 1e-7 for Central.
	Tol float64
}

// CheckJacobian compares the Jacobian of f at x0 with a central difference estimate.
func CheckJacobian(f Function, x0 []float64) (*Report, error) {
	return Check{Method: Central}.Jacobian(f, x0)
}

// CheckGradient compares the gradient of f at x0 with a central difference estimate.
func CheckGradient(f Objective, x0 []float64) (*Report, error) {
	return Check{Method: Central}.Gradient(f, x0)
}

// Gradient reports on the 1×n Jacobian of a scalar function.
func (c Check) Gradient(f Objective, x0 []float64) (*Report, error) {
	if f == nil {
		return nil, errors.New("numdiff: objective is required")
	}
	return c.Jacobian(func(x *dual.Vector) (*dual.Vector, error) {
		s, err := f(x)
		if err != nil {
			return nil, err
		}
		return dual.VectorOf(s)
	}, x0)
}

// Jacobian evaluates f once with dual numbers and again through Approx, then compares.
func (c Check) Jacobian(f Function, x0 []float64) (*Report, error) {
	if f == nil {
		return nil, errors.New("numdiff: function is required")
	}
	x, err := dual.NewVector(x0)
	if err != nil {
		return nil, err
	}
	y, err := f(x)
	switch {
	case err != nil:
		return nil, err
	case y == nil:
		return nil, errors.New("numdiff: function returned no output")
	}

	m, n := y.Len(), len(x0)
	analytic := mat.NewDense(m, n, nil)
	analytic.Copy(y.Jacobian())

	approx := Approx{N: n, M: m, Method: c.Method, Bounds: c.Bounds}
	approx.Object = func(x, out []float64) error {
		v, err := dual.NewVector(x)
		if err != nil {
			return err
		}
		r, err := f(v)
		if err != nil {
			return err
		}
		if r.Len() != len(out) {
			return errors.New("numdiff: output dimension changed")
		}
		copy(out, r.Values())
		return nil
	}
	numeric, err := approx.Jacobian(slices.Clone(x0))
	if err != nil {
		return nil, err
	}

	report := &Report{Analytic: analytic, Numeric: numeric}
	for i := range m {
		for j := range n {
			a := analytic.At(i, j)
			d := math.Abs(a - numeric.At(i, j))
			report.MaxAbsErr = math.Max(report.MaxAbsErr, d)
			report.MaxRelErr = math.Max(report.MaxRelErr, d/math.Max(1, math.Abs(a)))
		}
	}
	report.OK = report.MaxRelErr <= c.tolerance()
	return report, nil
}

func (c Check) tolerance() float64 {
	switch {
	case c.Tol > 0:
		return c.Tol
	case c.Method == Central:
		return 1e-7
	}
	return 1e-5
}
