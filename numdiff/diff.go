package numdiff

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var sqrtEps = math.Sqrt(math.Nextafter(1, 2) - 1)
var cubeEps = math.Cbrt(math.Nextafter(1, 2) - 1)

type Method int

const (
	// Forward uses the first order forward difference.
	Forward Method = iota
	// Central uses the central difference in interior points and the second order
	// one-sided difference when a bound leaves no room on one side.
	Central
)

func (m Method) String() string {
	switch m {
	case Forward:
		return "forward"
	case Central:
		return "central"
	}
	return "unknown"
}

// Bound is the closed interval [lower, upper] of one variable. NaN means unbounded.
type Bound [2]float64

// Approx estimates the m×n Jacobian of an m-vector function of n variables by finite differences.
//
// # Reference:
//
//   - https://en.wikipedia.org/wiki/Finite_difference
//   - https://github.com/scipy/scipy/blob/main/scipy/optimize/_numdiff.py
//
// # License
//
//   - https://github.com/scipy/scipy/blob/main/LICENSE.txt
type Approx struct {
	N, M int
	// Function to differentiate. It reads the n-vector x and writes the m-vector y.
	Object func(x, y []float64) error
	// Finite difference method to use.
	Method Method
	// Lower and upper bounds of the variables. Evaluations never leave them.
	Bounds []Bound
	// Relative step size. The step is h = RelStep * sign(x) * abs(x) when RelStep is set,
	// otherwise h = eps * sign(x) * max(1, abs(x)) with eps chosen by the method.
	RelStep float64
	// Absolute step size, possibly adjusted to fit into the bounds. Takes precedence over RelStep.
	// The sign is ignored by the Central method.
	AbsStep float64
	// Accept an x0 outside the bounds.
	NotChkBnd bool

	f0, f1, f2 []float64
	step       []float64
	oneSide    []bool
}

func (a *Approx) check(x0 []float64) error {
	switch {
	case a.N <= 0 || a.M <= 0:
		return errors.New("numdiff: non-positive dimensions")
	case a.Method != Forward && a.Method != Central:
		return errors.New("numdiff: unknown method")
	case a.Object == nil:
		return errors.New("numdiff: object function is required")
	case a.N != len(x0):
		return errors.New("numdiff: invalid x0 dimension")
	case a.Bounds != nil && len(a.Bounds) != a.N:
		return errors.New("numdiff: invalid bound dimension")
	}
	for i, b := range a.Bounds {
		lb, ub := lower(b), upper(b)
		if lb > ub {
			return errors.New("numdiff: invalid bound range")
		}
		if !a.NotChkBnd && (x0[i] < lb || x0[i] > ub) {
			return errors.New("numdiff: x0 violates bound constraints")
		}
	}
	return nil
}

func lower(b Bound) float64 {
	if math.IsNaN(b[0]) {
		return math.Inf(-1)
	}
	return b[0]
}

func upper(b Bound) float64 {
	if math.IsNaN(b[1]) {
		return math.Inf(1)
	}
	return b[1]
}

func (a *Approx) bounded() bool {
	for _, b := range a.Bounds {
		if !math.IsInf(lower(b), -1) || !math.IsInf(upper(b), 1) {
			return true
		}
	}
	return false
}

// Jacobian returns the finite difference estimate of ∂yᵢ/∂xⱼ at x0.
// x0 is used as scratch space and restored before returning.
func (a *Approx) Jacobian(x0 []float64) (*mat.Dense, error) {
	if err := a.check(x0); err != nil {
		return nil, err
	}
	a.f0 = resize(a.f0, a.M)
	a.f1 = resize(a.f1, a.M)
	a.f2 = resize(a.f2, a.M)
	a.step = resize(a.step, a.N)
	if len(a.oneSide) != a.N {
		a.oneSide = make([]bool, a.N)
	}

	a.absoluteStep(x0)
	if a.bounded() {
		a.fitBounds(x0)
	}

	jac := mat.NewDense(a.M, a.N, nil)
	if err := a.Object(x0, a.f0); err != nil {
		return nil, err
	}
	for i := range a.N {
		col, err := a.column(x0, i)
		if err != nil {
			return nil, err
		}
		jac.SetCol(i, col)
	}
	return jac, nil
}

func resize(s []float64, n int) []float64 {
	if len(s) != n {
		return make([]float64, n)
	}
	return s
}

func (a *Approx) absoluteStep(x0 []float64) {
	eps := sqrtEps
	if a.Method == Central {
		eps = cubeEps
	}
	auto := func(v float64) float64 {
		return math.Copysign(eps, v) * math.Max(1, math.Abs(v))
	}
	for i, v := range x0 {
		var h float64
		switch {
		case a.AbsStep != 0:
			h = a.AbsStep
		case a.RelStep != 0:
			h = math.Copysign(a.RelStep, v) * math.Abs(v)
		default:
			h = auto(v)
		}
		if (v+h)-v == 0 {
			h = auto(v)
		}
		if a.Method == Central {
			h = math.Abs(h)
		}
		a.step[i] = h
		a.oneSide[i] = false
	}
}

// fitBounds flips or shrinks steps that would leave the feasible box.
// Central steps switch to a one-sided scheme when only one side has room.
func (a *Approx) fitBounds(x0 []float64) {
	for i, x := range x0 {
		lb, ub := lower(a.Bounds[i]), upper(a.Bounds[i])
		ld, ud := x-lb, ub-x
		h := a.step[i]
		if a.Method == Forward {
			fits := math.Abs(h) < math.Max(ld, ud)
			switch {
			case !fits && ud >= ld:
				h = ud
			case !fits:
				h = -ld
			case x+h < lb || x+h > ub:
				h = -h
			}
			a.step[i] = h
			continue
		}
		if ld >= h && ud >= h {
			continue
		}
		if ud >= ld {
			a.step[i] = math.Min(h, 0.5*ud)
		} else {
			a.step[i] = -math.Min(h, 0.5*ld)
		}
		a.oneSide[i] = true
		if near := math.Min(ld, ud); math.Abs(a.step[i]) <= near {
			a.step[i] = near
			a.oneSide[i] = false
		}
	}
}

// column evaluates the difference quotient along variable i.
func (a *Approx) column(x0 []float64, i int) ([]float64, error) {
	x, h := x0[i], a.step[i]
	defer func() { x0[i] = x }()

	col := make([]float64, a.M)
	eval := func(at float64, y []float64) error {
		x0[i] = at
		return a.Object(x0, y)
	}
	switch {
	case a.Method == Forward:
		if err := eval(x+h, a.f1); err != nil {
			return nil, err
		}
		floats.SubTo(col, a.f1, a.f0)
		floats.Scale(1/h, col)
	case a.oneSide[i]:
		if err := eval(x+h, a.f1); err != nil {
			return nil, err
		}
		if err := eval(x+2*h, a.f2); err != nil {
			return nil, err
		}
		// (4f(x+h) - 3f(x) - f(x+2h)) / 2h
		floats.ScaleTo(col, 4, a.f1)
		floats.AddScaled(col, -3, a.f0)
		floats.Sub(col, a.f2)
		floats.Scale(1/(2*h), col)
	default:
		if err := eval(x-h, a.f1); err != nil {
			return nil, err
		}
		if err := eval(x+h, a.f2); err != nil {
			return nil, err
		}
		floats.SubTo(col, a.f2, a.f1)
		floats.Scale(1/(2*h), col)
	}
	return col, nil
}
