// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package slsqp

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/curioloop/autodiff/dual"
	"github.com/rs/zerolog"
)

func sq(x *dual.Scalar) *dual.Scalar {
	return dual.Must(x.Mul(x))
}

func fit(t *testing.T, p Problem, x0 []float64) *Result {
	t.Helper()
	s, err := p.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	r, err := s.Fit(x0, s.Init())
	if err != nil {
		t.Fatal(err)
	}
	return r
}

// value evaluates f at x without derivatives of interest.
func value(t *testing.T, f Function, x []float64) float64 {
	t.Helper()
	v, err := dual.NewVector(x)
	if err != nil {
		t.Fatal(err)
	}
	s, err := f(v)
	if err != nil {
		t.Fatal(err)
	}
	return s.Value()
}

// Case Sources : https://github.com/jacobwilliams/slsqp/blob/master/test/slsqp_test.f90
func TestRosenbrockDisk(t *testing.T) {

	rosenbrock := func(v *dual.Vector) (*dual.Scalar, error) {
		x, y := v.At(0), v.At(1)
		d := dual.Must(y.Sub(sq(x)))
		return dual.Must(sq(d).Mul(dual.Const(100))).Add(sq(x.RSub(1)))
	}
	disk := func(v *dual.Vector) (*dual.Scalar, error) {
		return dual.Must(sq(v.At(0)).Add(sq(v.At(1)))).RSub(1), nil
	}

	r := fit(t, Problem{
		N:       2,
		Object:  rosenbrock,
		NeqCons: []Function{disk},
		Stop:    Termination{Accuracy: 1e-8, MaxIterations: 50},
		Bounds:  []Bound{{-1, 1}, {-1, 1}},
	}, []float64{0.1, 0.1})

	wantX := []float64{0.7864151509718389, 0.6176983165954114}
	wantF := 0.0456748087191604

	switch {
	case !r.OK:
		t.Fatalf("not converge: %v", r.Status)
	case !almostEqual(r.F, wantF, 1e-9):
		t.Fatalf("objective %v, want %v", r.F, wantF)
	case !almostEqual(r.X, wantX, 1e-7):
		t.Fatalf("solution %v, want %v", r.X, wantX)
	case r.NumIter > 12:
		t.Fatalf("too many iterations: %d", r.NumIter)
	case value(t, disk, r.X) < -1e-8:
		t.Fatal("disk constraint violated")
	}

	// ∇𝒇 at the solution is parallel to the outward normal of the disk
	if cross := r.G[0]*r.X[1] - r.G[1]*r.X[0]; math.Abs(cross) > 1e-5 {
		t.Fatalf("gradient %v not normal to the disk", r.G)
	}
}

// Case Sources : https://github.com/jacobwilliams/slsqp/blob/master/test/slsqp_test_2.f90
func TestBasic(t *testing.T) {

	objective := func(v *dual.Vector) (*dual.Scalar, error) {
		return dual.Must(sq(v.At(0)).Add(sq(v.At(1)))).Add(v.At(2))
	}
	equality := func(v *dual.Vector) (*dual.Scalar, error) {
		return dual.Must(v.At(0).Mul(v.At(1))).Sub(v.At(2))
	}
	inequality := func(v *dual.Vector) (*dual.Scalar, error) {
		return v.At(2).Sub(dual.Const(1))
	}

	for _, exact := range []bool{false, true} {
		r := fit(t, Problem{
			N:       3,
			Object:  objective,
			EqCons:  []Function{equality},
			NeqCons: []Function{inequality},
			Line:    LineSearch{Exact: exact, Alpha: &Bound{Lower: 0.1, Upper: 0.5}},
			Stop:    Termination{Accuracy: 1e-7, MaxIterations: 50},
			Bounds:  []Bound{{-10, 10}, {-10, 10}, {-10, 10}},
		}, []float64{1, 2, 3})

		switch {
		case !r.OK:
			t.Fatalf("exact=%v: not converge: %v", exact, r.Status)
		case !almostEqual(r.F, 3, 1e-6):
			t.Fatalf("exact=%v: objective %v", exact, r.F)
		case !almostEqual(r.X, []float64{1, 1, 1}, 1e-6):
			t.Fatalf("exact=%v: solution %v", exact, r.X)
		case r.NumIter > 25:
			t.Fatalf("exact=%v: too many iterations: %d", exact, r.NumIter)
		}
	}
}

// Case Sources : https://github.com/jacobwilliams/slsqp/blob/master/test/slsqp_test_71.f90
func TestProb71(t *testing.T) {

	obj := func(v *dual.Vector) (*dual.Scalar, error) {
		x0, x1, x2, x3 := v.At(0), v.At(1), v.At(2), v.At(3)
		s := dual.Must(dual.Must(x0.Add(x1)).Add(x2))
		return dual.Must(dual.Must(x0.Mul(x3)).Mul(s)).Add(x2)
	}
	cons1 := func(v *dual.Vector) (*dual.Scalar, error) {
		p := v.At(0)
		for i := 1; i < 4; i++ {
			p = dual.Must(p.Mul(v.At(i)))
		}
		return dual.Must(p.Sub(v.At(4))).Sub(dual.Const(25))
	}
	cons2 := func(v *dual.Vector) (*dual.Scalar, error) {
		s := sq(v.At(0))
		for i := 1; i < 4; i++ {
			s = dual.Must(s.Add(sq(v.At(i))))
		}
		return s.Sub(dual.Const(40))
	}

	r := fit(t, Problem{
		N:      5,
		Object: obj,
		EqCons: []Function{cons1, cons2},
		Stop:   Termination{Accuracy: 1e-8, MaxIterations: 50},
		Bounds: []Bound{{1, 5}, {1, 5}, {1, 5}, {1, 5}, {0, 1e10}},
	}, []float64{1, 5, 5, 1, -24})

	wantX := []float64{1, 4.7429996586260321, 3.8211499562762130, 1.3794082970345380, 0}
	wantF := 17.0140172891520542

	switch {
	case !r.OK:
		t.Fatalf("not converge: %v", r.Status)
	case !almostEqual(r.F, wantF, 1e-7):
		t.Fatalf("objective %v, want %v", r.F, wantF)
	case !almostEqual(r.X, wantX, 1e-6):
		t.Fatalf("solution %v, want %v", r.X, wantX)
	case r.NumIter > 12:
		t.Fatalf("too many iterations: %d", r.NumIter)
	}
}

// Case Sources : https://github.com/scipy/scipy/blob/main/scipy/optimize/tests/test_slsqp.py (test_inconsistent_linearization)
func TestInconsistentLinearization(t *testing.T) {

	objective := func(v *dual.Vector) (*dual.Scalar, error) {
		return sq(v.At(0)).Add(sq(v.At(1)))
	}
	equality := func(v *dual.Vector) (*dual.Scalar, error) {
		return dual.Must(v.At(0).Add(v.At(1))).Sub(dual.Const(2))
	}
	inequality := func(v *dual.Vector) (*dual.Scalar, error) {
		return sq(v.At(0)).Sub(dual.Const(1))
	}

	r := fit(t, Problem{
		N:       2,
		Object:  objective,
		EqCons:  []Function{equality},
		NeqCons: []Function{inequality},
		Stop:    Termination{Accuracy: 1e-6, MaxIterations: 50},
		Bounds:  []Bound{{0, math.NaN()}, {0, math.NaN()}},
	}, []float64{0, 1})

	switch {
	case !r.OK:
		t.Fatalf("not converge: %v", r.Status)
	case math.Abs(value(t, equality, r.X)) > 1e-6:
		t.Fatal("equality constraint violated")
	case value(t, inequality, r.X) < -1e-6:
		t.Fatal("inequality constraint violated")
	case !almostEqual(r.X, []float64{1, 1}, 1e-6):
		t.Fatalf("solution %v", r.X)
	}
}

// Case Sources : https://github.com/scipy/scipy/blob/main/scipy/optimize/tests/test_slsqp.py (test_bounds_clipping)
func TestBoundClip(t *testing.T) {

	obj := func(v *dual.Vector) (*dual.Scalar, error) {
		return sq(dual.Must(v.At(0).Sub(dual.Const(1)))), nil
	}

	for _, tt := range []struct {
		init    float64
		bnd     Bound
		desired float64
	}{
		{10, Bound{math.NaN(), 0}, 0},
		{-10, Bound{2, math.NaN()}, 2},
		{-10, Bound{math.NaN(), 0}, 0},
		{10, Bound{2, math.NaN()}, 2},
		{-0.5, Bound{-1, 0}, 0},
		{10, Bound{-1, 0}, 0},
		{10, Bound{math.Inf(-1), 0}, 0},
	} {
		r := fit(t, Problem{
			N:      1,
			Object: obj,
			Bounds: []Bound{tt.bnd},
			Stop:   Termination{Accuracy: 1e-6, MaxIterations: 50},
		}, []float64{tt.init})

		if !r.OK || !almostEqual(r.X[0], tt.desired, 1e-8) {
			t.Fatalf("start %v bound %v: x = %v (%v)", tt.init, tt.bnd, r.X[0], r.Status)
		}
	}
}

// Case Sources : https://github.com/scipy/scipy/blob/main/scipy/optimize/tests/test_slsqp.py (test_infeasible_initial)
func TestInfeasibleInit(t *testing.T) {

	obj := func(v *dual.Vector) (*dual.Scalar, error) {
		return sq(dual.Must(v.At(0).Sub(dual.Const(1)))), nil
	}
	upper := func(v *dual.Vector) (*dual.Scalar, error) { return v.At(0).Neg(), nil }
	lower := func(v *dual.Vector) (*dual.Scalar, error) { return v.At(0).Sub(dual.Const(2)) }
	above := func(v *dual.Vector) (*dual.Scalar, error) { return v.At(0).Add(dual.Const(1)) }

	for _, tt := range []struct {
		init    float64
		cons    []Function
		desired float64
	}{
		{10, []Function{upper}, 0},
		{-10, []Function{lower}, 2},
		{-10, []Function{upper}, 0},
		{10, []Function{lower}, 2},
		{-0.5, []Function{upper, above}, 0},
		{10, []Function{upper, above}, 0},
	} {
		r := fit(t, Problem{
			N:       1,
			Object:  obj,
			NeqCons: tt.cons,
			Stop:    Termination{Accuracy: 1e-6, MaxIterations: 50},
		}, []float64{tt.init})

		if !r.OK || !almostEqual(r.X[0], tt.desired, 1e-6) {
			t.Fatalf("start %v: x = %v (%v)", tt.init, r.X[0], r.Status)
		}
	}
}

// Case Sources : https://github.com/scipy/scipy/blob/main/scipy/optimize/tests/test_slsqp.py (test_inconsistent_inequalities)
func TestInconsistentCons(t *testing.T) {

	obj := func(v *dual.Vector) (*dual.Scalar, error) {
		return dual.Must(v.At(1).Mul(dual.Const(4))).Sub(v.At(0))
	}
	cons1 := func(v *dual.Vector) (*dual.Scalar, error) {
		return dual.Must(v.At(1).Sub(v.At(0))).Sub(dual.Const(1))
	}
	cons2 := func(v *dual.Vector) (*dual.Scalar, error) {
		return v.At(0).Sub(v.At(1))
	}

	r := fit(t, Problem{
		N:       2,
		Object:  obj,
		NeqCons: []Function{cons1, cons2},
		Stop:    Termination{Accuracy: 1e-6, MaxIterations: 50},
		Bounds:  []Bound{{-5, 5}, {-5, 5}},
	}, []float64{1, 5})

	if r.OK || r.Status != SearchNotDescent {
		t.Fatalf("unexpected status %v", r.Status)
	}
}

func TestEvaluation(t *testing.T) {

	calls := 0
	objective := func(v *dual.Vector) (*dual.Scalar, error) {
		calls++
		return dual.Must(sq(v.At(0)).Add(sq(v.At(1)))).Add(v.At(2))
	}
	equality := func(v *dual.Vector) (*dual.Scalar, error) {
		return dual.Must(v.At(0).Mul(v.At(1))).Sub(v.At(2))
	}
	inequality := func(v *dual.Vector) (*dual.Scalar, error) {
		return v.At(2).Sub(dual.Const(1))
	}

	p := Problem{
		N:       3,
		Object:  objective,
		EqCons:  []Function{equality},
		NeqCons: []Function{inequality},
		Stop:    Termination{Accuracy: 1e-7, MaxIterations: 50},
	}
	o, err := p.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	loc := sqpLoc{
		x:    []float64{1, 2, 3},
		g:    make([]float64, 4),
		c:    make([]float64, 2),
		a:    make([]float64, 2*4),
		cons: make([]*dual.Scalar, 2),
	}
	ss := sqpSolver{optimizer: o, workspace: o.Init(), location: &loc}

	if mode := ss.evalLoc(evalFunc); mode != OK {
		t.Fatalf("evalFunc: %v", mode)
	}
	if mode := ss.evalLoc(evalGrad); mode != OK {
		t.Fatalf("evalGrad: %v", mode)
	}

	switch {
	case calls != 1 || loc.eval != 1:
		t.Fatalf("gradients were not reused: %d calls", calls)
	case loc.f != 8:
		t.Fatalf("f = %v", loc.f)
	case !almostEqual(loc.c, []float64{-1, 2}, 0):
		t.Fatalf("c = %v", loc.c)
	case !almostEqual(loc.g[:3], []float64{2, 4, 1}, 0):
		t.Fatalf("g = %v", loc.g)
	// column-major normals with leading dimension m
	case !almostEqual(loc.a[:6], []float64{2, 0, 1, 0, -1, 1}, 0):
		t.Fatalf("a = %v", loc.a)
	}

	loc.x[0] = 2
	if mode := ss.evalLoc(evalGrad); mode != OK || calls != 2 {
		t.Fatalf("moved x was not evaluated: %v", mode)
	}
	if !almostEqual(loc.g[:3], []float64{4, 4, 1}, 0) {
		t.Fatalf("g = %v", loc.g)
	}
}

func TestEvaluationError(t *testing.T) {

	logx := func(v *dual.Vector) (*dual.Scalar, error) {
		l, err := dual.Log(v.At(0))
		if err != nil {
			return nil, err
		}
		return l.Neg(), nil
	}
	p := Problem{N: 1, Object: logx, Stop: Termination{Accuracy: 1e-6, MaxIterations: 10}}
	s, err := p.New(nil)
	if err != nil {
		t.Fatal(err)
	}

	_, err = s.Fit([]float64{-1}, s.Init())
	if !errors.Is(err, dual.ErrDomain) || !strings.Contains(err.Error(), "slsqp: iteration 0: objective") {
		t.Fatalf("unexpected error: %v", err)
	}

	p.Object = func(v *dual.Vector) (*dual.Scalar, error) { return v.At(0), nil }
	p.NeqCons = []Function{func(v *dual.Vector) (*dual.Scalar, error) { panic("boom") }}
	if s, err = p.New(nil); err != nil {
		t.Fatal(err)
	}
	if _, err = s.Minimize([]float64{1}); err == nil || !strings.Contains(err.Error(), "evaluation panic: boom") {
		t.Fatalf("unexpected error: %v", err)
	}

	p.NeqCons = []Function{func(v *dual.Vector) (*dual.Scalar, error) { return nil, nil }}
	if s, err = p.New(nil); err != nil {
		t.Fatal(err)
	}
	if _, err = s.Minimize([]float64{1}); err == nil || !strings.Contains(err.Error(), "constraint 0 returned nil") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestProblemValidation(t *testing.T) {

	obj := func(v *dual.Vector) (*dual.Scalar, error) { return sq(v.At(0)), nil }
	stop := Termination{Accuracy: 1e-6, MaxIterations: 10}

	for name, p := range map[string]Problem{
		"dimension":  {N: 0, Object: obj, Stop: stop},
		"objective":  {N: 1, Stop: stop},
		"accuracy":   {N: 1, Object: obj, Stop: Termination{MaxIterations: 10}},
		"iterations": {N: 1, Object: obj, Stop: Termination{Accuracy: 1e-6}},
		"nnls":       {N: 1, Object: obj, Stop: Termination{Accuracy: 1e-6, MaxIterations: 10, NNLSIterations: -1}},
		"tolerance":  {N: 1, Object: obj, Stop: Termination{Accuracy: 1e-6, MaxIterations: 10, FEvalTolerance: -1}},
		"equality":   {N: 1, Object: obj, Stop: stop, EqCons: []Function{obj, obj}},
		"nil cons":   {N: 1, Object: obj, Stop: stop, NeqCons: []Function{nil}},
		"bound size": {N: 1, Object: obj, Stop: stop, Bounds: []Bound{{0, 1}, {0, 1}}},
		"bound":      {N: 1, Object: obj, Stop: stop, Bounds: []Bound{{1, 0}}},
		"alpha":      {N: 1, Object: obj, Stop: stop, Line: LineSearch{Alpha: &Bound{0.5, 2}}},
	} {
		if _, err := p.New(nil); err == nil {
			t.Fatalf("%s: invalid problem accepted", name)
		}
	}

	s, err := (&Problem{N: 1, Object: obj, Stop: stop, Line: LineSearch{Alpha: &Bound{math.NaN(), 0.5}}}).New(nil)
	if err != nil {
		t.Fatal(err)
	}
	if *s.Line.Alpha != (Bound{0.1, 0.5}) {
		t.Fatalf("alpha defaults %v", *s.Line.Alpha)
	}

	defer func() {
		if recover() == nil {
			t.Fatal("dimension mismatch did not panic")
		}
	}()
	_, _ = s.Fit([]float64{1, 2}, s.Init())
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)

	p := Problem{
		N:      1,
		Object: func(v *dual.Vector) (*dual.Scalar, error) { return sq(dual.Must(v.At(0).Sub(dual.Const(3)))), nil },
		Stop:   Termination{Accuracy: 1e-8, MaxIterations: 20},
	}
	s, err := p.New(&logger)
	if err != nil {
		t.Fatal(err)
	}
	r, err := s.Minimize([]float64{0})
	if err != nil {
		t.Fatal(err)
	}
	if !r.OK || !almostEqual(r.X[0], 3, 1e-8) || r.NumEval < r.NumIter {
		t.Fatalf("unexpected result %+v", r)
	}
	for _, want := range []string{`"solver":"slsqp"`, `"message":"slsqp iteration"`, `"message":"slsqp finished"`, `"status":"converged"`} {
		if !strings.Contains(buf.String(), want) {
			t.Fatalf("log lacks %s:\n%s", want, buf.String())
		}
	}
}
