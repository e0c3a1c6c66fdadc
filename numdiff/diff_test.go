package numdiff

import (
	"errors"
	"math"
	"reflect"
	"slices"
	"testing"
)

func objV2(x, y []float64) error {
	y[0] = x[0] * math.Sin(x[1])
	y[1] = x[1] * math.Cos(x[0])
	y[2] = math.Pow(x[0], 3) * math.Pow(x[1], -0.5)
	return nil
}

func jacV2(x []float64) []float64 {
	return []float64{
		math.Sin(x[1]), x[0] * math.Cos(x[1]),
		-x[1] * math.Sin(x[0]), math.Cos(x[0]),
		3 * math.Pow(x[0], 2) * math.Pow(x[1], -0.5), -0.5 * math.Pow(x[0], 3) * math.Pow(x[1], -1.5),
	}
}

func objZero(x, y []float64) error {
	y[0] = x[0] * x[1]
	y[1] = math.Cos(x[0] * x[1])
	return nil
}

func jacZero(x []float64) []float64 {
	return []float64{
		x[1], x[0],
		-x[1] * math.Sin(x[0]*x[1]), -x[0] * math.Sin(x[0]*x[1]),
	}
}

// estimate returns the row-major Jacobian of a.
func estimate(t *testing.T, a Approx, x0 []float64) []float64 {
	t.Helper()
	jac, err := a.Jacobian(x0)
	if err != nil {
		t.Fatal("approx failed", err)
	}
	return jac.RawMatrix().Data
}

// prepare sizes the scratch space of a and installs the given steps.
func prepare(a *Approx, x0, h0 []float64) {
	a.step = slices.Clone(h0)
	a.oneSide = make([]bool, len(x0))
}

// Case Sources : https://github.com/scipy/scipy/blob/main/scipy/optimize/tests/test__numdiff.py (TestAdjustSchemeToBounds)
func TestFitBounds(t *testing.T) {

	// test_no_bounds
	{
		x0 := []float64{0, 0, 0}
		h0 := []float64{0.01, 0.01, 0.01}
		for _, method := range []Method{Forward, Central} {
			a := Approx{N: 3, M: 1, Method: method}
			prepare(&a, x0, h0)
			if a.bounded() {
				t.Fatal("unexpected bounded flag")
			}
			switch {
			case !relativeEqual(a.step, h0, 0):
				t.Fatal("unexpected adjust step")
			case slices.Contains(a.oneSide, true):
				t.Fatal("unexpected side flag")
			}
		}
	}

	// test_with_bound
	{
		x0 := []float64{0, 0.85, -0.85}
		bnd := []Bound{{-1, 1}, {-1, 1}, {-1, 1}}

		a := Approx{N: 3, M: 1, Method: Forward, Bounds: bnd}
		prepare(&a, x0, []float64{0.1, 0.1, -0.1})
		a.fitBounds(x0)
		if !relativeEqual(a.step, []float64{0.1, 0.1, -0.1}, 0) {
			t.Fatal("unexpected adjust step")
		}

		a = Approx{N: 3, M: 1, Method: Central, Bounds: bnd}
		prepare(&a, x0, []float64{0.1, 0.1, 0.1})
		a.fitBounds(x0)
		switch {
		case !relativeEqual(a.step, []float64{0.1, 0.1, 0.1}, 0):
			t.Fatal("unexpected adjust step")
		case slices.Contains(a.oneSide, true):
			t.Fatal("unexpected side flag")
		}
	}

	// test_tight_bounds
	{
		x0 := []float64{0.0, 0.03}
		bnd := []Bound{{-0.03, 0.05}, {-0.03, 0.05}}

		a := Approx{N: 2, M: 1, Method: Forward, Bounds: bnd}
		prepare(&a, x0, []float64{-0.1, -0.1})
		a.fitBounds(x0)
		if !relativeEqual(a.step, []float64{0.05, -0.06}, 0) {
			t.Fatal("unexpected adjust step")
		}

		a = Approx{N: 2, M: 1, Method: Central, Bounds: bnd}
		prepare(&a, x0, []float64{0.1, 0.1})
		a.fitBounds(x0)
		switch {
		case !relativeEqual(a.step, []float64{0.03, -0.03}, 0):
			t.Fatal("unexpected adjust step")
		case !reflect.DeepEqual(a.oneSide, []bool{false, true}):
			t.Fatal("unexpected side flag")
		}
	}
}

// Case Sources : https://github.com/scipy/scipy/blob/main/scipy/optimize/tests/test__numdiff.py (test_absolute_step_sign)
func TestAbsoluteStep(t *testing.T) {

	x0 := []float64{1e-5, 0, 1, 1e5}
	neg := func(x []float64) []float64 {
		r := make([]float64, len(x))
		for i, v := range x {
			r[i] = -v
		}
		return r
	}

	// auto select relative step
	for method, eps := range map[Method]float64{Forward: sqrtEps, Central: cubeEps} {
		want := []float64{eps, eps, eps, eps * x0[3]}
		a := Approx{N: 4, M: 1, Method: method}
		prepare(&a, x0, make([]float64, 4))

		a.absoluteStep(x0)
		if !relativeEqual(a.step, want, 1e-12) {
			t.Fatal("unexpected abs step", method)
		}

		a.absoluteStep(neg(x0))
		if method == Forward {
			want = neg(want)
		}
		if !relativeEqual(a.step, want, 1e-12) {
			t.Fatal("unexpected abs step", method)
		}
	}

	// user-specified relative step
	for _, rel := range []float64{0.1, 1, 10, 100} {
		want := []float64{rel * x0[0], sqrtEps, rel * x0[2], rel * x0[3]}
		a := Approx{N: 4, M: 1, Method: Forward, RelStep: rel}
		prepare(&a, x0, make([]float64, 4))

		a.absoluteStep(x0)
		if !relativeEqual(a.step, want, 1e-12) {
			t.Fatal("unexpected rel step", rel)
		}
		a.absoluteStep(neg(x0))
		if !relativeEqual(a.step, neg(want), 1e-12) {
			t.Fatal("unexpected rel step", rel)
		}
	}
}

// Case Sources : https://github.com/scipy/scipy/blob/main/scipy/optimize/tests/test__numdiff.py (test_absolute_step_sign)
func TestAbsStepSign(t *testing.T) {

	obj := func(x, y []float64) error {
		y[0] = -math.Abs(x[0]+1) + math.Abs(x[1]+1)
		return nil
	}
	x0 := []float64{-1, -1}

	for _, c := range []struct {
		step float64
		bnd  []Bound
		want []float64
	}{
		{1e-8, nil, []float64{-1, 1}},
		{-1e-8, nil, []float64{1, -1}},
		{1e-8, []Bound{{math.Inf(-1), -1}, {math.Inf(-1), -1}}, []float64{1, -1}},
		{-1e-8, []Bound{{-1, math.Inf(1)}, {-1, math.Inf(1)}}, []float64{-1, 1}},
	} {
		grad := estimate(t, Approx{N: 2, M: 1, Method: Forward, Object: obj, AbsStep: c.step, Bounds: c.bnd}, x0)
		if !relativeEqual(grad, c.want, 1e-7) {
			t.Fatal("unexpected abs sign", c.step, grad)
		}
	}
}

// Case Sources : https://github.com/scipy/scipy/blob/main/scipy/optimize/tests/test__numdiff.py
// (TestApproxDerivativesDense.test_scalar_scalar, test_scalar_vector, test_vector_scalar)
func TestDense(t *testing.T) {

	for _, c := range []struct {
		name     string
		n, m     int
		x0       []float64
		obj      func(x, y []float64) error
		jac      []float64
		fwd, cen float64
	}{
		{
			name: "scalar", n: 1, m: 1, x0: []float64{1},
			obj: func(x, y []float64) error { y[0] = math.Sinh(x[0]); return nil },
			jac: []float64{math.Cosh(1)}, fwd: 1e-6, cen: 1e-9,
		},
		{
			name: "scalar-vec", n: 1, m: 3, x0: []float64{0.5},
			obj: func(x, y []float64) error {
				y[0], y[1], y[2] = x[0]*x[0], math.Tan(x[0]), math.Exp(x[0])
				return nil
			},
			jac: []float64{1, 1 / (math.Cos(0.5) * math.Cos(0.5)), math.Exp(0.5)}, fwd: 1e-6, cen: 1e-9,
		},
		{
			name: "vec-scalar", n: 2, m: 1, x0: []float64{100, -0.5},
			obj: func(x, y []float64) error { y[0] = math.Sin(x[0]*x[1]) * math.Log(x[0]); return nil },
			jac: []float64{
				-0.5*math.Cos(-50)*math.Log(100) + math.Sin(-50)/100,
				100 * math.Cos(-50) * math.Log(100),
			}, fwd: 1e-6, cen: 1e-7,
		},
	} {
		fwd := estimate(t, Approx{N: c.n, M: c.m, Method: Forward, Object: c.obj}, c.x0)
		cen := estimate(t, Approx{N: c.n, M: c.m, Method: Central, Object: c.obj}, c.x0)
		switch {
		case !relativeEqual(fwd, c.jac, c.fwd):
			t.Fatal("unexpected forward result", c.name)
		case !relativeEqual(cen, c.jac, c.cen):
			t.Fatal("unexpected central result", c.name)
		}

		fwd = estimate(t, Approx{N: c.n, M: c.m, Method: Forward, Object: c.obj, AbsStep: 1.49e-8}, c.x0)
		cen = estimate(t, Approx{N: c.n, M: c.m, Method: Central, Object: c.obj, AbsStep: 1.49e-8}, c.x0)
		switch {
		case !relativeEqual(fwd, c.jac, 1e-6):
			t.Fatal("unexpected forward result", c.name)
		case !relativeEqual(cen, c.jac, 1e-6):
			t.Fatal("unexpected central result", c.name)
		}
	}
}

// Case Sources : https://github.com/scipy/scipy/blob/main/scipy/optimize/tests/test__numdiff.py
// (TestApproxDerivativesDense.test_vector_vector)
func TestVector(t *testing.T) {

	x0 := []float64{-100.0, 0.2}
	jac := jacV2(x0)

	switch {
	case !relativeEqual(estimate(t, Approx{N: 2, M: 3, Method: Forward, Object: objV2}, x0), jac, 1e-5):
		t.Fatal("unexpected approx vector result")
	case !relativeEqual(estimate(t, Approx{N: 2, M: 3, Method: Central, Object: objV2}, x0), jac, 1e-6):
		t.Fatal("unexpected approx vector result")
	case !relativeEqual(estimate(t, Approx{N: 2, M: 3, Method: Forward, Object: objV2, RelStep: 1e-4}, x0), jac, 1e-2):
		t.Fatal("unexpected approx vector result")
	case !relativeEqual(estimate(t, Approx{N: 2, M: 3, Method: Central, Object: objV2, RelStep: 1e-4}, x0), jac, 1e-4):
		t.Fatal("unexpected approx vector result")
	}
}

// Case Sources : https://github.com/scipy/scipy/blob/main/scipy/optimize/tests/test__numdiff.py
// (TestApproxDerivativesDense.test_with_bounds_2_point, test_with_bounds_3_point)
func TestBounds(t *testing.T) {

	bnd := []Bound{{-1, 1}, {-1, 1}}
	a := Approx{N: 2, M: 3, Object: objV2, Bounds: bnd}
	if _, err := a.Jacobian([]float64{-2.0, 0.2}); err == nil {
		t.Fatal("unexpected approx bound status")
	}

	x0 := []float64{-1.0, 1.0}
	if !relativeEqual(estimate(t, Approx{N: 2, M: 3, Method: Forward, Object: objV2, Bounds: bnd}, x0), jacV2(x0), 1e-6) {
		t.Fatal("unexpected approx 2-point result")
	}

	x0 = []float64{1.0, 2.0}
	for _, bnd := range [][]Bound{
		nil,
		{{1, math.Inf(1)}, {1, math.Inf(1)}},
		{{math.Inf(-1), 2}, {math.Inf(-1), 2}},
		{{1, 2}, {1, 2}},
		{{1, math.NaN()}, {math.NaN(), 2}},
	} {
		jac := estimate(t, Approx{N: 2, M: 3, Method: Central, Object: objV2, Bounds: bnd}, x0)
		if !relativeEqual(jac, jacV2(x0), 1e-9) {
			t.Fatal("unexpected approx 3-point result", bnd)
		}
	}
}

// Case Sources : https://github.com/scipy/scipy/blob/main/scipy/optimize/tests/test__numdiff.py
// (TestApproxDerivativesDense.test_tight_bounds)
func TestTightBounds(t *testing.T) {

	x0 := []float64{10.0, 10.0}
	bnd := []Bound{{x0[0] - 3e-9, x0[0] + 3e-9}, {x0[1] - 3e-9, x0[1] + 3e-9}}
	jac := jacV2(x0)

	for _, method := range []Method{Forward, Central} {
		for _, rel := range []float64{0, 1e-6} {
			a := Approx{N: 2, M: 3, Method: method, Object: objV2, Bounds: bnd, RelStep: rel}
			if !relativeEqual(estimate(t, a, slices.Clone(x0)), jac, 1e-6) {
				t.Fatal("unexpected approx tight-bound result", method, rel)
			}
		}
	}
}

// Case Sources : https://github.com/scipy/scipy/blob/main/scipy/optimize/tests/test__numdiff.py
// (TestApproxDerivativesDense.test_bound_switches)
func TestSwitchBounds(t *testing.T) {

	bnd := []Bound{{-1e-8, 1e-8}}
	obj := func(x, y []float64) error {
		if math.Abs(x[0]) <= 1e-8 {
			y[0] = x[0]
		} else {
			y[0] = math.NaN()
		}
		return nil
	}

	for _, x0 := range [][]float64{{0}, {1e-8}} {
		rel := 0.0
		if x0[0] != 0 {
			rel = 1e-6
		}
		fwd := estimate(t, Approx{N: 1, M: 1, Method: Forward, Object: obj, Bounds: bnd, RelStep: rel}, x0)
		cen := estimate(t, Approx{N: 1, M: 1, Method: Central, Object: obj, Bounds: bnd, RelStep: rel}, x0)
		switch {
		case !relativeEqual(fwd, []float64{1}, 1e-6):
			t.Fatal("unexpected approx switch-bound result", x0)
		case !relativeEqual(cen, []float64{1}, 1e-9):
			t.Fatal("unexpected approx switch-bound result", x0)
		}
	}
}

// Case Sources : https://github.com/scipy/scipy/blob/main/scipy/optimize/tests/test__numdiff.py
// (TestApproxDerivativesDense.test_check_derivative)
func TestAccuracy(t *testing.T) {

	maxErr := func(n, m int, x0 []float64, obj func(x, y []float64) error, jac []float64) float64 {
		est := estimate(t, Approx{N: n, M: m, Method: Central, Object: obj}, x0)
		worst := 0.0
		for i, v := range est {
			worst = math.Max(worst, math.Abs(jac[i]-v)/math.Max(1, math.Abs(v)))
		}
		return worst
	}

	if acc := maxErr(2, 3, []float64{-10, 10}, objV2, jacV2([]float64{-10, 10})); acc > 1e-9 {
		t.Fatal("approx accuracy not enough", acc)
	}
	if acc := maxErr(2, 2, []float64{0, 0}, objZero, jacZero([]float64{0, 0})); acc > 0 {
		t.Fatal("approx accuracy not enough", acc)
	}
}

func TestApproxInvalid(t *testing.T) {

	failure := errors.New("object failure")
	for _, a := range []Approx{
		{N: 0, M: 1, Object: objZero},
		{N: 2, M: 2, Method: Method(7), Object: objZero},
		{N: 2, M: 2},
		{N: 3, M: 2, Object: objZero},
		{N: 2, M: 2, Object: objZero, Bounds: []Bound{{0, 1}}},
		{N: 2, M: 2, Object: objZero, Bounds: []Bound{{1, 0}, {0, 1}}},
	} {
		if _, err := a.Jacobian([]float64{0.5, 0.5}); err == nil {
			t.Fatal("unexpected approx status", a.N, a.M, a.Method)
		}
	}

	calls := 0
	a := Approx{N: 2, M: 1, Method: Central, Object: func(x, y []float64) error {
		if calls++; calls > 2 {
			return failure
		}
		return nil
	}}
	x0 := []float64{0.5, 0.5}
	if _, err := a.Jacobian(x0); !errors.Is(err, failure) {
		t.Fatal("unexpected object error", err)
	}
	if !reflect.DeepEqual(x0, []float64{0.5, 0.5}) {
		t.Fatal("x0 not restored", x0)
	}

	if Forward.String() != "forward" || Central.String() != "central" || Method(7).String() != "unknown" {
		t.Fatal("unexpected method name")
	}
}

func relativeEqual[T float64 | []float64](a, b T, tol float64) bool {
	equalWithinRel := func(a, b float64) bool {
		if a == b {
			return true
		}
		delta := math.Abs(a - b)
		return delta/math.Max(math.Abs(a), math.Abs(b)) <= tol
	}
	switch reflect.TypeFor[T]().Kind() {
	case reflect.Float64:
		return equalWithinRel(any(a).(float64), any(b).(float64))
	case reflect.Slice:
		a, b := any(a).([]float64), any(b).([]float64)
		if len(a) != len(b) {
			return false
		}
		for i, a := range a {
			if !equalWithinRel(a, b[i]) {
				return false
			}
		}
		return true
	default:
		panic("unknown type")
	}
}
