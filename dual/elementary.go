// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dual

import (
	"errors"
	"math"
)

// elementary describes a differentiable real function 𝒈.
type elementary struct {
	name string
	// eval returns 𝒈(u).
	eval func(u float64) float64
	// domain rejects u outside the real domain of 𝒈, nil when 𝒈 is defined on ℝ.
	domain func(u float64) error
	// derivs returns 𝒈⁽¹⁾(u) ... 𝒈⁽ᵐ⁾(u).
	derivs func(u float64, m int) ([]float64, error)
}

// scalar returns 𝒈∘𝒇.
func (g *elementary) scalar(a *Scalar) (*Scalar, error) {
	if a == nil {
		return nil, errorf(g.name, ErrInvalidType, "nil scalar")
	}
	u := a.val
	if g.domain != nil {
		if err := g.domain(u); err != nil {
			return nil, err
		}
	}
	val := g.eval(u)
	if !finite(val) {
		return nil, errorf(g.name, ErrUndefinedDerivative, "value at %v is not finite", u)
	}
	seq, err := g.derivs(u, a.orders())
	if err != nil {
		return nil, reop(g.name, err)
	}
	for k, c := range seq {
		if !finite(c) {
			return nil, errorf(g.name, ErrUndefinedDerivative, "derivative of order %d at %v is not finite", k+1, u)
		}
	}
	return compose(a, val, seq), nil
}

// raw returns 𝒈(u) for a constant argument.
func (g *elementary) raw(u float64) (float64, error) {
	if g.domain != nil {
		if err := g.domain(u); err != nil {
			return 0, err
		}
	}
	return g.eval(u), nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func outside(name string, u float64, interval string) error {
	return errorf(name, ErrDomain, "%v outside %s", u, interval)
}

// cycle repeats a periodic derivative sequence up to order m.
func cycle(m int, period ...float64) []float64 {
	seq := make([]float64, m)
	for k := range seq {
		seq[k] = period[k%len(period)]
	}
	return seq
}

// Closed form derivative sequences.

var expF = &elementary{
	name: "exp",
	eval: math.Exp,
	derivs: func(u float64, m int) ([]float64, error) {
		return cycle(m, math.Exp(u)), nil
	},
}

var logF = &elementary{
	name: "log",
	eval: math.Log,
	domain: func(u float64) error {
		if u <= 0 {
			return outside("log", u, "(0, +∞)")
		}
		return nil
	},
	derivs: func(u float64, m int) ([]float64, error) {
		// 𝒈⁽ᵏ⁾ = (-1)ᵏ⁻¹·(k-1)!/uᵏ
		seq := make([]float64, m)
		d := 1 / u
		for k := range seq {
			seq[k] = d
			d *= -float64(k+1) / u
		}
		return seq, nil
	},
}

var sqrtF = &elementary{
	name: "sqrt",
	eval: math.Sqrt,
	domain: func(u float64) error {
		if u <= 0 {
			return outside("sqrt", u, "(0, +∞)")
		}
		return nil
	},
	derivs: powSeq(0.5),
}

var sinF = &elementary{
	name: "sin",
	eval: math.Sin,
	derivs: func(u float64, m int) ([]float64, error) {
		s, c := math.Sincos(u)
		return cycle(m, c, -s, -c, s), nil
	},
}

var cosF = &elementary{
	name: "cos",
	eval: math.Cos,
	derivs: func(u float64, m int) ([]float64, error) {
		s, c := math.Sincos(u)
		return cycle(m, -s, -c, s, c), nil
	},
}

var sinhF = &elementary{
	name: "sinh",
	eval: math.Sinh,
	derivs: func(u float64, m int) ([]float64, error) {
		return cycle(m, math.Cosh(u), math.Sinh(u)), nil
	},
}

var coshF = &elementary{
	name: "cosh",
	eval: math.Cosh,
	derivs: func(u float64, m int) ([]float64, error) {
		return cycle(m, math.Sinh(u), math.Cosh(u)), nil
	},
}

var absF = &elementary{
	name: "abs",
	eval: math.Abs,
	derivs: func(u float64, m int) ([]float64, error) {
		if u == 0 {
			return nil, errorf("abs", ErrUndefinedDerivative, "not differentiable at 0")
		}
		seq := make([]float64, m)
		seq[0] = math.Copysign(1, u)
		return seq, nil
	},
}

// power returns uᵖ.
func power(p float64) *elementary {
	return &elementary{
		name: "pow",
		eval: func(u float64) float64 { return math.Pow(u, p) },
		domain: func(u float64) error {
			switch {
			case u == 0 && p < 0:
				return errorf("pow", ErrDomain, "0 raised to negative power %v", p)
			case u < 0 && p != math.Trunc(p):
				return errorf("pow", ErrDomain, "negative base %v raised to fractional power %v", u, p)
			}
			return nil
		},
		derivs: powSeq(p),
	}
}

// powSeq returns 𝒈⁽ᵏ⁾ = p(p-1)...(p-k+1)·uᵖ⁻ᵏ of 𝒈 = uᵖ.
func powSeq(p float64) func(u float64, m int) ([]float64, error) {
	return func(u float64, m int) ([]float64, error) {
		seq := make([]float64, m)
		for k := range seq {
			if c := FallingFactorial(p, k+1); c != 0 {
				seq[k] = c * math.Pow(u, p-float64(k+1))
			}
		}
		return seq, nil
	}
}

// Derivative sequences bootstrapped from a closed form of 𝒈′.

type derivative func(t *Scalar) (*Scalar, error)

// derivedFrom evaluates 𝒈′ on a single variable seeded at u, so that
// 𝒈⁽ᵏ⁺¹⁾(u) is read from the k-th derivative of 𝒈′.
func derivedFrom(d derivative) func(u float64, m int) ([]float64, error) {
	return func(u float64, m int) ([]float64, error) {
		g, err := d(seed(u, 0, 1, max(m-1, 3)))
		if errors.Is(err, ErrDomain) {
			return nil, errorf("", ErrUndefinedDerivative, "derivative at %v is not finite", u)
		}
		if err != nil {
			return nil, err
		}
		seq := make([]float64, m)
		seq[0] = g.val
		copy(seq[1:], g.higher)
		return seq, nil
	}
}

// ratio returns num(t)·den(t)ᵖ, or den(t)ᵖ when num is nil.
func ratio(num, den *elementary, p float64) derivative {
	return func(t *Scalar) (*Scalar, error) {
		d, err := den.scalar(t)
		if err != nil {
			return nil, err
		}
		if d, err = powConst(d, p); err != nil || num == nil {
			return d, err
		}
		n, err := num.scalar(t)
		if err != nil {
			return nil, err
		}
		return n.mul(num.name, d)
	}
}

// quad returns (c₀ + c₂·t²)ᵖ.
func quad(c0, c2, p float64) derivative {
	return func(t *Scalar) (*Scalar, error) {
		t2, err := t.mul("pow", t)
		if err != nil {
			return nil, err
		}
		return powConst(t2.affine(c2, c0), p)
	}
}

func recip(t *Scalar) (*Scalar, error) {
	return powConst(t, -1)
}

func product(f, g derivative) derivative {
	return func(t *Scalar) (*Scalar, error) {
		a, err := f(t)
		if err != nil {
			return nil, err
		}
		b, err := g(t)
		if err != nil {
			return nil, err
		}
		return a.mul("mul", b)
	}
}

func negate(f derivative) derivative {
	return func(t *Scalar) (*Scalar, error) {
		a, err := f(t)
		if err != nil {
			return nil, err
		}
		return a.Neg(), nil
	}
}

func pole(name string, f func(float64) float64) func(u float64) error {
	return func(u float64) error {
		if f(u) == 0 {
			return errorf(name, ErrDomain, "pole at %v", u)
		}
		return nil
	}
}

var (
	tanF = &elementary{
		name:   "tan",
		eval:   math.Tan,
		derivs: derivedFrom(ratio(nil, cosF, -2)),
	}
	secF = &elementary{
		name:   "sec",
		eval:   func(u float64) float64 { return 1 / math.Cos(u) },
		derivs: derivedFrom(ratio(sinF, cosF, -2)),
	}
	cscF = &elementary{
		name:   "csc",
		eval:   func(u float64) float64 { return 1 / math.Sin(u) },
		domain: pole("csc", math.Sin),
		derivs: derivedFrom(negate(ratio(cosF, sinF, -2))),
	}
	cotF = &elementary{
		name:   "cot",
		eval:   func(u float64) float64 { return math.Cos(u) / math.Sin(u) },
		domain: pole("cot", math.Sin),
		derivs: derivedFrom(negate(ratio(nil, sinF, -2))),
	}
)

var (
	tanhF = &elementary{
		name:   "tanh",
		eval:   math.Tanh,
		derivs: derivedFrom(ratio(nil, coshF, -2)),
	}
	sechF = &elementary{
		name:   "sech",
		eval:   func(u float64) float64 { return 1 / math.Cosh(u) },
		derivs: derivedFrom(negate(ratio(sinhF, coshF, -2))),
	}
	cschF = &elementary{
		name:   "csch",
		eval:   func(u float64) float64 { return 1 / math.Sinh(u) },
		domain: pole("csch", math.Sinh),
		derivs: derivedFrom(negate(ratio(coshF, sinhF, -2))),
	}
	cothF = &elementary{
		name:   "coth",
		eval:   func(u float64) float64 { return 1 / math.Tanh(u) },
		domain: pole("coth", math.Sinh),
		derivs: derivedFrom(negate(ratio(nil, sinhF, -2))),
	}
)

var (
	asinF = &elementary{
		name: "asin",
		eval: math.Asin,
		domain: func(u float64) error {
			if u < -1 || u > 1 {
				return outside("asin", u, "[-1, 1]")
			}
			return nil
		},
		derivs: derivedFrom(quad(1, -1, -0.5)),
	}
	acosF = &elementary{
		name: "acos",
		eval: math.Acos,
		domain: func(u float64) error {
			if u < -1 || u > 1 {
				return outside("acos", u, "[-1, 1]")
			}
			return nil
		},
		derivs: derivedFrom(negate(quad(1, -1, -0.5))),
	}
	atanF = &elementary{
		name:   "atan",
		eval:   math.Atan,
		derivs: derivedFrom(quad(1, 1, -1)),
	}
	acotF = &elementary{
		name:   "acot",
		eval:   func(u float64) float64 { return math.Atan(1 / u) },
		derivs: derivedFrom(negate(quad(1, 1, -1))),
	}
	asecF = &elementary{
		name: "asec",
		eval: func(u float64) float64 { return math.Acos(1 / u) },
		domain: func(u float64) error {
			if u > -1 && u < 1 {
				return outside("asec", u, "(-∞, -1] ∪ [1, +∞)")
			}
			return nil
		},
		derivs: derivedFrom(product(quad(0, 1, -0.5), quad(-1, 1, -0.5))),
	}
	acscF = &elementary{
		name: "acsc",
		eval: func(u float64) float64 { return math.Asin(1 / u) },
		domain: func(u float64) error {
			if u > -1 && u < 1 {
				return outside("acsc", u, "(-∞, -1] ∪ [1, +∞)")
			}
			return nil
		},
		derivs: derivedFrom(negate(product(quad(0, 1, -0.5), quad(-1, 1, -0.5)))),
	}
)

var (
	asinhF = &elementary{
		name:   "asinh",
		eval:   math.Asinh,
		derivs: derivedFrom(quad(1, 1, -0.5)),
	}
	acoshF = &elementary{
		name: "acosh",
		eval: math.Acosh,
		domain: func(u float64) error {
			if u < 1 {
				return outside("acosh", u, "[1, +∞)")
			}
			return nil
		},
		derivs: derivedFrom(quad(-1, 1, -0.5)),
	}
	atanhF = &elementary{
		name: "atanh",
		eval: math.Atanh,
		domain: func(u float64) error {
			if u <= -1 || u >= 1 {
				return outside("atanh", u, "(-1, 1)")
			}
			return nil
		},
		derivs: derivedFrom(quad(1, -1, -1)),
	}
	acothF = &elementary{
		name: "acoth",
		eval: func(u float64) float64 { return 0.5 * math.Log((u+1)/(u-1)) },
		domain: func(u float64) error {
			if u >= -1 && u <= 1 {
				return outside("acoth", u, "(-∞, -1) ∪ (1, +∞)")
			}
			return nil
		},
		derivs: derivedFrom(quad(1, -1, -1)),
	}
	asechF = &elementary{
		name: "asech",
		eval: func(u float64) float64 { return math.Log((1 + math.Sqrt(1-u*u)) / u) },
		domain: func(u float64) error {
			if u <= 0 || u > 1 {
				return outside("asech", u, "(0, 1]")
			}
			return nil
		},
		derivs: derivedFrom(negate(product(recip, quad(1, -1, -0.5)))),
	}
	acschF = &elementary{
		name: "acsch",
		eval: func(u float64) float64 { return math.Asinh(1 / u) },
		domain: func(u float64) error {
			if u == 0 {
				return outside("acsch", u, "ℝ \\ {0}")
			}
			return nil
		},
		derivs: derivedFrom(negate(product(quad(0, 1, -0.5), quad(1, 1, -0.5)))),
	}
)
