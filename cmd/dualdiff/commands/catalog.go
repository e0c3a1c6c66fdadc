// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package commands

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/curioloop/autodiff/dual"
)

type unary func(*dual.Scalar) (*dual.Scalar, error)

var elementary = map[string]unary{
	"exp": dual.Exp[*dual.Scalar], "log": dual.Log[*dual.Scalar], "sqrt": dual.Sqrt[*dual.Scalar], "abs": dual.Abs[*dual.Scalar],
	"sin": dual.Sin[*dual.Scalar], "cos": dual.Cos[*dual.Scalar], "tan": dual.Tan[*dual.Scalar],
	"sec": dual.Sec[*dual.Scalar], "csc": dual.Csc[*dual.Scalar], "cot": dual.Cot[*dual.Scalar],
	"sinh": dual.Sinh[*dual.Scalar], "cosh": dual.Cosh[*dual.Scalar], "tanh": dual.Tanh[*dual.Scalar],
	"sech": dual.Sech[*dual.Scalar], "csch": dual.Csch[*dual.Scalar], "coth": dual.Coth[*dual.Scalar],
	"asin": dual.Asin[*dual.Scalar], "acos": dual.Acos[*dual.Scalar], "atan": dual.Atan[*dual.Scalar],
	"acot": dual.Acot[*dual.Scalar], "asec": dual.Asec[*dual.Scalar], "acsc": dual.Acsc[*dual.Scalar],
	"asinh": dual.Asinh[*dual.Scalar], "acosh": dual.Acosh[*dual.Scalar], "atanh": dual.Atanh[*dual.Scalar],
	"acoth": dual.Acoth[*dual.Scalar], "asech": dual.Asech[*dual.Scalar], "acsch": dual.Acsch[*dual.Scalar],
}

func elementaryNames() []string {
	names := make([]string, 0, len(elementary))
	for name := range elementary {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// rosenbrock is 100(y - x²)² + (1 - x)².
func rosenbrock(v *dual.Vector) (*dual.Scalar, error) {
	x, y := v.At(0), v.At(1)
	t, err := y.Sub(dual.Must(x.Mul(x)))
	if err != nil {
		return nil, err
	}
	a, err := dual.Pow(t, 2)
	if err != nil {
		return nil, err
	}
	b, err := dual.Pow(x.RSub(1), 2)
	if err != nil {
		return nil, err
	}
	return dual.Must(a.Mul(dual.Const(100))).Add(b)
}

// polar maps (r, θ) to (r·cos θ, r·sin θ).
func polar(v *dual.Vector) (*dual.Vector, error) {
	r, theta := v.At(0), v.At(1)
	c, err := dual.Cos(theta)
	if err != nil {
		return nil, err
	}
	s, err := dual.Sin(theta)
	if err != nil {
		return nil, err
	}
	return dual.VectorOf(dual.Must(r.Mul(c)), dual.Must(r.Mul(s)))
}

// mixed is [x₀·sin x₁, x₁·cos x₀, x₀³/√x₁].
func mixed(v *dual.Vector) (*dual.Vector, error) {
	x0, x1 := v.At(0), v.At(1)
	y0, err := x0.Mul(dual.Must(dual.Sin(x1)))
	if err != nil {
		return nil, err
	}
	y1, err := x1.Mul(dual.Must(dual.Cos(x0)))
	if err != nil {
		return nil, err
	}
	r, err := dual.Pow(x1, -0.5)
	if err != nil {
		return nil, err
	}
	y2, err := dual.Must(dual.Pow(x0, 3)).Mul(r)
	if err != nil {
		return nil, err
	}
	return dual.VectorOf(y0, y1, y2)
}

// parsePoint reads a comma separated list of numbers.
func parsePoint(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	x := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid point %q: %w", s, err)
		}
		x[i] = v
	}
	return x, nil
}
