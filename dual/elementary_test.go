// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dual

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type closedForm struct {
	name string
	fn   func(*Scalar) (*Scalar, error)
	at   float64
	val  float64
	der  func(u float64) float64
}

func elementaryCases() []closedForm {
	sec := func(u float64) float64 { return 1 / math.Cos(u) }
	csc := func(u float64) float64 { return 1 / math.Sin(u) }
	sech := func(u float64) float64 { return 1 / math.Cosh(u) }
	csch := func(u float64) float64 { return 1 / math.Sinh(u) }
	return []closedForm{
		{"exp", Exp[*Scalar], 0.7, math.Exp(0.7), math.Exp},
		{"log", Log[*Scalar], 0.7, math.Log(0.7), func(u float64) float64 { return 1 / u }},
		{"sqrt", Sqrt[*Scalar], 0.7, math.Sqrt(0.7), func(u float64) float64 { return 0.5 / math.Sqrt(u) }},
		{"abs", Abs[*Scalar], -0.7, 0.7, func(u float64) float64 { return math.Copysign(1, u) }},
		{"sin", Sin[*Scalar], 0.7, math.Sin(0.7), math.Cos},
		{"cos", Cos[*Scalar], 0.7, math.Cos(0.7), func(u float64) float64 { return -math.Sin(u) }},
		{"tan", Tan[*Scalar], 0.7, math.Tan(0.7), func(u float64) float64 { return sec(u) * sec(u) }},
		{"sec", Sec[*Scalar], 0.7, sec(0.7), func(u float64) float64 { return sec(u) * math.Tan(u) }},
		{"csc", Csc[*Scalar], 0.7, csc(0.7), func(u float64) float64 { return -csc(u) / math.Tan(u) }},
		{"cot", Cot[*Scalar], 0.7, 1 / math.Tan(0.7), func(u float64) float64 { return -csc(u) * csc(u) }},
		{"sinh", Sinh[*Scalar], 0.7, math.Sinh(0.7), math.Cosh},
		{"cosh", Cosh[*Scalar], 0.7, math.Cosh(0.7), math.Sinh},
		{"tanh", Tanh[*Scalar], 0.7, math.Tanh(0.7), func(u float64) float64 { return sech(u) * sech(u) }},
		{"sech", Sech[*Scalar], 0.7, sech(0.7), func(u float64) float64 { return -sech(u) * math.Tanh(u) }},
		{"csch", Csch[*Scalar], 0.7, csch(0.7), func(u float64) float64 { return -csch(u) / math.Tanh(u) }},
		{"coth", Coth[*Scalar], 0.7, 1 / math.Tanh(0.7), func(u float64) float64 { return -csch(u) * csch(u) }},
		{"asin", Asin[*Scalar], 0.3, math.Asin(0.3), func(u float64) float64 { return 1 / math.Sqrt(1-u*u) }},
		{"acos", Acos[*Scalar], 0.3, math.Acos(0.3), func(u float64) float64 { return -1 / math.Sqrt(1-u*u) }},
		{"atan", Atan[*Scalar], 0.5, math.Atan(0.5), func(u float64) float64 { return 1 / (1 + u*u) }},
		{"acot", Acot[*Scalar], 0.5, math.Atan(2), func(u float64) float64 { return -1 / (1 + u*u) }},
		{"asec", Asec[*Scalar], 2, math.Acos(0.5), func(u float64) float64 { return 1 / (math.Abs(u) * math.Sqrt(u*u-1)) }},
		{"acsc", Acsc[*Scalar], -2, math.Asin(-0.5), func(u float64) float64 { return -1 / (math.Abs(u) * math.Sqrt(u*u-1)) }},
		{"asinh", Asinh[*Scalar], 0.5, math.Asinh(0.5), func(u float64) float64 { return 1 / math.Sqrt(1+u*u) }},
		{"acosh", Acosh[*Scalar], 2, math.Acosh(2), func(u float64) float64 { return 1 / math.Sqrt(u*u-1) }},
		{"atanh", Atanh[*Scalar], 0.5, math.Atanh(0.5), func(u float64) float64 { return 1 / (1 - u*u) }},
		{"acoth", Acoth[*Scalar], 2, 0.5 * math.Log(3), func(u float64) float64 { return 1 / (1 - u*u) }},
		{"asech", Asech[*Scalar], 0.5, math.Log((1 + math.Sqrt(0.75)) / 0.5), func(u float64) float64 { return -1 / (u * math.Sqrt(1-u*u)) }},
		{"acsch", Acsch[*Scalar], 0.5, math.Asinh(2), func(u float64) float64 { return -1 / (math.Abs(u) * math.Sqrt(1+u*u)) }},
	}
}

// The second derivative is checked against a central difference of the closed form first derivative.
func TestElementaryClosedForm(t *testing.T) {
	const h = 1e-5
	for _, c := range elementaryCases() {
		x := Must(Seed(c.at, 0, 1, 1))
		f, err := c.fn(x)
		require.NoError(t, err, c.name)

		assert.InDelta(t, c.val, f.Value(), 1e-12, c.name)
		d, _ := f.Derivative(0)
		assert.InDelta(t, c.der(c.at), d, 1e-12, c.name)
		d2, _ := f.SecondDerivative(0, 0)
		assert.InDelta(t, (c.der(c.at+h)-c.der(c.at-h))/(2*h), d2, 1e-6, c.name)

		// the same sequence through the higher order path
		y := Must(Seed(c.at, 0, 1, 3))
		g, err := c.fn(y)
		require.NoError(t, err, c.name)
		h1, _ := g.HigherDerivative(1)
		h2, _ := g.HigherDerivative(2)
		assert.InDelta(t, d, h1, 1e-12, c.name)
		assert.InDelta(t, d2, h2, 1e-9, c.name)
	}
}

func TestChainRule(t *testing.T) {
	// f(g(x, y)) with g = x·y
	x := Must(Seed(0.6, 0, 2, 1))
	y := Must(Seed(0.9, 1, 2, 1))
	g := Must(x.Mul(y))
	u := 0.6 * 0.9
	for _, c := range elementaryCases()[:16] {
		f, err := c.fn(g)
		require.NoError(t, err, c.name)
		dx, _ := f.Derivative(0)
		dy, _ := f.Derivative(1)
		assert.InDelta(t, c.der(u)*0.9, dx, 1e-12, c.name)
		assert.InDelta(t, c.der(u)*0.6, dy, 1e-12, c.name)
	}
}

func TestDomain(t *testing.T) {
	for _, c := range []struct {
		name string
		fn   func(*Scalar) (*Scalar, error)
		at   float64
		want error
	}{
		{"log", Log[*Scalar], 0, ErrDomain},
		{"log", Log[*Scalar], -1, ErrDomain},
		{"sqrt", Sqrt[*Scalar], 0, ErrDomain},
		{"asin", Asin[*Scalar], 1.5, ErrDomain},
		{"acos", Acos[*Scalar], -1.5, ErrDomain},
		{"asec", Asec[*Scalar], 0.5, ErrDomain},
		{"acsc", Acsc[*Scalar], -0.5, ErrDomain},
		{"acosh", Acosh[*Scalar], 0.5, ErrDomain},
		{"atanh", Atanh[*Scalar], 1, ErrDomain},
		{"acoth", Acoth[*Scalar], 0.5, ErrDomain},
		{"asech", Asech[*Scalar], 0, ErrDomain},
		{"asech", Asech[*Scalar], 1.5, ErrDomain},
		{"acsch", Acsch[*Scalar], 0, ErrDomain},
		{"cot", Cot[*Scalar], 0, ErrDomain},
		{"coth", Coth[*Scalar], 0, ErrDomain},
		{"abs", Abs[*Scalar], 0, ErrUndefinedDerivative},
		{"asin", Asin[*Scalar], 1, ErrUndefinedDerivative},
		{"asec", Asec[*Scalar], 1, ErrUndefinedDerivative},
		{"acosh", Acosh[*Scalar], 1, ErrUndefinedDerivative},
		{"asech", Asech[*Scalar], 1, ErrUndefinedDerivative},
	} {
		f, err := c.fn(Must(Seed(c.at, 0, 1, 1)))
		assert.Nil(t, f)
		require.ErrorIs(t, err, c.want, "%s(%v)", c.name, c.at)
		var de *Error
		require.True(t, errors.As(err, &de))
		assert.Equal(t, c.name, de.Op)
	}

	_, err := Log(Must(Seed(-1, 0, 1, 1)))
	assert.EqualError(t, err, "dual: domain error (log): -1 outside (0, +∞)")
}

func TestPolymorphic(t *testing.T) {
	c, err := Sin(Const(math.Pi / 2))
	require.NoError(t, err)
	assert.InDelta(t, 1, float64(c), 1e-15)

	cs, err := Exp(Consts{0, 1})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1, math.E}, []float64(cs), 1e-15)

	p, err := Pow(Const(2), 3)
	require.NoError(t, err)
	assert.Equal(t, Const(8), p)

	_, err = Log(Const(-1))
	assert.ErrorIs(t, err, ErrDomain)
	_, err = Acosh(Consts{2, 0})
	assert.ErrorIs(t, err, ErrDomain)

	v := Must(NewVector([]float64{0.5, 2}))
	w, err := Log(v)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{math.Log(0.5), math.Log(2)}, w.Values(), 1e-15)
	col, _ := w.Derivative(0)
	assert.Equal(t, []float64{2, 0}, col)

	sq, err := Pow(v, 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.25, 4}, sq.Values())
	col, _ = sq.Derivative(1)
	assert.Equal(t, []float64{0, 4}, col)

	_, err = Asin(v)
	assert.ErrorIs(t, err, ErrDomain)

	var nilScalar *Scalar
	_, err = Sin(nilScalar)
	assert.ErrorIs(t, err, ErrInvalidType)
	var nilVector *Vector
	_, err = Sin(nilVector)
	assert.ErrorIs(t, err, ErrInvalidType)
	for _, p := range []float64{0, 1, 2} {
		_, err = Pow(nilScalar, p)
		assert.ErrorIs(t, err, ErrInvalidType)
	}
}

func TestConstsBranch(t *testing.T) {
	cs, err := Log(Consts{1, math.E, 0.5})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0, 1, math.Log(0.5)}, []float64(cs), 1e-15)

	cs, err = Pow(Consts{2, 3}, 2)
	require.NoError(t, err)
	assert.Equal(t, Consts{4, 9}, cs)

	for _, c := range []struct {
		fn   func(Consts) (Consts, error)
		want func(float64) float64
	}{
		{Sin[Consts], math.Sin},
		{Tanh[Consts], math.Tanh},
		{Asinh[Consts], math.Asinh},
		{Abs[Consts], math.Abs},
	} {
		got, err := c.fn(Consts{-0.7, 0.3})
		require.NoError(t, err)
		assert.InDeltaSlice(t, []float64{c.want(-0.7), c.want(0.3)}, []float64(got), 1e-15)
	}

	cs, err = Sqrt(Consts{4, -1, 9})
	assert.ErrorIs(t, err, ErrDomain)
	assert.Nil(t, cs)
}
