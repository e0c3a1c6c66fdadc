// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dual

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Number is any value accepted by the Vector operators, comparisons and Jacobian assembly.
// It is implemented by *Scalar, *Vector, Const and Consts.
type Number interface {
	number()
}

// Operand is the right-hand side of a Scalar operator: either *Scalar or Const.
type Operand interface {
	Number
	operand()
}

// Const is a constant with zero derivatives.
type Const float64

// Consts is a sequence of constants applied elementwise to a Vector.
type Consts []float64

func (*Scalar) number()  {}
func (*Scalar) operand() {}
func (*Vector) number()  {}
func (Const) number()    {}
func (Const) operand()   {}
func (Consts) number()   {}

func resolve(op string, b Operand) (float64, *Scalar, error) {
	switch v := b.(type) {
	case Const:
		return float64(v), nil, nil
	case *Scalar:
		if v != nil {
			return 0, v, nil
		}
	}
	return 0, nil, errorf(op, ErrInvalidType, "operand %T is not differentiable", b)
}

// Add returns 𝒇 + 𝒈.
func (a *Scalar) Add(b Operand) (*Scalar, error) {
	c, s, err := resolve("add", b)
	switch {
	case err != nil:
		return nil, err
	case s == nil:
		return a.affine(1, c), nil
	}
	return a.add("add", s, 1)
}

// Sub returns 𝒇 - 𝒈.
func (a *Scalar) Sub(b Operand) (*Scalar, error) {
	c, s, err := resolve("sub", b)
	switch {
	case err != nil:
		return nil, err
	case s == nil:
		return a.affine(1, -c), nil
	}
	return a.add("sub", s, -1)
}

// Neg returns -𝒇.
func (a *Scalar) Neg() *Scalar {
	return a.affine(-1, 0)
}

// RSub returns c - 𝒇.
func (a *Scalar) RSub(c float64) *Scalar {
	return a.affine(-1, c)
}

// add returns 𝒇 + β·𝒈.
func (a *Scalar) add(op string, b *Scalar, beta float64) (*Scalar, error) {
	vars, err := joinVars(op, a, b)
	if err != nil {
		return nil, err
	}
	var higher []float64
	if a.higher != nil && b.higher != nil {
		if len(a.higher) != len(b.higher) {
			return nil, errorf(op, ErrOrderMismatch, "order %d and %d", len(a.higher), len(b.higher))
		}
		higher = floats.AddScaledTo(make([]float64, len(a.higher)), a.higher, beta, b.higher)
	}

	n := max(len(a.der), len(b.der))
	ad, ad2 := a.widen(n)
	bd, bd2 := b.widen(n)
	return &Scalar{
		val:    a.val + beta*b.val,
		der:    floats.AddScaledTo(make([]float64, n), ad, beta, bd),
		der2:   floats.AddScaledTo(make([]float64, n*n), ad2, beta, bd2),
		higher: higher,
		tags:   mergeTags(a.tags, b.tags),
		vars:   vars,
	}, nil
}

// Mul returns 𝒇·𝒈.
func (a *Scalar) Mul(b Operand) (*Scalar, error) {
	c, s, err := resolve("mul", b)
	switch {
	case err != nil:
		return nil, err
	case s == nil:
		return a.affine(c, 0), nil
	}
	return a.mul("mul", s)
}

func (a *Scalar) mul(op string, b *Scalar) (*Scalar, error) {
	vars, err := joinVars(op, a, b)
	if err != nil {
		return nil, err
	}
	var higher []float64
	if a.higher != nil && b.higher != nil {
		if len(a.higher) != len(b.higher) {
			return nil, errorf(op, ErrOrderMismatch, "order %d and %d", len(a.higher), len(b.higher))
		}
		higher = leibniz(a.val, a.higher, b.val, b.higher)
	}

	n := max(len(a.der), len(b.der))
	ad, ad2 := a.widen(n)
	bd, bd2 := b.widen(n)

	// (𝒇𝒈)′ = 𝒇·𝒈′ + 𝒈·𝒇′
	der := floats.ScaleTo(make([]float64, n), a.val, bd)
	floats.AddScaled(der, b.val, ad)

	// (𝒇𝒈)″ = 𝒇·𝒈″ + 𝒈·𝒇″ + 𝒇′⊗𝒈′ + 𝒈′⊗𝒇′
	der2 := floats.ScaleTo(make([]float64, n*n), a.val, bd2)
	floats.AddScaled(der2, b.val, ad2)
	for i := 0; i < n; i++ {
		row := der2[i*n : (i+1)*n]
		for j := 0; j < n; j++ {
			row[j] += ad[i]*bd[j] + bd[i]*ad[j]
		}
	}

	return &Scalar{
		val:    a.val * b.val,
		der:    der,
		der2:   der2,
		higher: higher,
		tags:   mergeTags(a.tags, b.tags),
		vars:   vars,
	}, nil
}

// Div returns 𝒇 / 𝒈 computed as 𝒇·𝒈⁻¹.
func (a *Scalar) Div(b Operand) (*Scalar, error) {
	c, s, err := resolve("div", b)
	switch {
	case err != nil:
		return nil, err
	case s == nil && c == 0:
		return nil, errorf("div", ErrDomain, "division by zero")
	case s == nil:
		return a.affine(1/c, 0), nil
	}
	inv, err := powConst(s, -1)
	if err != nil {
		return nil, reop("div", err)
	}
	return a.mul("div", inv)
}

// RDiv returns c / 𝒇.
func (a *Scalar) RDiv(c float64) (*Scalar, error) {
	inv, err := powConst(a, -1)
	if err != nil {
		return nil, reop("div", err)
	}
	return inv.affine(c, 0), nil
}

// Pow returns 𝒇ᵖ for a constant exponent or 𝒇ᵍ = exp(𝒈·log 𝒇) for a dual exponent.
func (a *Scalar) Pow(b Operand) (*Scalar, error) {
	c, s, err := resolve("pow", b)
	switch {
	case err != nil:
		return nil, err
	case s == nil:
		return powConst(a, c)
	}
	return powDual(a, s)
}

func powConst(a *Scalar, p float64) (*Scalar, error) {
	if a == nil {
		return nil, errorf("pow", ErrInvalidType, "nil scalar")
	}
	switch p {
	case 0:
		return a.constant(1), nil
	case 1:
		return a, nil
	}
	return power(p).scalar(a)
}

func powDual(a, b *Scalar) (*Scalar, error) {
	if a.val == 0 {
		if b.val <= 2 {
			return nil, errorf("pow", ErrUndefinedDerivative, "0 raised to dual exponent %v", b.val)
		}
		shape, err := a.add("pow", b, 0)
		if err != nil {
			return nil, err
		}
		return shape.constant(0), nil
	}
	l, err := logF.scalar(a)
	if err != nil {
		return nil, reop("pow", err)
	}
	e, err := l.mul("pow", b)
	if err != nil {
		return nil, err
	}
	return expF.scalar(e)
}

// RPow returns cᶠ.
func (a *Scalar) RPow(c float64) (*Scalar, error) {
	switch {
	case c > 0:
		return expF.scalar(a.affine(math.Log(c), 0))
	case c < 0:
		return nil, errorf("pow", ErrDomain, "negative base %v", c)
	case a.val > 0:
		return a.constant(0), nil
	}
	return nil, errorf("pow", ErrUndefinedDerivative, "0 raised to dual exponent %v", a.val)
}

// Mod returns 𝒇 mod k with the sign of k.
// The derivatives of 𝒇 are kept unchanged.
func (a *Scalar) Mod(k float64) (*Scalar, error) {
	if k == 0 {
		return nil, errorf("mod", ErrInvalidConfiguration, "modulo by zero")
	}
	r := *a
	r.val = math.Mod(a.val, k)
	if r.val != 0 && (r.val < 0) != (k < 0) {
		r.val += k
	}
	return &r, nil
}

func scaled(c float64, s []float64) []float64 {
	if s == nil {
		return nil
	}
	return floats.ScaleTo(make([]float64, len(s)), c, s)
}
