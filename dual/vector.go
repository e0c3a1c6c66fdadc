// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dual

import (
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Vector is an ordered tuple of Scalar components 𝒇ᵢ(𝐱) sharing the same variables.
type Vector struct {
	comps []*Scalar
}

// NewVector seeds the point 𝐱 = values, assigning variable slot i to component i.
// The Jacobian of the result is the identity matrix.
func NewVector(values []float64) (*Vector, error) {
	n := len(values)
	if n == 0 {
		return nil, errorf("vector", ErrInvalidConfiguration, "empty point")
	}
	comps := make([]*Scalar, n)
	for i, v := range values {
		comps[i] = seed(v, i, n, 1)
	}
	return &Vector{comps: comps}, nil
}

// VectorOf assembles a Vector from existing components.
func VectorOf(comps ...*Scalar) (*Vector, error) {
	if len(comps) == 0 {
		return nil, errorf("vector", ErrInvalidConfiguration, "no component")
	}
	for i, c := range comps {
		if c == nil {
			return nil, errorf("vector", ErrInvalidType, "component %d is nil", i)
		}
	}
	return &Vector{comps: append([]*Scalar(nil), comps...)}, nil
}

// Len returns the number of components.
func (v *Vector) Len() int {
	return len(v.comps)
}

// At returns the i-th component.
func (v *Vector) At(i int) *Scalar {
	return v.comps[i]
}

// Values returns the component values.
func (v *Vector) Values() []float64 {
	vals := make([]float64, len(v.comps))
	for i, c := range v.comps {
		vals[i] = c.val
	}
	return vals
}

// N returns the number of variables shared by the components.
func (v *Vector) N() (n int) {
	for _, c := range v.comps {
		n = max(n, c.N())
	}
	return
}

// Derivative returns the column ∂𝒇ᵢ/∂xₛ of the Jacobian.
func (v *Vector) Derivative(slot int) ([]float64, error) {
	n := v.N()
	if slot < 0 || slot >= n {
		return nil, errorf("derivative", ErrInvalidConfiguration, "slot %d outside [0, %d)", slot, n)
	}
	col := make([]float64, len(v.comps))
	for i, c := range v.comps {
		der, _ := c.widen(n)
		col[i] = der[slot]
	}
	return col, nil
}

// SecondDerivative returns ∂²𝒇ᵢ/∂xⱼ∂xₖ for every component.
func (v *Vector) SecondDerivative(j, k int) ([]float64, error) {
	n := v.N()
	if j < 0 || j >= n || k < 0 || k >= n {
		return nil, errorf("derivative", ErrInvalidConfiguration, "slot (%d, %d) outside [0, %d)", j, k, n)
	}
	col := make([]float64, len(v.comps))
	for i, c := range v.comps {
		_, der2 := c.widen(n)
		col[i] = der2[j*n+k]
	}
	return col, nil
}

// Jacobian returns the m × n matrix ∂𝒇ᵢ/∂xⱼ.
func (v *Vector) Jacobian() *mat.Dense {
	n := v.N()
	jac := mat.NewDense(len(v.comps), n, nil)
	for i, c := range v.comps {
		der, _ := c.widen(n)
		jac.SetRow(i, der)
	}
	return jac
}

// Map returns the Vector of g(𝒇ᵢ).
func (v *Vector) Map(g func(*Scalar) (*Scalar, error)) (*Vector, error) {
	if v == nil {
		return nil, errorf("map", ErrInvalidType, "nil vector")
	}
	return v.mapIndexed(func(_ int, c *Scalar) (*Scalar, error) { return g(c) })
}

// zip applies op to each component and the matching element of b.
// A Const or *Scalar is broadcast, a Consts or *Vector must have the same length.
func (v *Vector) zip(name string, b Number, op func(a *Scalar, b Operand) (*Scalar, error)) (*Vector, error) {
	at, err := v.broadcast(name, b)
	if err != nil {
		return nil, err
	}
	return v.mapIndexed(func(i int, c *Scalar) (*Scalar, error) { return op(c, at(i)) })
}

func (v *Vector) mapIndexed(g func(i int, c *Scalar) (*Scalar, error)) (*Vector, error) {
	comps := make([]*Scalar, len(v.comps))
	for i, c := range v.comps {
		r, err := g(i, c)
		if err != nil {
			return nil, err
		}
		comps[i] = r
	}
	return &Vector{comps: comps}, nil
}

func (v *Vector) broadcast(name string, b Number) (func(i int) Operand, error) {
	switch w := b.(type) {
	case Const:
		return func(int) Operand { return w }, nil
	case *Scalar:
		if w != nil {
			return func(int) Operand { return w }, nil
		}
	case Consts:
		if len(w) != len(v.comps) {
			return nil, errorf(name, ErrInvalidConfiguration, "length %d and %d", len(v.comps), len(w))
		}
		return func(i int) Operand { return Const(w[i]) }, nil
	case *Vector:
		if w == nil {
			break
		}
		if len(w.comps) != len(v.comps) {
			return nil, errorf(name, ErrInvalidConfiguration, "length %d and %d", len(v.comps), len(w.comps))
		}
		return func(i int) Operand { return w.comps[i] }, nil
	}
	return nil, errorf(name, ErrInvalidType, "operand %T is not differentiable", b)
}

// Add returns 𝒇ᵢ + 𝒈ᵢ.
func (v *Vector) Add(b Number) (*Vector, error) {
	return v.zip("add", b, (*Scalar).Add)
}

// Sub returns 𝒇ᵢ - 𝒈ᵢ.
func (v *Vector) Sub(b Number) (*Vector, error) {
	return v.zip("sub", b, (*Scalar).Sub)
}

// Mul returns 𝒇ᵢ·𝒈ᵢ.
func (v *Vector) Mul(b Number) (*Vector, error) {
	return v.zip("mul", b, (*Scalar).Mul)
}

// Div returns 𝒇ᵢ / 𝒈ᵢ.
func (v *Vector) Div(b Number) (*Vector, error) {
	return v.zip("div", b, (*Scalar).Div)
}

// Pow returns 𝒇ᵢ raised to 𝒈ᵢ.
func (v *Vector) Pow(b Number) (*Vector, error) {
	return v.zip("pow", b, (*Scalar).Pow)
}

// RSub returns 𝒈ᵢ - 𝒇ᵢ.
func (v *Vector) RSub(b Number) (*Vector, error) {
	return v.zip("sub", b, func(a *Scalar, b Operand) (*Scalar, error) {
		c, s, err := resolve("sub", b)
		switch {
		case err != nil:
			return nil, err
		case s == nil:
			return a.RSub(c), nil
		}
		return s.Sub(a)
	})
}

// RDiv returns 𝒈ᵢ / 𝒇ᵢ.
func (v *Vector) RDiv(b Number) (*Vector, error) {
	return v.zip("div", b, func(a *Scalar, b Operand) (*Scalar, error) {
		c, s, err := resolve("div", b)
		switch {
		case err != nil:
			return nil, err
		case s == nil:
			return a.RDiv(c)
		}
		return s.Div(a)
	})
}

// RPow returns 𝒈ᵢ raised to 𝒇ᵢ.
func (v *Vector) RPow(b Number) (*Vector, error) {
	return v.zip("pow", b, func(a *Scalar, b Operand) (*Scalar, error) {
		c, s, err := resolve("pow", b)
		switch {
		case err != nil:
			return nil, err
		case s == nil:
			return a.RPow(c)
		}
		return s.Pow(a)
	})
}

// Mod returns 𝒇ᵢ mod k keeping the derivatives of 𝒇ᵢ.
func (v *Vector) Mod(k float64) (*Vector, error) {
	return v.Map(func(c *Scalar) (*Scalar, error) { return c.Mod(k) })
}

// Neg returns -𝒇ᵢ.
func (v *Vector) Neg() *Vector {
	r, _ := v.Map(func(c *Scalar) (*Scalar, error) { return c.Neg(), nil })
	return r
}

func (v *Vector) String() string {
	var sb strings.Builder
	sb.WriteString("Vector(")
	for i, c := range v.comps {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(c.String())
	}
	sb.WriteString(")")
	return sb.String()
}
