// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dual

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/mat"
)

// Scalar is a differentiable scalar 𝒇(𝐱) evaluated at a fixed point 𝐱 ∈ ℝⁿ.
//
// The zero value is not usable, create a Scalar with Seed or Registry.Seed
// and combine seeds with the arithmetic methods and elementary functions.
type Scalar struct {
	// the function value 𝒇(𝐱).
	val float64
	// the gradient ∂𝒇/∂xᵢ indexed by variable slot.
	der []float64 // n
	// the Hessian ∂²𝒇/∂xᵢ∂xⱼ stored row-major.
	der2 []float64 // n × n
	// the derivatives 𝒇⁽ᵏ⁾ at index k-1, only tracked for a single variable.
	higher []float64 // order
	// the sorted slots of the seeds this value depends on.
	tags []int
	// the registry that named the seeds, if any.
	vars *Registry
}

// Seed creates the independent variable xₛ of an n-dimensional point with value v.
// Its gradient is the unit vector 𝐞ₛ and its Hessian is zero.
//
// An order greater than 2 tracks the derivatives 𝒇⁽³⁾ ... 𝒇⁽ᵒʳᵈᵉʳ⁾ as well,
// which is only supported when n = 1.
func Seed(value float64, slot, n, order int) (*Scalar, error) {
	switch {
	case n < 1:
		return nil, errorf("seed", ErrInvalidConfiguration, "variable count %d must be at least 1", n)
	case slot < 0 || slot >= n:
		return nil, errorf("seed", ErrInvalidConfiguration, "slot %d outside [0, %d)", slot, n)
	case order < 1:
		return nil, errorf("seed", ErrInvalidConfiguration, "order %d must be at least 1", order)
	case order > 2 && n > 1:
		return nil, errorf("seed", ErrUnsupportedConfiguration, "order %d requires a single variable but got %d", order, n)
	}
	return seed(value, slot, n, order), nil
}

func seed(value float64, slot, n, order int) *Scalar {
	s := &Scalar{
		val:  value,
		der:  make([]float64, n),
		der2: make([]float64, n*n),
		tags: []int{slot},
	}
	s.der[slot] = 1
	if order > 2 {
		s.higher = make([]float64, order)
		s.higher[0] = 1
	}
	return s
}

// Value returns 𝒇(𝐱).
func (a *Scalar) Value() float64 {
	return a.val
}

// N returns the number of variables the derivatives are taken with respect to.
// Values seeded from a Registry grow with it.
func (a *Scalar) N() int {
	n := len(a.der)
	if a.vars != nil {
		n = max(n, a.vars.Len())
	}
	return n
}

// Order reports the highest derivative order carried by a.
func (a *Scalar) Order() int {
	return a.orders()
}

func (a *Scalar) orders() int {
	return max(2, len(a.higher))
}

// Slots returns the variable slots whose seeds 𝒇 depends on.
func (a *Scalar) Slots() []int {
	return slices.Clone(a.tags)
}

// Derivative returns ∂𝒇/∂xₛ.
func (a *Scalar) Derivative(slot int) (float64, error) {
	if slot < 0 || slot >= a.N() {
		return 0, errorf("derivative", ErrInvalidConfiguration, "slot %d outside [0, %d)", slot, a.N())
	}
	if slot >= len(a.der) {
		return 0, nil
	}
	return a.der[slot], nil
}

// SecondDerivative returns ∂²𝒇/∂xᵢ∂xⱼ.
func (a *Scalar) SecondDerivative(i, j int) (float64, error) {
	n := a.N()
	if i < 0 || i >= n || j < 0 || j >= n {
		return 0, errorf("derivative", ErrInvalidConfiguration, "slot (%d, %d) outside [0, %d)", i, j, n)
	}
	m := len(a.der)
	if i >= m || j >= m {
		return 0, nil
	}
	return a.der2[i*m+j], nil
}

// HigherDerivative returns 𝒇⁽ᵏ⁾ of a single variable function.
// Orders 1 and 2 are always available when n = 1, higher orders require
// the variable to be seeded with at least that order.
func (a *Scalar) HigherDerivative(order int) (float64, error) {
	switch {
	case order < 1:
		return 0, errorf("derivative", ErrInvalidConfiguration, "order %d must be at least 1", order)
	case a.higher != nil && order > len(a.higher):
		return 0, errorf("derivative", ErrInvalidConfiguration, "order %d beyond tracked order %d", order, len(a.higher))
	case a.higher != nil:
		return a.higher[order-1], nil
	case a.N() != 1:
		return 0, errorf("derivative", ErrUnsupportedConfiguration, "higher derivatives of %d variables", a.N())
	case order == 1:
		return a.der[0], nil
	case order == 2:
		return a.der2[0], nil
	}
	return 0, errorf("derivative", ErrInvalidConfiguration, "order %d is not tracked", order)
}

// DerivativeOf returns ∂𝒇/∂x for the variable named in the registry 𝒇 was seeded from.
func (a *Scalar) DerivativeOf(name string) (float64, error) {
	if a.vars == nil {
		return 0, errorf("derivative", ErrInvalidConfiguration, "value was not seeded from a registry")
	}
	slot, ok := a.vars.Slot(name)
	if !ok {
		return 0, errorf("derivative", ErrInvalidConfiguration, "unknown variable %q", name)
	}
	return a.Derivative(slot)
}

// Gradient returns a copy of ∇𝒇 ∈ ℝⁿ.
func (a *Scalar) Gradient() []float64 {
	der, _ := a.widen(a.N())
	return slices.Clone(der)
}

// Jacobian returns ∇𝒇 as a 1 × n matrix.
func (a *Scalar) Jacobian() *mat.Dense {
	return mat.NewDense(1, a.N(), a.Gradient())
}

// Hessian returns ∇²𝒇 as an n × n matrix.
func (a *Scalar) Hessian() *mat.Dense {
	n := a.N()
	_, der2 := a.widen(n)
	return mat.NewDense(n, n, slices.Clone(der2))
}

func (a *Scalar) String() string {
	return fmt.Sprintf("Scalar(value: %v, derivatives: %v)", a.val, a.Gradient())
}

// widen zero pads the derivatives to n variables.
// The returned slices may alias the receiver and must not be modified.
func (a *Scalar) widen(n int) (der, der2 []float64) {
	m := len(a.der)
	if m == n {
		return a.der, a.der2
	}
	if m > n {
		panic("widen dimension error")
	}
	der = make([]float64, n)
	copy(der, a.der)
	der2 = make([]float64, n*n)
	for i := 0; i < m; i++ {
		copy(der2[i*n:i*n+m], a.der2[i*m:(i+1)*m])
	}
	return
}

// affine returns α·𝒇 + β.
func (a *Scalar) affine(alpha, beta float64) *Scalar {
	if alpha == 1 {
		r := *a
		r.val += beta
		return &r
	}
	return &Scalar{
		val:    alpha*a.val + beta,
		der:    scaled(alpha, a.der),
		der2:   scaled(alpha, a.der2),
		higher: scaled(alpha, a.higher),
		tags:   a.tags,
		vars:   a.vars,
	}
}

// constant returns a Scalar with value v and zero derivatives shaped like a.
func (a *Scalar) constant(v float64) *Scalar {
	r := &Scalar{
		val:  v,
		der:  make([]float64, len(a.der)),
		der2: make([]float64, len(a.der2)),
		tags: a.tags,
		vars: a.vars,
	}
	if a.higher != nil {
		r.higher = make([]float64, len(a.higher))
	}
	return r
}

func mergeTags(a, b []int) []int {
	if slices.Equal(a, b) {
		return a
	}
	t := append(slices.Clone(a), b...)
	slices.Sort(t)
	return slices.Compact(t)
}

func joinVars(op string, a, b *Scalar) (*Registry, error) {
	switch {
	case a.vars == nil:
		return b.vars, nil
	case b.vars == nil || a.vars == b.vars:
		return a.vars, nil
	}
	return nil, errorf(op, ErrInvalidConfiguration, "operands belong to different registries")
}
