// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dual

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
)

// fullEqualTol is the absolute tolerance of FullEqual.
const fullEqualTol = 1e-8

type relation func(a, b float64) bool

var (
	eq relation = func(a, b float64) bool { return a == b }
	ne relation = func(a, b float64) bool { return a != b }
	lt relation = func(a, b float64) bool { return a < b }
	le relation = func(a, b float64) bool { return a <= b }
	gt relation = func(a, b float64) bool { return a > b }
	ge relation = func(a, b float64) bool { return a >= b }
)

// Comparisons look at values only. A Scalar compares with a *Scalar or Const.

func (a *Scalar) compare(b Number, rel relation) (bool, error) {
	switch v := b.(type) {
	case Const:
		return rel(a.val, float64(v)), nil
	case *Scalar:
		if v != nil {
			return rel(a.val, v.val), nil
		}
	}
	return false, errorf("compare", ErrInvalidComparison, "scalar compared with %T", b)
}

func (a *Scalar) Equal(b Number) (bool, error)        { return a.compare(b, eq) }
func (a *Scalar) NotEqual(b Number) (bool, error)     { return a.compare(b, ne) }
func (a *Scalar) Less(b Number) (bool, error)         { return a.compare(b, lt) }
func (a *Scalar) LessEqual(b Number) (bool, error)    { return a.compare(b, le) }
func (a *Scalar) Greater(b Number) (bool, error)      { return a.compare(b, gt) }
func (a *Scalar) GreaterEqual(b Number) (bool, error) { return a.compare(b, ge) }

// FullEqual reports whether a and b agree in value, gradient and Hessian within 1e-8.
func (a *Scalar) FullEqual(b *Scalar) bool {
	if b == nil {
		return false
	}
	n := max(a.N(), b.N())
	ad, ad2 := a.widen(n)
	bd, bd2 := b.widen(n)
	return scalar.EqualWithinAbs(a.val, b.val, fullEqualTol) &&
		floats.EqualApprox(ad, bd, fullEqualTol) &&
		floats.EqualApprox(ad2, bd2, fullEqualTol)
}

// elementwise returns rel(𝒇ᵢ, 𝒈ᵢ) against a Vector of the same length.
func (v *Vector) elementwise(b Number, rel relation) ([]bool, error) {
	w, ok := b.(*Vector)
	switch {
	case !ok || w == nil:
		return nil, errorf("compare", ErrInvalidComparison, "vector compared with %T", b)
	case len(w.comps) != len(v.comps):
		return nil, errorf("compare", ErrInvalidComparison, "length %d and %d", len(v.comps), len(w.comps))
	}
	res := make([]bool, len(v.comps))
	for i, c := range v.comps {
		res[i] = rel(c.val, w.comps[i].val)
	}
	return res, nil
}

func (v *Vector) all(b Number, rel relation) (bool, error) {
	res, err := v.elementwise(b, rel)
	if err != nil {
		return false, err
	}
	for _, r := range res {
		if !r {
			return false, nil
		}
	}
	return true, nil
}

// Equal reports whether every component value equals the matching value of b.
func (v *Vector) Equal(b Number) (bool, error) { return v.all(b, eq) }

// NotEqual is the negation of Equal.
func (v *Vector) NotEqual(b Number) (bool, error) {
	same, err := v.Equal(b)
	return !same && err == nil, err
}

func (v *Vector) Less(b Number) (bool, error)         { return v.all(b, lt) }
func (v *Vector) LessEqual(b Number) (bool, error)    { return v.all(b, le) }
func (v *Vector) Greater(b Number) (bool, error)      { return v.all(b, gt) }
func (v *Vector) GreaterEqual(b Number) (bool, error) { return v.all(b, ge) }

func (v *Vector) IsEqual(b Number) ([]bool, error)   { return v.elementwise(b, eq) }
func (v *Vector) IsGreater(b Number) ([]bool, error) { return v.elementwise(b, gt) }
func (v *Vector) IsLess(b Number) ([]bool, error)    { return v.elementwise(b, lt) }

// FullEqual reports whether every component of v and w agrees in value, gradient and Hessian.
func (v *Vector) FullEqual(w *Vector) bool {
	if w == nil || len(w.comps) != len(v.comps) {
		return false
	}
	for i, c := range v.comps {
		if !c.FullEqual(w.comps[i]) {
			return false
		}
	}
	return true
}
