// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dual implements forward-mode automatic differentiation with dual numbers.
//
// A Scalar carries a value together with its gradient 𝒇′ ∈ ℝⁿ and Hessian 𝒇″ ∈ ℝⁿˣⁿ
// with respect to n seeded variables. When only one variable is tracked, a Scalar may
// also carry the derivatives 𝒇⁽ᵏ⁾ for k = 1, ..., order, composed through Faà di Bruno's
// formula with partial Bell polynomials.
//
// Every operation returns a new value, so a Scalar or Vector is safe to share between
// goroutines. Preconditions are checked eagerly and reported as *Error wrapping one of
// the sentinel errors of this package.
//
// Usage:
//
//	vars := dual.NewRegistry()
//	x, _ := vars.Seed("x", 2)
//	y, _ := vars.Seed("y", 3)
//	f, _ := x.Mul(y)           // f = x·y
//	dx, _ := f.DerivativeOf("x") // ∂f/∂x = y = 3
//
//	t, _ := dual.Seed(1, 0, 1, 5)       // single variable, derivatives up to order 5
//	g, _ := t.Pow(dual.Const(5))         // g = t⁵
//	d3, _ := g.HigherDerivative(3)       // 60
//
// # Reference:
//
//   - https://en.wikipedia.org/wiki/Automatic_differentiation#Forward_accumulation
//   - https://en.wikipedia.org/wiki/Fa%C3%A0_di_Bruno%27s_formula
//   - https://en.wikipedia.org/wiki/Bell_polynomials
package dual
