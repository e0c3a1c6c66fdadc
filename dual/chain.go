// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dual

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/combin"
)

// compose applies an outer function 𝒈 to 𝒇 given 𝒈(𝒇(𝐱)) = val and
// seq[k-1] = 𝒈⁽ᵏ⁾(𝒇(𝐱)) for k = 1 ... max(2, order of 𝒇).
//
//	(𝒈∘𝒇)′ = 𝒈′·𝒇′
//	(𝒈∘𝒇)″ = 𝒈′·𝒇″ + 𝒈″·𝒇′⊗𝒇′
//	(𝒈∘𝒇)⁽ⁿ⁾ = ∑ₖ 𝒈⁽ᵏ⁾·Bₙ,ₖ(𝒇′, 𝒇″, ..., 𝒇⁽ⁿ⁻ᵏ⁺¹⁾)
func compose(a *Scalar, val float64, seq []float64) *Scalar {
	if len(seq) < a.orders() {
		panic("compose order error")
	}
	n := len(a.der)
	der := floats.ScaleTo(make([]float64, n), seq[0], a.der)
	der2 := floats.ScaleTo(make([]float64, n*n), seq[0], a.der2)
	for i, di := range a.der {
		if di == 0 {
			continue
		}
		row := der2[i*n : (i+1)*n]
		for j, dj := range a.der {
			row[j] += seq[1] * di * dj
		}
	}
	r := &Scalar{
		val:  val,
		der:  der,
		der2: der2,
		tags: a.tags,
		vars: a.vars,
	}
	if a.higher != nil {
		r.higher = faaDiBruno(seq, a.higher)
	}
	return r
}

// faaDiBruno returns the derivatives of 𝒈∘𝒇 up to len(inner) where
// outer[k-1] = 𝒈⁽ᵏ⁾ and inner[k-1] = 𝒇⁽ᵏ⁾.
func faaDiBruno(outer, inner []float64) []float64 {
	m := len(inner)
	bell := bellTable(inner)
	h := make([]float64, m)
	for n := 1; n <= m; n++ {
		var sum float64
		for k := 1; k <= n; k++ {
			if c := outer[k-1]; c != 0 {
				sum += c * bell[n][k]
			}
		}
		h[n-1] = sum
	}
	return h
}

// bellTable returns B[n][k] = Bₙ,ₖ(x₁, ..., xₙ₋ₖ₊₁) for 0 ≤ k ≤ n ≤ len(x) using
//
//	Bₙ,ₖ = ∑ᵢ C(n-1, i-1)·xᵢ·Bₙ₋ᵢ,ₖ₋₁   (i = 1 ... n-k+1)
//
// with B₀,₀ = 1 and Bₙ,₀ = 0 for n > 0.
func bellTable(x []float64) [][]float64 {
	m := len(x)
	b := make([][]float64, m+1)
	b[0] = []float64{1}
	for n := 1; n <= m; n++ {
		b[n] = make([]float64, n+1)
		for k := 1; k <= n; k++ {
			var sum float64
			for i := 1; i <= n-k+1; i++ {
				if x[i-1] == 0 {
					continue
				}
				sum += binomial(n-1, i-1) * x[i-1] * b[n-i][k-1]
			}
			b[n][k] = sum
		}
	}
	return b
}

// BellPolynomial evaluates the partial exponential Bell polynomial Bₙ,ₖ(x₁, ..., xₙ₋ₖ₊₁)
// where x[i-1] = xᵢ. It panics if n or k is negative or x holds less than n-k+1 values.
func BellPolynomial(n, k int, x []float64) float64 {
	switch {
	case n < 0 || k < 0:
		panic("bell index error")
	case k > n:
		return 0
	case n == 0:
		return 1
	case k == 0:
		return 0
	case len(x) < n-k+1:
		panic("bell argument error")
	}
	xs := make([]float64, n)
	copy(xs, x[:n-k+1])
	return bellTable(xs)[n][k]
}

// FallingFactorial returns p(p-1)...(p-n+1), which is 1 for n = 0.
func FallingFactorial(p float64, n int) float64 {
	if n < 0 {
		panic("factorial order error")
	}
	r := 1.0
	for i := 0; i < n; i++ {
		r *= p - float64(i)
	}
	return r
}

// leibniz returns the derivatives of 𝒇·𝒈 up to len(a) where
// a[k-1] = 𝒇⁽ᵏ⁾ and b[k-1] = 𝒈⁽ᵏ⁾.
//
//	(𝒇𝒈)⁽ⁿ⁾ = ∑ₖ C(n, k)·𝒇⁽ᵏ⁾·𝒈⁽ⁿ⁻ᵏ⁾   (k = 0 ... n)
func leibniz(av float64, a []float64, bv float64, b []float64) []float64 {
	m := len(a)
	da := append([]float64{av}, a...)
	db := append([]float64{bv}, b...)
	h := make([]float64, m)
	for n := 1; n <= m; n++ {
		var sum float64
		for k := 0; k <= n; k++ {
			sum += binomial(n, k) * da[k] * db[n-k]
		}
		h[n-1] = sum
	}
	return h
}

func binomial(n, k int) float64 {
	return float64(combin.Binomial(n, k))
}
