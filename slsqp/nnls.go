// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package slsqp

import (
	"math"
)

// NNLS (Non-Negative Least-Squares) solves 𝚖𝚒𝚗 ‖ 𝐀𝐱 - 𝐛 ‖₂ subject to 𝐱 ≥ 0 with an active-set method.
//   - 𝐀 is an m × n column-major matrix
//   - 𝐱 ∈ ℝⁿ
//   - 𝐛 ∈ ℝᵐ
//
// The indices are split into two sets:
//   - 𝐱ⱼ = 0, j ∈ ℤ : active variables held at zero
//   - 𝐱ⱼ > 0, j ∈ ℙ : passive variables free to take any positive value
//
// Each outer iteration moves the index with the largest positive dual component
// 𝐰ⱼ = (𝐀ᵀ(𝐛 - 𝐀𝐱))ⱼ from ℤ to ℙ, then solves the unconstrained least-squares problem
// restricted to the columns in ℙ by Householder QR. Whenever that solution 𝐳 has a
// non-positive component, 𝐱 moves towards 𝐳 by the largest feasible step
// 𝛂 = 𝚖𝚒𝚗 { 𝐱ⱼ/(𝐱ⱼ-𝐳ⱼ) : 𝐳ⱼ ≤ 0 } and the blocking index returns to ℤ.
//
// The iteration stops when 𝐰ⱼ ≤ 0 for every j ∈ ℤ, which are the KKT conditions
// of the problem, and returns ‖ 𝐛 - 𝐀𝐱 ‖₂.
//
// # References
//
//	C.L. Lawson, R.J. Hanson, 'Solving least squares problems' Prentice Hall, 1974. (revised 1995 edition)
//	Chapters 23, Algorithm 23.10.
func NNLS(
	m, n int,
	// the m × n matrix 𝐀, replaced by 𝐐𝐀 on return.
	a []float64, mda int,
	// the m-vector 𝐛, replaced by 𝐐𝐛 on return.
	b []float64,
	// the solution 𝐱.
	x []float64,
	// the dual vector 𝐰.
	w []float64,
	// working space
	z []float64, index []int,
	// maximum number of iterations, 3n when not positive
	maxIter int) (float64, Status) {

	const factor = 0.01

	if m <= 0 || n <= 0 || mda < m ||
		len(a) < mda*n || len(b) < m || len(x) < n || len(w) < n || len(z) < m || len(index) < n {
		return math.NaN(), BadArgument
	}

	if maxIter <= 0 {
		maxIter = 3 * n
	}

	np := 0 // size of ℙ
	z1 := 0 // start of ℤ

	// index[:np] = ℙ, index[z1:] = ℤ
	index = index[:n]
	for i := range index {
		index[i] = i
	}

	// start from 𝐱 = 0 with every index in ℤ
	dzero(x[:n])

	iter := 0
	term := func() (rnorm float64, mode Status) {
		if np < m {
			rnorm = dnrm2(m-np, b[np:], 1)
		} else {
			dzero(w[:n])
		}
		if iter > maxIter {
			mode = NNLSExceedMaxIter
		} else {
			mode = HasSolution
		}
		return
	}

	for {
		// ℤ = ∅ or m columns already triangularized
		if z1 >= n || np >= m {
			return term()
		}

		// 𝐰ⱼ = 𝐀ⱼᵀ(𝐛 - 𝐀𝐱) for j ∈ ℤ, reduced to 𝐀ⱼᵀ𝐛 on the untransformed rows
		for _, j := range index[z1:] {
			w[j] = ddot(m-np, a[np+mda*j:], 1, b[np:], 1)
		}

		for {
			wmax, izmax := zero, 0
			for i, j := range index[z1:] {
				if w[j] > wmax {
					wmax, izmax = w[j], z1+i
				}
			}

			// KKT conditions hold
			if wmax <= zero {
				return term()
			}

			iz := izmax
			j := index[iz]
			aj := a[mda*j : mda*j+m : mda*j+m]

			asave := aj[np]
			up := h1(np, np+1, m, aj, 1)

			// reject columns nearly dependent on ℙ
			accept := false
			unorm := dnrm2(np, aj, 1)
			if math.Abs(aj[np])*factor >= unorm*eps {
				copy(z[:m], b[:m])
				h2(np, np+1, m, aj, 1, up, z, 1, 1, 1)
				ztest := z[np] / aj[np]
				accept = ztest > zero
			}

			if !accept {
				aj[np] = asave
				w[j] = zero
				continue
			}

			copy(b[:m], z[:m])

			// move j from ℤ to ℙ
			index[iz] = index[z1]
			index[z1] = j
			z1++
			np++

			if z1 < n {
				for _, jj := range index[z1:] {
					h2(np-1, np, m, aj, 1, up, a[jj*mda:], 1, mda, 1)
				}
			}
			if np < m {
				dzero(aj[np:m])
			}
			w[j] = zero
			break
		}

		// Drop violating variables until the restricted solution is feasible.
		for {
			// back substitution 𝐑𝐳 = 𝐐𝐛
			for ip, jj := np-1, -1; ip >= 0; ip-- {
				if jj >= 0 {
					daxpy(ip+1, -z[ip+1], a[jj*mda:], 1, z, 1)
				}
				jj = index[ip]
				z[ip] /= a[ip+jj*mda]
			}

			if iter++; iter > maxIter {
				return term()
			}

			// 𝛂 = 𝚖𝚒𝚗 { 𝐱ⱼ/(𝐱ⱼ-𝐳ⱼ) : 𝐳ⱼ ≤ 0, j ∈ ℙ }
			alpha, jj := two, -1
			for ip, l := range index[:np] {
				if z[ip] <= zero {
					t := -x[l] / (z[ip] - x[l])
					if alpha > t {
						alpha, jj = t, ip
					}
				}
			}

			if jj < 0 {
				for ip, idx := range index[:np] {
					x[idx] = z[ip]
				}
				break
			}

			// 𝐱 = 𝐱 + 𝛂(𝐳 - 𝐱)
			for ip, l := range index[:np] {
				x[l] += alpha * (z[ip] - x[l])
			}

			// move the blocking index from ℙ to ℤ, restoring the triangle with Givens rotations
			i := index[jj]
			x[i] = zero
			if jj++; jj < np {
				for j := jj; j < np; j++ {
					ii := index[j]
					ci := a[ii*mda:]
					index[j-1] = ii
					var cc, ss float64
					cc, ss, ci[j-1] = g1(ci[j-1], ci[j])
					ci[j] = zero
					for l := 0; l < n; l++ {
						if l != ii {
							cl := a[l*mda : l*mda+j+1 : l*mda+j+1]
							cl[j-1], cl[j] = g2(cc, ss, cl[j-1], cl[j])
						}
					}
					b[j-1], b[j] = g2(cc, ss, b[j-1], b[j])
				}
			}
			np--
			z1--
			index[z1] = i

			copy(z[:m], b[:m])
		}
	}
}
