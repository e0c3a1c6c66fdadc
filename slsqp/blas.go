// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package slsqp

import "gonum.org/v1/gonum/blas/blas64"

// The level 1 routines keep the Fortran calling convention of the solver
// (length, slice, stride) and forward to the gonum implementation.
// Empty lengths are no-ops and a zero source stride broadcasts dx[0].

var impl = blas64.Implementation()

// daxpy computes dy += da·dx.
func daxpy(n int, da float64, dx []float64, incx int, dy []float64, incy int) {
	if n <= 0 || da == 0 {
		return
	}
	impl.Daxpy(n, da, dx, incx, dy, incy)
}

// ddot computes dxᵀdy.
func ddot(n int, dx []float64, incx int, dy []float64, incy int) float64 {
	if n <= 0 {
		return 0
	}
	return impl.Ddot(n, dx, incx, dy, incy)
}

// dcopy copies dx into dy.
func dcopy(n int, dx []float64, incx int, dy []float64, incy int) {
	switch {
	case n <= 0:
	case incx == 0:
		v := dx[0]
		for i := 0; i < n; i++ {
			dy[i*incy] = v
		}
	case incx == 1 && incy == 1:
		copy(dy[:n], dx[:n])
	default:
		impl.Dcopy(n, dx, incx, dy, incy)
	}
}

// dscal computes dx *= da.
func dscal(n int, da float64, dx []float64, incx int) {
	if n <= 0 || incx <= 0 {
		return
	}
	impl.Dscal(n, da, dx, incx)
}

// dnrm2 computes ‖x‖₂.
func dnrm2(n int, x []float64, incx int) float64 {
	if n < 1 || incx < 1 {
		return zero
	}
	return impl.Dnrm2(n, x, incx)
}

// dzero fills dx with zero.
func dzero(dx []float64) {
	clear(dx)
}
