// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package slsqp

import (
	"fmt"

	"github.com/curioloop/autodiff/dual"
)

const (
	zero = 0.0
	one  = 1.0
	two  = 2.0
	four = 4.0
	ten  = 10.0
	hun  = 100.0
	eps  = float64(7)/3 - float64(4)/3 - 1.
)

// Status reports the state of the optimizer and its least-squares kernels.
type Status int

const (
	// OK the iteration converged.
	OK Status = iota
	// HasSolution a least-squares sub-problem was solved.
	HasSolution
	// BadArgument an evaluation failed or a dimension is unacceptable.
	BadArgument
	// NNLSExceedMaxIter NNLS ran out of iterations.
	NNLSExceedMaxIter
	// ConsIncompatible the linearized inequality constraints admit no point.
	ConsIncompatible
	// LSISingularE matrix E is not of full rank in LSI.
	LSISingularE
	// LSEISingularC matrix C is not of full rank in LSEI.
	LSEISingularC
	// HFTIRankDefect rank-deficient equality constraint in HFTI.
	HFTIRankDefect
	// SearchNotDescent the line-search direction is not a descent direction.
	SearchNotDescent
	// SQPExceedMaxIter the SQP iteration ran out of iterations.
	SQPExceedMaxIter
)

const (
	// evalGrad asks for loc.g and loc.a
	evalGrad Status = -1
	// evalFunc asks for loc.f and loc.c
	evalFunc Status = -2
)

func (s Status) String() string {
	switch s {
	case OK:
		return "converged"
	case HasSolution:
		return "sub-problem solved"
	case BadArgument:
		return "bad argument"
	case NNLSExceedMaxIter:
		return "nnls exceed max iterations"
	case ConsIncompatible:
		return "incompatible constraints"
	case LSISingularE:
		return "singular matrix E in LSI"
	case LSEISingularC:
		return "singular matrix C in LSEI"
	case HFTIRankDefect:
		return "rank-deficient equality constraints"
	case SearchNotDescent:
		return "search direction not descent"
	case SQPExceedMaxIter:
		return "exceed max iterations"
	case evalGrad:
		return "evaluate gradients"
	case evalFunc:
		return "evaluate functions"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

type sqpSpec struct {
	// the number of variables
	n int
	// the total number of constraints
	m int
	// the number of equality constraints
	meq int
	Problem
}

type sqpLoc struct {
	f float64
	x []float64 // n
	c []float64 // 𝚖𝚊𝚡(1,m)
	g []float64 // n+1
	a []float64 // 𝚖𝚊𝚡(1,m) × (n+1)

	// dual values of the last evalFunc, reused by evalGrad at the same x
	at   []float64
	obj  *dual.Scalar
	cons []*dual.Scalar
	// number of dual evaluations
	eval int
	// first evaluation failure
	err error
}

type sqpCtx struct {
	// solution accuracy for convergence.
	acc float64
	// relaxed tolerance for convergence.
	tol float64
	// line-search initial value of objective function.
	f0 float64
	// line-search initial value of merit function.
	t0 float64
	// line-search step length.
	alpha float64
	// line-search counter.
	line int
	// iteration counter.
	iter int
	// BFGS reset counter.
	reset int
	// SQP problem inconsistent state.
	bad bool
	// the initial location.
	x0 []float64 // n
	// the multipliers associated with the general constraints.
	mu []float64 // m
	// the multipliers associated with all constraints (including bounds).
	r []float64 // 𝚖𝚊𝚡(1,m) + n + n
	// the cholesky factor 𝐋𝐃𝐋ᵀ of the approximate hessian 𝐁 of the lagrangian column-wise dense
	// as strict lower triangular 𝐋 with 𝐃 in its diagonal elements.
	l []float64 // ½n×(n+1)+1
	s []float64 // n + 1
	u []float64 // n + 1
	v []float64 // n + 1
	// working space
	w  []float64
	jw []int
	fw findWork
}
