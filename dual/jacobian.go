// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dual

import "gonum.org/v1/gonum/mat"

// Jacobian stacks the gradients of the outputs into a matrix with one row per scalar output.
// Rows are zero padded to the largest number of variables among the outputs.
func Jacobian(outputs ...Number) (*mat.Dense, error) {
	var rows []*Scalar
	for i, o := range outputs {
		switch v := o.(type) {
		case *Scalar:
			if v != nil {
				rows = append(rows, v)
				continue
			}
		case *Vector:
			if v != nil {
				rows = append(rows, v.comps...)
				continue
			}
		}
		return nil, errorf("jacobian", ErrInvalidType, "output %d of type %T is not differentiable", i, o)
	}
	if len(rows) == 0 {
		return nil, errorf("jacobian", ErrInvalidConfiguration, "no output")
	}

	var n int
	for _, r := range rows {
		n = max(n, r.N())
	}
	jac := mat.NewDense(len(rows), n, nil)
	for i, r := range rows {
		der, _ := r.widen(n)
		jac.SetRow(i, der)
	}
	return jac, nil
}

// Hessian returns the matrix of second derivatives of a single scalar output.
func Hessian(output Number) (*mat.Dense, error) {
	switch v := output.(type) {
	case *Scalar:
		if v != nil {
			return v.Hessian(), nil
		}
	case *Vector:
		if v != nil && len(v.comps) == 1 {
			return v.comps[0].Hessian(), nil
		}
		if v != nil {
			return nil, errorf("hessian", ErrUnsupportedOperation, "vector with %d components", len(v.comps))
		}
	}
	return nil, errorf("hessian", ErrInvalidType, "output of type %T is not differentiable", output)
}
