// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dual_test

import (
	"fmt"

	"github.com/curioloop/autodiff/dual"
	"gonum.org/v1/gonum/mat"
)

func Example() {
	vars := dual.NewRegistry()
	x := dual.Must(vars.Seed("x", 5))
	y := dual.Must(vars.Seed("y", 3))

	f1 := dual.Must(x.Mul(y))
	fmt.Println(f1)

	f2 := dual.Must(x.Add(dual.Must(dual.Sin(y))))
	dx, _ := f2.DerivativeOf("x")
	dy, _ := f2.DerivativeOf("y")
	fmt.Printf("%.4f %.4f %.4f\n", f2.Value(), dx, dy)

	// Output:
	// Scalar(value: 15, derivatives: [3 5])
	// 5.1411 1.0000 -0.9900
}

func ExampleScalar_HigherDerivative() {
	x := dual.Must(dual.Seed(1, 0, 1, 5))
	f := dual.Must(x.Pow(dual.Const(5)))
	for k := 1; k <= 5; k++ {
		d, _ := f.HigherDerivative(k)
		fmt.Print(d, " ")
	}
	fmt.Println()

	// Output:
	// 5 20 60 120 120
}

func ExampleJacobian() {
	x, _ := dual.NewVector([]float64{3, 1})
	f, _ := x.Mul(dual.Const(2))
	jac, _ := dual.Jacobian(f)
	fmt.Printf("%v\n", mat.Formatted(jac))

	// Output:
	// ⎡2  0⎤
	// ⎣0  2⎦
}
