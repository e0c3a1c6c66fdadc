// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dual

// Input is the set of values accepted by the elementary functions.
// A *Scalar or *Vector is differentiated, a Const or Consts is simply evaluated.
type Input interface {
	*Scalar | *Vector | Const | Consts
}

func apply[T Input](name string, scalar func(*Scalar) (*Scalar, error), raw func(float64) (float64, error), x T) (T, error) {
	var (
		r   any
		err error
	)
	switch v := any(x).(type) {
	case *Scalar:
		r, err = scalar(v)
	case *Vector:
		r, err = v.Map(scalar)
	case Const:
		var u float64
		u, err = raw(float64(v))
		r = Const(u)
	case Consts:
		out := make(Consts, len(v))
		for i, u := range v {
			if out[i], err = raw(u); err != nil {
				break
			}
		}
		r = out
	}
	if err != nil {
		var zero T
		return zero, reop(name, err)
	}
	return r.(T), nil
}

func unary[T Input](g *elementary, x T) (T, error) {
	return apply(g.name, g.scalar, g.raw, x)
}

// Must returns x and panics if err is non-nil.
// It simplifies building expressions from known-good inputs.
func Must[T Input](x T, err error) T {
	if err != nil {
		panic(err)
	}
	return x
}

// Pow returns xᵖ for a constant exponent.
func Pow[T Input](x T, p float64) (T, error) {
	return apply("pow", func(s *Scalar) (*Scalar, error) { return powConst(s, p) }, power(p).raw, x)
}

// Exp returns eˣ.
func Exp[T Input](x T) (T, error) { return unary(expF, x) }

// Log returns the natural logarithm of x, defined for x > 0.
func Log[T Input](x T) (T, error) { return unary(logF, x) }

// Sqrt returns √x, differentiable for x > 0.
func Sqrt[T Input](x T) (T, error) { return unary(sqrtF, x) }

// Abs returns |x|, differentiable for x ≠ 0.
func Abs[T Input](x T) (T, error) { return unary(absF, x) }

func Sin[T Input](x T) (T, error) { return unary(sinF, x) }
func Cos[T Input](x T) (T, error) { return unary(cosF, x) }
func Tan[T Input](x T) (T, error) { return unary(tanF, x) }
func Sec[T Input](x T) (T, error) { return unary(secF, x) }
func Csc[T Input](x T) (T, error) { return unary(cscF, x) }
func Cot[T Input](x T) (T, error) { return unary(cotF, x) }

func Sinh[T Input](x T) (T, error) { return unary(sinhF, x) }
func Cosh[T Input](x T) (T, error) { return unary(coshF, x) }
func Tanh[T Input](x T) (T, error) { return unary(tanhF, x) }
func Sech[T Input](x T) (T, error) { return unary(sechF, x) }
func Csch[T Input](x T) (T, error) { return unary(cschF, x) }
func Coth[T Input](x T) (T, error) { return unary(cothF, x) }

// Asin returns the arcsine of x ∈ [-1, 1], differentiable on (-1, 1).
func Asin[T Input](x T) (T, error) { return unary(asinF, x) }

// Acos returns the arccosine of x ∈ [-1, 1], differentiable on (-1, 1).
func Acos[T Input](x T) (T, error) { return unary(acosF, x) }

func Atan[T Input](x T) (T, error) { return unary(atanF, x) }

// Acot returns the arccotangent of x, defined as atan(1/x).
func Acot[T Input](x T) (T, error) { return unary(acotF, x) }

// Asec returns the arcsecant of |x| ≥ 1, differentiable for |x| > 1.
func Asec[T Input](x T) (T, error) { return unary(asecF, x) }

// Acsc returns the arccosecant of |x| ≥ 1, differentiable for |x| > 1.
func Acsc[T Input](x T) (T, error) { return unary(acscF, x) }

func Asinh[T Input](x T) (T, error) { return unary(asinhF, x) }

// Acosh returns the inverse hyperbolic cosine of x ≥ 1, differentiable for x > 1.
func Acosh[T Input](x T) (T, error) { return unary(acoshF, x) }

// Atanh returns the inverse hyperbolic tangent of x ∈ (-1, 1).
func Atanh[T Input](x T) (T, error) { return unary(atanhF, x) }

// Acoth returns the inverse hyperbolic cotangent of |x| > 1.
func Acoth[T Input](x T) (T, error) { return unary(acothF, x) }

// Asech returns the inverse hyperbolic secant of x ∈ (0, 1], differentiable on (0, 1).
func Asech[T Input](x T) (T, error) { return unary(asechF, x) }

// Acsch returns the inverse hyperbolic cosecant of x ≠ 0.
func Acsch[T Input](x T) (T, error) { return unary(acschF, x) }
