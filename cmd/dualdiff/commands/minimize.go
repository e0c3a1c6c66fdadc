// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/curioloop/autodiff/dual"
	"github.com/curioloop/autodiff/optim"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type minimizeResult struct {
	Method      string    `json:"method" yaml:"method"`
	OK          bool      `json:"ok" yaml:"ok"`
	Status      string    `json:"status" yaml:"status"`
	Iterations  int       `json:"iterations" yaml:"iterations"`
	Evaluations int       `json:"evaluations" yaml:"evaluations"`
	X           []float64 `json:"x" yaml:"x"`
	F           float64   `json:"f" yaml:"f"`
}

func (r minimizeResult) rows() ([]string, [][]string) {
	return []string{"METHOD", "STATUS", "ITER", "EVAL", "X", "F"}, [][]string{{
		r.Method, r.Status, strconv.Itoa(r.Iterations), strconv.Itoa(r.Evaluations), nums(r.X), num(r.F),
	}}
}

func newMinimizeCommand(format *string) *cobra.Command {
	var (
		method  string
		start   string
		gtol    float64
		maxIter int
		radius  float64
	)

	cmd := &cobra.Command{
		Use:   "minimize",
		Short: "Minimize the Rosenbrock function with a gonum optimizer",
		Long: `Minimize 100(y - x²)² + (1 - x)² with one of the gonum optimize methods.

Gradients and Hessians are supplied by dual evaluation instead of finite
differences. A positive --radius keeps the point inside the disk x² + y² ≤ r²
and needs the slsqp method. Methods: ` + strings.Join(optim.Methods, ", "),
		Example: `  dualdiff minimize --method newton --start -1.2,1
  dualdiff minimize --method slsqp --radius 1 --start 0.1,0.1`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			x0, err := parsePoint(start)
			if err != nil {
				return err
			}
			if len(x0) != 2 {
				return fmt.Errorf("start point needs 2 coordinates, got %d", len(x0))
			}

			p := optim.Problem{
				N:         2,
				Objective: rosenbrock,
				Method:    method,
				Stop:      optim.Termination{GradientThreshold: gtol, MaxIterations: maxIter},
			}
			if radius < 0 {
				return fmt.Errorf("radius must not be negative, got %v", radius)
			}
			if radius > 0 {
				p.NeqCons = []optim.Objective{insideDisk(radius)}
			}
			logger := log.Logger.With().Str("cmd", "minimize").Logger()
			o, err := p.New(&logger)
			if err != nil {
				return err
			}
			r, err := o.Minimize(x0)
			if err != nil {
				return err
			}

			return render(cmd.OutOrStdout(), *format, minimizeResult{
				Method:      o.Method,
				OK:          r.OK,
				Status:      r.Status.String(),
				Iterations:  r.NumIter,
				Evaluations: r.NumEval,
				X:           r.X,
				F:           r.F,
			})
		},
	}

	cmd.Flags().StringVar(&method, "method", optim.BFGS, "optimization method")
	cmd.Flags().StringVar(&start, "start", "-1.2,1", "starting point x,y")
	cmd.Flags().Float64Var(&gtol, "gtol", 1e-8, "gradient infinity norm threshold")
	cmd.Flags().IntVar(&maxIter, "max-iter", 0, "major iteration limit, 0 for the method default")
	cmd.Flags().Float64Var(&radius, "radius", 0, "constrain x,y to the disk of this radius, 0 for none")

	return cmd
}

// insideDisk is r² - x² - y², non-negative inside the disk of radius r.
func insideDisk(r float64) optim.Objective {
	return func(v *dual.Vector) (*dual.Scalar, error) {
		x, y := v.At(0), v.At(1)
		s, err := dual.Must(x.Mul(x)).Add(dual.Must(y.Mul(y)))
		if err != nil {
			return nil, err
		}
		return s.RSub(r * r), nil
	}
}
