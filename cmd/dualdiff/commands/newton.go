// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package commands

import (
	"fmt"
	"strconv"

	"github.com/curioloop/autodiff/newton"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type newtonResult struct {
	OK         bool        `json:"ok" yaml:"ok"`
	Status     string      `json:"status" yaml:"status"`
	Iterations int         `json:"iterations" yaml:"iterations"`
	X          []float64   `json:"x" yaml:"x"`
	F          float64     `json:"f" yaml:"f"`
	Path       [][]float64 `json:"path,omitempty" yaml:"path,omitempty"`
}

func (r newtonResult) rows() ([]string, [][]string) {
	rows := make([][]string, 0, len(r.Path)+1)
	for k, x := range r.Path {
		rows = append(rows, []string{strconv.Itoa(k), nums(x)})
	}
	rows = append(rows, []string{r.Status, nums(r.X)})
	return []string{"ITER", "X"}, rows
}

func newNewtonCommand(format *string) *cobra.Command {
	var (
		start   string
		tol     float64
		maxIter int
		path    bool
	)

	cmd := &cobra.Command{
		Use:   "newton",
		Short: "Minimize the Rosenbrock function with Newton's method",
		Long: `Minimize 100(y - x²)² + (1 - x)² with Newton's method.

Each step solves H·s = -g where the gradient g and Hessian H come from
a single dual evaluation. The iteration stops once ‖s‖ ≤ --tol.`,
		Example: `  dualdiff newton --start 2,1 --path`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			x0, err := parsePoint(start)
			if err != nil {
				return err
			}
			if len(x0) != 2 {
				return fmt.Errorf("start point needs 2 coordinates, got %d", len(x0))
			}

			p := newton.Problem{
				N:         2,
				Objective: rosenbrock,
				KeepPath:  path,
				Stop:      newton.Termination{MaxIterations: maxIter, StepTolerance: tol},
			}
			logger := log.Logger.With().Str("cmd", "newton").Logger()
			solver, err := p.New(&logger)
			if err != nil {
				return err
			}
			r, err := solver.Minimize(x0)
			if err != nil {
				return err
			}

			return render(cmd.OutOrStdout(), *format, newtonResult{
				OK:         r.OK,
				Status:     r.Status.String(),
				Iterations: r.NumIter,
				X:          r.X,
				F:          r.F[0],
				Path:       r.Path,
			})
		},
	}

	cmd.Flags().StringVar(&start, "start", "2,1", "starting point x,y")
	cmd.Flags().Float64Var(&tol, "tol", 1e-8, "step norm tolerance")
	cmd.Flags().IntVar(&maxIter, "max-iter", 100, "iteration limit")
	cmd.Flags().BoolVar(&path, "path", false, "print every iterate")

	return cmd
}
