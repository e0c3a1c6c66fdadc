// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package commands

import (
	"github.com/curioloop/autodiff/dual"
	"github.com/spf13/cobra"
)

type demoRow struct {
	Expr     string             `json:"expr" yaml:"expr"`
	Value    float64            `json:"value" yaml:"value"`
	Gradient map[string]float64 `json:"gradient" yaml:"gradient"`
}

type demoResult struct {
	Variables map[string]float64 `json:"variables" yaml:"variables"`
	Results   []demoRow          `json:"results" yaml:"results"`
}

func (r demoResult) rows() ([]string, [][]string) {
	rows := make([][]string, len(r.Results))
	for i, d := range r.Results {
		rows[i] = []string{d.Expr, num(d.Value), num(d.Gradient["x"]), num(d.Gradient["y"])}
	}
	return []string{"EXPR", "VALUE", "D/DX", "D/DY"}, rows
}

func newDemoCommand(format *string) *cobra.Command {
	var x0, y0 float64

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Differentiate x·y and x + sin(y) with named variables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			vars := dual.NewRegistry()
			x, err := vars.Seed("x", x0)
			if err != nil {
				return err
			}
			y, err := vars.Seed("y", y0)
			if err != nil {
				return err
			}

			product, err := x.Mul(y)
			if err != nil {
				return err
			}
			sin, err := dual.Sin(y)
			if err != nil {
				return err
			}
			sum, err := x.Add(sin)
			if err != nil {
				return err
			}

			res := demoResult{Variables: map[string]float64{"x": x0, "y": y0}}
			for _, e := range []struct {
				expr string
				f    *dual.Scalar
			}{{"x*y", product}, {"x+sin(y)", sum}} {
				row := demoRow{Expr: e.expr, Value: e.f.Value(), Gradient: map[string]float64{}}
				for _, name := range vars.Names() {
					if row.Gradient[name], err = e.f.DerivativeOf(name); err != nil {
						return err
					}
				}
				res.Results = append(res.Results, row)
			}
			return render(cmd.OutOrStdout(), *format, res)
		},
	}

	cmd.Flags().Float64Var(&x0, "x", 5, "value of x")
	cmd.Flags().Float64Var(&y0, "y", 3, "value of y")

	return cmd
}
