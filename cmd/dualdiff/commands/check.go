// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package commands

import (
	"fmt"

	"github.com/curioloop/autodiff/dual"
	"github.com/curioloop/autodiff/numdiff"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type checkRow struct {
	Name      string    `json:"name" yaml:"name"`
	At        []float64 `json:"at" yaml:"at"`
	MaxAbsErr float64   `json:"max_abs_err" yaml:"max_abs_err"`
	MaxRelErr float64   `json:"max_rel_err" yaml:"max_rel_err"`
	OK        bool      `json:"ok" yaml:"ok"`
}

type checkResult struct {
	Method string     `json:"method" yaml:"method"`
	Checks []checkRow `json:"checks" yaml:"checks"`
}

func (r checkResult) rows() ([]string, [][]string) {
	rows := make([][]string, len(r.Checks))
	for i, c := range r.Checks {
		rows[i] = []string{c.Name, nums(c.At), num(c.MaxAbsErr), num(c.MaxRelErr), fmt.Sprint(c.OK)}
	}
	return []string{"FUNCTION", "AT", "MAX ABS ERR", "MAX REL ERR", "OK"}, rows
}

func newCheckCommand(format *string) *cobra.Command {
	var (
		forward bool
		at      float64
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Compare dual derivatives against finite differences",
		Long: `Compare dual derivatives against finite differences.

Every elementary function is checked at --at, followed by the Rosenbrock
gradient and the Jacobians of two vector functions. Functions whose domain
excludes --at are skipped. The command fails if any check disagrees.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := numdiff.Check{Method: numdiff.Central}
			if forward {
				c.Method = numdiff.Forward
			}

			res := checkResult{Method: c.Method.String()}
			add := func(name string, x0 []float64, report *numdiff.Report) {
				res.Checks = append(res.Checks, checkRow{
					Name: name, At: x0, OK: report.OK,
					MaxAbsErr: report.MaxAbsErr, MaxRelErr: report.MaxRelErr,
				})
			}

			for _, name := range elementaryNames() {
				f := elementary[name]
				report, err := c.Jacobian(func(x *dual.Vector) (*dual.Vector, error) { return x.Map(f) }, []float64{at})
				if err != nil {
					log.Debug().Err(err).Str("function", name).Msg("skipped")
					continue
				}
				add(name, []float64{at}, report)
			}

			for _, v := range []struct {
				name string
				f    numdiff.Function
				x0   []float64
			}{
				{"polar", polar, []float64{2, 0.3}},
				{"mixed", mixed, []float64{1, 2}},
			} {
				report, err := c.Jacobian(v.f, v.x0)
				if err != nil {
					return fmt.Errorf("%s: %w", v.name, err)
				}
				add(v.name, v.x0, report)
			}

			report, err := c.Gradient(rosenbrock, []float64{-1.2, 1})
			if err != nil {
				return fmt.Errorf("rosenbrock: %w", err)
			}
			add("rosenbrock", []float64{-1.2, 1}, report)

			if err := render(cmd.OutOrStdout(), *format, res); err != nil {
				return err
			}
			for _, row := range res.Checks {
				if !row.OK {
					return fmt.Errorf("derivative check failed for %s", row.Name)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&forward, "forward", false, "use forward instead of central differences")
	cmd.Flags().Float64Var(&at, "at", 0.5, "evaluation point of the elementary functions")

	return cmd
}
