// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/curioloop/autodiff/dual"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type deriveResult struct {
	Function    string    `json:"function" yaml:"function"`
	At          float64   `json:"at" yaml:"at"`
	Value       float64   `json:"value" yaml:"value"`
	Derivatives []float64 `json:"derivatives" yaml:"derivatives"`
}

func (r deriveResult) rows() ([]string, [][]string) {
	rows := [][]string{{"0", num(r.Value)}}
	for k, d := range r.Derivatives {
		rows = append(rows, []string{strconv.Itoa(k + 1), num(d)})
	}
	return []string{"ORDER", r.Function + "(" + num(r.At) + ")"}, rows
}

func newDeriveCommand(format *string) *cobra.Command {
	var (
		at    float64
		order int
		power float64
	)

	cmd := &cobra.Command{
		Use:   "derive <function>",
		Short: "Evaluate an elementary function and its derivatives",
		Long: `Evaluate an elementary function and its derivatives up to the given order.

Higher derivatives are composed with Faà di Bruno's formula from the
derivative sequence of each elementary function. Use "pow" with --power
for xᵖ.

Functions: ` + strings.Join(elementaryNames(), ", ") + `, pow`,
		Example: `  # fifth derivative of x⁵ at 1
  dualdiff derive pow --power 5 --at 1 --order 5

  # Taylor coefficients of atan at 0.5
  dualdiff derive atan --at 0.5 --order 4 -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			f, ok := elementary[name]
			if name == "pow" {
				f, ok = func(s *dual.Scalar) (*dual.Scalar, error) { return dual.Pow(s, power) }, true
			}
			if !ok {
				return fmt.Errorf("unknown function %q", name)
			}

			x, err := dual.Seed(at, 0, 1, order)
			if err != nil {
				return err
			}
			y, err := f(x)
			if err != nil {
				return err
			}

			res := deriveResult{Function: name, At: at, Value: y.Value()}
			for k := 1; k <= order; k++ {
				d, err := y.HigherDerivative(k)
				if err != nil {
					return err
				}
				res.Derivatives = append(res.Derivatives, d)
			}
			log.Debug().Str("function", name).Float64("at", at).Int("order", order).Msg("derived")
			return render(cmd.OutOrStdout(), *format, res)
		},
	}

	cmd.Flags().Float64Var(&at, "at", 0, "evaluation point")
	cmd.Flags().IntVar(&order, "order", 2, "highest derivative order")
	cmd.Flags().Float64Var(&power, "power", 2, "exponent for pow")

	return cmd
}
