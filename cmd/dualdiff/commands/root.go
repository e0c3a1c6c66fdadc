// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package commands

import (
	"context"

	"github.com/spf13/cobra"
)

// Execute runs the root command.
func Execute(ctx context.Context, version string) error {
	return newRootCommand(version).ExecuteContext(ctx)
}

func newRootCommand(version string) *cobra.Command {
	var format string

	root := &cobra.Command{
		Use:   "dualdiff",
		Short: "Forward-mode automatic differentiation toolkit",
		Long: `dualdiff evaluates exact derivatives with dual numbers.

Commands:
  - derive   value and derivatives of an elementary function up to any order
  - demo     gradients of x·y and x + sin(y) tracked by variable name
  - newton   Newton's method on the Rosenbrock function
  - minimize gonum optimizers fed with dual gradients and Hessians
  - check    compare dual derivatives against finite differences`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return checkFormat(format)
		},
	}

	root.PersistentFlags().StringVarP(&format, "output", "o", "text", "output format: text, json or yaml")

	root.AddCommand(newDeriveCommand(&format))
	root.AddCommand(newDemoCommand(&format))
	root.AddCommand(newNewtonCommand(&format))
	root.AddCommand(newMinimizeCommand(&format))
	root.AddCommand(newCheckCommand(&format))

	return root
}
