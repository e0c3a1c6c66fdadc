// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

func checkFormat(format string) error {
	if err := validate.Var(format, "oneof=text json yaml"); err != nil {
		return fmt.Errorf("unsupported output format %q", format)
	}
	return nil
}

// table is implemented by results that have a text rendering.
type table interface {
	rows() (header []string, rows [][]string)
}

// render writes v in the selected format. Text output is an aligned table.
func render(w io.Writer, format string, v table) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	header, rows := v.rows()
	for _, row := range append([][]string{header}, rows...) {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

func num(v float64) string {
	return fmt.Sprintf("%.10g", v)
}

func nums(v []float64) string {
	s := make([]string, len(v))
	for i, x := range v {
		s[i] = num(x)
	}
	return "[" + strings.Join(s, " ") + "]"
}
