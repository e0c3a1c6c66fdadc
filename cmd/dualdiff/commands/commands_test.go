// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package commands

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd := newRootCommand("test")
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestDerivePower(t *testing.T) {
	out, err := run(t, "derive", "pow", "--power", "5", "--at", "1", "--order", "5", "-o", "json")
	require.NoError(t, err)

	var res deriveResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "pow", res.Function)
	assert.Equal(t, 1.0, res.Value)
	assert.InDeltaSlice(t, []float64{5, 20, 60, 120, 120}, res.Derivatives, 1e-9)
}

func TestDeriveText(t *testing.T) {
	out, err := run(t, "derive", "exp", "--at", "0", "--order", "3")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 5)
	assert.Contains(t, lines[0], "ORDER")
	assert.Contains(t, lines[0], "exp(0)")
	for _, line := range lines[1:] {
		assert.True(t, strings.HasSuffix(line, " 1"), line)
	}
}

func TestDeriveErrors(t *testing.T) {
	_, err := run(t, "derive", "gamma", "--at", "1")
	assert.ErrorContains(t, err, `unknown function "gamma"`)

	_, err = run(t, "derive", "log", "--at", "-1")
	assert.Error(t, err)

	_, err = run(t, "derive", "sin", "-o", "xml")
	assert.ErrorContains(t, err, "unsupported output format")
}

func TestDemo(t *testing.T) {
	out, err := run(t, "demo", "-o", "yaml")
	require.NoError(t, err)

	var res demoResult
	require.NoError(t, yaml.Unmarshal([]byte(out), &res))
	require.Len(t, res.Results, 2)

	product, sum := res.Results[0], res.Results[1]
	assert.Equal(t, 15.0, product.Value)
	assert.Equal(t, map[string]float64{"x": 3, "y": 5}, product.Gradient)
	assert.InDelta(t, 5.1411200080598672, sum.Value, 1e-12)
	assert.InDelta(t, 1, sum.Gradient["x"], 1e-12)
	assert.InDelta(t, -0.98999249660044542, sum.Gradient["y"], 1e-12)
}

func TestNewton(t *testing.T) {
	out, err := run(t, "newton", "--path", "-o", "json")
	require.NoError(t, err)

	var res newtonResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, res.OK)
	assert.Equal(t, "step converged", res.Status)
	assert.InDeltaSlice(t, []float64{1, 1}, res.X, 1e-8)
	assert.Len(t, res.Path, res.Iterations+1)
	assert.Equal(t, []float64{2, 1}, res.Path[0])

	_, err = run(t, "newton", "--start", "1,2,3")
	assert.ErrorContains(t, err, "needs 2 coordinates")

	_, err = run(t, "newton", "--start", "a,b")
	assert.ErrorContains(t, err, "invalid point")
}

func TestMinimize(t *testing.T) {
	for _, method := range []string{"bfgs", "lbfgs", "newton"} {
		t.Run(method, func(t *testing.T) {
			out, err := run(t, "minimize", "--method", method, "-o", "json")
			require.NoError(t, err)

			var res minimizeResult
			require.NoError(t, json.Unmarshal([]byte(out), &res))
			assert.True(t, res.OK)
			assert.Equal(t, method, res.Method)
			assert.InDeltaSlice(t, []float64{1, 1}, res.X, 1e-4)
		})
	}

	_, err := run(t, "minimize", "--method", "simplex")
	assert.Error(t, err)
}

func TestMinimizeConstrained(t *testing.T) {
	out, err := run(t, "minimize", "--method", "slsqp", "--radius", "1", "--start", "0.1,0.1", "-o", "json")
	require.NoError(t, err)

	var res minimizeResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, res.OK)
	assert.Equal(t, "slsqp", res.Method)
	assert.InDeltaSlice(t, []float64{0.78641515, 0.61769832}, res.X, 1e-6)
	assert.InDelta(t, 0.0456748087191604, res.F, 1e-8)

	// unconstrained slsqp reaches the Rosenbrock minimum
	out, err = run(t, "minimize", "--method", "slsqp", "-o", "json")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.InDeltaSlice(t, []float64{1, 1}, res.X, 1e-3)

	_, err = run(t, "minimize", "--radius", "1")
	assert.ErrorContains(t, err, "does not support constraints")

	_, err = run(t, "minimize", "--method", "slsqp", "--radius", "-1")
	assert.ErrorContains(t, err, "radius must not be negative")
}

func TestCheck(t *testing.T) {
	out, err := run(t, "check", "-o", "json")
	require.NoError(t, err)

	var res checkResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "central", res.Method)

	names := map[string]bool{}
	for _, c := range res.Checks {
		names[c.Name] = true
		assert.True(t, c.OK, c.Name)
	}
	for _, name := range []string{"sin", "atan", "polar", "mixed", "rosenbrock"} {
		assert.True(t, names[name], name)
	}
	// outside the domain at 0.5
	assert.False(t, names["acosh"])
	assert.False(t, names["asec"])
}
