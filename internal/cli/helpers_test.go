package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

const addThenMultiplyYAML = `name: add_then_multiply
description: (a + b) * c
params: smart-fhe-3
type: signed
inputs: [a, b, c]
steps:
  - let: t
    op: add
    args: [a, b]
  - let: r
    op: mul
    args: [t, c]
outputs: [r]
assertions:
  - type: node_count
    count: 6
  - type: depth
    count: 1
`

const failingYAML = `name: wrong_count
type: unsigned
inputs: [x]
steps:
  - let: y
    op: neg
    args: [x]
outputs: [y]
assertions:
  - type: node_count
    count: 99
`

const smallParamsYAML = `lattice_dimension: 32
coeff_modulus: [65537]
plain_modulus: 257
`

// writeFile writes content to dir/name, creating dir, and returns the path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// execute runs cmd with args and returns its stdout.
func execute(cmd *cobra.Command, args ...string) (string, error) {
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// compileIntoDB compiles add_then_multiply into a fresh database and returns
// the database path and the program id.
func compileIntoDB(t *testing.T, extraArgs ...string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	circuit := writeFile(t, dir, "add_then_multiply.yaml", addThenMultiplyYAML)
	dbPath := filepath.Join(dir, "fhegraph.db")

	args := append([]string{circuit, "--db", dbPath}, extraArgs...)
	out, err := execute(NewCompileCommand(&RootOptions{Format: "json"}), args...)
	require.NoError(t, err)

	var resp struct {
		Status string        `json:"status"`
		Data   CompileResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Equal(t, "ok", resp.Status)
	require.NotEmpty(t, resp.Data.ID)
	return dbPath, resp.Data.ID
}
