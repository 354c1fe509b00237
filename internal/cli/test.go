package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/fhegraph/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update bool   // regenerate golden files
	Filter string // circuit filter (glob pattern on the file name)
}

// CircuitResult holds the result of a single circuit run.
type CircuitResult struct {
	Name   string   `json:"name"`
	File   string   `json:"file"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Circuits []CircuitResult `json:"circuits"`
	Passed   int             `json:"passed"`
	Failed   int             `json:"failed"`
	Total    int             `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <circuits-dir>",
		Short: "Run circuit descriptions and their assertions",
		Long: `Compile every circuit description under a directory and check its
assertions. When golden/<name>.golden exists next to a circuit file, the
compiled program (without debug info) must match it byte for byte.

Exit codes:
  0 - All circuits passed
  1 - One or more circuits failed
  2 - Command error (invalid paths, etc.)

Examples:
  fhegraph test ./circuits
  fhegraph test ./circuits --filter "affine*"
  fhegraph test ./circuits --update
  fhegraph test ./circuits --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter circuits by glob pattern")

	return cmd
}

func runTests(opts *TestOptions, dir string, cmd *cobra.Command) error {
	files, err := findCircuitFiles(dir, opts.Filter)
	if err != nil {
		var nf *harness.CircuitNotFoundError
		if errors.As(err, &nf) {
			return NewExitError(ExitCommandError, fmt.Sprintf("circuits directory not found: %s", dir))
		}
		return WrapExitError(ExitCommandError, "failed to find circuits", err)
	}

	if len(files) == 0 {
		if opts.Format == "json" {
			return outputTestJSON(cmd, TestResult{Circuits: []CircuitResult{}})
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No circuits found.")
		return nil
	}

	result := TestResult{
		Circuits: make([]CircuitResult, 0, len(files)),
		Total:    len(files),
	}
	for _, file := range files {
		cr := runCircuit(file, opts)
		if opts.Format != "json" {
			printCircuitResult(cmd, cr, opts.Update)
		}
		result.Circuits = append(result.Circuits, cr)
		if cr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	if opts.Format == "json" {
		return outputTestJSON(cmd, result)
	}
	return outputTestText(cmd, result)
}

// findCircuitFiles returns circuit descriptions under dir whose base name
// matches filter.
func findCircuitFiles(dir string, filter string) ([]string, error) {
	paths, err := harness.Discover(dir)
	if err != nil {
		return nil, err
	}
	if filter == "" {
		return paths, nil
	}

	var files []string
	for _, path := range paths {
		base := filepath.Base(path)
		name := strings.TrimSuffix(base, filepath.Ext(base))
		matched, err := filepath.Match(filter, name)
		if err != nil {
			return nil, fmt.Errorf("invalid filter pattern: %w", err)
		}
		if matched {
			files = append(files, path)
		}
	}
	return files, nil
}

// runCircuit compiles one circuit file and checks assertions and golden file.
func runCircuit(file string, opts *TestOptions) CircuitResult {
	fail := func(name string, errs ...string) CircuitResult {
		return CircuitResult{Name: name, File: file, Pass: false, Errors: errs}
	}

	c, err := harness.LoadCircuit(file)
	if err != nil {
		return fail(filepath.Base(file), fmt.Sprintf("failed to load circuit: %v", err))
	}

	result, err := harness.Run(c, harness.WithLogger(opts.logger()))
	if err != nil {
		return fail(c.Name, fmt.Sprintf("compile failed: %v", err))
	}

	snapshot, err := harness.Snapshot(result.Program)
	if err != nil {
		return fail(c.Name, fmt.Sprintf("failed to snapshot program: %v", err))
	}

	goldenPath := goldenFilePath(file)
	if opts.Update {
		if err := updateGoldenFile(goldenPath, snapshot); err != nil {
			return fail(c.Name, fmt.Sprintf("failed to update golden file: %v", err))
		}
	} else {
		golden, err := os.ReadFile(goldenPath)
		switch {
		case os.IsNotExist(err):
			// No golden file: assertions only.
		case err != nil:
			return fail(c.Name, fmt.Sprintf("failed to read golden file: %v", err))
		case !bytes.Equal(bytes.TrimSpace(golden), snapshot):
			result.AddError("program does not match golden file (run with --update to regenerate)")
		}
	}

	return CircuitResult{
		Name:   c.Name,
		File:   file,
		Pass:   result.Pass,
		Errors: result.Errors,
	}
}

// goldenFilePath returns the path to the golden file for a circuit.
func goldenFilePath(circuitFile string) string {
	dir := filepath.Dir(circuitFile)
	base := filepath.Base(circuitFile)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, "golden", name+".golden")
}

func updateGoldenFile(path string, snapshot []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	if err := os.WriteFile(path, snapshot, 0o644); err != nil {
		return fmt.Errorf("failed to write golden file: %w", err)
	}
	return nil
}

func printCircuitResult(cmd *cobra.Command, cr CircuitResult, updated bool) {
	w := cmd.OutOrStdout()
	if !cr.Pass {
		fmt.Fprintf(w, "✗ %s\n", cr.Name)
		for _, e := range cr.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
		return
	}
	if updated {
		fmt.Fprintf(w, "✓ %s (golden updated)\n", cr.Name)
		return
	}
	fmt.Fprintf(w, "✓ %s\n", cr.Name)
}

// outputTestJSON outputs the test result as JSON.
func outputTestJSON(cmd *cobra.Command, result TestResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
	}
	if result.Failed > 0 {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_TEST_FAILED",
			Message: fmt.Sprintf("%d circuit(s) failed", result.Failed),
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d circuit(s) failed", result.Failed))
	}
	return nil
}

// outputTestText prints the summary line after the per-circuit results.
func outputTestText(cmd *cobra.Command, result TestResult) error {
	w := cmd.OutOrStdout()
	fmt.Fprintln(w)
	if result.Failed > 0 {
		fmt.Fprintf(w, "FAIL: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
		return NewExitError(ExitFailure, fmt.Sprintf("%d circuit(s) failed", result.Failed))
	}
	fmt.Fprintf(w, "PASS: %d passed, %d total\n", result.Passed, result.Total)
	return nil
}
