package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"

	"github.com/markkurossi/tabulate"
	"github.com/spf13/cobra"

	"github.com/roach88/fhegraph/internal/compiler"
	"github.com/roach88/fhegraph/internal/harness"
	"github.com/roach88/fhegraph/internal/ir"
	"github.com/roach88/fhegraph/internal/params"
	"github.com/roach88/fhegraph/internal/store"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Params   string // preset name or parameter file overriding the circuit's
	Output   string // program JSON output path
	Database string // SQLite database to persist the program into
	NoDebug  bool
}

// CompileResult is the JSON payload of a successful compile.
type CompileResult struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	DataType    string         `json:"data_type"`
	ContentHash string         `json:"content_hash"`
	Stats       compiler.Stats `json:"stats"`
	Output      string         `json:"output,omitempty"`
	Database    string         `json:"database,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <circuit.yaml>",
		Short: "Compile a circuit description to a program",
		Long: `Compile a YAML circuit description into a program graph.

The program is written as canonical JSON with --output and stored in a
SQLite database with --db. Each compile assigns a fresh UUIDv7 program id;
the content hash only depends on the parameters, data type and graph.

Examples:
  fhegraph compile circuits/affine.yaml
  fhegraph compile circuits/affine.yaml --params smart-fhe-3 -o affine.json
  fhegraph compile circuits/affine.yaml --db ./fhegraph.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Params, "params", "", "preset name or parameter file (overrides the circuit)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write program JSON to this path")
	cmd.Flags().StringVar(&opts.Database, "db", "", "persist the program into this SQLite database")
	cmd.Flags().BoolVar(&opts.NoDebug, "no-debug", false, "do not record stack traces")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	logger := opts.logger()

	c, err := harness.LoadCircuit(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return formatter.Fail(ErrCodeNotFound, fmt.Sprintf("circuit file not found: %s", path), nil)
		}
		return formatter.Fail(ErrCodeLoadFailed, err.Error(), nil)
	}
	formatter.VerboseLog("Loaded circuit %s from %s", c.Name, path)

	hopts := []harness.Option{
		harness.WithIDGenerator(compiler.UUIDv7Generator{}),
		harness.WithDebugInfo(!opts.NoDebug),
		harness.WithLogger(logger),
	}
	if opts.Params != "" {
		p, name, err := params.Resolve(opts.Params)
		if err != nil {
			return formatter.Fail(ErrCodeLoadFailed, err.Error(), nil)
		}
		formatter.VerboseLog("Using parameters %s", params.Describe(name, p))
		hopts = append(hopts, harness.WithParams(p))
	}

	prog, _, err := harness.Compile(c, hopts...)
	if err != nil {
		return outputCompileFailure(formatter, err)
	}

	if opts.Output != "" {
		if err := writeProgramFile(prog, opts.Output); err != nil {
			return formatter.Fail(ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
		}
	}

	if opts.Database != "" {
		if err := persistProgram(cmd.Context(), opts.Database, prog); err != nil {
			return formatter.Fail(ErrCodeStoreFailed, err.Error(), nil)
		}
		logger.Info("program stored", "id", prog.ID, "db", opts.Database)
	}

	result := CompileResult{
		ID:          prog.ID,
		Name:        prog.Name,
		DataType:    prog.DataType,
		ContentHash: prog.ContentHash,
		Stats:       compiler.ComputeStats(prog),
		Output:      opts.Output,
		Database:    opts.Database,
	}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	return outputCompileText(formatter.Writer, result)
}

// outputCompileFailure reports every validation error of a CompileError.
func outputCompileFailure(formatter *OutputFormatter, err error) error {
	var ce *compiler.CompileError
	if errors.As(err, &ce) && len(ce.Errors) > 0 {
		messages := make([]string, len(ce.Errors))
		for i, e := range ce.Errors {
			messages[i] = e.Error()
		}
		if formatter.Format != "json" {
			fmt.Fprintf(formatter.Writer, "✗ Failed to compile %s\n", ce.Program)
			for _, m := range messages {
				fmt.Fprintf(formatter.Writer, "  %s\n", m)
			}
			return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", ErrCodeCompile, err))
		}
		return formatter.Fail(ErrCodeCompile, err.Error(), messages)
	}
	return formatter.Fail(ErrCodeCompile, err.Error(), nil)
}

func writeProgramFile(prog *ir.Program, path string) error {
	data, err := ir.MarshalCanonical(prog)
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func persistProgram(ctx context.Context, path string, prog *ir.Program) error {
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := store.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer st.Close()

	if err := st.WriteProgram(ctx, prog); err != nil {
		return fmt.Errorf("failed to store program: %w", err)
	}
	return nil
}

func outputCompileText(w io.Writer, r CompileResult) error {
	fmt.Fprintf(w, "✓ Compiled %s (%s): %d node(s), %d edge(s), depth %d\n",
		r.Name, r.DataType, r.Stats.Nodes, r.Stats.Edges, r.Stats.MultiplicativeDepth)
	fmt.Fprintf(w, "  id:   %s\n", r.ID)
	fmt.Fprintf(w, "  hash: %s\n\n", r.ContentHash)

	opCountTable(r.Stats.OpCounts).Print(w)

	if r.Output != "" {
		fmt.Fprintf(w, "\nWrote program to %s\n", r.Output)
	}
	if r.Database != "" {
		fmt.Fprintf(w, "Stored program in %s\n", r.Database)
	}
	return nil
}

// opCountTable renders one row per operation, sorted by name.
func opCountTable(counts map[ir.Operation]int) *tabulate.Tabulate {
	ops := make([]string, 0, len(counts))
	for op := range counts {
		ops = append(ops, string(op))
	}
	sort.Strings(ops)

	tab := tabulate.New(tabulate.UnicodeLight)
	tab.Header("Operation").SetAlign(tabulate.ML)
	tab.Header("Count").SetAlign(tabulate.MR)
	for _, op := range ops {
		row := tab.Row()
		row.Column(op)
		row.Column(fmt.Sprintf("%d", counts[ir.Operation(op)]))
	}
	return tab
}
