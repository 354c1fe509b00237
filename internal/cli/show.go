package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/markkurossi/tabulate"
	"github.com/spf13/cobra"

	"github.com/roach88/fhegraph/internal/compiler"
	"github.com/roach88/fhegraph/internal/debuginfo"
	"github.com/roach88/fhegraph/internal/ir"
	"github.com/roach88/fhegraph/internal/store"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	Database string
	Program  string // optional; lists programs when empty
}

// ShowResult is the JSON payload of show --program.
type ShowResult struct {
	Program *ir.Program    `json:"program"`
	Stats   compiler.Stats `json:"stats"`
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show",
		Short: "List stored programs or show one program's graph",
		Long: `Without --program, list the programs stored in a database in the order
they were written. With --program, print the program's node table; each
node is annotated with the innermost recorded source location.

Examples:
  fhegraph show --db ./fhegraph.db
  fhegraph show --db ./fhegraph.db --program 0190f5c4-...
  fhegraph show --db ./fhegraph.db --program 0190f5c4-... --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Program, "program", "", "program id to show")

	return cmd
}

func runShow(opts *ShowOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	st, err := openExistingStore(opts.Database)
	if err != nil {
		return formatter.Fail(ErrCodeStoreFailed, err.Error(), nil)
	}
	defer st.Close()

	if opts.Program == "" {
		programs, err := st.ListPrograms(ctx)
		if err != nil {
			return formatter.Fail(ErrCodeStoreFailed, err.Error(), nil)
		}
		if formatter.Format == "json" {
			return formatter.Success(programs)
		}
		if len(programs) == 0 {
			fmt.Fprintln(formatter.Writer, "No programs stored.")
			return nil
		}
		programTable(programs).Print(formatter.Writer)
		return nil
	}

	prog, err := st.ReadProgram(ctx, opts.Program)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return formatter.Fail(ErrCodeNotFound, fmt.Sprintf("program not found: %s", opts.Program), nil)
		}
		return formatter.Fail(ErrCodeStoreFailed, err.Error(), nil)
	}

	stats := compiler.ComputeStats(prog)
	if formatter.Format == "json" {
		return formatter.Success(ShowResult{Program: prog, Stats: stats})
	}
	outputProgramText(formatter.Writer, prog, stats)
	return nil
}

// openExistingStore refuses to create a database as a side effect of a
// read-only command.
func openExistingStore(path string) (*store.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("database not found: %s", path)
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return st, nil
}

func programTable(programs []store.ProgramSummary) *tabulate.Tabulate {
	tab := tabulate.New(tabulate.UnicodeLight)
	tab.Header("Seq").SetAlign(tabulate.MR)
	tab.Header("ID").SetAlign(tabulate.ML)
	tab.Header("Name").SetAlign(tabulate.ML)
	tab.Header("Type").SetAlign(tabulate.ML)
	tab.Header("Nodes").SetAlign(tabulate.MR)
	tab.Header("Hash").SetAlign(tabulate.ML)
	for _, p := range programs {
		row := tab.Row()
		row.Column(fmt.Sprintf("%d", p.Seq))
		row.Column(p.ID)
		row.Column(p.Name)
		row.Column(p.DataType)
		row.Column(fmt.Sprintf("%d", p.Nodes))
		row.Column(shortHash(p.ContentHash))
	}
	return tab
}

func outputProgramText(w io.Writer, prog *ir.Program, stats compiler.Stats) {
	fmt.Fprintf(w, "%s (%s) %s\n", prog.Name, prog.DataType, prog.ID)
	fmt.Fprintf(w, "  params: %s\n", prog.Params)
	fmt.Fprintf(w, "  hash:   %s\n", prog.ContentHash)
	fmt.Fprintf(w, "  %d node(s), %d edge(s), depth %d, %d trace(s)\n",
		stats.Nodes, stats.Edges, stats.MultiplicativeDepth, stats.Traces)
	fmt.Fprintf(w, "  inputs %v, outputs %v\n\n", prog.Inputs(), prog.Outputs())

	var lookup *debuginfo.StackFrameLookup
	if prog.Debug != nil {
		lookup = debuginfo.FromDebugInfo(*prog.Debug)
	}

	tab := tabulate.New(tabulate.UnicodeLight)
	tab.Header("Node").SetAlign(tabulate.MR)
	tab.Header("Operation").SetAlign(tabulate.ML)
	tab.Header("Inputs").SetAlign(tabulate.ML)
	tab.Header("Literal").SetAlign(tabulate.ML)
	tab.Header("Location").SetAlign(tabulate.ML)
	for _, n := range prog.Graph.Nodes {
		row := tab.Row()
		row.Column(fmt.Sprintf("n%d", n.ID))
		row.Column(string(n.Operation))
		row.Column(fmt.Sprintf("%v", n.Inputs))
		row.Column(literalSummary(n.Literal))
		row.Column(nodeLocation(lookup, n.ID))
	}
	tab.Print(w)
}

func literalSummary(lit *ir.Plaintext) string {
	if lit == nil {
		return ""
	}
	var coeffs []uint64
	if len(lit.Polynomials) > 0 {
		coeffs = lit.Polynomials[0].Coefficients
	}
	return fmt.Sprintf("%s%v", lit.DataType, coeffs)
}

// nodeLocation renders the innermost frame as file:line.
func nodeLocation(lookup *debuginfo.StackFrameLookup, id ir.NodeID) string {
	if lookup == nil {
		return ""
	}
	frames, err := lookup.NodeTrace(id)
	if err != nil || len(frames) == 0 {
		return ""
	}
	return fmt.Sprintf("%s:%d", filepath.Base(frames[0].CalleeFile), frames[0].CalleeLineno)
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
