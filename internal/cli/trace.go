package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/fhegraph/internal/ir"
	"github.com/roach88/fhegraph/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Program  string
	Node     int
}

// TraceResult holds the stack trace of one node.
type TraceResult struct {
	Program   string          `json:"program"`
	Node      ir.NodeID       `json:"node"`
	Operation ir.Operation    `json:"op"`
	Frames    []ir.StackFrame `json:"frames"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show the stack trace that created a node",
		Long: `Show the call stack recorded when a node of a stored program was
created, innermost frame first.

Programs compiled with --no-debug carry no traces.

Examples:
  fhegraph trace --db ./fhegraph.db --program 0190f5c4-... --node 3
  fhegraph trace --db ./fhegraph.db --program 0190f5c4-... --node 3 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Program, "program", "", "program id (required)")
	_ = cmd.MarkFlagRequired("program")
	cmd.Flags().IntVar(&opts.Node, "node", -1, "node id (required)")
	_ = cmd.MarkFlagRequired("node")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	if opts.Node < 0 {
		return formatter.Fail(ErrCodeInvalidInput, fmt.Sprintf("invalid node id %d", opts.Node), nil)
	}

	st, err := openExistingStore(opts.Database)
	if err != nil {
		return formatter.Fail(ErrCodeStoreFailed, err.Error(), nil)
	}
	defer st.Close()

	prog, err := st.ReadProgram(ctx, opts.Program)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return formatter.Fail(ErrCodeNotFound, fmt.Sprintf("program not found: %s", opts.Program), nil)
		}
		return formatter.Fail(ErrCodeStoreFailed, err.Error(), nil)
	}

	id := ir.NodeID(opts.Node)
	node, ok := prog.Graph.Node(id)
	if !ok {
		return formatter.Fail(ErrCodeNotFound, fmt.Sprintf("program %s has no node %d", opts.Program, opts.Node), nil)
	}

	frames, err := st.ReadNodeTrace(ctx, opts.Program, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return formatter.Fail(ErrCodeNotFound, fmt.Sprintf("no trace recorded for node %d of %s", opts.Node, opts.Program), nil)
		}
		return formatter.Fail(ErrCodeStoreFailed, err.Error(), nil)
	}

	result := TraceResult{
		Program:   opts.Program,
		Node:      id,
		Operation: node.Operation,
		Frames:    frames,
	}
	if formatter.Format == "json" {
		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		return encoder.Encode(CLIResponse{Status: "ok", Data: result})
	}

	fmt.Fprintf(formatter.Writer, "%s\n", node)
	for i, f := range frames {
		fmt.Fprintf(formatter.Writer, "  #%d %s\n", i, f)
	}
	return nil
}
