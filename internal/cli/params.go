package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/markkurossi/tabulate"
	"github.com/spf13/cobra"

	"github.com/roach88/fhegraph/internal/ir"
	"github.com/roach88/fhegraph/internal/params"
)

// ParamsEntry is one parameter set in params output.
type ParamsEntry struct {
	Name   string    `json:"name"`
	LogQ   int       `json:"log_q"`
	Params ir.Params `json:"params"`
}

// NewParamsCommand creates the params command.
func NewParamsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "params [preset|file]",
		Short: "List parameter presets or describe a parameter set",
		Long: `Without arguments, list the built-in parameter presets.
With a preset name or a .cue, .yaml or .json file, describe that set.

Examples:
  fhegraph params
  fhegraph params smart-fhe-3
  fhegraph params ./params/mid.cue --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParams(rootOpts, args, cmd)
		},
	}
	return cmd
}

func runParams(opts *RootOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	if len(args) == 0 {
		names := params.Names()
		entries := make([]ParamsEntry, 0, len(names))
		for _, name := range names {
			p, _ := params.Preset(name)
			entries = append(entries, ParamsEntry{Name: name, LogQ: p.LogQ(), Params: p})
		}
		if formatter.Format == "json" {
			return formatter.Success(entries)
		}
		presetTable(entries).Print(formatter.Writer)
		return nil
	}

	p, name, err := params.Resolve(args[0])
	if err != nil {
		if params.IsNotFound(err) {
			return formatter.Fail(ErrCodeNotFound, err.Error(), nil)
		}
		return formatter.Fail(ErrCodeLoadFailed, err.Error(), nil)
	}
	entry := ParamsEntry{Name: name, LogQ: p.LogQ(), Params: p}
	if formatter.Format == "json" {
		return formatter.Success(entry)
	}
	describeParams(formatter.Writer, entry)
	return nil
}

func presetTable(entries []ParamsEntry) *tabulate.Tabulate {
	tab := tabulate.New(tabulate.UnicodeLight)
	tab.Header("Preset").SetAlign(tabulate.ML)
	tab.Header("n").SetAlign(tabulate.MR)
	tab.Header("t").SetAlign(tabulate.MR)
	tab.Header("log(q)").SetAlign(tabulate.MR)
	tab.Header("Moduli").SetAlign(tabulate.MR)
	tab.Header("Security").SetAlign(tabulate.ML)
	for _, e := range entries {
		row := tab.Row()
		row.Column(e.Name).SetFormat(tabulate.FmtBold)
		row.Column(fmt.Sprintf("%d", e.Params.LatticeDimension))
		row.Column(fmt.Sprintf("%d", e.Params.PlainModulus))
		row.Column(fmt.Sprintf("%d", e.LogQ))
		row.Column(fmt.Sprintf("%d", len(e.Params.CoeffModulus)))
		row.Column(string(e.Params.SecurityLevel))
	}
	return tab
}

func describeParams(w io.Writer, e ParamsEntry) {
	moduli := make([]string, len(e.Params.CoeffModulus))
	for i, q := range e.Params.CoeffModulus {
		moduli[i] = fmt.Sprintf("%d", q)
	}

	tab := tabulate.New(tabulate.UnicodeLight)
	tab.Header("Field").SetAlign(tabulate.ML)
	tab.Header("Value").SetAlign(tabulate.ML)
	for _, kv := range [][2]string{
		{"lattice_dimension", fmt.Sprintf("%d", e.Params.LatticeDimension)},
		{"plain_modulus", fmt.Sprintf("%d", e.Params.PlainModulus)},
		{"coeff_modulus", strings.Join(moduli, ", ")},
		{"log(q)", fmt.Sprintf("%d", e.LogQ)},
		{"scheme_type", string(e.Params.SchemeType)},
		{"security_level", string(e.Params.SecurityLevel)},
	} {
		row := tab.Row()
		row.Column(kv[0])
		row.Column(kv[1])
	}

	fmt.Fprintln(w, params.Describe(e.Name, e.Params))
	tab.Print(w)
}
