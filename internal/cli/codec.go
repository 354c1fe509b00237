package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/fhegraph/internal/fhe"
	"github.com/roach88/fhegraph/internal/ir"
	"github.com/roach88/fhegraph/internal/params"
)

// CodecOptions holds flags shared by encode and decode.
type CodecOptions struct {
	*RootOptions
	Type   string // "signed" | "unsigned"
	Params string
	Value  string // encode only
	Coeffs string // decode only, comma separated
}

// CodecResult is the JSON payload of encode and decode.
type CodecResult struct {
	DataType     string   `json:"data_type"`
	Value        string   `json:"value"`
	PlainModulus uint64   `json:"plain_modulus"`
	Coefficients []uint64 `json:"coefficients"`
}

// NewEncodeCommand creates the encode command.
func NewEncodeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CodecOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Encode an integer as a plaintext polynomial",
		Long: `Encode a 64-bit integer with the binary plaintext encoding.

Unsigned values produce one coefficient per bit (64 coefficients).
Signed values produce one coefficient per magnitude bit; set bits of a
negative value are stored as t-1.

Examples:
  fhegraph encode --type signed --value -5
  fhegraph encode --type unsigned --value 10 --params smart-fhe-3`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEncode(opts, cmd)
		},
	}

	addCodecFlags(cmd, opts)
	cmd.Flags().StringVar(&opts.Value, "value", "", "integer to encode (required)")
	_ = cmd.MarkFlagRequired("value")

	return cmd
}

// NewDecodeCommand creates the decode command.
func NewDecodeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CodecOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode plaintext coefficients back to an integer",
		Long: `Decode a coefficient list produced by encode (or by decryption).

Examples:
  fhegraph decode --type signed --coeffs 65536,0,65536
  fhegraph decode --type unsigned --coeffs 0,1,0,1`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecode(opts, cmd)
		},
	}

	addCodecFlags(cmd, opts)
	cmd.Flags().StringVar(&opts.Coeffs, "coeffs", "", "comma separated coefficients, lowest degree first")

	return cmd
}

func addCodecFlags(cmd *cobra.Command, opts *CodecOptions) {
	cmd.Flags().StringVar(&opts.Type, "type", "signed", "value type (signed|unsigned)")
	cmd.Flags().StringVar(&opts.Params, "params", "", "preset name or parameter file (default lattigo-n14-t65537)")
}

func runEncode(opts *CodecOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	p, err := resolveCodecParams(opts, formatter)
	if err != nil {
		return err
	}

	var pts []ir.Plaintext
	switch strings.ToLower(opts.Type) {
	case "signed":
		v, perr := strconv.ParseInt(opts.Value, 10, 64)
		if perr != nil {
			return formatter.Fail(ErrCodeInvalidInput, fmt.Sprintf("invalid signed value %q", opts.Value), nil)
		}
		pts, err = fhe.Signed(v).Encode(p)
	case "unsigned":
		v, perr := strconv.ParseUint(opts.Value, 10, 64)
		if perr != nil {
			return formatter.Fail(ErrCodeInvalidInput, fmt.Sprintf("invalid unsigned value %q", opts.Value), nil)
		}
		pts, err = fhe.Unsigned(v).Encode(p)
	default:
		return formatter.Fail(ErrCodeInvalidInput, fmt.Sprintf("unknown type %q: must be signed or unsigned", opts.Type), nil)
	}
	if err != nil {
		return formatter.Fail(ErrCodeCodec, err.Error(), nil)
	}
	opts.logger().Debug("encoded value", "type", pts[0].DataType, "value", opts.Value, "coefficients", len(pts[0].Polynomials[0].Coefficients))

	return outputCodec(formatter, CodecResult{
		DataType:     pts[0].DataType,
		Value:        opts.Value,
		PlainModulus: p.PlainModulus,
		Coefficients: pts[0].Polynomials[0].Coefficients,
	})
}

func runDecode(opts *CodecOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	p, err := resolveCodecParams(opts, formatter)
	if err != nil {
		return err
	}

	coeffs, err := parseCoefficients(opts.Coeffs)
	if err != nil {
		return formatter.Fail(ErrCodeInvalidInput, err.Error(), nil)
	}

	var (
		value    string
		dataType string
	)
	switch strings.ToLower(opts.Type) {
	case "signed":
		dataType = fhe.TypeNameOf[fhe.Signed]()
		var v fhe.Signed
		v, err = fhe.Decode[fhe.Signed]([]ir.Plaintext{plaintextOf(dataType, coeffs)}, p)
		value = strconv.FormatInt(int64(v), 10)
	case "unsigned":
		dataType = fhe.TypeNameOf[fhe.Unsigned]()
		var v fhe.Unsigned
		v, err = fhe.Decode[fhe.Unsigned]([]ir.Plaintext{plaintextOf(dataType, coeffs)}, p)
		value = strconv.FormatUint(uint64(v), 10)
	default:
		return formatter.Fail(ErrCodeInvalidInput, fmt.Sprintf("unknown type %q: must be signed or unsigned", opts.Type), nil)
	}
	if err != nil {
		return formatter.Fail(ErrCodeCodec, err.Error(), nil)
	}

	return outputCodec(formatter, CodecResult{
		DataType:     dataType,
		Value:        value,
		PlainModulus: p.PlainModulus,
		Coefficients: coeffs,
	})
}

func resolveCodecParams(opts *CodecOptions, formatter *OutputFormatter) (ir.Params, error) {
	p, name, err := params.Resolve(opts.Params)
	if err != nil {
		if params.IsNotFound(err) {
			return ir.Params{}, formatter.Fail(ErrCodeNotFound, err.Error(), nil)
		}
		return ir.Params{}, formatter.Fail(ErrCodeLoadFailed, err.Error(), nil)
	}
	formatter.VerboseLog("Using parameters %s", params.Describe(name, p))
	return p, nil
}

// parseCoefficients accepts "", "0,1,1" and tolerates spaces around commas.
func parseCoefficients(s string) ([]uint64, error) {
	coeffs := []uint64{}
	if strings.TrimSpace(s) == "" {
		return coeffs, nil
	}
	for i, field := range strings.Split(s, ",") {
		c, err := strconv.ParseUint(strings.TrimSpace(field), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("coefficient %d: invalid value %q", i, strings.TrimSpace(field))
		}
		coeffs = append(coeffs, c)
	}
	return coeffs, nil
}

func plaintextOf(dataType string, coeffs []uint64) ir.Plaintext {
	return ir.Plaintext{
		DataType:    dataType,
		Polynomials: []ir.Polynomial{{Coefficients: coeffs}},
	}
}

func outputCodec(formatter *OutputFormatter, r CodecResult) error {
	if formatter.Format == "json" {
		return formatter.Success(r)
	}
	fmt.Fprintf(formatter.Writer, "%s %s (t=%d): %v\n", r.DataType, r.Value, r.PlainModulus, r.Coefficients)
	return nil
}
