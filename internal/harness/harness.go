package harness

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"reflect"

	"github.com/roach88/fhegraph/internal/compiler"
	"github.com/roach88/fhegraph/internal/fhe"
	"github.com/roach88/fhegraph/internal/ir"
	"github.com/roach88/fhegraph/internal/params"
	"github.com/roach88/fhegraph/internal/testutil"
)

// Option configures how a circuit description is compiled.
type Option func(*config)

type config struct {
	params *ir.Params
	ids    compiler.IDGenerator
	debug  bool
	logger *slog.Logger
}

// WithParams overrides the description's parameter set.
func WithParams(p ir.Params) Option {
	return func(c *config) {
		c.params = &p
	}
}

// WithIDGenerator sets the program id source. Defaults to a fixed id derived
// from the circuit name so repeated runs produce identical programs.
func WithIDGenerator(g compiler.IDGenerator) Option {
	return func(c *config) {
		c.ids = g
	}
}

// WithDebugInfo enables or disables stack trace correlation (default on).
func WithDebugInfo(enabled bool) Option {
	return func(c *config) {
		c.debug = enabled
	}
}

// WithLogger sets the compile logger. Defaults to discarding all records.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// harnessPkg is skipped when capturing stack traces. The interpreter reports
// the description entry of each node as its innermost frame instead.
var harnessPkg = reflect.TypeOf(Circuit{}).PkgPath()

// Compile builds the circuit described by c and returns the program with the
// node id of every bound name.
func Compile(c *Circuit, opts ...Option) (*ir.Program, map[string]ir.NodeID, error) {
	cfg := config{
		ids:    testutil.NewFixedIDGenerator("circuit-" + c.Name),
		debug:  true,
		logger: testutil.DiscardLogger(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	p, err := resolveParams(c, cfg.params)
	if err != nil {
		return nil, nil, err
	}

	loc := &site{file: c.file}
	compileOpts := []compiler.Option{
		compiler.WithIDGenerator(cfg.ids),
		compiler.WithDebugInfo(cfg.debug),
		compiler.WithLogger(cfg.logger),
		compiler.WithSkipPackages(harnessPkg),
		compiler.WithFrameSource(loc.frames),
	}

	names := make(map[string]ir.NodeID)
	var prog *ir.Program
	switch c.Type {
	case TypeSigned:
		prog, err = compiler.Compile[fhe.Signed](p, c.Name, buildFunc[fhe.Signed](c, names, loc), compileOpts...)
	case TypeUnsigned:
		prog, err = compiler.Compile[fhe.Unsigned](p, c.Name, buildFunc[fhe.Unsigned](c, names, loc), compileOpts...)
	default:
		err = fmt.Errorf("unknown type %q", c.Type)
	}
	if err != nil {
		return nil, nil, err
	}
	return prog, names, nil
}

func resolveParams(c *Circuit, override *ir.Params) (ir.Params, error) {
	if override != nil {
		return override.Clone(), nil
	}
	ref := c.Params
	if _, ok := params.Preset(ref); !ok && ref != "" && !filepath.IsAbs(ref) && c.dir != "" {
		ref = filepath.Join(c.dir, ref)
	}
	p, _, err := params.Resolve(ref)
	if err != nil {
		return ir.Params{}, fmt.Errorf("circuit %s: %w", c.Name, err)
	}
	return p, nil
}

// Run compiles a circuit description and evaluates its assertions.
//
// A circuit that fails to compile is an error; failed assertions are
// reported in the Result.
func Run(c *Circuit, opts ...Option) (*Result, error) {
	prog, names, err := Compile(c, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to compile circuit %s: %w", c.Name, err)
	}

	result := NewResult(c.Name)
	result.Program = prog
	result.Names = names
	result.Stats = compiler.ComputeStats(prog)

	for _, msg := range EvaluateAssertions(result, c.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

// RunDir runs every circuit description found under dir, in path order.
func RunDir(dir string, opts ...Option) ([]*Result, error) {
	paths, err := Discover(dir)
	if err != nil {
		return nil, err
	}

	results := make([]*Result, 0, len(paths))
	for _, path := range paths {
		c, err := LoadCircuit(path)
		if err != nil {
			return nil, err
		}
		r, err := Run(c, opts...)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, nil
}
