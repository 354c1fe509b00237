package compiler

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/fhegraph/internal/circuit"
	"github.com/roach88/fhegraph/internal/debuginfo"
	"github.com/roach88/fhegraph/internal/fhe"
	"github.com/roach88/fhegraph/internal/ir"
)

// Option configures Compile.
type Option func(*options)

type options struct {
	ids      IDGenerator
	logger   *slog.Logger
	debug    bool
	skip     []string
	maxDepth int
	source   func() []ir.StackFrame
}

// WithIDGenerator sets the program id source. Defaults to UUIDv7Generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(o *options) { o.ids = g }
}

// WithLogger sets the logger for the compiler and the builder.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithDebugInfo controls stack trace capture. Enabled by default.
func WithDebugInfo(enabled bool) Option {
	return func(o *options) { o.debug = enabled }
}

// WithSkipPackages drops frames of the given import paths from captured
// traces, e.g. an interpreter that drives the builder on behalf of a user.
func WithSkipPackages(pkgs ...string) Option {
	return func(o *options) { o.skip = append(o.skip, pkgs...) }
}

// WithFrameSource places the frames returned by fn innermost in every
// captured trace. See debuginfo.WithFrameSource.
func WithFrameSource(fn func() []ir.StackFrame) Option {
	return func(o *options) { o.source = fn }
}

// WithMaxTraceDepth bounds the number of frames captured per node.
func WithMaxTraceDepth(n int) Option {
	return func(o *options) { o.maxDepth = n }
}

// CompileError reports a build failure or a program that fails validation.
type CompileError struct {
	Program string
	Errors  []ValidationError
	Err     error
}

func (e *CompileError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("compile %s: %v", e.Program, e.Err)
	}
	msgs := make([]string, len(e.Errors))
	for i, ve := range e.Errors {
		msgs[i] = ve.Error()
	}
	return fmt.Sprintf("compile %s: %d validation errors: %s", e.Program, len(e.Errors), strings.Join(msgs, "; "))
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// Compile builds a circuit over logical type T and returns the finished
// program: graph, parameter set, content hash and, unless disabled, the
// node ↔ stack trace correlation.
func Compile[T fhe.Type](params ir.Params, name string, fn func(b *circuit.Builder) error, opts ...Option) (*ir.Program, error) {
	o := options{
		ids:    UUIDv7Generator{},
		logger: slog.Default(),
		debug:  true,
	}
	for _, opt := range opts {
		opt(&o)
	}

	buildOpts := []circuit.Option{circuit.WithLogger(o.logger)}
	var rec *debuginfo.Recorder
	if o.debug {
		recOpts := []debuginfo.RecorderOption{debuginfo.WithSkipPackages(o.skip...)}
		if o.maxDepth > 0 {
			recOpts = append(recOpts, debuginfo.WithMaxDepth(o.maxDepth))
		}
		if o.source != nil {
			recOpts = append(recOpts, debuginfo.WithFrameSource(o.source))
		}
		rec = debuginfo.NewRecorder(recOpts...)
		buildOpts = append(buildOpts, circuit.WithObserver(rec))
	}

	g, err := circuit.Build(params, fn, buildOpts...)
	if err != nil {
		return nil, &CompileError{Program: name, Err: err}
	}

	prog := &ir.Program{
		Name:      name,
		DataType:  fhe.TypeNameOf[T](),
		Params:    params.Clone(),
		Graph:     g,
		IRVersion: ir.IRVersion,
	}
	if rec != nil {
		snap := rec.Lookup().Snapshot()
		prog.Debug = &snap
	}

	if errs := Validate(prog); len(errs) > 0 {
		return nil, &CompileError{Program: name, Errors: errs}
	}

	hash, err := ir.ProgramHash(prog.Params, prog.DataType, prog.Graph)
	if err != nil {
		return nil, &CompileError{Program: name, Err: err}
	}
	prog.ContentHash = hash
	prog.ID = o.ids.Generate()

	o.logger.Info("program compiled",
		"name", name,
		"id", prog.ID,
		"nodes", prog.Graph.Len(),
		"hash", hash[:12])
	return prog, nil
}
