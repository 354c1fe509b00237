package debuginfo

import (
	"reflect"
	"runtime"
	"slices"
	"strings"

	"github.com/roach88/fhegraph/internal/circuit"
	"github.com/roach88/fhegraph/internal/fhe"
	"github.com/roach88/fhegraph/internal/ir"
)

// DefaultMaxDepth bounds the number of frames captured per node.
const DefaultMaxDepth = 32

// Recorder captures the caller's stack for every node a Builder appends.
type Recorder struct {
	lookup   *StackFrameLookup
	skip     []string
	maxDepth int
	source   func() []ir.StackFrame
}

var _ circuit.NodeObserver = (*Recorder)(nil)

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithSkipPackages drops frames of functions in the given import paths, in
// addition to the builder plumbing and the Go runtime.
func WithSkipPackages(pkgs ...string) RecorderOption {
	return func(r *Recorder) {
		r.skip = append(r.skip, pkgs...)
	}
}

// WithMaxDepth bounds the number of frames kept per trace.
func WithMaxDepth(n int) RecorderOption {
	return func(r *Recorder) {
		if n > 0 {
			r.maxDepth = n
		}
	}
}

// WithFrameSource places the frames returned by fn innermost in every trace,
// ahead of the captured Go stack. Interpreters use it to report the location
// in their own input that produced a node.
func WithFrameSource(fn func() []ir.StackFrame) RecorderOption {
	return func(r *Recorder) {
		r.source = fn
	}
}

func defaultSkip() []string {
	return []string{
		reflect.TypeOf(circuit.Builder{}).PkgPath(),
		reflect.TypeOf(fhe.Signed(0)).PkgPath(),
		reflect.TypeOf(Recorder{}).PkgPath(),
		"runtime",
	}
}

// NewRecorder returns a Recorder writing into a fresh lookup.
func NewRecorder(opts ...RecorderOption) *Recorder {
	r := &Recorder{
		lookup:   New(),
		skip:     defaultSkip(),
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Lookup returns the lookup the Recorder writes into.
func (r *Recorder) Lookup() *StackFrameLookup {
	return r.lookup
}

// NodeAdded implements circuit.NodeObserver.
func (r *Recorder) NodeAdded(node ir.Node) {
	frames := r.capture()
	if r.source != nil {
		if extra := r.source(); len(extra) > 0 {
			frames = append(slices.Clone(extra), frames...)
			if len(frames) > r.maxDepth {
				frames = frames[:r.maxDepth]
			}
		}
	}
	r.lookup.Insert(node.ID, frames)
}

func (r *Recorder) capture() []ir.StackFrame {
	pcs := make([]uintptr, r.maxDepth+16)
	n := runtime.Callers(1, pcs)
	iter := runtime.CallersFrames(pcs[:n])

	frames := []ir.StackFrame{}
	for {
		f, more := iter.Next()
		if f.Function != "" && !r.skipped(f.Function) {
			frames = append(frames, ir.StackFrame{
				CalleeName:   f.Function,
				CalleeFile:   f.File,
				CalleeLineno: uint32(f.Line),
			})
			if len(frames) == r.maxDepth {
				break
			}
		}
		if !more {
			break
		}
	}
	return frames
}

// skipped reports whether fn, a fully qualified function name such as
// "example.com/pkg.(*T).Method", belongs to a skipped package.
func (r *Recorder) skipped(fn string) bool {
	for _, pkg := range r.skip {
		if strings.HasPrefix(fn, pkg+".") {
			return true
		}
	}
	return false
}
