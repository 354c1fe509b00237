package debuginfo

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/roach88/fhegraph/internal/ir"
)

var (
	// ErrTraceNotFound is returned for a node or trace id with no trace.
	ErrTraceNotFound = errors.New("trace not found")

	// ErrFrameNotFound is returned when a trace refers to a frame index
	// outside the arena.
	ErrFrameNotFound = errors.New("frame not found")
)

// StackFrameLookup maps node ids to deduplicated stack traces.
type StackFrameLookup struct {
	frames     []ir.StackFrame
	frameIndex map[ir.StackFrame]int
	traceKeys  map[string]ir.TraceID
	traces     map[ir.TraceID][]int
	nodeTraces map[ir.NodeID]ir.TraceID
	nextID     ir.TraceID
}

// New returns an empty lookup.
func New() *StackFrameLookup {
	return &StackFrameLookup{
		frameIndex: make(map[ir.StackFrame]int),
		traceKeys:  make(map[string]ir.TraceID),
		traces:     make(map[ir.TraceID][]int),
		nodeTraces: make(map[ir.NodeID]ir.TraceID),
	}
}

// traceKey normalizes a frame index sequence into a map key.
func traceKey(indices []int) string {
	var sb strings.Builder
	for i, idx := range indices {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(idx))
	}
	return sb.String()
}

func (l *StackFrameLookup) internFrame(f ir.StackFrame) int {
	if idx, ok := l.frameIndex[f]; ok {
		return idx
	}
	idx := len(l.frames)
	l.frames = append(l.frames, f)
	l.frameIndex[f] = idx
	return idx
}

// Insert associates node with frames and returns the trace id. A trace equal
// frame for frame to one already stored reuses that trace's id.
// Inserting the same node again replaces its association.
func (l *StackFrameLookup) Insert(node ir.NodeID, frames []ir.StackFrame) ir.TraceID {
	indices := make([]int, len(frames))
	for i, f := range frames {
		indices[i] = l.internFrame(f)
	}

	key := traceKey(indices)
	id, ok := l.traceKeys[key]
	if !ok {
		id = l.nextID
		l.nextID++
		l.traceKeys[key] = id
		l.traces[id] = indices
	}
	l.nodeTraces[node] = id
	return id
}

// TraceID returns the trace id recorded for node.
func (l *StackFrameLookup) TraceID(node ir.NodeID) (ir.TraceID, bool) {
	id, ok := l.nodeTraces[node]
	return id, ok
}

// NodeTrace returns the frames recorded for node, innermost first.
func (l *StackFrameLookup) NodeTrace(node ir.NodeID) ([]ir.StackFrame, error) {
	id, ok := l.nodeTraces[node]
	if !ok {
		return nil, fmt.Errorf("%w: node %d", ErrTraceNotFound, node)
	}
	return l.Trace(id)
}

// Trace returns the frames of trace id.
func (l *StackFrameLookup) Trace(id ir.TraceID) ([]ir.StackFrame, error) {
	indices, ok := l.traces[id]
	if !ok {
		return nil, fmt.Errorf("%w: trace %d", ErrTraceNotFound, id)
	}
	frames := make([]ir.StackFrame, len(indices))
	for i, idx := range indices {
		if idx < 0 || idx >= len(l.frames) {
			return nil, fmt.Errorf("%w: trace %d refers to frame %d, arena has %d", ErrFrameNotFound, id, idx, len(l.frames))
		}
		frames[i] = l.frames[idx]
	}
	return frames, nil
}

// NumFrames returns the number of distinct frames.
func (l *StackFrameLookup) NumFrames() int { return len(l.frames) }

// NumTraces returns the number of distinct traces.
func (l *StackFrameLookup) NumTraces() int { return len(l.traces) }

// NumNodes returns the number of nodes with a recorded trace.
func (l *StackFrameLookup) NumNodes() int { return len(l.nodeTraces) }

// Snapshot returns a serializable copy of the lookup.
func (l *StackFrameLookup) Snapshot() ir.DebugInfo {
	traces := make(map[ir.TraceID][]int, len(l.traces))
	for id, indices := range l.traces {
		traces[id] = slices.Clone(indices)
	}
	frames := slices.Clone(l.frames)
	if frames == nil {
		frames = []ir.StackFrame{}
	}
	return ir.DebugInfo{
		Frames:     frames,
		Traces:     traces,
		NodeTraces: maps.Clone(l.nodeTraces),
	}
}

// FromDebugInfo rebuilds a lookup from its serialized form. Frame indices
// are not checked here; Trace reports dangling ones with ErrFrameNotFound.
func FromDebugInfo(d ir.DebugInfo) *StackFrameLookup {
	l := New()
	for _, f := range d.Frames {
		l.frameIndex[f] = len(l.frames)
		l.frames = append(l.frames, f)
	}
	for id, indices := range d.Traces {
		l.traces[id] = slices.Clone(indices)
		l.traceKeys[traceKey(indices)] = id
		if id >= l.nextID {
			l.nextID = id + 1
		}
	}
	for node, id := range d.NodeTraces {
		l.nodeTraces[node] = id
	}
	return l
}
