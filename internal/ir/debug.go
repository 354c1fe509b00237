package ir

import "fmt"

// TraceID identifies a deduplicated stack trace.
type TraceID uint64

// StackFrame describes one call-site frame of a captured trace.
type StackFrame struct {
	CalleeName   string `json:"callee_name"`
	CalleeFile   string `json:"callee_file"`
	CalleeLineno uint32 `json:"callee_lineno"`
	CalleeCol    uint32 `json:"callee_col"` // Go reports no columns; 0 for runtime frames
}

func (f StackFrame) String() string {
	return fmt.Sprintf("%s (%s:%d)", f.CalleeName, f.CalleeFile, f.CalleeLineno)
}

// DebugInfo is the serializable form of a node ↔ trace correlation.
//
// Frames is an arena; traces refer to frames by index so that frames shared
// between traces are stored once.
type DebugInfo struct {
	Frames     []StackFrame       `json:"frames"`
	Traces     map[TraceID][]int  `json:"traces"`
	NodeTraces map[NodeID]TraceID `json:"node_traces"`
}
