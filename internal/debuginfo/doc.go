// Package debuginfo correlates circuit graph nodes with the call stacks that
// created them.
//
// A StackFrameLookup stores every distinct frame once in an arena and every
// distinct trace once as a sequence of arena indices. Nodes created from the
// same call path share one trace id. A Recorder is a circuit.NodeObserver
// that captures the caller's stack for each appended node and inserts it.
//
// The lookup is owned by one build scope and is not safe for concurrent use.
package debuginfo
