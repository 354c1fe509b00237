// Package store provides SQLite-backed durable storage for compiled programs.
//
// A program is stored as normalized rows so viewers can query one node or
// one trace without decoding the whole program:
//   - programs: identity, parameters (canonical JSON), content hash
//   - nodes / edges: the graph in creation order
//   - frames / traces / node_traces: the debug correlation
//
// # Ordering
//
// Programs are ordered by seq, a logical counter assigned on write, never by
// timestamps. Listing queries use ORDER BY seq ASC, id ASC COLLATE BINARY.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Traces carry their ir.TraceHash so identical call paths can be matched
// across programs.
package store
