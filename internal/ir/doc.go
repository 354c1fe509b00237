// Package ir provides the shared data model for fhegraph: parameter sets,
// circuit graphs, plaintext polynomials, debug traces and compiled programs.
//
// This package contains type definitions plus the canonical serialization
// used for content hashing. All other internal packages import ir; ir imports
// nothing internal.
//
// Key design constraints:
//   - Node identities equal their index in Graph.Nodes and are never reused
//   - Graphs are append-only; there is no node removal
//   - All JSON tags use snake_case and form the external contract consumed by
//     viewers and backends
//   - NO float types anywhere; coefficients and moduli are uint64
package ir
