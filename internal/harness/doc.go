// Package harness compiles declarative circuit descriptions and checks
// assertions against the resulting graphs.
//
// # Circuit Format
//
// Circuits are defined in YAML files with the following structure:
//
//	name: affine
//	description: "3 - (x * k + 7)"
//	params: smart-fhe-3
//	type: unsigned
//	inputs: [x]
//	plain_inputs: [k]
//	steps:
//	  - let: y
//	    op: mul
//	    args: [x, k]
//	  - let: z
//	    op: add
//	    args: [y, 7]
//	  - let: w
//	    op: sub
//	    args: [3, z]
//	outputs: [w]
//	assertions:
//	  - type: op_count
//	    op: plaintext_literal
//	    count: 2
//	  - type: edge
//	    from: y
//	    to: z
//	    position: 0
//
// Arguments are bound names or integer constants. The operand kinds select
// the typed operation: ciphertext with ciphertext, plaintext or constant on
// either side. At least one operand of add, sub and mul must be a ciphertext.
//
// # Assertion Types
//
//   - op_count: Verifies an operation appears exactly N times
//   - node_count: Verifies the graph has exactly N nodes
//   - edge: Verifies a node consumes another at a given input position
//   - arity: Verifies every node has the inputs its operation takes
//   - depth: Verifies the multiplicative depth
//   - traced: Verifies every node has a recorded stack trace
//
// # Deterministic Compilation
//
// Run assigns the fixed program id "circuit-<name>" unless another id
// generator is given, so the same description always compiles to the same
// program. Golden snapshots leave out debug info, whose frames carry
// absolute paths.
package harness
