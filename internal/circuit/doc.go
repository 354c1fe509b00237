// Package circuit records typed operator invocations as nodes of a circuit
// graph.
//
// A graph is built inside exactly one scope opened by Build. The scope hands
// the caller a *Builder; every Add method appends one node and returns its
// id without doing any arithmetic. When the callback returns the scope is
// closed and the graph is immutable. Using a Builder after its scope closed
// is a programming defect and panics with a *ScopeError.
//
//	g, err := circuit.Build(params, func(b *circuit.Builder) error {
//	    a := b.AddInput(circuit.CiphertextInput)
//	    c := b.AddInput(circuit.CiphertextInput)
//	    b.AddOutput(b.AddMultiplication(a, c))
//	    return nil
//	})
//
// Build errors are sticky: the first one stops the build, later appends
// return ir.InvalidNode, and Build returns the error.
package circuit
