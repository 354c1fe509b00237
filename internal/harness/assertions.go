package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/fhegraph/internal/ir"
)

// AssertionError is returned when an assertion fails.
// It carries the full graph to help debug the failure.
type AssertionError struct {
	Type     string    // Assertion type for categorization
	Expected string    // Human-readable expected outcome
	Actual   string    // Human-readable actual outcome
	Graph    []ir.Node // Full graph for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nGraph:\n")
	for _, n := range e.Graph {
		fmt.Fprintf(&buf, "  %s\n", n)
	}

	return buf.String()
}

// EvaluateAssertions checks each assertion against a run result and returns
// the failure messages, in assertion order.
func EvaluateAssertions(r *Result, assertions []Assertion) []string {
	var errs []string
	for _, a := range assertions {
		if err := evaluate(r, a); err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

func evaluate(r *Result, a Assertion) error {
	switch a.Type {
	case AssertOpCount:
		return assertOpCount(r, a)
	case AssertNodeCount:
		return assertNodeCount(r, a)
	case AssertEdge:
		return assertEdge(r, a)
	case AssertArity:
		return assertArity(r)
	case AssertDepth:
		return assertDepth(r, a)
	case AssertTraced:
		return assertTraced(r)
	}
	return fmt.Errorf("unknown assertion type %q", a.Type)
}

func fail(r *Result, typ, expected, actual string) error {
	return &AssertionError{Type: typ, Expected: expected, Actual: actual, Graph: r.Program.Graph.Nodes}
}

// assertOpCount checks that the operation appears exactly Count times.
func assertOpCount(r *Result, a Assertion) error {
	got := r.Program.Graph.OpCounts()[ir.Operation(a.Op)]
	if got != a.Count {
		return fail(r, AssertOpCount,
			fmt.Sprintf("%d %s nodes", a.Count, a.Op),
			fmt.Sprintf("%d %s nodes", got, a.Op))
	}
	return nil
}

func assertNodeCount(r *Result, a Assertion) error {
	if got := r.Program.Graph.Len(); got != a.Count {
		return fail(r, AssertNodeCount, fmt.Sprintf("%d nodes", a.Count), fmt.Sprintf("%d nodes", got))
	}
	return nil
}

// assertEdge checks that the node bound to To consumes the node bound to
// From at input Position.
func assertEdge(r *Result, a Assertion) error {
	from, okFrom := r.Names[a.From]
	to, okTo := r.Names[a.To]
	expected := fmt.Sprintf("%s (n%d) → %s (n%d) at position %d", a.From, from, a.To, to, a.Position)
	if !okFrom || !okTo {
		return fail(r, AssertEdge, expected, "name not bound to a node")
	}

	for _, e := range r.Program.Graph.Edges() {
		if e.From == from && e.To == to && e.Position == a.Position {
			return nil
		}
	}

	node, _ := r.Program.Graph.Node(to)
	return fail(r, AssertEdge, expected, fmt.Sprintf("n%d has inputs %v", to, node.Inputs))
}

// assertArity checks that every node has as many inputs as its operation takes.
func assertArity(r *Result) error {
	for _, n := range r.Program.Graph.Nodes {
		arity, ok := n.Operation.Arity()
		if !ok || len(n.Inputs) != arity {
			return fail(r, AssertArity,
				fmt.Sprintf("%s with %d inputs", n.Operation, arity),
				fmt.Sprintf("n%d has %d inputs", n.ID, len(n.Inputs)))
		}
	}
	return nil
}

func assertDepth(r *Result, a Assertion) error {
	if got := r.Stats.MultiplicativeDepth; got != a.Count {
		return fail(r, AssertDepth,
			fmt.Sprintf("multiplicative depth %d", a.Count),
			fmt.Sprintf("multiplicative depth %d", got))
	}
	return nil
}

// assertTraced checks that every node has a recorded stack trace.
func assertTraced(r *Result) error {
	if r.Program.Debug == nil {
		return fail(r, AssertTraced, "debug info", "compiled without debug info")
	}
	for _, n := range r.Program.Graph.Nodes {
		if _, ok := r.Program.Debug.NodeTraces[n.ID]; !ok {
			return fail(r, AssertTraced, fmt.Sprintf("trace for n%d", n.ID), "no trace recorded")
		}
	}
	return nil
}
