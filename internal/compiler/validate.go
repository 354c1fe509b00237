package compiler

import (
	"fmt"
	"maps"
	"slices"

	"github.com/roach88/fhegraph/internal/ir"
)

// Validation error codes (E100-E199)
const (
	// Program errors (E100-E109)
	ErrInvalidParams     = "E100" // parameter set fails shape checks
	ErrUnknownDataType   = "E101" // data_type is not Signed or Unsigned
	ErrEmptyGraph        = "E102" // graph has no nodes
	ErrNoOutputs         = "E103" // graph has no output node
	ErrContentHash       = "E104" // content_hash does not match the graph
	ErrDebugInfoMismatch = "E105" // debug info refers to missing nodes

	// Node errors (E110-E129)
	ErrNodeIDMismatch   = "E110" // node id differs from its index
	ErrUnknownOperation = "E111" // operation tag not recognised
	ErrArityMismatch    = "E112" // input count differs from operation arity
	ErrUnknownInput     = "E113" // input references a missing node
	ErrForwardReference = "E114" // input does not precede its consumer
	ErrOperandKind      = "E115" // plaintext where a ciphertext is expected or vice versa
	ErrLiteralMissing   = "E116" // plaintext_literal without payload, or payload on another op
	ErrLiteralTooLong   = "E117" // literal polynomial exceeds the lattice dimension
	ErrLiteralDataType  = "E118" // literal data_type differs from the program's
	ErrOutputConsumed   = "E119" // an output node is used as an operand
	ErrCycleDetected    = "E120" // graph contains a cycle
)

// ValidationError represents a program validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// dataTypes lists the logical types a program may carry.
var dataTypes = map[string]bool{
	"Signed":   true,
	"Unsigned": true,
}

// Validate checks a program's graph against the structural invariants the
// builder guarantees. Programs built in-process always pass; programs read
// back from files or the store may not.
// Returns all errors found (does not fail-fast).
func Validate(p *ir.Program) []ValidationError {
	var errs []ValidationError

	if err := p.Params.CheckShape(); err != nil {
		errs = append(errs, ValidationError{Field: "params", Message: err.Error(), Code: ErrInvalidParams})
	}
	if !dataTypes[p.DataType] {
		errs = append(errs, ValidationError{
			Field:   "data_type",
			Message: fmt.Sprintf("unknown data type %q", p.DataType),
			Code:    ErrUnknownDataType,
		})
	}
	if len(p.Graph.Nodes) == 0 {
		errs = append(errs, ValidationError{Field: "graph.nodes", Message: "graph is empty", Code: ErrEmptyGraph})
		return errs
	}

	errs = append(errs, validateNodes(p)...)

	if len(p.Graph.NodesWith(ir.OpOutput)) == 0 {
		errs = append(errs, ValidationError{Field: "graph.nodes", Message: "graph has no output", Code: ErrNoOutputs})
	}

	for _, c := range FindCycles(p.Graph) {
		errs = append(errs, ValidationError{Field: "graph", Message: c.Message, Code: ErrCycleDetected})
	}

	if p.ContentHash != "" {
		if h, err := ir.ProgramHash(p.Params, p.DataType, p.Graph); err != nil || h != p.ContentHash {
			errs = append(errs, ValidationError{
				Field:   "content_hash",
				Message: fmt.Sprintf("content hash %s does not match the program", p.ContentHash),
				Code:    ErrContentHash,
			})
		}
	}

	if p.Debug != nil {
		nodes := slices.Sorted(maps.Keys(p.Debug.NodeTraces))
		for _, node := range nodes {
			if _, ok := p.Graph.Node(node); !ok {
				errs = append(errs, ValidationError{
					Field:   "debug.node_traces",
					Message: fmt.Sprintf("trace recorded for missing node %d", node),
					Code:    ErrDebugInfoMismatch,
				})
			}
		}
	}

	return errs
}

func validateNodes(p *ir.Program) []ValidationError {
	var errs []ValidationError
	g := &p.Graph
	consumed := make(map[ir.NodeID]bool)

	for i, n := range g.Nodes {
		field := fmt.Sprintf("graph.nodes[%d]", i)

		if n.ID != ir.NodeID(i) {
			errs = append(errs, ValidationError{
				Field:   field + ".id",
				Message: fmt.Sprintf("node id %d at index %d", n.ID, i),
				Code:    ErrNodeIDMismatch,
			})
		}

		arity, ok := n.Operation.Arity()
		if !ok {
			errs = append(errs, ValidationError{
				Field:   field + ".op",
				Message: fmt.Sprintf("unknown operation %q", n.Operation),
				Code:    ErrUnknownOperation,
			})
			continue
		}
		if len(n.Inputs) != arity {
			errs = append(errs, ValidationError{
				Field:   field + ".inputs",
				Message: fmt.Sprintf("%s takes %d inputs, got %d", n.Operation, arity, len(n.Inputs)),
				Code:    ErrArityMismatch,
			})
		}

		for pos, in := range n.Inputs {
			inField := fmt.Sprintf("%s.inputs[%d]", field, pos)
			src, ok := g.Node(in)
			if !ok {
				errs = append(errs, ValidationError{
					Field:   inField,
					Message: fmt.Sprintf("references missing node %d", in),
					Code:    ErrUnknownInput,
				})
				continue
			}
			if in >= ir.NodeID(i) {
				errs = append(errs, ValidationError{
					Field:   inField,
					Message: fmt.Sprintf("references node %d, which does not precede node %d", in, i),
					Code:    ErrForwardReference,
				})
			}
			consumed[in] = true

			if n.Operation == ir.OpOutput {
				continue
			}
			if wantPlain, isPlain := plainOperand(n.Operation, pos), producesPlain(src.Operation); wantPlain != isPlain {
				errs = append(errs, ValidationError{
					Field:   inField,
					Message: fmt.Sprintf("%s operand %d must be a %s", n.Operation, pos, kindName(wantPlain)),
					Code:    ErrOperandKind,
				})
			}
		}

		errs = append(errs, validateLiteral(p, field, n)...)
	}

	for _, n := range g.Nodes {
		if n.Operation == ir.OpOutput && consumed[n.ID] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("graph.nodes[%d]", n.ID),
				Message: "output node is consumed by another node",
				Code:    ErrOutputConsumed,
			})
		}
	}

	return errs
}

func validateLiteral(p *ir.Program, field string, n ir.Node) []ValidationError {
	if n.Operation != ir.OpPlaintextLiteral {
		if n.Literal != nil {
			return []ValidationError{{
				Field:   field + ".literal",
				Message: fmt.Sprintf("%s must not carry a literal", n.Operation),
				Code:    ErrLiteralMissing,
			}}
		}
		return nil
	}

	if n.Literal == nil {
		return []ValidationError{{
			Field:   field + ".literal",
			Message: "plaintext_literal requires a literal",
			Code:    ErrLiteralMissing,
		}}
	}

	var errs []ValidationError
	if n.Literal.DataType != p.DataType {
		errs = append(errs, ValidationError{
			Field:   field + ".literal.data_type",
			Message: fmt.Sprintf("literal is %q, program is %q", n.Literal.DataType, p.DataType),
			Code:    ErrLiteralDataType,
		})
	}
	for j, poly := range n.Literal.Polynomials {
		if uint64(poly.Len()) > p.Params.LatticeDimension {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("%s.literal.polynomials[%d]", field, j),
				Message: fmt.Sprintf("%d coefficients exceed lattice dimension %d", poly.Len(), p.Params.LatticeDimension),
				Code:    ErrLiteralTooLong,
			})
		}
	}
	return errs
}

func plainOperand(op ir.Operation, pos int) bool {
	switch op {
	case ir.OpAddCipherPlain, ir.OpSubCipherPlain, ir.OpMulCipherPlain:
		return pos == 1
	}
	return false
}

func producesPlain(op ir.Operation) bool {
	return op == ir.OpInputPlaintext || op == ir.OpPlaintextLiteral
}

func kindName(plain bool) string {
	if plain {
		return "plaintext"
	}
	return "ciphertext"
}
