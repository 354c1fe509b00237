package circuit

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/roach88/fhegraph/internal/ir"
)

// InputKind selects the operation emitted by AddInput.
type InputKind int

const (
	CiphertextInput InputKind = iota
	PlaintextInput
)

// Builder appends nodes to the graph of one open scope.
//
// A Builder is not safe for concurrent use. Separate Build calls share no
// state and may run on separate goroutines.
type Builder struct {
	params    ir.Params
	graph     ir.Graph
	observers []NodeObserver
	logger    *slog.Logger
	err       error
	closed    bool
}

// Build opens a construction scope, runs fn with its Builder and closes the
// scope when fn returns or panics.
//
// The returned error is the Builder's sticky error if one was recorded,
// otherwise the error returned by fn.
func Build(params ir.Params, fn func(b *Builder) error, opts ...Option) (ir.Graph, error) {
	if err := params.CheckShape(); err != nil {
		return ir.Graph{}, fmt.Errorf("circuit: invalid params: %w", err)
	}

	cfg := config{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}

	b := &Builder{
		params:    params.Clone(),
		graph:     ir.Graph{Nodes: []ir.Node{}},
		observers: cfg.observers,
		logger:    cfg.logger,
	}
	defer func() { b.closed = true }()

	fnErr := fn(b)
	b.closed = true

	if b.err != nil {
		b.logger.Debug("circuit build failed", "nodes", b.graph.Len(), "error", b.err)
		return ir.Graph{}, b.err
	}
	if fnErr != nil {
		return ir.Graph{}, fnErr
	}

	b.logger.Debug("circuit built", "nodes", b.graph.Len())
	return b.graph, nil
}

func (b *Builder) checkScope(op string) {
	if b == nil {
		panic(&ScopeError{Op: op, Message: "nil builder: no graph construction scope is open"})
	}
	if b.closed {
		panic(&ScopeError{Op: op, Message: "builder used after its scope closed"})
	}
}

// Params returns the parameter set of the open scope.
func (b *Builder) Params() ir.Params {
	b.checkScope("Params")
	return b.params.Clone()
}

// Len returns the number of nodes appended so far.
func (b *Builder) Len() int {
	b.checkScope("Len")
	return b.graph.Len()
}

// Err returns the sticky build error, if any.
func (b *Builder) Err() error {
	b.checkScope("Err")
	return b.err
}

// Fail records err as the sticky build error unless one is already set.
// Later appends return ir.InvalidNode.
func (b *Builder) Fail(err error) {
	b.checkScope("Fail")
	if err != nil && b.err == nil {
		b.err = err
	}
}

// AddInput appends a circuit input.
func (b *Builder) AddInput(kind InputKind) ir.NodeID {
	b.checkScope("AddInput")
	switch kind {
	case CiphertextInput:
		return b.append(ir.OpInputCiphertext, nil)
	case PlaintextInput:
		return b.append(ir.OpInputPlaintext, nil)
	default:
		b.Fail(&BuildError{Code: ErrCodeInvalidOperand, Node: ir.InvalidNode, Message: fmt.Sprintf("unknown input kind %d", kind)})
		return ir.InvalidNode
	}
}

// AddOutput marks x as a circuit output.
func (b *Builder) AddOutput(x ir.NodeID) ir.NodeID {
	b.checkScope("AddOutput")
	return b.append(ir.OpOutput, nil, x)
}

// AddAddition appends a ciphertext + ciphertext node.
func (b *Builder) AddAddition(left, right ir.NodeID) ir.NodeID {
	b.checkScope("AddAddition")
	return b.append(ir.OpAddCipherCipher, nil, left, right)
}

// AddSubtraction appends a ciphertext - ciphertext node.
func (b *Builder) AddSubtraction(left, right ir.NodeID) ir.NodeID {
	b.checkScope("AddSubtraction")
	return b.append(ir.OpSubCipherCipher, nil, left, right)
}

// AddMultiplication appends a ciphertext * ciphertext node.
func (b *Builder) AddMultiplication(left, right ir.NodeID) ir.NodeID {
	b.checkScope("AddMultiplication")
	return b.append(ir.OpMulCipherCipher, nil, left, right)
}

// AddAdditionPlaintext appends a ciphertext + plaintext node.
func (b *Builder) AddAdditionPlaintext(cipher, plain ir.NodeID) ir.NodeID {
	b.checkScope("AddAdditionPlaintext")
	return b.append(ir.OpAddCipherPlain, nil, cipher, plain)
}

// AddSubtractionPlaintext appends a ciphertext - plaintext node.
func (b *Builder) AddSubtractionPlaintext(cipher, plain ir.NodeID) ir.NodeID {
	b.checkScope("AddSubtractionPlaintext")
	return b.append(ir.OpSubCipherPlain, nil, cipher, plain)
}

// AddMultiplicationPlaintext appends a ciphertext * plaintext node.
func (b *Builder) AddMultiplicationPlaintext(cipher, plain ir.NodeID) ir.NodeID {
	b.checkScope("AddMultiplicationPlaintext")
	return b.append(ir.OpMulCipherPlain, nil, cipher, plain)
}

// AddNegate appends a ciphertext negation.
func (b *Builder) AddNegate(x ir.NodeID) ir.NodeID {
	b.checkScope("AddNegate")
	return b.append(ir.OpNegate, nil, x)
}

// AddPlaintextLiteral appends a constant plaintext. The graph keeps its own
// copy of pt.
func (b *Builder) AddPlaintextLiteral(pt ir.Plaintext) ir.NodeID {
	b.checkScope("AddPlaintextLiteral")
	return b.append(ir.OpPlaintextLiteral, clonePlaintext(pt))
}

// operandIsPlain reports whether slot i of op consumes a plaintext.
// The second operand of every cipher_plain operation is the only one.
func operandIsPlain(op ir.Operation, i int) bool {
	switch op {
	case ir.OpAddCipherPlain, ir.OpSubCipherPlain, ir.OpMulCipherPlain:
		return i == 1
	}
	return false
}

func producesPlain(op ir.Operation) bool {
	return op == ir.OpInputPlaintext || op == ir.OpPlaintextLiteral
}

func (b *Builder) append(op ir.Operation, literal *ir.Plaintext, inputs ...ir.NodeID) ir.NodeID {
	if b.err != nil {
		return ir.InvalidNode
	}

	for i, in := range inputs {
		src, ok := b.graph.Node(in)
		if !ok {
			b.err = &BuildError{
				Code:    ErrCodeUnknownNode,
				Op:      op,
				Node:    in,
				Message: fmt.Sprintf("operand %d references node %d, graph has %d nodes", i, in, b.graph.Len()),
			}
			return ir.InvalidNode
		}
		if op == ir.OpOutput {
			continue
		}
		if want, got := operandIsPlain(op, i), producesPlain(src.Operation); want != got {
			b.err = &BuildError{
				Code:    ErrCodeInvalidOperand,
				Op:      op,
				Node:    in,
				Message: fmt.Sprintf("operand %d is %s, want %s", i, valueKind(got), valueKind(want)),
			}
			return ir.InvalidNode
		}
	}

	node := ir.Node{
		ID:        ir.NodeID(b.graph.Len()),
		Operation: op,
		Inputs:    append([]ir.NodeID{}, inputs...),
		Literal:   literal,
	}
	b.graph.Nodes = append(b.graph.Nodes, node)

	b.logger.Debug("node added", "id", node.ID, "op", node.Operation, "inputs", node.Inputs)
	for _, o := range b.observers {
		o.NodeAdded(node)
	}
	return node.ID
}

func valueKind(plain bool) string {
	if plain {
		return "plaintext"
	}
	return "ciphertext"
}

func clonePlaintext(pt ir.Plaintext) *ir.Plaintext {
	polys := make([]ir.Polynomial, len(pt.Polynomials))
	for i, p := range pt.Polynomials {
		coeffs := slices.Clone(p.Coefficients)
		if coeffs == nil {
			coeffs = []uint64{}
		}
		polys[i] = ir.Polynomial{Coefficients: coeffs}
	}
	return &ir.Plaintext{DataType: pt.DataType, Polynomials: polys}
}
