package ir

import "fmt"

// NodeID is the stable identity of a graph node. It equals the node's index
// in Graph.Nodes.
type NodeID int

// InvalidNode is returned by a builder that has already failed.
const InvalidNode NodeID = -1

// Operation tags a graph node.
type Operation string

const (
	OpInputCiphertext  Operation = "input_ciphertext"
	OpInputPlaintext   Operation = "input_plaintext"
	OpOutput           Operation = "output"
	OpAddCipherCipher  Operation = "add_cipher_cipher"
	OpAddCipherPlain   Operation = "add_cipher_plain"
	OpSubCipherCipher  Operation = "sub_cipher_cipher"
	OpSubCipherPlain   Operation = "sub_cipher_plain"
	OpMulCipherCipher  Operation = "mul_cipher_cipher"
	OpMulCipherPlain   Operation = "mul_cipher_plain"
	OpNegate           Operation = "negate"
	OpPlaintextLiteral Operation = "plaintext_literal"
)

// operationArity is the fixed input-edge count of each operation.
var operationArity = map[Operation]int{
	OpInputCiphertext:  0,
	OpInputPlaintext:   0,
	OpPlaintextLiteral: 0,
	OpOutput:           1,
	OpNegate:           1,
	OpAddCipherCipher:  2,
	OpAddCipherPlain:   2,
	OpSubCipherCipher:  2,
	OpSubCipherPlain:   2,
	OpMulCipherCipher:  2,
	OpMulCipherPlain:   2,
}

// Operations lists every operation in a stable order.
var Operations = []Operation{
	OpInputCiphertext,
	OpInputPlaintext,
	OpPlaintextLiteral,
	OpAddCipherCipher,
	OpAddCipherPlain,
	OpSubCipherCipher,
	OpSubCipherPlain,
	OpMulCipherCipher,
	OpMulCipherPlain,
	OpNegate,
	OpOutput,
}

// Arity returns the fixed number of inputs for op and whether op is known.
func (op Operation) Arity() (int, bool) {
	n, ok := operationArity[op]
	return n, ok
}

// Valid reports whether op is a known operation tag.
func (op Operation) Valid() bool {
	_, ok := operationArity[op]
	return ok
}

// IsInput reports whether op introduces a circuit input.
func (op Operation) IsInput() bool {
	return op == OpInputCiphertext || op == OpInputPlaintext
}

// Node is a single vertex of the circuit graph.
type Node struct {
	ID        NodeID     `json:"id"`
	Operation Operation  `json:"op"`
	Inputs    []NodeID   `json:"inputs"`
	Literal   *Plaintext `json:"literal,omitempty"` // Only for plaintext_literal
}

func (n Node) String() string {
	return fmt.Sprintf("n%d=%s%v", n.ID, n.Operation, n.Inputs)
}

// Edge is a directed input edge: node To consumes From at input Position.
type Edge struct {
	From     NodeID `json:"from"`
	To       NodeID `json:"to"`
	Position int    `json:"position"`
}

// Graph is an append-only directed acyclic multigraph of nodes.
type Graph struct {
	Nodes []Node `json:"nodes"`
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.Nodes)
}

// Node returns the node with the given id.
func (g *Graph) Node(id NodeID) (Node, bool) {
	if id < 0 || int(id) >= len(g.Nodes) {
		return Node{}, false
	}
	return g.Nodes[id], true
}

// Edges returns every input edge in node order, then input order.
func (g *Graph) Edges() []Edge {
	edges := []Edge{}
	for _, n := range g.Nodes {
		for pos, in := range n.Inputs {
			edges = append(edges, Edge{From: in, To: n.ID, Position: pos})
		}
	}
	return edges
}

// OpCounts returns the number of nodes per operation.
func (g *Graph) OpCounts() map[Operation]int {
	counts := make(map[Operation]int)
	for _, n := range g.Nodes {
		counts[n.Operation]++
	}
	return counts
}

// NodesWith returns the ids of all nodes tagged op, in creation order.
func (g *Graph) NodesWith(op Operation) []NodeID {
	var ids []NodeID
	for _, n := range g.Nodes {
		if n.Operation == op {
			ids = append(ids, n.ID)
		}
	}
	return ids
}
