package compiler

import "github.com/roach88/fhegraph/internal/ir"

// Stats summarizes a program for display.
type Stats struct {
	Nodes       int                  `json:"nodes"`
	Edges       int                  `json:"edges"`
	Inputs      int                  `json:"inputs"`
	PlainInputs int                  `json:"plain_inputs"`
	Literals    int                  `json:"literals"`
	Outputs     int                  `json:"outputs"`
	OpCounts    map[ir.Operation]int `json:"op_counts"`

	// MultiplicativeDepth is the largest number of ciphertext-ciphertext
	// multiplications on any input-to-output path.
	MultiplicativeDepth int `json:"multiplicative_depth"`

	// Traces is the number of distinct stack traces, 0 without debug info.
	Traces int `json:"traces"`
}

// ComputeStats assumes a validated program: inputs precede their consumers.
func ComputeStats(p *ir.Program) Stats {
	counts := p.Graph.OpCounts()
	s := Stats{
		Nodes:       p.Graph.Len(),
		Edges:       len(p.Graph.Edges()),
		Inputs:      counts[ir.OpInputCiphertext],
		PlainInputs: counts[ir.OpInputPlaintext],
		Literals:    counts[ir.OpPlaintextLiteral],
		Outputs:     counts[ir.OpOutput],
		OpCounts:    counts,
	}

	depth := make([]int, len(p.Graph.Nodes))
	for i, n := range p.Graph.Nodes {
		d := 0
		for _, in := range n.Inputs {
			if int(in) >= 0 && int(in) < i {
				d = max(d, depth[in])
			}
		}
		if n.Operation == ir.OpMulCipherCipher {
			d++
		}
		depth[i] = d
		s.MultiplicativeDepth = max(s.MultiplicativeDepth, d)
	}

	if p.Debug != nil {
		s.Traces = len(p.Debug.Traces)
	}
	return s
}
