package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testParams() Params {
	return Params{
		LatticeDimension: 4096,
		CoeffModulus:     []uint64{0xffffee001, 0xffffc4001, 0x1ffffe0001},
		PlainModulus:     4096,
		SchemeType:       SchemeBFV,
		SecurityLevel:    SecurityTC128,
	}
}

func addGraph() Graph {
	return Graph{Nodes: []Node{
		{ID: 0, Operation: OpInputCiphertext, Inputs: []NodeID{}},
		{ID: 1, Operation: OpInputCiphertext, Inputs: []NodeID{}},
		{ID: 2, Operation: OpAddCipherCipher, Inputs: []NodeID{0, 1}},
		{ID: 3, Operation: OpOutput, Inputs: []NodeID{2}},
	}}
}

func TestProgramHashDeterminism(t *testing.T) {
	h1, err := ProgramHash(testParams(), "Signed", addGraph())
	require.NoError(t, err)

	h2, err := ProgramHash(testParams(), "Signed", addGraph())
	require.NoError(t, err)

	assert.Equal(t, h1, h2, "ProgramHash must be deterministic")
	assert.Len(t, h1, 64, "SHA-256 hex is 64 characters")
}

func TestProgramHashChangesWithInput(t *testing.T) {
	base := MustProgramHash(testParams(), "Signed", addGraph())

	otherParams := testParams()
	otherParams.PlainModulus = 65537

	swapped := addGraph()
	swapped.Nodes[2].Inputs = []NodeID{1, 0}

	mul := addGraph()
	mul.Nodes[2].Operation = OpMulCipherCipher

	assert.NotEqual(t, base, MustProgramHash(otherParams, "Signed", addGraph()), "params take part")
	assert.NotEqual(t, base, MustProgramHash(testParams(), "Unsigned", addGraph()), "data type takes part")
	assert.NotEqual(t, base, MustProgramHash(testParams(), "Signed", swapped), "input order takes part")
	assert.NotEqual(t, base, MustProgramHash(testParams(), "Signed", mul), "operation takes part")
}

func TestProgramHashRejectsNilInputs(t *testing.T) {
	g := addGraph()
	g.Nodes[0].Inputs = nil

	_, err := ProgramHash(testParams(), "Signed", g)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ProgramHash")
}

func TestTraceHash(t *testing.T) {
	frames := []StackFrame{
		{CalleeName: "main.circuit", CalleeFile: "/src/main.go", CalleeLineno: 12},
		{CalleeName: "main.main", CalleeFile: "/src/main.go", CalleeLineno: 30},
	}

	h1, err := TraceHash(frames)
	require.NoError(t, err)
	h2, err := TraceHash(append([]StackFrame(nil), frames...))
	require.NoError(t, err)
	assert.Equal(t, h1, h2)

	moved := append([]StackFrame(nil), frames...)
	moved[0].CalleeLineno = 13
	h3, err := TraceHash(moved)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h3)
}

func TestDomainSeparationPreventsCrossTypeCollision(t *testing.T) {
	data := []byte(`[]`)
	assert.NotEqual(t, hashWithDomain(DomainProgram, data), hashWithDomain(DomainTrace, data))
}

func TestMustProgramHashPanics(t *testing.T) {
	g := addGraph()
	g.Nodes[1].Inputs = nil
	assert.Panics(t, func() { MustProgramHash(testParams(), "Signed", g) })
}
