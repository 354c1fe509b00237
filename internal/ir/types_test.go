package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParamsEqual(t *testing.T) {
	a := testParams()
	b := a.Clone()
	assert.True(t, a.Equal(b))

	b.CoeffModulus[0]++
	assert.False(t, a.Equal(b), "clone must not alias the modulus slice")

	c := testParams()
	c.SecurityLevel = SecurityTC192
	assert.False(t, a.Equal(c))
}

func TestParamsJSONFieldNames(t *testing.T) {
	data, err := json.Marshal(testParams())
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"lattice_dimension": 4096,
		"coeff_modulus": [68719403009, 68719230977, 137438822401],
		"plain_modulus": 4096,
		"scheme_type": "bfv",
		"security_level": "tc128"
	}`, string(data))

	var back Params
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, back.Equal(testParams()))
}

func TestParamsLogQ(t *testing.T) {
	// 35 + 35 + 36 bits
	assert.Equal(t, 35+35+36, testParams().LogQ())
	assert.Equal(t, 0, Params{}.LogQ())
}

func TestParamsCheckShape(t *testing.T) {
	require.NoError(t, testParams().CheckShape())

	p := testParams()
	p.PlainModulus = 1
	assert.Error(t, p.CheckShape())

	p = testParams()
	p.LatticeDimension = 3000
	assert.Error(t, p.CheckShape())

	for _, moduli := range [][]uint64{nil, {}} {
		p = testParams()
		p.CoeffModulus = moduli
		assert.ErrorContains(t, p.CheckShape(), "coeff_modulus must not be empty")
	}
}

func TestOperationArity(t *testing.T) {
	tests := []struct {
		op    Operation
		arity int
	}{
		{OpInputCiphertext, 0},
		{OpInputPlaintext, 0},
		{OpPlaintextLiteral, 0},
		{OpOutput, 1},
		{OpNegate, 1},
		{OpAddCipherCipher, 2},
		{OpAddCipherPlain, 2},
		{OpSubCipherCipher, 2},
		{OpSubCipherPlain, 2},
		{OpMulCipherCipher, 2},
		{OpMulCipherPlain, 2},
	}

	for _, tt := range tests {
		t.Run(string(tt.op), func(t *testing.T) {
			n, ok := tt.op.Arity()
			require.True(t, ok)
			assert.Equal(t, tt.arity, n)
		})
	}

	_, ok := Operation("relinearize").Arity()
	assert.False(t, ok)
	assert.Len(t, Operations, len(tests))
}

func TestGraphEdges(t *testing.T) {
	g := addGraph()

	assert.Equal(t, []Edge{
		{From: 0, To: 2, Position: 0},
		{From: 1, To: 2, Position: 1},
		{From: 2, To: 3, Position: 0},
	}, g.Edges())

	counts := g.OpCounts()
	assert.Equal(t, 2, counts[OpInputCiphertext])
	assert.Equal(t, 1, counts[OpAddCipherCipher])

	_, ok := g.Node(4)
	assert.False(t, ok)
	n, ok := g.Node(2)
	require.True(t, ok)
	assert.Equal(t, "n2=add_cipher_cipher[0 1]", n.String())
}

func TestProgramInputsOutputs(t *testing.T) {
	p := Program{Graph: addGraph()}
	assert.Equal(t, []NodeID{0, 1}, p.Inputs())
	assert.Equal(t, []NodeID{3}, p.Outputs())
}

func TestPlaintextEqual(t *testing.T) {
	a := Plaintext{DataType: "Signed", Polynomials: []Polynomial{{Coefficients: []uint64{1, 0, 1}}}}
	b := Plaintext{DataType: "Signed", Polynomials: []Polynomial{{Coefficients: []uint64{1, 0, 1}}}}
	assert.True(t, a.Equal(b))

	b.DataType = "Unsigned"
	assert.False(t, a.Equal(b))
}
