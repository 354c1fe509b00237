package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fhegraph/internal/debuginfo"
	"github.com/roach88/fhegraph/internal/ir"
	"github.com/roach88/fhegraph/internal/testutil"
)

func loadTestCircuit(t *testing.T, name string) *Circuit {
	t.Helper()
	c, err := LoadCircuit(filepath.Join("testdata", "circuits", name+".yaml"))
	require.NoError(t, err)
	return c
}

func TestRun_AddThenMultiply(t *testing.T) {
	result, err := Run(loadTestCircuit(t, "add_then_multiply"))
	require.NoError(t, err)

	assert.True(t, result.Pass, "%v", result.Errors)
	assert.Empty(t, result.Errors)
	assert.Equal(t, "circuit-add_then_multiply", result.Program.ID)
	assert.Equal(t, "Signed", result.Program.DataType)
	assert.Equal(t, map[string]ir.NodeID{"a": 0, "b": 1, "c": 2, "t": 3, "r": 4}, result.Names)
	assert.Equal(t, 1, result.Stats.MultiplicativeDepth)
	require.NotNil(t, result.Program.Debug)
}

func TestRun_TracesPointAtDescription(t *testing.T) {
	result, err := Run(loadTestCircuit(t, "add_then_multiply"))
	require.NoError(t, err)
	require.NotNil(t, result.Program.Debug)

	lookup := debuginfo.FromDebugInfo(*result.Program.Debug)
	file := filepath.Join("testdata", "circuits", "add_then_multiply.yaml")

	tests := []struct {
		node ir.NodeID
		want ir.StackFrame
	}{
		{0, ir.StackFrame{CalleeName: "input a", CalleeFile: file, CalleeLineno: 5, CalleeCol: 10}},
		{1, ir.StackFrame{CalleeName: "input b", CalleeFile: file, CalleeLineno: 5, CalleeCol: 13}},
		{2, ir.StackFrame{CalleeName: "input c", CalleeFile: file, CalleeLineno: 5, CalleeCol: 16}},
		{3, ir.StackFrame{CalleeName: "let t", CalleeFile: file, CalleeLineno: 7, CalleeCol: 5}},
		{4, ir.StackFrame{CalleeName: "let r", CalleeFile: file, CalleeLineno: 10, CalleeCol: 5}},
		{5, ir.StackFrame{CalleeName: "output r", CalleeFile: file, CalleeLineno: 13, CalleeCol: 11}},
	}

	traces := make(map[ir.TraceID]bool)
	for _, tt := range tests {
		frames, err := lookup.NodeTrace(tt.node)
		require.NoError(t, err)
		require.NotEmpty(t, frames)
		assert.Equal(t, tt.want, frames[0], "node %d", tt.node)

		id, ok := lookup.TraceID(tt.node)
		require.True(t, ok)
		traces[id] = true
	}
	assert.Len(t, traces, len(tests), "every entry of the description has its own trace")
}

func TestRun_InCodeStepsGetDistinctTraces(t *testing.T) {
	c := &Circuit{
		Name:   "in_code",
		Params: "smart-fhe-3",
		Type:   TypeSigned,
		Inputs: []string{"a", "b"},
		Steps: []Step{
			{Let: "s", Op: OpAdd, Args: []Arg{NameArg("a"), NameArg("b")}},
			{Let: "p", Op: OpMul, Args: []Arg{NameArg("s"), NameArg("b")}},
		},
		Outputs: []string{"p"},
	}
	result, err := Run(c)
	require.NoError(t, err)

	lookup := debuginfo.FromDebugInfo(*result.Program.Debug)
	add, _ := lookup.TraceID(result.Names["s"])
	mul, _ := lookup.TraceID(result.Names["p"])
	assert.NotEqual(t, add, mul)

	frames, err := lookup.NodeTrace(result.Names["p"])
	require.NoError(t, err)
	assert.Equal(t, "let p", frames[0].CalleeName)
	assert.Empty(t, frames[0].CalleeFile)
	assert.Zero(t, frames[0].CalleeLineno)
}

func TestRun_ParamsFileRelativeToCircuit(t *testing.T) {
	result, err := Run(loadTestCircuit(t, "scaled_difference"))
	require.NoError(t, err)
	assert.True(t, result.Pass, "%v", result.Errors)
	assert.Equal(t, uint64(65537), result.Program.Params.PlainModulus)
	assert.Equal(t, uint64(8192), result.Program.Params.LatticeDimension)
}

func TestRun_AssertionFailuresReported(t *testing.T) {
	c := loadTestCircuit(t, "add_then_multiply")
	c.Assertions = []Assertion{
		{Type: AssertNodeCount, Count: 5},
		{Type: AssertEdge, From: "a", To: "r", Position: 0},
		{Type: AssertOpCount, Op: "negate", Count: 0},
	}

	result, err := Run(c)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "Expected: 5 nodes")
	assert.Contains(t, result.Errors[1], "n4 has inputs [3 2]")
}

func TestRun_WithoutDebugFailsTraced(t *testing.T) {
	result, err := Run(loadTestCircuit(t, "add_then_multiply"), WithDebugInfo(false))
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "compiled without debug info")
}

func TestRun_ParamsOverride(t *testing.T) {
	p := testutil.Params()
	p.PlainModulus = 257
	result, err := Run(loadTestCircuit(t, "scaled_difference"), WithParams(p))
	require.NoError(t, err)

	lit := result.Program.Graph.Nodes[1].Literal
	require.NotNil(t, lit)
	assert.Equal(t, []uint64{256, 0, 256}, lit.Polynomials[0].Coefficients)
}

func TestRun_IDGenerator(t *testing.T) {
	gen := testutil.NewSequenceGenerator("run")
	results, err := RunDir(filepath.Join("testdata", "circuits"), WithIDGenerator(gen))
	require.NoError(t, err)
	require.Len(t, results, 3)

	for i, r := range results {
		assert.True(t, r.Pass, "%s: %v", r.Circuit, r.Errors)
		assert.Equal(t, []string{"run-0001", "run-0002", "run-0003"}[i], r.Program.ID)
	}
}

func TestRun_OperandKindErrors(t *testing.T) {
	tests := []struct {
		name  string
		steps []Step
		want  string
	}{
		{
			name:  "plain with const",
			steps: []Step{{Let: "t", Op: OpAdd, Args: []Arg{NameArg("k"), IntArg(1)}}},
			want:  "add needs at least one ciphertext operand",
		},
		{
			name:  "neg of plain",
			steps: []Step{{Let: "t", Op: OpNeg, Args: []Arg{NameArg("k")}}},
			want:  "neg takes one ciphertext",
		},
		{
			name:  "negative unsigned",
			steps: []Step{{Let: "t", Op: OpMul, Args: []Arg{NameArg("a"), IntArg(-1)}}},
			want:  "not a valid unsigned value",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Circuit{
				Name:        tt.name,
				Params:      "smart-fhe-3",
				Type:        TypeUnsigned,
				Inputs:      []string{"a"},
				PlainInputs: []string{"k"},
				Steps:       tt.steps,
				Outputs:     []string{"a"},
			}
			_, err := Run(c)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRun_OutputMustBeCiphertext(t *testing.T) {
	c := &Circuit{
		Name:        "plain_out",
		Params:      "smart-fhe-3",
		Type:        TypeSigned,
		Inputs:      []string{"a"},
		PlainInputs: []string{"k"},
		Outputs:     []string{"k"},
	}
	_, err := Run(c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"k" is not a ciphertext`)
}

func TestRun_UnknownParams(t *testing.T) {
	c := loadTestCircuit(t, "add_then_multiply")
	c.Params = "no-such-preset"
	_, err := Run(c)
	assert.Error(t, err)
}

func TestRunDir_Missing(t *testing.T) {
	_, err := RunDir(filepath.Join("testdata", "missing"))
	assert.Error(t, err)
}
