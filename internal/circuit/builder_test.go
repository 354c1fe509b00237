package circuit

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fhegraph/internal/ir"
)

func testParams() ir.Params {
	return ir.Params{
		LatticeDimension: 4096,
		CoeffModulus:     []uint64{0xffffee001, 0xffffc4001, 0x1ffffe0001},
		PlainModulus:     4096,
		SchemeType:       ir.SchemeBFV,
		SecurityLevel:    ir.SecurityTC128,
	}
}

func quiet() Option {
	return WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// addThenMultiply builds (a + b) * c.
func addThenMultiply(b *Builder) error {
	x := b.AddInput(CiphertextInput)
	y := b.AddInput(CiphertextInput)
	z := b.AddInput(CiphertextInput)
	sum := b.AddAddition(x, y)
	b.AddOutput(b.AddMultiplication(sum, z))
	return nil
}

func TestBuildAddThenMultiply(t *testing.T) {
	g, err := Build(testParams(), addThenMultiply, quiet())
	require.NoError(t, err)

	require.Equal(t, 6, g.Len())
	assert.Equal(t, ir.OpAddCipherCipher, g.Nodes[3].Operation)
	assert.Equal(t, []ir.NodeID{0, 1}, g.Nodes[3].Inputs)
	assert.Equal(t, ir.OpMulCipherCipher, g.Nodes[4].Operation)
	assert.Equal(t, []ir.NodeID{3, 2}, g.Nodes[4].Inputs)

	assert.Equal(t, []ir.Edge{
		{From: 0, To: 3, Position: 0},
		{From: 1, To: 3, Position: 1},
		{From: 3, To: 4, Position: 0},
		{From: 2, To: 4, Position: 1},
		{From: 4, To: 5, Position: 0},
	}, g.Edges())
}

func TestBuildIDsIncreaseAndMatchIndex(t *testing.T) {
	g, err := Build(testParams(), addThenMultiply, quiet())
	require.NoError(t, err)

	for i, n := range g.Nodes {
		assert.Equal(t, ir.NodeID(i), n.ID)
		for _, in := range n.Inputs {
			assert.Less(t, in, n.ID, "inputs precede their consumer")
		}
	}
}

func TestBuildDeterministic(t *testing.T) {
	g1, err := Build(testParams(), addThenMultiply, quiet())
	require.NoError(t, err)
	g2, err := Build(testParams(), addThenMultiply, quiet())
	require.NoError(t, err)

	assert.Equal(t, g1, g2)
	assert.Equal(t,
		ir.MustProgramHash(testParams(), "Signed", g1),
		ir.MustProgramHash(testParams(), "Signed", g2))
}

func TestBuildNodeArity(t *testing.T) {
	g, err := Build(testParams(), func(b *Builder) error {
		c := b.AddInput(CiphertextInput)
		p := b.AddInput(PlaintextInput)
		lit := b.AddPlaintextLiteral(ir.Plaintext{DataType: "Signed", Polynomials: []ir.Polynomial{{}}})

		b.AddAddition(c, c)
		b.AddSubtraction(c, c)
		b.AddMultiplication(c, c)
		b.AddAdditionPlaintext(c, p)
		b.AddSubtractionPlaintext(c, lit)
		b.AddMultiplicationPlaintext(c, p)
		b.AddOutput(b.AddNegate(c))
		return nil
	}, quiet())
	require.NoError(t, err)

	for _, n := range g.Nodes {
		arity, ok := n.Operation.Arity()
		require.True(t, ok, n.Operation)
		assert.Len(t, n.Inputs, arity, n.String())
		assert.NotNil(t, n.Inputs, "inputs must never be nil")
	}

	_, err = ir.ProgramHash(testParams(), "Signed", g)
	assert.NoError(t, err, "built graphs hash without null values")
}

func TestBuildLiteralIsCopied(t *testing.T) {
	coeffs := []uint64{1, 0, 1}
	g, err := Build(testParams(), func(b *Builder) error {
		b.AddPlaintextLiteral(ir.Plaintext{DataType: "Signed", Polynomials: []ir.Polynomial{{Coefficients: coeffs}}})
		return nil
	}, quiet())
	require.NoError(t, err)

	coeffs[0] = 99
	require.NotNil(t, g.Nodes[0].Literal)
	assert.Equal(t, []uint64{1, 0, 1}, g.Nodes[0].Literal.Polynomials[0].Coefficients)
}

func TestBuildUnknownNodeIsSticky(t *testing.T) {
	var after ir.NodeID
	_, err := Build(testParams(), func(b *Builder) error {
		a := b.AddInput(CiphertextInput)
		got := b.AddAddition(a, 42)
		assert.Equal(t, ir.InvalidNode, got)

		after = b.AddNegate(a)
		assert.Equal(t, 1, b.Len(), "no node is appended after a failure")
		return nil
	}, quiet())

	require.Error(t, err)
	assert.True(t, IsUnknownNode(err))
	assert.Equal(t, ir.InvalidNode, after)

	var be *BuildError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, ir.NodeID(42), be.Node)
	assert.Equal(t, ir.OpAddCipherCipher, be.Op)
}

func TestBuildInvalidOperandKinds(t *testing.T) {
	tests := []struct {
		name string
		fn   func(b *Builder)
	}{
		{"plain in cipher slot", func(b *Builder) {
			p := b.AddInput(PlaintextInput)
			b.AddAddition(p, p)
		}},
		{"cipher in plain slot", func(b *Builder) {
			c := b.AddInput(CiphertextInput)
			b.AddMultiplicationPlaintext(c, c)
		}},
		{"negate plaintext", func(b *Builder) {
			b.AddNegate(b.AddInput(PlaintextInput))
		}},
		{"unknown input kind", func(b *Builder) {
			b.AddInput(InputKind(7))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(testParams(), func(b *Builder) error {
				tt.fn(b)
				return nil
			}, quiet())
			require.Error(t, err)
			assert.True(t, IsInvalidOperand(err))
		})
	}
}

func TestBuildFail(t *testing.T) {
	first := errors.New("first")

	_, err := Build(testParams(), func(b *Builder) error {
		b.Fail(first)
		b.Fail(errors.New("second"))
		assert.Equal(t, first, b.Err())
		assert.Equal(t, ir.InvalidNode, b.AddInput(CiphertextInput))
		return errors.New("callback error")
	}, quiet())

	assert.Equal(t, first, err, "the sticky error wins over the callback error")
}

func TestBuildReturnsCallbackError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Build(testParams(), func(b *Builder) error {
		b.AddInput(CiphertextInput)
		return boom
	}, quiet())
	assert.ErrorIs(t, err, boom)
}

func TestBuildRejectsInvalidParams(t *testing.T) {
	p := testParams()
	p.PlainModulus = 1

	called := false
	_, err := Build(p, func(b *Builder) error {
		called = true
		return nil
	}, quiet())
	require.Error(t, err)
	assert.False(t, called)
}

func TestBuilderUseAfterScopePanics(t *testing.T) {
	var leaked *Builder
	_, err := Build(testParams(), func(b *Builder) error {
		leaked = b
		b.AddInput(CiphertextInput)
		return nil
	}, quiet())
	require.NoError(t, err)

	defer func() {
		r := recover()
		require.NotNil(t, r)
		se, ok := r.(*ScopeError)
		require.True(t, ok, "panic value is %T", r)
		assert.Equal(t, "AddInput", se.Op)
		assert.Contains(t, se.Error(), ScopeMisuse)
	}()
	leaked.AddInput(CiphertextInput)
}

func TestNilBuilderPanics(t *testing.T) {
	var b *Builder
	assert.PanicsWithError(t, "ScopeMisuse: AddNegate: nil builder: no graph construction scope is open", func() {
		b.AddNegate(0)
	})
}

func TestBuilderClosedAfterPanic(t *testing.T) {
	var leaked *Builder
	assert.Panics(t, func() {
		_, _ = Build(testParams(), func(b *Builder) error {
			leaked = b
			panic("user code failed")
		}, quiet())
	})
	assert.Panics(t, func() { leaked.Len() })
}

func TestObserversSeeEveryNodeInOrder(t *testing.T) {
	var first, second []ir.NodeID
	g, err := Build(testParams(), addThenMultiply,
		quiet(),
		WithObserver(ObserverFunc(func(n ir.Node) { first = append(first, n.ID) })),
		WithObserver(ObserverFunc(func(n ir.Node) { second = append(second, n.ID) })),
	)
	require.NoError(t, err)

	want := make([]ir.NodeID, g.Len())
	for i := range want {
		want[i] = ir.NodeID(i)
	}
	assert.Equal(t, want, first)
	assert.Equal(t, want, second)
}

func TestConcurrentBuildsShareNothing(t *testing.T) {
	var wg sync.WaitGroup
	graphs := make([]ir.Graph, 8)
	errs := make([]error, 8)

	for i := range graphs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			graphs[i], errs[i] = Build(testParams(), func(b *Builder) error {
				x := b.AddInput(CiphertextInput)
				for j := 0; j < i; j++ {
					x = b.AddNegate(x)
				}
				b.AddOutput(x)
				return nil
			}, quiet())
		}(i)
	}
	wg.Wait()

	for i, g := range graphs {
		require.NoError(t, errs[i])
		assert.Equal(t, i+2, g.Len())
	}
}
