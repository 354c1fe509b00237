package store

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fhegraph/internal/circuit"
	"github.com/roach88/fhegraph/internal/compiler"
	"github.com/roach88/fhegraph/internal/debuginfo"
	"github.com/roach88/fhegraph/internal/fhe"
	"github.com/roach88/fhegraph/internal/ir"
	"github.com/roach88/fhegraph/internal/params"
)

func compileTestProgram(t *testing.T, id string, debug bool) *ir.Program {
	t.Helper()
	p, ok := params.Preset(params.SmartFHE3)
	require.True(t, ok)

	prog, err := compiler.Compile[fhe.Signed](p, "poly", func(b *circuit.Builder) error {
		x := fhe.Input[fhe.Signed](b)
		k := fhe.PlainInput[fhe.Signed](b)
		y := fhe.MulPlain(b, fhe.AddConst(b, x, -5), k)
		fhe.Output(b, fhe.Neg(b, y))
		return nil
	},
		compiler.WithIDGenerator(compiler.NewFixedGenerator(id)),
		compiler.WithDebugInfo(debug),
		compiler.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	require.NoError(t, err)
	return prog
}

func TestWriteReadProgram_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	prog := compileTestProgram(t, "prog-1", true)

	require.NoError(t, s.WriteProgram(ctx, prog))

	got, err := s.ReadProgram(ctx, "prog-1")
	require.NoError(t, err)

	assert.Equal(t, prog.ID, got.ID)
	assert.Equal(t, prog.Name, got.Name)
	assert.Equal(t, prog.DataType, got.DataType)
	assert.Equal(t, prog.IRVersion, got.IRVersion)
	assert.True(t, prog.Params.Equal(got.Params))
	assert.Equal(t, prog.Graph, got.Graph)
	assert.Equal(t, prog.ContentHash, got.ContentHash)
	assert.Equal(t, prog.Debug, got.Debug)

	h, err := ir.ProgramHash(got.Params, got.DataType, got.Graph)
	require.NoError(t, err)
	assert.Equal(t, prog.ContentHash, h, "stored graph must rehash to the same content hash")
}

func TestWriteReadProgram_WithoutDebug(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	prog := compileTestProgram(t, "prog-1", false)

	require.NoError(t, s.WriteProgram(ctx, prog))

	got, err := s.ReadProgram(ctx, "prog-1")
	require.NoError(t, err)
	assert.Nil(t, got.Debug)

	_, err = s.ReadNodeTrace(ctx, "prog-1", 0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWriteProgram_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	prog := compileTestProgram(t, "prog-1", true)

	require.NoError(t, s.WriteProgram(ctx, prog))
	require.NoError(t, s.WriteProgram(ctx, prog))

	list, err := s.ListPrograms(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestWriteProgram_Conflict(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	prog := compileTestProgram(t, "prog-1", false)
	require.NoError(t, s.WriteProgram(ctx, prog))

	other := *prog
	other.ContentHash = "0000"
	err := s.WriteProgram(ctx, &other)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestWriteProgram_EmptyID(t *testing.T) {
	s := createTestStore(t)
	prog := compileTestProgram(t, "", false)
	assert.Error(t, s.WriteProgram(context.Background(), prog))
}

func TestReadProgram_NotFound(t *testing.T) {
	s := createTestStore(t)
	_, err := s.ReadProgram(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListPrograms_OrderedBySeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	empty, err := s.ListPrograms(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, s.WriteProgram(ctx, compileTestProgram(t, id, false)))
	}

	list, err := s.ListPrograms(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)

	ids := []string{list[0].ID, list[1].ID, list[2].ID}
	assert.Equal(t, []string{"c", "a", "b"}, ids, "listing follows write order, not id order")
	assert.Equal(t, int64(1), list[0].Seq)
	assert.Equal(t, int64(3), list[2].Seq)
	assert.Equal(t, 7, list[0].Nodes)
	assert.Equal(t, "Signed", list[0].DataType)
}

func TestFindByHash(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	a := compileTestProgram(t, "a", true)
	b := compileTestProgram(t, "b", false)
	require.NoError(t, s.WriteProgram(ctx, a))
	require.NoError(t, s.WriteProgram(ctx, b))

	ids, err := s.FindByHash(ctx, a.ContentHash)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)

	ids, err = s.FindByHash(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestReadNodeTrace_MatchesLookup(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	prog := compileTestProgram(t, "prog-1", true)
	require.NoError(t, s.WriteProgram(ctx, prog))

	lookup := debuginfo.FromDebugInfo(*prog.Debug)
	for _, n := range prog.Graph.Nodes {
		want, err := lookup.NodeTrace(n.ID)
		require.NoError(t, err)

		got, err := s.ReadNodeTrace(ctx, "prog-1", n.ID)
		require.NoError(t, err)
		assert.Equal(t, want, got, "node %d", n.ID)
		assert.NotEmpty(t, got)
	}

	_, err := s.ReadNodeTrace(ctx, "prog-1", 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTraceHashStored(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	prog := compileTestProgram(t, "prog-1", true)
	require.NoError(t, s.WriteProgram(ctx, prog))

	lookup := debuginfo.FromDebugInfo(*prog.Debug)
	frames, err := lookup.Trace(0)
	require.NoError(t, err)
	want, err := ir.TraceHash(frames)
	require.NoError(t, err)

	var got string
	require.NoError(t, s.db.QueryRow(
		`SELECT hash FROM traces WHERE program_id = ? AND trace_id = 0`, "prog-1",
	).Scan(&got))
	assert.Equal(t, want, got)
}
