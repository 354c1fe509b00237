package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/fhegraph/internal/ir"
)

// ProgramSummary is one row of ListPrograms.
type ProgramSummary struct {
	ID          string `json:"id"`
	Seq         int64  `json:"seq"`
	Name        string `json:"name"`
	DataType    string `json:"data_type"`
	ContentHash string `json:"content_hash"`
	Nodes       int    `json:"nodes"`
}

// ListPrograms returns a summary of every stored program.
// Ordered by seq ASC, id ASC COLLATE BINARY.
//
// Returns an empty slice (not nil) when the store is empty.
func (s *Store) ListPrograms(ctx context.Context) ([]ProgramSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.seq, p.name, p.data_type, p.content_hash,
		       (SELECT COUNT(*) FROM nodes n WHERE n.program_id = p.id)
		FROM programs p
		ORDER BY p.seq ASC, p.id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query programs: %w", err)
	}
	defer rows.Close()

	summaries := []ProgramSummary{}
	for rows.Next() {
		var ps ProgramSummary
		if err := rows.Scan(&ps.ID, &ps.Seq, &ps.Name, &ps.DataType, &ps.ContentHash, &ps.Nodes); err != nil {
			return nil, fmt.Errorf("scan program: %w", err)
		}
		summaries = append(summaries, ps)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate programs: %w", err)
	}
	return summaries, nil
}

// FindByHash returns the ids of programs with the given content hash, oldest
// first.
func (s *Store) FindByHash(ctx context.Context, contentHash string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM programs
		WHERE content_hash = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, contentHash)
	if err != nil {
		return nil, fmt.Errorf("query programs by hash: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan program id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate programs: %w", err)
	}
	return ids, nil
}

// ReadProgram reconstructs a stored program. Returns ErrNotFound if the id is
// unknown.
func (s *Store) ReadProgram(ctx context.Context, id string) (*ir.Program, error) {
	var (
		p        ir.Program
		params   string
		hasDebug bool
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, data_type, params, content_hash, ir_version, has_debug
		FROM programs
		WHERE id = ?
	`, id).Scan(&p.ID, &p.Name, &p.DataType, &params, &p.ContentHash, &p.IRVersion, &hasDebug)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("program %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read program %s: %w", id, err)
	}

	if p.Params, err = unmarshalParams(params); err != nil {
		return nil, fmt.Errorf("read program %s: %w", id, err)
	}
	if p.Graph, err = s.readGraph(ctx, id); err != nil {
		return nil, fmt.Errorf("read program %s: %w", id, err)
	}
	if hasDebug {
		if p.Debug, err = s.readDebug(ctx, id); err != nil {
			return nil, fmt.Errorf("read program %s: %w", id, err)
		}
	}
	return &p, nil
}

func (s *Store) readGraph(ctx context.Context, programID string) (ir.Graph, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT node_id, op, literal
		FROM nodes
		WHERE program_id = ?
		ORDER BY node_id ASC
	`, programID)
	if err != nil {
		return ir.Graph{}, fmt.Errorf("query nodes: %w", err)
	}
	defer rows.Close()

	nodes := []ir.Node{}
	for rows.Next() {
		var (
			id  int
			op  string
			lit sql.NullString
		)
		if err := rows.Scan(&id, &op, &lit); err != nil {
			return ir.Graph{}, fmt.Errorf("scan node: %w", err)
		}
		literal, err := unmarshalLiteral(lit)
		if err != nil {
			return ir.Graph{}, fmt.Errorf("node %d: %w", id, err)
		}
		nodes = append(nodes, ir.Node{
			ID:        ir.NodeID(id),
			Operation: ir.Operation(op),
			Inputs:    []ir.NodeID{},
			Literal:   literal,
		})
	}
	if err := rows.Err(); err != nil {
		return ir.Graph{}, fmt.Errorf("iterate nodes: %w", err)
	}

	edges, err := s.db.QueryContext(ctx, `
		SELECT from_node, to_node
		FROM edges
		WHERE program_id = ?
		ORDER BY to_node ASC, position ASC
	`, programID)
	if err != nil {
		return ir.Graph{}, fmt.Errorf("query edges: %w", err)
	}
	defer edges.Close()

	for edges.Next() {
		var from, to int
		if err := edges.Scan(&from, &to); err != nil {
			return ir.Graph{}, fmt.Errorf("scan edge: %w", err)
		}
		if to < 0 || to >= len(nodes) {
			return ir.Graph{}, fmt.Errorf("edge into missing node %d", to)
		}
		nodes[to].Inputs = append(nodes[to].Inputs, ir.NodeID(from))
	}
	if err := edges.Err(); err != nil {
		return ir.Graph{}, fmt.Errorf("iterate edges: %w", err)
	}

	return ir.Graph{Nodes: nodes}, nil
}

func (s *Store) readDebug(ctx context.Context, programID string) (*ir.DebugInfo, error) {
	d := &ir.DebugInfo{
		Frames:     []ir.StackFrame{},
		Traces:     map[ir.TraceID][]int{},
		NodeTraces: map[ir.NodeID]ir.TraceID{},
	}

	frames, err := s.db.QueryContext(ctx, `
		SELECT callee_name, callee_file, callee_lineno, callee_col
		FROM frames
		WHERE program_id = ?
		ORDER BY idx ASC
	`, programID)
	if err != nil {
		return nil, fmt.Errorf("query frames: %w", err)
	}
	defer frames.Close()
	for frames.Next() {
		var f ir.StackFrame
		if err := frames.Scan(&f.CalleeName, &f.CalleeFile, &f.CalleeLineno, &f.CalleeCol); err != nil {
			return nil, fmt.Errorf("scan frame: %w", err)
		}
		d.Frames = append(d.Frames, f)
	}
	if err := frames.Err(); err != nil {
		return nil, fmt.Errorf("iterate frames: %w", err)
	}

	traces, err := s.db.QueryContext(ctx, `
		SELECT trace_id, frames FROM traces WHERE program_id = ? ORDER BY trace_id ASC
	`, programID)
	if err != nil {
		return nil, fmt.Errorf("query traces: %w", err)
	}
	defer traces.Close()
	for traces.Next() {
		var (
			id      int64
			encoded string
		)
		if err := traces.Scan(&id, &encoded); err != nil {
			return nil, fmt.Errorf("scan trace: %w", err)
		}
		indices, err := unmarshalIndices(encoded)
		if err != nil {
			return nil, fmt.Errorf("trace %d: %w", id, err)
		}
		d.Traces[ir.TraceID(id)] = indices
	}
	if err := traces.Err(); err != nil {
		return nil, fmt.Errorf("iterate traces: %w", err)
	}

	links, err := s.db.QueryContext(ctx, `
		SELECT node_id, trace_id FROM node_traces WHERE program_id = ? ORDER BY node_id ASC
	`, programID)
	if err != nil {
		return nil, fmt.Errorf("query node traces: %w", err)
	}
	defer links.Close()
	for links.Next() {
		var node, trace int64
		if err := links.Scan(&node, &trace); err != nil {
			return nil, fmt.Errorf("scan node trace: %w", err)
		}
		d.NodeTraces[ir.NodeID(node)] = ir.TraceID(trace)
	}
	if err := links.Err(); err != nil {
		return nil, fmt.Errorf("iterate node traces: %w", err)
	}

	return d, nil
}

// ReadNodeTrace returns the frames recorded for one node of a stored program,
// outermost-last as captured. Returns ErrNotFound if the program has no trace
// for the node.
func (s *Store) ReadNodeTrace(ctx context.Context, programID string, node ir.NodeID) ([]ir.StackFrame, error) {
	var encoded string
	err := s.db.QueryRowContext(ctx, `
		SELECT t.frames
		FROM node_traces nt
		JOIN traces t ON t.program_id = nt.program_id AND t.trace_id = nt.trace_id
		WHERE nt.program_id = ? AND nt.node_id = ?
	`, programID, int(node)).Scan(&encoded)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("trace for node %d of %s: %w", node, programID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read node trace: %w", err)
	}

	indices, err := unmarshalIndices(encoded)
	if err != nil {
		return nil, err
	}

	frames := make([]ir.StackFrame, 0, len(indices))
	for _, idx := range indices {
		var f ir.StackFrame
		err := s.db.QueryRowContext(ctx, `
			SELECT callee_name, callee_file, callee_lineno, callee_col
			FROM frames
			WHERE program_id = ? AND idx = ?
		`, programID, idx).Scan(&f.CalleeName, &f.CalleeFile, &f.CalleeLineno, &f.CalleeCol)
		if err != nil {
			return nil, fmt.Errorf("read frame %d: %w", idx, err)
		}
		frames = append(frames, f)
	}
	return frames, nil
}
