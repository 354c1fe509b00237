package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"

	"github.com/roach88/fhegraph/internal/ir"
)

// WriteProgram stores a compiled program with its graph and debug info.
//
// Writes are idempotent: storing the same program id again is a no-op when
// the content hash matches, and fails with ErrConflict otherwise. All rows
// are written in one transaction.
func (s *Store) WriteProgram(ctx context.Context, p *ir.Program) (err error) {
	if p.ID == "" {
		return errors.New("write program: empty id")
	}

	params, err := marshalParams(p.Params)
	if err != nil {
		return fmt.Errorf("write program %s: %w", p.ID, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write program %s: begin: %w", p.ID, err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var existing string
	err = tx.QueryRowContext(ctx, `SELECT content_hash FROM programs WHERE id = ?`, p.ID).Scan(&existing)
	switch {
	case err == nil:
		if existing != p.ContentHash {
			return fmt.Errorf("write program %s: %w", p.ID, ErrConflict)
		}
		return tx.Commit()
	case !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("write program %s: %w", p.ID, err)
	}

	var seq int64
	if err = tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM programs`).Scan(&seq); err != nil {
		return fmt.Errorf("write program %s: next seq: %w", p.ID, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO programs
		(id, seq, name, data_type, params, content_hash, ir_version, has_debug)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		p.ID,
		seq,
		p.Name,
		p.DataType,
		params,
		p.ContentHash,
		p.IRVersion,
		p.Debug != nil,
	)
	if err != nil {
		return fmt.Errorf("write program %s: %w", p.ID, err)
	}

	if err = writeGraph(ctx, tx, p.ID, &p.Graph); err != nil {
		return fmt.Errorf("write program %s: %w", p.ID, err)
	}

	if p.Debug != nil {
		if err = writeDebug(ctx, tx, p.ID, p.Debug); err != nil {
			return fmt.Errorf("write program %s: %w", p.ID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("write program %s: commit: %w", p.ID, err)
	}
	return nil
}

func writeGraph(ctx context.Context, tx *sql.Tx, programID string, g *ir.Graph) error {
	for _, n := range g.Nodes {
		lit, err := marshalLiteral(n.Literal)
		if err != nil {
			return fmt.Errorf("node %d: %w", n.ID, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO nodes (program_id, node_id, op, literal)
			VALUES (?, ?, ?, ?)
		`, programID, int(n.ID), string(n.Operation), lit)
		if err != nil {
			return fmt.Errorf("node %d: %w", n.ID, err)
		}
	}

	for _, e := range g.Edges() {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO edges (program_id, from_node, to_node, position)
			VALUES (?, ?, ?, ?)
		`, programID, int(e.From), int(e.To), e.Position)
		if err != nil {
			return fmt.Errorf("edge n%d → n%d: %w", e.From, e.To, err)
		}
	}
	return nil
}

func writeDebug(ctx context.Context, tx *sql.Tx, programID string, d *ir.DebugInfo) error {
	for idx, f := range d.Frames {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO frames (program_id, idx, callee_name, callee_file, callee_lineno, callee_col)
			VALUES (?, ?, ?, ?, ?, ?)
		`, programID, idx, f.CalleeName, f.CalleeFile, f.CalleeLineno, f.CalleeCol)
		if err != nil {
			return fmt.Errorf("frame %d: %w", idx, err)
		}
	}

	traceIDs := make([]ir.TraceID, 0, len(d.Traces))
	for id := range d.Traces {
		traceIDs = append(traceIDs, id)
	}
	slices.Sort(traceIDs)

	for _, id := range traceIDs {
		indices := d.Traces[id]
		frames := make([]ir.StackFrame, 0, len(indices))
		for _, idx := range indices {
			if idx < 0 || idx >= len(d.Frames) {
				return fmt.Errorf("trace %d: frame index %d out of range", id, idx)
			}
			frames = append(frames, d.Frames[idx])
		}
		hash, err := ir.TraceHash(frames)
		if err != nil {
			return fmt.Errorf("trace %d: %w", id, err)
		}
		encoded, err := marshalIndices(indices)
		if err != nil {
			return fmt.Errorf("trace %d: %w", id, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO traces (program_id, trace_id, hash, frames)
			VALUES (?, ?, ?, ?)
		`, programID, int64(id), hash, encoded)
		if err != nil {
			return fmt.Errorf("trace %d: %w", id, err)
		}
	}

	nodes := make([]ir.NodeID, 0, len(d.NodeTraces))
	for node := range d.NodeTraces {
		nodes = append(nodes, node)
	}
	slices.Sort(nodes)

	for _, node := range nodes {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO node_traces (program_id, node_id, trace_id)
			VALUES (?, ?, ?)
		`, programID, int(node), int64(d.NodeTraces[node]))
		if err != nil {
			return fmt.Errorf("node trace %d: %w", node, err)
		}
	}
	return nil
}
