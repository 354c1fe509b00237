package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/roach88/fhegraph/internal/ir"
)

// marshalParams converts a parameter set to canonical JSON TEXT for storage.
func marshalParams(p ir.Params) (string, error) {
	data, err := ir.MarshalCanonical(p)
	if err != nil {
		return "", fmt.Errorf("marshal params: %w", err)
	}
	return string(data), nil
}

// unmarshalParams parses stored params. Moduli decode straight into uint64
// fields, so values above 2^53 survive.
func unmarshalParams(data string) (ir.Params, error) {
	var p ir.Params
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return ir.Params{}, fmt.Errorf("unmarshal params: %w", err)
	}
	return p, nil
}

// marshalLiteral returns NULL for nodes without a literal payload.
func marshalLiteral(lit *ir.Plaintext) (sql.NullString, error) {
	if lit == nil {
		return sql.NullString{}, nil
	}
	data, err := ir.MarshalCanonical(lit)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("marshal literal: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func unmarshalLiteral(data sql.NullString) (*ir.Plaintext, error) {
	if !data.Valid {
		return nil, nil
	}
	var lit ir.Plaintext
	if err := json.Unmarshal([]byte(data.String), &lit); err != nil {
		return nil, fmt.Errorf("unmarshal literal: %w", err)
	}
	for i := range lit.Polynomials {
		if lit.Polynomials[i].Coefficients == nil {
			lit.Polynomials[i].Coefficients = []uint64{}
		}
	}
	return &lit, nil
}

// marshalIndices stores a trace as a JSON array of frame arena indices.
func marshalIndices(indices []int) (string, error) {
	if indices == nil {
		indices = []int{}
	}
	data, err := ir.MarshalCanonical(indices)
	if err != nil {
		return "", fmt.Errorf("marshal trace: %w", err)
	}
	return string(data), nil
}

func unmarshalIndices(data string) ([]int, error) {
	indices := []int{}
	if err := json.Unmarshal([]byte(data), &indices); err != nil {
		return nil, fmt.Errorf("unmarshal trace: %w", err)
	}
	return indices, nil
}
