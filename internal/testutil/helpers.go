// Package testutil holds deterministic helpers shared by tests and the
// conformance harness.
package testutil

import (
	"io"
	"log/slog"

	"github.com/roach88/fhegraph/internal/ir"
)

// Params returns the small smart-fhe-3 parameter set (n=4096, t=4096).
func Params() ir.Params {
	return ir.Params{
		LatticeDimension: 4096,
		CoeffModulus:     []uint64{0xffffee001, 0xffffc4001, 0x1ffffe0001},
		PlainModulus:     4096,
		SchemeType:       ir.SchemeBFV,
		SecurityLevel:    ir.SecurityTC128,
	}
}

// DiscardLogger returns a logger that drops every record.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
