package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/fhegraph/internal/ir"
)

// Snapshot returns the canonical JSON of a program without its debug info.
// Stack frames carry absolute file paths, so they stay out of golden files.
func Snapshot(p *ir.Program) ([]byte, error) {
	stripped := *p
	stripped.Debug = nil
	return ir.MarshalCanonical(&stripped)
}

// RunWithGolden runs a circuit description and compares the compiled program
// against testdata/golden/{circuit.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns an error if the circuit fails to compile.
// Test failure (via goldie) occurs if the program doesn't match the golden file.
func RunWithGolden(t *testing.T, c *Circuit, opts ...Option) (*Result, error) {
	t.Helper()

	result, err := Run(c, opts...)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, c.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an already-run result against a golden file.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := Snapshot(result.Program)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)

	return nil
}
