package harness

import (
	"github.com/roach88/fhegraph/internal/compiler"
	"github.com/roach88/fhegraph/internal/ir"
)

// Result is the outcome of running a circuit description.
type Result struct {
	// Circuit is the description's name.
	Circuit string `json:"circuit"`

	// Pass is true if every assertion held.
	Pass bool `json:"pass"`

	// Program is the compiled program.
	Program *ir.Program `json:"program"`

	// Names maps every bound name to the first node id of its value.
	Names map[string]ir.NodeID `json:"names"`

	Stats compiler.Stats `json:"stats"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult(name string) *Result {
	return &Result{
		Circuit: name,
		Pass:    true,
		Names:   make(map[string]ir.NodeID),
		Errors:  []string{},
	}
}

// AddError adds an assertion failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
