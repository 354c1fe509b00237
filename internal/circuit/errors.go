package circuit

import (
	"errors"
	"fmt"

	"github.com/roach88/fhegraph/internal/ir"
)

// ScopeMisuse is the kind of every ScopeError.
const ScopeMisuse = "ScopeMisuse"

// ScopeError is the panic value raised when a Builder is used outside its
// scope: a nil Builder, or one whose Build call already returned.
type ScopeError struct {
	Op      string
	Message string
}

func (e *ScopeError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ScopeMisuse, e.Op, e.Message)
}

// BuildErrorCode categorizes recoverable build errors.
type BuildErrorCode string

const (
	// ErrCodeUnknownNode indicates an operand id that is not in the graph.
	ErrCodeUnknownNode BuildErrorCode = "UNKNOWN_NODE"

	// ErrCodeInvalidOperand indicates an operand the operation cannot consume.
	ErrCodeInvalidOperand BuildErrorCode = "INVALID_OPERAND"
)

// BuildError is recorded as the sticky error of a Builder.
type BuildError struct {
	Code    BuildErrorCode
	Op      ir.Operation
	Node    ir.NodeID
	Message string
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("%s: %s (op=%s, node=%d)", e.Code, e.Message, e.Op, e.Node)
}

// IsUnknownNode returns true if err is a BuildError for a missing operand.
// Uses errors.As to handle wrapped errors.
func IsUnknownNode(err error) bool {
	var be *BuildError
	if errors.As(err, &be) {
		return be.Code == ErrCodeUnknownNode
	}
	return false
}

// IsInvalidOperand returns true if err is a BuildError for an operand of the
// wrong kind.
func IsInvalidOperand(err error) bool {
	var be *BuildError
	if errors.As(err, &be) {
		return be.Code == ErrCodeInvalidOperand
	}
	return false
}
