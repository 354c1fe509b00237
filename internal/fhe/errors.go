package fhe

import (
	"errors"
	"fmt"
)

// WrongComponentCount is the kind of every Error.
const WrongComponentCount = "WrongComponentCount"

// Error reports an operand whose node count differs from its type's
// component count.
type Error struct {
	Op       string
	TypeName string
	Operand  string
	Want     int
	Got      int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s %s operand has %d components, %s has %d",
		WrongComponentCount, e.Op, e.Operand, e.Got, e.TypeName, e.Want)
}

// IsWrongComponentCount returns true if err is an Error.
func IsWrongComponentCount(err error) bool {
	var fe *Error
	return errors.As(err, &fe)
}
