package codec

import (
	"errors"
	"fmt"
)

// Kind classifies codec failures.
type Kind string

const (
	KindUnsupportedPlaintextShape Kind = "UnsupportedPlaintextShape"
	KindPolynomialTooLong         Kind = "PolynomialTooLong"
	KindInvalidPlainModulus       Kind = "InvalidPlainModulus"
)

// ErrWrongCiphertextCount is the cause of an UnsupportedPlaintextShape error
// for a plaintext that does not hold exactly one polynomial.
var ErrWrongCiphertextCount = errors.New("wrong ciphertext count")

// Error is returned by every Encode and Decode function.
type Error struct {
	Kind     Kind
	DataType string
	Message  string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %s", e.DataType, e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func kindOf(err error) (Kind, bool) {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind, true
	}
	return "", false
}

// IsUnsupportedPlaintextShape reports whether err rejects a plaintext's
// polynomial count or data type.
func IsUnsupportedPlaintextShape(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindUnsupportedPlaintextShape
}

// IsPolynomialTooLong reports whether err is a ring dimension overflow.
func IsPolynomialTooLong(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindPolynomialTooLong
}

// IsInvalidPlainModulus reports whether err rejects plain_modulus <= 1.
func IsInvalidPlainModulus(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindInvalidPlainModulus
}
