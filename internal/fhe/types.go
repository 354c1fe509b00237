package fhe

import (
	"github.com/roach88/fhegraph/internal/codec"
	"github.com/roach88/fhegraph/internal/ir"
)

// Type is the set of logical value types a circuit can carry. The value of a
// Type is also the native constant used in *Const operations.
type Type interface {
	Signed | Unsigned

	// TypeName is the data_type tag of encoded plaintexts.
	TypeName() string

	// Components is the number of ciphertexts one value occupies.
	Components() int

	// Encode produces one plaintext per component.
	Encode(p ir.Params) ([]ir.Plaintext, error)
}

// Signed is a 64-bit two's complement integer.
type Signed int64

func (Signed) TypeName() string { return codec.DataTypeSigned }
func (Signed) Components() int  { return 1 }

func (v Signed) Encode(p ir.Params) ([]ir.Plaintext, error) {
	pt, err := codec.EncodeSigned(int64(v), p)
	if err != nil {
		return nil, err
	}
	return []ir.Plaintext{pt}, nil
}

// Unsigned is a 64-bit unsigned integer.
type Unsigned uint64

func (Unsigned) TypeName() string { return codec.DataTypeUnsigned }
func (Unsigned) Components() int  { return 1 }

func (v Unsigned) Encode(p ir.Params) ([]ir.Plaintext, error) {
	pt, err := codec.EncodeUnsigned(uint64(v), p)
	if err != nil {
		return nil, err
	}
	return []ir.Plaintext{pt}, nil
}

// Decode converts decrypted plaintexts back into a T.
func Decode[T Type](pts []ir.Plaintext, p ir.Params) (T, error) {
	var zero T
	if len(pts) != zero.Components() {
		return zero, &Error{Op: "Decode", TypeName: zero.TypeName(), Operand: "plaintexts", Want: zero.Components(), Got: len(pts)}
	}

	switch any(zero).(type) {
	case Signed:
		v, err := codec.DecodeSigned(pts[0], p)
		return T(v), err
	default:
		v, err := codec.DecodeUnsigned(pts[0], p)
		return T(v), err
	}
}

// TypeNameOf returns the data_type tag of T.
func TypeNameOf[T Type]() string {
	var zero T
	return zero.TypeName()
}
