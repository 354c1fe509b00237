package fhe

import (
	"fmt"

	"github.com/roach88/fhegraph/internal/circuit"
	"github.com/roach88/fhegraph/internal/ir"
)

type emitFunc func(left, right ir.NodeID) ir.NodeID

// invalid returns ids of the right length so a failed operation does not
// cascade into further component count errors.
func invalid[T Type]() []ir.NodeID {
	var zero T
	ids := make([]ir.NodeID, zero.Components())
	for i := range ids {
		ids[i] = ir.InvalidNode
	}
	return ids
}

func checkCount[T Type](b *circuit.Builder, op, operand string, ids []ir.NodeID) bool {
	var zero T
	if len(ids) == zero.Components() {
		return true
	}
	b.Fail(&Error{Op: op, TypeName: zero.TypeName(), Operand: operand, Want: zero.Components(), Got: len(ids)})
	return false
}

func binary[T Type](b *circuit.Builder, op string, left, right []ir.NodeID, emit emitFunc) []ir.NodeID {
	if !checkCount[T](b, op, "left", left) || !checkCount[T](b, op, "right", right) {
		return invalid[T]()
	}
	out := make([]ir.NodeID, len(left))
	for i := range left {
		out[i] = emit(left[i], right[i])
	}
	return out
}

func unary[T Type](b *circuit.Builder, op string, x []ir.NodeID, emit func(ir.NodeID) ir.NodeID) []ir.NodeID {
	if !checkCount[T](b, op, "operand", x) {
		return invalid[T]()
	}
	out := make([]ir.NodeID, len(x))
	for i, id := range x {
		out[i] = emit(id)
	}
	return out
}

// constant encodes v under the scope's parameters and appends one literal
// per component.
func constant[T Type](b *circuit.Builder, op string, v T) []ir.NodeID {
	pts, err := v.Encode(b.Params())
	if err != nil {
		b.Fail(fmt.Errorf("fhe: %s: encode constant %v: %w", op, v, err))
		return invalid[T]()
	}
	ids := make([]ir.NodeID, len(pts))
	for i, pt := range pts {
		ids[i] = b.AddPlaintextLiteral(pt)
	}
	return ids
}

// negated wraps emit so the result is negate(emit(l, r)).
func negated(b *circuit.Builder, emit emitFunc) emitFunc {
	return func(l, r ir.NodeID) ir.NodeID {
		return b.AddNegate(emit(l, r))
	}
}

// Input appends a ciphertext input of type T.
func Input[T Type](b *circuit.Builder) Cipher[T] {
	var zero T
	ids := make([]ir.NodeID, zero.Components())
	for i := range ids {
		ids[i] = b.AddInput(circuit.CiphertextInput)
	}
	return Cipher[T]{ids: ids}
}

// PlainInput appends a plaintext input of type T.
func PlainInput[T Type](b *circuit.Builder) Plain[T] {
	var zero T
	ids := make([]ir.NodeID, zero.Components())
	for i := range ids {
		ids[i] = b.AddInput(circuit.PlaintextInput)
	}
	return Plain[T]{ids: ids}
}

// Literal appends v as a plaintext constant.
func Literal[T Type](b *circuit.Builder, v T) Plain[T] {
	return Plain[T]{ids: constant(b, "Literal", v)}
}

// Output marks x as a circuit output and returns the output node ids.
func Output[T Type](b *circuit.Builder, x Cipher[T]) []ir.NodeID {
	return unary[T](b, "Output", x.ids, b.AddOutput)
}

// Add returns x + y.
func Add[T Type](b *circuit.Builder, x, y Cipher[T]) Cipher[T] {
	return Cipher[T]{ids: binary[T](b, "Add", x.ids, y.ids, b.AddAddition)}
}

// AddPlain returns x + y.
func AddPlain[T Type](b *circuit.Builder, x Cipher[T], y Plain[T]) Cipher[T] {
	return Cipher[T]{ids: binary[T](b, "AddPlain", x.ids, y.ids, b.AddAdditionPlaintext)}
}

// PlainAdd returns x + y, emitted as y + x.
func PlainAdd[T Type](b *circuit.Builder, x Plain[T], y Cipher[T]) Cipher[T] {
	return Cipher[T]{ids: binary[T](b, "PlainAdd", y.ids, x.ids, b.AddAdditionPlaintext)}
}

// AddConst returns x + v.
func AddConst[T Type](b *circuit.Builder, x Cipher[T], v T) Cipher[T] {
	return AddPlain(b, x, Plain[T]{ids: constant(b, "AddConst", v)})
}

// ConstAdd returns v + x, emitted as x + v.
func ConstAdd[T Type](b *circuit.Builder, v T, x Cipher[T]) Cipher[T] {
	return PlainAdd(b, Plain[T]{ids: constant(b, "ConstAdd", v)}, x)
}

// Sub returns x - y.
func Sub[T Type](b *circuit.Builder, x, y Cipher[T]) Cipher[T] {
	return Cipher[T]{ids: binary[T](b, "Sub", x.ids, y.ids, b.AddSubtraction)}
}

// SubPlain returns x - y.
func SubPlain[T Type](b *circuit.Builder, x Cipher[T], y Plain[T]) Cipher[T] {
	return Cipher[T]{ids: binary[T](b, "SubPlain", x.ids, y.ids, b.AddSubtractionPlaintext)}
}

// PlainSub returns x - y, emitted as negate(y - x).
func PlainSub[T Type](b *circuit.Builder, x Plain[T], y Cipher[T]) Cipher[T] {
	return Cipher[T]{ids: binary[T](b, "PlainSub", y.ids, x.ids, negated(b, b.AddSubtractionPlaintext))}
}

// SubConst returns x - v.
func SubConst[T Type](b *circuit.Builder, x Cipher[T], v T) Cipher[T] {
	return SubPlain(b, x, Plain[T]{ids: constant(b, "SubConst", v)})
}

// ConstSub returns v - x, emitted as negate(x - v).
func ConstSub[T Type](b *circuit.Builder, v T, x Cipher[T]) Cipher[T] {
	return PlainSub(b, Plain[T]{ids: constant(b, "ConstSub", v)}, x)
}

// Mul returns x * y.
func Mul[T Type](b *circuit.Builder, x, y Cipher[T]) Cipher[T] {
	return Cipher[T]{ids: binary[T](b, "Mul", x.ids, y.ids, b.AddMultiplication)}
}

// MulPlain returns x * y.
func MulPlain[T Type](b *circuit.Builder, x Cipher[T], y Plain[T]) Cipher[T] {
	return Cipher[T]{ids: binary[T](b, "MulPlain", x.ids, y.ids, b.AddMultiplicationPlaintext)}
}

// PlainMul returns x * y, emitted as y * x.
func PlainMul[T Type](b *circuit.Builder, x Plain[T], y Cipher[T]) Cipher[T] {
	return Cipher[T]{ids: binary[T](b, "PlainMul", y.ids, x.ids, b.AddMultiplicationPlaintext)}
}

// MulConst returns x * v.
func MulConst[T Type](b *circuit.Builder, x Cipher[T], v T) Cipher[T] {
	return MulPlain(b, x, Plain[T]{ids: constant(b, "MulConst", v)})
}

// ConstMul returns v * x, emitted as x * v.
func ConstMul[T Type](b *circuit.Builder, v T, x Cipher[T]) Cipher[T] {
	return PlainMul(b, Plain[T]{ids: constant(b, "ConstMul", v)}, x)
}

// Neg returns -x.
func Neg[T Type](b *circuit.Builder, x Cipher[T]) Cipher[T] {
	return Cipher[T]{ids: unary[T](b, "Neg", x.ids, b.AddNegate)}
}
