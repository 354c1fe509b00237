package fhe

import (
	"slices"

	"github.com/roach88/fhegraph/internal/ir"
)

// Cipher is a handle to an encrypted value of type T. It is a plain value:
// copying it copies node ids, never graph storage.
type Cipher[T Type] struct {
	ids []ir.NodeID
}

// Plain is a handle to an unencrypted value of type T.
type Plain[T Type] struct {
	ids []ir.NodeID
}

// CipherFromNodes wraps existing node ids. The ids are not checked until the
// handle is used as an operand.
func CipherFromNodes[T Type](ids ...ir.NodeID) Cipher[T] {
	return Cipher[T]{ids: slices.Clone(ids)}
}

// PlainFromNodes wraps existing node ids.
func PlainFromNodes[T Type](ids ...ir.NodeID) Plain[T] {
	return Plain[T]{ids: slices.Clone(ids)}
}

// Nodes returns a copy of the handle's node ids.
func (c Cipher[T]) Nodes() []ir.NodeID { return slices.Clone(c.ids) }

// TypeName returns the data_type tag of T.
func (c Cipher[T]) TypeName() string { return TypeNameOf[T]() }

// Nodes returns a copy of the handle's node ids.
func (p Plain[T]) Nodes() []ir.NodeID { return slices.Clone(p.ids) }

// TypeName returns the data_type tag of T.
func (p Plain[T]) TypeName() string { return TypeNameOf[T]() }
