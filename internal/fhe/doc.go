// Package fhe is the typed operator layer over circuit.Builder.
//
// Handles carry node ids and a static logical type. Every entry point checks
// that each operand holds exactly the type's component count, delegates to
// the Builder, and returns a handle carrying the left operand's type.
// Constants are encoded with the scope's parameter set and inserted as
// plaintext literals.
//
//	circuit.Build(params, func(b *circuit.Builder) error {
//	    a := fhe.Input[fhe.Signed](b)
//	    c := fhe.Input[fhe.Signed](b)
//	    fhe.Output(b, fhe.MulConst(b, fhe.Add(b, a, c), fhe.Signed(-3)))
//	    return nil
//	})
package fhe
