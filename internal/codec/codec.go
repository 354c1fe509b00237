package codec

import (
	"fmt"
	"math/bits"

	"github.com/roach88/fhegraph/internal/ir"
)

// Data type tags carried by encoded plaintexts.
const (
	DataTypeSigned   = "Signed"
	DataTypeUnsigned = "Unsigned"
)

// UnsignedWidth is the coefficient count of an encoded unsigned value.
const UnsignedWidth = 64

// EncodeUnsigned encodes v as 64 binary coefficients.
func EncodeUnsigned(v uint64, p ir.Params) (ir.Plaintext, error) {
	if err := checkEncode(DataTypeUnsigned, UnsignedWidth, p); err != nil {
		return ir.Plaintext{}, err
	}

	coeffs := make([]uint64, UnsignedWidth)
	for i := range coeffs {
		coeffs[i] = (v >> i) & 1
	}
	return single(DataTypeUnsigned, coeffs), nil
}

// DecodeUnsigned sums c_i * 2^i over the first 64 coefficients. Coefficients
// are taken verbatim, so values produced by homomorphic arithmetic carry
// into higher bits.
func DecodeUnsigned(pt ir.Plaintext, p ir.Params) (uint64, error) {
	poly, err := checkDecode(DataTypeUnsigned, pt, p)
	if err != nil {
		return 0, err
	}

	var v uint64
	n := min(UnsignedWidth, poly.Len())
	for i := 0; i < n; i++ {
		v += poly.Coefficients[i] << i
	}
	return v, nil
}

// EncodeSigned encodes v with one coefficient per significant bit of |v|.
// Zero encodes to an empty polynomial.
func EncodeSigned(v int64, p ir.Params) (ir.Plaintext, error) {
	// Unsigned negation keeps math.MinInt64 exact.
	mag := uint64(v)
	negative := v < 0
	if negative {
		mag = -mag
	}

	n := bits.Len64(mag)
	if err := checkEncode(DataTypeSigned, n, p); err != nil {
		return ir.Plaintext{}, err
	}

	one := uint64(1)
	if negative {
		one = p.PlainModulus - 1
	}

	coeffs := make([]uint64, n)
	for i := range coeffs {
		if (mag>>i)&1 == 1 {
			coeffs[i] = one
		}
	}
	return single(DataTypeSigned, coeffs), nil
}

// DecodeSigned reads coefficients below (t+1)/2 as positive and the rest as
// negative: c contributes +c*2^i or -(t-c)*2^i. At most 64 coefficients are
// examined.
func DecodeSigned(pt ir.Plaintext, p ir.Params) (int64, error) {
	poly, err := checkDecode(DataTypeSigned, pt, p)
	if err != nil {
		return 0, err
	}

	t := p.PlainModulus
	// (t+1)/2 without overflowing at t = math.MaxUint64.
	cutoff := t/2 + t%2

	// Two's complement wraparound in uint64 keeps math.MinInt64 exact.
	var v uint64
	n := min(UnsignedWidth, poly.Len())
	for i := 0; i < n; i++ {
		c := poly.Coefficients[i]
		if c < cutoff {
			v += c << i
		} else {
			v -= (t - c) << i
		}
	}
	return int64(v), nil
}

func single(dataType string, coeffs []uint64) ir.Plaintext {
	return ir.Plaintext{
		DataType:    dataType,
		Polynomials: []ir.Polynomial{{Coefficients: coeffs}},
	}
}

func checkModulus(dataType string, p ir.Params) error {
	if p.PlainModulus <= 1 {
		return &Error{
			Kind:     KindInvalidPlainModulus,
			DataType: dataType,
			Message:  fmt.Sprintf("plain_modulus must be > 1, got %d", p.PlainModulus),
		}
	}
	return nil
}

func checkEncode(dataType string, length int, p ir.Params) error {
	if err := checkModulus(dataType, p); err != nil {
		return err
	}
	if uint64(length) > p.LatticeDimension {
		return &Error{
			Kind:     KindPolynomialTooLong,
			DataType: dataType,
			Message:  fmt.Sprintf("%d coefficients exceed lattice dimension %d", length, p.LatticeDimension),
		}
	}
	return nil
}

func checkDecode(dataType string, pt ir.Plaintext, p ir.Params) (ir.Polynomial, error) {
	if err := checkModulus(dataType, p); err != nil {
		return ir.Polynomial{}, err
	}
	if len(pt.Polynomials) != 1 {
		return ir.Polynomial{}, &Error{
			Kind:     KindUnsupportedPlaintextShape,
			DataType: dataType,
			Message:  fmt.Sprintf("expected 1 polynomial, got %d", len(pt.Polynomials)),
			Err:      ErrWrongCiphertextCount,
		}
	}
	if pt.DataType != dataType {
		return ir.Polynomial{}, &Error{
			Kind:     KindUnsupportedPlaintextShape,
			DataType: dataType,
			Message:  fmt.Sprintf("plaintext is tagged %q", pt.DataType),
		}
	}
	return pt.Polynomials[0], nil
}
