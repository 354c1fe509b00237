package ir

import (
	"fmt"
	"math/bits"
	"slices"
)

// SchemeType identifies the homomorphic encryption scheme.
// Only BFV is supported.
type SchemeType string

const (
	// SchemeBFV is the Brakerski/Fan-Vercauteren modular arithmetic scheme.
	SchemeBFV SchemeType = "bfv"
)

// SecurityLevel tags the classical security level of a parameter set.
type SecurityLevel string

const (
	SecurityTC128 SecurityLevel = "tc128"
	SecurityTC192 SecurityLevel = "tc192"
	SecurityTC256 SecurityLevel = "tc256"
)

// ValidSecurityLevels defines allowed security level tags.
var ValidSecurityLevels = map[SecurityLevel]bool{
	SecurityTC128: true,
	SecurityTC192: true,
	SecurityTC256: true,
}

// Params is an immutable scheme parameter set.
//
// Field names and order are a stable external contract: the encoder, the
// native backend and the parameter search all serialize this struct.
// Params are not validated for cryptographic correctness here; that belongs
// to parameter search.
type Params struct {
	LatticeDimension uint64        `json:"lattice_dimension" yaml:"lattice_dimension"`
	CoeffModulus     []uint64      `json:"coeff_modulus" yaml:"coeff_modulus"`
	PlainModulus     uint64        `json:"plain_modulus" yaml:"plain_modulus"`
	SchemeType       SchemeType    `json:"scheme_type" yaml:"scheme_type"`
	SecurityLevel    SecurityLevel `json:"security_level" yaml:"security_level"`
}

// Equal reports whether p and other describe the same parameter set.
func (p Params) Equal(other Params) bool {
	return p.LatticeDimension == other.LatticeDimension &&
		p.PlainModulus == other.PlainModulus &&
		p.SchemeType == other.SchemeType &&
		p.SecurityLevel == other.SecurityLevel &&
		slices.Equal(p.CoeffModulus, other.CoeffModulus)
}

// Clone returns a deep copy so callers cannot alias the modulus slice.
func (p Params) Clone() Params {
	p.CoeffModulus = slices.Clone(p.CoeffModulus)
	return p
}

// LogQ returns the sum of floor(log2(q_i)) over the coefficient moduli.
func (p Params) LogQ() int {
	total := 0
	for _, q := range p.CoeffModulus {
		if q == 0 {
			continue
		}
		total += bits.Len64(q) - 1
	}
	return total
}

// CheckShape verifies the structural invariants the codec and builder rely on:
// plaintext modulus > 1 and a power-of-two ring dimension.
func (p Params) CheckShape() error {
	if p.PlainModulus <= 1 {
		return fmt.Errorf("plain_modulus must be > 1, got %d", p.PlainModulus)
	}
	if p.LatticeDimension == 0 || p.LatticeDimension&(p.LatticeDimension-1) != 0 {
		return fmt.Errorf("lattice_dimension must be a power of two, got %d", p.LatticeDimension)
	}
	if len(p.CoeffModulus) == 0 {
		return fmt.Errorf("coeff_modulus must not be empty")
	}
	return nil
}

func (p Params) String() string {
	return fmt.Sprintf("%s(n=%d, t=%d, log(q)=%d, %s)",
		p.SchemeType, p.LatticeDimension, p.PlainModulus, p.LogQ(), p.SecurityLevel)
}
