package ir

import "slices"

// Polynomial is an ordered coefficient list, lowest degree first.
// Its length never exceeds the ring dimension of the parameter set it was
// encoded under.
type Polynomial struct {
	Coefficients []uint64 `json:"coefficients"`
}

// Len returns the number of stored coefficients.
func (p Polynomial) Len() int {
	return len(p.Coefficients)
}

// Plaintext is a codec-produced plaintext value: a logical type tag plus one
// polynomial per ciphertext component.
type Plaintext struct {
	DataType    string       `json:"data_type"`
	Polynomials []Polynomial `json:"polynomials"`
}

// Equal reports whether two plaintexts carry the same type and coefficients.
func (p Plaintext) Equal(other Plaintext) bool {
	if p.DataType != other.DataType || len(p.Polynomials) != len(other.Polynomials) {
		return false
	}
	for i := range p.Polynomials {
		if !slices.Equal(p.Polynomials[i].Coefficients, other.Polynomials[i].Coefficients) {
			return false
		}
	}
	return true
}
