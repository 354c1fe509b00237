// Package codec maps native integers to BFV plaintext polynomials and back.
//
// Values are encoded in binary, one bit per coefficient, lowest bit first.
// Unsigned values always occupy 64 coefficients. Signed values use the
// minimal number of coefficients for their magnitude, and a negative value
// stores each set bit as plain_modulus-1, which is -1 mod t. Decoding reads
// coefficients at or above (t+1)/2 as negative.
package codec
