package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainProgram = "fhegraph/program/v1"
	DomainTrace   = "fhegraph/trace/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte (0x00) separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ProgramHash computes the content hash of a compiled circuit.
//
// Only the parameter set, the logical type and the graph take part: the
// program ID, its name and its debug info are excluded so the same circuit
// built from different call sites hashes identically.
func ProgramHash(params Params, dataType string, g Graph) (string, error) {
	obj := map[string]any{
		"params":    params,
		"data_type": dataType,
		"graph":     g,
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("ProgramHash: failed to marshal: %w", err)
	}

	return hashWithDomain(DomainProgram, canonical), nil
}

// TraceHash computes the content hash of a frame sequence.
// Byte-identical traces yield identical hashes.
func TraceHash(frames []StackFrame) (string, error) {
	canonical, err := MarshalCanonical(frames)
	if err != nil {
		return "", fmt.Errorf("TraceHash: failed to marshal: %w", err)
	}

	return hashWithDomain(DomainTrace, canonical), nil
}

// MustProgramHash is like ProgramHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustProgramHash(params Params, dataType string, g Graph) string {
	h, err := ProgramHash(params, dataType, g)
	if err != nil {
		panic(err)
	}
	return h
}
