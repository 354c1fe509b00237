package ir

// Version constants for IR schema and compiler.
const (
	// IRVersion is the program IR schema version.
	IRVersion = "1"

	// CompilerVersion is the fhegraph compiler version.
	CompilerVersion = "0.1.0"
)
