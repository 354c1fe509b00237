package testutil

import (
	"fmt"
	"sync"
)

// FixedIDGenerator returns the same program id every time.
//
// The same circuit compiled with the same FixedIDGenerator produces a
// byte-identical program, which golden snapshots rely on.
//
// Thread-safety: FixedIDGenerator is stateless and safe for concurrent use.
type FixedIDGenerator struct {
	id string
}

// NewFixedIDGenerator creates a generator for id. If id is empty, Generate
// returns "test-program-default".
func NewFixedIDGenerator(id string) *FixedIDGenerator {
	if id == "" {
		id = "test-program-default"
	}
	return &FixedIDGenerator{id: id}
}

// Generate returns the fixed id.
//
// Implements compiler.IDGenerator.
func (g *FixedIDGenerator) Generate() string {
	return g.id
}

// SequenceGenerator hands out ids of the form "<prefix>-0001", "<prefix>-0002", ...
//
// Unlike compiler.FixedGenerator it never runs out, so a batch of circuits of
// any size compiles to the same ids on every run.
//
// Thread-safety: all methods are safe for concurrent use.
type SequenceGenerator struct {
	mu     sync.Mutex
	prefix string
	seq    int64
}

// NewSequenceGenerator creates a generator whose first id ends in 0001.
func NewSequenceGenerator(prefix string) *SequenceGenerator {
	return &SequenceGenerator{prefix: prefix}
}

// Generate returns the next id.
func (g *SequenceGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return fmt.Sprintf("%s-%04d", g.prefix, g.seq)
}
