package testutil

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedIDGenerator_ReturnsSameID(t *testing.T) {
	gen := NewFixedIDGenerator("prog-123")

	assert.Equal(t, "prog-123", gen.Generate())
	assert.Equal(t, "prog-123", gen.Generate())
}

func TestFixedIDGenerator_EmptyIDDefault(t *testing.T) {
	assert.Equal(t, "test-program-default", NewFixedIDGenerator("").Generate())
}

func TestSequenceGenerator_Sequence(t *testing.T) {
	gen := NewSequenceGenerator("run")
	assert.Equal(t, "run-0001", gen.Generate())
	assert.Equal(t, "run-0002", gen.Generate())

	other := NewSequenceGenerator("run")
	assert.Equal(t, "run-0001", other.Generate(), "generators do not share state")
}

func TestSequenceGenerator_ConcurrentUnique(t *testing.T) {
	gen := NewSequenceGenerator("c")

	const goroutines, perGoroutine = 10, 100
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[string]bool)
	)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				id := gen.Generate()
				mu.Lock()
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Len(t, seen, goroutines*perGoroutine)
	assert.Equal(t, fmt.Sprintf("c-%04d", goroutines*perGoroutine+1), gen.Generate())
}

func TestParams(t *testing.T) {
	p := Params()
	require.NoError(t, p.CheckShape())
	assert.Equal(t, uint64(4096), p.PlainModulus)
}
