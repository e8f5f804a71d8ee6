package testutil

import (
	"fmt"
	"sync"
)

// SequentialIDs generates request ids "req-1", "req-2", ... in call order.
//
// Thread-safety: Next is safe for concurrent use.
type SequentialIDs struct {
	mu  sync.Mutex
	n   int
	pre string
}

// NewSequentialIDs creates a generator. An empty prefix defaults to "req".
func NewSequentialIDs(prefix string) *SequentialIDs {
	if prefix == "" {
		prefix = "req"
	}
	return &SequentialIDs{pre: prefix}
}

// Next returns the next id.
func (g *SequentialIDs) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.pre, g.n)
}
