package testutil

import (
	"fmt"
	"sync"
)

// SequentialIDs returns prefix-1, prefix-2, ... in call order, so tests
// can assert on generated token and user IDs.
type SequentialIDs struct {
	mu     sync.Mutex
	prefix string
	next   int
}

func NewSequentialIDs(prefix string) *SequentialIDs {
	if prefix == "" {
		prefix = "id"
	}
	return &SequentialIDs{prefix: prefix}
}

func (g *SequentialIDs) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	return fmt.Sprintf("%s-%d", g.prefix, g.next)
}

// Reset makes the next NewID return prefix-1 again.
func (g *SequentialIDs) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next = 0
}
