package pull

import (
	"fmt"
	"sync/atomic"
)

// tokenCounter is the process-wide monotonic source for Token identity,
// the same primitive the teacher uses for its execution-id counter.
var tokenCounter atomic.Uint64

// Token is an opaque, globally unique identity for scopes and resources.
// Equality is identity; a Token carries no other structure.
type Token struct {
	id uint64
}

// NewToken returns a fresh Token, distinct from every Token returned
// before or after it within the process.
func NewToken() Token {
	return Token{id: tokenCounter.Add(1)}
}

// String renders the token for debug logs and the scope-tree visualizer.
func (t Token) String() string {
	return fmt.Sprintf("tok-%d", t.id)
}
