package pull

import "sync"

// Ref is a generic mutable cell with atomic modify semantics, the
// Ref[T] collaborator the interpreter and scope tree are built against.
// It is guarded by a plain mutex rather than lock-free atomics: every
// mutation the scope tree performs (register, close, lease accounting)
// is a short, allocation-light critical section, the same trade-off the
// teacher makes for its scope maps.
type Ref[T any] struct {
	mu  sync.Mutex
	val T
}

// NewRef creates a Ref holding the given initial value.
func NewRef[T any](initial T) *Ref[T] {
	return &Ref[T]{val: initial}
}

// Get returns the current value.
func (r *Ref[T]) Get() T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.val
}

// Set unconditionally replaces the value and returns the previous one.
func (r *Ref[T]) Set(next T) (prev T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev = r.val
	r.val = next
	return prev
}

// Modify applies f to the current value under the lock, storing and
// returning both the previous and the resulting value.
func (r *Ref[T]) Modify(f func(T) T) (prev, now T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev = r.val
	r.val = f(r.val)
	return prev, r.val
}

// Modify2 is Modify extended with a side channel: f also returns an
// arbitrary extra value A, handed back to the caller alongside prev/now.
// This is what CompileScope.close uses to both flip open->closed and
// snapshot (resources, children) in one atomic step.
func Modify2[T any, A any](r *Ref[T], f func(T) (T, A)) (prev, now T, extra A) {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev = r.val
	next, a := f(r.val)
	r.val = next
	return prev, r.val, a
}
