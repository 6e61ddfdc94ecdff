package pull

// scopeState is the mutable half of a CompileScope, always mutated
// through stateRef so close can snapshot it atomically.
type scopeState struct {
	open      bool
	resources []*Resource      // prepended: iteration order == reverse-acquisition order
	children  []*CompileScope  // prepended: most recently opened child first
}

// CompileScope is a node in the scope tree: it owns a set of registered
// resources and child scopes, plus an optional InterruptContext shared
// with (or shadowed from) its ancestors.
type CompileScope struct {
	ID     Token
	Name   string // debug-only, set via WithScopeName
	parent *CompileScope

	// interrupt is non-nil iff this scope (or an ancestor it inherited
	// from) is interruptible. ownsInterrupt is true only for the scope
	// that created it — the one whose InterruptScopeID equals ID.
	interrupt     *InterruptContext
	ownsInterrupt bool

	observer Observer

	state *Ref[scopeState]
}

// CompileScopeOption configures a newly opened scope.
type CompileScopeOption func(*CompileScope)

// WithScopeName attaches a debug name, rendered by the scopetree
// extensions package's tree visualizer.
func WithScopeName(name string) CompileScopeOption {
	return func(s *CompileScope) { s.Name = name }
}

// ExecArgs carries the executor a newly interruptible scope will race
// effects against. Passing a non-nil ExecArgs to Open makes the child
// scope the root of a fresh interrupt sub-tree.
type ExecArgs struct {
	Executor Executor
}

// NewRootScope creates the root of a scope tree. The root is never
// interruptible by construction; callers wanting an interruptible root
// should immediately Open a child with ExecArgs.
func NewRootScope(opts ...CompileScopeOption) *CompileScope {
	s := &CompileScope{
		ID:       NewToken(),
		observer: defaultObserver,
		state:    NewRef(scopeState{open: true}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.observer.OnScopeOpen(s)
	return s
}

// Register atomically prepends r to this scope's resources if the scope
// is still open, reporting whether it succeeded.
func (s *CompileScope) Register(r *Resource) bool {
	_, now := s.state.Modify(func(st scopeState) scopeState {
		if !st.open {
			return st
		}
		st.resources = append([]*Resource{r}, st.resources...)
		return st
	})
	// Registration succeeded iff r ended up at the front of the list;
	// cheaper than threading a bool through Modify since this scope's
	// own goroutine is the only one that could have prepended since.
	return len(now.resources) > 0 && now.resources[0] == r
}

// AcquireResource runs acquire, installs release as its finalizer, and
// registers the result as a Resource owned by s. It's a free function
// (not a method) because Go forbids type parameters on methods; this
// mirrors the teacher's own Resolve/Update top-level generic functions
// taking *Scope as their first argument.
func AcquireResource[R any](s *CompileScope, acquire func() (R, error), release func(R) error) (R, Token, error) {
	var zero R
	res := NewResource()
	if !s.Register(res) {
		return zero, Token{}, &AcquireAfterScopeClosedError{ScopeID: s.ID}
	}

	val, err := acquire()
	if err != nil {
		relErr := s.ReleaseResource(res.ID)
		return zero, Token{}, NewCompositeFailure(err, relErr)
	}

	if acqErr := res.Acquired(func() error { return release(val) }); acqErr != nil {
		return zero, res.ID, acqErr
	}
	s.observer.OnResourceAcquire(s, res.ID)
	return val, res.ID, nil
}

// ReleaseResource removes the resource with id from s.resources (if
// still present — it may already have been released concurrently, or
// leased away) and runs its release.
func (s *CompileScope) ReleaseResource(id Token) error {
	var found *Resource
	s.state.Modify(func(st scopeState) scopeState {
		for i, r := range st.resources {
			if r.ID == id {
				found = r
				st.resources = append(append([]*Resource{}, st.resources[:i]...), st.resources[i+1:]...)
				return st
			}
		}
		return st
	})
	if found == nil {
		return nil
	}
	err := found.Release()
	s.observer.OnResourceRelease(s, id, err)
	return err
}

// Open creates a child scope. If s is open: a new Token is allocated, an
// InterruptContext is created when ia is non-nil (otherwise s's context,
// if any, is inherited by reference), the child is prepended to s's
// children and returned. If s is already closed, Open delegates to the
// nearest open ancestor; IllegalStateError if none exists (a closed
// root).
func (s *CompileScope) Open(ia *ExecArgs, opts ...CompileScopeOption) (*CompileScope, error) {
	child := &CompileScope{parent: s, observer: s.observer}
	var opened bool
	s.state.Modify(func(st scopeState) scopeState {
		if !st.open {
			return st
		}
		opened = true
		child.ID = NewToken()
		if ia != nil {
			child.interrupt = NewInterruptContext(ia.Executor, child.ID)
			child.ownsInterrupt = true
		} else {
			child.interrupt = s.interrupt
		}
		st.children = append([]*CompileScope{child}, st.children...)
		return st
	})
	if !opened {
		anc := s.openAncestorLocked()
		if anc == nil {
			return nil, &IllegalStateError{Reason: "open on closed root scope with no open ancestor"}
		}
		return anc.Open(ia, opts...)
	}
	for _, opt := range opts {
		opt(child)
	}
	child.observer.OnScopeOpen(child)
	return child, nil
}

// ReleaseChildScope unregisters the child with id from s.children. No
// finalization happens here — the child is expected to have already
// closed itself.
func (s *CompileScope) ReleaseChildScope(id Token) {
	s.state.Modify(func(st scopeState) scopeState {
		for i, c := range st.children {
			if c.ID == id {
				st.children = append(append([]*CompileScope{}, st.children[:i]...), st.children[i+1:]...)
				return st
			}
		}
		return st
	})
}

// Close transitions s to closed (idempotent: a second call is a no-op
// returning nil), then — outside the lock — closes every child
// (recursively, most recently opened first), releases every resource in
// reverse-acquisition order, and unregisters from its parent. Errors
// from all of that are combined with NewCompositeFailure: nil when there
// are none, the error itself when there is one, a CompositeFailure
// otherwise.
func (s *CompileScope) Close() error {
	prev, _, snapshot := Modify2(s.state, func(st scopeState) (scopeState, scopeState) {
		wasOpen := st.open
		captured := st
		st.open = false
		if wasOpen {
			st.resources = nil
			st.children = nil
		}
		return st, captured
	})
	if !prev.open {
		return nil
	}

	var errs []error
	for _, child := range snapshot.children {
		if err := child.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	for _, res := range snapshot.resources {
		if err := res.Release(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.parent != nil {
		s.parent.ReleaseChildScope(s.ID)
	}
	closeErr := NewCompositeFailure(errs...)
	s.observer.OnScopeClose(s, closeErr)
	return closeErr
}

// openAncestorLocked walks parent pointers looking for the nearest open
// scope, without re-entering s.Open's own Modify (used only from the
// already-closed branch of Open, so s itself is known closed).
func (s *CompileScope) openAncestorLocked() *CompileScope {
	for cur := s.parent; cur != nil; cur = cur.parent {
		if cur.state.Get().open {
			return cur
		}
	}
	return nil
}

// OpenAncestor walks parent pointers until an open scope is found;
// returns s itself if it has no parent.
func (s *CompileScope) OpenAncestor() *CompileScope {
	if s.state.Get().open {
		return s
	}
	if anc := s.openAncestorLocked(); anc != nil {
		return anc
	}
	return s
}

// Snapshot returns the current children and registered resource IDs of
// s, for debug rendering (the scopetree extensions package's tree
// visualizer). It's a point-in-time copy; the live tree may change
// immediately after the call returns.
func (s *CompileScope) Snapshot() (open bool, children []*CompileScope, resources []Token) {
	st := s.state.Get()
	children = append(children, st.children...)
	for _, r := range st.resources {
		resources = append(resources, r.ID)
	}
	return st.open, children, resources
}

// HasAncestor reports whether any strict ancestor of s has the given id.
func (s *CompileScope) HasAncestor(id Token) bool {
	for cur := s.parent; cur != nil; cur = cur.parent {
		if cur.ID == id {
			return true
		}
	}
	return false
}

// Lease snapshots the resources of s, s's direct children, and all of
// s's ancestors, and leases every one of them, returning a composite
// handle. Returns nil if s is already closed at the moment of the call
// — the open question spec.md §9 leaves unresolved, pinned here:
// concurrent close always wins the race against a late Lease.
func (s *CompileScope) Lease() *Lease {
	st := s.state.Get()
	if !st.open {
		return nil
	}

	var resources []*Resource
	resources = append(resources, st.resources...)
	for _, child := range st.children {
		resources = append(resources, child.state.Get().resources...)
	}
	for anc := s.parent; anc != nil; anc = anc.parent {
		resources = append(resources, anc.state.Get().resources...)
	}

	leases := make([]*Lease, 0, len(resources))
	for _, r := range resources {
		if l := r.Lease(); l != nil {
			leases = append(leases, l)
		}
	}
	return combineLeases(leases)
}

// Interrupt signals this scope's InterruptContext with cause (or a
// synthesized InterruptedError if cause is nil), exactly once. It
// returns IllegalStateError if the scope isn't interruptible.
func (s *CompileScope) Interrupt(cause error) error {
	if s.interrupt == nil {
		return &IllegalStateError{Reason: "interrupt on non-interruptible scope " + s.ID.String()}
	}
	if cause == nil {
		cause = &InterruptedError{ScopeID: s.interrupt.InterruptScopeID, Loop: 0}
	}
	s.interrupt.Signal(cause)
	if ie, ok := cause.(*InterruptedError); ok {
		s.observer.OnInterrupt(s, ie)
	}
	return nil
}

// IsInterrupted reports whether s is interruptible and its context's
// interrupt cause has been set (without consuming it).
func (s *CompileScope) IsInterrupted() bool {
	return s.interrupt != nil && s.interrupt.cause() != nil
}

// ShallInterrupt is the interpreter's pre-step probe: it consumes the
// interrupt cause at most once, returning it the first time after
// Interrupt has fired and nil on every call after (or when s isn't
// interruptible at all).
func (s *CompileScope) ShallInterrupt() error {
	if s.interrupt == nil {
		return nil
	}
	cause, ok := s.interrupt.Consume()
	if !ok {
		return nil
	}
	return cause
}

// InterruptibleEval runs fx, racing it against the interrupt promise on
// s's Executor when s is interruptible and not yet signalled. If fx wins
// the race its result is returned as-is; if the interrupt wins,
// signalled flips to true (so ShallInterrupt can't also deliver it) and
// the interrupt cause is returned as an error.
func InterruptibleEval[R any](s *CompileScope, fx func() (R, error)) (R, error) {
	if s.interrupt == nil || s.interrupt.isSignalled() {
		return fx()
	}

	ic := s.interrupt
	type outcome struct {
		val R
		err error
	}
	resultCh := make(chan outcome, 1)
	exec := ic.Executor
	if exec == nil {
		exec = DefaultExecutor()
	}
	exec.Go(func() {
		v, err := fx()
		resultCh <- outcome{v, err}
	})

	causeCh, cancelWait := ic.promise.Cancellable()
	select {
	case out := <-resultCh:
		cancelWait()
		return out.val, out.err
	case cause := <-causeCh:
		ic.markSignalled()
		var zero R
		return zero, cause
	}
}
