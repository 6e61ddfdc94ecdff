package pull

import "sync"

// resourceState is the Resource state machine: Pending -> Open -> Closed,
// never backwards.
type resourceState int

const (
	resourcePending resourceState = iota
	resourceOpen
	resourceClosed
)

// Resource represents one acquired resource: a finalizer holder with a
// lease/release lifecycle. The finalizer runs exactly once, only after
// release has been requested and the outstanding lease count has
// dropped to zero.
type Resource struct {
	ID Token

	mu        sync.Mutex
	state     resourceState
	finalizer func() error
	leases    int
	pendingRl bool // release has been requested; fire finalizer once leases hit 0
}

// NewResource allocates a Resource in Pending state: no finalizer, zero
// leases.
func NewResource() *Resource {
	return &Resource{ID: NewToken(), state: resourcePending}
}

// Acquired installs finalizer and transitions Pending -> Open. If the
// resource has already been closed — e.g. because the scope that owns it
// closed while acquisition was racing it — it instead runs finalizer
// immediately and surfaces any error from doing so.
func (r *Resource) Acquired(finalizer func() error) error {
	r.mu.Lock()
	if r.state == resourceClosed {
		r.mu.Unlock()
		if err := finalizer(); err != nil {
			return &UserError{Phase: "late-acquire finalizer", Cause: err}
		}
		return nil
	}
	r.finalizer = finalizer
	r.state = resourceOpen
	r.mu.Unlock()
	return nil
}

// Lease increments the lease count while the resource is Open and
// returns a handle whose Cancel decrements it again, running the
// finalizer if the count drops to zero and release has already been
// requested. Lease returns nil while the resource is still Pending and
// once it is Closed; Release marks it Closed before the finalizer body
// runs. A Resource does not see its owning scope: a scope's close stops
// Lease here only once that close reaches this resource's Release.
func (r *Resource) Lease() *Lease {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != resourceOpen {
		return nil
	}
	r.leases++
	return &Lease{resource: r}
}

// Release marks the resource for release. With no outstanding leases the
// finalizer runs synchronously and the resource transitions to Closed;
// otherwise the request is recorded and the finalizer runs when the last
// lease is cancelled.
func (r *Resource) Release() error {
	r.mu.Lock()
	if r.state == resourceClosed {
		r.mu.Unlock()
		return nil
	}
	r.pendingRl = true
	if r.leases > 0 {
		r.mu.Unlock()
		return nil
	}
	fin := r.finalizer
	r.state = resourceClosed
	r.mu.Unlock()
	if fin == nil {
		return nil
	}
	if err := fin(); err != nil {
		return &UserError{Phase: "finalizer", Cause: err}
	}
	return nil
}

// cancelLease is invoked by Lease.Cancel; it decrements the lease count
// and, if it has hit zero with a release already requested, fires the
// finalizer exactly once.
func (r *Resource) cancelLease() error {
	r.mu.Lock()
	if r.leases > 0 {
		r.leases--
	}
	if r.leases > 0 || !r.pendingRl || r.state == resourceClosed {
		r.mu.Unlock()
		return nil
	}
	fin := r.finalizer
	r.state = resourceClosed
	r.mu.Unlock()
	if fin == nil {
		return nil
	}
	if err := fin(); err != nil {
		return &UserError{Phase: "finalizer", Cause: err}
	}
	return nil
}

// Lease is a counted, cancellable handle returned by Resource.Lease (or
// CompileScope.Lease, which composes many). Cancelling it exactly once
// is the caller's responsibility; a second Cancel is a no-op.
type Lease struct {
	resource *Resource
	children []*Lease // used by CompileScope.Lease to compose a snapshot
	mu       sync.Mutex
	done     bool
}

// Cancel releases this lease (and, for a composite lease, every
// underlying lease in its snapshot), aggregating any finalizer errors
// into a CompositeFailure. Calling Cancel more than once is a no-op.
func (l *Lease) Cancel() error {
	l.mu.Lock()
	if l.done {
		l.mu.Unlock()
		return nil
	}
	l.done = true
	l.mu.Unlock()

	var errs []error
	if l.resource != nil {
		if err := l.resource.cancelLease(); err != nil {
			errs = append(errs, err)
		}
	}
	for _, child := range l.children {
		if err := child.Cancel(); err != nil {
			errs = append(errs, err)
		}
	}
	return NewCompositeFailure(errs...)
}

// combineLeases composes n individual leases into one handle whose
// Cancel cancels all of them.
func combineLeases(leases []*Lease) *Lease {
	return &Lease{children: leases}
}
