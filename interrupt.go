package pull

import "sync"

// Executor accepts a task and runs it. It has no completion callback of
// its own: a caller that needs the task's outcome reports it from inside
// the task, as InterruptibleEval does through a channel. It is the
// minimal capability interruptibleEval needs to
// race an effect against an interrupt signal: "can schedule work",
// nothing more. See the errgroup-backed DefaultExecutor for the
// implementation this module ships.
type Executor interface {
	Go(task func())
}

// InterruptContext is the shared signalling record for an interruptible
// sub-tree of the scope tree. It is inherited by reference into every
// descendant scope opened within the scope that created it; a
// descendant that opens its own interruptible scope shadows it with a
// fresh context.
type InterruptContext struct {
	Executor          Executor
	InterruptScopeID  Token
	MaxInterruptDepth int

	promise *Promise[error]

	mu            sync.Mutex
	interruptCase error // set at most once
	signalled     bool  // flips false->true at most once, guards double-consumption
}

const defaultMaxInterruptDepth = 256

// NewInterruptContext creates a fresh InterruptContext rooted at
// scopeID, using exec to run the interrupt/effect race.
func NewInterruptContext(exec Executor, scopeID Token) *InterruptContext {
	return &InterruptContext{
		Executor:          exec,
		InterruptScopeID:  scopeID,
		MaxInterruptDepth: defaultMaxInterruptDepth,
		promise:           NewPromise[error](),
	}
}

// Signal completes the promise with cause and records it as the
// interrupt cause, exactly once; repeated signals are no-ops.
func (ic *InterruptContext) Signal(cause error) {
	ic.mu.Lock()
	if ic.interruptCase == nil {
		ic.interruptCase = cause
	}
	ic.mu.Unlock()
	ic.promise.Complete(cause)
}

// Consume atomically reads the interrupt cause and flips signalled to
// true the first time it's called after a Signal; subsequent calls
// return (nil, false).
func (ic *InterruptContext) Consume() (error, bool) {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	if ic.interruptCase == nil || ic.signalled {
		return nil, false
	}
	ic.signalled = true
	return ic.interruptCase, true
}

// cause returns the recorded interrupt cause (or nil) without consuming
// it — used by isInterrupted, which only probes whether one exists.
func (ic *InterruptContext) cause() error {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	return ic.interruptCase
}

// markSignalled flips signalled to true without requiring a cause to be
// set, used when interruptibleEval's race loses to the interrupt: the
// race itself consumes the signal so shallInterrupt can't double-deliver
// it on the next step.
func (ic *InterruptContext) markSignalled() {
	ic.mu.Lock()
	ic.signalled = true
	ic.mu.Unlock()
}

func (ic *InterruptContext) isSignalled() bool {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	return ic.signalled
}
