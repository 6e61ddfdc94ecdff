package pull

import (
	"fmt"
	"strings"
)

// AcquireAfterScopeClosedError is returned when acquireResource is
// attempted against a scope that has already closed.
type AcquireAfterScopeClosedError struct {
	ScopeID Token
}

func (e *AcquireAfterScopeClosedError) Error() string {
	return fmt.Sprintf("acquire after scope %s closed", e.ScopeID)
}

// IllegalStateError covers the two illegal-state conditions the source
// calls out: interrupting a non-interruptible scope, and re-opening a
// closed root scope with no open ancestor to delegate to.
type IllegalStateError struct {
	Reason string
}

func (e *IllegalStateError) Error() string {
	return "illegal state: " + e.Reason
}

// InterruptedError is the marker error used to unwind a term when a
// scope has been interrupted. Loop counts how many times the stream's
// own error handler has re-emitted this same interrupt within ScopeID;
// the interpreter fails hard once Loop reaches InterruptContext's
// maxInterruptDepth.
type InterruptedError struct {
	ScopeID Token
	Loop    int
	Cause   error
}

func (e *InterruptedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("interrupted at scope %s (loop %d): %v", e.ScopeID, e.Loop, e.Cause)
	}
	return fmt.Sprintf("interrupted at scope %s (loop %d)", e.ScopeID, e.Loop)
}

func (e *InterruptedError) Unwrap() error {
	return e.Cause
}

// bumped returns a copy of e with Loop incremented, used when the same
// scope re-observes its own interrupt.
func (e *InterruptedError) bumped() *InterruptedError {
	return &InterruptedError{ScopeID: e.ScopeID, Loop: e.Loop + 1, Cause: e.Cause}
}

// CompositeFailure aggregates two or more errors collected from
// independent cleanup paths (finalizers, child scope closes, an acquire
// failure paired with its cleanup error). A single error is never
// wrapped in a CompositeFailure — callers use NewCompositeFailure to get
// that flattening behavior for free.
type CompositeFailure struct {
	Errors []error
}

// NewCompositeFailure flattens a list of errors (dropping nils, splicing
// in any nested CompositeFailure's own errors so composites never nest)
// and returns nil, the single error, or a *CompositeFailure.
func NewCompositeFailure(errs ...error) error {
	var flat []error
	for _, err := range errs {
		if err == nil {
			continue
		}
		if cf, ok := err.(*CompositeFailure); ok {
			flat = append(flat, cf.Errors...)
			continue
		}
		flat = append(flat, err)
	}
	switch len(flat) {
	case 0:
		return nil
	case 1:
		return flat[0]
	default:
		return &CompositeFailure{Errors: flat}
	}
}

func (e *CompositeFailure) Error() string {
	parts := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		parts[i] = err.Error()
	}
	return fmt.Sprintf("composite failure: [%s]", strings.Join(parts, "; "))
}

// Unwrap exposes the aggregated errors to errors.Is / errors.As via Go's
// multi-error unwrap convention.
func (e *CompositeFailure) Unwrap() []error {
	return e.Errors
}

// UserError wraps an error returned by a user-supplied release function
// (a finalizer) or a panic raised while folding a segment with the
// combiner, tagging it with the phase it came from for debug logging.
// Errors returned by a user's acquire function or by an Eval effect are
// passed on as they are, not wrapped.
type UserError struct {
	Phase string
	Cause error
}

func (e *UserError) Error() string {
	return fmt.Sprintf("user error during %s: %v", e.Phase, e.Cause)
}

func (e *UserError) Unwrap() error {
	return e.Cause
}
