// Package pull implements the scope tree and step interpreter at the core
// of a pull-based streaming runtime.
//
// # Overview
//
// A stream is interpreted by folding over an algebra of step requests
// (emit values, acquire/release resources, open/close sub-scopes,
// evaluate an effect, pull from a nested stream). Three concepts do the
// work:
//
//  1. Token: a process-unique identity for scopes and resources.
//  2. Resource: a finalizer holder with a lease/release lifecycle.
//  3. CompileScope: a node in a dynamically evolving tree that owns
//     resources and child scopes, and that can be interrupted.
//
// The interpreter ([Fold], and [Compile], which runs Fold from a fresh
// root scope) walks an algebra term, driving a [CompileScope] tree and
// folding emitted output into a caller-supplied accumulator.
//
// # Basic usage
//
//	term := pull.Bind(
//		pull.Acquire(
//			func() (any, error) { return os.Open("f") },
//			func(v any) error { return v.(io.Closer).Close() },
//		),
//		func(r pull.Result) pull.Term { return pull.Pure(r.Val) },
//	)
//
//	out, err := pull.Compile(term, 0, func(acc, o any) any {
//		return acc.(int) + 1
//	})
//
// # Interruption
//
// A scope opened with [CompileScope.Open] and an [ExecArgs] becomes
// interruptible: [CompileScope.Interrupt] signals it at most once, and
// the interpreter observes the signal between algebra steps and during
// effectful evaluation ([CompileScope.InterruptibleEval]).
//
// # Leases
//
// [CompileScope.Lease] snapshots every resource visible from a scope
// (its own, its children's, and its ancestors') and defers their
// finalization until every lease taken at that snapshot is cancelled.
// This is what lets concurrent sub-streams share a resource without a
// scope close finalizing it out from under a sibling still using it.
package pull
