package pull

// Fold walks term against scope, folding every emitted value into acc
// with g, and returns the final accumulator (or whatever acc had
// reached) together with any terminal error. It's the fold loop from
// spec.md §4.E: an explicit loop over ViewL rather than recursion, so a
// long stream can't blow the Go stack — the same discipline the
// teacher's ReactiveGraph.FindDependents applies with an explicit stack
// instead of recursive traversal.
func Fold(scope *CompileScope, term Term, init any, g func(acc, o any) any) (any, error) {
	cur := scope
	acc := init
	t := term

	for {
		v := ViewL(t)
		switch v.Kind {
		case ViewPure:
			return acc, nil
		case ViewFail:
			return acc, v.FailErr
		case ViewBind:
			if cause := cur.ShallInterrupt(); cause != nil {
				next, hardErr := feedResult(cur, v.K, ErrResult(cause))
				if hardErr != nil {
					return acc, hardErr
				}
				t = next
				continue
			}

			next, nextAcc, res := stepOnce(cur, v.Step, acc, g)
			cur = next
			acc = nextAcc
			nt, hardErr := feedResult(cur, v.K, res)
			if hardErr != nil {
				return acc, hardErr
			}
			t = nt
		}
	}
}

// Compile is the interpreter's entry point: it builds a fresh root
// scope, folds term into init, and — whether the fold succeeded or
// failed — always closes the root, combining the fold's own error and
// any close error with NewCompositeFailure (a single error is returned
// as it is; a CompositeFailure only when there is more than one).
func Compile(term Term, init any, g func(acc, o any) any) (any, error) {
	root := NewRootScope()
	acc, foldErr := Fold(root, term, init, g)
	closeErr := root.Close()
	return acc, NewCompositeFailure(foldErr, closeErr)
}

// feedResult hands res to continuation k, applying the interrupt
// unwinding rewrite first when res carries an *InterruptedError —
// whether that error came from the pre-step ShallInterrupt probe or
// from an effectful step (e.g. InterruptibleEval losing its race).
func feedResult(cur *CompileScope, k func(Result) Term, res Result) (Term, error) {
	if ie, ok := res.Err.(*InterruptedError); ok {
		return feedInterrupt(cur, k, ie)
	}
	return k(res), nil
}

// feedInterrupt implements spec.md §4.E's "Interrupt unwinding": if cur
// (or an ancestor of cur) is the scope named by cause, bump its loop
// counter and hand it to k — unless that would reach
// maxInterruptDepth, in which case the interpreter fails hard rather
// than risk an infinite cleanup loop. An interrupt that names a scope
// outside cur's ancestry is not dropped: it is handed to k unchanged, as
// an ordinary error, with no loop bump and no depth check.
func feedInterrupt(cur *CompileScope, k func(Result) Term, cause *InterruptedError) (Term, error) {
	relevant := cur.ID == cause.ScopeID || cur.HasAncestor(cause.ScopeID)
	if !relevant {
		return k(ErrResult(cause)), nil
	}

	bumped := cause.bumped()
	maxDepth := defaultMaxInterruptDepth
	if cur.interrupt != nil {
		maxDepth = cur.interrupt.MaxInterruptDepth
	}
	if bumped.Loop >= maxDepth {
		return nil, bumped
	}
	return k(ErrResult(bumped)), nil
}

// stepOnce dispatches a single algebra Step against cur, returning the
// (possibly new) current scope, the (possibly updated) fold
// accumulator, and the Result to feed the continuation. Output/Run are
// the only steps that touch acc; every other step leaves it untouched.
func stepOnce(cur *CompileScope, s Step, acc any, g func(any, any) any) (next *CompileScope, newAcc any, res Result) {
	switch st := s.(type) {
	case *outputStep:
		result, folded, err := safeFold(st.seg, acc, g)
		if err != nil {
			return cur, acc, ErrResult(err)
		}
		_ = result
		return cur, folded, Ok(nil)

	case *runStep:
		result, folded, err := safeFold(st.seg, acc, g)
		if err != nil {
			return cur, acc, ErrResult(err)
		}
		return cur, folded, Ok(result)

	case *unconsStep:
		chunk, remainder, done, err := unconsWalk(cur, st.inner, st.chunkSize, st.maxSteps)
		if err != nil {
			return cur, acc, ErrResult(err)
		}
		if done {
			return cur, acc, Ok(UnconsResult{Done: true})
		}
		return cur, acc, Ok(UnconsResult{Chunk: chunk, Remainder: remainder})

	case *evalStep:
		val, err := InterruptibleEval(cur, st.fx)
		return cur, acc, Result{Val: val, Err: err}

	case *acquireStep:
		val, _, err := AcquireResource(cur, st.acquire, st.release)
		return cur, acc, Result{Val: val, Err: err}

	case *releaseStep:
		err := cur.ReleaseResource(st.id)
		return cur, acc, Result{Err: err}

	case *openScopeStep:
		child, err := cur.Open(st.interruptible)
		if err != nil {
			return cur, acc, ErrResult(err)
		}
		return child, acc, Ok(child)

	case *closeScopeStep:
		err := st.inner.Close()
		return st.inner.OpenAncestor(), acc, Result{Err: err}

	case *getScopeStep:
		return cur, acc, Ok(cur)

	default:
		return cur, acc, ErrResult(&IllegalStateError{Reason: "unknown algebra step"})
	}
}

// safeFold folds seg into acc, converting a panic from g or from
// forcing the segment into a non-fatal UserError instead of crashing
// the interpreter — "exceptions from g or from forcing the segment are
// non-fatal and fed as k(Left(err))".
func safeFold(seg Segment, acc any, g func(any, any) any) (result any, newAcc any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &UserError{Phase: "fold", Cause: panicToError(r)}
		}
	}()
	result, newAcc = seg.Fold(acc, g)
	return result, newAcc, nil
}

func panicToError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return &panicValue{v: r}
}

type panicValue struct{ v any }

func (p *panicValue) Error() string { return "panic: " + toString(p.v) }

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if st, ok := v.(interface{ String() string }); ok {
		return st.String()
	}
	return "unrecognized panic value"
}

// unconsWalk drives inner against cur (the SAME current scope the outer
// fold is using — Uncons never opens its own top-level scope) until it
// finds the first Output/Run chunk, splits it at chunkSize, and returns
// the chunk plus a Remainder term that resumes right after it. Every
// other step along the way (Eval, Acquire, OpenScope, ...) is driven
// exactly like the outer fold loop, including interrupt unwinding —
// this is the "parallel walker" spec.md §4.E describes, sharing
// stepOnce and feedInterrupt with Fold so the two loops can't drift out
// of sync with each other.
func unconsWalk(cur *CompileScope, inner Term, chunkSize, maxSteps int) (chunk []any, remainder Term, done bool, err error) {
	t := inner
	steps := 0

	for {
		if maxSteps > 0 && steps >= maxSteps {
			return nil, t, false, nil
		}

		v := ViewL(t)
		switch v.Kind {
		case ViewPure:
			return nil, nil, true, nil
		case ViewFail:
			return nil, nil, false, v.FailErr

		case ViewBind:
			if cause := cur.ShallInterrupt(); cause != nil {
				next, hardErr := feedResult(cur, v.K, ErrResult(cause))
				if hardErr != nil {
					return nil, nil, false, hardErr
				}
				t = next
				steps++
				continue
			}

			switch st := v.Step.(type) {
			case *outputStep:
				return splitChunk(st.seg, chunkSize, v.K, func(seg Segment) Step { return &outputStep{seg: seg} }, Ok(nil))
			case *runStep:
				return splitChunk(st.seg, chunkSize, v.K, func(seg Segment) Step { return &runStep{seg: seg} }, Ok(st.seg.Result))

			default:
				next, _, res := stepOnce(cur, v.Step, nil, nil)
				cur = next
				nt, hardErr := feedResult(cur, v.K, res)
				if hardErr != nil {
					return nil, nil, false, hardErr
				}
				t = nt
				steps++
			}
		}
	}
}

// splitChunk takes the Output/Run splitting logic shared by unconsWalk's
// two chunk-bearing steps: if seg fits entirely within chunkSize it's
// returned whole and the walk's continuation k fires with whole; if it
// doesn't, the taken prefix is returned and the remainder term resumes
// with the same step rebuilt over the tail segment (not yet handed to
// k — there's more of this same step left to emit).
func splitChunk(seg Segment, chunkSize int, k func(Result) Term, rebuild func(Segment) Step, wholeResult Result) ([]any, Term, bool, error) {
	split := seg.SplitAt(chunkSize, 0)
	if split.Exhausted {
		return split.Chunks, k(wholeResult), false, nil
	}
	remainder := Bind(rebuild(split.Tail), k)
	return split.Chunks, remainder, false, nil
}
