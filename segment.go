package pull

// Segment is the minimal concrete implementation of the chunk-producing
// lazy sequence spec.md treats as an external collaborator ("iterable of
// O-values terminating in R"). The interpreter only ever needs to split
// a segment at a chunk boundary and fold it into an accumulator, so this
// type carries its values pre-materialized rather than lazily — nothing
// in the core spec requires genuine laziness, only the splitAt/fold
// contract shape.
//
// Values and Result are stored as `any` (type-erased) rather than with
// Segment[O, R] type parameters: the interpreter is itself type-erased
// (it walks a Term whose steps carry `any` payloads, the same choice the
// teacher makes for AnyExecutor/ResolveAny), so a generic Segment would
// just be erased again at the boundary. NewSegment below is the
// generic, type-safe constructor most callers should use.
type Segment struct {
	Values []any
	Result any
}

// NewSegment builds a Segment from typed values and a typed terminal
// result, erasing both to `any` for the interpreter.
func NewSegment[O any, R any](values []O, result R) Segment {
	erased := make([]any, len(values))
	for i, v := range values {
		erased[i] = v
	}
	return Segment{Values: erased, Result: result}
}

// SplitResult is the outcome of Segment.SplitAt: either the whole
// segment fit within the budget (Exhausted, with Result valid) or it
// didn't (Chunks is a prefix, Tail is the rest).
type SplitResult struct {
	Exhausted bool
	Chunks    []any
	Result    any     // valid iff Exhausted
	Tail      Segment // valid iff !Exhausted
}

// SplitAt takes at most n values (further capped by maxSteps, when
// positive) off the front of the segment. If that consumes everything,
// the split reports Exhausted with the segment's terminal Result;
// otherwise it returns the taken prefix and a Tail segment carrying the
// remainder and the same terminal Result.
func (s Segment) SplitAt(n, maxSteps int) SplitResult {
	limit := n
	if limit < 0 {
		limit = 0
	}
	if maxSteps > 0 && maxSteps < limit {
		limit = maxSteps
	}
	if limit >= len(s.Values) {
		return SplitResult{Exhausted: true, Chunks: s.Values, Result: s.Result}
	}
	return SplitResult{
		Exhausted: false,
		Chunks:    s.Values[:limit],
		Tail:      Segment{Values: s.Values[limit:], Result: s.Result},
	}
}

// Fold applies g across every value in order, starting from acc, and
// returns the segment's terminal Result alongside the final
// accumulator — `fold(acc)(g).force.run` from the external contract,
// collapsed into one call since this Segment is already materialized.
func (s Segment) Fold(acc any, g func(any, any) any) (result any, newAcc any) {
	for _, v := range s.Values {
		acc = g(acc, v)
	}
	return s.Result, acc
}
