package pull

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func sum(acc, o any) any { return acc.(int) + o.(int) }

// stepFlatMap sequences a single Step then f, short-circuiting to Fail
// on the step's own error — the same shape FlatMap gives Terms, lifted
// to the Step level for building test programs.
func stepFlatMap(step Step, f func(any) Term) Term {
	return Bind(step, func(r Result) Term {
		if r.Err != nil {
			return Fail(r.Err)
		}
		return f(r.Val)
	})
}

// TestCompile_S1_OrderedRelease models scenario S1: acquire three
// resources in order, emit a value, let Compile's implicit root close
// release them, and check they come back in reverse order.
func TestCompile_S1_OrderedRelease(t *testing.T) {
	var order []string

	term := acquireNamed("a", &order, acquireNamed("b", &order, acquireNamed("c", &order,
		stepFlatMap(Output(NewSegment([]int{1}, nil)), func(any) Term { return Pure(nil) }))))

	_, err := Compile(term, 0, sum)
	require.NoError(t, err)
	require.Equal(t, []string{"c", "b", "a"}, order)
}

// acquireNamed issues an Acquire step recording name into order on
// release, then sequences next.
func acquireNamed(name string, order *[]string, next Term) Term {
	return stepFlatMap(Acquire(func() (any, error) { return name, nil }, func(any) error {
		*order = append(*order, name)
		return nil
	}), func(any) Term {
		return next
	})
}

func TestCompile_S2_FailingAcquirePropagates(t *testing.T) {
	boom := errors.New("acquire failed")
	term := stepFlatMap(Acquire(func() (any, error) { return nil, boom }, func(any) error { return nil }), func(any) Term {
		return Pure(nil)
	})

	_, err := Compile(term, 0, sum)
	require.Error(t, err)
	require.ErrorIs(t, err, boom)
}

func TestCompile_S3_FailingFinalizersAggregate(t *testing.T) {
	boom1 := errors.New("finalizer 1")
	boom2 := errors.New("finalizer 2")

	term := stepFlatMap(Acquire(func() (any, error) { return 1, nil }, func(any) error { return boom1 }), func(any) Term {
		return stepFlatMap(Acquire(func() (any, error) { return 2, nil }, func(any) error { return boom2 }), func(any) Term {
			return Pure(nil)
		})
	})

	_, err := Compile(term, 0, sum)
	require.Error(t, err)
	var cf *CompositeFailure
	require.ErrorAs(t, err, &cf)
	require.Len(t, cf.Errors, 2)
}

func TestCompile_OutputFoldsIntoAccumulator(t *testing.T) {
	term := stepFlatMap(Output(NewSegment([]int{1, 2, 3}, nil)), func(any) Term {
		return stepFlatMap(Output(NewSegment([]int{4, 5}, nil)), func(any) Term {
			return Pure(nil)
		})
	})

	acc, err := Compile(term, 0, sum)
	require.NoError(t, err)
	require.Equal(t, 15, acc)
}

func TestFold_OpenAndCloseScopeSwitchesCurrent(t *testing.T) {
	root := NewRootScope()
	var seenDuringChild Token

	term := stepFlatMap(OpenScope(nil), func(v any) Term {
		child := v.(*CompileScope)
		seenDuringChild = child.ID
		return stepFlatMap(GetScope(), func(v any) Term {
			require.Equal(t, seenDuringChild, v.(*CompileScope).ID)
			return stepFlatMap(CloseScope(child), func(any) Term {
				return stepFlatMap(GetScope(), func(v any) Term {
					require.Equal(t, root.ID, v.(*CompileScope).ID)
					return Pure(nil)
				})
			})
		})
	})

	_, err := Fold(root, term, 0, sum)
	require.NoError(t, err)
}

func TestUnconsWalk_SplitsFirstChunkAndResumes(t *testing.T) {
	root := NewRootScope()

	inner := stepFlatMap(Output(NewSegment([]int{1, 2, 3, 4}, nil)), func(any) Term {
		return Pure(nil)
	})

	chunk, remainder, done, err := unconsWalk(root, inner, 2, 0)
	require.NoError(t, err)
	require.False(t, done)
	require.Equal(t, []any{1, 2}, chunk)

	chunk2, _, done2, err := unconsWalk(root, remainder, 2, 0)
	require.NoError(t, err)
	require.False(t, done2)
	require.Equal(t, []any{3, 4}, chunk2)
}

func TestUnconsWalk_ExhaustedInnerReportsDone(t *testing.T) {
	root := NewRootScope()
	chunk, _, done, err := unconsWalk(root, Pure(nil), 2, 0)
	require.NoError(t, err)
	require.True(t, done)
	require.Nil(t, chunk)
}
