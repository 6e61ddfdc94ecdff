package pull

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestViewL_PureFailBind(t *testing.T) {
	pv := ViewL(Pure(7))
	require.Equal(t, ViewPure, pv.Kind)
	require.Equal(t, 7, pv.PureVal)

	boom := errors.New("boom")
	fv := ViewL(Fail(boom))
	require.Equal(t, ViewFail, fv.Kind)
	require.Equal(t, boom, fv.FailErr)

	bv := ViewL(Bind(GetScope(), func(Result) Term { return Pure(1) }))
	require.Equal(t, ViewBind, bv.Kind)
}

func TestTransformWith_ReassociatesNestedBind(t *testing.T) {
	inner := Bind(GetScope(), func(r Result) Term {
		return Pure(r.Val)
	})

	var seen []string
	outer := TransformWith(inner, func(r Result) Term {
		seen = append(seen, "outer")
		return Pure(r.Val)
	})

	v := ViewL(outer)
	require.Equal(t, ViewBind, v.Kind, "TransformWith must not nest a Bind's step inside another Bind")

	_ = v.K(Ok("scope"))
	require.Equal(t, []string{"outer"}, seen)
}

func TestFlatMap_ShortCircuitsOnFailure(t *testing.T) {
	boom := errors.New("boom")
	called := false
	t1 := FlatMap(Fail(boom), func(any) Term {
		called = true
		return Pure(nil)
	})

	v := ViewL(t1)
	require.Equal(t, ViewFail, v.Kind)
	require.False(t, called)
	require.Equal(t, boom, v.FailErr)
}

func TestHandleErrorWith_RecoversFromFailure(t *testing.T) {
	boom := errors.New("boom")
	recovered := HandleErrorWith(Fail(boom), func(err error) Term {
		return Pure(err.Error())
	})

	v := ViewL(recovered)
	require.Equal(t, ViewPure, v.Kind)
	require.Equal(t, boom.Error(), v.PureVal)
}

func TestSegment_SplitAtExhaustedAndPartial(t *testing.T) {
	seg := NewSegment([]int{1, 2, 3, 4, 5}, "done")

	partial := seg.SplitAt(2, 0)
	require.False(t, partial.Exhausted)
	require.Equal(t, []any{1, 2}, partial.Chunks)
	require.Equal(t, []any{3, 4, 5}, partial.Tail.Values)

	whole := seg.SplitAt(10, 0)
	require.True(t, whole.Exhausted)
	require.Equal(t, "done", whole.Result)
}

func TestSegment_Fold(t *testing.T) {
	seg := NewSegment([]int{1, 2, 3}, "r")
	result, acc := seg.Fold(0, func(acc, v any) any {
		return acc.(int) + v.(int)
	})
	require.Equal(t, "r", result)
	require.Equal(t, 6, acc)
}
